package inactive

import (
	"reflect"
	"strconv"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// render normalizes a child into the nodes to append: slices are
// flattened in order, strings and numbers become text nodes, nodes pass
// through, nil and false are skipped.
func (r *Runtime) render(child any) ([]dom.Node, error) {
	var out []dom.Node
	if err := r.renderInto(&out, child); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runtime) renderInto(out *[]dom.Node, child any) error {
	switch c := child.(type) {
	case nil:
		return nil
	case bool:
		if !c {
			return nil
		}
	case dom.Node:
		*out = append(*out, c)
		return nil
	case []any:
		for _, item := range c {
			if err := r.renderInto(out, item); err != nil {
				return err
			}
		}
		return nil
	case []dom.Node:
		*out = append(*out, c...)
		return nil
	default:
		if s, ok := textOf(child); ok {
			*out = append(*out, r.doc.CreateTextNode(s))
			return nil
		}
		if rv := reflect.ValueOf(child); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				if err := r.renderInto(out, rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return errors.New("E100").WithDetail(describe(child)).
		WithSuggestion("Children must be nodes, strings, numbers, slices of those, nil or false.")
}

// textOf returns the text form of strings and numbers.
func textOf(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return dom.FormatNumber(x), true
	case float32:
		return dom.FormatNumber(float64(x)), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return dom.FormatNumber(rv.Float()), true
	}
	return "", false
}

// toFloat converts any numeric kind.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
