package inactive

import "reflect"

// Fragment groups children without a wrapper element. It returns its
// children flattened into a slice with nil and false removed, which
// CreateElement appends as siblings.
//
//	r.H(inactive.Tag("ul"), nil, r.H(inactive.Fragment, nil, li1, li2))
var Fragment Component = func(props Props) any {
	out := []any{}
	flatten(&out, props.Children())
	return out
}

func flatten(out *[]any, v any) {
	switch x := v.(type) {
	case nil:
		return
	case bool:
		if !x {
			return
		}
	case []any:
		for _, item := range x {
			flatten(out, item)
		}
		return
	case string:
	default:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				flatten(out, rv.Index(i).Interface())
			}
			return
		}
	}
	*out = append(*out, v)
}
