package inactive

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Type is what CreateElement builds: a Tag or a Component.
type Type interface {
	isType()
}

// Tag names an intrinsic element, e.g. Tag("div").
type Tag string

func (Tag) isType() {}

// Component is a stateless function from props to a renderable value: a
// node, a string or number, nil, or a slice of those.
type Component func(props Props) any

func (Component) isType() {}

// CreateElement builds t.
//
// For a Component it calls the function with props plus a "children" prop
// and returns the result unprocessed. For a Tag it creates the element,
// applies props in order, appends the normalized children in order and
// returns the element.
//
// Children may be nodes, strings, numbers, slices of those, nil or false;
// nil and false are skipped. Any other child fails with ErrInvalidChild,
// leaving the children appended so far in place.
func (r *Runtime) CreateElement(t Type, props Props, children ...any) (any, error) {
	switch t := t.(type) {
	case Component:
		if t == nil {
			return nil, errors.New("E105").WithDetail("nil component")
		}
		return t(props.With("children", childrenProp(children))), nil

	case Tag:
		el, err := r.doc.CreateElement(string(t))
		if err != nil {
			return nil, errors.New("E105").WithDetailf("tag %q", string(t)).Wrap(err)
		}
		for _, p := range props {
			if err := r.SetProp(el, p.Key, p.Value); err != nil {
				return nil, err
			}
		}
		for _, child := range children {
			nodes, err := r.render(child)
			if err != nil {
				return nil, err
			}
			for _, n := range nodes {
				if err := el.AppendChild(n); err != nil {
					return nil, err
				}
			}
		}
		return el, nil

	default:
		return nil, errors.New("E105").WithDetailf("%T", t)
	}
}

// H is CreateElement for nesting inside expressions. It panics with the
// *Error CreateElement would have returned; recover it with Try.
func (r *Runtime) H(t Type, props Props, children ...any) any {
	v, err := r.CreateElement(t, props, children...)
	if err != nil {
		panic(err)
	}
	return v
}

// El is H for a tag that returns the element.
func (r *Runtime) El(tag string, props Props, children ...any) dom.Element {
	return r.H(Tag(tag), props, children...).(dom.Element)
}

// Try runs fn and converts a panic raised by H into an error. Other
// panics propagate.
func (r *Runtime) Try(fn func() any) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			e, ok := p.(*errors.Error)
			if !ok {
				panic(p)
			}
			v, err = nil, e
		}
	}()
	return fn(), nil
}

// childrenProp is the value of the "children" prop passed to components:
// the child itself when exactly one non-slice child is given, otherwise
// all children as a slice.
func childrenProp(children []any) any {
	if len(children) == 1 && !isList(children[0]) {
		return children[0]
	}
	out := make([]any, len(children))
	copy(out, children)
	return out
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// describe names v for error details, cut to 40 runes.
func describe(v any) string {
	s := fmt.Sprintf("%v", v)
	if r := []rune(s); len(r) > 40 {
		s = string(r[:40]) + "..."
	}
	return fmt.Sprintf("%s (%T)", s, v)
}
