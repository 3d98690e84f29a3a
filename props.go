package inactive

import (
	"fmt"
	"strings"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Prop is one key/value pair of a property bag.
type Prop struct {
	Key   string
	Value any
}

// Props is an ordered property bag. Props are applied in order, so later
// entries override earlier ones.
type Props []Prop

// P builds Props from alternating keys and values:
//
//	inactive.P("className", "item", "onClick", handler)
//
// It panics if a key is not a string or a key has no value.
func P(kv ...any) Props {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("inactive.P: odd number of arguments (%d)", len(kv)))
	}
	props := make(Props, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("inactive.P: key %d is %T, not string", i/2, kv[i]))
		}
		props = append(props, Prop{Key: key, Value: kv[i+1]})
	}
	return props
}

// Get returns the last value set for key.
func (p Props) Get(key string) (any, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return nil, false
}

// With returns a copy of p with key set to value.
func (p Props) With(key string, value any) Props {
	out := make(Props, len(p), len(p)+1)
	copy(out, p)
	return append(out, Prop{Key: key, Value: value})
}

// Children returns the "children" prop a component was called with.
func (p Props) Children() any {
	v, _ := p.Get("children")
	return v
}

// PropKind is the rule SetProp applies for a key.
type PropKind uint8

const (
	PropRef PropKind = iota + 1
	PropLifecycle
	PropStyle
	PropClassName
	PropEvent
	PropProperty
	PropAttribute
)

// String returns the string representation of the PropKind.
func (k PropKind) String() string {
	switch k {
	case PropRef:
		return "ref"
	case PropLifecycle:
		return "lifecycle"
	case PropStyle:
		return "style"
	case PropClassName:
		return "className"
	case PropEvent:
		return "event"
	case PropProperty:
		return "property"
	case PropAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

type propRule struct {
	kind  PropKind
	match func(el dom.Element, key string) bool
	apply func(r *Runtime, el dom.Element, key string, value any) error
}

// propRules is tested top to bottom; the first match wins.
var propRules = []propRule{
	{
		kind:  PropRef,
		match: func(_ dom.Element, key string) bool { return key == "ref" },
		apply: (*Runtime).setRef,
	},
	{
		kind:  PropLifecycle,
		match: func(_ dom.Element, key string) bool { return key == "onEnter" || key == "onExit" },
		apply: (*Runtime).setLifecycle,
	},
	{
		kind:  PropStyle,
		match: func(_ dom.Element, key string) bool { return key == "style" },
		apply: func(_ *Runtime, el dom.Element, _ string, value any) error {
			text, err := StyleText(value)
			if err != nil {
				return err
			}
			return el.SetAttribute("style", text)
		},
	},
	{
		kind:  PropClassName,
		match: func(_ dom.Element, key string) bool { return key == "className" },
		apply: func(_ *Runtime, el dom.Element, _ string, value any) error {
			return el.SetAttribute("class", stringify(value))
		},
	},
	{
		kind:  PropEvent,
		match: func(_ dom.Element, key string) bool { return strings.HasPrefix(key, "on") },
		apply: func(_ *Runtime, el dom.Element, key string, value any) error {
			return el.SetProperty("on"+strings.ToLower(key[2:]), value)
		},
	},
	{
		kind:  PropProperty,
		match: func(el dom.Element, key string) bool { return el.HasProperty(key) },
		apply: func(_ *Runtime, el dom.Element, key string, value any) error {
			return el.SetProperty(key, value)
		},
	},
	{
		kind:  PropAttribute,
		match: func(dom.Element, string) bool { return true },
		apply: func(_ *Runtime, el dom.Element, key string, value any) error {
			return el.SetAttribute(key, stringify(value))
		},
	},
}

// Classify reports which rule SetProp applies to key on el.
func Classify(el dom.Element, key string) PropKind {
	for _, rule := range propRules {
		if rule.match(el, key) {
			return rule.kind
		}
	}
	return PropAttribute
}

// SetProp applies one prop to el, using the first matching rule:
//
//  1. ref: bind a *Ref or call a ref callback with el
//  2. onEnter, onExit: register a lifecycle callback
//  3. style: set the style attribute from a Style, map or string
//  4. className: set the class attribute
//  5. on*: set the lower-cased event handler property
//  6. a property el already has: set it as a property
//  7. anything else: set it as an attribute
//
// A nil value is ignored.
func (r *Runtime) SetProp(el dom.Element, key string, value any) error {
	if el == nil {
		return errors.New("E105").WithDetail("nil element")
	}
	if value == nil {
		return nil
	}
	for _, rule := range propRules {
		if rule.match(el, key) {
			return rule.apply(r, el, key, value)
		}
	}
	return nil
}

func (r *Runtime) setLifecycle(el dom.Element, key string, value any) error {
	id := el.Identity()
	if key == "onEnter" {
		fn, ok := toEnterFunc(value)
		if !ok {
			return errors.New("E102").WithDetailf("onEnter must be func(dom.Element) or func(), got %T", value)
		}
		r.enter.Set(id, fn)
		return nil
	}
	fn, ok := toExitFunc(value)
	if !ok {
		return errors.New("E102").WithDetailf("onExit must be func(), got %T", value)
	}
	r.exit.Set(id, fn)
	return nil
}

// stringify converts an attribute value to text.
func stringify(v any) string {
	if s, ok := textOf(v); ok {
		return s
	}
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
