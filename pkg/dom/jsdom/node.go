//go:build js && wasm

package jsdom

import (
	"reflect"
	"syscall/js"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Node wraps a JS node. Element nodes also implement dom.Element.
type Node struct {
	doc  *Document
	id   *dom.Identity
	ref  js.Value // WeakRef to the JS node
	kind dom.NodeType

	handlers map[string]js.Func
}

var (
	_ dom.Element = (*Node)(nil)
	_ dom.Event   = (*Event)(nil)
)

// Value returns the underlying JS node.
func (n *Node) Value() js.Value { return n.ref.Call("deref") }

// Identity implements dom.Node.
func (n *Node) Identity() *dom.Identity { return n.id }

// NodeType implements dom.Node.
func (n *Node) NodeType() dom.NodeType { return n.kind }

// NodeName implements dom.Node.
func (n *Node) NodeName() string { return n.Value().Get("nodeName").String() }

// TextContent implements dom.Node.
func (n *Node) TextContent() string { return n.Value().Get("textContent").String() }

// ParentNode implements dom.Node.
func (n *Node) ParentNode() dom.Node { return n.doc.node(n.Value().Get("parentNode")) }

// ChildNodes implements dom.Node.
func (n *Node) ChildNodes() []dom.Node { return n.doc.nodeList(n.Value().Get("childNodes")) }

// IsConnected implements dom.Node.
func (n *Node) IsConnected() bool { return n.Value().Get("isConnected").Bool() }

// AppendChild implements dom.Node.
func (n *Node) AppendChild(child dom.Node) error {
	c, err := unwrap(child)
	if err != nil {
		return err
	}
	return catch(func() { n.Value().Call("appendChild", c) })
}

// RemoveChild implements dom.Node.
func (n *Node) RemoveChild(child dom.Node) error {
	c, err := unwrap(child)
	if err != nil {
		return err
	}
	return catch(func() { n.Value().Call("removeChild", c) })
}

// Remove detaches the node from its parent.
func (n *Node) Remove() { n.Value().Call("remove") }

// TagName implements dom.Element.
func (n *Node) TagName() string { return n.Value().Get("localName").String() }

// SetAttribute implements dom.Element.
func (n *Node) SetAttribute(name, value string) error {
	return catch(func() { n.Value().Call("setAttribute", name, value) })
}

// GetAttribute implements dom.Element.
func (n *Node) GetAttribute(name string) (string, bool) {
	v := n.Value().Call("getAttribute", name)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// RemoveAttribute implements dom.Element.
func (n *Node) RemoveAttribute(name string) { n.Value().Call("removeAttribute", name) }

// HasProperty implements dom.Element as `name in element`.
func (n *Node) HasProperty(name string) bool {
	return js.Global().Get("Reflect").Call("has", n.Value(), name).Bool()
}

// SetProperty implements dom.Element. Event handler properties (on*) take
// a Go function, which is bridged with js.FuncOf and released when the
// property is replaced.
func (n *Node) SetProperty(name string, value any) error {
	if len(name) > 2 && name[:2] == "on" {
		if h, ok := dom.ToEventHandler(value); ok {
			return n.setHandler(name, h)
		}
	}
	v, err := n.doc.toJS(value)
	if err != nil {
		return err
	}
	return catch(func() { n.Value().Set(name, v) })
}

// Property implements dom.Element.
func (n *Node) Property(name string) (any, bool) {
	if _, ok := n.handlers[name]; ok {
		return n.handlers[name], true
	}
	if !n.HasProperty(name) {
		return nil, false
	}
	return n.doc.toGo(n.Value().Get(name)), true
}

// Dispatch fires a bubbling, cancelable event of type typ and reports
// whether the default action was not prevented.
func (n *Node) Dispatch(typ string) bool {
	ev := js.Global().Get("Event").New(typ, map[string]any{"bubbles": true, "cancelable": true})
	return n.Value().Call("dispatchEvent", ev).Bool()
}

func (n *Node) setHandler(name string, h dom.EventHandler) error {
	if old, ok := n.handlers[name]; ok {
		old.Release()
	}
	if n.handlers == nil {
		n.handlers = make(map[string]js.Func)
	}
	fn := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			h(&Event{doc: n.doc, v: args[0]})
		}
		return nil
	})
	n.handlers[name] = fn
	return catch(func() { n.Value().Set(name, fn) })
}

// Event wraps a JS event.
type Event struct {
	doc *Document
	v   js.Value
}

// Type implements dom.Event.
func (e *Event) Type() string { return e.v.Get("type").String() }

// Target implements dom.Event.
func (e *Event) Target() dom.Element { return e.doc.element(e.v.Get("target")) }

// CurrentTarget implements dom.Event.
func (e *Event) CurrentTarget() dom.Element { return e.doc.element(e.v.Get("currentTarget")) }

// PreventDefault implements dom.Event.
func (e *Event) PreventDefault() { e.v.Call("preventDefault") }

// DefaultPrevented implements dom.Event.
func (e *Event) DefaultPrevented() bool { return e.v.Get("defaultPrevented").Bool() }

// StopPropagation implements dom.Event.
func (e *Event) StopPropagation() { e.v.Call("stopPropagation") }

// Value returns the underlying JS event.
func (e *Event) Value() js.Value { return e.v }

func unwrap(n dom.Node) (js.Value, error) {
	w, ok := n.(*Node)
	if !ok || w == nil {
		return js.Undefined(), errors.New("E131").WithDetailf("%T is not a browser node", n)
	}
	return w.Value(), nil
}

// toJS converts a property value. Nodes are unwrapped; everything
// js.ValueOf accepts passes through.
func (d *Document) toJS(v any) (js.Value, error) {
	switch x := v.(type) {
	case *Node:
		return x.Value(), nil
	case js.Value:
		return x, nil
	case js.Func:
		return x.Value, nil
	case nil, bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr, float32, float64,
		[]any, map[string]any:
		return js.ValueOf(x), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return js.ValueOf(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return js.ValueOf(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return js.ValueOf(rv.Float()), nil
	case reflect.Bool:
		return js.ValueOf(rv.Bool()), nil
	}
	return js.Undefined(), errors.New("E135").WithDetailf("cannot pass %T to JavaScript", v)
}

func (d *Document) toGo(v js.Value) any {
	switch v.Type() {
	case js.TypeUndefined, js.TypeNull:
		return nil
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	case js.TypeObject:
		if v.InstanceOf(d.global.Get("Node")) {
			return d.node(v)
		}
	}
	return v
}
