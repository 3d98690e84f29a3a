package memdom

import (
	"fmt"

	"github.com/vango-dev/inactive/pkg/dom"
)

// Event is an event dispatched on a memdom element.
type Event struct {
	typ       string
	target    *Element
	current   *Element
	stopped   bool
	prevented bool
}

var _ dom.Event = (*Event)(nil)

// Type implements dom.Event.
func (ev *Event) Type() string { return ev.typ }

// Target implements dom.Event.
func (ev *Event) Target() dom.Element { return ev.target }

// CurrentTarget implements dom.Event. It is nil outside dispatch.
func (ev *Event) CurrentTarget() dom.Element {
	if ev.current == nil {
		return nil
	}
	return ev.current
}

// PreventDefault implements dom.Event.
func (ev *Event) PreventDefault() { ev.prevented = true }

// DefaultPrevented implements dom.Event.
func (ev *Event) DefaultPrevented() bool { return ev.prevented }

// StopPropagation implements dom.Event.
func (ev *Event) StopPropagation() { ev.stopped = true }

// Dispatch fires an event of type typ at e. The on<typ> handler of e and
// of each ancestor runs in turn until one stops propagation. It returns
// false if a handler called PreventDefault.
func (e *Element) Dispatch(typ string) bool {
	ev := &Event{typ: typ, target: e}
	name := "on" + typ
	for cur := e; cur != nil; cur = cur.parent {
		if h := cur.handlers[name]; h != nil {
			ev.current = cur
			cur.invoke(h, ev)
		}
		if ev.stopped {
			break
		}
	}
	ev.current = nil
	return !ev.prevented
}

// Click simulates a user click. Checkboxes toggle before the click event
// and revert if it is cancelled; radio buttons become checked.
func (e *Element) Click() bool {
	if disabled, _ := e.Property("disabled"); disabled == true {
		return false
	}

	kind := ""
	if e.tag == "input" {
		kind, _ = e.GetAttribute("type")
	}
	var was any
	if kind == "checkbox" || kind == "radio" {
		was, _ = e.Property("checked")
		if kind == "checkbox" {
			e.setProp("checked", was != true)
		} else {
			e.setProp("checked", true)
		}
	}

	ok := e.Dispatch("click")
	if !ok && was != nil {
		e.setProp("checked", was)
	}
	if ok && was != nil && was != e.props["checked"] {
		e.Dispatch("input")
		e.Dispatch("change")
	}
	return ok
}

// Input sets the live value of a form control and fires input and change.
func (e *Element) Input(value string) {
	e.setProp("value", value)
	e.Dispatch("input")
	e.Dispatch("change")
}

func (e *Element) invoke(h dom.EventHandler, ev *Event) {
	defer func() {
		if v := recover(); v != nil {
			e.doc.logger.Error("event handler panicked",
				"event", ev.typ,
				"target", ev.target.Identity().String(),
				"panic", fmt.Sprint(v))
		}
	}()
	h(ev)
}
