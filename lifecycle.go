package inactive

import (
	"fmt"

	"github.com/vango-dev/inactive/pkg/dom"
)

// EnterFunc runs one timer turn after its element is inserted under a
// mounted root.
type EnterFunc func(el dom.Element)

// ExitFunc runs one timer turn after its element is removed from under a
// mounted root.
type ExitFunc func()

func toEnterFunc(v any) (EnterFunc, bool) {
	switch fn := v.(type) {
	case EnterFunc:
		return fn, fn != nil
	case func(dom.Element):
		return fn, fn != nil
	case func():
		if fn == nil {
			return nil, false
		}
		return func(dom.Element) { fn() }, true
	}
	return nil, false
}

func toExitFunc(v any) (ExitFunc, bool) {
	switch fn := v.(type) {
	case ExitFunc:
		return fn, fn != nil
	case func():
		return fn, fn != nil
	}
	return nil, false
}

// pendingKey names one scheduled callback.
type pendingKey struct {
	id   *dom.Identity
	exit bool
}

// onMutations is the mount observer callback. A callback already scheduled
// and not yet run is not scheduled again, so a node is entered or exited
// once per batch even when nested mount roots both report it.
func (r *Runtime) onMutations(records []dom.MutationRecord, _ dom.Observer) {
	for _, rec := range records {
		if rec.Type != dom.MutationChildList {
			continue
		}

		for _, added := range rec.AddedNodes {
			dom.Walk(added, func(n dom.Node) bool {
				el, ok := n.(dom.Element)
				if !ok {
					return true
				}
				if fn, ok := r.enter.Get(el.Identity()); ok {
					r.schedule(pendingKey{id: el.Identity()}, func() { fn(el) })
				}
				return true
			})
		}

		for _, removed := range rec.RemovedNodes {
			dom.Walk(removed, func(n dom.Node) bool {
				el, ok := n.(dom.Element)
				if !ok {
					return true
				}
				r.releaseRef(el)
				if fn, ok := r.exit.Get(el.Identity()); ok {
					r.schedule(pendingKey{id: el.Identity(), exit: true}, fn)
				}
				return true
			})
		}
	}
}

// schedule defers fn to a later turn of the host event loop unless the
// same callback is already pending.
func (r *Runtime) schedule(key pendingKey, fn func()) {
	if _, ok := r.pending[key]; ok {
		return
	}
	r.pending[key] = struct{}{}

	r.doc.SetTimeout(func() {
		delete(r.pending, key)
		defer func() {
			if v := recover(); v != nil {
				kind := "onEnter"
				if key.exit {
					kind = "onExit"
				}
				r.logger.Error("lifecycle callback panicked",
					"callback", kind,
					"node", key.id.String(),
					"panic", fmt.Sprint(v))
			}
		}()
		fn()
	}, 0)
}
