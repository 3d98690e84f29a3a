package inactive

import (
	"sync"
	"weak"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Ref is an object ref. Passing it as the "ref" prop sets Current to the
// element immediately; once the element is removed from a mounted tree,
// Current is reset to nil.
//
// Ref is safe for concurrent access.
type Ref struct {
	mu      sync.RWMutex
	current dom.Element
}

// CreateRef returns an empty ref.
func CreateRef() *Ref {
	return &Ref{}
}

// Current returns the bound element, or nil.
func (r *Ref) Current() dom.Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// IsSet reports whether the ref holds an element.
func (r *Ref) IsSet() bool {
	return r.Current() != nil
}

func (r *Ref) set(el dom.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = el
}

// clearIf resets the ref if it still points at el.
func (r *Ref) clearIf(el dom.Element) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || !dom.Same(r.current, el) {
		return false
	}
	r.current = nil
	return true
}

// RefFunc is a callback ref, called with the element as soon as the ref
// prop is applied.
type RefFunc func(el dom.Element)

func (r *Runtime) setRef(el dom.Element, _ string, value any) error {
	switch ref := value.(type) {
	case *Ref:
		if ref == nil {
			break
		}
		ref.set(el)
		r.refs.Set(el.Identity(), weak.Make(ref))
		return nil
	case RefFunc:
		if ref == nil {
			break
		}
		ref(el)
		return nil
	case func(dom.Element):
		if ref == nil {
			break
		}
		ref(el)
		return nil
	}
	return errors.New("E101").WithDetailf("ref must be *Ref, RefFunc or func(dom.Element), got %T", value)
}

// releaseRef drops the ref bound to el if el has left the document.
func (r *Runtime) releaseRef(el dom.Element) {
	id := el.Identity()
	wp, ok := r.refs.Get(id)
	if !ok {
		return
	}
	ref := wp.Value()
	if ref == nil {
		r.refs.Delete(id)
		return
	}
	if el.IsConnected() {
		return
	}
	ref.clearIf(el)
	r.refs.Delete(id)
}
