package inactive

import (
	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Mount appends child under root and returns the appended node.
//
// A nil or false child leaves root untouched and returns nil. A string or
// number is appended as a text node. A node is appended after the root's
// subtree observer is installed; the observer drives enter and exit
// callbacks and ref release, and is installed once per root.
func (r *Runtime) Mount(root dom.Node, child any) (dom.Node, error) {
	if root == nil {
		return nil, errors.New("E104").WithDetail("root is nil")
	}

	switch c := child.(type) {
	case nil:
		return nil, nil
	case bool:
		if !c {
			return nil, nil
		}
	case dom.Node:
		if err := r.observe(root); err != nil {
			return nil, err
		}
		if err := root.AppendChild(c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		if s, ok := textOf(child); ok {
			text := r.doc.CreateTextNode(s)
			if err := root.AppendChild(text); err != nil {
				return nil, err
			}
			return text, nil
		}
	}
	return nil, errors.New("E100").WithDetail(describe(child)).
		WithSuggestion("Mount takes a single node, string or number; wrap fragments in an element.")
}

// IsMounted reports whether root has this runtime's observer.
func (r *Runtime) IsMounted(root dom.Node) bool {
	return root != nil && r.roots.Has(root.Identity())
}

// Unmount disconnects the observer installed on root. Nodes stay in place;
// later insertions and removals no longer fire callbacks.
func (r *Runtime) Unmount(root dom.Node) {
	if root == nil {
		return
	}
	if obs, ok := r.roots.Delete(root.Identity()); ok {
		obs.Disconnect()
	}
}

func (r *Runtime) observe(root dom.Node) error {
	id := root.Identity()
	if r.roots.Has(id) {
		return nil
	}
	obs := r.doc.NewMutationObserver(r.onMutations)
	if err := obs.Observe(root, dom.ObserveOptions{ChildList: true, Subtree: true}); err != nil {
		return errors.New("E104").Wrap(err)
	}
	r.roots.Set(id, obs)
	return nil
}
