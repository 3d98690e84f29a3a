//go:build js && wasm

package jsdom

import (
	"syscall/js"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Observer wraps a browser MutationObserver.
type Observer struct {
	doc *Document
	obs js.Value
	fn  js.Func
}

var _ dom.Observer = (*Observer)(nil)

// Observe implements dom.Observer.
func (o *Observer) Observe(target dom.Node, opts dom.ObserveOptions) error {
	if !opts.ChildList && !opts.Attributes && !opts.CharacterData {
		return errors.New("E134").WithDetail("at least one of childList, attributes or characterData must be set")
	}
	t, err := unwrap(target)
	if err != nil {
		return err
	}
	init := map[string]any{
		"childList":     opts.ChildList,
		"attributes":    opts.Attributes,
		"characterData": opts.CharacterData,
		"subtree":       opts.Subtree,
	}
	if opts.Attributes {
		init["attributeOldValue"] = true
	}
	if opts.CharacterData {
		init["characterDataOldValue"] = true
	}
	return catch(func() { o.obs.Call("observe", t, init) })
}

// Disconnect implements dom.Observer.
func (o *Observer) Disconnect() { o.obs.Call("disconnect") }

// TakeRecords implements dom.Observer.
func (o *Observer) TakeRecords() []dom.MutationRecord {
	return o.doc.records(o.obs.Call("takeRecords"))
}

func (d *Document) records(list js.Value) []dom.MutationRecord {
	out := make([]dom.MutationRecord, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		r := list.Index(i)
		rec := dom.MutationRecord{
			Type:         r.Get("type").String(),
			Target:       d.node(r.Get("target")),
			AddedNodes:   d.nodeList(r.Get("addedNodes")),
			RemovedNodes: d.nodeList(r.Get("removedNodes")),
		}
		if name := r.Get("attributeName"); name.Type() == js.TypeString {
			rec.AttributeName = name.String()
		}
		if old := r.Get("oldValue"); old.Type() == js.TypeString {
			rec.OldValue = old.String()
		}
		out = append(out, rec)
	}
	return out
}
