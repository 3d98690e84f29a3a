package memdom

import (
	"slices"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Observer is a MutationObserver. Records matching any of its
// registrations are queued and delivered together in one microtask.
type Observer struct {
	doc       *Document
	callback  dom.MutationCallback
	records   []dom.MutationRecord
	scheduled bool
}

var _ dom.Observer = (*Observer)(nil)

type registration struct {
	observer *Observer
	target   node
	opts     dom.ObserveOptions
}

func (r *registration) matches(rec dom.MutationRecord) bool {
	switch rec.Type {
	case dom.MutationChildList:
		if !r.opts.ChildList {
			return false
		}
	case dom.MutationAttributes:
		if !r.opts.Attributes {
			return false
		}
	case dom.MutationCharacterData:
		if !r.opts.CharacterData {
			return false
		}
	}
	if dom.Same(r.target, rec.Target) {
		return true
	}
	return r.opts.Subtree && dom.Contains(r.target, rec.Target)
}

// Observe implements dom.Observer. Observing the same target again
// replaces its options.
func (o *Observer) Observe(target dom.Node, opts dom.ObserveOptions) error {
	if !opts.ChildList && !opts.Attributes && !opts.CharacterData {
		return errors.New("E134").WithDetail("at least one of childList, attributes or characterData must be set")
	}
	t, ok := target.(node)
	if !ok || t.base().doc != o.doc {
		return errors.New("E131").WithDetail("observe target belongs to another document")
	}
	for _, r := range o.doc.registrations {
		if r.observer == o && r.target == t {
			r.opts = opts
			return nil
		}
	}
	o.doc.registrations = append(o.doc.registrations, &registration{observer: o, target: t, opts: opts})
	return nil
}

// Disconnect implements dom.Observer. Pending records are dropped.
func (o *Observer) Disconnect() {
	o.doc.registrations = slices.DeleteFunc(o.doc.registrations, func(r *registration) bool {
		return r.observer == o
	})
	o.records = nil
}

// TakeRecords implements dom.Observer.
func (o *Observer) TakeRecords() []dom.MutationRecord {
	recs := o.records
	o.records = nil
	return recs
}

func (o *Observer) enqueue(rec dom.MutationRecord) {
	o.records = append(o.records, rec)
	if o.scheduled {
		return
	}
	o.scheduled = true
	o.doc.loop.QueueMicrotask(o.deliver)
}

func (o *Observer) deliver() {
	o.scheduled = false
	recs := o.TakeRecords()
	if len(recs) == 0 || o.callback == nil {
		return
	}
	o.callback(recs, o)
}

// queueRecord hands rec to every observer with a matching registration,
// once per observer.
func (d *Document) queueRecord(rec dom.MutationRecord) {
	var seen []*Observer
	for _, r := range d.registrations {
		if slices.Contains(seen, r.observer) || !r.matches(rec) {
			continue
		}
		seen = append(seen, r.observer)
		r.observer.enqueue(rec)
	}
}
