// Package inactive builds live DOM nodes from JSX-style calls.
//
// There is no virtual DOM, no diffing and no scheduler. CreateElement
// creates the element through the host document right away, resolves its
// props and appends its children. Mount attaches a built node under a root
// and watches the root's subtree so that enter and exit callbacks fire,
// one timer turn later, when elements are inserted into or removed from
// the document.
//
//	r := inactive.New(doc)
//	list := r.H(inactive.Tag("ul"), nil,
//		r.H(inactive.Tag("li"), inactive.P("className", "item"), "a"),
//		r.H(inactive.Tag("li"), nil, "b"),
//	)
//	r.Mount(body, list)
//
// The host document is any dom.Document: memdom in tests and on the
// server, jsdom in the browser.
package inactive

import (
	"log/slog"
	"weak"

	"github.com/vango-dev/inactive/internal/weakmap"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Runtime builds nodes into one host document and owns the association
// tables for refs and lifecycle callbacks. Table entries are stored on the
// node's identity, so they never keep a node alive, even when a callback
// captures its own element.
//
// A Runtime is used from the goroutine that runs the host event loop.
type Runtime struct {
	doc    dom.Document
	logger *slog.Logger

	refs  *weakmap.Map[*dom.Identity, weak.Pointer[Ref]]
	enter *weakmap.Map[*dom.Identity, EnterFunc]
	exit  *weakmap.Map[*dom.Identity, ExitFunc]
	roots *weakmap.Map[*dom.Identity, dom.Observer]

	// pending holds the callbacks scheduled but not yet run, so that
	// overlapping observers schedule each one once.
	pending map[pendingKey]struct{}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used to report panicking lifecycle callbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a runtime that builds into doc.
func New(doc dom.Document, opts ...Option) *Runtime {
	r := &Runtime{
		doc:     doc,
		logger:  slog.Default().With("component", "inactive"),
		refs:    weakmap.New[*dom.Identity, weak.Pointer[Ref]](),
		enter:   weakmap.New[*dom.Identity, EnterFunc](),
		exit:    weakmap.New[*dom.Identity, ExitFunc](),
		roots:   weakmap.New[*dom.Identity, dom.Observer](),
		pending: make(map[pendingKey]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the host document.
func (r *Runtime) Document() dom.Document { return r.doc }
