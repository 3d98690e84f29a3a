//go:build js && wasm

// Package jsdom implements the dom host interfaces on top of the browser
// document, through syscall/js.
//
// Every JS node handed to Go gets one wrapper, and so one dom.Identity,
// for as long as the JS node is alive. Wrappers hold the JS node through a
// WeakRef and are dropped from the wrapper table by a FinalizationRegistry
// callback once the browser collects the node.
package jsdom

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"syscall/js"
	"time"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// idKey is the expando property carrying a node's wrapper id.
const idKey = "__inactiveID"

// Document wraps the browser document.
type Document struct {
	global js.Value
	doc    js.Value
	logger *slog.Logger

	mu       sync.Mutex
	nodes    map[int]*Node
	nextID   int
	registry js.Value
	finalize js.Func
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the document logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New wraps globalThis.document.
func New(opts ...Option) *Document {
	d := &Document{
		global: js.Global(),
		logger: slog.Default().With("component", "jsdom"),
		nodes:  make(map[int]*Node),
	}
	d.doc = d.global.Get("document")
	for _, opt := range opts {
		opt(d)
	}

	d.finalize = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			d.mu.Lock()
			delete(d.nodes, args[0].Int())
			d.mu.Unlock()
		}
		return nil
	})
	d.registry = d.global.Get("FinalizationRegistry").New(d.finalize)
	return d
}

// Body returns document.body.
func (d *Document) Body() dom.Element {
	return d.element(d.doc.Get("body"))
}

// Head returns document.head.
func (d *Document) Head() dom.Element {
	return d.element(d.doc.Get("head"))
}

// GetElementByID returns the element with the given id, or nil.
func (d *Document) GetElementByID(id string) dom.Element {
	return d.element(d.doc.Call("getElementById", id))
}

// QuerySelector returns the first element matching a CSS selector, or nil.
func (d *Document) QuerySelector(selector string) (dom.Element, error) {
	var v js.Value
	if err := catch(func() { v = d.doc.Call("querySelector", selector) }); err != nil {
		return nil, err
	}
	return d.element(v), nil
}

// CreateElement implements dom.Document.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	var v js.Value
	if err := catch(func() { v = d.doc.Call("createElement", tag) }); err != nil {
		return nil, err
	}
	return d.element(v), nil
}

// CreateTextNode implements dom.Document.
func (d *Document) CreateTextNode(data string) dom.Node {
	return d.wrap(d.doc.Call("createTextNode", data))
}

// NewMutationObserver implements dom.Document.
func (d *Document) NewMutationObserver(cb dom.MutationCallback) dom.Observer {
	o := &Observer{doc: d}
	o.fn = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if cb == nil || len(args) == 0 {
			return nil
		}
		defer func() {
			if v := recover(); v != nil {
				d.logger.Error("mutation callback panicked", "panic", fmt.Sprint(v))
			}
		}()
		cb(d.records(args[0]), o)
		return nil
	})
	o.obs = d.global.Get("MutationObserver").New(o.fn)
	return o
}

// SetTimeout implements dom.Document.
func (d *Document) SetTimeout(fn func(), delay time.Duration) {
	var f js.Func
	f = js.FuncOf(func(js.Value, []js.Value) any {
		defer f.Release()
		fn()
		return nil
	})
	d.global.Call("setTimeout", f, delay.Milliseconds())
}

// wrap returns the wrapper for v, creating it on first sight.
func (d *Document) wrap(v js.Value) *Node {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id := v.Get(idKey); id.Type() == js.TypeNumber {
		if n, ok := d.nodes[id.Int()]; ok {
			return n
		}
	}

	d.nextID++
	id := d.nextID
	v.Set(idKey, id)
	n := &Node{
		doc:  d,
		id:   dom.NewIdentity(v.Get("nodeName").String() + ":" + strconv.Itoa(id)),
		ref:  d.global.Get("WeakRef").New(v),
		kind: dom.NodeType(v.Get("nodeType").Int()),
	}
	d.nodes[id] = n
	d.registry.Call("register", v, id)
	return n
}

// element is wrap returning nil for non-elements.
func (d *Document) element(v js.Value) dom.Element {
	n := d.wrap(v)
	if n == nil || n.kind != dom.ElementNode {
		return nil
	}
	return n
}

// node converts a wrapper to the dom.Node interface without a typed nil.
func (d *Document) node(v js.Value) dom.Node {
	if n := d.wrap(v); n != nil {
		return n
	}
	return nil
}

func (d *Document) nodeList(list js.Value) []dom.Node {
	if list.IsNull() || list.IsUndefined() {
		return nil
	}
	out := make([]dom.Node, 0, list.Length())
	for i := 0; i < list.Length(); i++ {
		if n := d.node(list.Index(i)); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// catch converts a JavaScript exception thrown during fn into an error.
func catch(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			jsErr, ok := v.(js.Error)
			if !ok {
				panic(v)
			}
			name := jsErr.Value.Get("name").String()
			err = errors.New(exceptionCode(name)).WithDetail(jsErr.Error())
		}
	}()
	fn()
	return nil
}

// exceptionCode maps DOMException names to error codes.
func exceptionCode(name string) string {
	switch name {
	case "HierarchyRequestError":
		return "E130"
	case "WrongDocumentError":
		return "E131"
	case "NotFoundError":
		return "E132"
	case "InvalidCharacterError":
		return "E133"
	case "SyntaxError":
		return "E136"
	default:
		return "E135"
	}
}
