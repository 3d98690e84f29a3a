// Package memdom is an in-memory HTML document implementing the dom host
// interfaces.
//
// It models the parts of the browser DOM the inactive runtime depends on:
// element and text nodes, attributes, reflected and live properties, event
// handler properties with bubbling, MutationObserver with microtask
// delivery, and setTimeout through a pkg/loop event loop. Documents are
// serialised with golang.org/x/net/html and can be queried with XPath.
//
// A Document is not safe for concurrent use; like a browser document it
// belongs to the goroutine running its loop.
package memdom

import (
	"log/slog"
	"strings"
	"time"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
	"github.com/vango-dev/inactive/pkg/loop"
)

// Document is an HTML document with an <html>, <head> and <body>.
type Document struct {
	loop   *loop.Loop
	logger *slog.Logger

	html *Element
	head *Element
	body *Element

	registrations []*registration
}

// Option configures a Document.
type Option func(*Document)

// WithLoop makes the document schedule timers and microtasks on l.
func WithLoop(l *loop.Loop) Option {
	return func(d *Document) {
		d.loop = l
	}
}

// WithLogger sets the document logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		logger: slog.Default().With("component", "memdom"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.loop == nil {
		d.loop = loop.New(loop.WithLogger(d.logger))
	}

	d.html = d.newElement("html")
	d.head = d.newElement("head")
	d.body = d.newElement("body")
	d.html.link(d.head, len(d.html.children))
	d.html.link(d.body, len(d.html.children))
	return d
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element { return d.html }

// Head returns the <head> element.
func (d *Document) Head() *Element { return d.head }

// Body returns the <body> element.
func (d *Document) Body() *Element { return d.body }

// Loop returns the event loop the document schedules work on.
func (d *Document) Loop() *loop.Loop { return d.loop }

// CreateElement creates a detached element. Tag names are lower-cased.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	el, err := d.NewElement(tag)
	if err != nil {
		return nil, err
	}
	return el, nil
}

// NewElement is CreateElement returning the concrete type.
func (d *Document) NewElement(tag string) (*Element, error) {
	if !validName(tag) {
		return nil, errors.New("E133").WithDetailf("%q is not a valid tag name", tag)
	}
	return d.newElement(strings.ToLower(tag)), nil
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) dom.Node {
	return d.NewText(data)
}

// NewText is CreateTextNode returning the concrete type.
func (d *Document) NewText(data string) *Text {
	return &Text{
		nodeBase: nodeBase{id: dom.NewIdentity("#text"), doc: d},
		data:     data,
	}
}

// NewMutationObserver creates an observer whose callback runs in a
// microtask after each batch of mutations.
func (d *Document) NewMutationObserver(cb dom.MutationCallback) dom.Observer {
	return &Observer{doc: d, callback: cb}
}

// SetTimeout schedules fn on the document loop.
func (d *Document) SetTimeout(fn func(), delay time.Duration) {
	d.loop.SetTimeout(fn, delay)
}

func (d *Document) newElement(tag string) *Element {
	return &Element{
		nodeBase: nodeBase{id: dom.NewIdentity(tag), doc: d},
		tag:      tag,
	}
}

// validName accepts the characters the HTML parser accepts in a tag or
// attribute name, with a leading letter.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.' || c == ':'):
		default:
			return false
		}
	}
	return true
}
