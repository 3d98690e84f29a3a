// Package dom defines the host document boundary used by the inactive
// runtime.
//
// The runtime never touches a concrete DOM. It creates elements, sets
// attributes and properties, appends children and observes subtree
// mutations through the interfaces in this package. Two hosts implement
// them:
//
//   - memdom: an in-memory HTML document with its own event loop, used in
//     tests, headless rendering and snapshots
//   - jsdom: the browser document, available when built for js/wasm
//
// Node identity matters: lifecycle callbacks and refs are associated with
// nodes through the *Identity each node returns. A host must return the
// same *Identity for the same underlying node for as long as that node is
// reachable.
package dom

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vango-dev/inactive/internal/weakmap"
)

// NodeType discriminates nodes.
type NodeType uint8

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// Identity is a per-node key. It carries the slots of every table keyed by
// it, so table entries live exactly as long as the node wrapper that owns
// the identity.
type Identity struct {
	seq   uint64
	name  string
	slots weakmap.Slots
}

var identitySeq atomic.Uint64

// NewIdentity allocates a fresh identity. name is used for debugging only.
func NewIdentity(name string) *Identity {
	return &Identity{seq: identitySeq.Add(1), name: name}
}

// Slots returns the table storage attached to this identity.
func (id *Identity) Slots() *weakmap.Slots { return &id.slots }

// String returns e.g. "div#12".
func (id *Identity) String() string {
	if id == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d", id.name, id.seq)
}

// Node is any node of a host document.
type Node interface {
	Identity() *Identity
	NodeType() NodeType

	// NodeName is the upper-case tag name for elements and "#text" for
	// text nodes.
	NodeName() string
	TextContent() string

	// ParentNode returns nil for detached nodes and the document element.
	ParentNode() Node
	ChildNodes() []Node
	AppendChild(child Node) error
	RemoveChild(child Node) error

	// IsConnected reports whether the node is in the document tree.
	IsConnected() bool
}

// Element is an element node.
type Element interface {
	Node

	// TagName is the lower-case tag name.
	TagName() string

	SetAttribute(name, value string) error
	GetAttribute(name string) (string, bool)
	RemoveAttribute(name string)

	// HasProperty reports whether name is a settable field of the
	// element, like `name in element` in JavaScript.
	HasProperty(name string) bool
	SetProperty(name string, value any) error
	Property(name string) (any, bool)
}

// Event is a dispatched DOM event.
type Event interface {
	Type() string
	Target() Element
	CurrentTarget() Element
	PreventDefault()
	DefaultPrevented() bool
	StopPropagation()
}

// EventHandler is the Go shape of an on<event> property.
type EventHandler func(Event)

// ToEventHandler converts the function shapes accepted for on<event>
// properties. ok is false for any other value.
func ToEventHandler(v any) (EventHandler, bool) {
	switch fn := v.(type) {
	case EventHandler:
		return fn, fn != nil
	case func(Event):
		return fn, fn != nil
	case func():
		if fn == nil {
			return nil, false
		}
		return func(Event) { fn() }, true
	default:
		return nil, false
	}
}

// ObserveOptions selects what an Observer reports.
type ObserveOptions struct {
	ChildList     bool
	Attributes    bool
	CharacterData bool
	Subtree       bool
}

// Mutation record types.
const (
	MutationChildList     = "childList"
	MutationAttributes    = "attributes"
	MutationCharacterData = "characterData"
)

// MutationRecord describes one observed change.
type MutationRecord struct {
	Type          string
	Target        Node
	AddedNodes    []Node
	RemovedNodes  []Node
	AttributeName string
	OldValue      string
}

// MutationCallback receives every record batched since the last delivery.
type MutationCallback func(records []MutationRecord, observer Observer)

// Observer watches a subtree for mutations.
type Observer interface {
	Observe(target Node, opts ObserveOptions) error
	Disconnect()
	TakeRecords() []MutationRecord
}

// Document creates nodes, observers and deferred tasks.
type Document interface {
	CreateElement(tag string) (Element, error)
	CreateTextNode(data string) Node
	NewMutationObserver(cb MutationCallback) Observer

	// SetTimeout runs fn on a later turn of the host event loop.
	SetTimeout(fn func(), delay time.Duration)
}

// Walk calls fn for n and each descendant in document order. Returning
// false from fn skips that node's descendants.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.ChildNodes() {
		Walk(child, fn)
	}
}

// Contains reports whether other is root or one of its descendants.
func Contains(root, other Node) bool {
	if root == nil || other == nil {
		return false
	}
	want := root.Identity()
	for n := other; n != nil; n = n.ParentNode() {
		if n.Identity() == want {
			return true
		}
	}
	return false
}

// Same reports whether a and b are the same node.
func Same(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Identity() == b.Identity()
}

// FormatNumber formats f the way JavaScript converts a number to a string
// for everyday values: shortest form, with NaN and Infinity spelled out.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
