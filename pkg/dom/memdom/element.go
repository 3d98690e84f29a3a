package memdom

import (
	"slices"
	"strings"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Attr is a single attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is an element node.
type Element struct {
	nodeBase
	tag      string
	attrs    []Attr
	children []node

	// props holds live property values and expando properties.
	props    map[string]any
	handlers map[string]dom.EventHandler
}

// NodeType implements dom.Node.
func (e *Element) NodeType() dom.NodeType { return dom.ElementNode }

// NodeName implements dom.Node.
func (e *Element) NodeName() string { return strings.ToUpper(e.tag) }

// TagName implements dom.Element.
func (e *Element) TagName() string { return e.tag }

// TextContent implements dom.Node.
func (e *Element) TextContent() string {
	var b strings.Builder
	dom.Walk(e, func(n dom.Node) bool {
		if t, ok := n.(*Text); ok {
			b.WriteString(t.data)
		}
		return true
	})
	return b.String()
}

// ChildNodes implements dom.Node. The returned slice is a copy.
func (e *Element) ChildNodes() []dom.Node {
	out := make([]dom.Node, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}

// Children returns the element children.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// IsConnected implements dom.Node.
func (e *Element) IsConnected() bool {
	return e == e.doc.html || e.attachedToRoot()
}

// AppendChild implements dom.Node. A child that already has a parent is
// moved.
func (e *Element) AppendChild(child dom.Node) error {
	return e.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref, or at the end when ref is nil.
func (e *Element) InsertBefore(child, ref dom.Node) error {
	c, err := e.adopt(child)
	if err != nil {
		return err
	}

	var r node
	if ref != nil {
		rn, ok := ref.(node)
		if !ok || rn.base().parent != e {
			return errors.New("E132").WithDetailf("reference node is not a child of <%s>", e.tag)
		}
		r = rn
	}
	if r == c {
		r = e.nextSibling(c)
	}

	if old := c.base().parent; old != nil {
		old.removeChild(c)
	}
	idx := len(e.children)
	if r != nil {
		idx = slices.Index(e.children, r)
	}
	e.link(c, idx)
	e.doc.queueRecord(dom.MutationRecord{
		Type:       dom.MutationChildList,
		Target:     e,
		AddedNodes: []dom.Node{c},
	})
	return nil
}

// RemoveChild implements dom.Node.
func (e *Element) RemoveChild(child dom.Node) error {
	c, ok := child.(node)
	if !ok || c.base().parent != e {
		return errors.New("E132").WithDetailf("node is not a child of <%s>", e.tag)
	}
	e.removeChild(c)
	return nil
}

// Remove detaches the element from its parent, if any.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
}

// ReplaceChildren removes every child and appends nodes, queueing a single
// childList record.
func (e *Element) ReplaceChildren(nodes ...dom.Node) error {
	adopted := make([]node, 0, len(nodes))
	for _, n := range nodes {
		c, err := e.adopt(n)
		if err != nil {
			return err
		}
		adopted = append(adopted, c)
	}

	for _, c := range adopted {
		if old := c.base().parent; old != nil && old != e {
			old.removeChild(c)
		}
	}

	removed := e.ChildNodes()
	for _, c := range e.children {
		c.base().parent = nil
	}
	e.children = nil

	added := make([]dom.Node, 0, len(adopted))
	for _, c := range adopted {
		e.link(c, len(e.children))
		added = append(added, c)
	}
	if len(removed) == 0 && len(added) == 0 {
		return nil
	}
	e.doc.queueRecord(dom.MutationRecord{
		Type:         dom.MutationChildList,
		Target:       e,
		AddedNodes:   added,
		RemovedNodes: removed,
	})
	return nil
}

// SetAttribute implements dom.Element. Names are lower-cased.
func (e *Element) SetAttribute(name, value string) error {
	if !validName(name) {
		return errors.New("E133").WithDetailf("%q is not a valid attribute name", name)
	}
	name = strings.ToLower(name)

	old := ""
	if i := e.attrIndex(name); i >= 0 {
		old = e.attrs[i].Value
		e.attrs[i].Value = value
	} else {
		e.attrs = append(e.attrs, Attr{Name: name, Value: value})
	}
	e.doc.queueRecord(dom.MutationRecord{
		Type:          dom.MutationAttributes,
		Target:        e,
		AttributeName: name,
		OldValue:      old,
	})
	return nil
}

// GetAttribute implements dom.Element.
func (e *Element) GetAttribute(name string) (string, bool) {
	if i := e.attrIndex(strings.ToLower(name)); i >= 0 {
		return e.attrs[i].Value, true
	}
	return "", false
}

// HasAttribute reports whether the attribute is present.
func (e *Element) HasAttribute(name string) bool {
	return e.attrIndex(strings.ToLower(name)) >= 0
}

// RemoveAttribute implements dom.Element.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	i := e.attrIndex(name)
	if i < 0 {
		return
	}
	old := e.attrs[i].Value
	e.attrs = slices.Delete(e.attrs, i, i+1)
	e.doc.queueRecord(dom.MutationRecord{
		Type:          dom.MutationAttributes,
		Target:        e,
		AttributeName: name,
		OldValue:      old,
	})
}

// Attributes returns the attributes in insertion order.
func (e *Element) Attributes() []Attr {
	return slices.Clone(e.attrs)
}

func (e *Element) attrIndex(name string) int {
	for i, a := range e.attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// adopt validates child for insertion under e.
func (e *Element) adopt(child dom.Node) (node, error) {
	if child == nil {
		return nil, errors.New("E130").WithDetail("cannot insert a nil node")
	}
	c, ok := child.(node)
	if !ok || c.base().doc != e.doc {
		return nil, errors.New("E131").WithDetailf("%s belongs to another document", child.Identity())
	}
	if ce, ok := c.(*Element); ok {
		if ce == e.doc.html {
			return nil, errors.New("E130").WithDetail("the document element cannot be moved")
		}
		if ce.isInclusiveAncestorOf(e) {
			return nil, errors.New("E130").WithDetailf("<%s> cannot be inserted into itself or a descendant", ce.tag)
		}
	}
	return c, nil
}

func (e *Element) isInclusiveAncestorOf(other *Element) bool {
	for p := other; p != nil; p = p.parent {
		if p == e {
			return true
		}
	}
	return false
}

func (e *Element) nextSibling(c node) node {
	i := slices.Index(e.children, c)
	if i < 0 || i+1 >= len(e.children) {
		return nil
	}
	return e.children[i+1]
}

func (e *Element) link(c node, idx int) {
	e.children = slices.Insert(e.children, idx, c)
	c.base().parent = e
}

func (e *Element) removeChild(c node) {
	i := slices.Index(e.children, c)
	if i < 0 {
		return
	}
	e.children = slices.Delete(e.children, i, i+1)
	c.base().parent = nil
	e.doc.queueRecord(dom.MutationRecord{
		Type:         dom.MutationChildList,
		Target:       e,
		RemovedNodes: []dom.Node{c},
	})
}
