package memdom

import (
	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// node is implemented by *Element and *Text.
type node interface {
	dom.Node
	base() *nodeBase
}

type nodeBase struct {
	id     *dom.Identity
	doc    *Document
	parent *Element
}

func (n *nodeBase) base() *nodeBase { return n }

// Identity implements dom.Node.
func (n *nodeBase) Identity() *dom.Identity { return n.id }

// ParentNode implements dom.Node.
func (n *nodeBase) ParentNode() dom.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// ParentElement returns the parent, or nil.
func (n *nodeBase) ParentElement() *Element { return n.parent }

// OwnerDocument returns the document that created the node.
func (n *nodeBase) OwnerDocument() *Document { return n.doc }

// attachedToRoot reports whether the topmost ancestor is the document
// element.
func (n *nodeBase) attachedToRoot() bool {
	var top *Element
	for p := n.parent; p != nil; p = p.parent {
		top = p
	}
	return top != nil && top == n.doc.html
}

// Text is a text node.
type Text struct {
	nodeBase
	data string
}

// NodeType implements dom.Node.
func (t *Text) NodeType() dom.NodeType { return dom.TextNode }

// NodeName implements dom.Node.
func (t *Text) NodeName() string { return "#text" }

// TextContent implements dom.Node.
func (t *Text) TextContent() string { return t.data }

// ChildNodes implements dom.Node. Text nodes have no children.
func (t *Text) ChildNodes() []dom.Node { return nil }

// AppendChild implements dom.Node; it always fails for text nodes.
func (t *Text) AppendChild(dom.Node) error {
	return errors.New("E130").WithDetail("text nodes cannot have children")
}

// RemoveChild implements dom.Node; it always fails for text nodes.
func (t *Text) RemoveChild(dom.Node) error {
	return errors.New("E132").WithDetail("text nodes have no children")
}

// IsConnected implements dom.Node.
func (t *Text) IsConnected() bool { return t.attachedToRoot() }

// Data returns the text.
func (t *Text) Data() string { return t.data }

// SetData replaces the text and queues a characterData record.
func (t *Text) SetData(data string) {
	old := t.data
	t.data = data
	t.doc.queueRecord(dom.MutationRecord{
		Type:     dom.MutationCharacterData,
		Target:   t,
		OldValue: old,
	})
}

// Remove detaches the node from its parent, if any.
func (t *Text) Remove() {
	if t.parent != nil {
		t.parent.removeChild(t)
	}
}
