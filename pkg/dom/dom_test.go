package dom

import (
	"strings"
	"testing"
)

// fakeNode is a minimal Node used to test the helpers without a host.
type fakeNode struct {
	id       *Identity
	parent   *fakeNode
	children []*fakeNode
}

func newFake(name string) *fakeNode { return &fakeNode{id: NewIdentity(name)} }

func (n *fakeNode) add(c *fakeNode) *fakeNode {
	c.parent = n
	n.children = append(n.children, c)
	return n
}

func (n *fakeNode) Identity() *Identity { return n.id }
func (n *fakeNode) NodeType() NodeType  { return ElementNode }
func (n *fakeNode) NodeName() string    { return strings.ToUpper(n.id.name) }
func (n *fakeNode) TextContent() string { return "" }
func (n *fakeNode) ParentNode() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}
func (n *fakeNode) ChildNodes() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}
func (n *fakeNode) AppendChild(Node) error { return nil }
func (n *fakeNode) RemoveChild(Node) error { return nil }
func (n *fakeNode) IsConnected() bool      { return false }

func TestWalkOrder(t *testing.T) {
	root := newFake("ul")
	a, b := newFake("li"), newFake("li")
	a.add(newFake("span"))
	root.add(a).add(b)

	var seen []string
	Walk(root, func(n Node) bool {
		seen = append(seen, n.Identity().String())
		return true
	})
	if len(seen) != 4 {
		t.Fatalf("visited %d nodes, want 4: %v", len(seen), seen)
	}
	if !strings.HasPrefix(seen[2], "span#") {
		t.Errorf("walk is not depth-first: %v", seen)
	}
}

func TestWalkSkip(t *testing.T) {
	root := newFake("div")
	child := newFake("p")
	child.add(newFake("b"))
	root.add(child)

	count := 0
	Walk(root, func(n Node) bool {
		count++
		return n != Node(child)
	})
	if count != 2 {
		t.Errorf("visited %d, want 2", count)
	}
}

func TestContains(t *testing.T) {
	root := newFake("div")
	child := newFake("p")
	other := newFake("p")
	root.add(child)

	if !Contains(root, root) {
		t.Error("a node contains itself")
	}
	if !Contains(root, child) {
		t.Error("root should contain child")
	}
	if Contains(root, other) {
		t.Error("root should not contain a detached node")
	}
	if Contains(nil, child) {
		t.Error("nil root contains nothing")
	}
}

func TestToEventHandler(t *testing.T) {
	called := 0
	tests := []struct {
		name string
		v    any
		ok   bool
	}{
		{"EventHandler", EventHandler(func(Event) { called++ }), true},
		{"func(Event)", func(Event) { called++ }, true},
		{"func()", func() { called++ }, true},
		{"nil func", (func())(nil), false},
		{"string", "alert(1)", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := ToEventHandler(tt.v)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok {
				before := called
				fn(nil)
				if called != before+1 {
					t.Error("handler not invoked")
				}
			}
		})
	}
}

func TestIdentityString(t *testing.T) {
	id := NewIdentity("div")
	if !strings.HasPrefix(id.String(), "div#") {
		t.Errorf("String() = %q", id.String())
	}
	var nilID *Identity
	if nilID.String() != "<nil>" {
		t.Errorf("nil String() = %q", nilID.String())
	}
	if NewIdentity("div") == id {
		t.Error("identities must be distinct")
	}
}

func TestNodeTypeString(t *testing.T) {
	if ElementNode.String() != "Element" || TextNode.String() != "Text" || NodeType(9).String() != "Unknown" {
		t.Error("unexpected NodeType strings")
	}
}
