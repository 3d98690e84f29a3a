package memdom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/inactive/pkg/dom"
)

// Render writes the document as HTML, starting with a doctype.
func (d *Document) Render(w io.Writer) error {
	root, _ := d.htmlTree(d.html)
	return html.Render(w, root)
}

// HTML returns the serialised document.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// OuterHTML serialises the element and its descendants. Live property
// values are not part of the markup, as in the browser.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, toHTML(e, nil))
	return buf.String()
}

// InnerHTML serialises the element's children.
func (e *Element) InnerHTML() string {
	hn := toHTML(e, nil)
	var buf bytes.Buffer
	for c := hn.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// SetInnerHTML parses s as an HTML fragment in the context of e and
// replaces e's children with the result.
func (e *Element) SetInnerHTML(s string) error {
	ctx := &html.Node{Type: html.ElementNode, Data: e.tag, DataAtom: atom.Lookup([]byte(e.tag))}
	parsed, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return err
	}
	nodes := make([]dom.Node, 0, len(parsed))
	for _, hn := range parsed {
		if n := e.doc.fromHTML(hn); n != nil {
			nodes = append(nodes, n)
		}
	}
	return e.ReplaceChildren(nodes...)
}

// htmlTree converts the subtree at e into a parsed-HTML document and
// returns an index from converted nodes back to elements.
func (d *Document) htmlTree(e *Element) (*html.Node, map[*html.Node]*Element) {
	index := make(map[*html.Node]*Element)
	root := &html.Node{Type: html.DocumentNode}
	if e == d.html {
		root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	}
	root.AppendChild(toHTML(e, index))
	return root, index
}

func toHTML(n node, index map[*html.Node]*Element) *html.Node {
	switch x := n.(type) {
	case *Text:
		return &html.Node{Type: html.TextNode, Data: x.data}
	case *Element:
		hn := &html.Node{
			Type:     html.ElementNode,
			Data:     x.tag,
			DataAtom: atom.Lookup([]byte(x.tag)),
		}
		for _, a := range x.attrs {
			hn.Attr = append(hn.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
		for _, c := range x.children {
			hn.AppendChild(toHTML(c, index))
		}
		if index != nil {
			index[hn] = x
		}
		return hn
	}
	return nil
}

// fromHTML imports a parsed node. Comments and other node kinds are
// dropped.
func (d *Document) fromHTML(hn *html.Node) node {
	switch hn.Type {
	case html.TextNode:
		return d.NewText(hn.Data)
	case html.ElementNode:
		el := d.newElement(strings.ToLower(hn.Data))
		for _, a := range hn.Attr {
			el.attrs = append(el.attrs, Attr{Name: a.Key, Value: a.Val})
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if child := d.fromHTML(c); child != nil {
				el.link(child, len(el.children))
			}
		}
		return el
	}
	return nil
}
