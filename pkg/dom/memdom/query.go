package memdom

import (
	"github.com/antchfx/htmlquery"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Query returns the first element in the document matching the XPath
// expression, or nil.
func (d *Document) Query(expr string) (*Element, error) {
	return d.html.Query(expr)
}

// QueryAll returns every element in the document matching the XPath
// expression, in document order.
func (d *Document) QueryAll(expr string) ([]*Element, error) {
	return d.html.QueryAll(expr)
}

// GetElementByID returns the first connected element whose id attribute
// equals id.
func (d *Document) GetElementByID(id string) *Element {
	var found *Element
	dom.Walk(d.html, func(n dom.Node) bool {
		if found != nil {
			return false
		}
		if el, ok := n.(*Element); ok {
			if v, ok := el.GetAttribute("id"); ok && v == id {
				found = el
				return false
			}
		}
		return true
	})
	return found
}

// Query returns the first element of e's subtree matching expr, or nil.
// The expression is evaluated with e as the document element.
func (e *Element) Query(expr string) (*Element, error) {
	all, err := e.QueryAll(expr)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// QueryAll returns the elements of e's subtree matching expr. Matches that
// are not elements, such as text(), are skipped.
func (e *Element) QueryAll(expr string) ([]*Element, error) {
	root, index := e.doc.htmlTree(e)
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, errors.New("E136").WithDetailf("%q", expr).Wrap(err)
	}
	var out []*Element
	for _, hn := range nodes {
		if el, ok := index[hn]; ok {
			out = append(out, el)
		}
	}
	return out, nil
}

// InnerText returns the text of the first node matching expr, or "" when
// nothing matches.
func (d *Document) InnerText(expr string) (string, error) {
	root, _ := d.htmlTree(d.html)
	hn, err := htmlquery.Query(root, expr)
	if err != nil {
		return "", errors.New("E136").WithDetailf("%q", expr).Wrap(err)
	}
	if hn == nil {
		return "", nil
	}
	return htmlquery.InnerText(hn), nil
}
