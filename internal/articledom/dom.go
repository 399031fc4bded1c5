// Package articledom provides helpers over the x/net/html node tree used by
// the structural parser and the slot injector. The tree is mutable and is the
// single source of truth for a run; helpers here never delete or reorder
// existing nodes.
package articledom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the named attribute, or "" if absent.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// FindByID returns the first element with the given id, in document order.
func FindByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	if root.Type == html.ElementNode && Attr(root, "id") == id {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := FindByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the trimmed text content of a node and its descendants.
func Text(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// HeadingLevel returns 1-6 for h1-h6 elements, 0 otherwise.
func HeadingLevel(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// IsParagraphLike reports whether a node carries article body text: either a
// <p> element, or a <span> bearing every class in spanClasses. The span rule
// tolerates pages that simulate paragraphs with block-styled inline
// containers.
func IsParagraphLike(n *html.Node, spanClasses []string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.P {
		return true
	}
	if n.DataAtom == atom.Span && len(spanClasses) > 0 {
		return hasAllClasses(n, spanClasses)
	}
	return false
}

func hasAllClasses(n *html.Node, want []string) bool {
	have := strings.Fields(Attr(n, "class"))
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewElement creates an element node for the given tag.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText creates a text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// InsertBefore inserts newNode as a sibling immediately before ref.
func InsertBefore(ref, newNode *html.Node) {
	if ref.Parent == nil {
		return
	}
	ref.Parent.InsertBefore(newNode, ref)
}

// InsertAfter inserts newNode as a sibling immediately after ref.
func InsertAfter(ref, newNode *html.Node) {
	if ref.Parent == nil {
		return
	}
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(newNode, ref.NextSibling)
	} else {
		ref.Parent.AppendChild(newNode)
	}
}

// ParseFragment parses an HTML fragment in a <div> context and returns its
// top-level nodes, detached and ready to be re-attached elsewhere.
func ParseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return nodes, nil
}

// Render serializes a node tree back to HTML.
func Render(n *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
