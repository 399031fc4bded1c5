package articleview

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/artweave/internal/articledom"
	"github.com/dgallion1/artweave/internal/config"
)

// anchorCounter issues sec_<n> / p_<n> anchors. Counters are local to one
// parse and advance for every element encountered, even when the element
// already carries an id, so synthesized anchors are never reused.
type anchorCounter struct {
	section   int
	paragraph int
}

func (c *anchorCounter) sectionID(existing string) string {
	c.section++
	if existing != "" {
		return existing
	}
	return fmt.Sprintf("sec_%d", c.section)
}

func (c *anchorCounter) paragraphID(existing string) string {
	c.paragraph++
	if existing != "" {
		return existing
	}
	return fmt.Sprintf("p_%d", c.paragraph)
}

// Parse builds the article view from raw HTML and writes anchors back onto
// the markup. The first <h1> inside the article root becomes the title and is
// excluded from the section list. Body text appearing before any heading
// opens a synthetic "Introduction" section anchored by an invisible <div>
// inserted just before the first paragraph.
func Parse(r io.Reader, prof config.Profile) (*Parsed, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := findArticleRoot(doc, prof.RootItemTypes)
	if root == nil {
		return nil, ErrNoArticleRoot
	}

	titleNode := findFirstHeading(root, atom.H1)
	title := ""
	if titleNode != nil {
		title = articledom.Text(titleNode)
	}

	view := &Article{Title: title, Sections: []*Section{}}
	counters := &anchorCounter{}
	var current *Section

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := articledom.HeadingLevel(n); level > 0 {
				// The title heading is the article title, not a section.
				if n == titleNode {
					return
				}
				id := counters.sectionID(articledom.Attr(n, "id"))
				articledom.SetAttr(n, "id", id)
				current = &Section{
					ID:      id,
					Level:   level,
					Heading: articledom.Text(n),
				}
				view.Sections = append(view.Sections, current)
				return
			}

			if articledom.IsParagraphLike(n, prof.ParagraphSpanClasses) {
				id := counters.paragraphID(articledom.Attr(n, "id"))
				articledom.SetAttr(n, "id", id)

				if current == nil {
					current = openIntroduction(n, counters)
					view.Sections = append(view.Sections, current)
				}
				current.Paragraphs = append(current.Paragraphs, Paragraph{
					ID:   id,
					Text: articledom.Text(n),
				})
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return &Parsed{Doc: doc, View: view}, nil
}

// openIntroduction creates the synthetic section for content preceding the
// first heading. There is no heading element to carry its anchor, so an
// invisible <div id> is injected just before the paragraph. If a prior parse
// already injected that anchor, it is adopted instead of duplicated, keeping
// re-parses of the output stable.
func openIntroduction(para *html.Node, counters *anchorCounter) *Section {
	if anchor := precedingAnchorDiv(para); anchor != nil {
		counters.sectionID("") // the adopted anchor still consumes a counter slot
		return &Section{
			ID:      articledom.Attr(anchor, "id"),
			Level:   2,
			Heading: "Introduction",
		}
	}

	id := counters.sectionID("")
	div := articledom.NewElement("div")
	articledom.SetAttr(div, "id", id)
	articledom.InsertBefore(para, div)

	return &Section{ID: id, Level: 2, Heading: "Introduction"}
}

// precedingAnchorDiv returns the element immediately before para if it is an
// empty <div> with an id, skipping whitespace-only text nodes.
func precedingAnchorDiv(para *html.Node) *html.Node {
	for prev := para.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.TextNode && strings.TrimSpace(prev.Data) == "" {
			continue
		}
		if prev.Type == html.ElementNode && prev.DataAtom == atom.Div &&
			articledom.Attr(prev, "id") != "" && isEmptyNode(prev) {
			return prev
		}
		return nil
	}
	return nil
}

func isEmptyNode(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}

// findArticleRoot prefers an <article> tagged with one of the configured
// itemtypes, in order, then falls back to any <article>.
func findArticleRoot(doc *html.Node, itemtypes []string) *html.Node {
	for _, it := range itemtypes {
		if root := findArticle(doc, it); root != nil {
			return root
		}
	}
	return findArticle(doc, "")
}

func findArticle(n *html.Node, itemtype string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Article {
		if itemtype == "" || articledom.Attr(n, "itemtype") == itemtype {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findArticle(c, itemtype); found != nil {
			return found
		}
	}
	return nil
}

func findFirstHeading(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirstHeading(c, a); found != nil {
			return found
		}
	}
	return nil
}
