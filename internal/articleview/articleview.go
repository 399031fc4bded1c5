// Package articleview derives a stable, addressable structural model from a
// raw article page: sections and paragraphs, each carrying an anchor id
// written back onto the underlying markup. The returned view is an index over
// the mutated tree; its ids are only meaningful against that tree.
package articleview

import (
	"errors"

	"golang.org/x/net/html"

	"github.com/dgallion1/artweave/internal/articledom"
)

// ErrNoArticleRoot means the input has no <article> element. There is no
// sensible fallback, so the whole run aborts.
var ErrNoArticleRoot = errors.New("no <article> element found in input")

// Paragraph is one block of body text, anchored by id.
type Paragraph struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Section groups the paragraphs under one heading.
type Section struct {
	ID         string      `json:"id"`
	Level      int         `json:"level"`
	Heading    string      `json:"heading"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Article is the structural view of one parsed page.
type Article struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections"`
}

// Parsed couples the view with the mutated markup tree it indexes. The two
// must travel together: anchors in the view resolve only against Doc.
type Parsed struct {
	Doc  *html.Node
	View *Article
}

// HTML renders the mutated markup.
func (p *Parsed) HTML() (string, error) {
	return articledom.Render(p.Doc)
}
