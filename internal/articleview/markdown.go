package articleview

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// MarkdownToHTML converts a Markdown article into HTML wrapped in an
// <article> root so it can flow through the same structural parse as scraped
// pages. The first heading becomes the article title.
func MarkdownToHTML(src []byte) (string, error) {
	md := goldmark.New()
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(`<article itemtype="https://schema.org/Article">`)
	out.WriteString("\n")
	out.Write(buf.Bytes())
	out.WriteString("</article>\n")
	return out.String(), nil
}
