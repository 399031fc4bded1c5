// Package inject re-inserts media and widget fragments into mutated article
// markup at positions addressed by the anchors the structural parse wrote.
// Insertion is strictly additive: existing nodes are never removed, reordered
// or rewritten.
package inject

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/dgallion1/artweave/internal/articledom"
)

// Insertion positions relative to the resolved anchor.
const (
	PositionBefore        = "before"
	PositionAfter         = "after"
	PositionBeforeHeading = "before_heading"
	PositionAfterHeading  = "after_heading"
)

// ValidPosition reports whether pos is a known insertion position.
func ValidPosition(pos string) bool {
	switch pos {
	case PositionBefore, PositionAfter, PositionBeforeHeading, PositionAfterHeading:
		return true
	}
	return false
}

// Slot describes one fragment to insert. Exactly one of the image payload
// (ImageURL/AltText/Caption) or the widget payload (WidgetType/WidgetHTML)
// must be set.
type Slot struct {
	SectionID   string  `json:"section_id"`
	ParagraphID *string `json:"paragraph_id"`
	Position    string  `json:"position"`

	// Image payload
	ImageURL string `json:"image_url,omitempty"`
	AltText  string `json:"alt_text,omitempty"`
	Caption  string `json:"caption,omitempty"`

	// Widget payload
	WidgetType string `json:"widget_type,omitempty"`
	WidgetHTML string `json:"widget_html,omitempty"`
}

// Report summarizes one injection pass.
type Report struct {
	Applied int
	Skipped int
}

// Injector inserts slot fragments into article markup. Widget markup is
// externally supplied, so it passes through a sanitizer before being attached
// as child nodes.
type Injector struct {
	sanitizer *bluemonday.Policy
	log       *slog.Logger
}

func NewInjector(log *slog.Logger) *Injector {
	policy := bluemonday.UGCPolicy()
	// Widget fragments carry utility classes and a <time> element; keep them.
	policy.AllowAttrs("class").Globally()
	policy.AllowElements("time", "aside", "figure", "figcaption")
	policy.AllowAttrs("datetime").OnElements("time")
	return &Injector{sanitizer: policy, log: log}
}

const captionStyle = "font-size: 0.875rem; font-style: italic; text-align: center; color: #6b7280; margin-top: 0.5rem; padding: 0 1rem; line-height: 1.5;"

// Apply inserts each slot into the mutated markup, in input order. Slots
// whose anchors no longer resolve, or whose payload shape is unknown, are
// skipped and counted; a skipped slot never fails the pass.
func (inj *Injector) Apply(mutatedHTML string, slots []Slot) (string, Report, error) {
	doc, err := html.Parse(strings.NewReader(mutatedHTML))
	if err != nil {
		return "", Report{}, fmt.Errorf("parse mutated html: %w", err)
	}

	var rep Report
	for i, slot := range slots {
		if inj.applySlot(doc, i, slot) {
			rep.Applied++
		} else {
			rep.Skipped++
		}
	}

	out, err := articledom.Render(doc)
	if err != nil {
		return "", rep, fmt.Errorf("render enhanced html: %w", err)
	}
	return out, rep, nil
}

func (inj *Injector) applySlot(doc *html.Node, idx int, slot Slot) bool {
	var fragment *html.Node
	switch {
	case slot.ImageURL != "":
		fragment = inj.buildFigure(slot)
	case slot.WidgetHTML != "":
		var err error
		fragment, err = inj.buildWidget(slot)
		if err != nil {
			inj.log.Warn("widget fragment rejected", "slot", idx, "widget_type", slot.WidgetType, "error", err)
			return false
		}
	default:
		inj.log.Warn("unknown slot shape, skipping", "slot", idx, "section_id", slot.SectionID)
		return false
	}

	// Resolve the anchor: paragraph id first, then section id.
	var anchor *html.Node
	if slot.ParagraphID != nil && *slot.ParagraphID != "" {
		anchor = articledom.FindByID(doc, *slot.ParagraphID)
	}
	if anchor == nil {
		anchor = articledom.FindByID(doc, slot.SectionID)
	}
	if anchor == nil {
		inj.log.Warn("slot anchor not found, skipping", "slot", idx,
			"section_id", slot.SectionID, "paragraph_id", slot.ParagraphID)
		return false
	}

	switch slot.Position {
	case PositionBefore:
		articledom.InsertBefore(anchor, fragment)
	case PositionBeforeHeading:
		articledom.InsertBefore(inj.headingAnchor(doc, slot, anchor), fragment)
	case PositionAfterHeading:
		articledom.InsertAfter(inj.headingAnchor(doc, slot, anchor), fragment)
	default: // "after"
		articledom.InsertAfter(anchor, fragment)
	}
	return true
}

// headingAnchor resolves the section anchor for the *_heading positions,
// regardless of which anchor resolved the slot. Falls back to the anchor
// already in hand.
func (inj *Injector) headingAnchor(doc *html.Node, slot Slot, fallback *html.Node) *html.Node {
	if slot.SectionID != "" {
		if h := articledom.FindByID(doc, slot.SectionID); h != nil {
			return h
		}
	}
	return fallback
}

// buildFigure wraps the image in a captioned figure. The caption node is
// omitted when the caption is empty.
func (inj *Injector) buildFigure(slot Slot) *html.Node {
	figure := articledom.NewElement("figure")
	articledom.SetAttr(figure, "class", "mm-slot image-slot")

	img := articledom.NewElement("img")
	articledom.SetAttr(img, "src", slot.ImageURL)
	articledom.SetAttr(img, "alt", slot.AltText)
	figure.AppendChild(img)

	if slot.Caption != "" {
		figcaption := articledom.NewElement("figcaption")
		articledom.SetAttr(figcaption, "style", captionStyle)
		figcaption.AppendChild(articledom.NewText(slot.Caption))
		figure.AppendChild(figcaption)
	}
	return figure
}

// buildWidget wraps sanitized widget markup in a typed container. The markup
// is parsed and re-attached as child nodes, not raw text, so the container
// survives serialization.
func (inj *Injector) buildWidget(slot Slot) (*html.Node, error) {
	widgetType := slot.WidgetType
	if widgetType == "" {
		widgetType = "unknown"
	}

	div := articledom.NewElement("div")
	articledom.SetAttr(div, "class", "widget-slot widget-"+widgetType)

	clean := inj.sanitizer.Sanitize(slot.WidgetHTML)
	children, err := articledom.ParseFragment(clean)
	if err != nil {
		return nil, fmt.Errorf("parse widget markup: %w", err)
	}
	for _, c := range children {
		div.AppendChild(c)
	}
	return div, nil
}
