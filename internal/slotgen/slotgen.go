// Package slotgen asks an external planning oracle where media and widgets
// belong in an article, expressed as slot suggestions addressed by the
// anchors the structural parse assigned.
package slotgen

import (
	"context"
	"encoding/json"

	"github.com/dgallion1/artweave/internal/articleview"
)

// Suggestion kinds.
const (
	KindImage  = "image"
	KindWidget = "widget"
)

// Suggestion is one proposed slot. Image suggestions carry a search query for
// the lookup provider; widget suggestions carry the widget type and its
// extracted data payload.
type Suggestion struct {
	SectionID   string  `json:"section_id"`
	ParagraphID *string `json:"paragraph_id"`
	Position    string  `json:"position"`
	Kind        string  `json:"kind"`

	// Image suggestions
	SearchQuery string `json:"search_query,omitempty"`
	AltTextHint string `json:"alt_text_hint,omitempty"`

	// Widget suggestions
	WidgetType string          `json:"widget_type,omitempty"`
	WidgetData json.RawMessage `json:"widget_data,omitempty"`
}

// Plan is the oracle's full response.
type Plan struct {
	Slots []Suggestion `json:"slots"`
}

// Planner produces a slot plan for a parsed article. Fakes implement it in
// tests.
type Planner interface {
	PlanSlots(ctx context.Context, parsed *articleview.Parsed) (Plan, error)
}
