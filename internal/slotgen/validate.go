package slotgen

import (
	"regexp"
	"strings"

	"github.com/dgallion1/artweave/internal/inject"
	"github.com/dgallion1/artweave/internal/widgets"
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidateSuggestion checks a model-produced suggestion for shape and safety.
// Returns true if the suggestion is usable; invalid suggestions are dropped,
// never fatal.
func ValidateSuggestion(s *Suggestion) bool {
	if s == nil {
		return false
	}
	if strings.TrimSpace(s.SectionID) == "" {
		return false
	}
	if s.Position == "" {
		s.Position = inject.PositionAfter
	}
	if !inject.ValidPosition(s.Position) {
		return false
	}

	switch s.Kind {
	case KindImage:
		query := strings.TrimSpace(s.SearchQuery)
		if len(query) < 3 || len(query) > 200 {
			return false
		}
		if injectionPattern.MatchString(query) {
			return false
		}
		s.SearchQuery = query
	case KindWidget:
		if !widgets.Known(s.WidgetType) {
			return false
		}
		if len(s.WidgetData) == 0 {
			return false
		}
	default:
		return false
	}
	return true
}
