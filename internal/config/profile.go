package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrProfileNotFound is returned when the article profile file does not exist.
var ErrProfileNotFound = errors.New("article profile file not found")

// Profile describes the markup dialect of the articles being enriched.
// Scraped article pages don't all mark up body text the same way: some
// simulate paragraphs with block-styled spans, so the paragraph signature
// must be configurable per source.
type Profile struct {
	// RootItemTypes are itemtype attribute values identifying the canonical
	// article root, tried in order before falling back to any <article>.
	RootItemTypes []string `yaml:"root_itemtypes,omitempty"`

	// ParagraphSpanClasses is the class signature a <span> must carry (all
	// classes present) to be treated as a paragraph.
	ParagraphSpanClasses []string `yaml:"paragraph_span_classes,omitempty"`

	// MaxSlots caps how many slot suggestions a single run will process.
	MaxSlots int `yaml:"max_slots,omitempty"`
}

// DefaultProfile returns the profile matching schema.org-tagged article pages.
func DefaultProfile() Profile {
	return Profile{
		RootItemTypes:        []string{"https://schema.org/Article"},
		ParagraphSpanClasses: []string{"mb-4", "block"},
		MaxSlots:             8,
	}
}

// LoadProfile loads an article profile from a YAML file. Unset fields fall
// back to the defaults. If the file does not exist, it returns
// ErrProfileNotFound so callers can decide whether that is fatal.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}

	prof := Profile{}
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return Profile{}, err
	}

	def := DefaultProfile()
	if len(prof.RootItemTypes) == 0 {
		prof.RootItemTypes = def.RootItemTypes
	}
	if len(prof.ParagraphSpanClasses) == 0 {
		prof.ParagraphSpanClasses = def.ParagraphSpanClasses
	}
	if prof.MaxSlots <= 0 {
		prof.MaxSlots = def.MaxSlots
	}
	return prof, nil
}
