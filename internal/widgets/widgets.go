// Package widgets renders typed widget payloads into self-contained HTML
// fragments styled to match the article theme. Every renderer is a pure
// function: same payload in, same markup out.
package widgets

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// Widget kinds understood by the renderer.
const (
	KindTimeline     = "timeline"
	KindKeyFacts     = "key_facts"
	KindKeyLocations = "key_locations"
)

// Entry caps per widget keep fragments from dominating the article.
const (
	maxTimelineEvents = 8
	maxFacts          = 10
	maxLocations      = 6
)

// TimelineEvent is one dated entry in a timeline widget.
type TimelineEvent struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Coord is a latitude or longitude that tolerates both string and numeric
// JSON encodings, since planner payloads use either.
type Coord string

func (c *Coord) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Coord(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*c = Coord(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	return fmt.Errorf("coordinate must be a string or number: %s", string(b))
}

// Location is one named place in a key-locations widget.
type Location struct {
	Name        string `json:"name"`
	Lat         Coord  `json:"lat"`
	Lng         Coord  `json:"lng"`
	Description string `json:"description"`
}

// Known reports whether widgetType has a dedicated renderer.
func Known(widgetType string) bool {
	switch widgetType {
	case KindTimeline, KindKeyFacts, KindKeyLocations:
		return true
	}
	return false
}

// Render maps a widget type and its JSON payload to an HTML fragment.
// Unknown kinds render a visible placeholder rather than failing; an empty or
// undecodable payload renders "".
func Render(widgetType string, data json.RawMessage) string {
	switch widgetType {
	case KindTimeline:
		var events []TimelineEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return ""
		}
		return RenderTimeline(events)
	case KindKeyFacts:
		var facts []string
		if err := json.Unmarshal(data, &facts); err != nil {
			return ""
		}
		return RenderKeyFacts(facts)
	case KindKeyLocations:
		var locations []Location
		if err := json.Unmarshal(data, &locations); err != nil {
			return ""
		}
		return RenderKeyLocations(locations)
	default:
		return renderPlaceholder(widgetType)
	}
}

var timelineTmpl = template.Must(template.New("timeline").Parse(`<div class="widget-timeline mb-8 p-6 bg-white rounded-lg shadow-sm border border-gray-200 border-l-4 border-[#1d9bf0] dark:bg-black dark:border-[#1d9bf0] dark:text-white">
  <h3 class="text-xl font-bold mb-6 text-center text-gray-900 dark:text-white">Timeline of Key Events</h3>
  <ol class="relative border-l border-gray-300 dark:border-gray-800 ml-4">
{{- range . }}
    <li class="mb-10 ml-6">
      <span class="absolute flex items-center justify-center w-3 h-3 bg-[#1d9bf0]/10 rounded-full -left-1.5 border border-white dark:border-black dark:bg-[#1d9bf0]/20"></span>
      <time class="mb-1 text-sm font-semibold leading-none text-gray-900 dark:text-white bg-[#1d9bf0]/5 px-2 py-1 rounded-full dark:bg-[#1d9bf0]/10">{{ .Date }}</time>
      <h4 class="flex items-center mb-2 text-lg font-semibold text-gray-900 dark:text-white">{{ .Title }}</h4>
      <p class="text-base font-normal text-gray-500 dark:text-gray-300 mb-4">{{ .Description }}</p>
    </li>
{{- end }}
  </ol>
</div>`))

// RenderTimeline renders a vertical timeline of dated events.
func RenderTimeline(events []TimelineEvent) string {
	if len(events) == 0 {
		return ""
	}
	if len(events) > maxTimelineEvents {
		events = events[:maxTimelineEvents]
	}
	return execute(timelineTmpl, events)
}

var keyFactsTmpl = template.Must(template.New("key_facts").Parse(`<aside class="widget-key-facts w-full md:w-1/3 float-right ml-6 mb-6 p-4 bg-white rounded-lg border border-gray-200 border-l-4 border-[#1d9bf0] dark:bg-black dark:border-gray-900 dark:border-l-4 dark:border-[#1d9bf0] dark:text-white">
  <h3 class="text-lg font-semibold mb-3 text-gray-900 dark:text-white">Key Facts</h3>
  <ul class="space-y-1 text-sm">
{{- range . }}
    <li class="mb-2 text-gray-700 dark:text-white pl-2 border-l-2 border-[#1d9bf0]/20 dark:border-[#1d9bf0]/40">{{ . }}</li>
{{- end }}
  </ul>
</aside>`))

// RenderKeyFacts renders a floated sidebar panel of short facts.
func RenderKeyFacts(facts []string) string {
	if len(facts) == 0 {
		return ""
	}
	if len(facts) > maxFacts {
		facts = facts[:maxFacts]
	}
	return execute(keyFactsTmpl, facts)
}

type locationView struct {
	Name        string
	Description string
	Coords      string
}

var keyLocationsTmpl = template.Must(template.New("key_locations").Parse(`<div class="widget-key-locations mb-8 p-4 bg-white dark:bg-black rounded-lg shadow-md border border-[#1d9bf0]/20 dark:border-[#1d9bf0]/40">
  <h3 class="text-xl font-bold mb-6 text-center text-gray-900 dark:text-white">Key Locations</h3>
  <div class="space-y-4">
{{- range . }}
    <div class="p-3 bg-gray-50 dark:bg-gray-900/50 rounded border-l-4 border-[#1d9bf0]/30 dark:border-[#1d9bf0]/50">
      <h4 class="font-semibold text-gray-900 dark:text-white mb-1">{{ .Name }}</h4>
      <p class="text-sm text-gray-600 dark:text-gray-400">{{ .Description }}</p>
      <p class="text-xs text-gray-500 dark:text-gray-500">{{ .Coords }}</p>
    </div>
{{- end }}
  </div>
</div>`))

// RenderKeyLocations renders a static list of named places with coordinates.
func RenderKeyLocations(locations []Location) string {
	if len(locations) == 0 {
		return ""
	}
	if len(locations) > maxLocations {
		locations = locations[:maxLocations]
	}
	views := make([]locationView, 0, len(locations))
	for _, loc := range locations {
		coords := "Coordinates unavailable"
		if loc.Lat != "" && loc.Lng != "" {
			coords = fmt.Sprintf("Lat: %s, Lng: %s", loc.Lat, loc.Lng)
		}
		views = append(views, locationView{
			Name:        loc.Name,
			Description: loc.Description,
			Coords:      coords,
		})
	}
	return execute(keyLocationsTmpl, views)
}

var placeholderTmpl = template.Must(template.New("placeholder").Parse(
	`<div class="widget-unknown p-4 bg-yellow-100">Unsupported widget: {{ . }}</div>`))

func renderPlaceholder(widgetType string) string {
	return execute(placeholderTmpl, widgetType)
}

func execute(t *template.Template, data any) string {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return ""
	}
	return sb.String()
}
