package widgets

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestRenderTimeline_Basic(t *testing.T) {
	out := RenderTimeline([]TimelineEvent{
		{Date: "2009", Title: "Announcement", Description: "Go announced."},
	})
	if !strings.Contains(out, "widget-timeline") {
		t.Error("expected timeline container class")
	}
	if !strings.Contains(out, "<time") || !strings.Contains(out, "2009") {
		t.Error("expected dated entry in output")
	}
	if !strings.Contains(out, "Go announced.") {
		t.Error("expected event description in output")
	}
}

func TestRenderTimeline_Empty(t *testing.T) {
	if RenderTimeline(nil) != "" {
		t.Error("expected empty output for no events")
	}
}

func TestRenderTimeline_CapsEntries(t *testing.T) {
	events := make([]TimelineEvent, 12)
	for i := range events {
		events[i] = TimelineEvent{Date: fmt.Sprintf("20%02d", i), Title: fmt.Sprintf("Event %d", i)}
	}
	out := RenderTimeline(events)
	if got := strings.Count(out, "<li"); got != maxTimelineEvents {
		t.Errorf("expected %d entries, got %d", maxTimelineEvents, got)
	}
}

func TestRenderKeyFacts_CapsEntries(t *testing.T) {
	facts := make([]string, 15)
	for i := range facts {
		facts[i] = fmt.Sprintf("fact %d", i)
	}
	out := RenderKeyFacts(facts)
	if got := strings.Count(out, "<li"); got != maxFacts {
		t.Errorf("expected %d entries, got %d", maxFacts, got)
	}
}

func TestRenderKeyFacts_EscapesContent(t *testing.T) {
	out := RenderKeyFacts([]string{`<script>alert(1)</script>`})
	if strings.Contains(out, "<script>") {
		t.Error("expected fact content to be escaped")
	}
}

func TestRenderKeyLocations_CoordinateFormats(t *testing.T) {
	out := RenderKeyLocations([]Location{
		{Name: "Berlin", Lat: "52.52", Lng: "13.405", Description: "Capital."},
		{Name: "Nowhere", Description: "No coordinates."},
	})
	if !strings.Contains(out, "Lat: 52.52, Lng: 13.405") {
		t.Errorf("expected formatted coordinates, got %q", out)
	}
	if !strings.Contains(out, "Coordinates unavailable") {
		t.Error("expected fallback text for missing coordinates")
	}
}

func TestRenderKeyLocations_CapsEntries(t *testing.T) {
	locations := make([]Location, 9)
	for i := range locations {
		locations[i] = Location{Name: fmt.Sprintf("Place %d", i)}
	}
	out := RenderKeyLocations(locations)
	if got := strings.Count(out, "<h4"); got != maxLocations {
		t.Errorf("expected %d entries, got %d", maxLocations, got)
	}
}

func TestCoord_UnmarshalStringAndNumber(t *testing.T) {
	var loc Location
	payload := `{"name":"X","lat":52.52,"lng":"13.405"}`
	if err := json.Unmarshal([]byte(payload), &loc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if loc.Lat != "52.52" {
		t.Errorf("expected numeric lat coerced to string, got %q", loc.Lat)
	}
	if loc.Lng != "13.405" {
		t.Errorf("expected string lng preserved, got %q", loc.Lng)
	}
}

func TestCoord_RejectsObjects(t *testing.T) {
	var c Coord
	if err := c.UnmarshalJSON([]byte(`{"deg":1}`)); err == nil {
		t.Error("expected error for non-scalar coordinate")
	}
}

func TestRender_DispatchAndPlaceholder(t *testing.T) {
	out := Render(KindTimeline, json.RawMessage(`[{"date":"2009","title":"T","description":"D"}]`))
	if !strings.Contains(out, "widget-timeline") {
		t.Error("expected timeline dispatch")
	}

	out = Render("chart", json.RawMessage(`{}`))
	if !strings.Contains(out, "Unsupported widget: chart") {
		t.Errorf("expected visible placeholder for unknown kind, got %q", out)
	}

	if Render(KindKeyFacts, json.RawMessage(`not json`)) != "" {
		t.Error("expected empty output for undecodable payload")
	}
	if Render(KindKeyFacts, json.RawMessage(`[]`)) != "" {
		t.Error("expected empty output for empty payload")
	}
}

func TestKnown(t *testing.T) {
	for _, kind := range []string{KindTimeline, KindKeyFacts, KindKeyLocations} {
		if !Known(kind) {
			t.Errorf("expected %q known", kind)
		}
	}
	if Known("chart") || Known("") {
		t.Error("expected unknown kinds rejected")
	}
}
