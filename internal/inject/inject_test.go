package inject

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testInjector() *Injector {
	return NewInjector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strptr(s string) *string { return &s }

const anchoredArticle = `<article>
<h1>A</h1>
<h2 id="sec_1">History</h2>
<p id="p_1">Anchored paragraph.</p>
<p id="p_2">Second paragraph.</p>
</article>`

func TestApply_ImageAfterParagraph(t *testing.T) {
	inj := testInjector()
	slots := []Slot{{
		SectionID:   "sec_1",
		ParagraphID: strptr("p_1"),
		Position:    PositionAfter,
		ImageURL:    "x.png",
		AltText:     "alt",
		Caption:     "B",
	}}

	out, rep, err := inj.Apply(anchoredArticle, slots)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Applied != 1 || rep.Skipped != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}

	if !strings.Contains(out, `<figure class="mm-slot image-slot">`) {
		t.Error("expected figure wrapper in output")
	}
	if !strings.Contains(out, `src="x.png"`) || !strings.Contains(out, `alt="alt"`) {
		t.Errorf("expected image attributes in output: %q", out)
	}
	if !strings.Contains(out, ">B</figcaption>") {
		t.Error("expected caption text in figcaption")
	}

	// The figure lands between p_1 and p_2.
	p1 := strings.Index(out, `id="p_1"`)
	fig := strings.Index(out, "<figure")
	p2 := strings.Index(out, `id="p_2"`)
	if !(p1 < fig && fig < p2) {
		t.Errorf("expected figure between p_1 and p_2 (positions %d %d %d)", p1, fig, p2)
	}
}

func TestApply_EmptyCaptionOmitsFigcaption(t *testing.T) {
	inj := testInjector()
	out, _, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID: "sec_1",
		Position:  PositionAfter,
		ImageURL:  "x.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if strings.Contains(out, "<figcaption") {
		t.Error("expected no figcaption when caption is empty")
	}
}

func TestApply_FallsBackToSectionAnchor(t *testing.T) {
	inj := testInjector()
	out, rep, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID:   "sec_1",
		ParagraphID: strptr("p_999"),
		Position:    PositionAfter,
		ImageURL:    "y.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Applied != 1 {
		t.Fatalf("expected slot applied via section anchor, got %+v", rep)
	}

	// Inserted right after the heading, before p_1.
	heading := strings.Index(out, `id="sec_1"`)
	fig := strings.Index(out, "<figure")
	p1 := strings.Index(out, `id="p_1"`)
	if !(heading < fig && fig < p1) {
		t.Errorf("expected figure between heading and p_1 (positions %d %d %d)", heading, fig, p1)
	}
}

func TestApply_UnresolvableAnchorSkipped(t *testing.T) {
	inj := testInjector()
	out, rep, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID: "sec_404",
		Position:  PositionAfter,
		ImageURL:  "x.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Applied != 0 || rep.Skipped != 1 {
		t.Errorf("expected skip, got %+v", rep)
	}
	if strings.Contains(out, "<figure") {
		t.Error("expected no insertion for unresolvable anchor")
	}
}

func TestApply_UnknownShapeSkipped(t *testing.T) {
	inj := testInjector()
	_, rep, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID: "sec_1",
		Position:  PositionAfter,
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Skipped != 1 {
		t.Errorf("expected unknown slot shape skipped, got %+v", rep)
	}
}

func TestApply_BeforeHeadingTargetsSection(t *testing.T) {
	inj := testInjector()
	out, _, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID:   "sec_1",
		ParagraphID: strptr("p_2"),
		Position:    PositionBeforeHeading,
		ImageURL:    "x.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Even though the paragraph anchor resolved, the heading position wins.
	fig := strings.Index(out, "<figure")
	heading := strings.Index(out, `id="sec_1"`)
	if !(fig >= 0 && fig < heading) {
		t.Errorf("expected figure before heading (positions %d %d)", fig, heading)
	}
}

func TestApply_AfterHeading(t *testing.T) {
	inj := testInjector()
	out, _, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID: "sec_1",
		Position:  PositionAfterHeading,
		ImageURL:  "x.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	heading := strings.Index(out, `id="sec_1"`)
	fig := strings.Index(out, "<figure")
	p1 := strings.Index(out, `id="p_1"`)
	if !(heading < fig && fig < p1) {
		t.Errorf("expected figure between heading and p_1 (positions %d %d %d)", heading, fig, p1)
	}
}

func TestApply_WidgetAttachedAsNodes(t *testing.T) {
	inj := testInjector()
	out, rep, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID:  "sec_1",
		Position:   PositionAfter,
		WidgetType: "key_facts",
		WidgetHTML: `<aside class="widget-key-facts"><ul><li>Fact one</li></ul></aside>`,
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Applied != 1 {
		t.Fatalf("expected widget applied, got %+v", rep)
	}
	if !strings.Contains(out, `class="widget-slot widget-key_facts"`) {
		t.Error("expected typed widget container")
	}
	// Attached as real child nodes, not escaped text.
	if !strings.Contains(out, "<li") || strings.Contains(out, "&lt;li") {
		t.Errorf("expected widget markup as nodes, got %q", out)
	}
}

func TestApply_WidgetSanitized(t *testing.T) {
	inj := testInjector()
	out, _, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID:  "sec_1",
		Position:   PositionAfter,
		WidgetType: "timeline",
		WidgetHTML: `<div class="ok"><script>alert(1)</script><time datetime="2009">2009</time></div>`,
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if strings.Contains(out, "<script") {
		t.Error("expected script stripped from widget markup")
	}
	if !strings.Contains(out, "<time") {
		t.Error("expected time element to survive sanitization")
	}
}

func TestApply_AdditiveOnly(t *testing.T) {
	inj := testInjector()
	out, _, err := inj.Apply(anchoredArticle, []Slot{{
		SectionID: "sec_1",
		Position:  PositionAfter,
		ImageURL:  "x.png",
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, want := range []string{
		"Anchored paragraph.", "Second paragraph.", "History",
		`id="p_1"`, `id="p_2"`, `id="sec_1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected original content %q preserved", want)
		}
	}
}

func TestApply_MultipleSlotsInOrder(t *testing.T) {
	inj := testInjector()
	_, rep, err := inj.Apply(anchoredArticle, []Slot{
		{SectionID: "sec_1", ParagraphID: strptr("p_1"), Position: PositionAfter, ImageURL: "a.png"},
		{SectionID: "sec_404", Position: PositionAfter, ImageURL: "b.png"},
		{SectionID: "sec_1", Position: PositionAfterHeading, ImageURL: "c.png"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Applied != 2 || rep.Skipped != 1 {
		t.Errorf("expected 2 applied 1 skipped, got %+v", rep)
	}
}

func TestValidPosition(t *testing.T) {
	for _, pos := range []string{PositionBefore, PositionAfter, PositionBeforeHeading, PositionAfterHeading} {
		if !ValidPosition(pos) {
			t.Errorf("expected %q valid", pos)
		}
	}
	if ValidPosition("inside") || ValidPosition("") {
		t.Error("expected unknown positions invalid")
	}
}
