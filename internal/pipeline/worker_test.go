package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/artweave/internal/articleview"
	"github.com/dgallion1/artweave/internal/config"
	"github.com/dgallion1/artweave/internal/curate"
	"github.com/dgallion1/artweave/internal/imagesearch"
	"github.com/dgallion1/artweave/internal/inject"
	"github.com/dgallion1/artweave/internal/slotgen"
)

const workerArticle = `<article itemtype="https://schema.org/Article">
<h1>Subject</h1>
<h2>History</h2>
<p>Body paragraph.</p>
</article>`

type fakePlanner struct {
	plan  slotgen.Plan
	err   error
	calls int
}

func (p *fakePlanner) PlanSlots(ctx context.Context, parsed *articleview.Parsed) (slotgen.Plan, error) {
	p.calls++
	return p.plan, p.err
}

type fakeProvider struct {
	candidates []imagesearch.Candidate
	err        error
}

func (p *fakeProvider) Search(ctx context.Context, query string, limit int) ([]imagesearch.Candidate, error) {
	return p.candidates, p.err
}

type fakeJudge struct {
	verdict curate.Verdict
	err     error
}

func (j *fakeJudge) SelectImage(ctx context.Context, query string, candidates []imagesearch.Candidate) (curate.Verdict, error) {
	return j.verdict, j.err
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(planner slotgen.Planner, provider imagesearch.Provider, judge curate.Judge, jobs *JobStore) *Worker {
	log := discardLog()
	return NewWorker(config.DefaultProfile(), planner, provider, judge, inject.NewInjector(log), jobs, log, 5)
}

func newTestJob(id, filename, body string) *Job {
	job := &Job{
		ID:        id,
		Filename:  filename,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetInput([]byte(body))
	return job
}

func imageSlotPlan(query string) slotgen.Plan {
	return slotgen.Plan{Slots: []slotgen.Suggestion{{
		SectionID:   "sec_1",
		Position:    inject.PositionAfter,
		Kind:        slotgen.KindImage,
		SearchQuery: query,
	}}}
}

func TestWorker_ProcessImageSlot(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: imageSlotPlan("subject portrait")}
	provider := &fakeProvider{candidates: []imagesearch.Candidate{
		{URL: "https://img.example/a.png", Title: "A portrait"},
	}}
	judge := &fakeJudge{verdict: curate.Verdict{SelectedIndex: 0, Caption: "A subject."}}

	w := newTestWorker(planner, provider, judge, jobs)
	job := newTestJob("j1", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", job.Status, job.Snapshot().Progress.Errors)
	}
	if job.Title != "Subject" {
		t.Errorf("expected parsed title recorded, got %q", job.Title)
	}
	result := job.Result()
	if !strings.Contains(result, `src="https://img.example/a.png"`) {
		t.Errorf("expected selected image injected, got %q", result)
	}
	if !strings.Contains(result, "A subject.") {
		t.Error("expected judge caption in result")
	}
	snap := job.Snapshot()
	if snap.Progress.SlotsApplied != 1 || snap.Progress.SlotsSkipped != 0 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
}

func TestWorker_ProcessWidgetSlot(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: slotgen.Plan{Slots: []slotgen.Suggestion{{
		SectionID:  "sec_1",
		Position:   inject.PositionAfterHeading,
		Kind:       slotgen.KindWidget,
		WidgetType: "key_facts",
		WidgetData: json.RawMessage(`["First fact","Second fact"]`),
	}}}}

	w := newTestWorker(planner, &fakeProvider{}, &fakeJudge{}, jobs)
	job := newTestJob("j2", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", job.Status)
	}
	if !strings.Contains(job.Result(), "First fact") {
		t.Error("expected widget content in result")
	}
}

func TestWorker_ProcessMarkdownInput(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: slotgen.Plan{}}

	w := newTestWorker(planner, &fakeProvider{}, &fakeJudge{}, jobs)
	job := newTestJob("j3", "article.md", "# Title\n\nBody text.\n")
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", job.Status)
	}
	if job.Title != "Title" {
		t.Errorf("expected markdown title, got %q", job.Title)
	}
}

func TestWorker_NoSlotsStillProducesResult(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	w := newTestWorker(&fakePlanner{plan: slotgen.Plan{}}, &fakeProvider{}, &fakeJudge{}, jobs)
	job := newTestJob("j4", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", job.Status)
	}
	// The anchored markup is the result.
	if !strings.Contains(job.Result(), `id="sec_1"`) {
		t.Error("expected anchored markup as result")
	}
}

func TestWorker_ParseFailureIsFatal(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: slotgen.Plan{}}
	w := newTestWorker(planner, &fakeProvider{}, &fakeJudge{}, jobs)
	job := newTestJob("j5", "article.html", "<p>no article root</p>")
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if planner.calls != 0 {
		t.Error("expected no planning after parse failure")
	}
}

func TestWorker_PlanFailureIsFatal(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	w := newTestWorker(&fakePlanner{err: errors.New("oracle down")}, &fakeProvider{}, &fakeJudge{}, jobs)
	job := newTestJob("j6", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
}

func TestWorker_SlotFailureIsPartial(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: imageSlotPlan("subject portrait")}
	provider := &fakeProvider{candidates: []imagesearch.Candidate{}}

	w := newTestWorker(planner, provider, &fakeJudge{}, jobs)
	job := newTestJob("j7", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", job.Status)
	}
	snap := job.Snapshot()
	if snap.Progress.SlotsSkipped != 1 {
		t.Errorf("expected 1 skipped slot, got %d", snap.Progress.SlotsSkipped)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected slot error recorded")
	}
	// The article itself still comes out enhanced-but-unchanged.
	if job.Result() == "" {
		t.Error("expected result despite slot failure")
	}
}

func TestWorker_DuplicateReusesResult(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: slotgen.Plan{}}
	w := newTestWorker(planner, &fakeProvider{}, &fakeJudge{}, jobs)

	first := newTestJob("dup-1", "article.html", workerArticle)
	jobs.Put(first)
	w.Process(context.Background(), first)
	if first.Status != StatusCompleted {
		t.Fatalf("expected first run completed, got %q", first.Status)
	}

	second := newTestJob("dup-2", "article.html", workerArticle)
	jobs.Put(second)
	w.Process(context.Background(), second)

	if second.Status != StatusDupSkipped {
		t.Fatalf("expected duplicate_skipped, got %q", second.Status)
	}
	if second.Result() != first.Result() {
		t.Error("expected duplicate to reuse the first result")
	}
	if planner.calls != 1 {
		t.Errorf("expected planner called once, got %d", planner.calls)
	}
}

func TestWorker_ExhaustedResolutionSkipsSlot(t *testing.T) {
	jobs := NewJobStore(time.Hour)
	planner := &fakePlanner{plan: imageSlotPlan("subject portrait")}
	provider := &fakeProvider{candidates: []imagesearch.Candidate{
		{URL: "https://img.example/a.png"},
	}}
	judge := &fakeJudge{err: errors.New("Fetching image failed")}

	w := newTestWorker(planner, provider, judge, jobs)
	job := newTestJob("j8", "article.html", workerArticle)
	jobs.Put(job)

	w.Process(context.Background(), job)

	if job.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", job.Status)
	}
	if strings.Contains(job.Result(), "img.example") {
		t.Error("expected no image injected after exhaustion")
	}
}
