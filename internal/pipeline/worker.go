package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/artweave/internal/articleview"
	"github.com/dgallion1/artweave/internal/config"
	"github.com/dgallion1/artweave/internal/curate"
	"github.com/dgallion1/artweave/internal/imagesearch"
	"github.com/dgallion1/artweave/internal/inject"
	"github.com/dgallion1/artweave/internal/slotgen"
	"github.com/dgallion1/artweave/internal/widgets"
)

// Worker processes a single enrichment job. Slots are handled one at a time,
// in plan order; candidate resolution for a slot is strictly sequential.
type Worker struct {
	profile  config.Profile
	planner  slotgen.Planner
	provider imagesearch.Provider
	resolver *curate.Resolver
	injector *inject.Injector
	jobs     *JobStore
	log      *slog.Logger

	candidatesPerSlot int
}

func NewWorker(prof config.Profile, planner slotgen.Planner, provider imagesearch.Provider, judge curate.Judge, injector *inject.Injector, jobs *JobStore, log *slog.Logger, candidatesPerSlot int) *Worker {
	if candidatesPerSlot <= 0 {
		candidatesPerSlot = 7
	}
	return &Worker{
		profile:           prof,
		planner:           planner,
		provider:          provider,
		resolver:          curate.NewResolver(judge, log),
		injector:          injector,
		jobs:              jobs,
		log:               log,
		candidatesPerSlot: candidatesPerSlot,
	}
}

// Process runs the full enrichment pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse and anchor.
	job.SetStatus(StatusParsing, "parsing article")
	raw := job.Input()
	if isMarkdown(job.Filename) {
		converted, err := articleview.MarkdownToHTML(raw)
		if err != nil {
			log.Error("markdown conversion failed", "error", err)
			job.AddError(fmt.Sprintf("markdown: %s", err))
			job.SetStatus(StatusFailed, "parsing")
			return
		}
		raw = []byte(converted)
	}

	parsed, err := articleview.Parse(bytes.NewReader(raw), w.profile)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTitle(parsed.View.Title)
	job.SetContentHash(ContentHashHex(raw))

	// Duplicate submissions reuse the earlier result.
	if prior := w.jobs.FindCompletedByHash(job.ContentHash); prior != nil && prior.ID != job.ID {
		log.Info("duplicate article, reusing result", "prior_job_id", prior.ID)
		job.SetResult(prior.Result())
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	mutated, err := parsed.HTML()
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Plan slots.
	job.SetStatus(StatusPlanning, "planning slots")
	plan, err := w.planWithRetry(ctx, parsed)
	if err != nil {
		log.Error("slot planning failed", "error", err)
		job.AddError(fmt.Sprintf("plan: %s", err))
		job.SetStatus(StatusFailed, "planning")
		return
	}
	job.SetTotalSlots(len(plan.Slots))
	log.Info("slot plan ready", "slots", len(plan.Slots))

	if len(plan.Slots) == 0 {
		// Nothing to insert; the anchored article is still a valid result.
		job.SetResult(mutated)
		job.SetStatus(StatusCompleted, "no slots suggested")
		return
	}

	// Phase 3: Resolve each slot, strictly in plan order.
	job.SetStatus(StatusResolving, "resolving slots")
	hadErrors := false
	built := make([]inject.Slot, 0, len(plan.Slots))
	for i, sug := range plan.Slots {
		slot, err := w.buildSlot(ctx, i, sug, log)
		if err != nil {
			job.AddError(fmt.Sprintf("slot %d: %s", i, err))
			job.AddSkipped(1)
			hadErrors = true
			continue
		}
		built = append(built, slot)
	}

	// Phase 4: Inject.
	job.SetStatus(StatusInjecting, "injecting slots")
	enhanced, rep, err := w.injector.Apply(mutated, built)
	if err != nil {
		log.Error("injection failed", "error", err)
		job.AddError(fmt.Sprintf("inject: %s", err))
		job.SetStatus(StatusFailed, "injecting")
		return
	}
	job.AddApplied(rep.Applied)
	job.AddSkipped(rep.Skipped)
	job.SetResult(enhanced)

	log.Info("enrichment complete", "applied", rep.Applied,
		"skipped", rep.Skipped+len(plan.Slots)-len(built))

	if hadErrors || rep.Skipped > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// buildSlot turns one suggestion into an insertable slot. Any failure skips
// just this slot; the run continues.
func (w *Worker) buildSlot(ctx context.Context, idx int, sug slotgen.Suggestion, log *slog.Logger) (inject.Slot, error) {
	base := inject.Slot{
		SectionID:   sug.SectionID,
		ParagraphID: sug.ParagraphID,
		Position:    sug.Position,
	}

	switch sug.Kind {
	case slotgen.KindImage:
		candidates, err := w.searchWithRetry(ctx, sug.SearchQuery)
		if err != nil {
			return inject.Slot{}, fmt.Errorf("search %q: %w", sug.SearchQuery, err)
		}
		if len(candidates) == 0 {
			return inject.Slot{}, fmt.Errorf("no images found for %q", sug.SearchQuery)
		}

		sel, err := w.resolver.Resolve(ctx, candidates, sug.SearchQuery)
		if err != nil {
			if errors.Is(err, curate.ErrExhausted) {
				log.Warn("no usable candidate for slot", "slot", idx, "query", sug.SearchQuery, "error", err)
			}
			return inject.Slot{}, fmt.Errorf("resolve %q: %w", sug.SearchQuery, err)
		}

		top := candidates[sel.Index]
		alt := sug.AltTextHint
		if alt == "" {
			alt = top.Title
		}
		base.ImageURL = top.URL
		base.AltText = alt
		base.Caption = sel.Caption
		return base, nil

	case slotgen.KindWidget:
		markup := widgets.Render(sug.WidgetType, sug.WidgetData)
		if markup == "" {
			return inject.Slot{}, fmt.Errorf("widget %q rendered empty", sug.WidgetType)
		}
		base.WidgetType = sug.WidgetType
		base.WidgetHTML = markup
		return base, nil

	default:
		return inject.Slot{}, fmt.Errorf("unknown slot kind %q", sug.Kind)
	}
}

func (w *Worker) planWithRetry(ctx context.Context, parsed *articleview.Parsed) (slotgen.Plan, error) {
	var plan slotgen.Plan
	var lastErr error
	for attempt := range MaxRetries {
		plan, lastErr = w.planner.PlanSlots(ctx, parsed)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable planning error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return slotgen.Plan{}, ctx.Err()
		}
	}
	return plan, lastErr
}

func (w *Worker) searchWithRetry(ctx context.Context, query string) ([]imagesearch.Candidate, error) {
	var candidates []imagesearch.Candidate
	var lastErr error
	for attempt := range MaxRetries {
		candidates, lastErr = w.provider.Search(ctx, query, w.candidatesPerSlot)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable search error", "query", query, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return candidates, lastErr
}

func isMarkdown(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown")
}
