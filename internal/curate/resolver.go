// Package curate picks the single best image from a ranked candidate list
// using an external vision judge. The judge is unreliable per candidate: it
// fetches remote images itself and can fail on any of them, so resolution
// retries with failure-driven exclusion.
package curate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/artweave/internal/imagesearch"
)

// Verdict is the judge's strict response: a zero-based index into the
// submitted candidate list plus a short caption. Nothing else is accepted.
type Verdict struct {
	SelectedIndex int    `json:"selected_index"`
	Caption       string `json:"caption"`
}

// Judge ranks the submitted candidates against the query and returns exactly
// one verdict.
type Judge interface {
	SelectImage(ctx context.Context, query string, candidates []imagesearch.Candidate) (Verdict, error)
}

// Selection maps the judge's pick back to the original candidate list.
type Selection struct {
	Index   int
	Caption string
}

// ErrExhausted means no candidate survived resolution. It wraps the error
// that ended the loop when one exists.
var ErrExhausted = errors.New("all candidates exhausted")

// fetchErrorMarkers is the closed set of judge error texts attributable to a
// candidate image being unfetchable or unusable, rather than to the judge
// itself. Only these trigger exclusion-and-retry; anything else is fatal for
// the slot so contract violations are not masked.
var fetchErrorMarkers = []string{
	"Unrecoverable data loss or corruption",
	"Unsupported content-type",
	"Fetching image failed",
	"Fetching images over plain http://",
	"Error code: 412",
	"Error code: 403",
	"Error code: 404",
	"status 412",
	"status 403",
	"status 404",
}

// IsFetchError reports whether err matches the fetch-class failure set.
func IsFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range fetchErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Resolver runs the exclusion-retry loop around a Judge.
type Resolver struct {
	judge Judge
	log   *slog.Logger
}

func NewResolver(judge Judge, log *slog.Logger) *Resolver {
	return &Resolver{judge: judge, log: log}
}

// Resolve submits the surviving candidate subset to the judge until one is
// selected or none remain. An empty candidate list short-circuits to index 0
// with no judge call (defensive default, not an error).
//
// When a fetch-class error comes back, the true failing candidate is not
// identifiable from the judge's error text, so the last candidate in the
// current subset is blamed and excluded. This is a deliberate heuristic
// carried over from the behavior this replaces; a sharper attribution scheme
// would change selection outcomes.
//
// At most len(candidates) judge calls are made: each attributable failure
// permanently excludes one candidate.
func (r *Resolver) Resolve(ctx context.Context, candidates []imagesearch.Candidate, query string) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{Index: 0}, nil
	}

	excluded := make(map[int]bool, len(candidates))

	for attempt := 0; attempt < len(candidates); attempt++ {
		// Surviving subset in original order, with the mapping back to
		// original indices recorded for this attempt.
		surviving := make([]int, 0, len(candidates))
		subset := make([]imagesearch.Candidate, 0, len(candidates))
		for i, c := range candidates {
			if !excluded[i] {
				surviving = append(surviving, i)
				subset = append(subset, c)
			}
		}
		if len(surviving) == 0 {
			return Selection{}, ErrExhausted
		}

		verdict, err := r.judge.SelectImage(ctx, query, subset)
		if err == nil {
			if verdict.SelectedIndex < 0 || verdict.SelectedIndex >= len(surviving) {
				return Selection{}, fmt.Errorf("%w: judge index %d out of range 0-%d",
					ErrExhausted, verdict.SelectedIndex, len(surviving)-1)
			}
			return Selection{
				Index:   surviving[verdict.SelectedIndex],
				Caption: verdict.Caption,
			}, nil
		}

		if IsFetchError(err) {
			blamed := surviving[len(surviving)-1]
			excluded[blamed] = true
			r.log.Warn("candidate image fetch failed, excluding and retrying",
				"attempt", attempt,
				"excluded_index", blamed,
				"excluded_url", candidates[blamed].URL,
				"error", err,
			)
			continue
		}

		// Non-fetch errors end resolution immediately.
		return Selection{}, fmt.Errorf("%w: judge: %v", ErrExhausted, err)
	}

	return Selection{}, ErrExhausted
}
