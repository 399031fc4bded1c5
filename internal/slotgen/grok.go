package slotgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/dgallion1/artweave/internal/articleview"
	"github.com/dgallion1/artweave/internal/xai"
)

const maxArticleMarkdown = 24000

const planSystemPrompt = `You are an editorial assistant placing media and widgets into an educational article. You receive the article's structural view (sections and paragraphs, each with a stable anchor id) and its readable body text.

Propose slots where an image or a widget would genuinely improve the article. Rules:
- Use ONLY anchor ids that appear in the structural view. section_id is required; paragraph_id may be null.
- position is one of "before", "after", "before_heading", "after_heading".
- kind is "image" or "widget".
- Image slots need a concrete "search_query" (what to look for, 3-200 chars) and may include "alt_text_hint".
- Widget slots need "widget_type" (one of "timeline", "key_facts", "key_locations") and "widget_data" extracted from the article text:
  - timeline: [{"date": "1971", "title": "...", "description": "..."}] with 4-8 chronological events
  - key_facts: ["fact one", "fact two"] with 5-10 concise facts
  - key_locations: [{"name": "...", "lat": "-25.75", "lng": "28.23", "description": "..."}] with 3-6 places
- Spread slots across sections; at most one slot per paragraph.

Respond with ONLY a valid JSON object:
{"slots": [{"section_id": "...", "paragraph_id": null, "position": "after", "kind": "image", "search_query": "...", "alt_text_hint": "..."}]}`

// GrokPlanner implements Planner over the x.ai API. The prompt carries both
// the anchor-bearing structural view (JSON) and a Markdown rendering of the
// article body, which the model reads far more reliably than raw HTML.
type GrokPlanner struct {
	client   *xai.Client
	maxSlots int
	md       *converter.Converter
}

func NewGrokPlanner(client *xai.Client, maxSlots int) *GrokPlanner {
	if maxSlots <= 0 {
		maxSlots = 8
	}
	return &GrokPlanner{
		client:   client,
		maxSlots: maxSlots,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// PlanSlots asks the model for slot suggestions and drops any that fail
// validation. The plan is capped at the configured slot limit.
func (p *GrokPlanner) PlanSlots(ctx context.Context, parsed *articleview.Parsed) (Plan, error) {
	prompt, err := p.buildPrompt(parsed)
	if err != nil {
		return Plan{}, err
	}

	raw, err := p.client.ChatJSON(ctx, "plan", planSystemPrompt, []xai.ContentPart{xai.TextPart(prompt)}, 4096)
	if err != nil {
		return Plan{}, err
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return Plan{}, fmt.Errorf("parse slot plan json: %w (raw: %s)", err, xai.Truncate(raw, 200))
	}

	valid := plan.Slots[:0]
	for i := range plan.Slots {
		if ValidateSuggestion(&plan.Slots[i]) {
			valid = append(valid, plan.Slots[i])
		}
	}
	if len(valid) > p.maxSlots {
		valid = valid[:p.maxSlots]
	}
	plan.Slots = valid
	return plan, nil
}

func (p *GrokPlanner) buildPrompt(parsed *articleview.Parsed) (string, error) {
	viewJSON, err := json.Marshal(parsed.View)
	if err != nil {
		return "", fmt.Errorf("marshal article view: %w", err)
	}

	rendered, err := parsed.HTML()
	if err != nil {
		return "", fmt.Errorf("render article: %w", err)
	}
	markdown, err := p.md.ConvertString(rendered)
	if err != nil {
		return "", fmt.Errorf("convert article to markdown: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Article: %q\n\n", parsed.View.Title)
	sb.WriteString("Structural view (anchor ids):\n")
	sb.Write(viewJSON)
	sb.WriteString("\n\nArticle body:\n")
	sb.WriteString(xai.Truncate(markdown, maxArticleMarkdown))
	fmt.Fprintf(&sb, "\n\nPropose at most %d slots.", p.maxSlots)
	return sb.String(), nil
}
