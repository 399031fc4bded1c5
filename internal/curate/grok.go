package curate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/artweave/internal/imagesearch"
	"github.com/dgallion1/artweave/internal/xai"
)

const maxCaptionLen = 600
const maxSourceLen = 60

const judgeSystemPrompt = `You are an expert image analyst and curator for educational articles. Your task is to select the SINGLE MOST SUITABLE image from the candidates based on strict criteria.

CRITERIA FOR SELECTION (in order of priority):
1. RELEVANCE: Must directly illustrate the search query without misleading elements.
2. AUTHENTICITY: Prefer real photos or diagrams. AVOID AI-generated images - reject those with watermarks (e.g., Midjourney, DALL-E, Stable Diffusion logos/text), artifacts (unnatural hands, symmetry errors, blurry details), or generic 'model' appearances.
3. ORIENTATION: Strongly prefer landscape (width > height). Ignore or deprioritize portrait (height > width) images unless exceptionally relevant.
4. QUALITY: High resolution, sharp, clear. Avoid blurry, pixelated, low-res images.
5. CLEANLINESS: No visible watermarks, text overlays, logos, ads, or frames. Clean composition preferred.
6. APPROPRIATENESS: Suitable for professional, educational content - no violence, explicit content, or poor taste.
7. ENGAGEMENT: Well-composed, informative, visually appealing.

If multiple images score similarly, choose the one with the best overall balance. ALWAYS select exactly one image, even if imperfect.

Output ONLY a valid JSON object with no additional text:
{
  "selected_index": <integer 0 to n-1>,
  "caption": "<1-2 sentence concise, accurate description of the image content, suitable for article caption and alt text>"
}`

// GrokJudge implements Judge over the x.ai vision API. It submits candidate
// metadata plus the image references themselves; the model fetches and
// analyzes the images remotely.
type GrokJudge struct {
	client *xai.Client
}

func NewGrokJudge(client *xai.Client) *GrokJudge {
	return &GrokJudge{client: client}
}

// SelectImage asks the model for exactly one renumbered index and a caption.
// The reply must carry both fields; a reply missing either is a contract
// violation and fails the call rather than defaulting to candidate 0.
func (j *GrokJudge) SelectImage(ctx context.Context, query string, candidates []imagesearch.Candidate) (Verdict, error) {
	parts := make([]xai.ContentPart, 0, 1+2*len(candidates))
	parts = append(parts, xai.TextPart(judgeUserPrompt(query, len(candidates))))

	for i, c := range candidates {
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		meta := fmt.Sprintf("\nImage %d: %q | Dimensions: %dx%dpx | MIME: %s | Source: %s...",
			i, title, c.Width, c.Height, c.MIMEType, xai.Truncate(c.SourcePage, maxSourceLen))
		parts = append(parts, xai.TextPart(meta))
		parts = append(parts, xai.ImagePart(c.URL))
	}

	reply, err := j.client.ChatJSON(ctx, "judge", judgeSystemPrompt, parts, 3000)
	if err != nil {
		return Verdict{}, err
	}

	var raw struct {
		SelectedIndex *int    `json:"selected_index"`
		Caption       *string `json:"caption"`
	}
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict json: %w (raw: %s)", err, xai.Truncate(reply, 200))
	}
	if raw.SelectedIndex == nil {
		return Verdict{}, fmt.Errorf("verdict missing selected_index (raw: %s)", xai.Truncate(reply, 200))
	}
	if raw.Caption == nil {
		return Verdict{}, fmt.Errorf("verdict missing caption (raw: %s)", xai.Truncate(reply, 200))
	}

	verdict := Verdict{SelectedIndex: *raw.SelectedIndex, Caption: *raw.Caption}
	if len(verdict.Caption) > maxCaptionLen {
		cut := maxCaptionLen
		for cut > 0 && !utf8.RuneStart(verdict.Caption[cut]) {
			cut--
		}
		verdict.Caption = verdict.Caption[:cut]
	}
	return verdict, nil
}

func judgeUserPrompt(query string, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are analyzing %d candidate images for the following context:\n\n", n)
	fmt.Fprintf(&sb, "Search Query: %q\n\n", query)
	fmt.Fprintf(&sb, `Please carefully analyze each candidate image using your vision capabilities along with the provided metadata (title, dimensions). Select the SINGLE BEST image for the search query %q by evaluating these criteria in order:

- RELEVANCE: Directly represents the query concept accurately and informatively
- AUTHENTICITY: Real or professionally created; AVOID AI-generated images identifiable by watermarks, artifacts, or stock model poses
- ORIENTATION: Prefer landscape (width > height); strongly deprioritize portrait unless uniquely suitable
- QUALITY: High resolution, sharp focus, good lighting; reject blurry, low-res, or distorted
- CLEANLINESS: Free of watermarks, text overlays, logos, ads, or extraneous elements
- APPROPRIATENESS: Suitable for educational article - professional, non-offensive, contextually fitting
- COMPOSITION: Well-balanced, engaging, enhances article readability

Even if options are limited, choose the highest-scoring image overall.

The images are numbered 0 to %d in the order they appear below.

IMPORTANT: Respond with ONLY valid JSON matching this exact schema. No other text. Ensure:
- selected_index is an integer between 0 and %d inclusive
- caption is a concise (under 100 words), descriptive caption suitable for article use and SEO/alt text

{
  "selected_index": 0,
  "caption": "Description of the selected image content, highlighting key visual elements relevant to the query."
}`, query, n-1, n-1)
	return sb.String()
}
