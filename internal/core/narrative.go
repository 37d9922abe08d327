package core

import (
	"area_service/internal/domain/model"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NarrativeBuilder packages aggregated facts into a prompt for the external
// narrative service and validates its reply. A nil client or any failure falls
// back to a deterministic templated summary; it never fails the analysis.
type NarrativeBuilder struct {
	client  model.NarrativeClient
	timeout time.Duration
	maxLen  int
}

func NewNarrativeBuilder(client model.NarrativeClient, timeout time.Duration, maxLen int) *NarrativeBuilder {
	return &NarrativeBuilder{
		client:  client,
		timeout: timeout,
		maxLen:  maxLen,
	}
}

// narrativeFacts is the structured payload the service is asked to narrate.
type narrativeFacts struct {
	City              string                     `json:"city"`
	Area              string                     `json:"area"`
	LivabilityScore   int                        `json:"livability_score"`
	SubScores         map[model.Category]float64 `json:"sub_scores"`
	CategoryCounts    []model.CategoryStat       `json:"category_counts"`
	MissingCategories []model.Category           `json:"missing_categories"`
}

// BuildSummary always returns a usable summary. A non-nil error carries
// KindNarrativeService and means the local fallback was used.
func (b *NarrativeBuilder) BuildSummary(
	ctx context.Context,
	q model.Query,
	stats []model.CategoryStat,
	score model.ProximityScore,
	missing []model.Category,
) (string, error) {
	if b.client == nil {
		return b.fallbackSummary(q, stats, score, missing),
			model.NewError(model.KindNarrativeService, "narrative client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.client.Generate(ctx, b.buildPrompt(q, stats, score, missing))
	if err != nil {
		return b.fallbackSummary(q, stats, score, missing),
			model.WrapError(model.KindNarrativeService, "narrative generation failed", err)
	}

	// Output is untrusted free text; validate before letting it into the result.
	text = strings.TrimSpace(text)
	if text == "" {
		return b.fallbackSummary(q, stats, score, missing),
			model.NewError(model.KindNarrativeService, "narrative service returned empty text")
	}

	return truncateSummary(text, b.maxLen), nil
}

func (b *NarrativeBuilder) buildPrompt(
	q model.Query,
	stats []model.CategoryStat,
	score model.ProximityScore,
	missing []model.Category,
) string {
	facts := narrativeFacts{
		City:              q.City,
		Area:              q.Area,
		LivabilityScore:   score.Value,
		SubScores:         score.Factors,
		CategoryCounts:    stats,
		MissingCategories: missing,
	}
	factsJSON, _ := json.MarshalIndent(facts, "", "  ")

	return fmt.Sprintf(`You are an expert location analyst helping people decide whether to move to an area.
Analyze the living potential of %s, %s from these aggregated facts:
%s

The livability score rates the area as a "15-minute city" where daily needs are reachable on foot.
Write a concise plain-text summary of the area's strengths and weaknesses, at most %d characters.
Do not return JSON, markdown or headings; plain sentences only.`,
		q.Area, q.City, factsJSON, b.maxLen)
}

// fallbackSummary builds a deterministic summary purely from local aggregates.
func (b *NarrativeBuilder) fallbackSummary(
	q model.Query,
	stats []model.CategoryStat,
	score model.ProximityScore,
	missing []model.Category,
) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s scores %d/100 on the 15-minute livability index.", q.Area, q.City, score.Value)

	var present []string
	for _, stat := range stats {
		if stat.Count > 0 {
			present = append(present, fmt.Sprintf("%d %s", stat.Count, stat.Category))
		}
	}
	if len(present) > 0 {
		fmt.Fprintf(&sb, " Amenities within reach: %s.", strings.Join(present, ", "))
	} else {
		sb.WriteString(" No points of interest were found in the area.")
	}

	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, category := range missing {
			names[i] = string(category)
		}
		fmt.Fprintf(&sb, " Missing within walking distance: %s.", strings.Join(names, ", "))
	}

	return truncateSummary(sb.String(), b.maxLen)
}

// truncateSummary bounds text to max runes, preferring a sentence boundary.
func truncateSummary(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, "."); idx > max/2 {
		return cut[:idx+1]
	}
	return strings.TrimSpace(cut)
}
