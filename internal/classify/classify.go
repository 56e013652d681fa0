// Package classify assigns relevance tiers to discovered businesses with an
// LLM: tier 1 is a core industry fit, tier 2 adjacent, tier 3 unrelated.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/pkg/anthropic"
)

// Store is the slice of persistence the classifier needs.
type Store interface {
	ListSearchResults(ctx context.Context, projectID string) ([]model.SearchResult, error)
	UpdateTier(ctx context.Context, id string, tier model.Tier, reason string) error
}

const systemPrompt = `You classify a business into one of 3 relevance tiers for a market research study of a target industry.
Tier 1: the business's primary trade IS the target industry.
Tier 2: the business is adjacent to the target industry (overlapping services, same customer need).
Tier 3: the business is unrelated to the target industry.

Return STRICT JSON only with keys: tier (1|2|3), reason (short), confidence (0..1). No other text.`

// Decision is one classification verdict.
type Decision struct {
	Tier       model.Tier `json:"tier"`
	Reason     string     `json:"reason"`
	Confidence float64    `json:"confidence"`
}

// Classifier ranks search results against a project's target industry.
type Classifier struct {
	store Store
	ai    anthropic.Client
	model string
	log   *zap.Logger
}

// New creates a Classifier using the given Anthropic model.
func New(st Store, ai anthropic.Client, modelID string) *Classifier {
	return &Classifier{
		store: st,
		ai:    ai,
		model: modelID,
		log:   zap.L().With(zap.String("phase", "classify")),
	}
}

// ClassifyOne asks the model for one business's tier and applies the
// guardrails.
func (c *Classifier) ClassifyOne(ctx context.Context, industry string, sr model.SearchResult) (*Decision, error) {
	prompt := buildPrompt(industry, sr)

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 256,
		System: []anthropic.SystemBlock{{
			Text:         systemPrompt,
			CacheControl: &anthropic.CacheControl{TTL: "1h"},
		}},
		Messages: []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classify: create message")
	}
	resp.Usage.LogCost(c.model, "classify")

	return ParseDecision(resp.Text())
}

// Run classifies every unranked search result in a project. Individual
// failures are logged and skipped. Returns the number classified.
func (c *Classifier) Run(ctx context.Context, project *model.Project, limit int) (int, error) {
	results, err := c.store.ListSearchResults(ctx, project.ID)
	if err != nil {
		return 0, err
	}

	var toScore []model.SearchResult
	for _, sr := range results {
		if sr.Tier == nil {
			toScore = append(toScore, sr)
		}
		if limit > 0 && len(toScore) >= limit {
			break
		}
	}
	c.log.Info("running tier classification",
		zap.String("project_id", project.ID),
		zap.String("industry", project.Industry),
		zap.Int("candidates", len(toScore)))

	classified := 0
	for _, sr := range toScore {
		if ctx.Err() != nil {
			return classified, ctx.Err()
		}

		decision, err := c.ClassifyOne(ctx, project.Industry, sr)
		if err != nil {
			c.log.Warn("classification failed", zap.String("name", sr.Name), zap.Error(err))
			continue
		}

		reason := fmt.Sprintf("%s (confidence %.2f)", decision.Reason, decision.Confidence)
		if err := c.store.UpdateTier(ctx, sr.ID, decision.Tier, reason); err != nil {
			c.log.Warn("update tier failed", zap.String("id", sr.ID), zap.Error(err))
			continue
		}
		classified++
	}

	c.log.Info("classification complete", zap.Int("classified", classified))
	return classified, nil
}

func buildPrompt(industry string, sr model.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target industry: %s\n\n", industry)
	fmt.Fprintf(&b, "Business name: %s\n", sr.Name)
	if addr := sr.FullAddress(); addr != "" {
		fmt.Fprintf(&b, "Address: %s\n", addr)
	}
	if sr.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", sr.Website)
	}
	if sr.Rating != nil {
		fmt.Fprintf(&b, "Rating: %.1f\n", *sr.Rating)
	}
	return b.String()
}

var jsonFence = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// ParseDecision extracts a Decision from raw model output, tolerating fenced
// code blocks. Invalid tiers fall back to tier 3 with capped confidence
// rather than failing the run.
func ParseDecision(raw string) (*Decision, error) {
	text := strings.TrimSpace(raw)
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var parsed struct {
		Tier       json.RawMessage `json:"tier"`
		Reason     string          `json:"reason"`
		Confidence float64         `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, eris.Wrapf(err, "classify: parse decision from %q", truncate(raw, 120))
	}

	d := &Decision{
		Reason:     parsed.Reason,
		Confidence: clamp01(parsed.Confidence),
	}

	tier, ok := parseTier(parsed.Tier)
	if !ok {
		// An out-of-range tier means the model went off script; park the
		// business in tier 3 for manual review.
		d.Tier = model.TierExcluded
		d.Reason = strings.TrimSpace(d.Reason + " | invalid tier from model")
		if d.Confidence > 0.5 {
			d.Confidence = 0.5
		}
		return d, nil
	}
	d.Tier = tier
	return d, nil
}

// parseTier accepts the tier as a JSON number or a numeric string.
func parseTier(raw json.RawMessage) (model.Tier, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 3 {
		return 0, false
	}
	return model.Tier(n), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
