package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/pkg/anthropic"
)

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(`{"tier": 1, "reason": "primary HVAC contractor", "confidence": 0.92}`)
	require.NoError(t, err)
	assert.Equal(t, model.TierCore, d.Tier)
	assert.Equal(t, "primary HVAC contractor", d.Reason)
	assert.InDelta(t, 0.92, d.Confidence, 0.001)
}

func TestParseDecision_FencedJSON(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"tier\": 2, \"reason\": \"adjacent\", \"confidence\": 0.7}\n```"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, model.TierAdjacent, d.Tier)
}

func TestParseDecision_StringTier(t *testing.T) {
	d, err := ParseDecision(`{"tier": "3", "reason": "unrelated", "confidence": 0.8}`)
	require.NoError(t, err)
	assert.Equal(t, model.TierExcluded, d.Tier)
}

func TestParseDecision_InvalidTierFallsBack(t *testing.T) {
	d, err := ParseDecision(`{"tier": 7, "reason": "confused", "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, model.TierExcluded, d.Tier)
	assert.Contains(t, d.Reason, "invalid tier")
	assert.LessOrEqual(t, d.Confidence, 0.5)
}

func TestParseDecision_ClampsConfidence(t *testing.T) {
	d, err := ParseDecision(`{"tier": 1, "reason": "x", "confidence": 1.8}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestParseDecision_Garbage(t *testing.T) {
	_, err := ParseDecision("I cannot classify this business.")
	assert.Error(t, err)
}

// fakeStore implements Store for run tests.
type fakeStore struct {
	results []model.SearchResult
	tiers   map[string]model.Tier
	reasons map[string]string
}

func (f *fakeStore) ListSearchResults(context.Context, string) ([]model.SearchResult, error) {
	return f.results, nil
}

func (f *fakeStore) UpdateTier(_ context.Context, id string, tier model.Tier, reason string) error {
	f.tiers[id] = tier
	f.reasons[id] = reason
	return nil
}

// fakeAI returns canned responses in order.
type fakeAI struct {
	responses []string
	calls     int
	requests  []anthropic.MessageRequest
}

func (f *fakeAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.requests = append(f.requests, req)
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: resp}},
	}, nil
}

func TestRun_ClassifiesUnrankedOnly(t *testing.T) {
	ranked := model.TierCore
	st := &fakeStore{
		results: []model.SearchResult{
			{ID: "sr-1", Name: "Alpha Heating"},
			{ID: "sr-2", Name: "Beta Air", Tier: &ranked},
			{ID: "sr-3", Name: "Gamma Plumbing"},
		},
		tiers:   map[string]model.Tier{},
		reasons: map[string]string{},
	}
	ai := &fakeAI{responses: []string{`{"tier": 1, "reason": "core fit", "confidence": 0.9}`}}

	project := &model.Project{ID: "p1", Industry: "HVAC"}
	n, err := New(st, ai, "claude-haiku-4-5-20251001").Run(context.Background(), project, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, model.TierCore, st.tiers["sr-1"])
	assert.NotContains(t, st.tiers, "sr-2", "already ranked results are skipped")
	assert.Contains(t, st.reasons["sr-1"], "confidence 0.90")

	require.NotEmpty(t, ai.requests)
	assert.Contains(t, ai.requests[0].Messages[0].Content, "Target industry: HVAC")
	require.Len(t, ai.requests[0].System, 1)
	assert.NotNil(t, ai.requests[0].System[0].CacheControl, "system prompt is cache-marked")
}

func TestRun_Limit(t *testing.T) {
	st := &fakeStore{
		results: []model.SearchResult{
			{ID: "sr-1", Name: "A"}, {ID: "sr-2", Name: "B"}, {ID: "sr-3", Name: "C"},
		},
		tiers:   map[string]model.Tier{},
		reasons: map[string]string{},
	}
	ai := &fakeAI{responses: []string{`{"tier": 2, "reason": "adjacent", "confidence": 0.6}`}}

	n, err := New(st, ai, "m").Run(context.Background(), &model.Project{ID: "p1", Industry: "HVAC"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
