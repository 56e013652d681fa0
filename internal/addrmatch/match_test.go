package addrmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/peerview-cli/internal/model"
)

func TestExtractStreet(t *testing.T) {
	assert.Equal(t, "222 West Ave",
		ExtractStreet("222 West Ave Austin TX 78701", "Austin"))
	assert.Equal(t, "222 West Ave",
		ExtractStreet("222 West Ave, Austin, TX 78701-1234", "Austin"))
	// City only stripped when it matches the known discovery-side city.
	assert.Equal(t, "222 West Ave Dallas",
		ExtractStreet("222 West Ave Dallas TX 75201", "Austin"))
	assert.Equal(t, "", ExtractStreet("", "Austin"))
}

func TestExtractStreet_CaseInsensitiveCity(t *testing.T) {
	assert.Equal(t, "222 West Ave",
		ExtractStreet("222 WEST AVE AUSTIN TX 78701", "austin"))
}

func sr(street, city, state, zip string) *model.SearchResult {
	return &model.SearchResult{
		ID:         "sr-1",
		PlaceID:    "place-1",
		Street:     street,
		City:       city,
		State:      state,
		PostalCode: zip,
	}
}

func mapping(full, city, state, zip string) *model.BusinessMapping {
	return &model.BusinessMapping{
		EnigmaID:           "en-1",
		MatchedFullAddress: full,
		MatchedCity:        city,
		MatchedState:       state,
		MatchedPostalCode:  zip,
	}
}

func TestEvaluate_StreetMatchWithUnitSynonyms(t *testing.T) {
	v := Evaluate(Input{
		Record:        model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:        sr("222 West Ave #120", "Austin", "TX", "78701"),
		Mapping:       mapping("222 WEST AVE STE 120 AUSTIN TX 78701", "Austin", "TX", "78701"),
		MinSimilarity: 1.0,
	})
	assert.True(t, v.StreetEqual)
	assert.True(t, v.EqualAfterNorm)
	assert.Equal(t, model.ReasonMatch, v.Reason)
	assert.Empty(t, v.Category)
}

func TestEvaluate_CrossCityStateWinsOverZip(t *testing.T) {
	v := Evaluate(Input{
		Record:        model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:        sr("222 West Ave", "Austin", "TX", "78701"),
		Mapping:       mapping("222 West Ave Dallas TX 75201", "Dallas", "TX", "75201"),
		MinSimilarity: 1.0,
	})
	assert.Equal(t, model.ReasonMismatch, v.Reason)
	// Zip also differs, but city/state disagreement takes the category.
	assert.Equal(t, model.CategoryCrossCityState, v.Category)
	assert.False(t, v.ZipEqual)
}

func TestEvaluate_CrossZip(t *testing.T) {
	v := Evaluate(Input{
		Record:        model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:        sr("222 West Ave", "Austin", "TX", "78701"),
		Mapping:       mapping("500 Congress Ave Austin TX 78702", "Austin", "TX", "78702"),
		MinSimilarity: 1.0,
	})
	assert.Equal(t, model.ReasonMismatch, v.Reason)
	assert.Equal(t, model.CategoryCrossZip, v.Category)
}

func TestEvaluate_CrossStreet(t *testing.T) {
	v := Evaluate(Input{
		Record:        model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:        sr("222 West Ave", "Austin", "TX", "78701"),
		Mapping:       mapping("500 Congress Ave Austin TX 78701", "Austin", "TX", "78701"),
		MinSimilarity: 1.0,
	})
	assert.Equal(t, model.ReasonMismatch, v.Reason)
	assert.Equal(t, model.CategoryCrossStreet, v.Category)
}

func TestEvaluate_FuzzyFallback(t *testing.T) {
	v := Evaluate(Input{
		Record: model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search: sr("222 West Avenue", "Austin", "TX", "78701"),
		// Street lines differ after normalization ("ave" vs "avenue"), but
		// the whole-address strings are nearly identical.
		Mapping:       mapping("222 West Ave Austin TX 78701", "Austin", "TX", "78701"),
		MinSimilarity: 0.9,
	})
	assert.False(t, v.StreetEqual)
	assert.True(t, v.EqualAfterNorm)
	assert.Equal(t, model.ReasonMatch, v.Reason)
}

func TestEvaluate_JoinFailures(t *testing.T) {
	v := Evaluate(Input{Record: model.MetricRecord{ID: "m1"}})
	assert.Equal(t, model.ReasonMissingSearchResult, v.Reason)
	assert.False(t, v.Joined())

	v = Evaluate(Input{
		Record: model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search: sr("222 West Ave", "Austin", "TX", "78701"),
	})
	assert.Equal(t, model.ReasonMissingBusinessMapping, v.Reason)

	v = Evaluate(Input{
		Record:  model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:  sr("222 West Ave", "Austin", "TX", "78701"),
		Mapping: mapping("", "Austin", "TX", "78701"),
	})
	assert.Equal(t, model.ReasonNoMatchedFullAddress, v.Reason)
}

func TestEvaluate_MissingPlaceID(t *testing.T) {
	search := sr("222 West Ave", "Austin", "TX", "78701")
	search.PlaceID = ""
	v := Evaluate(Input{
		Record: model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search: search,
	})
	assert.Equal(t, model.ReasonMissingBusinessMapping, v.Reason)
}

func TestEvaluate_MissingPlaceIDStillCountsMismatch(t *testing.T) {
	search := sr("222 West Ave", "Austin", "TX", "78701")
	search.PlaceID = ""
	v := Evaluate(Input{
		Record:        model.MetricRecord{ID: "m1", SearchResultID: "sr-1"},
		Search:        search,
		Mapping:       mapping("222 West Ave Dallas TX 75201", "Dallas", "TX", "75201"),
		MinSimilarity: 1.0,
	})
	// A fully joined row reports its mismatch; the empty place ID is tallied
	// separately in the diagnostics.
	assert.Equal(t, model.ReasonMismatch, v.Reason)
	assert.Equal(t, model.CategoryCrossCityState, v.Category)
	assert.True(t, v.Joined())
}
