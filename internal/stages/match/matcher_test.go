package match

import (
	"context"
	"testing"

	"intent-resolver/internal/common/config"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/lexicon"
	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatcherConfig() config.MatcherConfig {
	return config.MatcherConfig{
		FuzzyThreshold: 85,
		FuzzyMargin:    5,
		MaxNGram:       4,
	}
}

func cartLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Build("cart", "test-fp", []lexicon.Entry{
		{Canonical: "rice", Types: []models.EntityType{models.EntityProduct}, Synonyms: []string{"basmati rice", "long grain rice"}},
		{Canonical: "bag", Types: []models.EntityType{models.EntityUnit}, Synonyms: []string{"bags"}},
		{Canonical: "cornflakes", Types: []models.EntityType{models.EntityProduct}},
		{Canonical: "kelloggs", Types: []models.EntityType{models.EntityBrand}},
		{Canonical: "order", Types: []models.EntityType{models.EntityAction}, Synonyms: []string{"buy", "get"}},
		{Canonical: "massage spa", Types: []models.EntityType{models.EntityService}},
		{Canonical: "passage spa", Types: []models.EntityType{models.EntityService}},
	})
	require.NoError(t, err)
	return lex
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	return New("cart", cartLexicon(t), testMatcherConfig(), logger.NewTestLogger(t))
}

func match(t *testing.T, m *Matcher, raw string, aliases map[string]string) *models.MatchResult {
	t.Helper()
	return m.Match(context.Background(), normalize.Apply(raw), aliases, nil)
}

func entityByType(entities []models.ExtractedEntity, et models.EntityType) *models.ExtractedEntity {
	for i := range entities {
		if entities[i].Type == et {
			return &entities[i]
		}
	}
	return nil
}

func TestMatchExactEntities(t *testing.T) {
	m := newTestMatcher(t)
	result := match(t, m, "order 2 bags of rice", nil)

	action := entityByType(result.Entities, models.EntityAction)
	require.NotNil(t, action)
	assert.Equal(t, "order", action.Canonical)

	qty := entityByType(result.Entities, models.EntityQuantity)
	require.NotNil(t, qty)
	assert.Equal(t, "2", qty.SurfaceText)

	unit := entityByType(result.Entities, models.EntityUnit)
	require.NotNil(t, unit)
	assert.Equal(t, "bag", unit.Canonical)
	assert.Equal(t, "bags", unit.SurfaceText)

	product := entityByType(result.Entities, models.EntityProduct)
	require.NotNil(t, product)
	assert.Equal(t, "rice", product.Canonical)
	assert.Equal(t, models.SourceLexicon, product.Source)

	assert.Equal(t, "actiontoken quantitytoken unittoken of producttoken", result.Parameterized)
}

func TestMatchSynonymResolvesToCanonical(t *testing.T) {
	m := newTestMatcher(t)
	result := match(t, m, "buy basmati rice", nil)

	product := entityByType(result.Entities, models.EntityProduct)
	require.NotNil(t, product)
	assert.Equal(t, "rice", product.Canonical)
	assert.Equal(t, "basmati rice", product.SurfaceText)
}

func TestMatchTenantAliasOverridesLexicon(t *testing.T) {
	m := newTestMatcher(t)
	aliases := map[string]string{"rice": "house-rice-blend"}

	result := match(t, m, "order rice", nil)
	require.NotNil(t, entityByType(result.Entities, models.EntityProduct))
	assert.Equal(t, "rice", entityByType(result.Entities, models.EntityProduct).Canonical)

	result = match(t, m, "order rice", aliases)
	var aliasEntity *models.ExtractedEntity
	for i := range result.Entities {
		if result.Entities[i].Source == models.SourceAlias {
			aliasEntity = &result.Entities[i]
		}
	}
	require.NotNil(t, aliasEntity)
	assert.Equal(t, "house-rice-blend", aliasEntity.Canonical)
}

func TestMatchOverlappingAliasesAreAmbiguous(t *testing.T) {
	m := newTestMatcher(t)
	aliases := map[string]string{
		"deep clean": "svc-deep-clean",
		"clean car":  "svc-car-wash",
	}

	result := match(t, m, "book deep clean car", aliases)

	require.Len(t, result.Ambiguous, 1)
	assert.ElementsMatch(t,
		[]string{"svc-deep-clean", "svc-car-wash"},
		result.Ambiguous[0].Candidates)

	for _, e := range result.Entities {
		assert.NotEqual(t, models.SourceAlias, e.Source,
			"no alias entity may be claimed from an ambiguous region")
	}
}

func TestMatchFuzzyRecovery(t *testing.T) {
	m := newTestMatcher(t)
	result := match(t, m, "get cornflaks", nil)

	product := entityByType(result.Entities, models.EntityProduct)
	require.NotNil(t, product)
	assert.Equal(t, "cornflakes", product.Canonical)
	assert.Equal(t, models.SourceFuzzy, product.Source)
	assert.Less(t, product.Confidence, 1.0)
	assert.GreaterOrEqual(t, product.Confidence, 0.85)
}

func TestMatchFuzzyTieIsAmbiguous(t *testing.T) {
	m := newTestMatcher(t)

	// Equidistant from "massage spa" and "passage spa": both score the
	// same, inside the margin, so the span is rejected as ambiguous.
	result := match(t, m, "book sassage spa", nil)

	assert.Nil(t, entityByType(result.Entities, models.EntityService))
	require.NotEmpty(t, result.Ambiguous)
	assert.ElementsMatch(t,
		[]string{"massage spa", "passage spa"},
		result.Ambiguous[0].Candidates)
}

func TestMatchBelowThresholdIsNoMatch(t *testing.T) {
	m := newTestMatcher(t)
	result := match(t, m, "get zzzzz", nil)

	assert.Nil(t, entityByType(result.Entities, models.EntityProduct))
	assert.Empty(t, result.Ambiguous)
}

func TestMatchEmptyInput(t *testing.T) {
	m := newTestMatcher(t)
	result := m.Match(context.Background(), "", nil, nil)

	assert.Empty(t, result.Entities)
	assert.False(t, result.NeedsClarification)
}

func TestMatchDateRangePropagatesClarification(t *testing.T) {
	m := newTestMatcher(t)
	result := match(t, m, "order rice oct 29th to 2nd", nil)

	assert.True(t, result.NeedsClarification)
	assert.Equal(t, models.TemplateAskEndDate, result.ClarifyTemplateKey)
	require.Len(t, result.AbsoluteDates, 1)
	assert.Equal(t, 29, result.AbsoluteDates[0].Day)
}

func TestMatchStatusSummarizesOutcome(t *testing.T) {
	m := newTestMatcher(t)

	assert.Equal(t, models.MatchResolved, match(t, m, "order rice", nil).Status)
	assert.Equal(t, models.MatchAmbiguous, match(t, m, "sassage spa", nil).Status)
	assert.Equal(t, models.MatchNone, match(t, m, "zzzzz qqqqq", nil).Status)
	assert.Equal(t, models.MatchNone, m.Match(context.Background(), "", nil, nil).Status)
}
