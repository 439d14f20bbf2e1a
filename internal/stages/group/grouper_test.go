package group

import (
	"testing"

	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(t models.EntityType, surface, canonical string, start int) models.ExtractedEntity {
	return models.ExtractedEntity{
		Type:        t,
		SurfaceText: surface,
		Canonical:   canonical,
		Span:        models.Span{Start: start, End: start + 1},
		Confidence:  1,
		Source:      models.SourceLexicon,
	}
}

func TestIndexPlaceholders(t *testing.T) {
	in := "actiontoken quantitytoken unittoken producttoken and quantitytoken unittoken producttoken"
	out := IndexPlaceholders(in)

	assert.Equal(t,
		"actiontoken quantitytoken_1 unittoken_1 producttoken_1 and quantitytoken_2 unittoken_2 producttoken_2",
		out)
}

func TestIndexPlaceholdersIdempotentOnPlainText(t *testing.T) {
	assert.Equal(t, "no placeholders here", IndexPlaceholders("no placeholders here"))
}

func TestGroupSplitsOnActionAnchors(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	entities := []models.ExtractedEntity{
		entity(models.EntityAction, "order", "order", 0),
		entity(models.EntityQuantity, "2", "2", 1),
		entity(models.EntityUnit, "bags", "bag", 2),
		entity(models.EntityProduct, "rice", "rice", 3),
		entity(models.EntityAction, "book", "book", 4),
		entity(models.EntityService, "haircut", "haircut", 5),
	}

	groups := g.Group(entities, "order")

	require.Len(t, groups, 2)
	assert.Equal(t, "order", groups[0].Action)
	assert.Equal(t, []string{"rice"}, groups[0].Products)
	assert.Equal(t, []string{"2"}, groups[0].Quantities)
	assert.Equal(t, []string{"bag"}, groups[0].Units)

	assert.Equal(t, "book", groups[1].Action)
	assert.Equal(t, []string{"haircut"}, groups[1].Services)
}

func TestGroupWithoutAnchorUsesDefaultAction(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	entities := []models.ExtractedEntity{
		entity(models.EntityQuantity, "3", "3", 0),
		entity(models.EntityProduct, "cornflakes", "cornflakes", 1),
	}

	groups := g.Group(entities, "order")

	require.Len(t, groups, 1)
	assert.Equal(t, "order", groups[0].Action)
	assert.Equal(t, []string{"cornflakes"}, groups[0].Products)
}

func TestGroupLeadingEntitiesAttachToDefaultThenAnchor(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	entities := []models.ExtractedEntity{
		entity(models.EntityProduct, "rice", "rice", 0),
		entity(models.EntityAction, "book", "book", 1),
		entity(models.EntityService, "massage", "massage", 2),
	}

	groups := g.Group(entities, "order")

	require.Len(t, groups, 2)
	assert.Equal(t, "order", groups[0].Action)
	assert.Equal(t, []string{"rice"}, groups[0].Products)
	assert.Equal(t, "book", groups[1].Action)
	assert.Equal(t, []string{"massage"}, groups[1].Services)
}

func TestGroupAlignsQuantityPerProduct(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	// "order 2 bags of rice and 3 boxes cornflakes"
	entities := []models.ExtractedEntity{
		entity(models.EntityAction, "order", "order", 0),
		entity(models.EntityQuantity, "2", "2", 1),
		entity(models.EntityUnit, "bags", "bag", 2),
		entity(models.EntityProduct, "rice", "rice", 4),
		entity(models.EntityQuantity, "3", "3", 6),
		entity(models.EntityUnit, "boxes", "box", 7),
		entity(models.EntityProduct, "cornflakes", "cornflakes", 8),
	}

	groups := g.Group(entities, "order")

	require.Len(t, groups, 1)
	assert.Equal(t, []models.GroupItem{
		{Product: "rice", Quantity: "2", Unit: "bag"},
		{Product: "cornflakes", Quantity: "3", Unit: "box"},
	}, groups[0].Items)
}

func TestGroupQuantityPropagatesUntilNewPair(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	// "add 2 bags of rice and cornflakes": both products share the pair.
	entities := []models.ExtractedEntity{
		entity(models.EntityAction, "add", "add", 0),
		entity(models.EntityQuantity, "2", "2", 1),
		entity(models.EntityUnit, "bags", "bag", 2),
		entity(models.EntityProduct, "rice", "rice", 4),
		entity(models.EntityProduct, "cornflakes", "cornflakes", 6),
	}

	groups := g.Group(entities, "add")

	require.Len(t, groups, 1)
	assert.Equal(t, []models.GroupItem{
		{Product: "rice", Quantity: "2", Unit: "bag"},
		{Product: "cornflakes", Quantity: "2", Unit: "bag"},
	}, groups[0].Items)
}

func TestGroupQuantityDoesNotCrossAnchors(t *testing.T) {
	g := New(logger.NewNoOpLogger())

	entities := []models.ExtractedEntity{
		entity(models.EntityAction, "order", "order", 0),
		entity(models.EntityQuantity, "2", "2", 1),
		entity(models.EntityUnit, "bags", "bag", 2),
		entity(models.EntityProduct, "rice", "rice", 3),
		entity(models.EntityAction, "order", "order", 4),
		entity(models.EntityProduct, "cornflakes", "cornflakes", 5),
	}

	groups := g.Group(entities, "order")

	require.Len(t, groups, 2)
	assert.Equal(t, []models.GroupItem{{Product: "rice", Quantity: "2", Unit: "bag"}}, groups[0].Items)
	assert.Equal(t, []models.GroupItem{{Product: "cornflakes"}}, groups[1].Items,
		"a fresh group never inherits the previous group's pair")
}

func TestGroupEmpty(t *testing.T) {
	g := New(logger.NewNoOpLogger())
	assert.Empty(t, g.Group(nil, "order"))
}

func TestReverseMap(t *testing.T) {
	entities := []models.ExtractedEntity{
		entity(models.EntityQuantity, "2", "2", 1),
		entity(models.EntityUnit, "bags", "bag", 2),
		entity(models.EntityProduct, "basmati rice", "rice", 3),
		entity(models.EntityProduct, "cornflakes", "cornflakes", 6),
	}

	indexed := "order quantitytoken_1 unittoken_1 producttoken_1 and producttoken_2"
	restored := ReverseMap(indexed, entities)

	assert.Equal(t, "order 2 bags basmati rice and cornflakes", restored)
}

func TestReverseMapOutOfRangeLeftUntouched(t *testing.T) {
	restored := ReverseMap("producttoken_3 please", []models.ExtractedEntity{
		entity(models.EntityProduct, "rice", "rice", 0),
	})

	assert.Equal(t, "producttoken_3 please", restored)
}
