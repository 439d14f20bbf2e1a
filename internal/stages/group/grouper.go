// Package group assembles extracted entities into action-anchored
// groups and manages occurrence-indexed placeholders so repeated
// same-type entities stay distinguishable.
package group

import (
	"fmt"
	"strings"

	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/normalize"
)

// Grouper partitions entities into EntityGroups.
type Grouper struct {
	logger logger.Logger
}

func New(log logger.Logger) *Grouper {
	return &Grouper{logger: log}
}

// indexedTypes are the placeholder types that receive occurrence
// indexes in the parameterized sentence.
var indexedTypes = []models.EntityType{
	models.EntityProduct,
	models.EntityBrand,
	models.EntityVariant,
	models.EntityUnit,
	models.EntityQuantity,
	models.EntityService,
}

// IndexPlaceholders rewrites each typed placeholder with a 1-based
// occurrence index: the second producttoken becomes producttoken_2.
func IndexPlaceholders(parameterized string) string {
	placeholders := make(map[string]bool, len(indexedTypes))
	for _, t := range indexedTypes {
		placeholders[t.Placeholder()] = true
	}

	counts := make(map[string]int)
	tokens := normalize.Tokens(parameterized)
	for i, tok := range tokens {
		if placeholders[tok] {
			counts[tok]++
			tokens[i] = fmt.Sprintf("%s_%d", tok, counts[tok])
		}
	}
	return strings.Join(tokens, " ")
}

// Group partitions entities into groups anchored on action spans. An
// entity with no preceding action attaches to a group with the default
// action. Entities arrive position-ordered from matching.
func (g *Grouper) Group(entities []models.ExtractedEntity, defaultAction string) []models.EntityGroup {
	var groups []models.EntityGroup
	var current *models.EntityGroup

	// The nearest preceding quantity/unit pair governs each product. A
	// new quantity starts a new pair; a new group resets the pair.
	var lastQuantity, lastUnit string

	ensureGroup := func() *models.EntityGroup {
		if current == nil {
			groups = append(groups, models.EntityGroup{Action: defaultAction})
			current = &groups[len(groups)-1]
		}
		return current
	}

	for _, e := range entities {
		if e.Type == models.EntityAction {
			groups = append(groups, models.EntityGroup{Action: e.Canonical})
			current = &groups[len(groups)-1]
			lastQuantity, lastUnit = "", ""
			continue
		}

		grp := ensureGroup()
		switch e.Type {
		case models.EntityProduct:
			grp.Products = append(grp.Products, e.Canonical)
			grp.Items = append(grp.Items, models.GroupItem{
				Product:  e.Canonical,
				Quantity: lastQuantity,
				Unit:     lastUnit,
			})
		case models.EntityBrand:
			grp.Brands = append(grp.Brands, e.Canonical)
		case models.EntityQuantity:
			grp.Quantities = append(grp.Quantities, e.SurfaceText)
			lastQuantity, lastUnit = e.SurfaceText, ""
		case models.EntityUnit:
			grp.Units = append(grp.Units, e.Canonical)
			lastUnit = e.Canonical
		case models.EntityVariant:
			grp.Variants = append(grp.Variants, e.Canonical)
		case models.EntityService:
			grp.Services = append(grp.Services, e.Canonical)
		}
	}

	if g.logger != nil {
		g.logger.Debug("Entities grouped", map[string]interface{}{
			"groups":   len(groups),
			"entities": len(entities),
		})
	}
	return groups
}
