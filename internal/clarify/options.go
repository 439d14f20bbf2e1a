// internal/clarify/options.go
package clarify

import (
	"strconv"
	"strings"

	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/match"
)

// ResolveReply resolves a user's reply strictly against the active
// option set, never open vocabulary. Resolution order:
//
//  1. Pure numeral ("2" or "option 2") selects by position.
//  2. Case/whitespace-insensitive exact match on option id or label.
//     More than one exact hit is a data inconsistency: unresolved.
//  3. Fuzzy match on labels at or above threshold; a runner-up within
//     margin of the top score leaves the reply unresolved.
//
// Threshold and margin are on the 0-100 scale.
func ResolveReply(reply string, options []models.Option, threshold, margin float64) (models.Option, bool) {
	reply = strings.TrimSpace(strings.ToLower(reply))
	if reply == "" || len(options) == 0 {
		return models.Option{}, false
	}

	if opt, ok := resolveNumeral(reply, options); ok {
		return opt, true
	}
	if opt, ok, inconsistent := resolveExact(reply, options); ok {
		return opt, true
	} else if inconsistent {
		return models.Option{}, false
	}
	return resolveFuzzy(reply, options, threshold, margin)
}

func resolveNumeral(reply string, options []models.Option) (models.Option, bool) {
	numeral := strings.TrimSpace(strings.TrimPrefix(reply, "option "))
	n, err := strconv.Atoi(numeral)
	if err != nil || n < 1 || n > len(options) {
		return models.Option{}, false
	}
	return options[n-1], true
}

func resolveExact(reply string, options []models.Option) (opt models.Option, ok, inconsistent bool) {
	canon := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	target := canon(reply)

	matches := 0
	for _, o := range options {
		if canon(o.ID) == target || canon(o.Label) == target {
			opt = o
			matches++
		}
	}
	switch matches {
	case 1:
		return opt, true, false
	case 0:
		return models.Option{}, false, false
	default:
		// Two options share the surface the user typed. Picking one
		// would be arbitrary.
		return models.Option{}, false, true
	}
}

func resolveFuzzy(reply string, options []models.Option, threshold, margin float64) (models.Option, bool) {
	type scored struct {
		opt   models.Option
		score float64
	}
	best := scored{score: -1}
	second := scored{score: -1}

	for _, o := range options {
		s := match.Similarity(reply, o.Label)
		if s > best.score {
			second = best
			best = scored{opt: o, score: s}
		} else if s > second.score {
			second = scored{opt: o, score: s}
		}
	}

	if best.score < threshold {
		return models.Option{}, false
	}
	if second.score >= 0 && best.score-second.score < margin {
		return models.Option{}, false
	}
	return best.opt, true
}
