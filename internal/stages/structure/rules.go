// internal/stages/structure/rules.go
package structure

import (
	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/normalize"
)

// Scope qualifiers let multiple time anchors coexist without ambiguity:
// "haircut at 5 then massage at 6" is two distinguishable clauses.
var scopeQualifiers = map[string]bool{
	"both": true, "each": true, "respectively": true,
	"first": true, "second": true, "then": true, "later": true,
	"after": true, "before": true,
}

// Connectors that join two service phrases under one shared anchor.
var serviceConnectors = map[string]bool{
	"and": true, "plus": true, "with": true,
}

func hasScopeQualifier(tokens []string) bool {
	for _, tok := range tokens {
		if scopeQualifiers[tok] {
			return true
		}
	}
	return false
}

// exactTimesFormRange reports whether the sentence's exact time signals
// are exactly two bounds joined by a range connector ("5 pm to 7 pm").
func exactTimesFormRange(tokens []string, exact []models.TimeSignal) bool {
	if len(exact) != 2 {
		return false
	}
	lo, hi := exact[0].Span, exact[1].Span
	if lo.Start > hi.Start {
		lo, hi = hi, lo
	}
	if hi.Start-lo.End != 1 {
		return false
	}
	between := tokens[lo.End]
	return between == "to" || between == "until" || between == "till" || between == "-"
}

// connectedServices reports whether ≥2 service phrases are joined by a
// connector, which keeps them inside one booking when a single anchor
// governs them.
func connectedServices(tokens []string, serviceCount int) bool {
	if serviceCount < 2 {
		return false
	}
	for _, tok := range tokens {
		if serviceConnectors[tok] {
			return true
		}
	}
	return false
}

func tokensOf(parameterized string) []string {
	return normalize.Tokens(parameterized)
}
