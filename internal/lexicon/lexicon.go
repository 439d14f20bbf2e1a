// Package lexicon loads and indexes per-domain vocabularies: canonical
// terms, their types, and synonym phrases. A loaded lexicon is read-only
// and safely shared across concurrent requests.
package lexicon

import (
	"sort"
	"strings"

	"intent-resolver/internal/models"
)

// Entry is one canonical term with its types and synonym phrases, as it
// appears in the lexicon file.
type Entry struct {
	Canonical string              `json:"canonical"`
	Types     []models.EntityType `json:"types"`
	Synonyms  []string            `json:"synonyms,omitempty"`
}

// Lexicon is the immutable index built from a domain's entries.
type Lexicon struct {
	Domain      string
	Fingerprint string

	entries            []Entry
	synonymToCanonical map[string]string
	termTypes          map[string]map[models.EntityType]bool
	maxTermTokens      int
}

// Resolve maps a surface phrase to its canonical form. Canonical terms
// resolve to themselves.
func (l *Lexicon) Resolve(phrase string) (string, bool) {
	canonical, ok := l.synonymToCanonical[strings.ToLower(phrase)]
	return canonical, ok
}

// Types returns the sorted type set of a canonical term. A term carrying
// more than one type is ambiguous at the lexical level and is settled by
// grouping or clarification downstream.
func (l *Lexicon) Types(canonical string) []models.EntityType {
	set := l.termTypes[canonical]
	if len(set) == 0 {
		return nil
	}
	out := make([]models.EntityType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasType reports whether canonical carries the given type.
func (l *Lexicon) HasType(canonical string, t models.EntityType) bool {
	return l.termTypes[canonical][t]
}

// Terms returns every known surface form, canonical and synonym alike.
// Used as the fuzzy matching vocabulary.
func (l *Lexicon) Terms() []string {
	out := make([]string, 0, len(l.synonymToCanonical))
	for term := range l.synonymToCanonical {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// MaxTermTokens is the token width of the longest known term.
func (l *Lexicon) MaxTermTokens() int {
	return l.maxTermTokens
}

// Entries returns the raw entries the lexicon was built from.
func (l *Lexicon) Entries() []Entry {
	return l.entries
}
