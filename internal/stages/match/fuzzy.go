// internal/stages/match/fuzzy.go
package match

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Similarity scores two phrases on a 0-100 scale using a token-sort
// normalized Levenshtein ratio, so word order differences ("rice
// basmati" vs "basmati rice") do not penalize the score.
func Similarity(a, b string) float64 {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	return strutil.Similarity(sortTokens(a), sortTokens(b), lev) * 100
}

func sortTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// fuzzyCandidate is one scored vocabulary term.
type fuzzyCandidate struct {
	Term  string
	Score float64
}

// bestFuzzy scores phrase against vocabulary and returns candidates
// sorted best-first.
func bestFuzzy(phrase string, vocabulary []string) []fuzzyCandidate {
	out := make([]fuzzyCandidate, 0, len(vocabulary))
	for _, term := range vocabulary {
		out = append(out, fuzzyCandidate{Term: term, Score: Similarity(phrase, term)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
