// internal/stages/group/reverse.go
package group

import (
	"regexp"
	"strconv"
	"strings"

	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/normalize"
)

var indexedPlaceholder = regexp.MustCompile(`^([a-z]+token)_(\d+)$`)

// ReverseMap restores each indexed placeholder in the sentence to its
// original surface value, using position-ordered pools built from the
// extraction output. Unknown or out-of-range placeholders are left
// untouched.
func ReverseMap(indexed string, entities []models.ExtractedEntity) string {
	pools := make(map[string][]string)
	for _, e := range entities {
		ph := e.Type.Placeholder()
		pools[ph] = append(pools[ph], e.SurfaceText)
	}

	tokens := normalize.Tokens(indexed)
	for i, tok := range tokens {
		m := indexedPlaceholder.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		pool := pools[m[1]]
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 || n > len(pool) {
			continue
		}
		tokens[i] = pool[n-1]
	}
	return strings.Join(tokens, " ")
}
