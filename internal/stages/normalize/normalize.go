// Package normalize performs deterministic text cleanup ahead of entity
// matching. Apply is pure and idempotent: Apply(Apply(x)) == Apply(x).
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// Unicode hyphen variants folded into a plain ASCII hyphen.
var hyphenVariants = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

var (
	spacedHyphen = regexp.MustCompile(`\s*-\s*`)
	oneUnit      = regexp.MustCompile(`\b(a|an|one) ((?:bag|tin|crate|bottle|pack|box|carton|kg|g|lb|liter|ml|case|sack|jar|can)s?)\b`)
)

// Apply normalizes an utterance: lowercases, folds hyphen variants and
// removes spaces around hyphens ("coca - cola" -> "coca-cola"), strips
// apostrophes and punctuation artifacts, inserts a boundary between a
// digit run and an adjoining letter run ("5kg" -> "5 kg"), rewrites
// "a/an/one <unit>" to "1 <unit>", and collapses whitespace.
func Apply(s string) string {
	s = strings.ToLower(s)
	s = hyphenVariants.Replace(s)
	s = spacedHyphen.ReplaceAllString(s, "-")
	s = stripApostrophes(s)
	s = stripPunctuation(s)
	s = splitDigitLetterRuns(s)
	s = collapseWhitespace(s)
	s = oneUnit.ReplaceAllString(s, "1 $2")
	return s
}

// Tokens splits a normalized sentence on single spaces.
func Tokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}

// Possessives keep their s: "kellogg's" -> "kelloggs".
func stripApostrophes(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, "'", "")
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '-' || r == ':':
			// hyphens and time separators survive normalization
			b.WriteRune(r)
		case unicode.IsPunct(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitDigitLetterRuns inserts a space between a digit run and an
// adjoining letter run, in either order. Ordinal suffixes split too:
// "5th" becomes "5 th", which date detection reassembles.
func splitDigitLetterRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			digitThenLetter := unicode.IsDigit(prev) && unicode.IsLetter(r)
			letterThenDigit := unicode.IsLetter(prev) && unicode.IsDigit(r)
			if digitThenLetter || letterThenDigit {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
