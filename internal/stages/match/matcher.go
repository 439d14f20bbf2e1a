// Package match extracts typed entities and date/time signals from a
// normalized utterance, producing the parameterized sentence consumed by
// grouping and structural interpretation.
package match

import (
	"context"
	"strconv"
	"strings"

	"intent-resolver/internal/common/config"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/lexicon"
	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/normalize"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"to": true, "for": true, "in": true, "on": true, "with": true,
	"at": true, "by": true, "please": true, "i": true, "me": true,
	"my": true, "want": true, "would": true, "like": true, "some": true,
}

// Connector words may appear inside a phrase ("bed and breakfast") but a
// candidate span never begins or ends on one.
var connectors = map[string]bool{
	"and": true, "of": true, "to": true,
}

// Ties between a multi-type term's possible types are settled in this
// order when the classifier is unavailable.
var typePriority = []models.EntityType{
	models.EntityProduct,
	models.EntityService,
	models.EntityAction,
	models.EntityBrand,
	models.EntityVariant,
	models.EntityUnit,
	models.EntityDuration,
}

// Matcher resolves entities for one domain. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	domain string
	lex    *lexicon.Lexicon
	cfg    config.MatcherConfig
	logger logger.Logger

	vocabulary []string
}

func New(domain string, lex *lexicon.Lexicon, cfg config.MatcherConfig, log logger.Logger) *Matcher {
	return &Matcher{
		domain:     domain,
		lex:        lex,
		cfg:        cfg,
		logger:     log,
		vocabulary: lex.Terms(),
	}
}

// Domain returns the domain tag the matcher was built for.
func (m *Matcher) Domain() string { return m.domain }

// claim is an accepted entity span during matching.
type claim struct {
	span   models.Span
	entity models.ExtractedEntity
}

// Match extracts entities from normalized text. The tenant alias map is
// consulted before the global lexicon; the classifier, when non-nil,
// settles residual type ambiguity for multi-type terms.
func (m *Matcher) Match(ctx context.Context, text string, aliases map[string]string, classifier Classifier) *models.MatchResult {
	result := &models.MatchResult{Parameterized: text}
	tokens := normalize.Tokens(text)
	if len(tokens) == 0 {
		// Malformed or empty input yields an empty entity set, never
		// an error.
		result.Status = models.MatchNone
		return result
	}

	det := detectDateTime(tokens)
	result.AbsoluteDates = det.Absolute
	result.RelativeDates = det.Relative
	result.TimeSignals = det.Times
	result.NeedsClarification = det.NeedsClarification
	result.ClarifyTemplateKey = det.TemplateKey
	result.ClarifyReason = det.Reason

	consumed := det.Consumed
	var claims []claim

	// Exact passes: tenant aliases override the global lexicon.
	aliasClaims := m.exactPass(tokens, consumed, func(phrase string) (string, bool) {
		canonical, ok := aliases[phrase]
		return canonical, ok
	}, models.SourceAlias, result, ctx, classifier)
	claims = append(claims, aliasClaims...)

	lexClaims := m.exactPass(tokens, consumed, m.lex.Resolve, models.SourceLexicon, result, ctx, classifier)
	claims = append(claims, lexClaims...)

	// Fuzzy recovery over still-unresolved spans.
	claims = append(claims, m.fuzzyPass(ctx, tokens, consumed, result, classifier)...)

	// Bare numerals not claimed by date or time detection are quantities.
	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			consumed[i] = true
			claims = append(claims, claim{
				span: models.Span{Start: i, End: i + 1},
				entity: models.ExtractedEntity{
					Type:        models.EntityQuantity,
					SurfaceText: tok,
					Canonical:   tok,
					Span:        models.Span{Start: i, End: i + 1},
					Confidence:  1,
					Source:      models.SourceLexicon,
				},
			})
		}
	}

	result.Entities = collectEntities(claims)
	result.Parameterized = parameterize(tokens, claims, det)
	result.Status = statusOf(result)
	return result
}

// statusOf summarizes the stage outcome: any collided span makes the
// whole result ambiguous, and a result with nothing extracted at all is
// a no-match.
func statusOf(result *models.MatchResult) models.MatchStatus {
	switch {
	case len(result.Ambiguous) > 0:
		return models.MatchAmbiguous
	case len(result.Entities) == 0 && len(result.AbsoluteDates) == 0 &&
		len(result.RelativeDates) == 0 && len(result.TimeSignals) == 0:
		return models.MatchNone
	default:
		return models.MatchResolved
	}
}

// exactPass runs the longest-match scan against one resolve function.
// Equal-length overlapping matches with different canonicals are
// ambiguous; a longer match dominates a shorter overlapping one.
func (m *Matcher) exactPass(
	tokens []string,
	consumed map[int]bool,
	resolve func(string) (string, bool),
	source models.MatchSource,
	result *models.MatchResult,
	ctx context.Context,
	classifier Classifier,
) []claim {
	type candidate struct {
		span      models.Span
		phrase    string
		canonical string
	}

	var candidates []candidate
	maxWidth := m.cfg.MaxNGram
	if w := m.lex.MaxTermTokens(); w > maxWidth {
		maxWidth = w
	}

	for width := maxWidth; width >= 1; width-- {
		for start := 0; start+width <= len(tokens); start++ {
			span := models.Span{Start: start, End: start + width}
			if spanConsumed(consumed, span) || !viableSpan(tokens, span) {
				continue
			}
			phrase := strings.Join(tokens[start:start+width], " ")
			if canonical, ok := resolve(phrase); ok {
				candidates = append(candidates, candidate{span: span, phrase: phrase, canonical: canonical})
			}
		}
	}

	var claims []claim
	claimed := func(span models.Span) bool { return spanConsumed(consumed, span) }

	for i := 0; i < len(candidates); i++ {
		c := candidates[i]
		if claimed(c.span) {
			continue
		}

		// Equal-length overlapping rivals with a different canonical
		// make the whole region ambiguous. No silent pick.
		var rivals []candidate
		for j := i + 1; j < len(candidates); j++ {
			o := candidates[j]
			if o.span.Len() == c.span.Len() && o.span.Overlaps(c.span) &&
				o.canonical != c.canonical && !claimed(o.span) {
				rivals = append(rivals, o)
			}
		}
		if len(rivals) > 0 {
			names := []string{c.canonical}
			lo, hi := c.span.Start, c.span.End
			for _, r := range rivals {
				names = append(names, r.canonical)
				if r.span.Start < lo {
					lo = r.span.Start
				}
				if r.span.End > hi {
					hi = r.span.End
				}
			}
			region := models.Span{Start: lo, End: hi}
			result.Ambiguous = append(result.Ambiguous, models.AmbiguousSpan{
				SurfaceText: strings.Join(tokens[lo:hi], " "),
				Span:        region,
				Candidates:  names,
			})
			markConsumed(consumed, region)
			continue
		}

		markConsumed(consumed, c.span)
		claims = append(claims, claim{
			span: c.span,
			entity: models.ExtractedEntity{
				Type:        m.entityType(ctx, c.canonical, c.phrase, classifier),
				SurfaceText: c.phrase,
				Canonical:   c.canonical,
				Span:        c.span,
				Confidence:  1,
				Source:      source,
			},
		})
	}
	return claims
}

// fuzzyPass scores unresolved multi-token spans against the vocabulary.
// The best match is accepted only at or above the configured threshold;
// a runner-up with a different canonical inside the margin rejects the
// span as ambiguous.
func (m *Matcher) fuzzyPass(
	ctx context.Context,
	tokens []string,
	consumed map[int]bool,
	result *models.MatchResult,
	classifier Classifier,
) []claim {
	var claims []claim

	for width := m.cfg.MaxNGram; width >= 1; width-- {
		for start := 0; start+width <= len(tokens); start++ {
			span := models.Span{Start: start, End: start + width}
			if spanConsumed(consumed, span) || !viableSpan(tokens, span) {
				continue
			}
			phrase := strings.Join(tokens[start:start+width], " ")
			scored := bestFuzzy(phrase, m.vocabulary)
			if len(scored) == 0 || scored[0].Score < m.cfg.FuzzyThreshold {
				continue
			}

			best := scored[0]
			bestCanonical, _ := m.lex.Resolve(best.Term)

			ambiguous := false
			for _, other := range scored[1:] {
				if best.Score-other.Score >= m.cfg.FuzzyMargin {
					break
				}
				if c, _ := m.lex.Resolve(other.Term); c != bestCanonical {
					ambiguous = true
					result.Ambiguous = append(result.Ambiguous, models.AmbiguousSpan{
						SurfaceText: phrase,
						Span:        span,
						Candidates:  []string{bestCanonical, c},
					})
					break
				}
			}
			if ambiguous {
				markConsumed(consumed, span)
				continue
			}

			markConsumed(consumed, span)
			claims = append(claims, claim{
				span: span,
				entity: models.ExtractedEntity{
					Type:        m.entityType(ctx, bestCanonical, phrase, classifier),
					SurfaceText: phrase,
					Canonical:   bestCanonical,
					Span:        span,
					Confidence:  best.Score / 100,
					Source:      models.SourceFuzzy,
				},
			})
		}
	}
	return claims
}

// entityType picks the type for a canonical. Multi-type terms consult
// the classifier; its failure falls back to the fixed priority order.
func (m *Matcher) entityType(ctx context.Context, canonical, surface string, classifier Classifier) models.EntityType {
	types := m.lex.Types(canonical)
	switch len(types) {
	case 0:
		return models.EntityProduct
	case 1:
		return types[0]
	}

	if classifier != nil {
		if picked, err := classifyType(ctx, classifier, surface, types); err == nil {
			return picked
		} else {
			m.logger.Warn("Classifier unavailable, using type priority", map[string]interface{}{
				"canonical": canonical,
				"error":     err.Error(),
			})
		}
	}

	for _, p := range typePriority {
		for _, t := range types {
			if t == p {
				return t
			}
		}
	}
	return types[0]
}

// viableSpan rejects spans that are entirely stopwords or that begin or
// end on a connector word.
func viableSpan(tokens []string, span models.Span) bool {
	if connectors[tokens[span.Start]] || connectors[tokens[span.End-1]] {
		return false
	}
	for i := span.Start; i < span.End; i++ {
		if !stopwords[tokens[i]] {
			return true
		}
	}
	return false
}

func spanConsumed(consumed map[int]bool, span models.Span) bool {
	for i := span.Start; i < span.End; i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

func markConsumed(consumed map[int]bool, span models.Span) {
	for i := span.Start; i < span.End; i++ {
		consumed[i] = true
	}
}

// collectEntities orders claims by span position.
func collectEntities(claims []claim) []models.ExtractedEntity {
	out := make([]models.ExtractedEntity, 0, len(claims))
	for _, c := range claims {
		out = append(out, c.entity)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Span.Start < out[j-1].Span.Start; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// parameterize rebuilds the sentence with each claimed span replaced by
// its typed placeholder and date/time spans by datetoken/timetoken.
func parameterize(tokens []string, claims []claim, det detection) string {
	replacement := make(map[int]string) // span start -> placeholder
	skip := make(map[int]bool)          // non-start positions of spans

	mark := func(span models.Span, placeholder string) {
		replacement[span.Start] = placeholder
		for i := span.Start + 1; i < span.End; i++ {
			skip[i] = true
		}
	}

	for _, c := range claims {
		mark(c.span, c.entity.Type.Placeholder())
	}
	for _, sig := range det.Absolute {
		mark(sig.Span, "datetoken")
	}
	for _, sig := range det.Relative {
		mark(sig.Span, "datetoken")
	}
	for _, sig := range det.Times {
		mark(sig.Span, "timetoken")
	}

	var out []string
	for i, tok := range tokens {
		if skip[i] {
			continue
		}
		if ph, ok := replacement[i]; ok {
			out = append(out, ph)
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
