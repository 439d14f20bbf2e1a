// internal/models/entity.go
package models

// EntityType classifies an extracted span.
type EntityType string

const (
	EntityProduct  EntityType = "product"
	EntityBrand    EntityType = "brand"
	EntityVariant  EntityType = "variant"
	EntityUnit     EntityType = "unit"
	EntityQuantity EntityType = "quantity"
	EntityService  EntityType = "service"
	EntityAction   EntityType = "action"
	EntityDuration EntityType = "duration"
)

// Placeholder returns the typed token substituted into the parameterized
// sentence, e.g. "producttoken".
func (t EntityType) Placeholder() string {
	return string(t) + "token"
}

// MatchSource records which pass produced an entity.
type MatchSource string

const (
	SourceLexicon MatchSource = "lexicon"
	SourceAlias   MatchSource = "alias"
	SourceFuzzy   MatchSource = "fuzzy"
	SourceModel   MatchSource = "model"
)

// Span is a half-open [Start, End) token range in the normalized sentence.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the width of the span in tokens.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share any token position.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// ExtractedEntity is a typed match over a span of the utterance.
// Spans of the same type never overlap; when candidates overlap the
// longer span wins, then the earliest start.
type ExtractedEntity struct {
	Type        EntityType  `json:"type"`
	SurfaceText string      `json:"surface_text"`
	Canonical   string      `json:"canonical"`
	Span        Span        `json:"span"`
	Confidence  float64     `json:"confidence"`
	Source      MatchSource `json:"source"`
}

// MatchStatus summarizes the matching stage: ambiguous when any span
// collided, no_match when nothing was extracted, resolved otherwise.
type MatchStatus string

const (
	MatchResolved  MatchStatus = "resolved"
	MatchAmbiguous MatchStatus = "ambiguous"
	MatchNone      MatchStatus = "no_match"
)

// SignalClass classifies a raw date or time mention.
type SignalClass string

const (
	SignalExact    SignalClass = "exact"
	SignalWindow   SignalClass = "window"
	SignalRange    SignalClass = "range"
	SignalRelative SignalClass = "relative"
	SignalAbsolute SignalClass = "absolute"
)

// TimeSignal is a raw extracted time mention plus its classification.
type TimeSignal struct {
	Raw   string      `json:"raw"`
	Class SignalClass `json:"class"`
	Span  Span        `json:"span"`
}

// DateSignal is a raw extracted date mention plus its classification.
// Absolute signals carry the stated day-of-month; Month is the lowercase
// month name when one was stated, empty for bare ordinals.
type DateSignal struct {
	Raw   string      `json:"raw"`
	Class SignalClass `json:"class"`
	Month string      `json:"month,omitempty"`
	Day   int         `json:"day,omitempty"`
	Year  int         `json:"year,omitempty"`
	Span  Span        `json:"span"`
}

// TimeMode selects how a TimeConstraint is expressed.
type TimeMode string

const (
	TimeModeExact  TimeMode = "exact"
	TimeModeWindow TimeMode = "window"
	TimeModeFuzzy  TimeMode = "fuzzy"
)

// TimeConstraint is the resolved time requirement for a booking.
// Exactly one of the Start/End pair or Label is populated.
type TimeConstraint struct {
	Mode  TimeMode `json:"mode"`
	Start string   `json:"start,omitempty"` // HH:MM
	End   string   `json:"end,omitempty"`   // HH:MM
	Label string   `json:"label,omitempty"` // named window, e.g. "afternoon"
}

// MatchResult is the full output of the entity matching stage.
type MatchResult struct {
	Status        MatchStatus       `json:"status"`
	Parameterized string            `json:"parameterized"`
	Entities      []ExtractedEntity `json:"entities"`
	AbsoluteDates []DateSignal      `json:"absolute_dates"`
	RelativeDates []DateSignal      `json:"relative_dates"`
	TimeSignals   []TimeSignal      `json:"time_signals"`
	Ambiguous     []AmbiguousSpan   `json:"ambiguous,omitempty"`

	// NeedsClarification is set by date/time detection, e.g. a range whose
	// end day precedes its start day within the same stated month.
	NeedsClarification bool   `json:"needs_clarification"`
	ClarifyTemplateKey string `json:"clarify_template_key,omitempty"`
	ClarifyReason      string `json:"clarify_reason,omitempty"`
}

// AmbiguousSpan records a span where multiple equally valid matches
// collided. Surfaced as data, never resolved by an arbitrary pick.
type AmbiguousSpan struct {
	SurfaceText string   `json:"surface_text"`
	Span        Span     `json:"span"`
	Candidates  []string `json:"candidates"`
}
