// internal/models/clarification.go
package models

// Reason codes attached to clarification requests.
const (
	ReasonAmbiguousEntity    = "AMBIGUOUS_ENTITY"
	ReasonConflictingSignals = "CONFLICTING_SIGNALS"
	ReasonMissingSlot        = "MISSING_SLOT"
	ReasonCrossMonthRange    = "CROSS_MONTH_RANGE"
	ReasonMultipleAnchors    = "MULTIPLE_ANCHORS"
)

// Template keys handed to the rendering collaborator.
const (
	TemplateAskEndDate   = "ask_end_date"
	TemplateAskSelection = "ask_selection"
	TemplateAskTime      = "ask_time"
)

// MaxDisambiguationOptions caps the option list presented to the user.
const MaxDisambiguationOptions = 10

// CapOptions bounds an option list to max, itself bounded by
// MaxDisambiguationOptions. A non-positive max falls back to the bound.
// Every path that surfaces options goes through this cap.
func CapOptions(options []Option, max int) []Option {
	if max <= 0 || max > MaxDisambiguationOptions {
		max = MaxDisambiguationOptions
	}
	if len(options) > max {
		return options[:max]
	}
	return options
}

// Option is one selectable answer in a disambiguation turn.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ClarifyState names the conversation's clarification state.
type ClarifyState string

const (
	StateNone              ClarifyState = "NONE"
	StateAwaitingSelection ClarifyState = "AWAITING_SELECTION"
)

// PendingDisambiguation is the persisted record of an open clarification.
// At most one is active per conversation; a new ambiguity replaces the
// old record, it is never stacked on top of it. The option list is
// immutable for the lifetime of the record: a failed resolution attempt
// re-presents the identical list.
type PendingDisambiguation struct {
	ID           string                 `json:"id"`
	OriginIntent string                 `json:"origin_intent"`
	Options      []Option               `json:"options"`
	CarriedArgs  map[string]interface{} `json:"carried_args,omitempty"`
	ReasonCode   string                 `json:"reason_code"`
	TemplateKey  string                 `json:"template_key"`
}

// WithCarriedArg derives a new record with one extra carried argument.
// The receiver is not modified; options are shared since they are
// immutable for the record's lifetime.
func (p PendingDisambiguation) WithCarriedArg(key string, value interface{}) PendingDisambiguation {
	args := make(map[string]interface{}, len(p.CarriedArgs)+1)
	for k, v := range p.CarriedArgs {
		args[k] = v
	}
	args[key] = value
	p.CarriedArgs = args
	return p
}

// ConversationState is the immutable per-conversation clarification value.
// Transitions derive a new value rather than mutating in place.
type ConversationState struct {
	ConversationID string                 `json:"conversation_id"`
	State          ClarifyState           `json:"state"`
	Pending        *PendingDisambiguation `json:"pending,omitempty"`
	Version        int64                  `json:"version"`
}

// WithPending derives the AWAITING_SELECTION state holding p. Any prior
// pending record is replaced.
func (c ConversationState) WithPending(p PendingDisambiguation) ConversationState {
	c.State = StateAwaitingSelection
	c.Pending = &p
	c.Version++
	return c
}

// Cleared derives the NONE state with no pending record.
func (c ConversationState) Cleared() ConversationState {
	c.State = StateNone
	c.Pending = nil
	c.Version++
	return c
}
