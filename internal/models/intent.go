// internal/models/intent.go
package models

import "fmt"

// IntentStatus is the readiness of a resolved intent.
type IntentStatus string

const (
	StatusReady              IntentStatus = "READY"
	StatusNeedsClarification IntentStatus = "NEEDS_CLARIFICATION"
)

// BookingState values carried on candidate responses.
const (
	BookingStateResolved = "RESOLVED"
	BookingStatePartial  = "PARTIAL"
)

// ResolvedIntent is an executable intent with filled slots.
// status=READY implies MissingSlots is empty.
type ResolvedIntent struct {
	Name         string                 `json:"name"`
	Slots        map[string]interface{} `json:"slots"`
	MissingSlots []string               `json:"missing_slots,omitempty"`
	Status       IntentStatus           `json:"status"`
}

// ContractViolation is a broken invariant on a candidate resolved
// response. Fatal to the turn, never persisted.
type ContractViolation struct {
	RuleID string `json:"rule_id"`
	Detail string `json:"detail"`
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation [%s]: %s", v.RuleID, v.Detail)
}

// OutcomeKind tags the single result of a resolution turn.
type OutcomeKind string

const (
	OutcomeReady              OutcomeKind = "ready"
	OutcomeNeedsClarification OutcomeKind = "needs_clarification"
	OutcomeViolation          OutcomeKind = "violation"
)

// Outcome is the tagged result of one resolution turn. Exactly one of
// Intent, Clarification, or Violation is populated, selected by Kind.
type Outcome struct {
	Kind          OutcomeKind           `json:"kind"`
	Intent        *ResolvedIntent       `json:"intent,omitempty"`
	Clarification *ClarificationRequest `json:"clarification,omitempty"`
	Violation     *ContractViolation    `json:"violation,omitempty"`
}

// ClarificationRequest is handed to the rendering collaborator, which
// must display the options verbatim.
type ClarificationRequest struct {
	ReasonCode  string   `json:"reason_code"`
	TemplateKey string   `json:"template_key"`
	Options     []Option `json:"options"`
}

// Ready wraps an executable intent.
func Ready(intent ResolvedIntent) Outcome {
	return Outcome{Kind: OutcomeReady, Intent: &intent}
}

// NeedsClarification wraps a clarification request.
func NeedsClarification(reason, templateKey string, options []Option) Outcome {
	return Outcome{
		Kind: OutcomeNeedsClarification,
		Clarification: &ClarificationRequest{
			ReasonCode:  reason,
			TemplateKey: templateKey,
			Options:     options,
		},
	}
}

// Violation wraps a contract violation.
func Violation(v *ContractViolation) Outcome {
	return Outcome{Kind: OutcomeViolation, Violation: v}
}

// Candidate is the pre-execution shape checked by the contract gate.
type Candidate struct {
	Success            bool   `json:"success"`
	IntentName         string `json:"intent_name"`
	NeedsClarification bool   `json:"needs_clarification"`
	ReasonCode         string `json:"reason_code"`
	BookingState       string `json:"booking_state"`
	StartTime          string `json:"start_time"`
}
