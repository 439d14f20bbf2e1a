// Package contract is the last gate before a resolved response leaves
// the pipeline. It checks cross-field invariants on the candidate and
// fails the turn on the first broken rule; a violating response is
// never persisted or partially repaired.
package contract

import (
	"fmt"

	"intent-resolver/internal/models"
)

// Rule identifiers reported on violations.
const (
	RuleSuccessRequiresIntent      = "success_requires_intent"
	RuleClarificationRequiresCode  = "clarification_requires_reason"
	RuleCompletionRequiresResolved = "completion_requires_resolved"
	RuleResolvedRequiresStartTime  = "resolved_requires_start_time"
)

type rule struct {
	id    string
	check func(models.Candidate) (bool, string)
}

// Ordering is part of the contract: the first failing rule is reported.
var rules = []rule{
	{
		id: RuleSuccessRequiresIntent,
		check: func(c models.Candidate) (bool, string) {
			if c.Success && c.IntentName == "" {
				return false, "success=true but no intent name is set"
			}
			return true, ""
		},
	},
	{
		id: RuleClarificationRequiresCode,
		check: func(c models.Candidate) (bool, string) {
			if c.NeedsClarification && c.ReasonCode == "" {
				return false, "needs_clarification=true but no reason code is set"
			}
			return true, ""
		},
	},
	{
		id: RuleCompletionRequiresResolved,
		check: func(c models.Candidate) (bool, string) {
			if c.Success && !c.NeedsClarification && c.BookingState != models.BookingStateResolved {
				return false, fmt.Sprintf(
					"a completed response must have booking_state=%s, got %q",
					models.BookingStateResolved, c.BookingState)
			}
			return true, ""
		},
	},
	{
		id: RuleResolvedRequiresStartTime,
		check: func(c models.Candidate) (bool, string) {
			if c.BookingState == models.BookingStateResolved && c.StartTime == "" {
				return false, "booking_state=RESOLVED but start_time is empty"
			}
			return true, ""
		},
	},
}

// Validate runs every gate rule against the candidate and returns the
// first violation, or nil when the candidate is clean.
func Validate(c models.Candidate) *models.ContractViolation {
	for _, r := range rules {
		if ok, detail := r.check(c); !ok {
			return &models.ContractViolation{RuleID: r.id, Detail: detail}
		}
	}
	return nil
}
