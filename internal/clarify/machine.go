// Package clarify owns the conversation-scoped disambiguation loop:
// opening a pending question, resolving the user's reply against the
// fixed option list, and clearing or re-presenting state.
package clarify

import (
	"context"

	"intent-resolver/internal/common/config"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/common/metrics"
	"intent-resolver/internal/models"

	"github.com/google/uuid"
)

// Machine drives clarification state transitions. All transitions go
// through the store's atomic update so concurrent turns for the same
// conversation serialize.
type Machine struct {
	store StateStore
	cfg   config.ClarificationConfig
	log   logger.Logger
}

func NewMachine(store StateStore, cfg config.ClarificationConfig, log logger.Logger) *Machine {
	return &Machine{store: store, cfg: cfg, log: log}
}

// ReplyResult is the outcome of one reply turn.
type ReplyResult struct {
	// Active is false when the conversation had no open clarification;
	// the reply should be treated as a fresh utterance.
	Active bool

	// Resolved reports whether the reply selected an option.
	Resolved bool

	Selection    models.Option
	OriginIntent string
	CarriedArgs  map[string]interface{}

	// Reprompt carries the identical option list when the reply did not
	// resolve. The list is never trimmed or reordered between attempts.
	Reprompt *models.ClarificationRequest
}

// Open records a pending disambiguation for the conversation, replacing
// any prior pending question. It returns the request for rendering.
func (m *Machine) Open(ctx context.Context, domain, conversationID string, pending models.PendingDisambiguation) (*models.ClarificationRequest, error) {
	if pending.ID == "" {
		pending.ID = uuid.NewString()
	}
	pending.Options = models.CapOptions(pending.Options, m.cfg.MaxOptions)
	if pending.TemplateKey == "" {
		pending.TemplateKey = models.TemplateAskSelection
	}

	state, err := m.store.Update(ctx, conversationID, func(cur models.ConversationState) (models.ConversationState, error) {
		return cur.WithPending(pending), nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ClarificationsOpened.WithLabelValues(domain, pending.ReasonCode).Inc()
	m.log.Info("clarification opened", map[string]interface{}{
		"conversationId": conversationID,
		"pendingId":      pending.ID,
		"reason":         pending.ReasonCode,
		"options":        len(pending.Options),
		"version":        state.Version,
	})

	return &models.ClarificationRequest{
		ReasonCode:  pending.ReasonCode,
		TemplateKey: pending.TemplateKey,
		Options:     pending.Options,
	}, nil
}

// HandleReply resolves a reply against the open option list. A resolved
// reply clears the state and hands back the origin intent with carried
// arguments; an unresolved reply leaves the state untouched and
// re-presents the same options.
func (m *Machine) HandleReply(ctx context.Context, domain, conversationID, reply string) (ReplyResult, error) {
	var result ReplyResult

	_, err := m.store.Update(ctx, conversationID, func(cur models.ConversationState) (models.ConversationState, error) {
		if cur.State != models.StateAwaitingSelection || cur.Pending == nil {
			result = ReplyResult{Active: false}
			return cur, nil
		}

		pending := *cur.Pending
		result.Active = true

		opt, ok := ResolveReply(reply, pending.Options, m.cfg.ReplyThreshold, m.cfg.SelectionMargin)
		if !ok {
			result.Reprompt = &models.ClarificationRequest{
				ReasonCode:  pending.ReasonCode,
				TemplateKey: pending.TemplateKey,
				Options:     pending.Options,
			}
			return cur, nil
		}

		// The selection is folded into the carried arguments so the
		// origin intent re-enters the pipeline with the ambiguity filled.
		settled := pending.WithCarriedArg("selection", opt.ID)

		result.Resolved = true
		result.Selection = opt
		result.OriginIntent = settled.OriginIntent
		result.CarriedArgs = settled.CarriedArgs
		return cur.Cleared(), nil
	})
	if err != nil {
		return ReplyResult{}, err
	}

	if result.Active {
		if result.Resolved {
			metrics.ClarificationsClosed.WithLabelValues(domain, "resolved").Inc()
			m.log.Info("clarification resolved", map[string]interface{}{
				"conversationId": conversationID,
				"selection":      result.Selection.ID,
			})
		} else {
			m.log.Debug("clarification reply unresolved", map[string]interface{}{
				"conversationId": conversationID,
			})
		}
	}
	return result, nil
}

// Abandon drops an open clarification without a selection.
func (m *Machine) Abandon(ctx context.Context, domain, conversationID string) error {
	if err := m.store.Clear(ctx, conversationID); err != nil {
		return err
	}
	metrics.ClarificationsClosed.WithLabelValues(domain, "abandoned").Inc()
	return nil
}

// State reads the conversation's current clarification state.
func (m *Machine) State(ctx context.Context, conversationID string) (models.ConversationState, error) {
	return m.store.Load(ctx, conversationID)
}
