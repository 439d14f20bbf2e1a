// Package resolver wires the pipeline stages into one resolution turn:
// normalize, match, group, interpret, resolve semantics, then hand the
// candidate to the contract gate or open a clarification.
package resolver

import (
	"context"
	"strings"
	"time"

	"intent-resolver/internal/clarify"
	"intent-resolver/internal/common/config"
	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/common/metrics"
	"intent-resolver/internal/contract"
	"intent-resolver/internal/lexicon"
	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/group"
	"intent-resolver/internal/stages/match"
	"intent-resolver/internal/stages/normalize"
	"intent-resolver/internal/stages/semantic"
	"intent-resolver/internal/stages/structure"
)

// Request is one utterance to resolve. TenantAliases is an inline
// phrase-to-canonical overlay; on a phrase it shares with the stored
// tenant source, the request wins.
type Request struct {
	Utterance      string            `json:"utterance"`
	Domain         string            `json:"domain"`
	TenantID       string            `json:"tenant_id,omitempty"`
	TenantAliases  map[string]string `json:"tenant_aliases,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
}

// IntentHook runs after the contract gate accepts a ready intent. A
// failing hook is logged and the outcome is returned unchanged.
type IntentHook func(ctx context.Context, intent *models.ResolvedIntent) error

// AliasProvider yields the tenant alias overlay for matching.
type AliasProvider interface {
	Get(ctx context.Context, tenantID string) (map[string]string, error)
}

var intentNames = map[string]string{
	"service":     "book_service",
	"reservation": "make_reservation",
	"cart":        "place_order",
}

var defaultActions = map[string]string{
	"service":     "book",
	"reservation": "reserve",
	"cart":        "add",
}

// Service runs resolution turns. It is safe for concurrent use.
type Service struct {
	registry   *lexicon.Registry
	matchers   *match.Cache
	aliases    AliasProvider
	classifier match.Classifier
	grouper    *group.Grouper
	machine    *clarify.Machine
	cfg        *config.Config
	log        logger.Logger
	hooks      map[string]IntentHook
}

func New(
	registry *lexicon.Registry,
	matchers *match.Cache,
	aliases AliasProvider,
	classifier match.Classifier,
	machine *clarify.Machine,
	cfg *config.Config,
	log logger.Logger,
) *Service {
	return &Service{
		registry:   registry,
		matchers:   matchers,
		aliases:    aliases,
		classifier: classifier,
		grouper:    group.New(log),
		machine:    machine,
		cfg:        cfg,
		log:        log,
		hooks:      make(map[string]IntentHook),
	}
}

// RegisterHook attaches a post-resolution hook for one intent name.
// Registration is not synchronized; install hooks before serving.
func (s *Service) RegisterHook(intentName string, hook IntentHook) {
	s.hooks[intentName] = hook
}

// Resolve runs one full turn. A conversation with an open clarification
// treats the utterance as the reply; everything else goes through the
// stage pipeline.
func (s *Service) Resolve(ctx context.Context, req Request) (models.Outcome, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return models.Outcome{}, stderrors.NewInvalidUtteranceError("empty utterance")
	}
	if req.Domain == "" {
		return models.Outcome{}, stderrors.NewInvalidUtteranceError("missing domain")
	}

	metrics.ActiveResolutions.WithLabelValues(req.Domain).Inc()
	defer metrics.ActiveResolutions.WithLabelValues(req.Domain).Dec()

	turnStart := time.Now()
	outcome, err := s.resolve(ctx, req)
	s.observeStage("resolve", s.cfg.Stages.ResolveBudget, time.Since(turnStart))

	if err != nil {
		code := string(stderrors.ErrCodeResolutionFailed)
		if stdErr, ok := err.(*stderrors.StandardError); ok {
			code = string(stdErr.Code)
		}
		metrics.ResolutionErrors.WithLabelValues(req.Domain, code).Inc()
		return models.Outcome{}, err
	}

	metrics.ResolutionsTotal.WithLabelValues(req.Domain, string(outcome.Kind)).Inc()
	return outcome, nil
}

func (s *Service) resolve(ctx context.Context, req Request) (models.Outcome, error) {
	if s.machine != nil && req.ConversationID != "" {
		handled, outcome, err := s.tryReply(ctx, req)
		if handled || err != nil {
			return outcome, err
		}
	}
	return s.runPipeline(ctx, req)
}

// tryReply routes the utterance through the clarification machine when
// the conversation is awaiting a selection.
func (s *Service) tryReply(ctx context.Context, req Request) (bool, models.Outcome, error) {
	result, err := s.machine.HandleReply(ctx, req.Domain, req.ConversationID, req.Utterance)
	if err != nil {
		return true, models.Outcome{}, err
	}
	if !result.Active {
		return false, models.Outcome{}, nil
	}

	if !result.Resolved {
		// Same options, verbatim, until the user picks one.
		return true, models.Outcome{
			Kind:          models.OutcomeNeedsClarification,
			Clarification: result.Reprompt,
		}, nil
	}

	intent := models.ResolvedIntent{
		Name:   result.OriginIntent,
		Slots:  result.CarriedArgs,
		Status: models.StatusReady,
	}
	candidate := models.Candidate{
		Success:      true,
		IntentName:   intent.Name,
		BookingState: models.BookingStateResolved,
		StartTime:    carriedStartTime(result.CarriedArgs),
	}
	if candidate.StartTime == "" {
		// The selection settled the entity but the turn still has no
		// time: re-ask instead of emitting a gated response.
		return true, s.openClarification(ctx, req, models.PendingDisambiguation{
			OriginIntent: intent.Name,
			CarriedArgs:  result.CarriedArgs,
			ReasonCode:   models.ReasonMissingSlot,
			TemplateKey:  models.TemplateAskTime,
		}), nil
	}
	if v := contract.Validate(candidate); v != nil {
		return true, models.Violation(v), nil
	}

	s.runHook(ctx, &intent)
	return true, models.Ready(intent), nil
}

func (s *Service) runPipeline(ctx context.Context, req Request) (models.Outcome, error) {
	lex, err := s.registry.Get(req.Domain)
	if err != nil {
		return models.Outcome{}, err
	}
	matcher := s.matchers.Get(lex)

	var aliases map[string]string
	if s.aliases != nil && req.TenantID != "" {
		aliases, err = s.aliases.Get(ctx, req.TenantID)
		if err != nil {
			return models.Outcome{}, err
		}
	}
	aliases = overlayAliases(aliases, req.TenantAliases)

	var text string
	s.timed("normalize", s.cfg.Stages.NormalizeBudget, func() {
		text = normalize.Apply(req.Utterance)
	})

	var mr *models.MatchResult
	s.timed("match", s.cfg.Stages.MatchBudget, func() {
		mr = matcher.Match(ctx, text, aliases, s.classifier)
	})

	intentName := intentNameFor(req.Domain)

	// Extraction-level ambiguity opens a selection turn before any
	// structural reading is attempted.
	if mr.Status == models.MatchAmbiguous {
		amb := mr.Ambiguous[0]
		pending := models.PendingDisambiguation{
			OriginIntent: intentName,
			Options:      optionsFor(amb.Candidates),
			CarriedArgs:  carryFromMatch(mr),
			ReasonCode:   models.ReasonAmbiguousEntity,
			TemplateKey:  models.TemplateAskSelection,
		}
		return s.openClarification(ctx, req, pending), nil
	}

	if mr.NeedsClarification {
		return s.openClarification(ctx, req, models.PendingDisambiguation{
			OriginIntent: intentName,
			CarriedArgs:  carryFromMatch(mr),
			ReasonCode:   mr.ClarifyReason,
			TemplateKey:  mr.ClarifyTemplateKey,
		}), nil
	}

	var groups []models.EntityGroup
	var parameterized, restored string
	s.timed("group", s.cfg.Stages.GroupBudget, func() {
		parameterized = group.IndexPlaceholders(mr.Parameterized)
		restored = group.ReverseMap(parameterized, mr.Entities)
		groups = s.grouper.Group(mr.Entities, defaultActionFor(req.Domain))
	})

	var st models.StructureResult
	s.timed("structure", s.cfg.Stages.StructureBudget, func() {
		st = structure.Interpret(mr)
	})

	var sem semantic.Result
	s.timed("semantic", s.cfg.Stages.SemanticBudget, func() {
		sem = semantic.Resolve(mr, st)
	})

	if sem.Conflict {
		return s.openClarification(ctx, req, models.PendingDisambiguation{
			OriginIntent: intentName,
			CarriedArgs:  carryFromMatch(mr),
			ReasonCode:   sem.Reason,
			TemplateKey:  models.TemplateAskTime,
		}), nil
	}
	if st.NeedsClarification {
		return s.openClarification(ctx, req, models.PendingDisambiguation{
			OriginIntent: intentName,
			CarriedArgs:  carryFromMatch(mr),
			ReasonCode:   st.ClarifyReason,
			TemplateKey:  models.TemplateAskTime,
		}), nil
	}

	// A booking turn is only complete with a time anchor.
	if sem.Time == nil {
		return s.openClarification(ctx, req, models.PendingDisambiguation{
			OriginIntent: intentName,
			CarriedArgs:  carryFromMatch(mr),
			ReasonCode:   models.ReasonMissingSlot,
			TemplateKey:  models.TemplateAskTime,
		}), nil
	}

	intent := models.ResolvedIntent{
		Name: intentName,
		Slots: map[string]interface{}{
			"groups":        groups,
			"parameterized": parameterized,
			"restored":      restored,
			"booking_count": st.BookingCount,
			"service_scope": string(st.ServiceScope),
			"time_scope":    string(st.TimeScope),
			"time":          sem.Time,
			"dates":         sem.Dates,
			"date_class":    string(sem.DateClass),
		},
		Status: models.StatusReady,
	}
	candidate := models.Candidate{
		Success:      true,
		IntentName:   intent.Name,
		BookingState: models.BookingStateResolved,
		StartTime:    startTimeOf(sem.Time),
	}
	if v := contract.Validate(candidate); v != nil {
		s.log.Error("Candidate rejected by contract gate", map[string]interface{}{
			"domain": req.Domain,
			"rule":   v.RuleID,
			"detail": v.Detail,
		})
		return models.Violation(v), nil
	}

	s.runHook(ctx, &intent)
	return models.Ready(intent), nil
}

// openClarification records pending state when the turn belongs to a
// conversation. A stateless request still gets the clarification
// outcome, there is just nothing to resume later.
func (s *Service) openClarification(ctx context.Context, req Request, pending models.PendingDisambiguation) models.Outcome {
	// Capped here as well so the stateless path honors the option bound.
	pending.Options = models.CapOptions(pending.Options, s.cfg.Clarification.MaxOptions)
	if s.machine != nil && req.ConversationID != "" {
		cr, err := s.machine.Open(ctx, req.Domain, req.ConversationID, pending)
		if err == nil {
			return models.Outcome{Kind: models.OutcomeNeedsClarification, Clarification: cr}
		}
		s.log.Warn("Clarification state not persisted", map[string]interface{}{
			"conversationId": req.ConversationID,
			"error":          err.Error(),
		})
	} else {
		metrics.ClarificationsOpened.WithLabelValues(req.Domain, pending.ReasonCode).Inc()
	}
	return models.NeedsClarification(pending.ReasonCode, pending.TemplateKey, pending.Options)
}

func (s *Service) runHook(ctx context.Context, intent *models.ResolvedIntent) {
	hook, ok := s.hooks[intent.Name]
	if !ok {
		return
	}
	if err := hook(ctx, intent); err != nil {
		s.log.Error("Intent hook failed", map[string]interface{}{
			"intent": intent.Name,
			"error":  err.Error(),
		})
	}
}

// timed runs fn and records its duration against the advisory budget.
func (s *Service) timed(stage string, budgetMs int, fn func()) {
	start := time.Now()
	fn()
	s.observeStage(stage, budgetMs, time.Since(start))
}

func (s *Service) observeStage(stage string, budgetMs int, elapsed time.Duration) {
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if budgetMs > 0 && elapsed > time.Duration(budgetMs)*time.Millisecond {
		metrics.StageBudgetExceeded.WithLabelValues(stage).Inc()
		s.log.Warn("Stage ran past its timing budget", map[string]interface{}{
			"stage":     stage,
			"elapsedMs": elapsed.Milliseconds(),
			"budgetMs":  budgetMs,
		})
	}
}

func intentNameFor(domain string) string {
	if name, ok := intentNames[domain]; ok {
		return name
	}
	return domain + "_request"
}

func defaultActionFor(domain string) string {
	if action, ok := defaultActions[domain]; ok {
		return action
	}
	return "request"
}

func optionsFor(candidates []string) []models.Option {
	out := make([]models.Option, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, models.Option{ID: c, Label: c})
	}
	return out
}

// carryFromMatch preserves the turn's resolved signals so a later
// selection re-enters with them instead of reparsing.
func carryFromMatch(mr *models.MatchResult) map[string]interface{} {
	carried := make(map[string]interface{})
	if len(mr.TimeSignals) > 0 {
		for _, sig := range mr.TimeSignals {
			if sig.Class != models.SignalExact {
				continue
			}
			if hhmm, err := semantic.ToHHMM(sig.Raw); err == nil {
				carried["time"] = hhmm
				break
			}
		}
	}
	if len(mr.AbsoluteDates) > 0 {
		carried["date"] = mr.AbsoluteDates[0].Raw
	}
	return carried
}

// overlayAliases layers request-supplied aliases over the stored tenant
// source. Keys are normalized so the overlay matches the same way the
// stored phrases do.
func overlayAliases(stored, supplied map[string]string) map[string]string {
	if len(supplied) == 0 {
		return stored
	}
	merged := make(map[string]string, len(stored)+len(supplied))
	for phrase, canonical := range stored {
		merged[normalize.Apply(phrase)] = canonical
	}
	for phrase, canonical := range supplied {
		merged[normalize.Apply(phrase)] = canonical
	}
	return merged
}

func carriedStartTime(args map[string]interface{}) string {
	if v, ok := args["time"].(string); ok {
		return v
	}
	return ""
}

// startTimeOf picks the candidate start field: a clock start when the
// constraint has one, else the window label.
func startTimeOf(tc *models.TimeConstraint) string {
	if tc == nil {
		return ""
	}
	if tc.Start != "" {
		return tc.Start
	}
	return tc.Label
}
