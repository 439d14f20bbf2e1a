// Package server is the HTTP boundary of the resolution pipeline.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"
	"intent-resolver/internal/resolver"
)

// maxBodyBytes bounds the resolve request body.
const maxBodyBytes = 16 << 10

// Resolver is the pipeline surface the server depends on.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) (models.Outcome, error)
}

// HealthChecker reports readiness of one backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server routes resolution requests into the pipeline.
type Server struct {
	resolver Resolver
	renderer Renderer
	checks   map[string]HealthChecker
	errs     *stderrors.ErrorHandler
	log      logger.Logger
}

// Renderer turns a clarification into display text. Optional; without
// one the response carries only the structured clarification.
type Renderer interface {
	Render(ctx context.Context, req *models.ClarificationRequest) (string, error)
}

func New(res Resolver, renderer Renderer, checks map[string]HealthChecker, log logger.Logger) *Server {
	return &Server{
		resolver: res,
		renderer: renderer,
		checks:   checks,
		errs:     stderrors.NewErrorHandler(log),
		log:      log,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/resolve", s.handleResolve)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	return mux
}

// resolveResponse is the wire shape of a completed turn.
type resolveResponse struct {
	Outcome models.Outcome `json:"outcome"`
	Prompt  string         `json:"prompt,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req resolver.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.errs.HandleRequestError(w, r, stderrors.NewInvalidUtteranceError("malformed request body: "+err.Error()))
		return
	}

	outcome, err := s.resolver.Resolve(r.Context(), req)
	if err != nil {
		s.errs.HandleRequestError(w, r, err)
		return
	}

	resp := resolveResponse{Outcome: outcome}
	if outcome.Kind == models.OutcomeNeedsClarification && s.renderer != nil {
		if prompt, rerr := s.renderer.Render(r.Context(), outcome.Clarification); rerr == nil {
			resp.Prompt = prompt
		} else {
			s.log.Warn("Clarification prompt render failed", map[string]interface{}{
				"templateKey": outcome.Clarification.TemplateKey,
				"error":       rerr.Error(),
			})
		}
	}

	status := http.StatusOK
	if outcome.Kind == models.OutcomeViolation {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleReady pings each backing dependency with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, status, map[string]interface{}{
		"status": map[bool]string{true: "ready", false: "degraded"}[status == http.StatusOK],
		"deps":   deps,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
