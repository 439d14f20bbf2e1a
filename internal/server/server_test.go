package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"intent-resolver/internal/clarify"
	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"
	"intent-resolver/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	outcome models.Outcome
	err     error
	got     resolver.Request
}

func (s *stubResolver) Resolve(_ context.Context, req resolver.Request) (models.Outcome, error) {
	s.got = req
	return s.outcome, s.err
}

type stubCheck struct{ err error }

func (c stubCheck) Ping(context.Context) error { return c.err }

func postResolve(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleResolveReady(t *testing.T) {
	stub := &stubResolver{outcome: models.Ready(models.ResolvedIntent{
		Name:   "book_service",
		Status: models.StatusReady,
	})}
	srv := New(stub, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance":"book a haircut at 5 pm","domain":"service"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "book a haircut at 5 pm", stub.got.Utterance)

	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.OutcomeReady, resp.Outcome.Kind)
	assert.Equal(t, "book_service", resp.Outcome.Intent.Name)
}

func TestHandleResolveClarificationRendersPrompt(t *testing.T) {
	stub := &stubResolver{outcome: models.NeedsClarification(
		models.ReasonAmbiguousEntity,
		models.TemplateAskSelection,
		[]models.Option{{ID: "a", Label: "Deep Cleaning"}, {ID: "b", Label: "Car Wash"}},
	)}
	srv := New(stub, clarify.NewTemplateRenderer(), nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance":"book deep clean car","domain":"service"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp resolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.OutcomeNeedsClarification, resp.Outcome.Kind)
	assert.Contains(t, resp.Prompt, "1. Deep Cleaning")
	assert.Contains(t, resp.Prompt, "2. Car Wash")
}

func TestHandleResolveAcceptsInlineTenantAliases(t *testing.T) {
	stub := &stubResolver{outcome: models.Ready(models.ResolvedIntent{
		Name:   "place_order",
		Status: models.StatusReady,
	})}
	srv := New(stub, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv,
		`{"utterance":"get rice at 5 pm","domain":"cart","tenant_aliases":{"rice":"house-blend"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"rice": "house-blend"}, stub.got.TenantAliases)
}

func TestHandleResolveViolationIs422(t *testing.T) {
	stub := &stubResolver{outcome: models.Violation(&models.ContractViolation{
		RuleID: "resolved_requires_start_time",
		Detail: "booking_state=RESOLVED but start_time is empty",
	})}
	srv := New(stub, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance":"book a haircut","domain":"service"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleResolveInvalidUtterance(t *testing.T) {
	stub := &stubResolver{err: stderrors.NewInvalidUtteranceError("empty utterance")}
	srv := New(stub, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance":"","domain":"service"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_UTTERANCE")
}

func TestHandleResolveMalformedBody(t *testing.T) {
	srv := New(&stubResolver{}, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance": 12}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResolveRejectsUnknownFields(t *testing.T) {
	srv := New(&stubResolver{}, nil, nil, logger.NewNoOpLogger())

	rec := postResolve(t, srv, `{"utterance":"hi","domain":"service","bogus":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResolveMethodNotAllowed(t *testing.T) {
	srv := New(&stubResolver{}, nil, nil, logger.NewNoOpLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/resolve", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleReady(t *testing.T) {
	srv := New(&stubResolver{}, nil, map[string]HealthChecker{
		"postgres": stubCheck{},
		"redis":    stubCheck{},
	}, logger.NewNoOpLogger())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)
}

func TestHandleReadyDegraded(t *testing.T) {
	srv := New(&stubResolver{}, nil, map[string]HealthChecker{
		"postgres": stubCheck{},
		"redis":    stubCheck{err: fmt.Errorf("connection refused")},
	}, logger.NewNoOpLogger())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
