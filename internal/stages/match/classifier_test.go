package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intent-resolver/internal/common/config"
	stderrors "intent-resolver/internal/common/errors"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierConfig(baseURL string) config.ClassifierConfig {
	return config.ClassifierConfig{
		Enabled:    true,
		BaseURL:    baseURL,
		Timeout:    2000,
		MaxRetries: 2,
	}
}

func TestHTTPClassifierSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/classify", r.URL.Path)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"deep", "clean"}, req.Tokens)

		json.NewEncoder(w).Encode(classifyResponse{
			Labels: []string{"service", "service"},
			Scores: []float64{0.91, 0.88},
		})
	}))
	defer server.Close()

	c := NewHTTPClassifier(classifierConfig(server.URL), logger.NewTestLogger(t))
	labels, scores, err := c.Classify(context.Background(), []string{"deep", "clean"})

	require.NoError(t, err)
	assert.Equal(t, []string{"service", "service"}, labels)
	assert.Equal(t, []float64{0.91, 0.88}, scores)
}

func TestHTTPClassifierRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(classifyResponse{
			Labels: []string{"product"},
			Scores: []float64{0.7},
		})
	}))
	defer server.Close()

	c := NewHTTPClassifier(classifierConfig(server.URL), logger.NewTestLogger(t))
	labels, _, err := c.Classify(context.Background(), []string{"rice"})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"product"}, labels)
}

func TestHTTPClassifierBadRequestNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewHTTPClassifier(classifierConfig(server.URL), logger.NewTestLogger(t))
	_, _, err := c.Classify(context.Background(), []string{"rice"})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeClassifierFailed, stdErr.Code)
}

func TestHTTPClassifierTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewHTTPClassifier(classifierConfig(server.URL), logger.NewTestLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := c.Classify(ctx, []string{"rice"})

	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeClassifierTimeout, stdErr.Code)
}

func TestClassifyTypePicksHighestAllowedLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{
			Labels: []string{"brand", "product"},
			Scores: []float64{0.4, 0.9},
		})
	}))
	defer server.Close()

	c := NewHTTPClassifier(classifierConfig(server.URL), logger.NewTestLogger(t))
	picked, err := classifyType(context.Background(), c, "kelloggs",
		[]models.EntityType{models.EntityBrand, models.EntityProduct})

	require.NoError(t, err)
	assert.Equal(t, models.EntityProduct, picked)
}
