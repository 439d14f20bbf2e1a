// internal/stages/match/classifier.go
package match

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"intent-resolver/internal/common/config"
	stderrors "intent-resolver/internal/common/errors"
	commonhttp "intent-resolver/internal/common/http"
	"intent-resolver/internal/common/logger"
	"intent-resolver/internal/models"
)

// Classifier labels tokens with entity types. Consumed as a black box;
// the pipeline never trains or introspects the model.
type Classifier interface {
	Classify(ctx context.Context, tokens []string) (labels []string, scores []float64, err error)
}

// HTTPClassifier calls an external token classification API.
type HTTPClassifier struct {
	cfg        config.ClassifierConfig
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewHTTPClassifier(cfg config.ClassifierConfig, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		cfg:        cfg,
		httpClient: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:     log,
	}
}

type classifyRequest struct {
	Tokens []string `json:"tokens"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify posts the tokens to the classifier API, retrying transient
// failures with exponential backoff.
func (c *HTTPClassifier) Classify(ctx context.Context, tokens []string) ([]string, []float64, error) {
	payload, err := json.Marshal(classifyRequest{Tokens: tokens})
	if err != nil {
		return nil, nil, stderrors.NewClassifierFailedError(err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/classify"
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<uint(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, nil, stderrors.NewClassifierTimeoutError()
			}
			c.logger.Debug("Retrying classifier call", map[string]interface{}{
				"attempt": attempt + 1,
				"backoff": backoff.String(),
			})
		}

		resp, err := c.httpClient.PostJSON(ctx, url, bytes.NewReader(payload), headers)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, nil, stderrors.NewClassifierTimeoutError()
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("classifier returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != 200 {
			return nil, nil, stderrors.NewClassifierFailedError(
				fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body)))
		}

		var parsed classifyResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = err
			continue
		}
		if len(parsed.Labels) != len(parsed.Scores) {
			return nil, nil, stderrors.NewClassifierFailedError(
				fmt.Errorf("label/score length mismatch: %d vs %d", len(parsed.Labels), len(parsed.Scores)))
		}
		return parsed.Labels, parsed.Scores, nil
	}

	return nil, nil, stderrors.NewClassifierFailedError(lastErr)
}

// classifyType asks the classifier to choose among the allowed types for
// one surface phrase, taking the highest-scoring allowed label.
func classifyType(ctx context.Context, c Classifier, surface string, allowed []models.EntityType) (models.EntityType, error) {
	labels, scores, err := c.Classify(ctx, strings.Fields(surface))
	if err != nil {
		return "", err
	}

	allowedSet := make(map[models.EntityType]bool, len(allowed))
	for _, t := range allowed {
		allowedSet[t] = true
	}

	var best models.EntityType
	bestScore := -1.0
	for i, label := range labels {
		t := models.EntityType(label)
		if allowedSet[t] && scores[i] > bestScore {
			best = t
			bestScore = scores[i]
		}
	}
	if best == "" {
		return "", fmt.Errorf("classifier produced no allowed label for %q", surface)
	}
	return best, nil
}
