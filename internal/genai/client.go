// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assessment-engine/internal/common/config"
	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/common/metrics"
)

const serviceName = "genai"

// Client talks to the GenAI scoring service. It performs exactly one
// request per call and maps throttling responses onto typed errors so
// callers can decide how to retry.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger
}

func NewClient(cfg config.APIsConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GenAI.BaseURL, "/"),
		apiKey:  cfg.GenAI.APIKey,
		client: &http.Client{
			Timeout: config.GetDuration(cfg.GenAI.Timeout),
		},
		logger: log.With(map[string]interface{}{
			"component": "genai-client",
		}),
	}
}

// ScoreCompetency scores a single competency for one scenario conversation.
func (c *Client) ScoreCompetency(ctx context.Context, req *ScoreRequest) (*ScoreResult, error) {
	var result ScoreResult
	if err := c.post(ctx, "/api/ai/score", "score", req, &result); err != nil {
		return nil, err
	}
	result.Score = clampScore(result.Score)
	if result.Competency == "" {
		result.Competency = req.Competency
	}
	return &result, nil
}

// ScoreAllCompetencies scores every competency of a scenario in one call.
func (c *Client) ScoreAllCompetencies(ctx context.Context, req *BatchScoreRequest) ([]ScoreResult, error) {
	var response struct {
		Scores []ScoreResult `json:"scores"`
	}
	if err := c.post(ctx, "/api/ai/score-batch", "score-batch", req, &response); err != nil {
		return nil, err
	}
	for i := range response.Scores {
		response.Scores[i].Score = clampScore(response.Scores[i].Score)
	}
	return response.Scores, nil
}

// JudgeCompleteness asks whether an answer fully addresses the prompt.
func (c *Client) JudgeCompleteness(ctx context.Context, req *JudgmentRequest) (*JudgmentResult, error) {
	var result JudgmentResult
	if err := c.post(ctx, "/api/ai/judge-completeness", "judge", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Translate converts text into the target language.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var response struct {
		Text string `json:"text"`
	}
	req := TranslateRequest{Text: text, TargetLanguage: targetLanguage}
	if err := c.post(ctx, "/api/ai/translate", "translate", &req, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.Text) == "" {
		return "", commonerrors.NewTranslationFailedError(fmt.Errorf("empty translation response"))
	}
	return response.Text, nil
}

// Narrative generates strength/weakness prose for an aggregated
// competency result.
func (c *Client) Narrative(ctx context.Context, req *NarrativeRequest) (*NarrativeResult, error) {
	var result NarrativeResult
	if err := c.post(ctx, "/api/ai/narrative", "narrative", req, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.StrengthSummary) == "" && strings.TrimSpace(result.WeaknessSummary) == "" {
		return nil, commonerrors.NewNarrativeFailedError(fmt.Errorf("empty narrative response"))
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path, operation string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return c.operationError(operation, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return c.operationError(operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ExternalCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return c.operationError(operation, ctx.Err())
		}
		return c.operationError(operation, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return c.operationError(operation, fmt.Errorf("decode response: %w", err))
		}
		return nil
	case http.StatusTooManyRequests:
		c.logger.Warn("genai rate limited", map[string]interface{}{
			"operation": operation,
		})
		return commonerrors.NewRateLimitedError(serviceName)
	case http.StatusServiceUnavailable:
		c.logger.Warn("genai overloaded", map[string]interface{}{
			"operation": operation,
		})
		return commonerrors.NewServiceOverloadedError(serviceName)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return c.operationError(operation, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}
}

func (c *Client) operationError(operation string, err error) error {
	switch operation {
	case "translate":
		return commonerrors.NewTranslationFailedError(err)
	case "judge":
		return commonerrors.NewJudgmentFailedError(err)
	case "narrative":
		return commonerrors.NewNarrativeFailedError(err)
	default:
		return commonerrors.NewScoringFailedError(err)
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}
