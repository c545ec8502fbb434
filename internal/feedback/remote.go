// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package feedback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/metrics"
	"github.com/bouldhq/fitrec/internal/recommend"
)

// systemPrompt instructs the tailor model. The response must be a JSON
// object carrying the final narrative and preview sentences.
const systemPrompt = "You are an expert clothing tailor. Given a garment category, a recommended size, " +
	"and per-metric slacks (garment minus body, positive = loose), write a short plain-language " +
	"fitting note (<=80 words). Respond with a JSON object {\"final\": string, \"preview\": [string]} " +
	"where preview holds one short sentence per notable fit area."

// RemoteConfig configures the LLM-backed generator.
type RemoteConfig struct {
	// BaseURL is the chat-completions API root, e.g. https://api.openai.com/v1.
	BaseURL string

	// APIKey authenticates requests; sent as a bearer token.
	APIKey string

	// Model is the chat model name.
	Model string

	// Timeout bounds one generation call. Default 10s.
	Timeout time.Duration

	// MaxTokens caps the completion length. Default 160.
	MaxTokens int
}

// Remote generates narratives through an OpenAI-compatible chat API,
// guarded by a circuit breaker. Every failure path (transport error,
// open breaker, bad status, malformed payload, context cancellation)
// degrades to the deterministic rule-based text. Generate never returns
// a non-nil error.
type Remote struct {
	cfg     RemoteConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[recommend.Feedback]
}

// NewRemote creates the remote generator. The breaker opens after a 60%
// failure rate across at least 5 requests and probes again after 30s.
func NewRemote(cfg RemoteConfig) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 160
	}

	const name = "feedback-llm"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[recommend.Feedback](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", stateLabel(from)).
				Str("to", stateLabel(to)).
				Msg("feedback breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateLabel(from), stateLabel(to)).Inc()
		},
	})

	return &Remote{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

// Generate returns the remote narrative, or the deterministic fallback
// when the upstream cannot produce one.
func (g *Remote) Generate(ctx context.Context, in recommend.FeedbackInput) (recommend.Feedback, error) {
	start := time.Now()
	fb, err := g.breaker.Execute(func() (recommend.Feedback, error) {
		return g.generate(ctx, in)
	})
	metrics.RecordUpstreamRequest("feedback", "generate", time.Since(start), err)

	if err != nil {
		metrics.FeedbackFallbacks.Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("remote feedback failed, composing fallback")
		return Compose(in), nil
	}
	return fb, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Remote) generate(ctx context.Context, in recommend.FeedbackInput) (recommend.Feedback, error) {
	userContent, err := json.Marshal(map[string]any{
		"category_id":      in.CategoryID,
		"recommended_size": in.Size,
		"slacks":           in.Slacks,
		"unit":             in.Unit,
		"tone":             in.Tone,
	})
	if err != nil {
		return recommend.Feedback{}, fmt.Errorf("marshal input: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
		Temperature: 0.3,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return recommend.Feedback{}, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return recommend.Feedback{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return recommend.Feedback{}, fmt.Errorf("call tailor api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return recommend.Feedback{}, fmt.Errorf("tailor api status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return recommend.Feedback{}, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return recommend.Feedback{}, fmt.Errorf("tailor api returned no choices")
	}

	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	if content == "" {
		return recommend.Feedback{}, fmt.Errorf("tailor api returned empty content")
	}

	// The model is asked for JSON; plain prose still serves as the
	// final narrative with rule-based previews.
	var fb recommend.Feedback
	if err := json.Unmarshal([]byte(content), &fb); err != nil || fb.Final == "" {
		composed := Compose(in)
		return recommend.Feedback{Final: content, Preview: composed.Preview}, nil
	}
	return fb, nil
}

func stateLabel(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
