// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package tryon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/bouldhq/fitrec/internal/logging"
	"github.com/bouldhq/fitrec/internal/metrics"
)

// RemoteConfig configures the remote image-edit provider.
type RemoteConfig struct {
	// BaseURL is the vendor API root.
	BaseURL string

	// APIKey authenticates requests; sent as a bearer token.
	APIKey string

	// Model is the vendor model name submitted with each job.
	Model string

	// Timeout bounds a single HTTP call. Default 60s.
	Timeout time.Duration

	// QueryRate throttles status polling, in queries per second.
	// Default 2.
	QueryRate float64
}

// RemoteProvider submits jobs to an asynchronous image-edit vendor
// over JSON HTTP. Calls run through a circuit breaker; status polling
// is additionally throttled by a token-bucket limiter so a hot polling
// loop cannot exhaust the vendor quota.
type RemoteProvider struct {
	cfg     RemoteConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[TaskResult]
	limiter *rate.Limiter
}

// NewRemoteProvider creates the remote provider.
func NewRemoteProvider(cfg RemoteConfig) *RemoteProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.QueryRate <= 0 {
		cfg.QueryRate = 2
	}

	const name = "tryon-vendor"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[TaskResult](gobreaker.Settings{
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
				Str("from", breakerStateLabel(from)).
				Str("to", breakerStateLabel(to)).
				Msg("tryon breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, breakerStateLabel(from), breakerStateLabel(to)).Inc()
		},
	})

	return &RemoteProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.QueryRate), 1),
	}
}

// Name implements Provider.
func (p *RemoteProvider) Name() string { return "remote" }

type vendorInput struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls"`
	OutputFormat string   `json:"output_format,omitempty"`
	ImageSize    string   `json:"image_size,omitempty"`
}

type createTaskPayload struct {
	Model       string      `json:"model"`
	Input       vendorInput `json:"input"`
	CallbackURL string      `json:"callBackUrl,omitempty"`
}

type vendorEnvelope struct {
	Code json.RawMessage `json:"code"`
	Msg  string          `json:"msg"`
	Data struct {
		TaskID     string `json:"taskId"`
		State      string `json:"state"`
		FailMsg    string `json:"failMsg"`
		ResultJSON string `json:"resultJson"`
	} `json:"data"`
}

type vendorResult struct {
	ResultURLs []string `json:"resultUrls"`
}

// CreateTask implements Provider.
func (p *RemoteProvider) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	start := time.Now()
	res, err := p.breaker.Execute(func() (TaskResult, error) {
		return p.createTask(ctx, req)
	})
	metrics.RecordUpstreamRequest("tryon", "create_task", time.Since(start), err)
	if err != nil {
		return "", err
	}
	return res.TaskID, nil
}

func (p *RemoteProvider) createTask(ctx context.Context, req TaskRequest) (TaskResult, error) {
	body, err := json.Marshal(createTaskPayload{
		Model: p.cfg.Model,
		Input: vendorInput{
			Prompt:       req.Prompt,
			ImageURLs:    req.ImageURLs,
			OutputFormat: req.OutputFormat,
			ImageSize:    req.ImageSize,
		},
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return TaskResult{}, fmt.Errorf("marshal create task: %w", err)
	}

	env, err := p.call(ctx, http.MethodPost, "/api/v1/jobs/createTask", "", bytes.NewReader(body))
	if err != nil {
		return TaskResult{}, err
	}
	if env.Data.TaskID == "" {
		return TaskResult{}, fmt.Errorf("vendor returned no task id")
	}
	return TaskResult{TaskID: env.Data.TaskID, State: StateQueued}, nil
}

// QueryTask implements Provider. It waits on the polling limiter
// before touching the vendor.
func (p *RemoteProvider) QueryTask(ctx context.Context, taskID string) (TaskResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return TaskResult{}, err
	}

	start := time.Now()
	res, err := p.breaker.Execute(func() (TaskResult, error) {
		return p.queryTask(ctx, taskID)
	})
	metrics.RecordUpstreamRequest("tryon", "query_task", time.Since(start), err)
	return res, err
}

func (p *RemoteProvider) queryTask(ctx context.Context, taskID string) (TaskResult, error) {
	env, err := p.call(ctx, http.MethodGet, "/api/v1/jobs/recordInfo", "taskId="+url.QueryEscape(taskID), nil)
	if err != nil {
		return TaskResult{}, err
	}

	res := TaskResult{
		TaskID: env.Data.TaskID,
		State:  MapVendorState(env.Data.State),
		Error:  env.Data.FailMsg,
	}
	if res.TaskID == "" {
		res.TaskID = taskID
	}

	if res.State == StateSuccess && env.Data.ResultJSON != "" {
		var vr vendorResult
		if err := json.Unmarshal([]byte(env.Data.ResultJSON), &vr); err != nil {
			return TaskResult{}, fmt.Errorf("decode result payload: %w", err)
		}
		res.ResultURLs = vr.ResultURLs
	}
	return res, nil
}

func (p *RemoteProvider) call(ctx context.Context, method, path, query string, body io.Reader) (*vendorEnvelope, error) {
	u := strings.TrimRight(p.cfg.BaseURL, "/") + path
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call vendor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return nil, fmt.Errorf("vendor status %d", resp.StatusCode)
	}

	var env vendorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode vendor response: %w", err)
	}
	if !vendorCodeOK(env.Code) {
		return nil, fmt.Errorf("vendor error code %s: %s", strings.Trim(string(env.Code), `"`), env.Msg)
	}
	return &env, nil
}

// vendorCodeOK accepts the vendor's mixed numeric/string success codes.
func vendorCodeOK(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	s := strings.ToLower(strings.Trim(string(raw), `"`))
	switch s {
	case "", "200", "success", "ok":
		return true
	}
	return false
}

// MapVendorState translates the vendor's job states onto the store's
// state set. Unknown states count as processing, not failure.
func MapVendorState(s string) string {
	switch strings.ToLower(s) {
	case "waiting", "queuing", "queued":
		return StateQueued
	case "generating", "processing", "running":
		return StateProcessing
	case "success", "succeeded":
		return StateSuccess
	case "fail", "failed", "error":
		return StateFail
	default:
		return StateProcessing
	}
}

func breakerStateLabel(s gobreaker.State) string {
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

func breakerStateValue(s gobreaker.State) float64 {
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
