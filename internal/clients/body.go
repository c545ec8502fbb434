// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bouldhq/fitrec/internal/metrics"
	"github.com/bouldhq/fitrec/internal/recommend"
)

// BodyConfig configures the body measurement API client.
type BodyConfig struct {
	// BaseURL is the body API root, e.g. http://body:8002/api/v1.
	BaseURL string

	// Username and Password authenticate against the login endpoint.
	Username string
	Password string

	// Timeout bounds a single call. Analysis is slow; default 120s.
	Timeout time.Duration
}

// BodyClient talks to the body measurement API: a photo plus the
// subject's height yields a body measurement map in centimeters.
type BodyClient struct {
	cfg    BodyConfig
	base   string
	client *http.Client

	mu    sync.Mutex
	token string
}

// NewBodyClient creates a body API client.
func NewBodyClient(cfg BodyConfig) *BodyClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &BodyClient{
		cfg:    cfg,
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *BodyClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("body api login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return "", fmt.Errorf("body login status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("body login returned no access token")
	}

	c.token = payload.AccessToken
	return c.token, nil
}

func (c *BodyClient) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Analyze submits a person photo with the subject's height and
// returns the extracted body measurements in centimeters.
func (c *BodyClient) Analyze(ctx context.Context, heightCM float64, image []byte, filename string) (m recommend.Measurements, err error) {
	start := time.Now()
	defer func() { metrics.RecordUpstreamRequest("body", "analyze", time.Since(start), err) }()

	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := mw.WriteField("height", strconv.FormatFloat(heightCM, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write height field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/measurements/analyze", &buf)
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call body api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropToken()
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return nil, fmt.Errorf("body analyze status %d", resp.StatusCode)
	}

	var payload struct {
		Success      bool               `json:"success"`
		Measurements map[string]float64 `json:"measurements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode analyze response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("body analyze reported failure")
	}

	return recommend.Measurements(payload.Measurements), nil
}
