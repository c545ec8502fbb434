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

// GarmentConfig configures the garment processing API client.
type GarmentConfig struct {
	// BaseURL is the garment API root, e.g. http://garments:8001/v1.
	BaseURL string

	// Timeout bounds a single call. Image processing is slow;
	// default 120s.
	Timeout time.Duration
}

// ProcessResult is the garment API's response to an image submission.
// SizeScale is a storage path resolvable through FetchChart.
type ProcessResult struct {
	SizeScale      string          `json:"size_scale"`
	MeasurementVis string          `json:"measurement_vis"`
	Raw            json.RawMessage `json:"-"`
}

// GarmentClient talks to the garment processing API: it submits a
// garment photo for measurement extraction and fetches the produced
// size-chart artifact.
type GarmentClient struct {
	base   string
	client *http.Client

	mu    sync.Mutex
	token string
}

// NewGarmentClient creates a garment API client.
func NewGarmentClient(cfg GarmentConfig) *GarmentClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &GarmentClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// ensureToken returns the cached bearer token, issuing a new one when
// none is held.
func (c *GarmentClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/token", nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("issue garment token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return "", fmt.Errorf("garment token status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("garment token issuance returned no token")
	}

	c.token = payload.Token
	return c.token, nil
}

// dropToken clears the cached token so the next call re-authenticates.
func (c *GarmentClient) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// ProcessImage submits a garment photo and returns the processing
// result, including the path of the generated size-chart artifact.
func (c *GarmentClient) ProcessImage(ctx context.Context, image []byte, filename string, categoryID int, trueSize, unit string) (res ProcessResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordUpstreamRequest("garment", "process_image", time.Since(start), err) }()

	token, err := c.ensureToken(ctx)
	if err != nil {
		return ProcessResult{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return ProcessResult{}, fmt.Errorf("write image part: %w", err)
	}
	for field, value := range map[string]string{
		"category_id": strconv.Itoa(categoryID),
		"true_size":   trueSize,
		"unit":        unit,
	} {
		if err := mw.WriteField(field, value); err != nil {
			return ProcessResult{}, fmt.Errorf("write field %s: %w", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return ProcessResult{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/process", &buf)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("build process request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("call garment api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropToken()
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return ProcessResult{}, fmt.Errorf("garment process status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("read process response: %w", err)
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return ProcessResult{}, fmt.Errorf("decode process response: %w", err)
	}
	if res.SizeScale == "" {
		return ProcessResult{}, fmt.Errorf("garment api returned no size scale")
	}
	res.Raw = raw
	return res, nil
}

// FetchChart downloads and decodes the size-chart artifact that
// ProcessImage produced.
func (c *GarmentClient) FetchChart(ctx context.Context, path string) (chart recommend.RawChart, err error) {
	start := time.Now()
	defer func() { metrics.RecordUpstreamRequest("garment", "fetch_chart", time.Since(start), err) }()

	token, err := c.ensureToken(ctx)
	if err != nil {
		return recommend.RawChart{}, err
	}

	u := c.base + "/files?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return recommend.RawChart{}, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return recommend.RawChart{}, fmt.Errorf("fetch size chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropToken()
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for keep-alive
		return recommend.RawChart{}, fmt.Errorf("garment files status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return recommend.RawChart{}, fmt.Errorf("decode size chart: %w", err)
	}
	return chart, nil
}
