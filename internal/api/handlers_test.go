// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bouldhq/fitrec/internal/cache"
	"github.com/bouldhq/fitrec/internal/clients"
	"github.com/bouldhq/fitrec/internal/recommend"
	"github.com/bouldhq/fitrec/internal/tryon"

	json "github.com/goccy/go-json"
)

// stubGarment is a canned GarmentProcessor.
type stubGarment struct {
	processCalls atomic.Int64
	processErr   error
	fetchErr     error
	chart        recommend.RawChart
}

func (s *stubGarment) ProcessImage(_ context.Context, _ []byte, _ string, _ int, _, _ string) (clients.ProcessResult, error) {
	s.processCalls.Add(1)
	if s.processErr != nil {
		return clients.ProcessResult{}, s.processErr
	}
	return clients.ProcessResult{SizeScale: "charts/abc123.json"}, nil
}

func (s *stubGarment) FetchChart(_ context.Context, _ string) (recommend.RawChart, error) {
	if s.fetchErr != nil {
		return recommend.RawChart{}, s.fetchErr
	}
	return s.chart, nil
}

// stubBody is a canned BodyAnalyzer.
type stubBody struct {
	calls        atomic.Int64
	err          error
	measurements recommend.Measurements
}

func (s *stubBody) Analyze(_ context.Context, _ float64, _ []byte, _ string) (recommend.Measurements, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.measurements, nil
}

func testChart() recommend.RawChart {
	return recommend.RawChart{
		Unit:      "cm",
		ChartType: "garment",
		Scale: map[string]recommend.Measurements{
			"S": {"chest": 96, "waist": 84},
			"M": {"chest": 102, "waist": 90},
			"L": {"chest": 108, "waist": 96},
		},
	}
}

func testBodyMeasurements() recommend.Measurements {
	return recommend.Measurements{"chest": 96, "waist": 86}
}

type fixture struct {
	handler *Handler
	garment *stubGarment
	body    *stubBody
	tasks   *tryon.Store
	mux     http.Handler
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()

	engine, err := recommend.NewEngine(nil, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	garment := &stubGarment{chart: testChart()}
	body := &stubBody{measurements: testBodyMeasurements()}
	tasks := tryon.NewStore(time.Hour)

	deps := Deps{
		Engine:   engine,
		Garment:  garment,
		Body:     body,
		Provider: tryon.NewMockProvider(),
		Tasks:    tasks,
	}
	if mutate != nil {
		mutate(&deps)
	}

	h := NewHandler(deps)
	return &fixture{
		handler: h,
		garment: garment,
		body:    body,
		tasks:   tasks,
		mux:     NewRouter(h, RouterConfig{}),
	}
}

// multipartRequest builds a multipart POST with string fields and
// optional in-memory file parts.
func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(name, name+".jpg")
		if err != nil {
			t.Fatalf("CreateFormFile(%s): %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func recommendFields() map[string]string {
	return map[string]string{
		"category_id":       "1",
		"true_size":         "M",
		"measurements_json": `{"chest":96,"waist":86}`,
	}
}

func TestRecommend_WithMeasurementsJSON(t *testing.T) {
	f := newFixture(t, nil)

	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("jpegdata")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result recommend.Result
	decodeJSON(t, rec.Body, &result)
	if result.RecommendedSize == "" {
		t.Fatal("expected a recommended size")
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Fatalf("confidence = %v, want (0,1]", result.Confidence)
	}
	if result.FinalFeedback == "" {
		t.Fatal("expected fallback feedback text")
	}
	if f.body.calls.Load() != 0 {
		t.Fatal("body analyzer must not be called when measurements_json is supplied")
	}
}

func TestRecommend_WithUserImage(t *testing.T) {
	f := newFixture(t, nil)

	fields := map[string]string{
		"category_id": "1",
		"true_size":   "M",
		"height":      "178",
	}
	files := map[string][]byte{
		"garment_image": []byte("jpegdata"),
		"user_image":    []byte("persondata"),
	}
	req := multipartRequest(t, "/v1/recommend", fields, files)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.body.calls.Load() != 1 {
		t.Fatalf("body analyzer calls = %d, want 1", f.body.calls.Load())
	}
}

func TestRecommend_MissingBodyInput(t *testing.T) {
	f := newFixture(t, nil)

	fields := map[string]string{"category_id": "1", "true_size": "M"}
	req := multipartRequest(t, "/v1/recommend", fields, map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	decodeJSON(t, rec.Body, &errResp)
	if errResp.ErrorCode != codeValidation {
		t.Fatalf("error_code = %q, want %q", errResp.ErrorCode, codeValidation)
	}
}

func TestRecommend_UserImageWithoutHeight(t *testing.T) {
	f := newFixture(t, nil)

	fields := map[string]string{"category_id": "1", "true_size": "M"}
	files := map[string][]byte{
		"garment_image": []byte("x"),
		"user_image":    []byte("y"),
	}
	req := multipartRequest(t, "/v1/recommend", fields, files)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommend_InvalidFormFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"unknown unit", func(m map[string]string) { m["unit"] = "furlong" }},
		{"unknown size", func(m map[string]string) { m["true_size"] = "HUGE" }},
		{"category out of range", func(m map[string]string) { m["category_id"] = "99" }},
		{"category not a number", func(m map[string]string) { m["category_id"] = "abc" }},
		{"unknown tone", func(m map[string]string) { m["tone"] = "baggy-ish" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			fields := recommendFields()
			tc.mutate(fields)

			req := multipartRequest(t, "/v1/recommend", fields, map[string][]byte{"garment_image": []byte("x")})
			rec := httptest.NewRecorder()
			f.mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRecommend_MalformedMeasurementsJSON(t *testing.T) {
	f := newFixture(t, nil)

	fields := recommendFields()
	fields["measurements_json"] = `{"chest": "not a number"`
	req := multipartRequest(t, "/v1/recommend", fields, map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommend_GarmentUpstreamFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.garment.processErr = errors.New("boom")

	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var errResp ErrorResponse
	decodeJSON(t, rec.Body, &errResp)
	if errResp.ErrorCode != codeUpstream {
		t.Fatalf("error_code = %q, want %q", errResp.ErrorCode, codeUpstream)
	}
}

func TestRecommend_ChartFetchFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.garment.fetchErr = errors.New("chart gone")

	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestRecommend_InvalidChartType(t *testing.T) {
	f := newFixture(t, nil)
	f.garment.chart.ChartType = "mystery"

	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommend_BrandChartOverride(t *testing.T) {
	f := newFixture(t, nil)

	// The brand chart shifts everything two sizes up; the engine must
	// prefer it over the garment-derived chart.
	brand := recommend.RawChart{
		Unit:      "cm",
		ChartType: "garment",
		Scale: map[string]recommend.Measurements{
			"XL": {"chest": 102, "waist": 92},
		},
	}
	raw, err := json.Marshal(brand)
	if err != nil {
		t.Fatalf("marshal brand chart: %v", err)
	}
	fields := recommendFields()
	fields["brand_chart_json"] = string(raw)

	req := multipartRequest(t, "/v1/recommend", fields, map[string][]byte{"garment_image": []byte("x")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result recommend.Result
	decodeJSON(t, rec.Body, &result)
	if result.RecommendedSize != "XL" {
		t.Fatalf("recommended size = %q, want XL from the brand chart", result.RecommendedSize)
	}
}

func TestRecommend_ChartCache(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.ChartCache = cache.New("charts-test", time.Minute)
	})

	for i := 0; i < 3; i++ {
		req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("same-image")})
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}

	if got := f.garment.processCalls.Load(); got != 1 {
		t.Fatalf("upstream process calls = %d, want 1 with a warm chart cache", got)
	}

	// A different image misses the cache.
	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("other-image")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	if got := f.garment.processCalls.Load(); got != 2 {
		t.Fatalf("upstream process calls = %d, want 2 after a new image", got)
	}
}

func TestRecommend_ResponseCache(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.RecCache = cache.New("rec-test", time.Minute)
	})

	var first recommend.Result
	req := multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("img")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	decodeJSON(t, rec.Body, &first)

	// Second identical call is served from cache; the upstream is
	// still consulted for the chart (no chart cache configured).
	var second recommend.Result
	req = multipartRequest(t, "/v1/recommend", recommendFields(), map[string][]byte{"garment_image": []byte("img")})
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	decodeJSON(t, rec.Body, &second)

	if first.RecommendedSize != second.RecommendedSize || first.Confidence != second.Confidence {
		t.Fatalf("cached response differs: %+v vs %+v", first, second)
	}
	if stats := f.handler.recCache.GetStats(); stats.Hits != 1 {
		t.Fatalf("rec cache hits = %d, want 1", stats.Hits)
	}
}

func TestRecommend_DebugBypassesResponseCache(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.RecCache = cache.New("rec-debug-test", time.Minute)
	})

	fields := recommendFields()
	fields["debug"] = "true"
	req := multipartRequest(t, "/v1/recommend", fields, map[string][]byte{"garment_image": []byte("img")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result recommend.Result
	decodeJSON(t, rec.Body, &result)
	if result.Debug == nil {
		t.Fatal("expected debug payload")
	}
	if stats := f.handler.recCache.GetStats(); stats.TotalKeys != 0 {
		t.Fatalf("debug responses must not be cached, found %d keys", stats.TotalKeys)
	}
}

func TestRecommend_RejectsNonMultipart(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", bytes.NewBufferString(`{"category_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestProcess_ReturnsChartPath(t *testing.T) {
	f := newFixture(t, nil)

	fields := map[string]string{"category_id": "3", "true_size": "L"}
	req := multipartRequest(t, "/v1/process", fields, map[string][]byte{"garment_image": []byte("img")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp ProcessResponse
	decodeJSON(t, rec.Body, &resp)
	if resp.SizeScale != "charts/abc123.json" {
		t.Fatalf("size_scale = %q", resp.SizeScale)
	}
}

func TestProcess_MissingImage(t *testing.T) {
	f := newFixture(t, nil)

	fields := map[string]string{"category_id": "3", "true_size": "L"}
	req := multipartRequest(t, "/v1/process", fields, nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcess_UpstreamFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.garment.processErr = errors.New("kaput")

	fields := map[string]string{"category_id": "3", "true_size": "L"}
	req := multipartRequest(t, "/v1/process", fields, map[string][]byte{"garment_image": []byte("img")})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.ChartCache = cache.New("health-charts", time.Minute)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	decodeJSON(t, rec.Body, &resp)
	if resp.Status != "ok" {
		t.Fatalf("status field = %q", resp.Status)
	}
	if resp.UptimeSeconds < 0 {
		t.Fatalf("uptime = %v", resp.UptimeSeconds)
	}
	if _, ok := resp.CacheHitRates["charts"]; !ok {
		t.Fatal("expected charts hit rate")
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	f := newFixture(t, nil)

	req := multipartRequest(t, "/v1/recommend", map[string]string{}, nil)
	req.Header.Set("X-Request-ID", "req-envelope-1")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	decodeJSON(t, rec.Body, &errResp)
	if errResp.RequestID != "req-envelope-1" {
		t.Fatalf("request_id = %q, want propagated header", errResp.RequestID)
	}
}
