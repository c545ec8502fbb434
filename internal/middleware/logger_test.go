// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLogger_PassesThrough(t *testing.T) {
	var called bool
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok")) //nolint:errcheck
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/try-on", nil))

	if !called {
		t.Fatal("next handler not invoked")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoggingResponseWriter_CountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &loggingResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.Write([]byte("hello"))  //nolint:errcheck
	rw.Write([]byte(" world")) //nolint:errcheck

	if rw.written != 11 {
		t.Errorf("written = %d, want 11", rw.written)
	}
}
