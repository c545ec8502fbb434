// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func bodyServer(t *testing.T, loginCalls *int32, analyze http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(loginCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("username") != "svc" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token":"body-token"}`)) //nolint:errcheck
	})
	mux.HandleFunc("/measurements/analyze", analyze)
	return httptest.NewServer(mux)
}

func newTestBodyClient(baseURL string) *BodyClient {
	return NewBodyClient(BodyConfig{BaseURL: baseURL, Username: "svc", Password: "secret"})
}

func TestBodyClient_Analyze(t *testing.T) {
	var loginCalls int32
	srv := bodyServer(t, &loginCalls, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer body-token" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("height"); got != "178" {
			t.Errorf("height = %q", got)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Fatalf("form file: %v", err)
		}
		w.Write([]byte(`{"success":true,"measurements":{"chest":98.5,"waist":85,"hips":102}}`)) //nolint:errcheck
	})
	defer srv.Close()

	m, err := newTestBodyClient(srv.URL).Analyze(context.Background(), 178, []byte("jpeg"), "user.jpg")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if m["chest"] != 98.5 || m["waist"] != 85 || m["hips"] != 102 {
		t.Errorf("measurements = %v", m)
	}
}

func TestBodyClient_LoginCached(t *testing.T) {
	var loginCalls int32
	srv := bodyServer(t, &loginCalls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"measurements":{"chest":98}}`)) //nolint:errcheck
	})
	defer srv.Close()

	c := newTestBodyClient(srv.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Analyze(ctx, 170, []byte("x"), "u.jpg"); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if got := atomic.LoadInt32(&loginCalls); got != 1 {
		t.Errorf("login called %d times, want 1", got)
	}
}

func TestBodyClient_AnalyzeFailureFlag(t *testing.T) {
	var loginCalls int32
	srv := bodyServer(t, &loginCalls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`)) //nolint:errcheck
	})
	defer srv.Close()

	if _, err := newTestBodyClient(srv.URL).Analyze(context.Background(), 170, []byte("x"), "u.jpg"); err == nil {
		t.Fatal("expected error when success=false")
	}
}

func TestBodyClient_BadCredentials(t *testing.T) {
	var loginCalls int32
	srv := bodyServer(t, &loginCalls, func(w http.ResponseWriter, r *http.Request) {
		t.Error("analyze must not be reached without a token")
	})
	defer srv.Close()

	c := NewBodyClient(BodyConfig{BaseURL: srv.URL, Username: "svc", Password: "wrong"})
	if _, err := c.Analyze(context.Background(), 170, []byte("x"), "u.jpg"); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestBodyClient_UnauthorizedDropsToken(t *testing.T) {
	var loginCalls int32
	var analyzeCalls int32
	srv := bodyServer(t, &loginCalls, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&analyzeCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"success":true,"measurements":{"chest":98}}`)) //nolint:errcheck
	})
	defer srv.Close()

	c := newTestBodyClient(srv.URL)
	ctx := context.Background()

	if _, err := c.Analyze(ctx, 170, []byte("x"), "u.jpg"); err == nil {
		t.Fatal("expected error on 401")
	}
	if _, err := c.Analyze(ctx, 170, []byte("x"), "u.jpg"); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if got := atomic.LoadInt32(&loginCalls); got != 2 {
		t.Errorf("login called %d times, want re-login after 401", got)
	}
}
