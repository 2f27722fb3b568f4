package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowUpToLimit(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 5; i++ {
		if !l.Allow("client-a", 5) {
			t.Fatalf("request %d rejected before the limit", i+1)
		}
	}
	if l.Allow("client-a", 5) {
		t.Error("request over the limit was allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 3; i++ {
		l.Allow("client-a", 3)
	}
	if l.Allow("client-a", 3) {
		t.Error("exhausted key was allowed")
	}
	if !l.Allow("client-b", 3) {
		t.Error("fresh key was rejected")
	}
}

func TestResetRestoresCapacity(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 2; i++ {
		l.Allow("client-a", 2)
	}
	if l.Allow("client-a", 2) {
		t.Fatal("exhausted key was allowed")
	}
	l.Reset("client-a")
	if !l.Allow("client-a", 2) {
		t.Error("reset key was rejected")
	}
}

func TestTokensRefillOverTime(t *testing.T) {
	l := New(100 * time.Millisecond)
	for i := 0; i < 2; i++ {
		l.Allow("client-a", 2)
	}
	if l.Allow("client-a", 2) {
		t.Fatal("exhausted key was allowed")
	}
	time.Sleep(120 * time.Millisecond)
	if !l.Allow("client-a", 2) {
		t.Error("key still rejected after a full refill window")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := New(time.Minute)
	handler := Middleware(l, 1, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compare", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestMiddlewareKeysByClientHost(t *testing.T) {
	l := New(time.Minute)
	handler := Middleware(l, 1, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)

	// Same host, different ephemeral port: shares the bucket.
	samehost := httptest.NewRequest(http.MethodGet, "/", nil)
	samehost.RemoteAddr = "10.0.0.1:9999"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, samehost)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("same-host request status = %d, want 429", rec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other-host request status = %d, want 200", rec.Code)
	}
}
