// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veato/poll-server/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	mux := NewRouter(session)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	mux := NewRouter(session)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "veato poll API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	mux := NewRouter(session)

	// Each registered route should be dispatched to its handler rather than
	// falling through to the mux's plain-text 404. An application/json error
	// response, whatever the status, proves the pattern matched.
	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/polls"},
		{"GET", "/polls/some-id"},
		{"POST", "/polls/some-id/phase1-votes"},
		{"POST", "/polls/some-id/rejections"},
		{"POST", "/polls/some-id/phase2-votes"},
		{"DELETE", "/polls/some-id/ballot"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s rejected its own method", rt.method, rt.path)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Route %s %s fell through to the mux (Content-Type %q)", rt.method, rt.path, ct)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	session, _ := testutil.NewTestSession(t)
	mux := NewRouter(session)

	req := httptest.NewRequest("DELETE", "/polls", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for DELETE /polls, got %d", w.Code)
	}
}
