// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veato/poll-server/models"
)

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, map[string]string{"hello": "world"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	if w.Body.String() != "{\"hello\":\"world\"}\n" {
		t.Errorf("Unexpected body: %q", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusConflict, "candidate already rejected")

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("candidate already rejected")) {
		t.Errorf("Expected message in body, got %q", w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(http.StatusText(http.StatusConflict))) {
		t.Errorf("Expected status text in body, got %q", w.Body.String())
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"selected":"Pizza"}`))
		r := httptest.NewRequest("POST", "/", body)

		var req models.Phase2VoteRequest
		if err := ParseJSONBody(r, &req); err != nil {
			t.Fatalf("ParseJSONBody() error = %v", err)
		}
		if req.Selected != "Pizza" {
			t.Errorf("Selected = %q, want Pizza", req.Selected)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", bytes.NewReader([]byte("{")))
		var req models.Phase2VoteRequest
		if err := ParseJSONBody(r, &req); err == nil {
			t.Error("ParseJSONBody() expected an error")
		}
	})
}

func TestWithLogging(t *testing.T) {
	called := false
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/polls/x", nil))

	if !called {
		t.Error("Expected the wrapped handler to run")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("Expected the wrapped handler's status, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes through with headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Origin", "http://localhost:5173")

		CORS(next).ServeHTTP(w, r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-User-Id" {
			t.Errorf("Allow-Headers = %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("OPTIONS", "/", nil)

		CORS(next).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for preflight, got %d", w.Code)
		}
	})
}
