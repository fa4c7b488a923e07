package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentnode/internal/domain"
	"contentnode/internal/service"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover, Logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/page", nil))
	if rec.Code != http.StatusNoContent || called {
		t.Errorf("expected preflight to be answered directly, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestLoggerKeepsFlusher(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("expected the response writer to implement http.Flusher")
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status to pass through, got %d", rec.Code)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	user := domain.NewSystemUser("editor", "Erin", "Editor")
	assertNoError(t, f.services.Users.Create(context.Background(), user, "correct horse"))

	var seen int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = service.UserFrom(r.Context())
	})

	tests := []struct {
		name     string
		required bool
		path     string
		login    string
		password string
		want     int
		wantUser int
	}{
		{"valid credentials", true, "/api/page", "editor", "correct horse", http.StatusOK, user.ID},
		{"wrong password", false, "/api/page", "editor", "wrong password", http.StatusUnauthorized, 0},
		{"anonymous allowed", false, "/api/page", "", "", http.StatusOK, 0},
		{"anonymous rejected", true, "/api/page", "", "", http.StatusUnauthorized, 0},
		{"health is open", true, "/healthz", "", "", http.StatusOK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.login != "" {
				req.SetBasicAuth(tt.login, tt.password)
			}
			rec := httptest.NewRecorder()
			Authenticate(f.services.Users, tt.required)(inner).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if seen != tt.wantUser {
				t.Errorf("expected user %d in context, got %d", tt.wantUser, seen)
			}
		})
	}
}
