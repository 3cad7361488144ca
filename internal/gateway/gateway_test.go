package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://host/api", "/api/clients", "http://host/api/api/clients"},
		{"http://host/api", "clients", "http://host/api/clients"},
		{"http://host", "/health", "http://host/health"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Fatalf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestDoJSONDecodesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Fatalf("missing accept header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"available": true, "message": "ok"})
	}))
	defer ts.Close()

	g := New(ts.URL, defaultTimeout, nil, nil)
	var out struct {
		Available bool   `json:"available"`
		Message   string `json:"message"`
	}
	if err := g.DoJSON(context.Background(), http.MethodGet, "/check", nil, &out); err != nil {
		t.Fatalf("DoJSON error: %v", err)
	}
	if !out.Available || out.Message != "ok" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestDoJSONSendsJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode req: %v", err)
		}
		if req["first_name"] != "Jane" {
			t.Fatalf("unexpected payload: %v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "c1"})
	}))
	defer ts.Close()

	g := New(ts.URL, defaultTimeout, nil, nil)
	var out struct {
		ID string `json:"id"`
	}
	err := g.DoJSON(context.Background(), http.MethodPost, "/api/clients", map[string]string{"first_name": "Jane"}, &out)
	if err != nil {
		t.Fatalf("DoJSON error: %v", err)
	}
	if out.ID != "c1" {
		t.Fatalf("unexpected id %q", out.ID)
	}
}

func TestDoJSONAPIErrorDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "slot already booked"})
	}))
	defer ts.Close()

	g := New(ts.URL, defaultTimeout, nil, nil)
	err := g.DoJSON(context.Background(), http.MethodPost, "/api/appointments", map[string]string{}, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("unexpected status %d", apiErr.Status)
	}
	if apiErr.Detail != "slot already booked" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestDoJSONAPIErrorWithoutDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	g := New(ts.URL, defaultTimeout, nil, nil)
	err := g.DoJSON(context.Background(), http.MethodGet, "/api/notes", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Detail != "" {
		t.Fatalf("expected no detail, got %q", apiErr.Detail)
	}
}

func TestRawVerbs(t *testing.T) {
	var gotMethods []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethods = append(gotMethods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	g := New(ts.URL, defaultTimeout, nil, nil)
	ctx := context.Background()

	for _, call := range []func() (*http.Response, error){
		func() (*http.Response, error) { return g.Get(ctx, "/a") },
		func() (*http.Response, error) { return g.Post(ctx, "/a", map[string]string{}) },
		func() (*http.Response, error) { return g.Patch(ctx, "/a", nil) },
		func() (*http.Response, error) { return g.Delete(ctx, "/a") },
	} {
		resp, err := call()
		if err != nil {
			t.Fatalf("request error: %v", err)
		}
		resp.Body.Close()
	}

	want := []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}
	if len(gotMethods) != len(want) {
		t.Fatalf("unexpected methods %v", gotMethods)
	}
	for i := range want {
		if gotMethods[i] != want[i] {
			t.Fatalf("method[%d]=%s want=%s", i, gotMethods[i], want[i])
		}
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	g := New("http://127.0.0.1:1", 200*time.Millisecond, nil, nil)
	_, err := g.Get(context.Background(), "/api/clients")
	if err == nil {
		t.Fatal("expected transport error")
	}
}
