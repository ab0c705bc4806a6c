package rubygems

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gemlock/pkg/cache"
	"github.com/matzehuels/gemlock/pkg/integrations"
)

func newRegistry(t *testing.T, infos map[string]string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/info/{gem}", func(w http.ResponseWriter, req *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		body, ok := infos[chi.URLParam(req, "gem")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Write([]byte(body))
	})
	r.Get("/api/v1/gems/{gem}.json", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "gem") != "rails" {
			http.NotFound(w, req)
			return
		}
		resp := gemResponse{
			Name:          "rails",
			Version:       "7.1.0",
			Info:          "Ruby on Rails is a full-stack web framework",
			Licenses:      []string{"MIT"},
			SourceCodeURI: "https://github.com/rails/rails",
			HomepageURI:   "https://rubyonrails.org",
			Authors:       "David Heinemeier Hansson",
			Downloads:     500000000,
		}
		resp.Dependencies.Runtime = []dependency{
			{Name: "activesupport", Requirements: "= 7.1.0"},
			{Name: "actionpack", Requirements: "= 7.1.0"},
		}
		json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, serverURL string, backend cache.Cache) *Client {
	t.Helper()
	if backend == nil {
		backend = cache.NewNullCache()
	}
	c := NewClient(backend, time.Hour, serverURL)
	c.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})
	return c
}

func TestClient_FetchInfo(t *testing.T) {
	srv := newRegistry(t, map[string]string{"rack": "---\n2.2.8 |checksum:a\n3.0.8 |checksum:b\n"}, nil)
	c := testClient(t, srv.URL, nil)

	infos, err := c.FetchInfo(context.Background(), "rack", false)
	if err != nil {
		t.Fatalf("FetchInfo failed: %v", err)
	}
	if len(infos) != 2 || infos[1].Version != "3.0.8" {
		t.Errorf("unexpected infos: %+v", infos)
	}
}

func TestClient_FetchInfo_NotFound(t *testing.T) {
	srv := newRegistry(t, nil, nil)
	c := testClient(t, srv.URL, nil)

	_, err := c.FetchInfo(context.Background(), "missing-gem", false)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchInfo_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newRegistry(t, map[string]string{"rack": "3.0.8 |checksum:b\n"}, &hits)
	fc, _ := cache.NewFileCache(t.TempDir())
	c := testClient(t, srv.URL, fc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.FetchInfo(ctx, "rack", false); err != nil {
			t.Fatalf("FetchInfo #%d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("registry hit %d times, want 1", hits.Load())
	}

	if _, err := c.FetchInfo(ctx, "rack", true); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("refresh should bypass cache, hits = %d", hits.Load())
	}
}

func TestClient_FetchInfo_Offline(t *testing.T) {
	var hits atomic.Int32
	srv := newRegistry(t, map[string]string{"rack": "3.0.8 |checksum:b\n"}, &hits)
	fc, _ := cache.NewFileCache(t.TempDir())
	c := testClient(t, srv.URL, fc)
	ctx := context.Background()

	if _, err := c.FetchInfo(ctx, "rack", false); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	c.SetOffline(true)
	if _, err := c.FetchInfo(ctx, "rack", false); err != nil {
		t.Errorf("offline cached fetch failed: %v", err)
	}
	if _, err := c.FetchInfo(ctx, "rails", false); !errors.Is(err, integrations.ErrOffline) {
		t.Errorf("offline miss error = %v, want ErrOffline", err)
	}
	if hits.Load() != 1 {
		t.Errorf("offline client reached the registry: hits = %d", hits.Load())
	}
}

func TestClient_FetchGem(t *testing.T) {
	srv := newRegistry(t, nil, nil)
	c := testClient(t, srv.URL, nil)

	info, err := c.FetchGem(context.Background(), "rails", true)
	if err != nil {
		t.Fatalf("FetchGem failed: %v", err)
	}
	if info.Name != "rails" || info.Version != "7.1.0" {
		t.Errorf("unexpected gem %s %s", info.Name, info.Version)
	}
	if len(info.Dependencies) != 2 {
		t.Errorf("expected 2 runtime dependencies, got %d", len(info.Dependencies))
	}
	if info.License != "MIT" {
		t.Errorf("expected license MIT, got %s", info.License)
	}
}

func TestClient_FetchGem_NotFound(t *testing.T) {
	srv := newRegistry(t, nil, nil)
	c := testClient(t, srv.URL, nil)

	_, err := c.FetchGem(context.Background(), "missing-gem", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRuntimeDeps(t *testing.T) {
	deps := []dependency{
		{Name: "activesupport", Requirements: "= 7.1.0"},
		{Name: "actionpack"},
		{Name: "actionpack"}, // duplicate
		{Name: " "},
	}

	result := runtimeDeps(deps)
	if len(result) != 2 {
		t.Errorf("expected 2 unique deps, got %d", len(result))
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil, time.Hour, "")
	if c.URL() != DefaultURL {
		t.Errorf("URL() = %s, want %s", c.URL(), DefaultURL)
	}
	c = NewClient(nil, time.Hour, "http://localhost:9292/")
	if c.URL() != "http://localhost:9292" {
		t.Errorf("trailing slash not trimmed: %s", c.URL())
	}
}
