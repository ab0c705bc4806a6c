package resolve

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gemlock/pkg/cache"
	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/integrations/rubygems"
)

var compactIndex = map[string]string{
	"rails": "---\n" +
		"7.0.8 activesupport:= 7.0.8,rack:>= 2.2.4&< 3|checksum:aa,ruby:>= 2.7.0\n" +
		"7.1.2 activesupport:= 7.1.2,rack:>= 2.2.4|checksum:bb,ruby:>= 2.7.0\n",
	"activesupport": "---\n7.0.8 |checksum:cc\n7.1.2 |checksum:dd\n",
	"rack":          "---\n2.2.8 |checksum:ee\n3.0.8 |checksum:ff\n3.1.0.beta1 |checksum:gg\n",
	"nokogiri": "---\n" +
		"1.16.0 racc:~> 1.4|checksum:hh,ruby:>= 3.0\n" +
		"1.16.0-x86_64-linux racc:~> 1.4|checksum:ii,ruby:>= 3.0&< 3.4.dev\n" +
		"1.16.0-arm64-darwin racc:~> 1.4|checksum:jj\n" +
		"nonsense-line\n",
	"racc": "---\n1.7.3 |checksum:kk\n",
}

func newCompactRegistry(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/info/{gem}", func(w http.ResponseWriter, req *http.Request) {
		body, ok := compactIndex[chi.URLParam(req, "gem")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func registrySource(t *testing.T, url string, backend cache.Cache) (*RegistrySource, *rubygems.Client) {
	t.Helper()
	client := rubygems.NewClient(backend, time.Hour, url)
	client.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})
	return NewRegistrySource(client, false, log.New(io.Discard)), client
}

func TestRegistrySourceFetch(t *testing.T) {
	srv := newCompactRegistry(t)
	src, _ := registrySource(t, srv.URL, nil)

	cands, err := src.Fetch(context.Background(), "nokogiri")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3 (unreadable line skipped)", len(cands))
	}
	linux := cands[1]
	if linux.Platform != "x86_64-linux" || len(linux.Dependencies) != 1 || linux.Dependencies[0].Name != "racc" {
		t.Errorf("linux candidate = %+v", linux)
	}
	if got := linux.RequiredRuby.String(); got != ">= 3.0, < 3.4.dev" {
		t.Errorf("RequiredRuby = %q", got)
	}

	if _, err := src.Fetch(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveAgainstRegistry(t *testing.T) {
	srv := newCompactRegistry(t)
	src, _ := registrySource(t, srv.URL, nil)

	m := manifest("rails", "~> 7.0.0", "nokogiri", "")
	res, err := Resolve(context.Background(), m, src, Options{Platforms: []string{"x86_64-linux"}})
	if err != nil {
		t.Fatal(err)
	}
	wantVersions(t, res, map[string]string{
		"rails":         "7.0.8",
		"activesupport": "7.0.8",
		"rack":          "2.2.8",
		"nokogiri":      "1.16.0",
		"racc":          "1.7.3",
	})
	checkSatisfied(t, res)
	for _, g := range res.Gems {
		if g.Name == "nokogiri" && g.Platform != "x86_64-linux" {
			t.Errorf("nokogiri platform = %q, want x86_64-linux", g.Platform)
		}
	}
}

func TestResolveLocalOnly(t *testing.T) {
	srv := newCompactRegistry(t)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := manifest("rails", "", "rack", "< 3")
	opts := Options{Platforms: []string{"x86_64-linux"}}

	src, client := registrySource(t, srv.URL, backend)
	client.SetOffline(true)
	if _, err := Resolve(context.Background(), m, src, opts); !gemerrors.Is(err, gemerrors.ErrCodeOffline) {
		t.Fatalf("offline resolve with empty cache: err = %v, want OFFLINE", err)
	}

	client.SetOffline(false)
	online, err := Resolve(context.Background(), m, src, opts)
	if err != nil {
		t.Fatal(err)
	}

	// With the registry gone, the cache alone must reproduce the result.
	srv.Close()
	client.SetOffline(true)
	offline, err := Resolve(context.Background(), m, src, opts)
	if err != nil {
		t.Fatalf("offline resolve from cache: %v", err)
	}
	wantVersions(t, offline, versionsOf(online))
}
