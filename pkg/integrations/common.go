package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned when the registry answers 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrOffline is returned by an offline client on a cache miss.
	ErrOffline = errors.New("offline: metadata not in local cache")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizeGemName trims surrounding whitespace. Gem names are case
// sensitive on RubyGems.org ("RedCloth"), so case is preserved.
func NormalizeGemName(name string) string {
	return strings.TrimSpace(name)
}

// RegistryHost returns the host of a registry URL, used to namespace
// cache keys per registry.
func RegistryHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// URLEncode percent-encodes a path segment.
func URLEncode(s string) string { return url.PathEscape(s) }
