package rubygems

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/gemlock/pkg/buildinfo"
	"github.com/matzehuels/gemlock/pkg/cache"
	"github.com/matzehuels/gemlock/pkg/integrations"
)

// DefaultURL is the public RubyGems registry.
const DefaultURL = "https://rubygems.org"

// GemInfo holds the JSON API summary of a Ruby gem, shown by "gemlock info".
//
// Dependencies include only runtime dependencies; development dependencies are excluded.
type GemInfo struct {
	Name          string       `json:"name"`
	Version       string       `json:"version"`
	Platform      string       `json:"platform,omitempty"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
	SourceCodeURI string       `json:"source_code_uri,omitempty"`
	HomepageURI   string       `json:"homepage_uri,omitempty"`
	Description   string       `json:"description,omitempty"`
	License       string       `json:"license,omitempty"`
	Downloads     int          `json:"downloads"`
	Authors       string       `json:"authors,omitempty"`
}

// Client provides access to a RubyGems registry: the compact index for
// resolution metadata and the JSON API for gem summaries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	host    string
	keyer   cache.Keyer
}

// NewClient creates a client for the registry at baseURL (DefaultURL when
// empty), caching responses in backend for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	headers := map[string]string{"User-Agent": buildinfo.UserAgent()}
	return &Client{
		Client:  integrations.NewClient(backend, "rubygems:", cacheTTL, headers),
		baseURL: baseURL,
		host:    integrations.RegistryHost(baseURL),
		keyer:   cache.NewDefaultKeyer(),
	}
}

// SetKeyer replaces the cache key layout, e.g. with a [cache.ScopedKeyer].
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// URL returns the registry root.
func (c *Client) URL() string { return c.baseURL }

// FetchInfo returns every published build of gem from the compact index,
// in registry order (oldest first).
//
// If refresh is true, the cache is bypassed. Errors:
//   - [integrations.ErrNotFound] if the registry has no such gem
//   - [integrations.ErrOffline] in local-only mode when the gem is not cached
//   - [integrations.ErrNetwork] for HTTP failures
func (c *Client) FetchInfo(ctx context.Context, gem string, refresh bool) ([]VersionInfo, error) {
	gem = integrations.NormalizeGemName(gem)
	key := c.keyer.InfoKey(c.host, gem)

	data, err := c.CachedBytes(ctx, key, refresh, func() ([]byte, error) {
		body, err := c.GetText(ctx, fmt.Sprintf("%s/info/%s", c.baseURL, integrations.URLEncode(gem)))
		if err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return nil, fmt.Errorf("%w: gem %s", err, gem)
			}
			return nil, err
		}
		return []byte(body), nil
	})
	if err != nil {
		return nil, err
	}
	return ParseInfo(data), nil
}

// FetchGem retrieves the JSON API summary of a gem's latest version.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
// The returned GemInfo pointer is never nil if err is nil.
func (c *Client) FetchGem(ctx context.Context, gem string, refresh bool) (*GemInfo, error) {
	gem = integrations.NormalizeGemName(gem)
	key := c.keyer.GemKey(c.host, gem)

	var info GemInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetchGem(ctx, gem, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetchGem(ctx context.Context, gem string, info *GemInfo) error {
	var data gemResponse
	url := fmt.Sprintf("%s/api/v1/gems/%s.json", c.baseURL, integrations.URLEncode(gem))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gem %s", err, gem)
		}
		return err
	}

	*info = GemInfo{
		Name:          data.Name,
		Version:       data.Version,
		Platform:      data.Platform,
		Description:   data.Info,
		License:       strings.Join(data.Licenses, ", "),
		SourceCodeURI: data.SourceCodeURI,
		HomepageURI:   data.HomepageURI,
		Downloads:     data.Downloads,
		Authors:       data.Authors,
		Dependencies:  runtimeDeps(data.Dependencies.Runtime),
	}
	return nil
}

func runtimeDeps(deps []dependency) []Dependency {
	seen := make(map[string]bool)
	var result []Dependency
	for _, d := range deps {
		name := strings.TrimSpace(d.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, Dependency{Name: name, Requirement: d.Requirements})
	}
	return result
}

type gemResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Platform      string   `json:"platform"`
	Info          string   `json:"info"`
	Licenses      []string `json:"licenses"`
	SourceCodeURI string   `json:"source_code_uri"`
	HomepageURI   string   `json:"homepage_uri"`
	Downloads     int      `json:"downloads"`
	Authors       string   `json:"authors"`
	Dependencies  struct {
		Runtime []dependency `json:"runtime"`
	} `json:"dependencies"`
}

type dependency struct {
	Name         string `json:"name"`
	Requirements string `json:"requirements"`
}
