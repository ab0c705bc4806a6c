// Package integrations provides the HTTP plumbing shared by registry clients.
//
// # Overview
//
// gemlock talks to one kind of registry, a RubyGems server, through the
// [rubygems] subpackage. This package holds what is not RubyGems specific:
// the cached, retrying [Client] and the sentinel errors callers branch on.
//
// # Client Pattern
//
//	c := integrations.NewClient(cache, "rubygems:", 24*time.Hour, nil)
//	data, err := c.CachedBytes(ctx, key, false, func() ([]byte, error) {
//	    body, err := c.GetText(ctx, url)
//	    return []byte(body), err
//	})
//
// Clients handle:
//   - HTTP requests with retry on 5xx, 429 and transport errors
//   - Response caching through any [cache.Cache] backend
//   - Local-only mode ([Client.SetOffline]) that never touches the network
//
// # Errors
//
//   - [ErrNotFound]: the registry answered 404
//   - [ErrNetwork]: transport failure or unexpected status
//   - [ErrRateLimited]: the registry answered 429 after retries
//   - [ErrOffline]: local-only mode and the entry is not cached
//
// [rubygems]: github.com/matzehuels/gemlock/pkg/integrations/rubygems
// [cache.Cache]: github.com/matzehuels/gemlock/pkg/cache.Cache
package integrations
