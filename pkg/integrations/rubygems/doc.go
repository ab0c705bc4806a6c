// Package rubygems provides an HTTP client for RubyGems registries.
//
// # Overview
//
// Resolution metadata comes from the compact index (GET /info/<gem>), a
// plain text file with one line per published build:
//
//	---
//	1.0.0 |checksum:1a2b
//	2.0.0 rack:>= 2.2.4&< 4|checksum:3c4d,ruby:>= 2.7
//	2.0.0-x86_64-linux rack:>= 2.2.4&< 4|checksum:5e6f,ruby:>= 2.7
//
// [Client.FetchInfo] fetches and parses it into [VersionInfo] records.
// [Client.FetchGem] reads the JSON API summary used by "gemlock info".
//
// # Usage
//
//	client := rubygems.NewClient(cache, 24*time.Hour, "")
//	infos, err := client.FetchInfo(ctx, "rails", false)
//
// # Caching
//
// Responses are cached through the configured [cache.Cache] for the TTL
// given at construction. Pass refresh=true to bypass the cache. In
// local-only mode ([integrations.Client.SetOffline]) a cache miss fails
// with [integrations.ErrOffline].
//
// [cache.Cache]: github.com/matzehuels/gemlock/pkg/cache.Cache
package rubygems
