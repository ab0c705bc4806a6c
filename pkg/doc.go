// Package pkg provides the core libraries for gemlock, a dependency
// resolver for Ruby gems.
//
// # Overview
//
// gemlock turns a manifest of declared gems into an exact, reproducible set
// of versions and platform builds, or into a readable explanation of why no
// such set exists. The pkg directory is organized into four areas:
//
//  1. Domain logic: [gemver], [platform], [resolve]
//  2. Input and output: [manifest], [lockio], [render]
//  3. Infrastructure: [cache], [errors], [observability], [buildinfo]
//  4. External integrations: [integrations] and its rubygems client
//
// # Architecture
//
// The typical data flow through gemlock:
//
//	Gemfile.toml
//	     ↓
//	[manifest] package (declared gems, platforms, ruby version)
//	     ↓
//	[resolve] package (PubGrub solver over registry metadata)
//	     ↓
//	[lockio] package (gemlock.json)
//	     ↓
//	[render] package (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gemlock/pkg/cache"
//	    "github.com/matzehuels/gemlock/pkg/integrations/rubygems"
//	    "github.com/matzehuels/gemlock/pkg/manifest"
//	    "github.com/matzehuels/gemlock/pkg/resolve"
//	)
//
//	mf, _ := manifest.Load("Gemfile.toml")
//	m, _ := mf.Manifest()
//
//	client := rubygems.NewClient(cache.NewNullCache(), 24*time.Hour, "")
//	src := resolve.NewRegistrySource(client, false, nil)
//
//	res, err := resolve.Resolve(context.Background(), m, src, resolve.Options{
//	    Platforms: []string{"x86_64-linux", "arm64-darwin"},
//	})
//	var se *resolve.SolveError
//	if errors.As(err, &se) {
//	    fmt.Println(strings.Join(se.Explanation(), "\n"))
//	}
//
// # Main Packages
//
// [gemver] - RubyGems version and requirement semantics: segment-wise
// comparison, prereleases, the pessimistic operator and version sets.
//
// [platform] - Platform strings and the rules for which build installs on
// which target.
//
// [resolve] - The solver: terms, incompatibilities, unit propagation,
// conflict resolution and failure explanations. Metadata comes from a
// [resolve.Source] and is fetched concurrently through an index.
//
// [cache] - File, Redis and MongoDB caches for registry metadata and
// finished resolutions.
//
// [integrations] - The shared HTTP client (cache, retry, offline mode) and
// the RubyGems compact index and JSON API client.
//
// # Testing
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/resolve/...         # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// [gemver]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/gemver
// [platform]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/platform
// [resolve]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/resolve
// [manifest]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/manifest
// [lockio]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/lockio
// [render]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/buildinfo
// [integrations]: https://pkg.go.dev/github.com/matzehuels/gemlock/pkg/integrations
package pkg
