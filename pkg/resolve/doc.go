// Package resolve finds a set of gem versions that satisfies a manifest.
//
// # Overview
//
// The solver is an implementation of PubGrub. It keeps a partial solution
// of decisions and derived terms, propagates the consequences of known
// incompatibilities, and on a conflict learns a new incompatibility that
// explains it before jumping back to the decision that caused it. When the
// learned incompatibility says the manifest itself cannot be satisfied,
// the derivation is written out as a failure explanation.
//
// # Resolving
//
//	client := rubygems.NewClient(backend, 24*time.Hour, rubygems.DefaultURL)
//	res, err := resolve.Resolve(ctx, manifest, resolve.NewRegistrySource(client, false, logger), resolve.Options{
//	    Platforms: []string{"x86_64-linux", "arm64-darwin"},
//	})
//	var se *resolve.SolveError
//	if errors.As(err, &se) {
//	    fmt.Println(strings.Join(se.Explanation(), "\n"))
//	}
//
// # Metadata
//
// A [Source] returns every build of a gem. [Resolve] wraps it in an
// [Index] that fetches on a bounded pool, ahead of need, and never asks
// twice for the same gem within a run. Fetch failures of gems the manifest
// names are fatal; failures of transitive gems only rule those gems out.
//
// # Policy
//
// [Options] controls which candidates exist for the solver:
//
//   - Platforms: a version is usable only if every platform has a build
//   - Prerelease, PrereleaseGems: prereleases are skipped unless allowed
//   - Overrides: tighten manifest requirements, or restrict transitive gems
//   - RubyVersion: skip builds that need another ruby
//
// and which version is tried first: the newest by default, the one closest
// to Locked with Conservative, or any [Preference]. [UpdateOverrides]
// turns a previous resolution into overrides for selective updates.
package resolve
