// Package lockio reads and writes resolution results as JSON lock files.
//
// # Overview
//
// A lock file records the exact gem builds a resolution chose so later runs
// can reuse them: relocks prefer the locked versions, selective updates pin
// the declared gems that are not being updated, and the browse and graph
// commands render a lock without touching the registry.
//
// # JSON Format
//
//	{
//	  "format": 1,
//	  "platforms": ["x86_64-linux"],
//	  "gems": [
//	    {"name": "rack", "version": "3.0.8"},
//	    {"name": "nokogiri", "version": "1.16.0", "platform": "x86_64-linux",
//	     "dependencies": [{"name": "racc", "requirement": "~> 1.4"}]}
//	  ]
//	}
//
// Gems appear sorted by name and then platform. A gem without a platform is
// the platform-independent build.
//
// # Import
//
// Use [ImportJSON] to read a lock from a file path, or [ReadJSON] to read
// from any io.Reader. Both reject unknown format numbers, malformed
// versions and duplicate (name, platform) entries.
//
// # Export
//
// Use [ExportJSON] to write a lock to a file, or [WriteJSON] to write to any
// io.Writer. Export sorts the gems so equal resolutions produce identical
// files.
package lockio
