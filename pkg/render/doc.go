// Package render draws resolved dependency graphs.
//
// # Overview
//
// A [Graph] is built from the gems of a resolution or lock file: one node
// per gem name (platform builds are folded into the node label) and one
// edge per runtime dependency. The manifest is drawn as an extra root node
// pointing at every gem it declares.
//
// # Usage
//
//	g := render.Build("Gemfile", lock.Gems)
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToPDF] and [ToPNG] convert the SVG with the external rsvg-convert tool
// (from librsvg).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package render
