package rubygems

import (
	"bufio"
	"bytes"
	"strings"
)

// Dependency is one runtime dependency of a gem version as published in
// the compact index. Requirement uses ", " between constraints.
type Dependency struct {
	Name        string `json:"name"`
	Requirement string `json:"requirement"`
}

// VersionInfo is one line of a compact index info file: a single build of
// a gem version for one platform.
type VersionInfo struct {
	Version          string       `json:"version"`
	Platform         string       `json:"platform,omitempty"` // empty for pure-Ruby builds
	Dependencies     []Dependency `json:"dependencies,omitempty"`
	Checksum         string       `json:"checksum,omitempty"`
	RequiredRuby     string       `json:"required_ruby,omitempty"`
	RequiredRubygems string       `json:"required_rubygems,omitempty"`
}

// ParseInfo parses the body of GET /info/<gem>.
//
// Each line has the form
//
//	VERSION[-PLATFORM] DEP:REQ&REQ,DEP2:REQ|checksum:SHA,ruby:REQ,rubygems:REQ
//
// The "---" header and blank lines are skipped, as are lines without a
// version. Lines appear oldest first; callers order versions themselves.
func ParseInfo(data []byte) []VersionInfo {
	var out []VersionInfo
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == "---" {
			continue
		}
		if info, ok := parseInfoLine(line); ok {
			out = append(out, info)
		}
	}
	return out
}

func parseInfoLine(line string) (VersionInfo, bool) {
	head, rest, _ := strings.Cut(line, " ")
	if head == "" {
		return VersionInfo{}, false
	}

	var info VersionInfo
	info.Version, info.Platform, _ = strings.Cut(head, "-")
	if info.Version == "" {
		return VersionInfo{}, false
	}

	deps, reqs, _ := strings.Cut(rest, "|")
	for _, d := range splitNonEmpty(deps, ",") {
		name, req, _ := strings.Cut(d, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		info.Dependencies = append(info.Dependencies, Dependency{
			Name:        name,
			Requirement: joinConstraints(req),
		})
	}

	for _, r := range splitNonEmpty(reqs, ",") {
		key, val, _ := strings.Cut(r, ":")
		switch strings.TrimSpace(key) {
		case "checksum":
			info.Checksum = strings.TrimSpace(val)
		case "ruby":
			info.RequiredRuby = joinConstraints(val)
		case "rubygems":
			info.RequiredRubygems = joinConstraints(val)
		}
	}
	return info, true
}

// joinConstraints turns "&"-separated constraints into RubyGems' ", " form.
func joinConstraints(s string) string {
	return strings.Join(splitNonEmpty(s, "&"), ", ")
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
