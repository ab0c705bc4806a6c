// Package platform identifies RubyGems platforms and decides which gem
// builds are installable on which target platform.
package platform

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Ruby is the platform of pure-Ruby gems, installable everywhere.
const Ruby = "ruby"

// Specificity ranks how well a gem's platform fits a target platform.
// Higher is better; None means the gem cannot be installed there.
type Specificity int

const (
	None   Specificity = iota // incompatible
	Pure                      // platform-independent build
	Family                    // same arch and OS, different OS version
	Exact                     // identical platform string
)

func (s Specificity) String() string {
	switch s {
	case Pure:
		return "ruby"
	case Family:
		return "family"
	case Exact:
		return "exact"
	default:
		return "none"
	}
}

// Normalize maps the empty platform to [Ruby].
func Normalize(p string) string {
	if p == "" {
		return Ruby
	}
	return p
}

// IsRuby reports whether p denotes a platform-independent build.
func IsRuby(p string) bool {
	return p == "" || p == Ruby
}

// Match reports how well a build for gemPlatform fits target.
//
// A pure-Ruby build always fits. Otherwise the strings must be equal, or
// share the same architecture and OS so that a build for "arm64-darwin-23"
// fits a target of "arm64-darwin". A musl build only fits musl targets.
func Match(gemPlatform, target string) Specificity {
	if IsRuby(gemPlatform) {
		return Pure
	}
	if gemPlatform == target {
		return Exact
	}

	gp := strings.Split(gemPlatform, "-")
	tp := strings.Split(target, "-")
	if len(gp) < 2 || len(tp) < 2 {
		return None
	}
	if gp[0] != tp[0] || gp[1] != tp[1] {
		return None
	}
	if libc(gp) != libc(tp) {
		return None
	}
	return Family
}

func libc(parts []string) string {
	if len(parts) > 2 && (parts[2] == "musl" || parts[2] == "gnu") {
		return parts[2]
	}
	return "gnu"
}

var (
	detectOnce sync.Once
	detected   string
)

// Detect returns the platform of the running machine. It asks the local
// ruby interpreter first and falls back to a mapping of the Go runtime's
// GOARCH and GOOS. The result is computed once per process.
func Detect() string {
	detectOnce.Do(func() {
		if p := detectViaRuby(); p != "" {
			detected = p
			return
		}
		detected = FromRuntime(runtime.GOOS, runtime.GOARCH)
	})
	return detected
}

func detectViaRuby() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ruby", "-e", "require 'rbconfig'; puts RbConfig::CONFIG['arch']").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// FromRuntime converts a Go GOOS/GOARCH pair into the platform string
// RubyGems uses for the same machine.
func FromRuntime(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "x86"
	case "arm64":
		if goos == "linux" {
			arch = "aarch64"
		}
	}

	switch goos {
	case "darwin":
		return arch + "-darwin"
	case "windows":
		if goarch == "amd64" {
			return "x64-mingw-ucrt"
		}
		return arch + "-mingw32"
	default:
		return arch + "-" + goos
	}
}
