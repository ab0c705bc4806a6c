package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/gemlock/pkg/buildinfo"
	"github.com/matzehuels/gemlock/pkg/cache"
	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/gemver"
	"github.com/matzehuels/gemlock/pkg/manifest"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Manifest     resolve.Manifest  `json:"manifest"`
	Platforms    []string          `json:"platforms,omitempty"`
	Prerelease   bool              `json:"prerelease,omitempty"`
	Ruby         string            `json:"ruby,omitempty"`
	Locked       map[string]string `json:"locked,omitempty"`
	Conservative bool              `json:"conservative,omitempty"`
}

// ResolveResponse is the success body of POST /v1/resolve.
type ResolveResponse struct {
	resolve.Result
	Cached bool `json:"cached"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Explanation []string `json:"explanation,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
}

// VersionsResponse is the body of GET /v1/gems/{name}/versions.
type VersionsResponse struct {
	Name     string        `json:"name"`
	Versions []VersionInfo `json:"versions"`
}

// VersionInfo is one published build.
type VersionInfo struct {
	Version      string `json:"version"`
	Platform     string `json:"platform,omitempty"`
	Prerelease   bool   `json:"prerelease,omitempty"`
	RequiredRuby string `json:"required_ruby,omitempty"`
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Millisecond),
			"id", requestIDFrom(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, gemerrors.Wrap(gemerrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	opts, err := s.options(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := s.cfg.Keyer.ResolutionKey(cache.ResolutionKeyOpts{
		Registry:     s.cfg.Registry,
		Manifest:     manifest.HashManifest(req.Manifest),
		Platforms:    opts.Platforms,
		Prerelease:   req.Prerelease,
		RubyVersion:  req.Ruby,
		Conservative: req.Conservative,
		Locked:       req.Locked,
	})
	if data, ok, err := s.cfg.Cache.Get(r.Context(), key); err == nil && ok {
		var res resolve.Result
		if err := json.Unmarshal(data, &res); err == nil {
			writeJSON(w, http.StatusOK, ResolveResponse{Result: res, Cached: true})
			return
		}
	}

	res, err := resolve.Resolve(r.Context(), req.Manifest, s.cfg.Source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data, err := json.Marshal(res); err == nil {
		if err := s.cfg.Cache.Set(r.Context(), key, data, s.cfg.ResultTTL); err != nil {
			s.logger.Warn("cache resolution", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Result: *res})
}

// options merges a request into the server's default resolve options.
func (s *Server) options(req ResolveRequest) (resolve.Options, error) {
	opts := s.cfg.Options
	opts.Logger = s.logger
	if len(req.Platforms) > 0 {
		opts.Platforms = req.Platforms
	}
	opts.Platforms = slices.Clone(opts.WithDefaults().Platforms)
	opts.Prerelease = opts.Prerelease || req.Prerelease
	opts.Conservative = req.Conservative

	if req.Ruby != "" {
		v, err := gemver.Parse(req.Ruby)
		if err != nil {
			return opts, err
		}
		opts.RubyVersion = v
	}
	if len(req.Locked) > 0 {
		opts.Locked = make(map[string]gemver.Version, len(req.Locked))
		for name, raw := range req.Locked {
			v, err := gemver.Parse(raw)
			if err != nil {
				return opts, gemerrors.Wrap(gemerrors.ErrCodeInvalidInput, err, "locked %s", name)
			}
			opts.Locked[name] = v
		}
	}
	return opts, nil
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := gemerrors.ValidateGemName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	cands, err := s.cfg.Source.Fetch(r.Context(), name)
	if err != nil {
		if errors.Is(err, resolve.ErrNotFound) {
			err = gemerrors.Wrap(gemerrors.ErrCodePackageNotFound, err, "gem %s", name)
		}
		s.writeError(w, r, err)
		return
	}

	slices.SortStableFunc(cands, func(a, b resolve.Candidate) int { return b.Version.Compare(a.Version) })
	resp := VersionsResponse{Name: name, Versions: make([]VersionInfo, 0, len(cands))}
	for _, c := range cands {
		vi := VersionInfo{Version: c.Version.String(), Platform: c.Platform, Prerelease: c.Prerelease()}
		if !c.RequiredRuby.IsAny() {
			vi.RequiredRuby = c.RequiredRuby.String()
		}
		resp.Versions = append(resp.Versions, vi)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error:     gemerrors.UserMessage(err),
		Code:      string(gemerrors.GetCode(err)),
		RequestID: requestIDFrom(r.Context()),
	}
	var se *resolve.SolveError
	if errors.As(err, &se) {
		resp.Explanation = se.Explanation()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "id", resp.RequestID)
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch gemerrors.GetCode(err) {
	case gemerrors.ErrCodeInvalidInput, gemerrors.ErrCodeInvalidVersion, gemerrors.ErrCodeInvalidRequirement,
		gemerrors.ErrCodeInvalidPackage, gemerrors.ErrCodeInvalidManifest, gemerrors.ErrCodeInvalidPlatform:
		return http.StatusBadRequest
	case gemerrors.ErrCodePackageNotFound, gemerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case gemerrors.ErrCodeNoSolution:
		return http.StatusUnprocessableEntity
	case gemerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case gemerrors.ErrCodeNetwork, gemerrors.ErrCodeOffline, gemerrors.ErrCodeRateLimited:
		return http.StatusBadGateway
	case gemerrors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
