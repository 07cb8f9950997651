package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"coursegrid/internal/config"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/metrics"
	"coursegrid/internal/schedule"
)

// maxUploadBytes bounds an import request body.
const maxUploadBytes = 8 << 20

// previewTTL is how long a captured preview is reused.
const previewTTL = time.Minute

// CaptureFunc renders the grid page to PNG.
type CaptureFunc func(ctx context.Context, week int) ([]byte, error)

// Server provides the HTTP API and the printable grid page.
type Server struct {
	cfg     *config.Config
	svc     *schedule.Service
	metrics *metrics.Metrics
	capture CaptureFunc
	now     func() time.Time
	mux     *http.ServeMux

	previewMu sync.Mutex
	preview   *previewCache
}

type previewCache struct {
	week      int
	png       []byte
	updatedAt time.Time
}

// Options carries optional collaborators.
type Options struct {
	Metrics *metrics.Metrics
	// Capture enables /preview.png; nil answers 503.
	Capture CaptureFunc
	Now     func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc *schedule.Service, opts Options) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		metrics: opts.Metrics,
		capture: opts.Capture,
		now:     opts.Now,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)

	s.handle("GET /api/courses", s.handleCourses)
	s.handle("POST /api/import", s.handleImport)
	s.handle("GET /api/export", s.handleExport)
	s.handle("GET /api/grid", s.handleGrid)
	s.handle("GET /api/agenda", s.handleAgenda)
	s.handle("GET /api/overlaps", s.handleOverlaps)
	s.handle("GET /api/occurrences", s.handleOccurrences)
	s.handle("GET /api/settings", s.handleGetSettings)
	s.handle("PUT /api/settings", s.handlePutSettings)

	s.handle("GET /grid", s.handleGridPage)
	s.handle("GET /preview.png", s.handlePreview)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.Handle("GET /{$}", http.RedirectHandler("/grid", http.StatusFound))
}

// handle registers h under pattern and records its latency with the
// pattern as the path label.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	_, path, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveRequest(r.Method, path, rec.status, time.Since(started))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health 는 항상 무인증으로 노출한다.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="coursegrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves a PNG of /grid, captured on demand and reused for
// previewTTL per week.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.capture == nil {
		writeError(w, http.StatusServiceUnavailable, "preview capture is not configured")
		return
	}
	week := parseIntDefault(r.URL.Query().Get("week"), s.svc.Settings().CurrentWeek)

	s.previewMu.Lock()
	defer s.previewMu.Unlock()

	if c := s.preview; c != nil && c.week == week && s.now().Sub(c.updatedAt) < previewTTL {
		writePNG(w, c.png)
		return
	}

	png, err := s.capture(r.Context(), week)
	if err != nil {
		appLog.Error("preview capture failed", err, "week", week)
		writeError(w, http.StatusBadGateway, "preview capture failed")
		return
	}
	s.preview = &previewCache{week: week, png: png, updatedAt: s.now()}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
