// Package server serves the YINI homepage over HTTP: site pages, the
// playground page and its WebSocket session, the one-shot parse API, the
// theme toggle, health and metrics.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/config"
	"github.com/yini-lang/yini-homepage/logger"
	"github.com/yini-lang/yini-homepage/site"
	"github.com/yini-lang/yini-homepage/store"
)

const (
	// SessionCookie holds the visitor id.
	SessionCookie = "yini_session"
	// ThemeCookie holds the theme preference.
	ThemeCookie = "theme"
	// themeHint is the client hint carrying the preferred colour scheme.
	themeHint = "Sec-CH-Prefers-Color-Scheme"

	maxParseBody = 1 << 20
)

// Server is the HTTP front-end.  The site it serves can be swapped while
// running.
type Server struct {
	cfg     *config.Config
	site    atomic.Pointer[site.Site]
	db      *store.DB
	parser  homepage.Parser
	quiet   time.Duration
	reload  time.Duration
	metrics *Metrics

	router   *mux.Router
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists visitor drafts and preferences in db.
func WithStore(db *store.DB) Option { return func(s *Server) { s.db = db } }

// WithParser replaces the bundled YINI parser.
func WithParser(p homepage.Parser) Option { return func(s *Server) { s.parser = p } }

// WithReloadDelay sets how long WatchContent batches file changes.
func WithReloadDelay(d time.Duration) Option { return func(s *Server) { s.reload = d } }

// New returns a Server for st configured by cfg.
func New(cfg *config.Config, st *site.Site, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		parser:  homepage.YINI,
		quiet:   homepage.DebounceQuiet,
		reload:  reloadDelay,
		metrics: NewMetrics(),
	}
	if cfg.Debounce > 0 {
		s.quiet = cfg.Debounce
	}
	for _, o := range opts {
		o(s)
	}
	s.site.Store(st)
	if s.db != nil {
		s.metrics.watchVisitors(s.db)
	}
	s.routes()
	return s
}

// Site returns the site being served.
func (s *Server) Site() *site.Site { return s.site.Load() }

// SetSite replaces the site being served.
func (s *Server) SetSite(st *site.Site) { s.site.Store(st) }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.withSession, s.withMetrics)

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.cfg.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}
	r.HandleFunc("/api/parse", s.handleParse).Methods("POST")
	r.HandleFunc("/api/playground/ws", s.handleWS).Methods("GET")
	r.HandleFunc("/theme", s.handleTheme).Methods("POST")
	r.HandleFunc("/playground", s.handlePlayground).Methods("GET", "HEAD")
	r.PathPrefix("/").HandlerFunc(s.handlePage).Methods("GET", "HEAD")
	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.L(ctx).Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type visitorKey struct{}

// visitor returns the session id set by withSession.
func visitor(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}

// withSession makes sure every visitor carries a session cookie and scopes
// the request logger to it.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), visitorKey{}, id)
		ctx = logger.NewContext(ctx, logger.L(ctx).With(
			zap.String("session", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// storage returns the visitor's persisted storage, or nil without a store.
func (s *Server) storage(ctx context.Context) homepage.Storage {
	if s.db == nil {
		return nil
	}
	return s.db.Bucket(visitor(ctx))
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for the WebSocket upgrade.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		rw.statusCode = http.StatusSwitchingProtocols
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("hijack not supported")
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.metrics.Requests.WithLabelValues(route, fmt.Sprint(rw.statusCode)).Inc()
	})
}

// respondWithJSON sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
