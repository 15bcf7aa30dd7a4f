// Package web serves the query engine over HTTP and WebSocket for the
// browser extension and other local clients.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/asheshgoplani/tabdeck/internal/engine"
	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/snapshot"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

var webLog = logging.ForComponent(logging.CompWeb)

// OptionsProvider builds per-request search options, e.g. loading the
// current vault items.
type OptionsProvider func(ctx context.Context, scope tabs.Scope) (engine.Options, error)

// Config defines runtime options for the web server.
type Config struct {
	ListenAddr   string
	ReadOnly     bool
	Token        string
	Engine       *engine.Engine
	Options      OptionsProvider
	DefaultScope tabs.Scope

	// SnapshotPath enables live result pushes on /ws/search when set.
	SnapshotPath string
	WatchRate    float64
}

// Server wraps an HTTP server for the query API.
type Server struct {
	cfg        Config
	httpServer *http.Server
	baseCtx    context.Context
	cancelBase context.CancelFunc
	watcher    *snapshot.Watcher

	subscribersMu sync.Mutex
	subscribers   map[chan struct{}]struct{}
}

// NewServer creates a new web server with its routes and middleware.
func NewServer(cfg Config) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8787"
	}
	if cfg.DefaultScope == "" {
		cfg.DefaultScope = tabs.ScopeCurrentWindow
	}
	if cfg.Options == nil {
		cfg.Options = func(_ context.Context, scope tabs.Scope) (engine.Options, error) {
			return engine.Options{Scope: scope}, nil
		}
	}

	s := &Server{
		cfg:         cfg,
		subscribers: make(map[chan struct{}]struct{}),
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		resp := map[string]any{
			"ok":       true,
			"readOnly": cfg.ReadOnly,
			"time":     time.Now().UTC().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/suggest", s.handleSuggest)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/ws/search", s.handleSearchWS)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           withRecover(mux),
		BaseContext:       func(_ net.Listener) context.Context { return s.baseCtx },
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the configured HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// StartWatching pushes fresh results to WebSocket clients whenever the
// snapshot file changes. It is a no-op without a SnapshotPath.
func (s *Server) StartWatching() error {
	if s.cfg.SnapshotPath == "" || s.watcher != nil {
		return nil
	}
	w, err := snapshot.NewWatcher(s.cfg.SnapshotPath, s.cfg.WatchRate, s.NotifyChanged)
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Start starts the HTTP server and blocks until shutdown or error.
// Returns nil on graceful shutdown.
func (s *Server) Start() error {
	if err := s.StartWatching(); err != nil {
		webLog.Warn("snapshot_watch_disabled", slog.String("error", err.Error()))
	}
	webLog.Info("server_started", slog.String("addr", s.cfg.ListenAddr), slog.Bool("read_only", s.cfg.ReadOnly))

	err := s.httpServer.ListenAndServe()
	s.stopWatching()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) stopWatching() {
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	// Long-lived WebSocket handlers watch the base context.
	s.cancelBase()
	s.stopWatching()

	err := s.httpServer.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if closeErr := s.httpServer.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown timed out and force close failed: %w", closeErr)
		}
		return nil
	}
	return err
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				webLog.Error("panic",
					slog.String("recover", fmt.Sprintf("%v", rec)),
					slog.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) String() string {
	return fmt.Sprintf("web-server(addr=%s, readOnly=%t)", s.cfg.ListenAddr, s.cfg.ReadOnly)
}

func (s *Server) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.subscribersMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subscribersMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan struct{}) {
	s.subscribersMu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.subscribersMu.Unlock()
}

// NotifyChanged tells every live search socket to re-run its query.
func (s *Server) NotifyChanged() {
	s.subscribersMu.Lock()
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subscribersMu.Unlock()
}
