package dev

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/inactive/internal/build"
	"github.com/vango-dev/inactive/internal/config"
)

// MetricsPath serves Prometheus metrics when dev.metrics is enabled.
const MetricsPath = "/_inactive/metrics"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Build is passed to the builder. Inject is set by the server when hot
	// reload is enabled.
	Build build.Options

	// Logger receives server logs.
	Logger *slog.Logger

	// Tracer is used when dev.tracing is enabled. Defaults to the global
	// otel tracer provider.
	Tracer trace.Tracer

	// OnBuildStart is called when a build starts.
	OnBuildStart func()

	// OnBuildComplete is called when a build completes.
	OnBuildComplete func(result BuildResult)

	// OnReload is called when browsers are reloaded.
	OnReload func(clients int)

	// OnListen is called with the server URL once it accepts connections.
	OnListen func(url string)
}

// Server is the development server.
type Server struct {
	config   *config.Config
	options  ServerOptions
	logger   *slog.Logger
	compiler *Compiler
	watcher  *Watcher
	reload   *ReloadServer
	metrics  *Metrics
	tracer   trace.Tracer
	router   chi.Router
	changeCh chan []Change

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	s := &Server{
		config:   cfg,
		options:  options,
		logger:   options.Logger,
		changeCh: make(chan []Change, 16),
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "dev")
	}

	if cfg.Dev.Metrics {
		s.metrics = NewMetrics()
	}
	if cfg.Dev.Tracing {
		s.tracer = options.Tracer
		if s.tracer == nil {
			s.tracer = otel.Tracer("github.com/vango-dev/inactive/internal/dev")
		}
		options.Build.Tracer = s.tracer
	}
	if cfg.Dev.HotReload {
		s.reload = NewReloadServer(s.logger.With("component", "reload"))
		s.reload.OnClientsChanged = s.metrics.SetReloadClients
		options.Build.Inject = ReloadScriptTag
	}

	s.compiler = NewCompiler(cfg, CompilerConfig{
		Build:   options.Build,
		Metrics: s.metrics,
		Logger:  s.logger.With("component", "compiler"),
	})

	s.watcher = NewWatcher(WatcherConfig{
		Paths:     CollectWatchPaths(cfg),
		StaticDir: cfg.StaticPath(),
		Ignore:    CollectIgnore(cfg),
	})
	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
		}
	})

	s.router = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if s.tracer != nil {
		r.Use(Trace(s.tracer))
	}

	if s.reload != nil {
		r.Get(ReloadPath, s.reload.HandleWebSocket)
		r.Get(ReloadScriptPath, s.reload.ServeScript)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, MetricsPath, s.metrics.Handler())
	}
	r.Get("/*", s.serveOutput)
	r.Head("/*", s.serveOutput)
	return r
}

// Start builds once, then serves and rebuilds on change until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.rebuild(ctx)

	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	ln, err := net.Listen("tcp", s.config.DevAddress())
	if err != nil {
		s.Stop()
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	url := "http://" + ln.Addr().String()
	s.logger.Info("server running", "url", url)
	if s.options.OnListen != nil {
		s.options.OnListen(url)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	if s.reload != nil {
		s.reload.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes file change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			for draining := true; draining; {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			s.HandleChanges(ctx, changes)
		}
	}
}

// HandleChanges reacts to a batch of file changes. Source and config changes
// rebuild. Static changes are mirrored into the output; stylesheets are
// hot-swapped and anything else reloads the page.
func (s *Server) HandleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	rebuild := false
	var css []string
	otherStatic := false

	for _, change := range changes {
		s.logger.Debug("changed", "path", change.Path, "type", change.Type, "removed", change.Removed)
		switch change.Type {
		case ChangeConfig:
			s.logger.Warn("configuration changed; restart the dev server to apply it", "path", change.Path)
			rebuild = true
		case ChangeSource:
			rebuild = true
		case ChangeStatic:
			rel, err := filepath.Rel(s.config.StaticPath(), change.Path)
			if err != nil {
				continue
			}
			if rel == build.IndexName {
				rebuild = true
				continue
			}
			if err := s.compiler.SyncStatic(rel); err != nil {
				s.logger.Error("static sync failed", "path", rel, "error", err)
				continue
			}
			if strings.EqualFold(filepath.Ext(rel), ".css") && !change.Removed {
				css = append(css, "/"+filepath.ToSlash(rel))
			} else {
				otherStatic = true
			}
		}
	}

	switch {
	case rebuild:
		if s.rebuild(ctx).Success {
			s.notifyReload()
		}
	case otherStatic:
		s.notifyReload()
	case len(css) > 0 && s.reload != nil:
		for _, file := range css {
			s.reload.NotifyCSS(file)
		}
		s.logger.Info("stylesheet reloaded", "files", css)
	}
}

func (s *Server) rebuild(ctx context.Context) BuildResult {
	if s.options.OnBuildStart != nil {
		s.options.OnBuildStart()
	}

	s.logger.Info("building")
	result := s.compiler.Build(ctx)

	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result)
	}

	if !result.Success {
		if s.reload != nil {
			s.reload.NotifyError(result.Output)
		}
		return result
	}

	s.logger.Info("built", "duration", result.Duration.Round(time.Millisecond))
	if s.reload != nil {
		s.reload.ClearError()
	}
	return result
}

func (s *Server) notifyReload() {
	if s.reload == nil {
		s.logger.Info("rebuild complete (hot reload disabled)")
		return
	}

	s.reload.NotifyReload()
	n := s.reload.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(n)
	}
	s.logger.Info("reloaded browsers", "clients", n)
}

// serveOutput serves the build output. Extensionless paths that do not
// exist fall back to index.html so client-side routes survive a refresh.
func (s *Server) serveOutput(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	dir := s.config.OutputPath()
	name := path.Clean("/" + chi.URLParam(r, "*"))
	full := filepath.Join(dir, filepath.FromSlash(name))

	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		full = filepath.Join(full, build.IndexName)
	case err != nil && path.Ext(name) == "":
		full = filepath.Join(dir, build.IndexName)
	}

	if _, err := os.Stat(full); err != nil {
		if filepath.Base(full) == build.IndexName {
			s.servePending(w)
			return
		}
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}

// servePending is shown while no successful build exists.
func (s *Server) servePending(w http.ResponseWriter) {
	message := "The application has not been built yet."
	if last := s.compiler.Last(); last != nil && !last.Success {
		message = last.Output
	}

	script := ""
	if s.reload != nil {
		script = ReloadScriptTag
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>inactive dev server</title>%s</head>
<body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">
<h1 style="color: #ff5555;">Build not available</h1>
<pre style="white-space: pre-wrap;">%s</pre>
<p style="color: #888;">The page reloads automatically after the next successful build.</p>
</body>
</html>`, script, html.EscapeString(message))
}
