package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/olehluchkiv/topicmap/internal/dataservice"
	"github.com/olehluchkiv/topicmap/internal/metrics"
	"github.com/olehluchkiv/topicmap/internal/mindmap"
	"github.com/olehluchkiv/topicmap/internal/render"
	"github.com/olehluchkiv/topicmap/internal/view"
)

// DataService is the subset of the data service the HTTP surface reads
// directly: the topic picker, item details and image proxying.
type DataService interface {
	Topics(ctx context.Context) ([]string, error)
	Title(ctx context.Context, id string) (string, error)
	Image(ctx context.Context, id string) (dataservice.Image, error)
}

// Views publishes the current view and accepts selection changes.
type Views interface {
	Select(ctx context.Context, topics []mindmap.Topic) (*view.View, error)
	Current() *view.View
	Lookup(id string) (*view.View, bool)
}

// Options controls the HTTP server.
type Options struct {
	Host        string
	Port        int
	OpenBrowser bool
	SVG         render.SVGOptions
}

// Server serves the interactive map.
type Server struct {
	data    DataService
	views   Views
	metrics *metrics.Registry
	opts    Options
	logger  *slog.Logger
	tmpl    *template.Template
	router  chi.Router
}

// New builds the server and its routes.
func New(data DataService, views Views, reg *metrics.Registry, opts Options, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML template: %w", err)
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	s := &Server{
		data:    data,
		views:   views,
		metrics: reg,
		opts:    opts,
		logger:  logger.With("component", "server"),
		tmpl:    tmpl,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware(s.metrics))
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Post("/selection", s.handleSelection)
	r.Get("/map.svg", s.handleMapSVG)
	r.Get("/layout.json", s.handleLayout)
	r.Get("/views/{viewID}/nodes/{index}", s.handleNodeClick)
	r.Get("/views/{viewID}/nodes/{index}/tooltip", s.handleNodeTooltip)
	r.Get("/items/{sourceID}", s.handleItem)
	r.Get("/images/{id}", s.handleImage)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address and blocks until the context is
// cancelled or the server fails.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	host := s.opts.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	url := fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)))
	s.logger.Info("starting HTTP server", "addr", url)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	if s.opts.OpenBrowser {
		openInBrowser(url, s.logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
