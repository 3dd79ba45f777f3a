// Package server serves the applicant form and returns generated essays.
package server

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/nikogura/sop-writer/pkg/llm"
	"github.com/nikogura/sop-writer/pkg/logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 30 * time.Second

// Config holds server settings.
type Config struct {
	Addr string
	// RatePerMinute limits generations per client IP. Zero disables limiting.
	RatePerMinute int
	Burst         int
	Logger        *zap.Logger
	// Registry receives the server's metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// GeneratorOptions are applied to every submission's generator.
	GeneratorOptions []essay.Option
}

// Server is the HTTP surface around the essay generator.
type Server struct {
	completer  llm.Completer
	genOpts    []essay.Option
	logger     *zap.Logger
	templates  *template.Template
	metrics    *Metrics
	registry   *prometheus.Registry
	limiter    *ipLimiter
	handler    http.Handler
	httpServer *http.Server
}

// New creates a server that drafts essays with c.
func New(cfg Config, c llm.Completer) (s *Server, err error) {
	if c == nil {
		err = errors.New("a completer is required")
		return s, err
	}

	var tmpl *template.Template
	tmpl, err = template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		err = errors.Wrap(err, "failed to parse templates")
		return s, err
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s = &Server{
		completer: c,
		genOpts:   cfg.GeneratorOptions,
		logger:    logging.Nop(cfg.Logger),
		templates: tmpl,
		metrics:   NewMetrics(reg),
		registry:  reg,
	}

	if cfg.RatePerMinute > 0 {
		s.limiter = newIPLimiter(cfg.RatePerMinute, cfg.Burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.Handle("POST /generate", s.withRateLimit(http.HandlerFunc(s.handleGenerate)))
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s.handler = s.withRequestID(s.withLogging(mux))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Up to four backend calls per submission.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, err
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() (h http.Handler) {
	h = s.handler
	return h
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) (err error) {
	var lc net.ListenConfig
	var ln net.Listener
	ln, err = lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		err = errors.Wrapf(err, "failed to listen on %s", s.httpServer.Addr)
		return err
	}

	err = s.Serve(ctx, ln)
	return err
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) (err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		serveErr := s.httpServer.Serve(ln)
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(serveErr, "server error")
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := s.httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			return errors.Wrap(shutdownErr, "server shutdown failed")
		}
		return nil
	})

	err = g.Wait()
	return err
}
