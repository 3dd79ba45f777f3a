package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikogura/sop-writer/pkg/config"
	"github.com/nikogura/sop-writer/pkg/llm"
	"github.com/nikogura/sop-writer/pkg/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SOP form over HTTP",
	Long: `Serve a web form that collects application details and returns a generated
Statement of Purpose with a download link.

Endpoints:
  GET  /          the form
  POST /generate  generate an essay
  POST /download  download the essay as a text file
  GET  /healthz   liveness
  GET  /metrics   Prometheus metrics

Example:
  sop-writer serve
  sop-writer serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	var completer llm.Completer
	completer, err = llm.NewCompleter(ctx, cfg.LLMSettings())
	if err != nil {
		err = errors.Wrap(err, "failed to create model client")
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var srv *server.Server
	srv, err = server.New(server.Config{
		Addr:             cfg.Server.Addr,
		RatePerMinute:    cfg.Server.RatePerMinute,
		Burst:            cfg.Server.Burst,
		Logger:           logger,
		Registry:         reg,
		GeneratorOptions: generatorOptions(cfg),
	}, completer)
	if err != nil {
		return err
	}

	logger.Info("serving SOP form",
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", cfg.Provider),
		zap.Int("rate_per_minute", cfg.Server.RatePerMinute),
	)

	err = srv.Run(ctx)
	return err
}
