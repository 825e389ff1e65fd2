package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/neurolocus/internal/cache"
	"github.com/ppiankov/neurolocus/internal/pipeline"
	"github.com/ppiankov/neurolocus/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the localization API over HTTP",
	Long: `Serve exposes the localizer and the Knowledge Base:

  POST /api/neuro/parse_findings              {"text": "..."}
  POST /api/neuro/extract_interview_findings  {"messages": [{"role", "content"}]}
  GET  /api/neuro/syndromes
  GET  /api/neuro/cranial_nerves
  GET  /api/neuro/territories
  GET  /healthz
  GET  /metrics

Example:
  neurolocus serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kb, err := loadKnowledge(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	localizer := pipeline.NewLocalizer(kb, cfg,
		pipeline.WithCache(cache.New(cfg.Cache), cfg.Cache.MemoryTTL),
		pipeline.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("knowledge_version", kb.Version()),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Float64("rate_limit_rps", cfg.RateLimiting.RequestsPerSecond),
	)
	return server.New(localizer, cfg, logger).Run(ctx)
}
