package admin

import (
	"fmt"
	"log/slog"

	"github.com/cloo-solutions/docqa/internal/config"
	"github.com/cloo-solutions/docqa/internal/logger"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GlobalFlags are accepted by every docqad command and override the environment.
func GlobalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.Bool("debug", false, "Enable debug logging (overrides DOCQA_DEBUG)")
	fs.String("log-format", "", "Log format: json or text (overrides DOCQA_LOG_FORMAT)")
	fs.String("backend", "", "Generation backend: openai, ollama or gemini (overrides DOCQA_GENERATION_BACKEND)")
	return fs
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger.New(logger.FromFlags(cfg.Debug, cfg.LogFormat))}, nil
}

// applyFlags copies explicitly set global flags onto cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	if f := fs.Lookup("debug"); f != nil && f.Changed {
		cfg.Debug, _ = fs.GetBool("debug")
	}
	if f := fs.Lookup("log-format"); f != nil && f.Changed {
		cfg.LogFormat = f.Value.String()
	}
	if f := fs.Lookup("backend"); f != nil && f.Changed {
		cfg.GenerationBackend = f.Value.String()
		return cfg.Validate()
	}
	return nil
}

// initTelemetry starts Sentry and returns its flush func. Failures only disable tracing.
func (e *env) initTelemetry() func() {
	sampleRate := 0.1
	if e.cfg.Environment == "development" {
		sampleRate = 1.0
	}
	flush, err := telemetry.Init(telemetry.Config{
		DSN:              e.cfg.SentryDSN,
		Environment:      e.cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            e.cfg.Debug,
	})
	if err != nil {
		e.logger.Warn("telemetry init failed, continuing without tracing", "error", err)
		return func() {}
	}
	return flush
}
