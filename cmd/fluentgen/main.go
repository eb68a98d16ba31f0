package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fluentgen/internal/core/app"
	"fluentgen/internal/core/config"
	"fluentgen/internal/core/errors"
	"fluentgen/internal/core/ports"
	"fluentgen/internal/data/catalog"
	"fluentgen/internal/shared/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "fluentgen v%s\n", versionString)
		return 0
	}

	logger := newLogger(stderr, opts.verbose)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if err := applyOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	if cfg.Telemetry.MetricsAddr != "" {
		go func() {
			if err := observability.ServeMetrics(ctx, cfg.Telemetry.MetricsAddr); err != nil {
				logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	if opts.once {
		res, err := generate(ctx, cfg, logger, stdout, false)
		if err != nil {
			return 1
		}
		return exitCode(res)
	}

	// Watch mode: a config change restarts the session with the reloaded
	// config; command-line overrides are reapplied on top of it.
	reloads := make(chan *config.Config, 1)
	if _, statErr := os.Stat(opts.configPath); statErr == nil {
		cw := config.NewWatcher(opts.configPath, logger, func(next *config.Config) {
			if err := applyOptions(&opts, next); err != nil {
				logger.Error("reloaded config rejected", "error", err)
				return
			}
			select {
			case reloads <- next:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer cw.Stop()
		}
	}

	for {
		sctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		var next *config.Config
		go func() {
			defer close(done)
			select {
			case next = <-reloads:
				cancel()
			case <-sctx.Done():
			}
		}()
		_, err := generate(sctx, cfg, logger, stdout, true)
		cancel()
		<-done
		if next == nil {
			if err != nil {
				return 1
			}
			return 0
		}
		logger.Info("restarting with reloaded config")
		cfg = next
	}
}

// generate builds an app from cfg, runs it once and, when watch is set,
// keeps regenerating until ctx is done.
func generate(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, watch bool) (ports.RunResult, error) {
	appOpts := []app.Option{app.WithLogger(logger)}
	var store *catalog.Store
	if cfg.Output.Catalog != "" {
		var err error
		if store, err = catalog.Open(cfg.Output.Catalog); err != nil {
			logger.Error("failed to open catalog", "error", err, "path", cfg.Output.Catalog)
			return ports.RunResult{}, err
		}
		appOpts = append(appOpts, app.WithCatalog(store))
	}

	generator, err := app.New(cfg, appOpts...)
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		if store != nil {
			_ = store.Close()
		}
		return ports.RunResult{}, err
	}
	defer func() {
		if err := generator.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	svc := generator.GenerationService()
	res, err := svc.Run(ctx, ports.RunRequest{})
	if err != nil {
		if ctx.Err() != nil {
			return res, nil
		}
		logger.Error("generation failed", "error", err)
		return res, err
	}
	fmt.Fprint(stdout, renderSummary(res))
	if !watch {
		return res, nil
	}

	err = svc.Watch(ctx, func(res ports.RunResult, err error) {
		if err != nil {
			logger.Error("regeneration failed", "error", err)
			return
		}
		fmt.Fprint(stdout, renderSummary(res))
	})
	if err != nil {
		logger.Error("watch stopped", "error", err)
	}
	return res, err
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig falls back to defaults only when the implicit config path is
// missing; an explicit -config must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != defaultConfigPath || !errors.IsCode(err, errors.CodeNotFound) {
		return nil, err
	}
	slog.Debug("no config file, using defaults", "path", path)
	cfg = config.Default()
	config.ApplyEnvOverrides(cfg)
	return cfg, nil
}

func applyOptions(opts *cliOptions, cfg *config.Config) error {
	for _, raw := range opts.set {
		mappings, err := config.ParseMappings(raw)
		if err != nil {
			return err
		}
		if err := config.Override(cfg, mappings); err != nil {
			return err
		}
	}
	if opts.dot != "" {
		cfg.Output.DOT = opts.dot
	}
	if opts.tsv != "" {
		cfg.Output.TSV = opts.tsv
	}
	if opts.catalog != "" {
		cfg.Output.Catalog = opts.catalog
	}
	if len(opts.args) > 0 {
		cfg.Sources.Root = opts.args[0]
	}
	if problems := config.Validate(cfg); len(problems) > 0 {
		return errors.Wrap(problems[0], errors.CodeConfiguration, "invalid options")
	}
	return nil
}

// exitCode reports 3 when some types could not be adapted or derived.
func exitCode(res ports.RunResult) int {
	if len(res.Failures) > 0 {
		return 3
	}
	return 0
}
