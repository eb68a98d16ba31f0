// Package app drives one generation pass: collect handles from the
// configured sources, adapt them into a fresh repository, derive the
// builder family of every selected declaration and report the outcome.
package app

import (
	"log/slog"
	"path/filepath"
	"sync"

	"fluentgen/internal/core/config"
	"fluentgen/internal/core/ports"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/engine/adapter/gotypes"
	"fluentgen/internal/engine/adapter/javasource"
	"fluentgen/internal/engine/adapter/reflectadapter"
	"fluentgen/internal/engine/derive"
	"fluentgen/internal/engine/repository"
)

const reflectCacheSize = 1024

type App struct {
	Config *config.Config

	logger   *slog.Logger
	registry *adapter.Registry
	filter   *config.TypeFilter
	sources  []ports.DeclarationSource
	emitters []ports.Emitter
	catalog  ports.CatalogStore

	runMu sync.Mutex
	mu    sync.RWMutex
	repo  *repository.Repository
}

type Option func(*App)

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSources replaces the sources derived from the configuration.
func WithSources(sources ...ports.DeclarationSource) Option {
	return func(a *App) { a.sources = sources }
}

func WithEmitters(emitters ...ports.Emitter) Option {
	return func(a *App) { a.emitters = append(a.emitters, emitters...) }
}

func WithCatalog(store ports.CatalogStore) Option {
	return func(a *App) { a.catalog = store }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	filter, err := config.NewTypeFilter(cfg.Types)
	if err != nil {
		return nil, err
	}
	reflected, err := reflectadapter.New(reflectCacheSize)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		logger:   slog.Default(),
		registry: adapter.NewRegistry(javasource.New(), gotypes.New(), reflected),
		filter:   filter,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sources == nil {
		if a.sources, err = configuredSources(cfg); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func configuredSources(cfg *config.Config) ([]ports.DeclarationSource, error) {
	paths, err := config.NewPathFilter(cfg.Sources.Exclude)
	if err != nil {
		return nil, err
	}
	var out []ports.DeclarationSource
	if len(cfg.Sources.Java) > 0 {
		out = append(out, &JavaSource{Paths: rooted(cfg.Sources.Root, cfg.Sources.Java), Filter: paths})
	}
	if len(cfg.Sources.Go) > 0 {
		out = append(out, &GoSource{Dir: cfg.Sources.Root, Patterns: cfg.Sources.Go})
	}
	return out, nil
}

func rooted(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) || root == "" {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(root, p)
	}
	return out
}

// Repository returns the repository of the last completed run, or nil.
func (a *App) Repository() *repository.Repository {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.repo
}

func (a *App) Close() error {
	if a.catalog != nil {
		return a.catalog.Close()
	}
	return nil
}

func (a *App) deriveOptions() derive.Options {
	inline := make([]derive.InlineSpec, len(a.Config.Derivation.Inline))
	for i, in := range a.Config.Derivation.Inline {
		inline[i] = derive.InlineSpec{Prefix: in.Prefix, Name: in.Name, Suffix: in.Suffix, Method: in.Method}
	}
	return derive.Options{
		BuilderPackage:         a.Config.BuilderPackage,
		MaxDepth:               a.Config.Derivation.MaxDepth,
		Inline:                 inline,
		SkipEditable:           !a.Config.Derivation.EditableEnabled(),
		Validation:             a.Config.Derivation.Validation,
		ExternalValidator:      a.Config.Derivation.ExternalValidator,
		GenerateBuilderPackage: a.Config.Derivation.GenerateBuilderPackage,
		Logger:                 a.logger,
	}
}
