package app

import (
	"context"
	"fmt"
	"path/filepath"

	"fluentgen/internal/core/ports"
	"fluentgen/internal/core/watcher"
	"fluentgen/internal/shared/util"
)

type generationService struct {
	app *App
}

var _ ports.GenerationService = (*generationService)(nil)

func NewGenerationService(app *App) ports.GenerationService {
	return &generationService{app: app}
}

func (a *App) GenerationService() ports.GenerationService {
	return NewGenerationService(a)
}

func (s *generationService) Run(ctx context.Context, req ports.RunRequest) (ports.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.RunResult{}, err
	}
	if s.app == nil {
		return ports.RunResult{}, fmt.Errorf("app is required")
	}
	return s.app.Run(ctx, req)
}

// Watch reruns the pipeline whenever a source under the configured roots
// changes, until ctx is done. handler sees every result.
func (s *generationService) Watch(ctx context.Context, handler func(ports.RunResult, error)) error {
	if s.app == nil {
		return fmt.Errorf("app is required")
	}
	if handler == nil {
		handler = func(ports.RunResult, error) {}
	}
	cfg := s.app.Config
	roots := s.app.WatchRoots()
	if len(roots) == 0 {
		return fmt.Errorf("no source roots to watch")
	}

	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:   cfg.Watch.Debounce,
		Exclude:    cfg.Sources.Exclude,
		Extensions: []string{".java", ".go"},
		Limiter:    util.NewLimiter(cfg.Watch.Rate, cfg.Watch.Burst),
		Logger:     s.app.logger,
	}, func(paths []string) {
		var relevant []string
		for _, p := range paths {
			if util.WithinAny(p, roots) {
				relevant = append(relevant, p)
			}
		}
		if len(relevant) == 0 || ctx.Err() != nil {
			return
		}
		s.app.logger.Info("sources changed, regenerating", "paths", len(relevant))
		res, err := s.app.Run(ctx, ports.RunRequest{Changed: relevant})
		handler(res, err)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(roots); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// WatchRoots lists the directories and files the configured sources read.
func (a *App) WatchRoots() []string {
	var roots []string
	for _, src := range a.sources {
		switch s := src.(type) {
		case *JavaSource:
			roots = append(roots, s.Paths...)
		case *GoSource:
			dir := s.Dir
			if dir == "" {
				dir = "."
			}
			roots = append(roots, filepath.Clean(dir))
		}
	}
	return util.UniqueSorted(roots)
}
