package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"fluentgen/internal/core/errors"
	"fluentgen/internal/core/ports"
	"fluentgen/internal/data/catalog"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/engine/derive"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
	"fluentgen/internal/shared/observability"
	"fluentgen/internal/shared/util"

	"github.com/google/uuid"
)

// Run executes one full pass. Runs are serialized; each one starts from a
// fresh repository so deleted sources disappear from the result.
func (a *App) Run(ctx context.Context, req ports.RunRequest) (ports.RunResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "app.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("changed", len(req.Changed)),
	))
	defer span.End()

	start := time.Now()
	res := ports.RunResult{RunID: runID, Started: start.UTC()}
	logger := a.logger.With("run_id", runID)

	repo := repository.New(repository.Options{Strict: a.Config.Repository.Strict, Logger: logger})
	dctx, err := derive.NewContext(repo, a.deriveOptions())
	if err != nil {
		return res, errors.AddContext(err, errors.CtxOperation, "derive_context")
	}

	handles, err := a.collect(ctx, &res)
	if err != nil {
		span.RecordError(err)
		return res, err
	}
	if err := a.adaptAll(ctx, logger, repo, handles, &res); err != nil {
		span.RecordError(err)
		return res, err
	}

	selected := a.selectTypes(repo)
	res.Selected = len(selected)
	families, err := a.deriveAll(ctx, logger, dctx, selected, &res)
	if err != nil {
		span.RecordError(err)
		return res, err
	}
	if err := a.emit(ctx, families); err != nil {
		span.RecordError(err)
		return res, err
	}

	for _, def := range repo.All() {
		if def.Placeholder {
			res.Placeholders++
		}
	}
	res.Declarations = repo.Len()
	res.Conflicts = len(repo.Conflicts())
	res.Cycles = repo.DetectCycles()

	a.mu.Lock()
	a.repo = repo
	a.mu.Unlock()

	written, err := a.writeOutputs(repo)
	res.Written = written
	if err != nil {
		return res, errors.AddContext(err, errors.CtxOperation, "write_outputs")
	}

	res.Duration = time.Since(start)
	if err := a.saveCatalog(ctx, &res, repo, req); err != nil {
		logger.Warn("failed to save catalog snapshot", "error", err)
	}
	observability.RunDuration.Observe(res.Duration.Seconds())

	logger.Info("run complete",
		"declarations", res.Declarations,
		"selected", res.Selected,
		"derived", res.Derived,
		"failures", len(res.Failures),
		"conflicts", res.Conflicts,
		"duration", res.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	return res, nil
}

func (a *App) collect(ctx context.Context, res *ports.RunResult) ([]any, error) {
	var handles []any
	for _, src := range a.sources {
		sctx, span := observability.Tracer.Start(ctx, "app.collect", trace.WithAttributes(attribute.String("source", src.Name())))
		got, err := src.Handles(sctx)
		span.End()
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "collect source handles"), errors.CtxAdapter, src.Name())
		}
		handles = append(handles, got...)
	}
	res.Handles = len(handles)
	return handles, nil
}

// adaptAll registers every handle. A handle that fails is reported and
// skipped; only cancellation aborts the pass.
func (a *App) adaptAll(ctx context.Context, logger *slog.Logger, repo *repository.Repository, handles []any, res *ports.RunResult) error {
	actx := adapter.NewContext(repo, a.registry, adapter.WithLogger(logger))
	for _, h := range handles {
		if _, err := actx.Adapt(ctx, h); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			name := handleName(h)
			logger.Warn("failed to adapt declaration", "source", name, "error", err)
			res.Failures = append(res.Failures, failure(name, "adapt", err))
		}
	}
	return nil
}

// selectTypes picks the declarations that get a builder family: complete,
// non-derived, non-private classes and interfaces accepted by the type
// filter, sorted by name.
func (a *App) selectTypes(repo *repository.Repository) []*model.TypeDef {
	var out []*model.TypeDef
	for _, def := range repo.All() {
		name := def.FullyQualifiedName()
		switch {
		case def.Placeholder,
			def.Attributes.Has(model.AttrRole),
			def.Attributes.Has(model.AttrCatalogVersion),
			model.IsBuiltin(name),
			def.Kind == model.KindEnum || def.Kind == model.KindAnnotation,
			def.Modifiers.Visibility == model.VisibilityPrivate,
			def.Package == a.Config.BuilderPackage,
			!a.filter.Match(name):
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullyQualifiedName() < out[j].FullyQualifiedName()
	})
	return out
}

// deriveAll derives families in parallel. Every concrete selected type is
// marked buildable first so the result does not depend on scheduling.
func (a *App) deriveAll(ctx context.Context, logger *slog.Logger, dctx *derive.Context, selected []*model.TypeDef, res *ports.RunResult) ([]*derive.Family, error) {
	var names []string
	for _, def := range selected {
		if !def.IsAbstract() {
			names = append(names, def.FullyQualifiedName())
		}
	}
	dctx.MarkBuildable(names...)

	families := make([]*derive.Family, len(selected))
	errs := make([]error, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Derivation.Parallelism)
	for i, def := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := observability.Tracer.Start(gctx, "app.derive", trace.WithAttributes(attribute.String("type", def.FullyQualifiedName())))
			defer span.End()
			fam, err := dctx.Family(def)
			if err != nil {
				span.RecordError(err)
				errs[i] = err
				return nil
			}
			families[i] = fam
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*derive.Family
	for i, fam := range families {
		if err := errs[i]; err != nil {
			name := selected[i].FullyQualifiedName()
			logger.Warn("failed to derive builder family", "type", name, "error", err)
			res.Failures = append(res.Failures, failure(name, "derive", err))
			continue
		}
		res.Derived += len(fam.Declarations())
		out = append(out, fam)
	}
	return out, nil
}

func (a *App) emit(ctx context.Context, families []*derive.Family) error {
	for _, e := range a.emitters {
		for _, fam := range families {
			if err := e.Emit(ctx, fam); err != nil {
				return errors.AddContext(err, errors.CtxType, fam.Source.FullyQualifiedName())
			}
		}
	}
	return nil
}

func (a *App) saveCatalog(ctx context.Context, res *ports.RunResult, repo *repository.Repository, req ports.RunRequest) error {
	if a.catalog == nil {
		return nil
	}
	previous, err := a.catalog.Runs(ctx, 1)
	if err != nil {
		return err
	}

	var defs []*model.TypeDef
	for _, def := range repo.All() {
		if !def.Attributes.Has(model.AttrCatalogVersion) {
			defs = append(defs, def)
		}
	}
	trigger := "initial"
	if len(req.Changed) > 0 {
		trigger = "watch"
	}
	run := catalog.Run{
		ID:             res.RunID,
		Started:        res.Started,
		Duration:       res.Duration,
		Declarations:   res.Declarations,
		Derived:        res.Derived,
		Failures:       len(res.Failures),
		Trigger:        trigger,
		CatalogVersion: derive.BaseCatalogVersion,
	}
	if err := a.catalog.SaveRun(ctx, run, defs); err != nil {
		return err
	}
	if len(previous) == 0 {
		return nil
	}
	d, err := a.catalog.Compare(ctx, previous[0].ID, res.RunID)
	if err != nil {
		return err
	}
	res.Diff = &d
	return nil
}

func failure(name, stage string, err error) ports.Failure {
	f := ports.Failure{Type: name, Stage: stage, Code: string(errors.CodeInternal), Message: err.Error()}
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		f.Code = string(de.Code)
		if t, ok := de.Context[errors.CtxType].(string); ok && t != "" {
			f.Type = t
		}
	}
	return f
}
