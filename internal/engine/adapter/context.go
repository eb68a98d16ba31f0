package adapter

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
	"fluentgen/internal/shared/observability"
)

type pending struct {
	name   string
	handle any
}

// Context carries the repository and registry through one adaptation pass.
// It is not safe for concurrent use.
type Context struct {
	Repo     *repository.Repository
	Registry *Registry
	Logger   *slog.Logger
	// Follow decides whether a referenced type gets adapted in full. Names
	// it rejects stay placeholders.
	Follow func(name string) bool

	queue  []pending
	queued map[string]bool
}

type Option func(*Context)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithFollow(follow func(name string) bool) Option {
	return func(c *Context) { c.Follow = follow }
}

func NewContext(repo *repository.Repository, registry *Registry, opts ...Option) *Context {
	c := &Context{
		Repo:     repo,
		Registry: registry,
		Logger:   slog.Default(),
		Follow:   func(string) bool { return true },
		queued:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defer registers a placeholder for name and queues handle so the full
// declaration is built once the current one is done. Built-in names are
// never queued.
func (c *Context) Defer(name string, handle any) {
	if model.IsBuiltin(name) || !model.ValidName(name) {
		return
	}
	def, err := c.Repo.GetOrPlaceholder(name)
	if err != nil || !def.Placeholder || c.queued[name] || handle == nil || !c.Follow(name) {
		return
	}
	c.queued[name] = true
	c.queue = append(c.queue, pending{name: name, handle: handle})
}

// Reference translates handle into a use-site reference through the
// adapter that recognizes it.
func (c *Context) Reference(handle any) (model.TypeRef, error) {
	a, err := c.Registry.For(handle)
	if err != nil {
		return nil, err
	}
	return a.ToReference(c, handle)
}

// Adapt builds and registers the declaration for handle, then drains every
// handle deferred along the way.
func (c *Context) Adapt(ctx context.Context, handle any) (*model.TypeDef, error) {
	stored, err := c.adaptOne(ctx, handle)
	if err != nil {
		return nil, err
	}
	for len(c.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		if def, ok := c.Repo.Get(next.name); ok && !def.Placeholder {
			continue
		}
		if _, err := c.adaptOne(ctx, next.handle); err != nil {
			if errs.IsCode(err, errs.CodeNotSupported) {
				c.Logger.Debug("referenced type left as placeholder", "type", next.name, "error", err)
				continue
			}
			return nil, errs.AddContext(err, errs.CtxPath, next.name)
		}
	}
	return stored, nil
}

func (c *Context) adaptOne(ctx context.Context, handle any) (*model.TypeDef, error) {
	a, err := c.Registry.For(handle)
	if err != nil {
		return nil, err
	}
	_, span := observability.Tracer.Start(ctx, "adapter.Adapt", trace.WithAttributes(attribute.String("adapter", a.Name())))
	defer span.End()

	start := time.Now()
	def, err := a.ToDeclaration(c, handle)
	observability.AdaptDuration.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, errs.AddContext(err, errs.CtxAdapter, a.Name())
	}
	def.Attributes = def.Attributes.With(model.AttrOrigin, a.Name())

	stored, err := c.Repo.Register(def)
	if err != nil {
		return nil, errs.AddContext(err, errs.CtxAdapter, a.Name())
	}
	span.SetAttributes(attribute.String("type", stored.FullyQualifiedName()))
	c.Logger.Debug("declaration registered", "type", stored.FullyQualifiedName(), "adapter", a.Name())
	return stored, nil
}
