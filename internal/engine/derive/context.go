// Package derive maps canonical declarations onto their builder family:
// Fluent, Builder, Editable and Inlineable declarations, registered back
// into the repository for an emitter to render.
package derive

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
)

const (
	DefaultBuilderPackage = "fluentgen/builder"
	DefaultMaxDepth       = 32
)

// InlineSpec names an inline-update variant. The interface is called
// Prefix + (Name or "Inlineable") + Suffix; the class deriving it for a type
// is called Prefix + Type + Suffix.
type InlineSpec struct {
	Prefix string
	Name   string
	Suffix string
	// Method is the single interface method, "update" when empty.
	Method string
}

func (s InlineSpec) method() string {
	if s.Method == "" {
		return "update"
	}
	return s.Method
}

func (s InlineSpec) interfaceName() string {
	name := s.Name
	if name == "" {
		name = Inlineable
	}
	return s.Prefix + name + s.Suffix
}

type Options struct {
	// BuilderPackage receives the relocated base catalog.
	BuilderPackage string
	MaxDepth       int
	Inline         []InlineSpec
	// SkipEditable leaves Editable out of Family.
	SkipEditable bool
	// Validation makes every build() validate the instance it creates
	// through ValidationUtils before returning it.
	Validation bool
	// ExternalValidator lets build() hand the instance to a caller-supplied
	// validator as well. It has no effect without Validation.
	ExternalValidator bool
	// GenerateBuilderPackage marks the base catalog for rendering instead
	// of importing a prebuilt builder package.
	GenerateBuilderPackage bool
	Logger                 *slog.Logger
}

// ExternalValidation reports whether build() takes an external validator.
func (o Options) ExternalValidation() bool {
	return o.Validation && o.ExternalValidator
}

// Context holds the relocated base catalog and the buildable set. It is
// safe for concurrent use; every derivation call gets its own session.
type Context struct {
	repo   *repository.Repository
	opts   Options
	logger *slog.Logger
	bases  map[string]*model.TypeDef

	mu        sync.RWMutex
	buildable map[string]bool
}

// NewContext relocates the base catalog into opts.BuilderPackage and
// registers it in repo.
func NewContext(repo *repository.Repository, opts Options) (*Context, error) {
	if repo == nil {
		return nil, errs.Configuration("", "derivation needs a repository")
	}
	if opts.BuilderPackage == "" {
		opts.BuilderPackage = DefaultBuilderPackage
	}
	if !model.ValidName(opts.BuilderPackage) {
		return nil, errs.Configuration("", fmt.Sprintf("invalid builder package %q", opts.BuilderPackage))
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	for _, spec := range opts.Inline {
		if !model.ValidName(spec.interfaceName()) || strings.Contains(spec.interfaceName(), ".") {
			return nil, errs.Configuration("", fmt.Sprintf("invalid inline name %q", spec.interfaceName()))
		}
	}

	c := &Context{
		repo:      repo,
		opts:      opts,
		logger:    opts.Logger,
		bases:     make(map[string]*model.TypeDef),
		buildable: make(map[string]bool),
	}
	for _, tmplDef := range catalog() {
		def := model.Relocate(tmplDef, TemplatePackage, opts.BuilderPackage)
		def.Attributes = def.Attributes.With(model.AttrCatalogVersion, BaseCatalogVersion)
		if opts.GenerateBuilderPackage {
			def.Attributes = def.Attributes.With(model.AttrGenerate, true)
		}
		stored, err := repo.Register(def)
		if err != nil {
			return nil, errs.AddContext(err, errs.CtxOperation, "load base catalog")
		}
		c.bases[def.Name] = stored
	}
	c.logger.Debug("base catalog loaded",
		"package", opts.BuilderPackage,
		"version", BaseCatalogVersion,
		"count", len(c.bases),
		"generate", opts.GenerateBuilderPackage,
		"validation", opts.Validation)
	return c, nil
}

func (c *Context) Options() Options { return c.opts }

func (c *Context) Repository() *repository.Repository { return c.repo }

// Base returns the relocated base declaration with the given simple name.
func (c *Context) Base(name string) (*model.TypeDef, bool) {
	def, ok := c.bases[name]
	return def, ok
}

func (c *Context) baseRef(name string, args ...model.TypeRef) model.ClassRef {
	return model.NewClassRef(c.opts.BuilderPackage+"."+name, args...)
}

// MarkBuildable records that the named declarations have, or will have, a
// Builder.
func (c *Context) MarkBuildable(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		c.buildable[n] = true
	}
}

// Buildable lists the buildable set, sorted.
func (c *Context) Buildable() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.buildable))
	for n := range c.buildable {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IsBuildable reports whether ref names a declaration in the buildable set.
// Declarations already registered in the repository do not count: a
// derived declaration must not depend on what was derived before it.
func (c *Context) IsBuildable(ref model.TypeRef) bool {
	cls, ok := model.Unwrap(ref).(model.ClassRef)
	if !ok || cls.Dimensions > 0 || model.IsBuiltin(cls.FullyQualifiedName) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildable[cls.FullyQualifiedName]
}

// derivedName is the fully-qualified name of a declaration derived from
// def. Nested types flatten their outer path into the simple name.
func derivedName(def *model.TypeDef, prefix, suffix string) string {
	name := prefix + strings.ReplaceAll(def.Outer, ".", "") + def.Name + suffix
	if def.Package == "" {
		return name
	}
	return def.Package + "." + name
}

// derivedRef references the declaration derived from the type ref points
// at, keeping ref's arguments and appending extra.
func (c *Context) derivedRef(ref model.ClassRef, prefix, suffix string, extra ...model.TypeRef) model.ClassRef {
	var fqn string
	if def, ok := c.repo.Get(ref.FullyQualifiedName); ok {
		fqn = derivedName(def, prefix, suffix)
	} else {
		pkg, name := model.SplitName(ref.FullyQualifiedName)
		fqn = derivedName(&model.TypeDef{Package: pkg, Name: name}, prefix, suffix)
	}
	args := make([]model.TypeRef, 0, len(ref.Arguments)+len(extra))
	args = append(args, ref.Arguments...)
	args = append(args, extra...)
	return model.NewClassRef(fqn, args...)
}

// resolveSuper returns the full declaration of def's super-type, or nil
// when def has none worth following.
func (c *Context) resolveSuper(def *model.TypeDef) (*model.TypeDef, error) {
	if def.Super == nil || model.IsBuiltin(def.Super.FullyQualifiedName) {
		return nil, nil
	}
	name := def.Super.FullyQualifiedName
	super, ok := c.repo.Get(name)
	if !ok || super.Placeholder {
		return nil, errs.Unresolved(def.FullyQualifiedName(), []string{name}).
			WithContext(errs.CtxMember, "super")
	}
	return super, nil
}
