// Package adapter defines how source-specific type handles are normalized
// into canonical declarations.
package adapter

import (
	"fmt"
	"strings"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// Members are the translated members of a handle.
type Members struct {
	Properties   []model.Property
	Methods      []model.Method
	Constructors []model.Constructor
}

// Adapter translates one family of source handles. ToReference must not
// build declarations; it hands referenced types to ctx.Defer instead.
type Adapter interface {
	Name() string
	Recognize(handle any) bool
	ToReference(ctx *Context, handle any) (model.TypeRef, error)
	ToDeclaration(ctx *Context, handle any) (*model.TypeDef, error)
	MembersOf(ctx *Context, handle any) (Members, error)
}

// Registry is the capability registry, built once at startup.
type Registry struct {
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: append([]Adapter(nil), adapters...)}
}

func (r *Registry) Adapters() []Adapter {
	return append([]Adapter(nil), r.adapters...)
}

// For returns the single adapter recognizing handle.
func (r *Registry) For(handle any) (Adapter, error) {
	var matched []Adapter
	for _, a := range r.adapters {
		if a.Recognize(handle) {
			matched = append(matched, a)
		}
	}
	switch len(matched) {
	case 0:
		return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("no adapter available for %T", handle))
	case 1:
		return matched[0], nil
	}
	names := make([]string, len(matched))
	for i, a := range matched {
		names[i] = a.Name()
	}
	return nil, errs.Configuration("", fmt.Sprintf("ambiguous adapter match for %T", handle)).
		WithContext(errs.CtxAdapter, strings.Join(names, ","))
}
