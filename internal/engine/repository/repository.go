// Package repository holds the canonical declarations keyed by
// fully-qualified name.
package repository

import (
	"fmt"
	"log/slog"
	"sync"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
	"fluentgen/internal/shared/observability"
)

// Outcome labels a registration result.
type Outcome string

const (
	OutcomeInserted    Outcome = "inserted"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeCompleted   Outcome = "completed"
	OutcomeIgnored     Outcome = "ignored_stub"
	OutcomeReplaced    Outcome = "replaced"
	OutcomeRejected    Outcome = "rejected"
	OutcomePlaceholder Outcome = "placeholder"
)

// Conflict records a full declaration overwritten by a structurally
// different one under the same name.
type Conflict struct {
	Name           string
	PreviousOrigin string
	NewOrigin      string
}

type Options struct {
	// Strict rejects conflicting full registrations instead of letting the
	// last one win.
	Strict bool
	Logger *slog.Logger
}

// Repository is the deduplicating store of declarations. The zero value is
// not usable; call New.
type Repository struct {
	mu        sync.RWMutex
	defs      map[string]*model.TypeDef
	order     []string
	conflicts []Conflict
	strict    bool
	logger    *slog.Logger
}

func New(opts Options) *Repository {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		defs:   make(map[string]*model.TypeDef),
		strict: opts.Strict,
		logger: logger,
	}
}

// Register inserts or merges def and returns the stored instance.
//
// A stub never replaces a full declaration. A full declaration completes a
// stub in place, so holders of the stub pointer see the result. Identical
// content returns the stored pointer untouched.
func (r *Repository) Register(def *model.TypeDef) (*model.TypeDef, error) {
	if def == nil {
		r.count(OutcomeRejected)
		return nil, errs.Configuration("", "cannot register a nil declaration")
	}
	name := def.FullyQualifiedName()
	if def.Name == "" || !model.ValidName(name) {
		r.count(OutcomeRejected)
		return nil, errs.Configuration(name, fmt.Sprintf("declaration has no resolvable fully-qualified name %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.defs[name]
	if !ok {
		r.defs[name] = def
		r.order = append(r.order, name)
		observability.RepositoryDeclarations.Set(float64(len(r.defs)))
		r.count(OutcomeInserted)
		return def, nil
	}
	if stored == def {
		r.count(OutcomeUnchanged)
		return stored, nil
	}

	switch {
	case def.Placeholder && !stored.Placeholder:
		r.count(OutcomeIgnored)
		return stored, nil
	case def.Placeholder:
		r.count(OutcomeUnchanged)
		return stored, nil
	case stored.Placeholder:
		*stored = *def
		r.count(OutcomeCompleted)
		return stored, nil
	case model.StructurallyEqual(stored, def):
		r.count(OutcomeUnchanged)
		return stored, nil
	}

	conflict := Conflict{Name: name, PreviousOrigin: stored.Origin(), NewOrigin: def.Origin()}
	if r.strict {
		r.count(OutcomeRejected)
		return nil, errs.Conflict(name, conflict.PreviousOrigin, conflict.NewOrigin)
	}
	r.conflicts = append(r.conflicts, conflict)
	r.logger.Warn("declaration replaced by a different one with the same name",
		"type", name,
		"previous_origin", conflict.PreviousOrigin,
		"new_origin", conflict.NewOrigin)
	*stored = *def
	r.count(OutcomeReplaced)
	return stored, nil
}

func (r *Repository) Get(name string) (*model.TypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// GetOrPlaceholder returns the stored declaration for name, storing a stub
// first when there is none. Names Register would reject are rejected here
// too.
func (r *Repository) GetOrPlaceholder(name string) (*model.TypeDef, error) {
	if !model.ValidName(name) {
		r.count(OutcomeRejected)
		return nil, errs.Configuration(name, fmt.Sprintf("cannot hold a placeholder for invalid name %q", name))
	}
	if def, ok := r.Get(name); ok {
		return def, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if def, ok := r.defs[name]; ok {
		return def, nil
	}
	stub := model.NewPlaceholder(name)
	r.defs[name] = stub
	r.order = append(r.order, name)
	observability.RepositoryDeclarations.Set(float64(len(r.defs)))
	r.count(OutcomePlaceholder)
	return stub, nil
}

// All returns the declarations in registration order.
func (r *Repository) All() []*model.TypeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.TypeDef, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

func (r *Repository) Conflicts() []Conflict {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Conflict(nil), r.conflicts...)
}

// Reset drops every declaration and recorded conflict.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]*model.TypeDef)
	r.order = nil
	r.conflicts = nil
	observability.RepositoryDeclarations.Set(0)
}

func (r *Repository) count(outcome Outcome) {
	observability.RegistrationsTotal.WithLabelValues(string(outcome)).Inc()
}
