package repository

import (
	"sort"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// Resolve walks every declaration reachable from name and reports the
// referenced names that are absent or still stubs.
func (r *Repository) Resolve(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	missing := make(map[string]bool)
	r.walk(name, make(map[string]bool), missing)
	return unresolved(name, missing)
}

// ResolveAll checks every stored declaration.
func (r *Repository) ResolveAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	missing := make(map[string]bool)
	visited := make(map[string]bool)
	for _, name := range r.order {
		if r.defs[name].Placeholder {
			continue
		}
		r.walk(name, visited, missing)
	}
	return unresolved("", missing)
}

func (r *Repository) walk(name string, visited, missing map[string]bool) {
	if visited[name] || model.IsBuiltin(name) {
		return
	}
	visited[name] = true
	def, ok := r.defs[name]
	if !ok || def.Placeholder {
		missing[name] = true
		return
	}
	for _, ref := range References(def) {
		r.walk(ref, visited, missing)
	}
}

func unresolved(name string, missing map[string]bool) error {
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for n := range missing {
		names = append(names, n)
	}
	sort.Strings(names)
	return errs.Unresolved(name, names)
}

// References lists the distinct class names def refers to, in first-seen
// order. Type parameters and primitives are skipped.
func References(def *model.TypeDef) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ref model.TypeRef) {
		model.MapRef(ref, func(r model.TypeRef) model.TypeRef {
			if c, ok := r.(model.ClassRef); ok && !seen[c.FullyQualifiedName] {
				seen[c.FullyQualifiedName] = true
				out = append(out, c.FullyQualifiedName)
			}
			return r
		})
	}
	self := def.FullyQualifiedName()
	seen[self] = true

	if def.Super != nil {
		add(*def.Super)
	}
	for _, iface := range def.Implements {
		add(iface)
	}
	for _, p := range def.Params {
		for _, b := range p.Bounds {
			add(b)
		}
	}
	for _, p := range def.Properties {
		add(p.Type)
	}
	for _, m := range def.Methods {
		add(m.Return)
		for _, a := range m.Arguments {
			add(a.Type)
		}
	}
	for _, c := range def.Constructors {
		for _, a := range c.Arguments {
			add(a.Type)
		}
	}
	return out
}
