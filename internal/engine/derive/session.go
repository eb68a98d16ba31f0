package derive

import (
	"errors"
	"strconv"
	"time"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
	"fluentgen/internal/shared/observability"
)

// session is the request scope of one derivation call. In-progress markers
// live here, never on the Context, so independent declarations can be
// derived in parallel.
type session struct {
	ctx        *Context
	inProgress map[string]bool
	depth      int
}

func (c *Context) newSession() *session {
	return &session{ctx: c, inProgress: make(map[string]bool)}
}

// enter marks name in progress. The returned bool is false when name is
// already being derived further up the stack and the caller must fall back
// to a reference by name.
func (s *session) enter(name string) (bool, error) {
	if s.inProgress[name] {
		return false, nil
	}
	if s.depth >= s.ctx.opts.MaxDepth {
		return false, errs.RecursionLimit(name, s.depth)
	}
	s.inProgress[name] = true
	s.depth++
	return true, nil
}

func (s *session) leave(name string) {
	delete(s.inProgress, name)
	s.depth--
}

func (s *session) register(def *model.TypeDef) (*model.TypeDef, error) {
	return s.ctx.repo.Register(def)
}

// observe records duration and failures of one derivation kind.
func observe(kind string, start time.Time, err error) {
	observability.DerivationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	code := string(errs.CodeInternal)
	var de *errs.DomainError
	if errors.As(err, &de) {
		code = string(de.Code)
	}
	observability.DerivationErrorsTotal.WithLabelValues(code).Inc()
}

// member is a property as seen from the derived type: declared on it or
// inherited through the super chain.
type member struct {
	model.Property
	inherited bool
	owner     string
}

// properties collects declared and inherited properties of def. Inherited
// ones come first in root-to-leaf order; a redeclaration replaces the
// inherited entry in place. Type parameters of generic super-types are
// substituted with the arguments def passes them.
func (s *session) properties(def *model.TypeDef) ([]member, error) {
	return s.collect(def, make(map[string]bool))
}

func (s *session) collect(def *model.TypeDef, seen map[string]bool) ([]member, error) {
	name := def.FullyQualifiedName()
	if seen[name] {
		return nil, nil
	}
	seen[name] = true

	var out []member
	super, err := s.ctx.resolveSuper(def)
	if err != nil {
		return nil, err
	}
	if super != nil {
		inherited, err := s.collect(super, seen)
		if err != nil {
			return nil, err
		}
		bind := bindings(super, def.Super.Arguments)
		for _, m := range inherited {
			m.Type = substitute(m.Type, bind)
			m.inherited = true
			out = append(out, m)
		}
	}

	for _, p := range def.Properties {
		if p.Modifiers.Static {
			continue
		}
		m := member{Property: p, owner: name}
		replaced := false
		for i := range out {
			if out[i].Name == p.Name {
				out[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, m)
		}
	}
	return out, nil
}

func bindings(def *model.TypeDef, args []model.TypeRef) map[string]model.TypeRef {
	if len(def.Params) == 0 {
		return nil
	}
	out := make(map[string]model.TypeRef, len(def.Params))
	for i, p := range def.Params {
		if i < len(args) {
			out[p.Name] = args[i]
		} else {
			out[p.Name] = p.EffectiveBounds()[0]
		}
	}
	return out
}

func substitute(ref model.TypeRef, bind map[string]model.TypeRef) model.TypeRef {
	if len(bind) == 0 {
		return ref
	}
	return model.MapRef(ref, func(r model.TypeRef) model.TypeRef {
		pr, ok := r.(model.TypeParamRef)
		if !ok {
			return r
		}
		repl, ok := bind[pr.Name]
		if !ok {
			return r
		}
		return model.WithDims(repl, repl.Dims()+pr.Dimensions)
	})
}

// freshParam picks a type-parameter name based on base that none of params
// uses.
func freshParam(base string, params []model.TypeParamDef) string {
	taken := make(map[string]bool, len(params))
	for _, p := range params {
		taken[p.Name] = true
	}
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}

func paramRefs(params []model.TypeParamDef) []model.TypeRef {
	out := make([]model.TypeRef, len(params))
	for i, p := range params {
		out[i] = p.ToReference()
	}
	return out
}

func cloneParams(params []model.TypeParamDef) []model.TypeParamDef {
	if len(params) == 0 {
		return nil
	}
	out := make([]model.TypeParamDef, len(params))
	for i, p := range params {
		out[i] = model.TypeParamDef{Name: p.Name, Bounds: append([]model.TypeRef(nil), p.Bounds...)}
	}
	return out
}
