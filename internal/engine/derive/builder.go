package derive

import (
	"sort"
	"strings"
	"time"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// Builder derives <Type>Builder: the fluent closed over itself, with a
// build() method that invokes the most specific satisfiable constructor.
func (c *Context) Builder(def *model.TypeDef) (out *model.TypeDef, err error) {
	start := time.Now()
	defer func() { observe(RoleBuilder, start, err) }()
	if err := checkInput(def); err != nil {
		return nil, err
	}
	name := def.FullyQualifiedName()
	if def.IsAbstract() {
		return nil, errs.Configuration(name, "cannot derive a builder for an abstract type").
			WithContext(errs.CtxOperation, RoleBuilder)
	}

	c.MarkBuildable(name)
	s := c.newSession()
	if _, err := s.fluent(def); err != nil {
		return nil, err
	}
	members, err := s.properties(def)
	if err != nil {
		return nil, err
	}
	ctor, assigned, err := selectConstructor(def, members)
	if err != nil {
		return nil, err
	}

	fqn := derivedName(def, "", "Builder")
	pkg, simple := model.SplitName(fqn)
	fluentName := derivedName(def, "", "Fluent")
	self := model.NewClassRef(fqn, paramRefs(def.Params)...)
	target := def.ToReference()
	super := model.NewClassRef(fluentName, append(paramRefs(def.Params), self)...)
	anyFluent := model.NewClassRef(fluentName, append(paramRefs(def.Params), wildcard)...)
	ctorArgs := ctor.ArgumentNames()

	builder := &model.TypeDef{
		Kind:      model.KindClass,
		Package:   pkg,
		Name:      simple,
		Modifiers: model.Public,
		Params:    cloneParams(def.Params),
		Super:     &super,
		Implements: []model.ClassRef{
			c.baseRef(VisitableBuilder, target, self),
			c.baseRef(Builder, target),
		},
		Properties: []model.Property{{
			Name:      "fluent",
			Type:      anyFluent,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate, Final: true},
		}},
		Constructors: []model.Constructor{
			{Modifiers: model.Public},
			{Modifiers: model.Public, Arguments: []model.Property{arg("instance", target)}},
			{Modifiers: model.Public, Arguments: []model.Property{arg("fluent", anyFluent)}},
			{Modifiers: model.Public, Arguments: []model.Property{arg("fluent", anyFluent), arg("instance", target)}},
		},
		Methods: []model.Method{{
			Name:      "build",
			Return:    target,
			Modifiers: model.Public,
			Attributes: model.Attributes{
				model.AttrConstructorArgs:    ctorArgs,
				model.AttrAssignedProperties: assigned,
				model.AttrValidate:           c.opts.Validation,
				model.AttrExternalValidator:  c.opts.ExternalValidation(),
			},
		}},
		Attributes: model.Attributes{
			model.AttrRole:            RoleBuilder,
			model.AttrDerivedFrom:     name,
			model.AttrConstructorArgs: ctorArgs,
		},
	}
	if c.opts.ExternalValidation() {
		builder.Properties = append(builder.Properties, model.Property{
			Name:      "validator",
			Type:      model.Object,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate},
		})
		builder.Methods = append(builder.Methods, model.Method{
			Name:       "withValidator",
			Return:     self,
			Arguments:  []model.Property{arg("validator", model.Object)},
			Modifiers:  model.Public,
			Attributes: model.Attributes{model.AttrSynthesized: true},
		})
	}
	stored, err := s.register(builder)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("builder derived",
		"type", name,
		"builder", fqn,
		"constructor", strings.Join(ctorArgs, ","),
		"assigned", len(assigned),
		"validate", c.opts.Validation)
	return stored, nil
}

// selectConstructor picks the accessible constructor whose every argument
// names a tracked property, preferring one that takes every final property
// and then the one with the most arguments. Properties left
// out of it are assigned after construction; a final one left out cannot be
// and is a configuration error.
func selectConstructor(def *model.TypeDef, members []member) (model.Constructor, []string, error) {
	name := def.FullyQualifiedName()
	tracked := make(map[string]bool, len(members))
	for _, m := range members {
		tracked[m.Name] = true
	}

	ctors := def.Constructors
	if len(ctors) == 0 {
		ctors = []model.Constructor{{Modifiers: model.Public}}
	}

	var (
		best        *model.Constructor
		closest     []string
		accessible  int
		haveClosest bool
		bestCovers  bool
	)
	for i := range ctors {
		ctor := &ctors[i]
		if ctor.Modifiers.Visibility == model.VisibilityPrivate {
			continue
		}
		accessible++
		var missing []string
		for _, a := range ctor.Arguments {
			if !tracked[a.Name] {
				missing = append(missing, a.Name)
			}
		}
		if len(missing) == 0 {
			covers := coversFinals(ctor, members)
			if best == nil || (covers && !bestCovers) ||
				(covers == bestCovers && len(ctor.Arguments) > len(best.Arguments)) {
				best, bestCovers = ctor, covers
			}
			continue
		}
		if !haveClosest || len(missing) < len(closest) {
			closest = missing
			haveClosest = true
		}
	}

	if accessible == 0 {
		return model.Constructor{}, nil, errs.Configuration(name, "type has no accessible constructor").
			WithContext(errs.CtxMember, "constructor")
	}
	if best == nil {
		sort.Strings(closest)
		return model.Constructor{}, nil, errs.Configuration(name, "no constructor is satisfied by the tracked properties").
			WithContext(errs.CtxMember, "constructor").
			WithContext(errs.CtxMissing, strings.Join(closest, ","))
	}

	inCtor := make(map[string]bool, len(best.Arguments))
	for _, a := range best.Arguments {
		inCtor[a.Name] = true
	}
	var assigned, unreachable []string
	for _, m := range members {
		switch {
		case inCtor[m.Name]:
		case m.Modifiers.Final:
			unreachable = append(unreachable, m.Name)
		default:
			assigned = append(assigned, m.Name)
		}
	}
	if len(unreachable) > 0 {
		return model.Constructor{}, nil, errs.Configuration(name, "final properties are not set by the selected constructor").
			WithContext(errs.CtxMember, "constructor").
			WithContext(errs.CtxMissing, strings.Join(unreachable, ","))
	}
	return *best, assigned, nil
}

func coversFinals(ctor *model.Constructor, members []member) bool {
	args := make(map[string]bool, len(ctor.Arguments))
	for _, a := range ctor.Arguments {
		args[a.Name] = true
	}
	for _, m := range members {
		if m.Modifiers.Final && !args[m.Name] {
			return false
		}
	}
	return true
}
