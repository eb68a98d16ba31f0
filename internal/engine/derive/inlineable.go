package derive

import (
	"time"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// InlineableInterface derives the single-method interface named by spec in
// the builder package. The unnamed, unaffixed spec is the base Inlineable
// itself.
func (c *Context) InlineableInterface(spec InlineSpec) (out *model.TypeDef, err error) {
	start := time.Now()
	defer func() { observe(RoleInlineable, start, err) }()

	simple := spec.interfaceName()
	if simple == Inlineable {
		if spec.method() != "update" {
			return nil, errs.Configuration(c.opts.BuilderPackage+"."+simple, "inline method clashes with the base Inlineable")
		}
		return c.bases[Inlineable], nil
	}
	iface := &model.TypeDef{
		Kind:      model.KindInterface,
		Package:   c.opts.BuilderPackage,
		Name:      simple,
		Modifiers: model.Modifiers{Visibility: model.VisibilityPublic, Abstract: true},
		Params:    []model.TypeParamDef{{Name: "T"}},
		Methods:   []model.Method{abstractMethod(spec.method(), tp("T"))},
		Attributes: model.Attributes{
			model.AttrRole: RoleInlineable,
		},
	}
	return c.repo.Register(iface)
}

// Inlineable derives Prefix+Type+Suffix: a fluent over the type that
// implements the interface from spec and builds the result in its single
// method.
func (c *Context) Inlineable(def *model.TypeDef, spec InlineSpec) (*model.TypeDef, error) {
	if err := checkInput(def); err != nil {
		return nil, err
	}
	name := def.FullyQualifiedName()
	if spec.Prefix == "" && spec.Suffix == "" {
		return nil, errs.Configuration(name, "inline spec needs a prefix or a suffix")
	}
	if def.IsAbstract() {
		return nil, errs.Configuration(name, "cannot derive an inlineable for an abstract type").
			WithContext(errs.CtxOperation, RoleInlineable)
	}
	iface, err := c.InlineableInterface(spec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.inlineable(def, spec, iface)
	observe(RoleInlineable, start, err)
	return out, err
}

func (c *Context) inlineable(def *model.TypeDef, spec InlineSpec, iface *model.TypeDef) (*model.TypeDef, error) {
	s := c.newSession()
	if _, err := s.fluent(def); err != nil {
		return nil, err
	}

	fqn := derivedName(def, spec.Prefix, spec.Suffix)
	pkg, simple := model.SplitName(fqn)
	target := def.ToReference()
	self := model.NewClassRef(fqn, paramRefs(def.Params)...)
	super := model.NewClassRef(derivedName(def, "", "Fluent"), append(paramRefs(def.Params), self)...)
	builder := model.NewClassRef(derivedName(def, "", "Builder"), paramRefs(def.Params)...)

	inline := &model.TypeDef{
		Kind:       model.KindClass,
		Package:    pkg,
		Name:       simple,
		Modifiers:  model.Public,
		Params:     cloneParams(def.Params),
		Super:      &super,
		Implements: []model.ClassRef{iface.ToReference(target)},
		Properties: []model.Property{{
			Name:      "builder",
			Type:      builder,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate, Final: true},
		}},
		Constructors: []model.Constructor{
			{Modifiers: model.Public},
			{Modifiers: model.Public, Arguments: []model.Property{arg("item", target)}},
		},
		Methods: []model.Method{{
			Name:      spec.method(),
			Return:    target,
			Modifiers: model.Public,
			Attributes: model.Attributes{
				model.AttrBuilderType: builder.String(),
			},
		}},
		Attributes: model.Attributes{
			model.AttrRole:        RoleInlineable,
			model.AttrDerivedFrom: def.FullyQualifiedName(),
		},
	}
	return s.register(inline)
}
