package derive

import (
	"time"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// Editable derives Editable<Type>: a subtype of the original whose edit()
// returns a builder seeded from the instance.
func (c *Context) Editable(def *model.TypeDef) (out *model.TypeDef, err error) {
	start := time.Now()
	defer func() { observe(RoleEditable, start, err) }()
	if err := checkInput(def); err != nil {
		return nil, err
	}
	name := def.FullyQualifiedName()
	switch {
	case def.Modifiers.Final:
		return nil, errs.Configuration(name, "cannot derive an editable for a final type").
			WithContext(errs.CtxOperation, RoleEditable)
	case def.IsAbstract():
		return nil, errs.Configuration(name, "cannot derive an editable for an abstract type").
			WithContext(errs.CtxOperation, RoleEditable)
	}

	fqn := derivedName(def, "Editable", "")
	pkg, simple := model.SplitName(fqn)
	super := def.ToInternalReference()
	builder := model.NewClassRef(derivedName(def, "", "Builder"), paramRefs(def.Params)...)

	var ctors []model.Constructor
	for _, ctor := range def.Constructors {
		if ctor.Modifiers.Visibility == model.VisibilityPrivate {
			continue
		}
		mirrored := model.Constructor{Modifiers: model.Public}
		for _, a := range ctor.Arguments {
			mirrored.Arguments = append(mirrored.Arguments, arg(a.Name, model.CloneRef(a.Type)))
		}
		ctors = append(ctors, mirrored)
	}
	if len(def.Constructors) == 0 {
		ctors = []model.Constructor{{Modifiers: model.Public}}
	}

	editable := &model.TypeDef{
		Kind:         model.KindClass,
		Package:      pkg,
		Name:         simple,
		Modifiers:    model.Public,
		Params:       cloneParams(def.Params),
		Super:        &super,
		Implements:   []model.ClassRef{c.baseRef(Editable, builder)},
		Constructors: ctors,
		Methods: []model.Method{{
			Name:      "edit",
			Return:    builder,
			Modifiers: model.Public,
			Attributes: model.Attributes{
				model.AttrBuilderType: builder.String(),
			},
		}},
		Attributes: model.Attributes{
			model.AttrRole:        RoleEditable,
			model.AttrDerivedFrom: name,
		},
	}
	return c.repo.Register(editable)
}
