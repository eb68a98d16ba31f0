package derive

import (
	"fmt"
	"time"

	"github.com/go-openapi/inflect"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/model"
)

// Roles recorded under model.AttrRole on derived declarations.
const (
	RoleFluent     = "fluent"
	RoleNested     = "nested"
	RoleBuilder    = "builder"
	RoleEditable   = "editable"
	RoleInlineable = "inlineable"
)

// Accessor kinds recorded under model.AttrAccessor on derived methods.
const (
	AccessorWith        = "with"
	AccessorWithBuilder = "with.builder"
	AccessorGet         = "get"
	AccessorBuild       = "build"
	AccessorHas         = "has"
	AccessorAdd         = "add"
	AccessorAddAt       = "add.index"
	AccessorSet         = "set.index"
	AccessorAddFirst    = "add.first"
	AccessorAddLast     = "add.last"
	AccessorAddAll      = "add.all"
	AccessorRemove      = "remove"
	AccessorRemoveAll   = "remove.all"
	AccessorPut         = "put"
	AccessorWithNew     = "with.new"
	AccessorEdit        = "edit"
	AccessorEquals      = "equals"
)

// Fluent derives <Type>Fluent for def, deriving the fluents of its
// super-types first, and registers the result with its nested builder
// types.
func (c *Context) Fluent(def *model.TypeDef) (out *model.TypeDef, err error) {
	start := time.Now()
	defer func() { observe(RoleFluent, start, err) }()
	if err := checkInput(def); err != nil {
		return nil, err
	}
	return c.newSession().fluent(def)
}

func checkInput(def *model.TypeDef) error {
	if def == nil {
		return errs.Configuration("", "cannot derive from a nil declaration")
	}
	name := def.FullyQualifiedName()
	if def.Placeholder {
		return errs.Unresolved(name, []string{name})
	}
	if !model.ValidName(name) {
		return errs.Configuration(name, "declaration has no resolvable fully-qualified name")
	}
	return nil
}

func (s *session) fluent(def *model.TypeDef) (*model.TypeDef, error) {
	name := def.FullyQualifiedName()
	fqn := derivedName(def, "", "Fluent")
	entered, err := s.enter(name)
	if err != nil {
		return nil, err
	}
	if !entered {
		// Already on the stack: the caller only needs the name.
		return s.ctx.repo.GetOrPlaceholder(fqn)
	}
	defer s.leave(name)

	super, err := s.ctx.resolveSuper(def)
	if err != nil {
		return nil, err
	}
	if super != nil {
		if _, err := s.fluent(super); err != nil {
			return nil, err
		}
	}
	members, err := s.properties(def)
	if err != nil {
		return nil, err
	}

	shape := newFluentShape(s.ctx, def, fqn)
	shape.extend(def, super)
	for _, m := range members {
		shape.property(m)
	}
	shape.equality(members, super != nil)

	stored, err := s.register(shape.out)
	if err != nil {
		return nil, err
	}
	for _, n := range shape.nested {
		if _, err := s.register(n); err != nil {
			return nil, err
		}
	}
	s.ctx.logger.Debug("fluent derived",
		"type", name,
		"fluent", fqn,
		"properties", len(members),
		"nested", len(shape.nested))
	return stored, nil
}

// fluentShape accumulates one fluent declaration and its nested types.
type fluentShape struct {
	ctx    *Context
	out    *model.TypeDef
	self   model.TypeParamRef
	nested []*model.TypeDef
	names  map[string]bool
}

func newFluentShape(c *Context, def *model.TypeDef, fqn string) *fluentShape {
	pkg, simple := model.SplitName(fqn)
	self := freshParam("A", def.Params)
	selfRef := tp(self)
	params := cloneParams(def.Params)
	bound := model.NewClassRef(fqn, append(paramRefs(def.Params), selfRef)...)
	params = append(params, model.TypeParamDef{Name: self, Bounds: []model.TypeRef{bound}})

	out := &model.TypeDef{
		Kind:      model.KindClass,
		Package:   pkg,
		Name:      simple,
		Modifiers: model.Public,
		Params:    params,
		Constructors: []model.Constructor{
			{Modifiers: model.Public},
			{Modifiers: model.Public, Arguments: []model.Property{arg("instance", def.ToReference())}},
		},
		Attributes: model.Attributes{
			model.AttrRole:        RoleFluent,
			model.AttrDerivedFrom: def.FullyQualifiedName(),
		},
	}
	return &fluentShape{ctx: c, out: out, self: selfRef, names: make(map[string]bool)}
}

func (f *fluentShape) fqn() string { return f.out.FullyQualifiedName() }

// extend wires the super fluent, or the base contracts for a root type.
func (f *fluentShape) extend(def, super *model.TypeDef) {
	if super == nil {
		base := f.ctx.baseRef(BaseFluent, f.self)
		f.out.Super = &base
		f.out.Implements = []model.ClassRef{f.ctx.baseRef(Fluent, f.self)}
		return
	}
	args := make([]model.TypeRef, 0, len(super.Params)+1)
	for i, p := range super.Params {
		if i < len(def.Super.Arguments) {
			args = append(args, def.Super.Arguments[i])
		} else {
			args = append(args, p.EffectiveBounds()[0])
		}
	}
	args = append(args, f.self)
	ref := model.NewClassRef(derivedName(super, "", "Fluent"), args...)
	f.out.Super = &ref
}

func (f *fluentShape) method(accessor string, m member, name string, ret model.TypeRef, args ...model.Property) model.Method {
	attrs := model.Attributes{
		model.AttrAccessor: accessor,
		model.AttrProperty: m.Name,
	}
	if m.inherited {
		attrs[model.AttrInherited] = true
	}
	return model.Method{
		Name:       name,
		Return:     ret,
		Arguments:  args,
		Modifiers:  model.Public,
		Attributes: attrs,
	}
}

func (f *fluentShape) add(methods ...model.Method) {
	f.out.Methods = append(f.out.Methods, methods...)
}

func varargs(m model.Method) model.Method {
	last := len(m.Arguments) - 1
	m.Arguments[last].Type = model.WithDims(m.Arguments[last].Type, m.Arguments[last].Type.Dims()+1)
	m.Varargs = true
	return m
}

func (f *fluentShape) field(m member, typ model.TypeRef, extra model.Attributes) {
	attrs := model.Attributes{model.AttrProperty: m.Name}
	if m.inherited {
		attrs[model.AttrInherited] = true
	}
	for k, v := range extra {
		attrs[k] = v
	}
	f.out.Properties = append(f.out.Properties, model.Property{
		Name:        m.Name,
		Type:        typ,
		Modifiers:   model.Modifiers{Visibility: model.VisibilityPrivate},
		Initializer: m.Initializer,
		Attributes:  attrs,
	})
}

// property emits the field and accessors of one property according to its
// shape: buildable, collection of buildables, plain collection, map or
// scalar.
func (f *fluentShape) property(m member) {
	if elem, ok := model.IsCollection(m.Type); ok {
		elem = model.Unwrap(elem)
		if cls, ok := elem.(model.ClassRef); ok && f.ctx.IsBuildable(cls) {
			f.buildableCollection(m, cls)
		} else {
			f.collection(m, elem)
		}
		return
	}
	if k, v, ok := model.IsMap(m.Type); ok {
		f.mapping(m, k, v)
		return
	}
	if cls, ok := model.Unwrap(m.Type).(model.ClassRef); ok && f.ctx.IsBuildable(cls) {
		f.buildable(m, cls)
		return
	}
	f.scalar(m)
}

func (f *fluentShape) scalar(m member) {
	title := model.Capitalize(m.Name)
	f.field(m, m.Type, nil)
	f.add(
		f.method(AccessorWith, m, "with"+title, f.self, arg(m.Name, m.Type)),
		f.method(AccessorGet, m, "get"+title, m.Type),
		f.method(AccessorHas, m, "has"+title, boolean),
	)
}

func (f *fluentShape) mapping(m member, key, value model.TypeRef) {
	title := model.Capitalize(m.Name)
	f.field(m, m.Type, nil)
	f.add(
		f.method(AccessorWith, m, "with"+title, f.self, arg(m.Name, m.Type)),
		f.method(AccessorPut, m, "addTo"+title, f.self, arg("key", key), arg("value", value)),
		f.method(AccessorAddAll, m, "addTo"+title, f.self, arg("map", m.Type)),
		f.method(AccessorRemove, m, "removeFrom"+title, f.self, arg("key", key)),
		f.method(AccessorGet, m, "get"+title, m.Type),
		f.method(AccessorHas, m, "has"+title, boolean),
	)
}

// collectionOf keeps the collection kind of raw (list or set) for elem;
// arrays become lists.
func collectionOf(raw model.TypeRef, elem model.TypeRef) model.ClassRef {
	if cls, ok := raw.(model.ClassRef); ok && cls.Dimensions == 0 && cls.FullyQualifiedName == model.SetName {
		return model.SetOf(elem)
	}
	return model.ListOf(elem)
}

func (f *fluentShape) collection(m member, elem model.TypeRef) {
	title := model.Capitalize(m.Name)
	all := collectionOf(m.Type, elem)
	f.field(m, m.Type, nil)
	f.add(
		f.method(AccessorWith, m, "with"+title, f.self, arg(m.Name, m.Type)),
		varargs(f.method(AccessorAdd, m, "addTo"+title, f.self, arg("items", elem))),
		f.method(AccessorAddAll, m, "addAllTo"+title, f.self, arg("items", all)),
		varargs(f.method(AccessorRemove, m, "removeFrom"+title, f.self, arg("items", elem))),
		f.method(AccessorRemoveAll, m, "removeAllFrom"+title, f.self, arg("items", all)),
		f.method(AccessorGet, m, "get"+title, m.Type),
		f.method(AccessorHas, m, "has"+title, boolean),
	)
}

func (f *fluentShape) buildable(m member, elem model.ClassRef) {
	title := model.Capitalize(m.Name)
	builder := f.ctx.derivedRef(elem, "", "Builder")
	f.field(m, builder, model.Attributes{
		model.AttrBuildable:    true,
		model.AttrVisitableKey: m.Name,
		model.AttrBuilderType:  builder.String(),
	})
	nested := f.nestedType(m, title, elem, false)
	ret := nested.WithArguments(f.self)
	f.add(
		f.method(AccessorWith, m, "with"+title, f.self, arg(m.Name, m.Type)),
		f.method(AccessorWithBuilder, m, "with"+title+"Builder", f.self, arg("builder", builder)),
		f.method(AccessorGet, m, "get"+title, m.Type),
		f.method(AccessorBuild, m, "build"+title, m.Type),
		f.method(AccessorHas, m, "has"+title, boolean),
		f.method(AccessorWithNew, m, "withNew"+title, ret),
		f.method(AccessorWithNew, m, "withNew"+title+"Like", ret, arg("item", elem)),
		f.method(AccessorEdit, m, "edit"+title, ret),
		f.method(AccessorEdit, m, "editOrNew"+title, ret),
		f.method(AccessorEdit, m, "editOrNew"+title+"Like", ret, arg("item", elem)),
	)
}

func (f *fluentShape) buildableCollection(m member, elem model.ClassRef) {
	title := model.Capitalize(m.Name)
	one := model.Capitalize(singular(m.Name))
	builder := f.ctx.derivedRef(elem, "", "Builder")
	all := collectionOf(m.Type, elem)
	f.field(m, collectionOf(m.Type, builder), model.Attributes{
		model.AttrBuildable:    true,
		model.AttrVisitableKey: m.Name,
		model.AttrBuilderType:  builder.String(),
	})
	nested := f.nestedType(m, one, elem, true)
	ret := nested.WithArguments(f.self)
	index := arg("index", integer)
	f.add(
		f.method(AccessorWith, m, "with"+title, f.self, arg(m.Name, m.Type)),
		varargs(f.method(AccessorAdd, m, "addTo"+title, f.self, arg("items", elem))),
		f.method(AccessorAddAt, m, "addTo"+title, f.self, index, arg("item", elem)),
		f.method(AccessorSet, m, "setTo"+title, f.self, index, arg("item", elem)),
		f.method(AccessorAddFirst, m, "addFirstTo"+title, f.self, arg("item", elem)),
		f.method(AccessorAddLast, m, "addLastTo"+title, f.self, arg("item", elem)),
		f.method(AccessorAddAll, m, "addAllTo"+title, f.self, arg("items", all)),
		varargs(f.method(AccessorRemove, m, "removeFrom"+title, f.self, arg("items", elem))),
		f.method(AccessorRemoveAll, m, "removeAllFrom"+title, f.self, arg("items", all)),
		f.method(AccessorGet, m, "get"+title, m.Type),
		f.method(AccessorBuild, m, "build"+title, all),
		f.method(AccessorBuild, m, "build"+one, elem, index),
		f.method(AccessorBuild, m, "buildFirst"+one, elem),
		f.method(AccessorBuild, m, "buildLast"+one, elem),
		f.method(AccessorHas, m, "has"+title, boolean),
		f.method(AccessorWithNew, m, "addNew"+one, ret),
		f.method(AccessorWithNew, m, "addNew"+one+"Like", ret, arg("item", elem)),
		f.method(AccessorWithNew, m, "setNew"+one+"Like", ret, index, arg("item", elem)),
		f.method(AccessorEdit, m, "edit"+one, ret, index),
		f.method(AccessorEdit, m, "editFirst"+one, ret),
		f.method(AccessorEdit, m, "editLast"+one, ret),
	)
}

// singular names the items of a collection property. Words the inflector
// leaves unchanged get an "Item" suffix so per-item accessors stay distinct.
func singular(name string) string {
	s := inflect.Singularize(name)
	if s == "" || s == name {
		return name + "Item"
	}
	return s
}

// nestedType declares <Base>Nested<N> inside the fluent: a fluent over the
// element type whose and() commits the element back into the parent. It
// returns the reference with N unbound.
func (f *fluentShape) nestedType(m member, base string, elem model.ClassRef, indexed bool) model.ClassRef {
	simple := base + "Nested"
	for i := 2; f.names[simple]; i++ {
		simple = fmt.Sprintf("%sNested%d", base, i)
	}
	f.names[simple] = true

	outer := model.ClassRef{FullyQualifiedName: f.fqn()}
	ref := model.ClassRef{FullyQualifiedName: f.fqn() + "." + simple, Outer: &outer}

	n := freshParam("N", f.out.Params)
	nRef := tp(n)
	selfRef := ref.WithArguments(nRef)
	super := f.ctx.derivedRef(elem, "", "Fluent", selfRef)
	builder := f.ctx.derivedRef(elem, "", "Builder")

	props := []model.Property{{
		Name:      "builder",
		Type:      builder,
		Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate, Final: true},
	}}
	ctorArgs := []model.Property{arg("item", elem)}
	if indexed {
		props = append(props, model.Property{
			Name:      "index",
			Type:      integer,
			Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate, Final: true},
		})
		ctorArgs = []model.Property{arg("index", integer), arg("item", elem)}
	}
	end := model.Capitalize(m.Name)
	if indexed {
		end = base
	}

	nested := &model.TypeDef{
		Kind:         model.KindClass,
		Package:      f.out.Package,
		Name:         simple,
		Outer:        f.out.Name,
		Modifiers:    model.Public,
		Params:       []model.TypeParamDef{{Name: n}},
		Super:        &super,
		Implements:   []model.ClassRef{f.ctx.baseRef(Nested, nRef)},
		Properties:   props,
		Constructors: []model.Constructor{{Arguments: ctorArgs}},
		Methods: []model.Method{
			{Name: "and", Return: nRef, Modifiers: model.Public},
			{Name: "end" + end, Return: nRef, Modifiers: model.Public},
		},
		Attributes: model.Attributes{
			model.AttrRole:         RoleNested,
			model.AttrDerivedFrom:  elem.FullyQualifiedName,
			model.AttrProperty:     m.Name,
			model.AttrVisitableKey: m.Name,
		},
	}
	f.nested = append(f.nested, nested)
	f.out.Nested = append(f.out.Nested, nested.FullyQualifiedName())
	return ref
}

// equality adds equals, hashCode and toString over the declared
// properties only; inherited ones are left to the super fluent.
func (f *fluentShape) equality(members []member, delegates bool) {
	var declared, buildable []string
	for _, m := range members {
		if !m.inherited {
			declared = append(declared, m.Name)
		}
	}
	for _, p := range f.out.Properties {
		if p.Attributes.Bool(model.AttrBuildable) {
			buildable = append(buildable, p.Name)
		}
	}
	f.out.Attributes[model.AttrComparedProperties] = declared
	f.out.Attributes[model.AttrEqualsDelegates] = delegates
	if len(buildable) > 0 {
		f.out.Attributes[model.AttrBuildableProperties] = buildable
	}
	attrs := func() model.Attributes {
		return model.Attributes{
			model.AttrAccessor:           AccessorEquals,
			model.AttrComparedProperties: declared,
			model.AttrEqualsDelegates:    delegates,
		}
	}
	f.add(
		model.Method{Name: "equals", Return: boolean, Arguments: []model.Property{arg("other", objectRef)}, Modifiers: model.Public, Attributes: attrs()},
		model.Method{Name: "hashCode", Return: integer, Modifiers: model.Public, Attributes: attrs()},
		model.Method{Name: "toString", Return: model.String, Modifiers: model.Public, Attributes: attrs()},
	)
}
