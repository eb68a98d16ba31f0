// Package gotypes translates compiler symbols from go/types into canonical
// declarations. It sees what reflection can not: type parameters with their
// constraints, parameter names, and NewX constructor functions.
package gotypes

import (
	"fmt"
	"go/types"
	"reflect"
	"strings"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/model"
)

const Name = "gotypes"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Recognize(handle any) bool {
	switch handle.(type) {
	case *types.TypeName, types.Type:
		return true
	}
	return false
}

func (a *Adapter) ToReference(ctx *adapter.Context, handle any) (model.TypeRef, error) {
	t, err := typeOf(handle)
	if err != nil {
		return nil, err
	}
	return a.translate(ctx, t), nil
}

func (a *Adapter) ToDeclaration(ctx *adapter.Context, handle any) (*model.TypeDef, error) {
	t, err := typeOf(handle)
	if err != nil {
		return nil, err
	}
	named, ok := deref(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return nil, errs.Configuration(t.String(), "only named package types have declarations")
	}
	named = named.Origin()
	obj := named.Obj()

	def := &model.TypeDef{
		Kind:      model.KindClass,
		Package:   obj.Pkg().Path(),
		Name:      obj.Name(),
		Modifiers: model.Public,
	}
	if !obj.Exported() {
		def.Modifiers.Visibility = model.VisibilityPackage
	}
	for i := 0; i < named.TypeParams().Len(); i++ {
		tp := named.TypeParams().At(i)
		def.Params = append(def.Params, model.TypeParamDef{
			Name:   tp.Obj().Name(),
			Bounds: a.bounds(ctx, tp.Constraint()),
		})
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if !f.Embedded() {
				continue
			}
			ref, ok := a.translate(ctx, f.Type()).(model.ClassRef)
			if !ok || model.IsBuiltin(ref.FullyQualifiedName) {
				continue
			}
			switch deref(f.Type()).Underlying().(type) {
			case *types.Struct:
				if def.Super == nil {
					def.Super = &ref
				}
			case *types.Interface:
				def.Implements = append(def.Implements, ref)
			}
		}
	case *types.Interface:
		def.Kind = model.KindInterface
		def.Modifiers.Abstract = true
		for i := 0; i < u.NumEmbeddeds(); i++ {
			if ref, ok := a.translate(ctx, u.EmbeddedType(i)).(model.ClassRef); ok && !model.IsBuiltin(ref.FullyQualifiedName) {
				def.Implements = append(def.Implements, ref)
			}
		}
	default:
		return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("no declaration for %s with underlying %s", obj.Name(), u))
	}

	members, err := a.MembersOf(ctx, named)
	if err != nil {
		return nil, errs.AddContext(err, errs.CtxType, def.FullyQualifiedName())
	}
	def.Properties = members.Properties
	def.Methods = members.Methods
	def.Constructors = members.Constructors
	return def, nil
}

func (a *Adapter) MembersOf(ctx *adapter.Context, handle any) (adapter.Members, error) {
	t, err := typeOf(handle)
	if err != nil {
		return adapter.Members{}, err
	}
	named, ok := deref(t).(*types.Named)
	if !ok {
		return adapter.Members{}, errs.Configuration(t.String(), "only named types have members")
	}
	named = named.Origin()

	var m adapter.Members
	switch u := named.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if f.Embedded() || !f.Exported() {
				continue
			}
			m.Properties = append(m.Properties, model.Property{
				Name:       propertyName(f.Name(), u.Tag(i)),
				Type:       a.translate(ctx, f.Type()),
				Modifiers:  model.Public,
				Attributes: model.Attributes{model.AttrSourceName: f.Name()},
			})
		}
		m.Constructors = append(m.Constructors, a.literalConstructor(ctx, u, m.Properties))
		m.Constructors = append(m.Constructors, a.constructorFuncs(ctx, named)...)
		for i := 0; i < named.NumMethods(); i++ {
			if fn := named.Method(i); fn.Exported() {
				m.Methods = append(m.Methods, a.method(ctx, fn, false))
			}
		}
	case *types.Interface:
		for i := 0; i < u.NumMethods(); i++ {
			if fn := u.Method(i); fn.Exported() {
				m.Methods = append(m.Methods, a.method(ctx, fn, true))
			}
		}
	}
	return m, nil
}

func (a *Adapter) literalConstructor(ctx *adapter.Context, st *types.Struct, declared []model.Property) model.Constructor {
	var args []model.Property
	shadowed := make(map[string]bool, len(declared))
	for _, p := range declared {
		shadowed[p.Name] = true
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		inner, ok := deref(f.Type()).Underlying().(*types.Struct)
		if !ok {
			continue
		}
		if _, named := deref(f.Type()).(*types.Named); !named {
			continue
		}
		var inheritedDeclared []model.Property
		for j := 0; j < inner.NumFields(); j++ {
			g := inner.Field(j)
			if g.Embedded() || !g.Exported() {
				continue
			}
			inheritedDeclared = append(inheritedDeclared, model.Property{
				Name:       propertyName(g.Name(), inner.Tag(j)),
				Type:       a.translate(ctx, g.Type()),
				Modifiers:  model.Public,
				Attributes: model.Attributes{model.AttrSourceName: g.Name()},
			})
		}
		for _, arg := range a.literalConstructor(ctx, inner, inheritedDeclared).Arguments {
			if !shadowed[arg.Name] {
				args = append(args, arg)
			}
		}
		break
	}
	args = append(args, declared...)
	return model.Constructor{
		Arguments:  args,
		Modifiers:  model.Public,
		Attributes: model.Attributes{model.AttrSynthesized: true},
	}
}

// constructorFuncs finds package-level NewX functions returning X or *X.
func (a *Adapter) constructorFuncs(ctx *adapter.Context, named *types.Named) []model.Constructor {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return nil
	}
	scope := obj.Pkg().Scope()
	var out []model.Constructor
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || !strings.HasPrefix(name, "New") {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Results().Len() == 0 {
			continue
		}
		res, ok := deref(sig.Results().At(0).Type()).(*types.Named)
		if !ok || res.Origin().Obj() != obj {
			continue
		}
		ctor := model.Constructor{
			Arguments:  a.arguments(ctx, sig),
			Modifiers:  model.Public,
			Attributes: model.Attributes{model.AttrSourceName: name},
		}
		if !fn.Exported() {
			ctor.Modifiers.Visibility = model.VisibilityPackage
		}
		out = append(out, ctor)
	}
	return out
}

func (a *Adapter) method(ctx *adapter.Context, fn *types.Func, abstract bool) model.Method {
	sig := fn.Type().(*types.Signature)
	m := model.Method{
		Name:       model.Decapitalize(fn.Name()),
		Arguments:  a.arguments(ctx, sig),
		Varargs:    sig.Variadic(),
		Modifiers:  model.Public,
		Return:     model.NewPrimitiveRef(model.Void),
		Attributes: model.Attributes{model.AttrSourceName: fn.Name()},
	}
	m.Modifiers.Abstract = abstract
	for i := 0; i < sig.TypeParams().Len(); i++ {
		tp := sig.TypeParams().At(i)
		m.Params = append(m.Params, model.TypeParamDef{Name: tp.Obj().Name(), Bounds: a.bounds(ctx, tp.Constraint())})
	}
	if sig.Results().Len() > 0 {
		m.Return = a.translate(ctx, sig.Results().At(0).Type())
	}
	return m
}

func (a *Adapter) arguments(ctx *adapter.Context, sig *types.Signature) []model.Property {
	var out []model.Property
	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		t := p.Type()
		if sig.Variadic() && i == sig.Params().Len()-1 {
			if s, ok := t.(*types.Slice); ok {
				t = s.Elem()
			}
		}
		out = append(out, model.Property{Name: name, Type: a.translate(ctx, t)})
	}
	return out
}

// bounds turns a constraint into bound references. A plain any yields none;
// a named constraint is a single bound; an interface literal contributes its
// named embedded types.
func (a *Adapter) bounds(ctx *adapter.Context, constraint types.Type) []model.TypeRef {
	constraint = types.Unalias(constraint)
	if named, ok := constraint.(*types.Named); ok {
		if named.Obj().Pkg() == nil {
			return nil
		}
		return []model.TypeRef{a.translate(ctx, named)}
	}
	iface, ok := constraint.Underlying().(*types.Interface)
	if !ok {
		return nil
	}
	var out []model.TypeRef
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		if named, ok := types.Unalias(iface.EmbeddedType(i)).(*types.Named); ok && named.Obj().Pkg() != nil {
			out = append(out, a.translate(ctx, named))
		}
	}
	return out
}

func (a *Adapter) translate(ctx *adapter.Context, t types.Type) model.TypeRef {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return basic(t)
	case *types.Pointer:
		return a.translate(ctx, t.Elem())
	case *types.Slice:
		return model.ListOf(a.translate(ctx, t.Elem()))
	case *types.Array:
		elem := a.translate(ctx, t.Elem())
		return model.WithDims(elem, elem.Dims()+1)
	case *types.Map:
		return model.MapOf(a.translate(ctx, t.Key()), a.translate(ctx, t.Elem()))
	case *types.TypeParam:
		return model.NewTypeParamRef(t.Obj().Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return model.Object
		}
		switch t.Underlying().(type) {
		case *types.Struct, *types.Interface:
		default:
			return a.translate(ctx, t.Underlying())
		}
		name := obj.Pkg().Path() + "." + obj.Name()
		ref := model.NewClassRef(name)
		if args := t.TypeArgs(); args != nil {
			for i := 0; i < args.Len(); i++ {
				ref.Arguments = append(ref.Arguments, a.translate(ctx, args.At(i)))
			}
		}
		ctx.Defer(name, t.Origin())
		return ref
	default:
		return model.Object
	}
}

func basic(t *types.Basic) model.TypeRef {
	switch t.Kind() {
	case types.Bool, types.UntypedBool:
		return model.NewPrimitiveRef(model.Boolean)
	case types.Int8, types.Uint8:
		return model.NewPrimitiveRef(model.Byte)
	case types.Int16, types.Uint16:
		return model.NewPrimitiveRef(model.Short)
	case types.Int32, types.Uint32, types.UntypedRune:
		return model.NewPrimitiveRef(model.Int)
	case types.Int, types.Int64, types.Uint, types.Uint64, types.Uintptr, types.UntypedInt:
		return model.NewPrimitiveRef(model.Long)
	case types.Float32:
		return model.NewPrimitiveRef(model.Float)
	case types.Float64, types.UntypedFloat:
		return model.NewPrimitiveRef(model.Double)
	case types.String, types.UntypedString:
		return model.String
	default:
		return model.Object
	}
}

func propertyName(field, tag string) string {
	if name, ok := reflect.StructTag(tag).Lookup("json"); ok {
		if name, _, _ = strings.Cut(name, ","); name != "" && name != "-" {
			return name
		}
	}
	return model.Decapitalize(field)
}

func deref(t types.Type) types.Type {
	t = types.Unalias(t)
	for {
		p, ok := t.(*types.Pointer)
		if !ok {
			return t
		}
		t = types.Unalias(p.Elem())
	}
}

func typeOf(handle any) (types.Type, error) {
	switch h := handle.(type) {
	case *types.TypeName:
		return h.Type(), nil
	case types.Type:
		if h != nil {
			return h, nil
		}
	}
	return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("gotypes adapter cannot handle %T", handle))
}
