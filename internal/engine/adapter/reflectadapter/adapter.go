// Package reflectadapter translates compiled Go types, seen through
// reflect.Type, into canonical declarations.
package reflectadapter

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/model"
	"fluentgen/internal/shared/observability"
)

const Name = "reflect"

const defaultCacheSize = 1024

type dep struct {
	name string
	t    reflect.Type
}

type cached struct {
	ref  model.TypeRef
	deps []dep
}

// Adapter handles reflect.Type values. Translated references are kept in an
// LRU cache keyed by type; deferred dependencies are replayed on every hit so
// each adaptation context still sees them.
type Adapter struct {
	cache *lru.Cache[reflect.Type, cached]
}

func New(cacheSize int) (*Adapter, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[reflect.Type, cached](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create reference cache: %w", err)
	}
	return &Adapter{cache: cache}, nil
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Recognize(handle any) bool {
	_, ok := handle.(reflect.Type)
	return ok
}

func (a *Adapter) ToReference(ctx *adapter.Context, handle any) (model.TypeRef, error) {
	t, err := typeOf(handle)
	if err != nil {
		return nil, err
	}
	entry, ok := a.cache.Get(t)
	if ok {
		observability.AdapterCacheHitsTotal.WithLabelValues(Name).Inc()
	} else {
		var deps []dep
		entry = cached{ref: translate(t, &deps), deps: deps}
		a.cache.Add(t, entry)
	}
	for _, d := range entry.deps {
		ctx.Defer(d.name, d.t)
	}
	return entry.ref, nil
}

func (a *Adapter) ToDeclaration(ctx *adapter.Context, handle any) (*model.TypeDef, error) {
	t, err := typeOf(handle)
	if err != nil {
		return nil, err
	}
	t = deref(t)
	name := typeName(t)
	if name == "" {
		return nil, errs.Configuration(t.String(), "only named types have declarations")
	}

	def := &model.TypeDef{
		Kind:      model.KindClass,
		Package:   t.PkgPath(),
		Name:      simpleName(t),
		Modifiers: model.Public,
	}
	switch t.Kind() {
	case reflect.Struct:
		super, ifaces, err := a.embedded(ctx, t)
		if err != nil {
			return nil, err
		}
		def.Super = super
		def.Implements = ifaces
	case reflect.Interface:
		def.Kind = model.KindInterface
		def.Modifiers.Abstract = true
	default:
		return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("no declaration for %s kind %s", name, t.Kind()))
	}

	members, err := a.MembersOf(ctx, t)
	if err != nil {
		return nil, errs.AddContext(err, errs.CtxType, name)
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
	t = deref(t)
	var m adapter.Members

	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if len(f.Index) != 1 || f.Anonymous || !f.IsExported() {
				continue
			}
			ref, err := a.ToReference(ctx, f.Type)
			if err != nil {
				return adapter.Members{}, errs.AddContext(err, errs.CtxMember, f.Name)
			}
			m.Properties = append(m.Properties, model.Property{
				Name:       propertyName(f),
				Type:       ref,
				Modifiers:  model.Public,
				Attributes: model.Attributes{model.AttrSourceName: f.Name},
			})
		}
		ctor, err := a.literalConstructor(ctx, t, m.Properties)
		if err != nil {
			return adapter.Members{}, err
		}
		m.Constructors = []model.Constructor{ctor}
	}

	methods, err := a.methods(ctx, t)
	if err != nil {
		return adapter.Members{}, err
	}
	m.Methods = methods
	return m, nil
}

// embedded splits anonymous fields into the super-type (first embedded
// struct) and implemented interfaces.
func (a *Adapter) embedded(ctx *adapter.Context, t reflect.Type) (*model.ClassRef, []model.ClassRef, error) {
	var super *model.ClassRef
	var ifaces []model.ClassRef
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := deref(f.Type)
		ref, err := a.ToReference(ctx, ft)
		if err != nil {
			return nil, nil, err
		}
		c, ok := ref.(model.ClassRef)
		if !ok || model.IsBuiltin(c.FullyQualifiedName) {
			continue
		}
		switch {
		case ft.Kind() == reflect.Struct && super == nil:
			super = &c
		case ft.Kind() == reflect.Interface:
			ifaces = append(ifaces, c)
		}
	}
	return super, ifaces, nil
}

// literalConstructor is the composite literal: inherited properties first,
// then the declared ones, in field order.
func (a *Adapter) literalConstructor(ctx *adapter.Context, t reflect.Type, declared []model.Property) (model.Constructor, error) {
	var args []model.Property
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || deref(f.Type).Kind() != reflect.Struct || typeName(deref(f.Type)) == "" {
			continue
		}
		inherited, err := a.MembersOf(ctx, deref(f.Type))
		if err != nil {
			return model.Constructor{}, err
		}
		shadowed := make(map[string]bool, len(declared))
		for _, p := range declared {
			shadowed[p.Name] = true
		}
		if len(inherited.Constructors) > 0 {
			for _, arg := range inherited.Constructors[0].Arguments {
				if !shadowed[arg.Name] {
					args = append(args, arg)
				}
			}
		}
		break
	}
	args = append(args, declared...)
	return model.Constructor{
		Arguments:  args,
		Modifiers:  model.Public,
		Attributes: model.Attributes{model.AttrSynthesized: true},
	}, nil
}

func (a *Adapter) methods(ctx *adapter.Context, t reflect.Type) ([]model.Method, error) {
	set := t
	receiver := 0
	if t.Kind() != reflect.Interface {
		set = reflect.PointerTo(t)
		receiver = 1
	}
	var out []model.Method
	for i := 0; i < set.NumMethod(); i++ {
		rm := set.Method(i)
		if !rm.IsExported() {
			continue
		}
		ft := rm.Type
		m := model.Method{Name: model.Decapitalize(rm.Name), Modifiers: model.Public, Varargs: ft.IsVariadic()}
		if t.Kind() == reflect.Interface {
			m.Modifiers.Abstract = true
		}
		for j := receiver; j < ft.NumIn(); j++ {
			ref, err := a.ToReference(ctx, ft.In(j))
			if err != nil {
				return nil, errs.AddContext(err, errs.CtxMember, rm.Name)
			}
			m.Arguments = append(m.Arguments, model.Property{Name: fmt.Sprintf("arg%d", j-receiver), Type: ref})
		}
		m.Return = model.NewPrimitiveRef(model.Void)
		if ft.NumOut() > 0 {
			ref, err := a.ToReference(ctx, ft.Out(0))
			if err != nil {
				return nil, errs.AddContext(err, errs.CtxMember, rm.Name)
			}
			m.Return = ref
		}
		m.Attributes = model.Attributes{model.AttrSourceName: rm.Name}
		out = append(out, m)
	}
	return out, nil
}

// translate maps a Go type onto a canonical reference, collecting the named
// types it mentions.
func translate(t reflect.Type, deps *[]dep) model.TypeRef {
	switch t.Kind() {
	case reflect.Pointer:
		return translate(t.Elem(), deps)
	case reflect.Bool:
		return model.NewPrimitiveRef(model.Boolean)
	case reflect.Int8, reflect.Uint8:
		return model.NewPrimitiveRef(model.Byte)
	case reflect.Int16, reflect.Uint16:
		return model.NewPrimitiveRef(model.Short)
	case reflect.Int32, reflect.Uint32:
		return model.NewPrimitiveRef(model.Int)
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return model.NewPrimitiveRef(model.Long)
	case reflect.Float32:
		return model.NewPrimitiveRef(model.Float)
	case reflect.Float64:
		return model.NewPrimitiveRef(model.Double)
	case reflect.String:
		return model.String
	case reflect.Slice:
		return model.ListOf(translate(t.Elem(), deps))
	case reflect.Array:
		elem := translate(t.Elem(), deps)
		return model.WithDims(elem, elem.Dims()+1)
	case reflect.Map:
		return model.MapOf(translate(t.Key(), deps), translate(t.Elem(), deps))
	case reflect.Struct, reflect.Interface:
		name := typeName(t)
		if name == "" {
			return model.Object
		}
		*deps = append(*deps, dep{name: name, t: t})
		return model.NewClassRef(name)
	default:
		return model.Object
	}
}

// typeName is the fully-qualified name of a named type, empty otherwise.
// Generic instantiations drop their argument list.
func typeName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return t.PkgPath() + "." + simpleName(t)
}

func simpleName(t reflect.Type) string {
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func propertyName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return model.Decapitalize(f.Name)
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeOf(handle any) (reflect.Type, error) {
	t, ok := handle.(reflect.Type)
	if !ok || t == nil {
		return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("reflect adapter cannot handle %T", handle))
	}
	return t, nil
}
