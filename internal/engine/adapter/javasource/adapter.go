// Package javasource reads Java type declarations with tree-sitter and
// translates them into canonical declarations.
package javasource

import (
	"fmt"
	"strings"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/model"
)

const Name = "javasource"

// Source is a compilation unit handed to the adapter. Its declaration is
// the first top-level type; every other type in the file is deferred.
type Source struct {
	Path    string
	Content []byte
}

// Decl is one type declared in a parsed file.
type Decl struct {
	file *File
	t    *javaType
}

func (d *Decl) FullyQualifiedName() string {
	return qualify(d.file.Package, d.t.localName())
}

// Decls lists every type declared in f, nested ones included, in source
// order.
func (f *File) Decls() []*Decl {
	out := make([]*Decl, len(f.types))
	for i, t := range f.types {
		out[i] = &Decl{file: f, t: t}
	}
	return out
}

// Well-known library types mapped onto canonical names. Boxed primitives
// collapse onto the primitive.
var wellKnown = map[string]model.TypeRef{
	"java.lang.Object":        model.Object,
	"java.lang.String":        model.String,
	"java.lang.CharSequence":  model.String,
	"java.lang.Boolean":       model.NewPrimitiveRef(model.Boolean),
	"java.lang.Byte":          model.NewPrimitiveRef(model.Byte),
	"java.lang.Short":         model.NewPrimitiveRef(model.Short),
	"java.lang.Integer":       model.NewPrimitiveRef(model.Int),
	"java.lang.Long":          model.NewPrimitiveRef(model.Long),
	"java.lang.Character":     model.NewPrimitiveRef(model.Char),
	"java.lang.Float":         model.NewPrimitiveRef(model.Float),
	"java.lang.Double":        model.NewPrimitiveRef(model.Double),
	"java.lang.Iterable":      model.NewClassRef(model.ListName),
	"java.util.Collection":    model.NewClassRef(model.ListName),
	"java.util.List":          model.NewClassRef(model.ListName),
	"java.util.ArrayList":     model.NewClassRef(model.ListName),
	"java.util.LinkedList":    model.NewClassRef(model.ListName),
	"java.util.Set":           model.NewClassRef(model.SetName),
	"java.util.HashSet":       model.NewClassRef(model.SetName),
	"java.util.LinkedHashSet": model.NewClassRef(model.SetName),
	"java.util.SortedSet":     model.NewClassRef(model.SetName),
	"java.util.TreeSet":       model.NewClassRef(model.SetName),
	"java.util.Map":           model.NewClassRef(model.MapName),
	"java.util.HashMap":       model.NewClassRef(model.MapName),
	"java.util.LinkedHashMap": model.NewClassRef(model.MapName),
	"java.util.SortedMap":     model.NewClassRef(model.MapName),
	"java.util.TreeMap":       model.NewClassRef(model.MapName),
	"java.util.Optional":      model.NewClassRef(model.OptionalName),
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Recognize(handle any) bool {
	switch handle.(type) {
	case Source, *Source, *Decl:
		return true
	}
	return false
}

func (a *Adapter) ToReference(ctx *adapter.Context, handle any) (model.TypeRef, error) {
	d, err := a.decl(ctx, handle)
	if err != nil {
		return nil, err
	}
	ctx.Defer(d.FullyQualifiedName(), d)
	ref := model.NewClassRef(d.FullyQualifiedName())
	for _, p := range d.t.params {
		ref.Arguments = append(ref.Arguments, model.NewTypeParamRef(p.name))
	}
	return ref, nil
}

func (a *Adapter) ToDeclaration(ctx *adapter.Context, handle any) (*model.TypeDef, error) {
	d, err := a.decl(ctx, handle)
	if err != nil {
		return nil, err
	}
	t := d.t
	s := newScope(d.file, t.params)
	def := &model.TypeDef{
		Kind:      t.kind,
		Package:   d.file.Package,
		Name:      t.name,
		Outer:     t.outer,
		Modifiers: t.mods,
	}
	if t.kind == model.KindInterface || t.kind == model.KindAnnotation {
		def.Modifiers.Abstract = true
	}
	def.Params = a.params(ctx, s, t.params)
	if t.super != nil {
		if ref, ok := a.resolve(ctx, s, t.super).(model.ClassRef); ok && !model.IsObject(ref) {
			def.Super = &ref
		}
	}
	for _, e := range t.ifaces {
		if ref, ok := a.resolve(ctx, s, e).(model.ClassRef); ok {
			def.Implements = append(def.Implements, ref)
		}
	}
	def.Annotations = a.annotations(s, t.annotations)
	for _, n := range t.nested {
		nested := &Decl{file: d.file, t: n}
		def.Nested = append(def.Nested, nested.FullyQualifiedName())
		ctx.Defer(nested.FullyQualifiedName(), nested)
	}

	members := a.members(ctx, s, t)
	def.Properties = members.Properties
	def.Methods = members.Methods
	def.Constructors = members.Constructors
	return def, nil
}

func (a *Adapter) MembersOf(ctx *adapter.Context, handle any) (adapter.Members, error) {
	d, err := a.decl(ctx, handle)
	if err != nil {
		return adapter.Members{}, err
	}
	return a.members(ctx, newScope(d.file, d.t.params), d.t), nil
}

func (a *Adapter) members(ctx *adapter.Context, s *scope, t *javaType) adapter.Members {
	var m adapter.Members
	iface := t.kind == model.KindInterface || t.kind == model.KindAnnotation
	for _, f := range t.fields {
		if f.mods.Static {
			continue
		}
		m.Properties = append(m.Properties, a.property(ctx, s, f))
	}
	for _, jm := range t.methods {
		ms := s.with(jm.params)
		method := model.Method{
			Name:        jm.name,
			Params:      a.params(ctx, ms, jm.params),
			Return:      a.resolve(ctx, ms, jm.ret),
			Varargs:     jm.varargs,
			Modifiers:   jm.mods,
			Annotations: a.annotations(ms, jm.annotations),
		}
		if iface {
			if method.Modifiers.Visibility == model.VisibilityPackage {
				method.Modifiers.Visibility = model.VisibilityPublic
			}
			method.Modifiers.Abstract = !jm.hasBody && !jm.isDefault && !jm.mods.Static
		}
		for _, arg := range jm.args {
			method.Arguments = append(method.Arguments, a.property(ctx, ms, arg))
		}
		m.Methods = append(m.Methods, method)
	}
	for _, jc := range t.ctors {
		ctor := model.Constructor{Modifiers: jc.mods}
		for _, arg := range jc.args {
			ctor.Arguments = append(ctor.Arguments, a.property(ctx, s, arg))
		}
		m.Constructors = append(m.Constructors, ctor)
	}
	if len(t.ctors) == 0 && t.kind == model.KindClass {
		m.Constructors = []model.Constructor{{
			Modifiers:  model.Public,
			Attributes: model.Attributes{model.AttrSynthesized: true},
		}}
	}
	return m
}

func (a *Adapter) property(ctx *adapter.Context, s *scope, f javaField) model.Property {
	return model.Property{
		Name:        f.name,
		Type:        a.resolve(ctx, s, f.typ),
		Modifiers:   f.mods,
		Initializer: f.init,
		Annotations: a.annotations(s, f.annotations),
	}
}

func (a *Adapter) params(ctx *adapter.Context, s *scope, params []javaParam) []model.TypeParamDef {
	var out []model.TypeParamDef
	for _, p := range params {
		def := model.TypeParamDef{Name: p.name}
		for _, b := range p.bounds {
			ref := a.resolve(ctx, s, b)
			if !model.IsObject(ref) {
				def.Bounds = append(def.Bounds, ref)
			}
		}
		out = append(out, def)
	}
	return out
}

func (a *Adapter) annotations(s *scope, anns []javaAnnotation) []model.AnnotationRef {
	var out []model.AnnotationRef
	for _, ann := range anns {
		out = append(out, model.AnnotationRef{
			Class:  model.NewClassRef(s.qualify(ann.name)),
			Values: ann.values,
		})
	}
	return out
}

// resolve turns a written type into a reference, deferring every class it
// names.
func (a *Adapter) resolve(ctx *adapter.Context, s *scope, e *typeExpr) model.TypeRef {
	if e == nil {
		return model.NewPrimitiveRef(model.Void)
	}
	if e.wildcard {
		w := model.WildcardRef{Bound: e.bound}
		if e.boundType != nil {
			w.Type = a.resolve(ctx, s, e.boundType)
		} else {
			w.Bound = model.BoundNone
		}
		return w
	}
	if e.primitive != "" {
		return model.PrimitiveRef{Kind: e.primitive, Dimensions: e.dims}
	}
	if s.params[e.name] {
		return model.TypeParamRef{Name: e.name, Dimensions: e.dims}
	}

	fqn := s.qualify(e.name)
	var args []model.TypeRef
	for _, arg := range e.args {
		args = append(args, a.resolve(ctx, s, arg))
	}
	if known, ok := wellKnown[fqn]; ok {
		if c, isClass := known.(model.ClassRef); isClass {
			c.Arguments = args
			c.Dimensions = e.dims
			return c
		}
		return model.WithDims(known, e.dims)
	}
	ref := model.ClassRef{FullyQualifiedName: fqn, Arguments: args, Dimensions: e.dims}
	if local, ok := s.decls[fqn]; ok {
		ctx.Defer(fqn, local)
	} else {
		ctx.Defer(fqn, nil)
	}
	return ref
}

func (a *Adapter) decl(ctx *adapter.Context, handle any) (*Decl, error) {
	switch h := handle.(type) {
	case *Decl:
		return h, nil
	case *Source:
		if h == nil {
			break
		}
		return a.decl(ctx, *h)
	case Source:
		f, err := Parse(h.Path, h.Content)
		if err != nil {
			return nil, err
		}
		decls := f.Decls()
		if len(decls) == 0 {
			return nil, errs.Configuration("", "source declares no types").WithContext(errs.CtxPath, h.Path)
		}
		for _, d := range decls[1:] {
			ctx.Defer(d.FullyQualifiedName(), d)
		}
		return decls[0], nil
	}
	return nil, errs.New(errs.CodeNotSupported, fmt.Sprintf("javasource adapter cannot handle %T", handle))
}

// scope resolves simple names the way javac does for the subset we read:
// type parameters, types of the same file, explicit imports, java.lang,
// wildcard imports of well-known packages, then the current package.
type scope struct {
	file   *File
	params map[string]bool
	local  map[string]string
	decls  map[string]*Decl
}

func newScope(f *File, params []javaParam) *scope {
	s := &scope{
		file:   f,
		params: make(map[string]bool),
		local:  make(map[string]string),
		decls:  make(map[string]*Decl),
	}
	for _, d := range f.Decls() {
		fqn := d.FullyQualifiedName()
		s.decls[fqn] = d
		if _, taken := s.local[d.t.name]; !taken {
			s.local[d.t.name] = fqn
		}
		s.local[d.t.localName()] = fqn
	}
	for _, p := range params {
		s.params[p.name] = true
	}
	return s
}

// with returns a scope that also sees a method's own type parameters.
func (s *scope) with(params []javaParam) *scope {
	if len(params) == 0 {
		return s
	}
	out := &scope{file: s.file, params: make(map[string]bool, len(s.params)+len(params)), local: s.local, decls: s.decls}
	for k := range s.params {
		out.params[k] = true
	}
	for _, p := range params {
		out.params[p.name] = true
	}
	return out
}

func (s *scope) qualify(name string) string {
	head, rest, dotted := strings.Cut(name, ".")
	if dotted {
		if fqn, ok := s.local[name]; ok {
			return fqn
		}
		if fqn, ok := s.local[head]; ok {
			return fqn + "." + rest
		}
		if fqn, ok := s.file.imports[head]; ok {
			return fqn + "." + rest
		}
		return name
	}
	if fqn, ok := s.local[name]; ok {
		return fqn
	}
	if fqn, ok := s.file.imports[name]; ok {
		return fqn
	}
	if _, ok := wellKnown["java.lang."+name]; ok || isJavaLang(name) {
		return "java.lang." + name
	}
	for _, pkg := range s.file.wildcard {
		if _, ok := wellKnown[pkg+"."+name]; ok {
			return pkg + "." + name
		}
	}
	return qualify(s.file.Package, name)
}

// isJavaLang covers java.lang types that are not mapped but must not be
// mistaken for same-package types.
func isJavaLang(name string) bool {
	switch name {
	case "Override", "Deprecated", "SuppressWarnings", "FunctionalInterface", "SafeVarargs",
		"Number", "Enum", "Record", "Class", "Void", "Comparable", "Cloneable", "Runnable",
		"Exception", "RuntimeException", "Throwable", "Error":
		return true
	}
	return false
}

func qualify(pkg, local string) string {
	if pkg == "" {
		return local
	}
	return pkg + "." + local
}

// IsSource reports whether path names a Java compilation unit.
func IsSource(path string) bool {
	return strings.HasSuffix(path, ".java") && !strings.HasSuffix(path, "module-info.java") &&
		!strings.HasSuffix(path, "package-info.java")
}
