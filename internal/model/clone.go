package model

import (
	"reflect"
	"strings"
)

// CloneRef deep-copies a reference.
func CloneRef(ref TypeRef) TypeRef {
	return MapRef(ref, func(r TypeRef) TypeRef { return r })
}

// MapRef rebuilds ref bottom-up, applying fn to every nested reference
// (arguments, wildcard bounds, outer) and finally to ref itself.
func MapRef(ref TypeRef, fn func(TypeRef) TypeRef) TypeRef {
	switch r := ref.(type) {
	case nil:
		return nil
	case ClassRef:
		out := ClassRef{FullyQualifiedName: r.FullyQualifiedName, Dimensions: r.Dimensions}
		if len(r.Arguments) > 0 {
			out.Arguments = make([]TypeRef, len(r.Arguments))
			for i, arg := range r.Arguments {
				out.Arguments[i] = MapRef(arg, fn)
			}
		}
		if r.Outer != nil {
			if outer, ok := MapRef(*r.Outer, fn).(ClassRef); ok {
				out.Outer = &outer
			}
		}
		return fn(out)
	case WildcardRef:
		return fn(WildcardRef{Bound: r.Bound, Type: MapRef(r.Type, fn)})
	default:
		return fn(r)
	}
}

func mapRefs(refs []TypeRef, fn func(TypeRef) TypeRef) []TypeRef {
	if refs == nil {
		return nil
	}
	out := make([]TypeRef, len(refs))
	for i, r := range refs {
		out[i] = MapRef(r, fn)
	}
	return out
}

func mapClassRef(ref ClassRef, fn func(TypeRef) TypeRef) ClassRef {
	if c, ok := MapRef(ref, fn).(ClassRef); ok {
		return c
	}
	return ref
}

// RewriteRefs returns a deep copy of def with fn applied to every reference
// it holds.
func RewriteRefs(def *TypeDef, fn func(TypeRef) TypeRef) *TypeDef {
	if def == nil {
		return nil
	}
	out := &TypeDef{
		Kind:        def.Kind,
		Package:     def.Package,
		Name:        def.Name,
		Outer:       def.Outer,
		Modifiers:   def.Modifiers,
		Params:      mapParams(def.Params, fn),
		Properties:  mapProperties(def.Properties, fn),
		Annotations: mapAnnotations(def.Annotations, fn),
		Nested:      cloneStrings(def.Nested),
		Attributes:  cloneAttributes(def.Attributes),
		Placeholder: def.Placeholder,
	}
	if def.Super != nil {
		super := mapClassRef(*def.Super, fn)
		out.Super = &super
	}
	if def.Implements != nil {
		out.Implements = make([]ClassRef, len(def.Implements))
		for i, iface := range def.Implements {
			out.Implements[i] = mapClassRef(iface, fn)
		}
	}
	if def.Methods != nil {
		out.Methods = make([]Method, len(def.Methods))
		for i, m := range def.Methods {
			out.Methods[i] = Method{
				Name:        m.Name,
				Params:      mapParams(m.Params, fn),
				Return:      MapRef(m.Return, fn),
				Arguments:   mapProperties(m.Arguments, fn),
				Varargs:     m.Varargs,
				Modifiers:   m.Modifiers,
				Body:        cloneBlock(m.Body),
				Annotations: mapAnnotations(m.Annotations, fn),
				Attributes:  cloneAttributes(m.Attributes),
			}
		}
	}
	if def.Constructors != nil {
		out.Constructors = make([]Constructor, len(def.Constructors))
		for i, c := range def.Constructors {
			out.Constructors[i] = Constructor{
				Arguments:  mapProperties(c.Arguments, fn),
				Modifiers:  c.Modifiers,
				Body:       cloneBlock(c.Body),
				Attributes: cloneAttributes(c.Attributes),
			}
		}
	}
	return out
}

// Clone deep-copies a declaration.
func Clone(def *TypeDef) *TypeDef {
	return RewriteRefs(def, func(r TypeRef) TypeRef { return r })
}

// Relocate moves def and every reference into package from over to package
// to. Nested names under from move along.
func Relocate(def *TypeDef, from, to string) *TypeDef {
	out := RewriteRefs(def, func(r TypeRef) TypeRef {
		c, ok := r.(ClassRef)
		if !ok {
			return r
		}
		c.FullyQualifiedName = relocateName(c.FullyQualifiedName, from, to)
		return c
	})
	if out == nil {
		return nil
	}
	if out.Package == from {
		out.Package = to
	}
	for i, n := range out.Nested {
		out.Nested[i] = relocateName(n, from, to)
	}
	return out
}

func relocateName(fqn, from, to string) string {
	if from == "" {
		if strings.Contains(fqn, ".") || IsBuiltin(fqn) {
			return fqn
		}
		return joinName(to, fqn)
	}
	if strings.HasPrefix(fqn, from+".") {
		return joinName(to, strings.TrimPrefix(fqn, from+"."))
	}
	return fqn
}

// StructurallyEqual compares two declarations by content. The origin
// attribute is ignored, as are nil versus empty collections.
func StructurallyEqual(a, b *TypeDef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(def *TypeDef) *TypeDef {
	out := Clone(def)
	delete(out.Attributes, AttrOrigin)
	if len(out.Attributes) == 0 {
		out.Attributes = nil
	}
	if len(out.Params) == 0 {
		out.Params = nil
	}
	if len(out.Implements) == 0 {
		out.Implements = nil
	}
	if len(out.Properties) == 0 {
		out.Properties = nil
	}
	if len(out.Methods) == 0 {
		out.Methods = nil
	}
	if len(out.Constructors) == 0 {
		out.Constructors = nil
	}
	if len(out.Annotations) == 0 {
		out.Annotations = nil
	}
	if len(out.Nested) == 0 {
		out.Nested = nil
	}
	for i := range out.Properties {
		normalizeProperty(&out.Properties[i])
	}
	for i := range out.Methods {
		m := &out.Methods[i]
		if len(m.Params) == 0 {
			m.Params = nil
		}
		if len(m.Arguments) == 0 {
			m.Arguments = nil
		}
		if len(m.Annotations) == 0 {
			m.Annotations = nil
		}
		if len(m.Attributes) == 0 {
			m.Attributes = nil
		}
		for j := range m.Arguments {
			normalizeProperty(&m.Arguments[j])
		}
	}
	for i := range out.Constructors {
		c := &out.Constructors[i]
		if len(c.Arguments) == 0 {
			c.Arguments = nil
		}
		if len(c.Attributes) == 0 {
			c.Attributes = nil
		}
		for j := range c.Arguments {
			normalizeProperty(&c.Arguments[j])
		}
	}
	return out
}

func normalizeProperty(p *Property) {
	if len(p.Annotations) == 0 {
		p.Annotations = nil
	}
	if len(p.Attributes) == 0 {
		p.Attributes = nil
	}
}

func mapParams(params []TypeParamDef, fn func(TypeRef) TypeRef) []TypeParamDef {
	if params == nil {
		return nil
	}
	out := make([]TypeParamDef, len(params))
	for i, p := range params {
		out[i] = TypeParamDef{Name: p.Name, Bounds: mapRefs(p.Bounds, fn)}
	}
	return out
}

func mapProperties(props []Property, fn func(TypeRef) TypeRef) []Property {
	if props == nil {
		return nil
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = Property{
			Name:        p.Name,
			Type:        MapRef(p.Type, fn),
			Modifiers:   p.Modifiers,
			Initializer: p.Initializer,
			Annotations: mapAnnotations(p.Annotations, fn),
			Attributes:  cloneAttributes(p.Attributes),
		}
	}
	return out
}

func mapAnnotations(anns []AnnotationRef, fn func(TypeRef) TypeRef) []AnnotationRef {
	if anns == nil {
		return nil
	}
	out := make([]AnnotationRef, len(anns))
	for i, a := range anns {
		out[i] = AnnotationRef{
			Class:  mapClassRef(a.Class, fn),
			Values: append([]AnnotationValue(nil), a.Values...),
		}
	}
	return out
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	return &Block{Statements: cloneStrings(b.Statements)}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneAttributes(a Attributes) Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		switch t := v.(type) {
		case []string:
			out[k] = cloneStrings(t)
		case []any:
			out[k] = append([]any(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}
