package model

import (
	"strings"
)

type Kind int

const (
	KindClass Kind = iota
	KindInterface
	KindEnum
	KindAnnotation
)

var kindNames = [...]string{"class", "interface", "enum", "annotation"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type Visibility int

const (
	VisibilityPackage Visibility = iota
	VisibilityPublic
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "package"
	}
}

type Modifiers struct {
	Visibility Visibility
	Static     bool
	Final      bool
	Abstract   bool
}

// Public is the modifier set most derived members carry.
var Public = Modifiers{Visibility: VisibilityPublic}

// TypeParamDef declares a type parameter with ordered bounds.
type TypeParamDef struct {
	Name   string
	Bounds []TypeRef
}

// EffectiveBounds yields [object] for an unbounded parameter.
func (p TypeParamDef) EffectiveBounds() []TypeRef {
	if len(p.Bounds) == 0 {
		return []TypeRef{Object}
	}
	return p.Bounds
}

func (p TypeParamDef) ToReference() TypeParamRef {
	return TypeParamRef{Name: p.Name}
}

type AnnotationValue struct {
	Name  string
	Value string
}

// AnnotationRef is an annotation usage: the annotation type plus its
// name/value pairs in source order.
type AnnotationRef struct {
	Class  ClassRef
	Values []AnnotationValue
}

type Property struct {
	Name        string
	Type        TypeRef
	Modifiers   Modifiers
	Initializer string
	Annotations []AnnotationRef
	Attributes  Attributes
}

// Block is opaque body metadata; statements are kept as emitted text.
type Block struct {
	Statements []string
}

type Method struct {
	Name        string
	Params      []TypeParamDef
	Return      TypeRef
	Arguments   []Property
	Varargs     bool
	Modifiers   Modifiers
	Body        *Block
	Annotations []AnnotationRef
	Attributes  Attributes
}

type Constructor struct {
	Arguments  []Property
	Modifiers  Modifiers
	Body       *Block
	Attributes Attributes
}

// ArgumentNames lists the constructor's parameter names in declared order.
func (c Constructor) ArgumentNames() []string {
	names := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		names[i] = a.Name
	}
	return names
}

// TypeDef is the canonical declaration of a type.
type TypeDef struct {
	Kind    Kind
	Package string
	Name    string
	// Outer is the dotted simple-name path of enclosing types, empty for
	// top-level declarations.
	Outer        string
	Modifiers    Modifiers
	Params       []TypeParamDef
	Super        *ClassRef
	Implements   []ClassRef
	Properties   []Property
	Methods      []Method
	Constructors []Constructor
	Annotations  []AnnotationRef
	// Nested names the fully-qualified names of declarations nested in this
	// one. They live in the repository as their own entries.
	Nested      []string
	Attributes  Attributes
	Placeholder bool
}

func (d *TypeDef) FullyQualifiedName() string {
	local := d.Name
	if d.Outer != "" {
		local = d.Outer + "." + d.Name
	}
	if d.Package == "" {
		return local
	}
	return d.Package + "." + local
}

// ToReference returns the use-site reference with the declaration's own type
// parameters as arguments.
func (d *TypeDef) ToReference(args ...TypeRef) ClassRef {
	ref := ClassRef{FullyQualifiedName: d.FullyQualifiedName()}
	if len(args) > 0 {
		ref.Arguments = append([]TypeRef(nil), args...)
	} else if len(d.Params) > 0 {
		ref.Arguments = make([]TypeRef, len(d.Params))
		for i, p := range d.Params {
			ref.Arguments[i] = p.ToReference()
		}
	}
	if d.Outer != "" {
		outer := ClassRef{FullyQualifiedName: joinName(d.Package, d.Outer)}
		ref.Outer = &outer
	}
	return ref
}

// ToInternalReference is the reference used inside the declaration's own
// body, where its parameters are in scope and the package is implied.
func (d *TypeDef) ToInternalReference() ClassRef {
	ref := d.ToReference()
	ref.Outer = nil
	return ref
}

// IsAbstract reports whether instances can not be constructed directly.
func (d *TypeDef) IsAbstract() bool {
	return d.Kind == KindInterface || d.Kind == KindAnnotation || d.Modifiers.Abstract
}

func (d *TypeDef) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// MethodsNamed returns every method with the given name, overloads included.
func (d *TypeDef) MethodsNamed(name string) []Method {
	var out []Method
	for _, m := range d.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

func (d *TypeDef) HasMethod(name string) bool {
	return len(d.MethodsNamed(name)) > 0
}

// Origin is the adapter that produced the declaration, if recorded.
func (d *TypeDef) Origin() string {
	return d.Attributes.String(AttrOrigin)
}

// NewPlaceholder builds the stub stored for a forward reference.
func NewPlaceholder(fqn string) *TypeDef {
	pkg, name := SplitName(fqn)
	return &TypeDef{Kind: KindClass, Package: pkg, Name: name, Placeholder: true}
}

// SplitName splits a fully-qualified name at its last dot.
func SplitName(fqn string) (pkg, name string) {
	i := strings.LastIndex(fqn, ".")
	if i < 0 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}

func joinName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// ValidName reports whether fqn is usable as an identity key: non-empty,
// dot-separated segments with no empty segment and no whitespace.
func ValidName(fqn string) bool {
	if fqn == "" || strings.ContainsAny(fqn, " \t\r\n<>[]") {
		return false
	}
	for _, seg := range strings.Split(fqn, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}
