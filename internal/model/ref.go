// Package model defines the canonical type model every adapter normalizes
// into and every derivation reads from.
package model

import (
	"strings"
)

// TypeRef describes how a type is referenced at a use site. It is a closed
// union: ClassRef, PrimitiveRef, WildcardRef and TypeParamRef.
type TypeRef interface {
	// Dims returns the array dimension count.
	Dims() int
	String() string
	isTypeRef()
}

// ClassRef references a declared type by fully-qualified name.
type ClassRef struct {
	FullyQualifiedName string
	Arguments          []TypeRef
	Dimensions         int
	// Outer is the enclosing type for nested types. It does not take part in
	// equality.
	Outer *ClassRef
}

func (r ClassRef) Dims() int { return r.Dimensions }
func (ClassRef) isTypeRef()  {}

// Name returns the simple name.
func (r ClassRef) Name() string {
	_, name := SplitName(r.FullyQualifiedName)
	return name
}

func (r ClassRef) Package() string {
	pkg, _ := SplitName(r.FullyQualifiedName)
	return pkg
}

func (r ClassRef) String() string {
	var b strings.Builder
	b.WriteString(r.FullyQualifiedName)
	if len(r.Arguments) > 0 {
		b.WriteString("<")
		for i, arg := range r.Arguments {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(refString(arg))
		}
		b.WriteString(">")
	}
	writeDims(&b, r.Dimensions)
	return b.String()
}

// WithArguments returns a copy of r with args replacing its arguments.
func (r ClassRef) WithArguments(args ...TypeRef) ClassRef {
	out := r
	out.Arguments = append([]TypeRef(nil), args...)
	return out
}

// WithDimensions returns a copy of r with the given dimension count.
func (r ClassRef) WithDimensions(dims int) ClassRef {
	out := r
	out.Dimensions = dims
	return out
}

// Primitive enumerates the fixed set of primitive kinds.
type Primitive string

const (
	Boolean Primitive = "boolean"
	Byte    Primitive = "byte"
	Short   Primitive = "short"
	Int     Primitive = "int"
	Long    Primitive = "long"
	Char    Primitive = "char"
	Float   Primitive = "float"
	Double  Primitive = "double"
	Void    Primitive = "void"
)

var primitives = map[string]Primitive{
	string(Boolean): Boolean,
	string(Byte):    Byte,
	string(Short):   Short,
	string(Int):     Int,
	string(Long):    Long,
	string(Char):    Char,
	string(Float):   Float,
	string(Double):  Double,
	string(Void):    Void,
}

// ParsePrimitive maps a keyword onto its primitive kind.
func ParsePrimitive(name string) (Primitive, bool) {
	p, ok := primitives[name]
	return p, ok
}

type PrimitiveRef struct {
	Kind       Primitive
	Dimensions int
}

func (r PrimitiveRef) Dims() int { return r.Dimensions }
func (PrimitiveRef) isTypeRef()  {}

func (r PrimitiveRef) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	writeDims(&b, r.Dimensions)
	return b.String()
}

type BoundKind int

const (
	BoundNone BoundKind = iota
	BoundUpper
	BoundLower
)

// WildcardRef is an unbounded, upper-bounded (extends) or lower-bounded
// (super) wildcard argument.
type WildcardRef struct {
	Bound BoundKind
	Type  TypeRef
}

func (WildcardRef) Dims() int  { return 0 }
func (WildcardRef) isTypeRef() {}

func (r WildcardRef) String() string {
	switch {
	case r.Bound == BoundUpper && r.Type != nil:
		return "? extends " + r.Type.String()
	case r.Bound == BoundLower && r.Type != nil:
		return "? super " + r.Type.String()
	default:
		return "?"
	}
}

// TypeParamRef references a type parameter of the enclosing declaration or
// method by name.
type TypeParamRef struct {
	Name       string
	Dimensions int
}

func (r TypeParamRef) Dims() int { return r.Dimensions }
func (TypeParamRef) isTypeRef()  {}

func (r TypeParamRef) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	writeDims(&b, r.Dimensions)
	return b.String()
}

// NewClassRef builds a reference to fqn with the given arguments.
func NewClassRef(fqn string, args ...TypeRef) ClassRef {
	return ClassRef{FullyQualifiedName: fqn, Arguments: append([]TypeRef(nil), args...)}
}

func NewTypeParamRef(name string) TypeParamRef {
	return TypeParamRef{Name: name}
}

func NewPrimitiveRef(kind Primitive) PrimitiveRef {
	return PrimitiveRef{Kind: kind}
}

// WithDims returns ref with its dimension count replaced. Wildcards carry no
// dimensions and come back unchanged.
func WithDims(ref TypeRef, dims int) TypeRef {
	if dims < 0 {
		dims = 0
	}
	switch r := ref.(type) {
	case ClassRef:
		r.Dimensions = dims
		return r
	case PrimitiveRef:
		r.Dimensions = dims
		return r
	case TypeParamRef:
		r.Dimensions = dims
		return r
	default:
		return ref
	}
}

// Equal compares two references. ClassRefs are equal iff name, arguments
// and dimensions are equal; declarations are never consulted.
func Equal(a, b TypeRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case ClassRef:
		y, ok := b.(ClassRef)
		if !ok || x.FullyQualifiedName != y.FullyQualifiedName || x.Dimensions != y.Dimensions {
			return false
		}
		return EqualAll(x.Arguments, y.Arguments)
	case PrimitiveRef:
		y, ok := b.(PrimitiveRef)
		return ok && x.Kind == y.Kind && x.Dimensions == y.Dimensions
	case WildcardRef:
		y, ok := b.(WildcardRef)
		return ok && x.Bound == y.Bound && Equal(x.Type, y.Type)
	case TypeParamRef:
		y, ok := b.(TypeParamRef)
		return ok && x.Name == y.Name && x.Dimensions == y.Dimensions
	}
	return false
}

// EqualAll compares two reference lists element by element.
func EqualAll(a, b []TypeRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func refString(ref TypeRef) string {
	if ref == nil {
		return "<nil>"
	}
	return ref.String()
}

func writeDims(b *strings.Builder, dims int) {
	for i := 0; i < dims; i++ {
		b.WriteString("[]")
	}
}
