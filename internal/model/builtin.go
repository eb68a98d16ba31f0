package model

import (
	"unicode"
	"unicode/utf8"
)

// Canonical names every adapter maps its own spelling of the built-ins onto.
const (
	ObjectName   = "object"
	StringName   = "string"
	ListName     = "list"
	SetName      = "set"
	MapName      = "map"
	OptionalName = "optional"
)

var (
	Object = ClassRef{FullyQualifiedName: ObjectName}
	String = ClassRef{FullyQualifiedName: StringName}
)

func ListOf(elem TypeRef) ClassRef { return NewClassRef(ListName, elem) }

func SetOf(elem TypeRef) ClassRef { return NewClassRef(SetName, elem) }

func MapOf(key, value TypeRef) ClassRef { return NewClassRef(MapName, key, value) }

func OptionalOf(elem TypeRef) ClassRef { return NewClassRef(OptionalName, elem) }

// IsBuiltin reports whether fqn is one of the canonical built-in names.
func IsBuiltin(fqn string) bool {
	switch fqn {
	case ObjectName, StringName, ListName, SetName, MapName, OptionalName:
		return true
	}
	return false
}

func IsObject(ref TypeRef) bool {
	c, ok := ref.(ClassRef)
	return ok && c.FullyQualifiedName == ObjectName && c.Dimensions == 0
}

// IsCollection reports whether ref is a list, a set or an array, and returns
// the element type.
func IsCollection(ref TypeRef) (TypeRef, bool) {
	if ref == nil {
		return nil, false
	}
	if ref.Dims() > 0 {
		return WithDims(ref, ref.Dims()-1), true
	}
	c, ok := ref.(ClassRef)
	if !ok {
		return nil, false
	}
	if c.FullyQualifiedName != ListName && c.FullyQualifiedName != SetName {
		return nil, false
	}
	if len(c.Arguments) != 1 {
		return Object, true
	}
	return c.Arguments[0], true
}

// IsMap returns the key and value types of a map reference.
func IsMap(ref TypeRef) (TypeRef, TypeRef, bool) {
	c, ok := ref.(ClassRef)
	if !ok || c.FullyQualifiedName != MapName || c.Dimensions > 0 {
		return nil, nil, false
	}
	if len(c.Arguments) != 2 {
		return Object, Object, true
	}
	return c.Arguments[0], c.Arguments[1], true
}

// Unwrap strips wildcard bounds so the referenced class can be inspected.
func Unwrap(ref TypeRef) TypeRef {
	if w, ok := ref.(WildcardRef); ok && w.Type != nil {
		return Unwrap(w.Type)
	}
	return ref
}

func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func Decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
