package builder

import (
	"errors"
	"reflect"
)

// Visitor is the only required hook. The optional ones below are detected
// with type assertions; VisitWith, CanVisit and OrderOf supply the
// defaults.
type Visitor interface {
	Visit(element any)
}

// PathVisitor receives the path the element was reached through.
type PathVisitor interface {
	VisitPath(path Path, element any)
}

// Filter decides whether the visitor applies to element.
type Filter interface {
	CanVisit(path Path, element any) bool
}

// Ordered visitors run in ascending Order; ties keep registration order.
type Ordered interface {
	Order() int
}

// Typed visitors only accept elements assignable to ElementType.
type Typed interface {
	ElementType() reflect.Type
}

// VisitWith dispatches to VisitPath when v implements it, Visit otherwise.
func VisitWith(v Visitor, path Path, element any) {
	if pv, ok := v.(PathVisitor); ok {
		pv.VisitPath(path, element)
		return
	}
	v.Visit(element)
}

// CanVisit applies v's Filter, or its element type when it is Typed. An
// untyped visitor without a filter accepts everything.
func CanVisit(v Visitor, path Path, element any) bool {
	if f, ok := v.(Filter); ok {
		return f.CanVisit(path, element)
	}
	return assignable(v, element)
}

func assignable(v Visitor, element any) bool {
	typed, ok := v.(Typed)
	if !ok {
		return true
	}
	want := typed.ElementType()
	if want == nil {
		return true
	}
	if element == nil {
		return false
	}
	return reflect.TypeOf(element).AssignableTo(want)
}

// OrderOf returns v's order, zero when it has none.
func OrderOf(v Visitor) int {
	if o, ok := v.(Ordered); ok {
		return o.Order()
	}
	return 0
}

// ErrParentNotFound is returned when no step of a path holds a parent of
// the requested type.
var ErrParentNotFound = errors.New("parent not found")

// TypedVisitor adapts a function over T into a Visitor.
type TypedVisitor[T any] struct {
	Fn       func(element T)
	Priority int
}

func (v TypedVisitor[T]) Visit(element any) {
	if t, ok := element.(T); ok && v.Fn != nil {
		v.Fn(t)
	}
}

func (v TypedVisitor[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (v TypedVisitor[T]) Order() int { return v.Priority }

// PathAwareTypedVisitor visits elements of type T and can resolve the
// nearest ancestor of type P from the traversal path.
type PathAwareTypedVisitor[T, P any] struct {
	Fn       func(path Path, element T)
	Priority int
}

func (v PathAwareTypedVisitor[T, P]) Visit(element any) {
	v.VisitPath(nil, element)
}

func (v PathAwareTypedVisitor[T, P]) VisitPath(path Path, element any) {
	if t, ok := element.(T); ok && v.Fn != nil {
		v.Fn(path, t)
	}
}

func (v PathAwareTypedVisitor[T, P]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (v PathAwareTypedVisitor[T, P]) Order() int { return v.Priority }

func (v PathAwareTypedVisitor[T, P]) ParentType() reflect.Type {
	return reflect.TypeOf((*P)(nil)).Elem()
}

// Parent walks path from the innermost step outwards and returns the first
// parent of type P.
func (v PathAwareTypedVisitor[T, P]) Parent(path Path) (P, error) {
	for i := len(path) - 1; i >= 0; i-- {
		if p, ok := path[i].Parent.(P); ok {
			return p, nil
		}
	}
	var zero P
	return zero, ErrParentNotFound
}
