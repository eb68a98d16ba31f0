package builder

type Builder[T any] interface {
	Build() T
}

// VisitableBuilder is what a derived <Type>Builder satisfies.
type VisitableBuilder[T any] interface {
	Builder[T]
	Visitable
}

// Nested is a builder opened from a parent fluent; And commits it back.
type Nested[N any] interface {
	And() N
}

type Editable[B any] interface {
	Edit() B
}

type Inlineable[T any] interface {
	Update() T
}

// BuildAll builds every builder in order.
func BuildAll[T any, B Builder[T]](builders []B) []T {
	if builders == nil {
		return nil
	}
	out := make([]T, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}
	return out
}
