package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person() *TypeDef {
	return &TypeDef{
		Kind:      KindClass,
		Package:   "zoo",
		Name:      "Person",
		Modifiers: Public,
		Properties: []Property{
			{Name: "name", Type: String},
			{Name: "pet", Type: NewClassRef("zoo.Animal")},
			{Name: "friends", Type: ListOf(NewClassRef("zoo.Person"))},
		},
		Constructors: []Constructor{{
			Arguments: []Property{{Name: "name", Type: String}},
			Modifiers: Public,
		}},
		Attributes: Attributes{AttrOrigin: "reflect"},
	}
}

func TestRefEquality(t *testing.T) {
	t.Run("ClassRefIgnoresOuter", func(t *testing.T) {
		outer := NewClassRef("zoo.Outer")
		a := ClassRef{FullyQualifiedName: "zoo.Outer.Inner", Outer: &outer}
		b := ClassRef{FullyQualifiedName: "zoo.Outer.Inner"}
		assert.True(t, Equal(a, b))
	})

	t.Run("ArgumentsAndDims", func(t *testing.T) {
		assert.True(t, Equal(ListOf(String), ListOf(String)))
		assert.False(t, Equal(ListOf(String), ListOf(Object)))
		assert.False(t, Equal(String, String.WithDimensions(1)))
		assert.False(t, Equal(String, NewTypeParamRef("string")))
	})

	t.Run("Wildcards", func(t *testing.T) {
		up := WildcardRef{Bound: BoundUpper, Type: String}
		assert.True(t, Equal(up, WildcardRef{Bound: BoundUpper, Type: String}))
		assert.False(t, Equal(up, WildcardRef{Bound: BoundLower, Type: String}))
		assert.Equal(t, "? extends string", up.String())
	})

	t.Run("String", func(t *testing.T) {
		ref := MapOf(String, ListOf(NewTypeParamRef("T"))).WithDimensions(2)
		assert.Equal(t, "map<string,list<T>>[][]", ref.String())
	})
}

func TestTypeDef(t *testing.T) {
	t.Run("FullyQualifiedName", func(t *testing.T) {
		def := &TypeDef{Package: "zoo", Outer: "Person", Name: "PetNested"}
		assert.Equal(t, "zoo.Person.PetNested", def.FullyQualifiedName())
		ref := def.ToReference()
		require.NotNil(t, ref.Outer)
		assert.Equal(t, "zoo.Person", ref.Outer.FullyQualifiedName)
		assert.Nil(t, def.ToInternalReference().Outer)
	})

	t.Run("ToReferenceUsesParams", func(t *testing.T) {
		def := &TypeDef{Package: "zoo", Name: "Box", Params: []TypeParamDef{{Name: "T"}}}
		assert.Equal(t, "zoo.Box<T>", def.ToReference().String())
		assert.Equal(t, "zoo.Box<string>", def.ToReference(String).String())
	})

	t.Run("EffectiveBounds", func(t *testing.T) {
		p := TypeParamDef{Name: "T"}
		require.Len(t, p.EffectiveBounds(), 1)
		assert.True(t, IsObject(p.EffectiveBounds()[0]))
	})

	t.Run("ValidName", func(t *testing.T) {
		assert.True(t, ValidName("zoo.Person"))
		assert.True(t, ValidName("github.com/acme/zoo.Person"))
		assert.False(t, ValidName(""))
		assert.False(t, ValidName("zoo..Person"))
		assert.False(t, ValidName("zoo.Person<T>"))
	})

	t.Run("Placeholder", func(t *testing.T) {
		stub := NewPlaceholder("zoo.Animal")
		assert.True(t, stub.Placeholder)
		assert.Equal(t, "zoo.Animal", stub.FullyQualifiedName())
	})
}

func TestCollections(t *testing.T) {
	elem, ok := IsCollection(ListOf(NewClassRef("zoo.Child")))
	require.True(t, ok)
	assert.Equal(t, "zoo.Child", elem.String())

	elem, ok = IsCollection(NewClassRef("zoo.Child").WithDimensions(1))
	require.True(t, ok)
	assert.Equal(t, "zoo.Child", elem.String())

	_, ok = IsCollection(String)
	assert.False(t, ok)

	k, v, ok := IsMap(MapOf(String, NewPrimitiveRef(Int)))
	require.True(t, ok)
	assert.Equal(t, "string", k.String())
	assert.Equal(t, "int", v.String())
}

func TestCloneAndEquality(t *testing.T) {
	orig := person()
	cp := Clone(orig)
	require.True(t, StructurallyEqual(orig, cp))

	cp.Properties[0].Name = "nick"
	assert.Equal(t, "name", orig.Properties[0].Name)
	assert.False(t, StructurallyEqual(orig, cp))

	t.Run("OriginIgnored", func(t *testing.T) {
		other := person()
		other.Attributes[AttrOrigin] = "javasource"
		assert.True(t, StructurallyEqual(person(), other))
	})

	t.Run("NilVersusEmpty", func(t *testing.T) {
		a := person()
		b := person()
		b.Methods = []Method{}
		b.Implements = []ClassRef{}
		assert.True(t, StructurallyEqual(a, b))
	})
}

func TestRelocate(t *testing.T) {
	def := &TypeDef{
		Kind:       KindInterface,
		Package:    "tmpl",
		Name:       "Fluent",
		Params:     []TypeParamDef{{Name: "F", Bounds: []TypeRef{NewClassRef("tmpl.Fluent", NewTypeParamRef("F"))}}},
		Implements: []ClassRef{NewClassRef("tmpl.Visitable", NewTypeParamRef("F"))},
		Methods:    []Method{{Name: "accept", Return: NewTypeParamRef("F"), Arguments: []Property{{Name: "visitor", Type: NewClassRef("tmpl.Visitor")}}}},
	}
	out := Relocate(def, "tmpl", "acme.builder")
	assert.Equal(t, "acme.builder.Fluent", out.FullyQualifiedName())
	assert.Equal(t, "acme.builder.Fluent<F>", out.Params[0].Bounds[0].String())
	assert.Equal(t, "acme.builder.Visitable<F>", out.Implements[0].String())
	assert.Equal(t, "acme.builder.Visitor", out.Methods[0].Arguments[0].Type.String())
	assert.Equal(t, "tmpl", def.Package, "source declaration must not change")
}

func TestSnapshot(t *testing.T) {
	data, err := Snapshot(person())
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.Contains(s, `"ref":"class"`))
	assert.True(t, strings.Contains(s, `"name":"zoo.Animal"`))
	assert.True(t, strings.Contains(s, `"Kind":"class"`))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Name", Capitalize("name"))
	assert.Equal(t, "name", Decapitalize("Name"))
	assert.Equal(t, "", Capitalize(""))
}
