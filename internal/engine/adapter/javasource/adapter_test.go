package javasource

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/adapter"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
)

const personSrc = `package io.zoo;

import java.util.List;
import java.util.Map;
import io.shared.Address;

@Buildable(refs = "x", lazy = true)
public class Person extends Animal implements Named, Comparable<Person> {
    private static final long serialVersionUID = 1L;
    private String name;
    private int age = 3;
    private Animal pet;
    private List<Child> children;
    private Map<String, Integer> scores;
    private Address address;
    private int[] lucky;

    public Person(String name, int age) {
        this.name = name;
    }

    public <T extends Animal> T adopt(T animal, String... tags) {
        return animal;
    }

    public static class Child {
        private String nick;
    }
}

class Animal {
    protected String name;
}

interface Named {
    String getName();
    default boolean hasName() { return getName() != null; }
}
`

func setup(t *testing.T) (*repository.Repository, *adapter.Context) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.New(repository.Options{Logger: logger})
	return repo, adapter.NewContext(repo, adapter.NewRegistry(New()), adapter.WithLogger(logger))
}

func TestParse(t *testing.T) {
	f, err := Parse("Person.java", []byte(personSrc))
	require.NoError(t, err)
	assert.Equal(t, "io.zoo", f.Package)

	var names []string
	for _, d := range f.Decls() {
		names = append(names, d.FullyQualifiedName())
	}
	assert.Equal(t, []string{"io.zoo.Person", "io.zoo.Person.Child", "io.zoo.Animal", "io.zoo.Named"}, names)
}

func TestParseRejectsSyntaxErrors(t *testing.T) {
	_, err := Parse("Broken.java", []byte("package x; class {"))
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
}

func TestAdaptSource(t *testing.T) {
	repo, ctx := setup(t)
	def, err := ctx.Adapt(context.Background(), Source{Path: "Person.java", Content: []byte(personSrc)})
	require.NoError(t, err)

	assert.Equal(t, "io.zoo.Person", def.FullyQualifiedName())
	assert.Equal(t, model.VisibilityPublic, def.Modifiers.Visibility)
	require.NotNil(t, def.Super)
	assert.Equal(t, "io.zoo.Animal", def.Super.FullyQualifiedName)
	require.Len(t, def.Implements, 2)
	assert.Equal(t, "io.zoo.Named", def.Implements[0].String())
	assert.Equal(t, "java.lang.Comparable<io.zoo.Person>", def.Implements[1].String())

	require.Len(t, def.Annotations, 1)
	assert.Equal(t, "io.zoo.Buildable", def.Annotations[0].Class.FullyQualifiedName)
	assert.Equal(t, []model.AnnotationValue{{Name: "refs", Value: `"x"`}, {Name: "lazy", Value: "true"}}, def.Annotations[0].Values)

	var props []string
	for _, p := range def.Properties {
		props = append(props, p.Name+":"+p.Type.String())
	}
	assert.Equal(t, []string{
		"name:string",
		"age:int",
		"pet:io.zoo.Animal",
		"children:list<io.zoo.Person.Child>",
		"scores:map<string,int>",
		"address:io.shared.Address",
		"lucky:int[]",
	}, props)
	age, _ := def.Property("age")
	assert.Equal(t, "3", age.Initializer)

	require.Len(t, def.Constructors, 1)
	assert.Equal(t, []string{"name", "age"}, def.Constructors[0].ArgumentNames())

	adopt := def.MethodsNamed("adopt")
	require.Len(t, adopt, 1)
	assert.True(t, adopt[0].Varargs)
	require.Len(t, adopt[0].Params, 1)
	assert.Equal(t, "io.zoo.Animal", adopt[0].Params[0].Bounds[0].String())
	assert.Equal(t, "T", adopt[0].Return.String())
	assert.Equal(t, "string", adopt[0].Arguments[1].Type.String())

	assert.Equal(t, []string{"io.zoo.Person.Child"}, def.Nested)

	child, ok := repo.Get("io.zoo.Person.Child")
	require.True(t, ok)
	assert.False(t, child.Placeholder)
	assert.Equal(t, "Person", child.Outer)
	require.Len(t, child.Constructors, 1)
	assert.True(t, child.Constructors[0].Attributes.Bool(model.AttrSynthesized))

	named, ok := repo.Get("io.zoo.Named")
	require.True(t, ok)
	assert.Equal(t, model.KindInterface, named.Kind)
	require.Len(t, named.Methods, 2)
	assert.True(t, named.Methods[0].Modifiers.Abstract)
	assert.False(t, named.Methods[1].Modifiers.Abstract)

	animal, ok := repo.Get("io.zoo.Animal")
	require.True(t, ok)
	assert.False(t, animal.Placeholder)

	address, ok := repo.Get("io.shared.Address")
	require.True(t, ok)
	assert.True(t, address.Placeholder)
}

func TestRecognize(t *testing.T) {
	a := New()
	assert.True(t, a.Recognize(Source{}))
	assert.True(t, a.Recognize(&Source{}))
	assert.False(t, a.Recognize("Person.java"))
}
