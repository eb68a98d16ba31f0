package derive

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "fluentgen/internal/core/errors"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
)

const zoo = "io.zoo"

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func prop(name string, t model.TypeRef) model.Property {
	return model.Property{Name: name, Type: t, Modifiers: model.Modifiers{Visibility: model.VisibilityPrivate}}
}

func ctor(args ...model.Property) model.Constructor {
	return model.Constructor{Modifiers: model.Public, Arguments: args}
}

func class(name string, props ...model.Property) *model.TypeDef {
	return &model.TypeDef{
		Kind:       model.KindClass,
		Package:    zoo,
		Name:       name,
		Modifiers:  model.Public,
		Properties: props,
	}
}

func ref(name string, args ...model.TypeRef) model.ClassRef {
	return model.NewClassRef(zoo+"."+name, args...)
}

type fixture struct {
	repo *repository.Repository
	ctx  *Context
}

func setup(t *testing.T, opts Options, defs ...*model.TypeDef) fixture {
	t.Helper()
	repo := repository.New(repository.Options{Logger: quiet()})
	opts.Logger = quiet()
	ctx, err := NewContext(repo, opts)
	require.NoError(t, err)
	for _, d := range defs {
		_, err := repo.Register(d)
		require.NoError(t, err)
		ctx.MarkBuildable(d.FullyQualifiedName())
	}
	return fixture{repo: repo, ctx: ctx}
}

func zooTypes() []*model.TypeDef {
	animal := class("Animal", prop("name", model.String))
	animal.Constructors = []model.Constructor{ctor(prop("name", model.String))}

	person := class("Person", prop("name", model.String), prop("pet", ref("Animal")))
	person.Constructors = []model.Constructor{ctor(prop("name", model.String), prop("pet", ref("Animal")))}

	dog := class("Dog", prop("breed", model.String))
	super := ref("Animal")
	dog.Super = &super
	dog.Constructors = []model.Constructor{ctor(prop("name", model.String), prop("breed", model.String))}

	child := class("Child", prop("name", model.String))
	parent := class("Parent",
		prop("children", model.ListOf(ref("Child"))),
		prop("tags", model.ListOf(model.String)),
		prop("scores", model.MapOf(model.String, model.NewPrimitiveRef(model.Int))),
	)
	return []*model.TypeDef{animal, person, dog, child, parent}
}

func get(t *testing.T, repo *repository.Repository, name string) *model.TypeDef {
	t.Helper()
	def, ok := repo.Get(name)
	require.True(t, ok, name)
	return def
}

func methods(def *model.TypeDef, name string) []model.Method {
	return def.MethodsNamed(name)
}

func method(t *testing.T, def *model.TypeDef, name string) model.Method {
	t.Helper()
	ms := methods(def, name)
	require.NotEmpty(t, ms, name)
	return ms[0]
}

func TestNewContextLoadsCatalog(t *testing.T) {
	f := setup(t, Options{BuilderPackage: "io.zoo.builder"})

	names := []string{
		Visitor, TypedVisitor, PathAwareTypedVisitor, VisitorListener, Visitable,
		VisitableBuilder, Builder, Fluent, Nested, Editable, Inlineable, BaseFluent, VisitableMap,
		ValidationUtils,
	}
	for _, n := range names {
		t.Run(n, func(t *testing.T) {
			def, ok := f.ctx.Base(n)
			require.True(t, ok)
			assert.Equal(t, "io.zoo.builder", def.Package)
			assert.Equal(t, BaseCatalogVersion, def.Attributes.String(model.AttrCatalogVersion))
			assert.False(t, def.Attributes.Bool(model.AttrGenerate))
			for _, r := range repository.References(def) {
				assert.False(t, strings.HasPrefix(r, TemplatePackage), r)
			}
		})
	}
	assert.NoError(t, f.repo.ResolveAll())

	t.Run("rejects bad options", func(t *testing.T) {
		repo := repository.New(repository.Options{Logger: quiet()})
		_, err := NewContext(repo, Options{BuilderPackage: "bad package", Logger: quiet()})
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
		_, err = NewContext(nil, Options{})
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
	})
}

func TestFluentScalarBuildable(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	person := get(t, f.repo, "io.zoo.Person")

	fluent, err := f.ctx.Fluent(person)
	require.NoError(t, err)

	assert.Equal(t, "io.zoo.PersonFluent", fluent.FullyQualifiedName())
	require.Len(t, fluent.Params, 1)
	assert.Equal(t, "A", fluent.Params[0].Name)
	assert.Equal(t, "io.zoo.PersonFluent<A>", fluent.Params[0].Bounds[0].String())
	assert.Equal(t, "fluentgen/builder.BaseFluent<A>", fluent.Super.String())
	assert.Equal(t, "fluentgen/builder.Fluent<A>", fluent.Implements[0].String())

	for _, name := range []string{"withName", "getName", "hasName", "withPet", "withPetBuilder", "buildPet", "withNewPet", "withNewPetLike", "editPet", "editOrNewPet"} {
		assert.True(t, fluent.HasMethod(name), name)
	}
	assert.Equal(t, "string", method(t, fluent, "withName").Arguments[0].Type.String())
	assert.Equal(t, "io.zoo.Animal", method(t, fluent, "withPet").Arguments[0].Type.String())
	assert.Equal(t, "A", method(t, fluent, "withPet").Return.String())
	assert.Equal(t, "io.zoo.PersonFluent.PetNested<A>", method(t, fluent, "withNewPet").Return.String())

	pet, ok := fluent.Property("pet")
	require.True(t, ok)
	assert.Equal(t, "io.zoo.AnimalBuilder", pet.Type.String())
	assert.Equal(t, "pet", pet.Attributes.String(model.AttrVisitableKey))
	assert.Equal(t, []string{"pet"}, fluent.Attributes.Strings(model.AttrBuildableProperties))

	assert.Equal(t, []string{"io.zoo.PersonFluent.PetNested"}, fluent.Nested)
	nested := get(t, f.repo, "io.zoo.PersonFluent.PetNested")
	assert.Equal(t, "PersonFluent", nested.Outer)
	assert.Equal(t, "io.zoo.AnimalFluent<io.zoo.PersonFluent.PetNested<N>>", nested.Super.String())
	assert.Equal(t, "fluentgen/builder.Nested<N>", nested.Implements[0].String())
	assert.True(t, nested.HasMethod("and"))
	assert.True(t, nested.HasMethod("endPet"))
}

func TestFluentCollections(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	fluent, err := f.ctx.Fluent(get(t, f.repo, "io.zoo.Parent"))
	require.NoError(t, err)

	t.Run("buildable elements", func(t *testing.T) {
		children, ok := fluent.Property("children")
		require.True(t, ok)
		assert.Equal(t, "list<io.zoo.ChildBuilder>", children.Type.String())
		assert.Equal(t, "children", children.Attributes.String(model.AttrVisitableKey))

		assert.Equal(t, "list<io.zoo.Child>", method(t, fluent, "withChildren").Arguments[0].Type.String())

		var vararg model.Method
		for _, m := range methods(fluent, "addToChildren") {
			if m.Varargs {
				vararg = m
			}
		}
		require.True(t, vararg.Varargs)
		assert.Equal(t, "io.zoo.Child[]", vararg.Arguments[0].Type.String())
		assert.Len(t, methods(fluent, "addToChildren"), 2)

		for _, name := range []string{
			"setToChildren", "addFirstToChildren", "addLastToChildren", "addAllToChildren",
			"removeFromChildren", "removeAllFromChildren", "buildChildren", "buildChild",
			"buildFirstChild", "buildLastChild", "addNewChild", "addNewChildLike",
			"setNewChildLike", "editChild", "editFirstChild", "editLastChild",
		} {
			assert.True(t, fluent.HasMethod(name), name)
		}
		assert.Equal(t, "io.zoo.ParentFluent.ChildNested<A>", method(t, fluent, "addNewChild").Return.String())
		assert.Equal(t, "int", method(t, fluent, "editChild").Arguments[0].Type.String())

		nested := get(t, f.repo, "io.zoo.ParentFluent.ChildNested")
		assert.True(t, nested.HasMethod("endChild"))
		_, indexed := nested.Property("index")
		assert.True(t, indexed)
	})

	t.Run("plain elements", func(t *testing.T) {
		for _, name := range []string{"withTags", "addToTags", "addAllToTags", "removeFromTags", "removeAllFromTags", "getTags", "hasTags"} {
			assert.True(t, fluent.HasMethod(name), name)
		}
		assert.False(t, fluent.HasMethod("addNewTag"))
		assert.True(t, method(t, fluent, "addToTags").Varargs)
	})

	t.Run("maps", func(t *testing.T) {
		var put model.Method
		for _, m := range methods(fluent, "addToScores") {
			if len(m.Arguments) == 2 {
				put = m
			}
		}
		require.Len(t, put.Arguments, 2)
		assert.Equal(t, "string", put.Arguments[0].Type.String())
		assert.Equal(t, "int", put.Arguments[1].Type.String())
		assert.True(t, fluent.HasMethod("removeFromScores"))
	})
}

func TestFluentInheritance(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	fluent, err := f.ctx.Fluent(get(t, f.repo, "io.zoo.Dog"))
	require.NoError(t, err)

	assert.Equal(t, "io.zoo.AnimalFluent<A>", fluent.Super.String())
	assert.Empty(t, fluent.Implements)
	animal := get(t, f.repo, "io.zoo.AnimalFluent")
	assert.False(t, animal.Placeholder)

	name, ok := fluent.Property("name")
	require.True(t, ok)
	assert.True(t, name.Attributes.Bool(model.AttrInherited))
	breed, ok := fluent.Property("breed")
	require.True(t, ok)
	assert.False(t, breed.Attributes.Bool(model.AttrInherited))

	assert.Equal(t, []string{"breed"}, fluent.Attributes.Strings(model.AttrComparedProperties))
	assert.True(t, fluent.Attributes.Bool(model.AttrEqualsDelegates))
	assert.Equal(t, []string{"name"}, animal.Attributes.Strings(model.AttrComparedProperties))
	assert.False(t, animal.Attributes.Bool(model.AttrEqualsDelegates))
}

func TestFluentGenerics(t *testing.T) {
	box := class("Box", prop("item", model.NewTypeParamRef("T")))
	box.Params = []model.TypeParamDef{{Name: "T"}}
	stringBox := class("StringBox")
	super := ref("Box", model.String)
	stringBox.Super = &super
	pair := class("Pair", prop("first", model.NewTypeParamRef("A")))
	pair.Params = []model.TypeParamDef{{Name: "A"}}

	f := setup(t, Options{}, box, stringBox, pair)

	t.Run("super arguments", func(t *testing.T) {
		fluent, err := f.ctx.Fluent(stringBox)
		require.NoError(t, err)
		assert.Equal(t, "io.zoo.BoxFluent<string,A>", fluent.Super.String())
		item, ok := fluent.Property("item")
		require.True(t, ok)
		assert.Equal(t, "string", item.Type.String())

		boxFluent := get(t, f.repo, "io.zoo.BoxFluent")
		require.Len(t, boxFluent.Params, 2)
		assert.Equal(t, "io.zoo.BoxFluent<T,A>", boxFluent.Params[1].Bounds[0].String())
	})

	t.Run("self parameter avoids clashes", func(t *testing.T) {
		fluent, err := f.ctx.Fluent(pair)
		require.NoError(t, err)
		require.Len(t, fluent.Params, 2)
		assert.Equal(t, "A1", fluent.Params[1].Name)
		assert.Equal(t, "io.zoo.PairFluent<A,A1>", fluent.Params[1].Bounds[0].String())
	})
}

func TestFluentErrors(t *testing.T) {
	t.Run("unresolved super", func(t *testing.T) {
		orphan := class("Orphan")
		super := ref("Missing")
		orphan.Super = &super
		f := setup(t, Options{}, orphan)
		_, err := f.repo.GetOrPlaceholder("io.zoo.Missing")
		require.NoError(t, err)

		_, err = f.ctx.Fluent(orphan)
		require.Error(t, err)
		assert.True(t, errs.IsCode(err, errs.CodeUnresolvedReference))
		missing, _ := errs.ContextValue(err, errs.CtxMissing)
		assert.Equal(t, "io.zoo.Missing", missing)
	})

	t.Run("placeholder input", func(t *testing.T) {
		f := setup(t, Options{})
		_, err := f.ctx.Fluent(model.NewPlaceholder("io.zoo.Ghost"))
		assert.True(t, errs.IsCode(err, errs.CodeUnresolvedReference))
		_, err = f.ctx.Fluent(nil)
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
	})

	t.Run("recursion limit", func(t *testing.T) {
		a0 := class("A0")
		a1 := class("A1")
		a2 := class("A2")
		s0, s1 := ref("A0"), ref("A1")
		a1.Super = &s0
		a2.Super = &s1
		f := setup(t, Options{MaxDepth: 2}, a0, a1, a2)

		_, err := f.ctx.Fluent(a1)
		require.NoError(t, err)
		_, err = f.ctx.Fluent(a2)
		assert.True(t, errs.IsCode(err, errs.CodeRecursionLimit))
	})
}

func TestSelfReferenceTerminates(t *testing.T) {
	node := class("Node", prop("value", model.String), prop("next", ref("Node")), prop("children", model.ListOf(ref("Node"))))
	f := setup(t, Options{}, node)

	fam, err := f.ctx.Family(node)
	require.NoError(t, err)
	size := f.repo.Len()

	nested := get(t, f.repo, "io.zoo.NodeFluent.NextNested")
	assert.Equal(t, "io.zoo.NodeFluent<io.zoo.NodeFluent.NextNested<N>>", nested.Super.String())

	again, err := f.ctx.Family(node)
	require.NoError(t, err)
	assert.Same(t, fam.Fluent, again.Fluent)
	assert.Same(t, fam.Builder, again.Builder)
	assert.Equal(t, size, f.repo.Len())
	assert.Empty(t, f.repo.Conflicts())

	build := method(t, fam.Builder, "build")
	assert.Empty(t, build.Attributes.Strings(model.AttrConstructorArgs))
	assert.Equal(t, []string{"value", "next", "children"}, build.Attributes.Strings(model.AttrAssignedProperties))
}

func TestInheritanceCycleTerminates(t *testing.T) {
	x := class("X")
	y := class("Y")
	xs, ys := ref("Y"), ref("X")
	x.Super = &xs
	y.Super = &ys
	f := setup(t, Options{}, x, y)

	_, err := f.ctx.Fluent(x)
	require.NoError(t, err)
	assert.False(t, get(t, f.repo, "io.zoo.XFluent").Placeholder)
	assert.False(t, get(t, f.repo, "io.zoo.YFluent").Placeholder)
}

func TestBuilder(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	person := get(t, f.repo, "io.zoo.Person")

	builder, err := f.ctx.Builder(person)
	require.NoError(t, err)
	assert.Equal(t, "io.zoo.PersonBuilder", builder.FullyQualifiedName())
	assert.Empty(t, builder.Params)
	assert.Equal(t, "io.zoo.PersonFluent<io.zoo.PersonBuilder>", builder.Super.String())
	assert.Equal(t, "fluentgen/builder.VisitableBuilder<io.zoo.Person,io.zoo.PersonBuilder>", builder.Implements[0].String())
	assert.Equal(t, "fluentgen/builder.Builder<io.zoo.Person>", builder.Implements[1].String())
	assert.Len(t, builder.Constructors, 4)

	t.Run("constructor covers every accessor", func(t *testing.T) {
		fluent := get(t, f.repo, "io.zoo.PersonFluent")
		var exposed []string
		for _, m := range fluent.Methods {
			if m.Attributes.String(model.AttrAccessor) == AccessorWith {
				exposed = append(exposed, m.Attributes.String(model.AttrProperty))
			}
		}
		build := method(t, builder, "build")
		assert.ElementsMatch(t, exposed, build.Attributes.Strings(model.AttrConstructorArgs))
		assert.Empty(t, build.Attributes.Strings(model.AttrAssignedProperties))
		assert.Equal(t, "io.zoo.Person", build.Return.String())
	})

	t.Run("inherited properties reach the constructor", func(t *testing.T) {
		dog, err := f.ctx.Builder(get(t, f.repo, "io.zoo.Dog"))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "breed"}, method(t, dog, "build").Attributes.Strings(model.AttrConstructorArgs))
	})

	t.Run("most specific constructor wins", func(t *testing.T) {
		cat := class("Cat", prop("name", model.String), prop("lives", model.NewPrimitiveRef(model.Int)))
		cat.Constructors = []model.Constructor{
			ctor(),
			ctor(prop("name", model.String)),
			ctor(prop("name", model.String), prop("owner", model.String)),
		}
		_, err := f.repo.Register(cat)
		require.NoError(t, err)
		b, err := f.ctx.Builder(cat)
		require.NoError(t, err)
		build := method(t, b, "build")
		assert.Equal(t, []string{"name"}, build.Attributes.Strings(model.AttrConstructorArgs))
		assert.Equal(t, []string{"lives"}, build.Attributes.Strings(model.AttrAssignedProperties))
	})

	t.Run("unsatisfiable constructor", func(t *testing.T) {
		fish := class("Fish", prop("name", model.String))
		fish.Constructors = []model.Constructor{ctor(prop("name", model.String), prop("fins", model.NewPrimitiveRef(model.Int)))}
		_, err := f.repo.Register(fish)
		require.NoError(t, err)
		_, err = f.ctx.Builder(fish)
		require.Error(t, err)
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
		missing, _ := errs.ContextValue(err, errs.CtxMissing)
		assert.Equal(t, "fins", missing)
	})

	t.Run("final property outside the constructor", func(t *testing.T) {
		id := prop("id", model.String)
		id.Modifiers.Final = true
		account := class("Account", prop("name", model.String), id)
		account.Constructors = []model.Constructor{ctor(prop("name", model.String))}
		_, err := f.repo.Register(account)
		require.NoError(t, err)
		_, err = f.ctx.Builder(account)
		require.Error(t, err)
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
		missing, _ := errs.ContextValue(err, errs.CtxMissing)
		assert.Equal(t, "id", missing)
	})

	t.Run("constructor taking every final property is preferred", func(t *testing.T) {
		id := prop("id", model.String)
		id.Modifiers.Final = true
		ledger := class("Ledger", prop("name", model.String), prop("note", model.String), id)
		ledger.Constructors = []model.Constructor{
			ctor(prop("name", model.String), prop("note", model.String)),
			ctor(prop("id", model.String)),
		}
		_, err := f.repo.Register(ledger)
		require.NoError(t, err)
		b, err := f.ctx.Builder(ledger)
		require.NoError(t, err)
		build := method(t, b, "build")
		assert.Equal(t, []string{"id"}, build.Attributes.Strings(model.AttrConstructorArgs))
		assert.Equal(t, []string{"name", "note"}, build.Attributes.Strings(model.AttrAssignedProperties))
	})

	t.Run("abstract types", func(t *testing.T) {
		shape := class("Shape")
		shape.Modifiers.Abstract = true
		_, err := f.repo.Register(shape)
		require.NoError(t, err)
		_, err = f.ctx.Builder(shape)
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
	})
}

func TestBuilderValidation(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		f := setup(t, Options{}, zooTypes()...)
		b, err := f.ctx.Builder(get(t, f.repo, "io.zoo.Animal"))
		require.NoError(t, err)
		build := method(t, b, "build")
		assert.False(t, build.Attributes.Bool(model.AttrValidate))
		assert.False(t, build.Attributes.Bool(model.AttrExternalValidator))
		assert.Empty(t, methods(b, "withValidator"))
	})

	t.Run("external validator needs validation", func(t *testing.T) {
		f := setup(t, Options{ExternalValidator: true}, zooTypes()...)
		b, err := f.ctx.Builder(get(t, f.repo, "io.zoo.Animal"))
		require.NoError(t, err)
		assert.False(t, method(t, b, "build").Attributes.Bool(model.AttrExternalValidator))
		assert.Empty(t, methods(b, "withValidator"))
	})

	t.Run("internal and external", func(t *testing.T) {
		f := setup(t, Options{Validation: true, ExternalValidator: true}, zooTypes()...)
		b, err := f.ctx.Builder(get(t, f.repo, "io.zoo.Animal"))
		require.NoError(t, err)
		build := method(t, b, "build")
		assert.True(t, build.Attributes.Bool(model.AttrValidate))
		assert.True(t, build.Attributes.Bool(model.AttrExternalValidator))
		assert.Equal(t, "io.zoo.AnimalBuilder", method(t, b, "withValidator").Return.String())

		utils, ok := f.ctx.Base(ValidationUtils)
		require.True(t, ok)
		assert.Equal(t, "fluentgen/builder.ValidationUtils", utils.FullyQualifiedName())
		assert.Len(t, methods(utils, "validate"), 2)
	})

	t.Run("generated builder package", func(t *testing.T) {
		f := setup(t, Options{GenerateBuilderPackage: true})
		for _, name := range []string{Visitor, BaseFluent, ValidationUtils} {
			def, ok := f.ctx.Base(name)
			require.True(t, ok, name)
			assert.True(t, def.Attributes.Bool(model.AttrGenerate), name)
		}
	})
}

func TestEditable(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	person := get(t, f.repo, "io.zoo.Person")

	editable, err := f.ctx.Editable(person)
	require.NoError(t, err)
	assert.Equal(t, "io.zoo.EditablePerson", editable.FullyQualifiedName())
	assert.True(t, model.Equal(person.ToInternalReference(), *editable.Super))
	assert.Equal(t, "fluentgen/builder.Editable<io.zoo.PersonBuilder>", editable.Implements[0].String())
	require.Len(t, editable.Constructors, 1)
	assert.Equal(t, []string{"name", "pet"}, editable.Constructors[0].ArgumentNames())
	assert.Equal(t, "io.zoo.PersonBuilder", method(t, editable, "edit").Return.String())

	sealed := class("Sealed")
	sealed.Modifiers.Final = true
	_, err = f.ctx.Editable(sealed)
	assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
}

func TestInlineable(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	person := get(t, f.repo, "io.zoo.Person")

	t.Run("base interface", func(t *testing.T) {
		iface, err := f.ctx.InlineableInterface(InlineSpec{})
		require.NoError(t, err)
		base, _ := f.ctx.Base(Inlineable)
		assert.Same(t, base, iface)
	})

	t.Run("named interface", func(t *testing.T) {
		iface, err := f.ctx.InlineableInterface(InlineSpec{Name: "Function", Suffix: "Applier", Method: "apply"})
		require.NoError(t, err)
		assert.Equal(t, "fluentgen/builder.FunctionApplier", iface.FullyQualifiedName())
		assert.Equal(t, model.KindInterface, iface.Kind)
		assert.Equal(t, "T", method(t, iface, "apply").Return.String())
	})

	t.Run("class", func(t *testing.T) {
		inline, err := f.ctx.Inlineable(person, InlineSpec{Prefix: "Callable"})
		require.NoError(t, err)
		assert.Equal(t, "io.zoo.CallablePerson", inline.FullyQualifiedName())
		assert.Equal(t, "io.zoo.PersonFluent<io.zoo.CallablePerson>", inline.Super.String())
		assert.Equal(t, "fluentgen/builder.CallableInlineable<io.zoo.Person>", inline.Implements[0].String())
		assert.Equal(t, "io.zoo.Person", method(t, inline, "update").Return.String())
	})

	t.Run("needs an affix", func(t *testing.T) {
		_, err := f.ctx.Inlineable(person, InlineSpec{Name: "Doneable"})
		assert.True(t, errs.IsCode(err, errs.CodeConfiguration))
	})
}

func TestFamily(t *testing.T) {
	f := setup(t, Options{Inline: []InlineSpec{{Prefix: "Callable"}}}, zooTypes()...)

	fam, err := f.ctx.Family(get(t, f.repo, "io.zoo.Person"))
	require.NoError(t, err)
	var names []string
	for _, d := range fam.Declarations() {
		names = append(names, d.FullyQualifiedName())
	}
	assert.Equal(t, []string{"io.zoo.PersonFluent", "io.zoo.PersonBuilder", "io.zoo.EditablePerson", "io.zoo.CallablePerson"}, names)

	shape := class("Shape")
	shape.Modifiers.Abstract = true
	_, err = f.repo.Register(shape)
	require.NoError(t, err)
	fam, err = f.ctx.Family(shape)
	require.NoError(t, err)
	assert.Len(t, fam.Declarations(), 1)
}

func TestIsBuildable(t *testing.T) {
	f := setup(t, Options{})
	plain := class("Plain")
	_, err := f.repo.Register(plain)
	require.NoError(t, err)

	assert.False(t, f.ctx.IsBuildable(ref("Plain")))
	assert.False(t, f.ctx.IsBuildable(model.String))
	assert.False(t, f.ctx.IsBuildable(ref("Plain").WithDimensions(1)))

	_, err = f.ctx.Builder(plain)
	require.NoError(t, err)
	assert.True(t, f.ctx.IsBuildable(ref("Plain")), "deriving a builder marks its type")
	assert.True(t, f.ctx.IsBuildable(model.WildcardRef{Bound: model.BoundUpper, Type: ref("Plain")}))

	t.Run("registered builders do not leak across contexts", func(t *testing.T) {
		other, err := NewContext(f.repo, Options{Logger: quiet()})
		require.NoError(t, err)
		_, ok := f.repo.Get("io.zoo.PlainBuilder")
		require.True(t, ok)
		assert.False(t, other.IsBuildable(ref("Plain")))
	})
}

func TestFamilySelfReferenceIsStable(t *testing.T) {
	repo := repository.New(repository.Options{Strict: true, Logger: quiet()})
	ctx, err := NewContext(repo, Options{Inline: []InlineSpec{{Suffix: "Callable"}}, Logger: quiet()})
	require.NoError(t, err)
	node, err := repo.Register(class("Node", prop("value", model.String), prop("next", ref("Node"))))
	require.NoError(t, err)

	fam, err := ctx.Family(node)
	require.NoError(t, err)
	assert.Empty(t, repo.Conflicts())
	assert.NotEmpty(t, methods(fam.Fluent, "withNewNext"), "the type itself is buildable inside its family")

	again, err := ctx.Family(node)
	require.NoError(t, err)
	assert.Same(t, fam.Fluent, again.Fluent)
	assert.Empty(t, repo.Conflicts())
}

func TestFluentIgnoresDerivationHistory(t *testing.T) {
	fluentOf := func(t *testing.T, builderFirst bool) *model.TypeDef {
		repo := repository.New(repository.Options{Logger: quiet()})
		ctx, err := NewContext(repo, Options{Logger: quiet()})
		require.NoError(t, err)
		for _, d := range zooTypes() {
			_, err := repo.Register(d)
			require.NoError(t, err)
		}
		if builderFirst {
			other, err := NewContext(repo, Options{Logger: quiet()})
			require.NoError(t, err)
			_, err = other.Builder(get(t, repo, "io.zoo.Animal"))
			require.NoError(t, err)
		}
		fluent, err := ctx.Fluent(get(t, repo, "io.zoo.Person"))
		require.NoError(t, err)
		return fluent
	}

	plain := fluentOf(t, false)
	after := fluentOf(t, true)
	assert.Empty(t, methods(plain, "withNewPet"))
	assert.Empty(t, methods(after, "withNewPet"))
	assert.Equal(t, len(plain.Methods), len(after.Methods))
}

func TestParallelDerivation(t *testing.T) {
	f := setup(t, Options{}, zooTypes()...)
	names := []string{"io.zoo.Person", "io.zoo.Dog", "io.zoo.Animal", "io.zoo.Parent", "io.zoo.Child"}

	var wg sync.WaitGroup
	errCh := make(chan error, len(names)*4)
	for i := 0; i < 4; i++ {
		for _, n := range names {
			def := get(t, f.repo, n)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.ctx.Family(def); err != nil {
					errCh <- err
				}
			}()
		}
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}
	assert.Empty(t, f.repo.Conflicts())
}
