package output

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"fluentgen/internal/engine/derive"
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zoo(t *testing.T) *repository.Repository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.New(repository.Options{Logger: logger})

	animal := &model.TypeDef{Kind: model.KindClass, Package: "zoo", Name: "Animal",
		Modifiers:  model.Modifiers{Visibility: model.VisibilityPublic},
		Properties: []model.Property{{Name: "name", Type: model.String}},
	}
	person := &model.TypeDef{Kind: model.KindClass, Package: "zoo", Name: "Person",
		Modifiers: model.Modifiers{Visibility: model.VisibilityPublic},
		Properties: []model.Property{
			{Name: "pet", Type: model.NewClassRef("zoo.Animal")},
			{Name: "owner", Type: model.NewClassRef("zoo.Owner")},
		},
	}
	for _, def := range []*model.TypeDef{animal, person} {
		_, err := repo.Register(def)
		require.NoError(t, err)
	}
	_, err := repo.GetOrPlaceholder("zoo.Owner")
	require.NoError(t, err)

	ctx, err := derive.NewContext(repo, derive.Options{Logger: logger, SkipEditable: true})
	require.NoError(t, err)
	ctx.MarkBuildable("zoo.Animal")
	_, err = ctx.Family(animal)
	require.NoError(t, err)
	return repo
}

func TestEdges(t *testing.T) {
	repo := zoo(t)
	edges := Edges(repo.All(), true)

	assert.Contains(t, edges, Edge{From: "zoo.AnimalBuilder", To: "zoo.Animal", Relation: RelDerives})
	assert.Contains(t, edges, Edge{From: "zoo.AnimalBuilder", To: "zoo.AnimalFluent", Relation: RelExtends})
	assert.Contains(t, edges, Edge{From: "zoo.Person", To: "zoo.Animal", Relation: RelUses})
	assert.Contains(t, edges, Edge{From: "zoo.Person", To: "zoo.Owner", Relation: RelUses})

	for _, e := range Edges(repo.All(), false) {
		assert.NotEqual(t, RelUses, e.Relation)
	}
}

func TestDOTGenerator(t *testing.T) {
	repo := zoo(t)
	dot, err := NewDOTGenerator(repo).Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dot, "digraph declarations {"))
	assert.Contains(t, dot, `"zoo.AnimalBuilder" -> "zoo.Animal"`)
	assert.Contains(t, dot, `label="derives"`)
	assert.Contains(t, dot, `"zoo.Owner" [label="zoo.Owner", style="rounded,dashed"`)
	assert.NotContains(t, dot, "fluentgen/builder.Visitor\"", "base catalog hidden by default")

	gen := NewDOTGenerator(repo)
	gen.IncludeBases = true
	withBases, err := gen.Generate()
	require.NoError(t, err)
	assert.Contains(t, withBases, "cluster_base")

	again, err := NewDOTGenerator(repo).Generate()
	require.NoError(t, err)
	assert.Equal(t, dot, again, "output is deterministic")
}

func TestDOTGeneratorMarksCycles(t *testing.T) {
	repo := repository.New(repository.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	a := model.NewClassRef("loop.A")
	b := model.NewClassRef("loop.B")
	_, err := repo.Register(&model.TypeDef{Kind: model.KindClass, Package: "loop", Name: "A", Super: &b})
	require.NoError(t, err)
	_, err = repo.Register(&model.TypeDef{Kind: model.KindClass, Package: "loop", Name: "B", Super: &a})
	require.NoError(t, err)

	dot, err := NewDOTGenerator(repo).Generate()
	require.NoError(t, err)
	assert.Contains(t, dot, "CYCLE")
	assert.Contains(t, dot, `fillcolor="mistyrose"`)
}

func TestTSVGenerator(t *testing.T) {
	repo := zoo(t)
	gen := NewTSVGenerator(repo)

	tsv, err := gen.Generate()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	assert.Equal(t, "Type\tKind\tRole\tOrigin\tDerivedFrom\tSuper\tProperties\tPlaceholder", lines[0])
	assert.Contains(t, tsv, "zoo.Animal\tclass\t\t\t\t\t1\tfalse\n")
	assert.Contains(t, tsv, "zoo.Owner\tclass\t\t\t\t\t0\ttrue\n")
	assert.Contains(t, tsv, "zoo.AnimalBuilder\tclass\tbuilder\t")

	edges, err := gen.GenerateEdges()
	require.NoError(t, err)
	assert.Contains(t, edges, "From\tTo\tRelation\n")
	assert.Contains(t, edges, "zoo.Person\tzoo.Owner\tuses\n")
}
