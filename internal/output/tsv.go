package output

import (
	"fmt"
	"strings"

	"fluentgen/internal/model"
)

type TSVGenerator struct {
	decls Declarations
}

func NewTSVGenerator(d Declarations) *TSVGenerator {
	return &TSVGenerator{decls: d}
}

// Generate writes one row per declaration.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tKind\tRole\tOrigin\tDerivedFrom\tSuper\tProperties\tPlaceholder\n")
	for _, def := range sortedDefs(t.decls) {
		super := ""
		if def.Super != nil {
			super = def.Super.String()
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%t\n",
			def.FullyQualifiedName(),
			def.Kind,
			def.Attributes.String(model.AttrRole),
			def.Origin(),
			def.Attributes.String(model.AttrDerivedFrom),
			super,
			len(def.Properties),
			def.Placeholder,
		)
	}
	return buf.String(), nil
}

// GenerateEdges writes one row per relation between stored declarations.
func (t *TSVGenerator) GenerateEdges() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tRelation\n")
	for _, e := range Edges(sortedDefs(t.decls), true) {
		fmt.Fprintf(&buf, "%s\t%s\t%s\n", e.From, e.To, e.Relation)
	}
	return buf.String(), nil
}
