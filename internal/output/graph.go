// Package output renders the repository as Graphviz DOT and TSV reports.
package output

import (
	"sort"

	"fluentgen/internal/engine/repository"
	"fluentgen/internal/model"
)

// Declarations is the read side of the repository the reports need.
type Declarations interface {
	All() []*model.TypeDef
	DetectCycles() [][]string
}

type Relation string

const (
	RelExtends    Relation = "extends"
	RelImplements Relation = "implements"
	RelDerives    Relation = "derives"
	RelUses       Relation = "uses"
)

type Edge struct {
	From     string
	To       string
	Relation Relation
}

// Edges lists the relations between stored declarations, sorted. Edges to
// names the repository does not hold are dropped.
func Edges(defs []*model.TypeDef, includeUses bool) []Edge {
	known := make(map[string]bool, len(defs))
	for _, def := range defs {
		known[def.FullyQualifiedName()] = true
	}
	var out []Edge
	for _, def := range defs {
		from := def.FullyQualifiedName()
		structural := make(map[string]bool)
		add := func(to string, rel Relation) {
			if known[to] && to != from {
				out = append(out, Edge{From: from, To: to, Relation: rel})
				structural[to] = true
			}
		}
		if def.Super != nil {
			add(def.Super.FullyQualifiedName, RelExtends)
		}
		for _, iface := range def.Implements {
			add(iface.FullyQualifiedName, RelImplements)
		}
		if src := def.Attributes.String(model.AttrDerivedFrom); src != "" {
			add(src, RelDerives)
		}
		if !includeUses {
			continue
		}
		for _, ref := range repository.References(def) {
			if !structural[ref] {
				add(ref, RelUses)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Relation < out[j].Relation
	})
	return out
}

type category int

const (
	catSource category = iota
	catDerived
	catBase
	catPlaceholder
)

func categorize(def *model.TypeDef) category {
	switch {
	case def.Placeholder:
		return catPlaceholder
	case def.Attributes.Has(model.AttrCatalogVersion):
		return catBase
	case def.Attributes.Has(model.AttrRole):
		return catDerived
	default:
		return catSource
	}
}

func sortedDefs(d Declarations) []*model.TypeDef {
	defs := d.All()
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].FullyQualifiedName() < defs[j].FullyQualifiedName()
	})
	return defs
}
