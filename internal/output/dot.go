package output

import (
	"fmt"
	"strings"

	"fluentgen/internal/model"
)

type DOTGenerator struct {
	decls Declarations
	// IncludeUses adds member-type edges besides inheritance and derivation.
	IncludeUses bool
	// IncludeBases draws the base catalog; it is hidden by default.
	IncludeBases bool
}

func NewDOTGenerator(d Declarations) *DOTGenerator {
	return &DOTGenerator{decls: d}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph declarations {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := make(map[string]map[string]bool)
	inCycle := make(map[string]bool)
	for _, cycle := range d.decls.DetectCycles() {
		for i := range cycle {
			from, to := cycle[i], cycle[(i+1)%len(cycle)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			inCycle[from] = true
		}
	}

	var (
		groups = map[category][]*model.TypeDef{}
		shown  []*model.TypeDef
	)
	for _, def := range sortedDefs(d.decls) {
		cat := categorize(def)
		if cat == catBase && !d.IncludeBases {
			continue
		}
		groups[cat] = append(groups[cat], def)
		shown = append(shown, def)
	}

	writeCluster(&buf, "cluster_source", "Declarations", "whitesmoke", groups[catSource], func(def *model.TypeDef) string {
		if inCycle[def.FullyQualifiedName()] {
			return `fillcolor="mistyrose", color="red", penwidth=2.0`
		}
		return `color="darkslategrey"`
	})
	writeCluster(&buf, "cluster_derived", "Derived", "honeydew", groups[catDerived], func(*model.TypeDef) string {
		return `color="forestgreen"`
	})
	if len(groups[catBase]) > 0 {
		writeCluster(&buf, "cluster_base", "Base Catalog", "aliceblue", groups[catBase], func(*model.TypeDef) string {
			return `color="steelblue"`
		})
	}

	if len(groups[catPlaceholder]) > 0 {
		buf.WriteString("  // Unresolved placeholders\n")
		for _, def := range groups[catPlaceholder] {
			name := def.FullyQualifiedName()
			buf.WriteString(fmt.Sprintf("  %q [label=%q, style=\"rounded,dashed\", color=\"grey\"];\n", name, name))
		}
		buf.WriteString("\n")
	}

	for _, e := range Edges(shown, d.IncludeUses) {
		attrs := edgeStyle(e.Relation)
		if e.Relation != RelDerives && e.Relation != RelUses && cycleEdges[e.From][e.To] {
			attrs = `color="red", penwidth=3.0, label="CYCLE"`
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", e.From, e.To, attrs))
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_source [label=\"Declaration\", fillcolor=\"white\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_derived [label=\"Derived\", fillcolor=\"honeydew\", style=\"rounded,filled\"];\n")
	buf.WriteString("    legend_placeholder [label=\"Placeholder\", style=\"rounded,dashed\", color=\"grey\"];\n")
	buf.WriteString("    legend_cycle [label=\"Inheritance Cycle\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("  }\n")
	buf.WriteString("}\n")

	return buf.String(), nil
}

func writeCluster(buf *strings.Builder, id, label, color string, defs []*model.TypeDef, style func(*model.TypeDef) string) {
	fmt.Fprintf(buf, "  subgraph %s {\n", id)
	fmt.Fprintf(buf, "    label=%q;\n", label)
	buf.WriteString("    style=filled;\n")
	fmt.Fprintf(buf, "    color=%q;\n", color)
	buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
	for _, def := range defs {
		fmt.Fprintf(buf, "    %q [label=%q, %s];\n", def.FullyQualifiedName(), nodeLabel(def), style(def))
	}
	buf.WriteString("  }\n\n")
}

func nodeLabel(def *model.TypeDef) string {
	label := def.FullyQualifiedName()
	if role := def.Attributes.String(model.AttrRole); role != "" {
		return fmt.Sprintf("%s\n(%s)", label, role)
	}
	return fmt.Sprintf("%s\n(%s, %d props)", label, def.Kind, len(def.Properties))
}

func edgeStyle(rel Relation) string {
	switch rel {
	case RelExtends:
		return `color="darkslategrey", arrowhead=empty`
	case RelImplements:
		return `color="steelblue", style=dashed, arrowhead=empty`
	case RelDerives:
		return `color="forestgreen", style=dotted, label="derives"`
	default:
		return `color="grey", style=dashed`
	}
}
