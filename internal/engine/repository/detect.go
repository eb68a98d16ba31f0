// # internal/engine/repository/detect.go
package repository

import "sort"

// DetectCycles finds inheritance cycles over super-type and interface edges.
// A declaration naming itself in a type argument (self-bounded generics) is
// not an inheritance edge.
func (r *Repository) DetectCycles() [][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, name := range r.order {
		if !visited[name] {
			r.findCycles(name, visited, onStack, []string{}, &cycles)
		}
	}

	return cycles
}

func (r *Repository) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range r.parents(curr) {
		if onStack[next] {
			cycleStart := -1
			for i, name := range path {
				if name == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]string, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			r.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// parents returns the stored super-type and interface names of name, sorted
// so the walk is deterministic.
func (r *Repository) parents(name string) []string {
	def, ok := r.defs[name]
	if !ok {
		return nil
	}
	var out []string
	if def.Super != nil {
		if _, ok := r.defs[def.Super.FullyQualifiedName]; ok {
			out = append(out, def.Super.FullyQualifiedName)
		}
	}
	for _, iface := range def.Implements {
		if _, ok := r.defs[iface.FullyQualifiedName]; ok {
			out = append(out, iface.FullyQualifiedName)
		}
	}
	sort.Strings(out)
	return out
}
