// Package builder is the runtime contract derived builder code implements
// and callers traverse: visitors, listeners, visitable maps and the small
// builder interfaces.
package builder

// PathElement records one step of a traversal: the visitable key the child
// was found under and the node holding it.
type PathElement struct {
	Key    string
	Parent any
}

// Path is the ordered chain of steps from the traversal root to the
// current node. The root is visited with an empty path.
type Path []PathElement

// Append returns a new path extended by one step. The receiver is never
// modified, so sibling traversals can share a prefix.
func (p Path) Append(key string, parent any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElement{Key: key, Parent: parent})
}

// Last returns the innermost step.
func (p Path) Last() (PathElement, bool) {
	if len(p) == 0 {
		return PathElement{}, false
	}
	return p[len(p)-1], true
}

// Keys lists the visitable keys along the path.
func (p Path) Keys() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.Key
	}
	return out
}
