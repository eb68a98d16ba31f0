package config

import (
	"github.com/gobwas/glob"
)

// TypeFilter decides which fully-qualified names are selected. An empty
// include list selects everything; exclusions win over inclusions.
type TypeFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func NewTypeFilter(t Types) (*TypeFilter, error) {
	f := &TypeFilter{}
	for _, p := range t.Include {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, err
		}
		f.include = append(f.include, g)
	}
	for _, p := range t.Exclude {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, err
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

func (f *TypeFilter) Match(fqn string) bool {
	for _, g := range f.exclude {
		if g.Match(fqn) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(fqn) {
			return true
		}
	}
	return false
}

// PathFilter matches directory and file names against exclusion globs.
type PathFilter struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func NewPathFilter(e Exclude) (*PathFilter, error) {
	f := &PathFilter{}
	for _, p := range e.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		f.dirs = append(f.dirs, g)
	}
	for _, p := range e.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		f.files = append(f.files, g)
	}
	return f, nil
}

func (f *PathFilter) SkipDir(name string) bool { return matchAny(f.dirs, name) }

func (f *PathFilter) SkipFile(name string) bool { return matchAny(f.files, name) }

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
