package gotypes

import (
	"context"
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo

// Load type-checks the packages matching patterns under dir and returns
// their named struct and interface types, sorted by fully-qualified name.
func Load(ctx context.Context, dir string, patterns ...string) ([]*types.TypeName, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    loadMode,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %v", patterns)
	}

	var out []*types.TypeName
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s errors: %v", pkg.PkgPath, pkg.Errors)
		}
		out = append(out, Declared(pkg.Types)...)
	}
	sort.Slice(out, func(i, j int) bool {
		return qualified(out[i]) < qualified(out[j])
	})
	return out, nil
}

// Declared lists the package-level named struct and interface types of pkg.
// Aliases are skipped.
func Declared(pkg *types.Package) []*types.TypeName {
	if pkg == nil {
		return nil
	}
	var out []*types.TypeName
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		switch tn.Type().Underlying().(type) {
		case *types.Struct, *types.Interface:
			out = append(out, tn)
		}
	}
	return out
}

func qualified(tn *types.TypeName) string {
	if tn.Pkg() == nil {
		return tn.Name()
	}
	return tn.Pkg().Path() + "." + tn.Name()
}
