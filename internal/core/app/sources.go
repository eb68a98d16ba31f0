package app

import (
	"context"
	"fmt"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"fluentgen/internal/core/config"
	"fluentgen/internal/engine/adapter/gotypes"
	"fluentgen/internal/engine/adapter/javasource"
)

// JavaSource reads every Java compilation unit under Paths.
type JavaSource struct {
	Paths  []string
	Filter *config.PathFilter
}

func (s *JavaSource) Name() string { return javasource.Name }

func (s *JavaSource) Handles(ctx context.Context) ([]any, error) {
	files, err := s.scan()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, javasource.Source{Path: path, Content: content})
	}
	return out, nil
}

func (s *JavaSource) scan() ([]string, error) {
	var files []string
	for _, root := range s.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && s.Filter != nil && s.Filter.SkipDir(base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !javasource.IsSource(path) {
				return nil
			}
			if s.Filter != nil && s.Filter.SkipFile(base) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// GoSource type-checks the packages matching Patterns under Dir.
type GoSource struct {
	Dir      string
	Patterns []string
}

func (s *GoSource) Name() string { return gotypes.Name }

func (s *GoSource) Handles(ctx context.Context) ([]any, error) {
	names, err := gotypes.Load(ctx, s.Dir, s.Patterns...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(names))
	for i, tn := range names {
		out[i] = tn
	}
	return out, nil
}

// StaticSource hands out a fixed list of handles. Programs embedding the
// generator use it to feed compiled types through the reflect adapter.
type StaticSource struct {
	Label   string
	Entries []any
}

// ReflectTypes wraps the types of values as a source.
func ReflectTypes(values ...any) *StaticSource {
	entries := make([]any, len(values))
	for i, v := range values {
		if t, ok := v.(reflect.Type); ok {
			entries[i] = t
			continue
		}
		entries[i] = reflect.TypeOf(v)
	}
	return &StaticSource{Label: "reflect", Entries: entries}
}

func (s *StaticSource) Name() string { return s.Label }

func (s *StaticSource) Handles(context.Context) ([]any, error) {
	return append([]any(nil), s.Entries...), nil
}

// handleName describes a handle for failure reports.
func handleName(h any) string {
	switch v := h.(type) {
	case javasource.Source:
		return v.Path
	case *javasource.Source:
		return v.Path
	case *types.TypeName:
		if v.Pkg() == nil {
			return v.Name()
		}
		return v.Pkg().Path() + "." + v.Name()
	case reflect.Type:
		return v.String()
	}
	return fmt.Sprintf("%T", h)
}
