package config

import (
	"errors"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"fluentgen/internal/model"

	"github.com/gobwas/glob"
)

// Validate returns every problem found in cfg; nil means valid.
func Validate(cfg *Config) []error {
	var errs []error
	errs = append(errs, validateBuilderPackage(cfg)...)
	errs = append(errs, validateSources(cfg)...)
	errs = append(errs, validateTypes(cfg)...)
	errs = append(errs, validateDerivation(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateOutput(cfg)...)
	return errs
}

func validateBuilderPackage(cfg *Config) []error {
	if cfg.BuilderPackage == "" {
		return []error{fmt.Errorf("builder_package must not be empty")}
	}
	if !model.ValidName(cfg.BuilderPackage) || strings.HasSuffix(cfg.BuilderPackage, "/") {
		return []error{fmt.Errorf("builder_package %q is not a valid package name", cfg.BuilderPackage)}
	}
	return nil
}

func validateSources(cfg *Config) []error {
	var errs []error
	for i, p := range cfg.Sources.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("sources.exclude.dirs[%d] %q: %w", i, p, err))
		}
	}
	for i, p := range cfg.Sources.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("sources.exclude.files[%d] %q: %w", i, p, err))
		}
	}
	return errs
}

func validateTypes(cfg *Config) []error {
	var errs []error
	for i, p := range cfg.Types.Include {
		if _, err := glob.Compile(p, '.'); err != nil {
			errs = append(errs, fmt.Errorf("types.include[%d] %q: %w", i, p, err))
		}
	}
	for i, p := range cfg.Types.Exclude {
		if _, err := glob.Compile(p, '.'); err != nil {
			errs = append(errs, fmt.Errorf("types.exclude[%d] %q: %w", i, p, err))
		}
	}
	return errs
}

func validateDerivation(cfg *Config) []error {
	var errs []error
	if cfg.Derivation.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("derivation.max_depth must be >= 1, got %d", cfg.Derivation.MaxDepth))
	}
	if cfg.Derivation.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("derivation.parallelism must be >= 1, got %d", cfg.Derivation.Parallelism))
	}
	seen := make(map[string]bool, len(cfg.Derivation.Inline))
	for i, in := range cfg.Derivation.Inline {
		ref := fmt.Sprintf("derivation.inline[%d]", i)
		if in.Prefix == "" && in.Suffix == "" {
			errs = append(errs, fmt.Errorf("%s needs a prefix or a suffix", ref))
		}
		if in.Method != "" && !token.IsIdentifier(in.Method) {
			errs = append(errs, fmt.Errorf("%s.method %q is not a valid identifier", ref, in.Method))
		}
		if in.Name != "" && !token.IsIdentifier(in.Name) {
			errs = append(errs, fmt.Errorf("%s.name %q is not a valid identifier", ref, in.Name))
		}
		key := in.Prefix + "*" + in.Suffix
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s duplicates prefix %q and suffix %q", ref, in.Prefix, in.Suffix))
		}
		seen[key] = true
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	if cfg.Watch.Rate < 0 {
		errs = append(errs, fmt.Errorf("watch.rate must not be negative"))
	}
	return errs
}

func validateOutput(cfg *Config) []error {
	paths := map[string]string{
		"output.dot":     cfg.Output.DOT,
		"output.tsv":     cfg.Output.TSV,
		"output.catalog": cfg.Output.Catalog,
	}
	keys := []string{"output.dot", "output.tsv", "output.catalog"}
	var errs []error
	for i, a := range keys {
		for _, b := range keys[i+1:] {
			pa, pb := paths[a], paths[b]
			if pa != "" && pb != "" && filepath.Clean(pa) == filepath.Clean(pb) {
				errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", a, b, pa))
			}
		}
	}
	return errs
}

func joinProblems(problems []error) error {
	return errors.Join(problems...)
}
