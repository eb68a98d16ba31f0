package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMappings parses "k=v, k2=v2" into a map. Whitespace around keys and
// values is trimmed; empty entries are skipped.
func ParseMappings(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		k, v, ok := strings.Cut(entry, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid mapping %q: expected key=value", entry)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Override applies a mapping of dotted config keys onto cfg. Only scalar
// keys are supported.
func Override(cfg *Config, mappings map[string]string) error {
	for k, v := range mappings {
		switch k {
		case "builder_package":
			cfg.BuilderPackage = v
		case "repository.strict":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("override %q: %w", k, err)
			}
			cfg.Repository.Strict = b
		case "output.dot":
			cfg.Output.DOT = v
		case "output.tsv":
			cfg.Output.TSV = v
		case "output.catalog":
			cfg.Output.Catalog = v
		case "sources.root":
			cfg.Sources.Root = v
		default:
			return fmt.Errorf("unsupported override key %q", k)
		}
	}
	return nil
}
