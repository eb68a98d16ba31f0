package config

import (
	"os"
	"strings"

	"fluentgen/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML configuration, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read config"), errors.CtxPath, path)
	}
	return Parse(string(data))
}

// Parse decodes configuration text. Unknown keys are rejected so typos in
// section names surface instead of silently falling back to defaults.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.CodeConfiguration, "unknown config keys: "+strings.Join(keys, ", "))
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	normalize(&cfg)

	if problems := Validate(&cfg); len(problems) > 0 {
		return nil, errors.Wrap(joinProblems(problems), errors.CodeConfiguration, "invalid config")
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.BuilderPackage) == "" {
		cfg.BuilderPackage = DefaultBuilderPackage
	}
	if strings.TrimSpace(cfg.Sources.Root) == "" {
		cfg.Sources.Root = "."
	}
	if len(cfg.Sources.Exclude.Dirs) == 0 {
		cfg.Sources.Exclude.Dirs = []string{".git", "vendor", "node_modules", "build", "target"}
	}
	if cfg.Derivation.MaxDepth == 0 {
		cfg.Derivation.MaxDepth = DefaultMaxDepth
	}
	if cfg.Derivation.Parallelism == 0 {
		cfg.Derivation.Parallelism = DefaultParallelism
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.Rate > 0 && cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}
}

func normalize(cfg *Config) {
	cfg.BuilderPackage = strings.TrimSpace(cfg.BuilderPackage)
	cfg.Sources.Java = trimAll(cfg.Sources.Java)
	cfg.Sources.Go = trimAll(cfg.Sources.Go)
	cfg.Types.Include = trimAll(cfg.Types.Include)
	cfg.Types.Exclude = trimAll(cfg.Types.Exclude)
	for i := range cfg.Derivation.Inline {
		in := &cfg.Derivation.Inline[i]
		in.Prefix = strings.TrimSpace(in.Prefix)
		in.Name = strings.TrimSpace(in.Name)
		in.Suffix = strings.TrimSpace(in.Suffix)
		in.Method = strings.TrimSpace(in.Method)
	}
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
