package config

import (
	"time"
)

const (
	DefaultBuilderPackage = "fluentgen/builder"
	DefaultMaxDepth       = 32
	DefaultDebounce       = 500 * time.Millisecond
	DefaultCatalogPath    = "fluentgen.db"
	DefaultParallelism    = 4
)

type Config struct {
	BuilderPackage string     `toml:"builder_package"`
	Sources        Sources    `toml:"sources"`
	Types          Types      `toml:"types"`
	Derivation     Derivation `toml:"derivation"`
	Repository     Repository `toml:"repository"`
	Watch          Watch      `toml:"watch"`
	Output         Output     `toml:"output"`
	Telemetry      Telemetry  `toml:"telemetry"`
}

// Sources lists where declarations are read from. Java paths may be files
// or directories; Go patterns use the go/packages pattern syntax.
type Sources struct {
	Root    string   `toml:"root"`
	Java    []string `toml:"java"`
	Go      []string `toml:"go"`
	Exclude Exclude  `toml:"exclude"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

// Types selects which registered declarations get a builder family.
// Patterns are globs over fully-qualified names with '.' as separator.
type Types struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Derivation struct {
	MaxDepth    int          `toml:"max_depth"`
	Editable    *bool        `toml:"editable"`
	Parallelism int          `toml:"parallelism"`
	Inline      []InlineSpec `toml:"inline"`
	// ExternalValidator only takes effect together with Validation.
	Validation             bool `toml:"validation"`
	ExternalValidator      bool `toml:"external_validator"`
	GenerateBuilderPackage bool `toml:"generate_builder_package"`
}

type InlineSpec struct {
	Prefix string `toml:"prefix"`
	Name   string `toml:"name"`
	Suffix string `toml:"suffix"`
	Method string `toml:"method"`
}

type Repository struct {
	Strict bool `toml:"strict"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// Rate caps regenerations per second; zero means unlimited.
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Output struct {
	DOT     string `toml:"dot"`
	TSV     string `toml:"tsv"`
	Catalog string `toml:"catalog"`
}

type Telemetry struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// EditableEnabled reports whether Editable wrappers are derived.
func (d Derivation) EditableEnabled() bool {
	return d.Editable == nil || *d.Editable
}
