package main

import (
	"flag"
	"io"
	"strings"
)

const versionString = "0.3.0"
const defaultConfigPath = "./fluentgen.toml"

type cliOptions struct {
	configPath string
	once       bool
	dot        string
	tsv        string
	catalog    string
	set        mappingFlag
	verbose    bool
	version    bool
	args       []string
}

// mappingFlag collects repeated -set values.
type mappingFlag []string

func (m *mappingFlag) String() string { return strings.Join(*m, ",") }

func (m *mappingFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("fluentgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Generate once and exit instead of watching sources")
	fs.StringVar(&opts.dot, "dot", "", "Write the declaration graph as DOT to this path")
	fs.StringVar(&opts.tsv, "tsv", "", "Write the declaration table as TSV to this path")
	fs.StringVar(&opts.catalog, "catalog", "", "Record runs in this SQLite catalog")
	fs.Var(&opts.set, "set", "Override config values, e.g. -set builder_package=x/y,repository.strict=true")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
