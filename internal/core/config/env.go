package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: FLUENTGEN_[SECTION]_[KEY] (e.g., FLUENTGEN_WATCH_DEBOUNCE).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.BuilderPackage, "FLUENTGEN_BUILDER_PACKAGE")
	setEnvBool(&cfg.Repository.Strict, "FLUENTGEN_STRICT")

	setEnvString(&cfg.Sources.Root, "FLUENTGEN_SOURCES_ROOT")
	setEnvInt(&cfg.Derivation.MaxDepth, "FLUENTGEN_DERIVATION_MAX_DEPTH")
	setEnvInt(&cfg.Derivation.Parallelism, "FLUENTGEN_DERIVATION_PARALLELISM")
	setEnvDuration(&cfg.Watch.Debounce, "FLUENTGEN_WATCH_DEBOUNCE")

	setEnvString(&cfg.Output.DOT, "FLUENTGEN_OUTPUT_DOT")
	setEnvString(&cfg.Output.TSV, "FLUENTGEN_OUTPUT_TSV")
	setEnvString(&cfg.Output.Catalog, "FLUENTGEN_OUTPUT_CATALOG")

	setEnvString(&cfg.Telemetry.MetricsAddr, "FLUENTGEN_TELEMETRY_METRICS_ADDR")
	setEnvString(&cfg.Telemetry.OTLPEndpoint, "FLUENTGEN_TELEMETRY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", i)
		*target = i
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", b)
		*target = b
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		slog.Debug("applying env override", "key", key, "value", d)
		*target = d
	}
}
