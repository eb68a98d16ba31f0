package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AdaptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fluentgen_adapt_seconds",
		Help:    "Time spent translating a source handle into a declaration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"adapter"})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentgen_registrations_total",
		Help: "Repository registrations by outcome.",
	}, []string{"outcome"})

	RepositoryDeclarations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fluentgen_repository_declarations",
		Help: "Number of declarations held by the repository.",
	})

	DerivationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fluentgen_derivation_seconds",
		Help:    "Time spent deriving a builder-family declaration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	DerivationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentgen_derivation_errors_total",
		Help: "Derivations that failed, by error code.",
	}, []string{"code"})

	AdapterCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentgen_adapter_cache_hits_total",
		Help: "Reference cache hits per adapter.",
	}, []string{"adapter"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluentgen_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fluentgen_run_seconds",
		Help:    "Wall time of one scan, register and derive pass.",
		Buckets: prometheus.DefBuckets,
	})
)
