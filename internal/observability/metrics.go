package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syster_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	PopulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syster_population_seconds",
		Help:    "Time spent on a full workspace population cycle.",
		Buckets: prometheus.DefBuckets,
	})

	SymbolsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syster_symbols_total",
		Help: "Number of symbols in the current model generation.",
	})

	RelationshipEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syster_relationship_edges_total",
		Help: "Number of relationship edges in the current model generation.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syster_diagnostics_total",
		Help: "Diagnostics produced, by kind.",
	}, []string{"kind"})

	PopulationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syster_populations_cancelled_total",
		Help: "Population cycles abandoned because a newer edit superseded them.",
	})

	StaleSnapshotsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syster_stale_snapshots_dropped_total",
		Help: "Query results discarded because their generation was superseded.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syster_watcher_events_total",
		Help: "File system events received by the watcher.",
	})

	UnchangedEditsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syster_unchanged_edits_skipped_total",
		Help: "Update requests skipped because the content hash was unchanged.",
	})
)
