package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gqlmap_files_scanned_total",
		Help: "Total number of repository files enumerated for usage scanning.",
	})

	SourceParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gqlmap_source_parse_failures_total",
		Help: "Total number of consumer source files that failed to parse.",
	})

	GraphQLParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gqlmap_graphql_parse_failures_total",
		Help: "Total number of GraphQL documents that failed to parse.",
	})

	OperationsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gqlmap_operations_registered",
		Help: "Number of canonical operations in the registry after extraction.",
	})

	UsagesRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gqlmap_usages_recorded_total",
		Help: "Total number of confirmed operation usages, by scan phase.",
	}, []string{"phase"})

	CodegenExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gqlmap_codegen_exports_total",
		Help: "Total number of Document exports harvested from codegen modules.",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gqlmap_symbol_resolutions_total",
		Help: "Total number of symbol resolution attempts, by winning strategy.",
	}, []string{"strategy"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gqlmap_scan_seconds",
		Help:    "Time spent in each scan phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gqlmap_extraction_seconds",
		Help:    "Time spent extracting operation candidates, by source kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)
