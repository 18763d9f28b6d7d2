package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Build Metrics
	RowsReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_rows_read_total",
		Help: "Raw extract rows read per source and entity",
	}, []string{"source", "entity"})
	RowsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_rows_dropped_total",
		Help: "Rows dropped for an unusable identifier per source and entity",
	}, []string{"source", "entity"})
	DuplicatesRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_duplicates_removed_total",
		Help: "Records removed by business-key reconciliation",
	}, []string{"source", "entity"})
	SourcesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_sources_skipped_total",
		Help: "Extracts skipped because the file is missing or the branch aborted",
	}, []string{"source", "reason"})
	MasterRowsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gamecat_master_rows",
		Help: "Rows in each master table of the last run",
	}, []string{"table"})
	BranchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamecat_branch_duration_seconds",
		Help:    "Duration of one source branch",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// Loader Metrics
	RowsLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_rows_loaded_total",
		Help: "Rows copied into PostgreSQL per table",
	}, []string{"table"})
	RowsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamecat_rows_rejected_total",
		Help: "Rows filtered before loading for violating key constraints",
	}, []string{"table"})
	LoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gamecat_load_latency_seconds",
		Help:    "Latency of the full replace transaction",
		Buckets: prometheus.DefBuckets,
	})
)

// Push sends the default registry to a Pushgateway. An empty url is a no-op.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
