// Package metrics exposes quickfind's Prometheus counters and
// histograms.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quickfind",
		Name:      "query_duration_seconds",
		Help:      "Time spent running a single query over the index.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
	})

	IndexRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quickfind",
		Name:      "index_records",
		Help:      "Live (non-tombstoned) records currently held in the index.",
	})

	IndexTombstones = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quickfind",
		Name:      "index_tombstones",
		Help:      "Tombstoned records awaiting the next prune.",
	})

	USNChangesApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickfind",
		Name:      "usn_changes_applied_total",
		Help:      "Change-journal entries applied to the index, after coalescing.",
	})

	USNChangesCoalesced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickfind",
		Name:      "usn_changes_coalesced_total",
		Help:      "Change-journal entries dropped by coalescing before apply.",
	})

	SnapshotDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quickfind",
		Name:      "snapshot_duration_seconds",
		Help:      "Time spent writing a snapshot to disk.",
	})

	BuildRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quickfind",
		Name:      "build_records_total",
		Help:      "Records ingested during the initial cold-start MFT scan.",
	})
)

func init() {
	prometheus.MustRegister(
		QueryDuration,
		IndexRecords,
		IndexTombstones,
		USNChangesApplied,
		USNChangesCoalesced,
		SnapshotDuration,
		BuildRecordsTotal,
	)
}

// Serve starts a blocking HTTP server exposing /metrics on addr. The
// server core never calls this on the IPC query path; it is an
// optional, explicitly configured local diagnostics endpoint.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
