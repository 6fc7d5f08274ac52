package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindbody",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of provider sync runs grouped by provider and outcome.",
	}, []string{"provider", "status"})

	rowsWrittenCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindbody",
		Subsystem: "records",
		Name:      "rows_appended_total",
		Help:      "Number of rows appended to user datasets per provenance.",
	}, []string{"dataset", "provider"})

	rowsSkippedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindbody",
		Subsystem: "records",
		Name:      "rows_deduplicated_total",
		Help:      "Number of incoming rows dropped because their identity value was already stored.",
	}, []string{"dataset", "provider"})

	lastSyncGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mindbody",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync per provider.",
	}, []string{"provider"})

	coachRepliesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindbody",
		Subsystem: "coach",
		Name:      "replies_total",
		Help:      "Number of coach replies grouped by the module that produced them.",
	}, []string{"module"})
)

func init() {
	prometheus.MustRegister(syncRunsCounter, rowsWrittenCounter, rowsSkippedCounter, lastSyncGauge, coachRepliesCounter)
}

// RecordSync counts a finished sync run and moves the success watermark.
func RecordSync(provider, status string, ts time.Time) {
	syncRunsCounter.WithLabelValues(provider, status).Inc()
	if status == "ok" && !ts.IsZero() {
		lastSyncGauge.WithLabelValues(provider).Set(float64(ts.Unix()))
	}
}

// RecordAppend counts rows written and rows dropped as duplicates.
func RecordAppend(dataset, provider string, added, skipped int) {
	if added > 0 {
		rowsWrittenCounter.WithLabelValues(dataset, provider).Add(float64(added))
	}
	if skipped > 0 {
		rowsSkippedCounter.WithLabelValues(dataset, provider).Add(float64(skipped))
	}
}

// RecordCoachReply counts a reply from one coach module.
func RecordCoachReply(module string) {
	coachRepliesCounter.WithLabelValues(module).Inc()
}
