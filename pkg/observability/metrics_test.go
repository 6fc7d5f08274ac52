package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSyncMovesWatermarkOnlyOnSuccess(t *testing.T) {
	ts := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)

	RecordSync("metrics-test", "error", ts)
	require.Equal(t, float64(0), testutil.ToFloat64(lastSyncGauge.WithLabelValues("metrics-test")))

	RecordSync("metrics-test", "ok", ts)
	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastSyncGauge.WithLabelValues("metrics-test")))
	require.Equal(t, float64(1), testutil.ToFloat64(syncRunsCounter.WithLabelValues("metrics-test", "ok")))
}

func TestRecordAppendCountsRows(t *testing.T) {
	RecordAppend("metrics-ds", "strava", 3, 2)
	RecordAppend("metrics-ds", "strava", 0, 0)

	require.Equal(t, float64(3), testutil.ToFloat64(rowsWrittenCounter.WithLabelValues("metrics-ds", "strava")))
	require.Equal(t, float64(2), testutil.ToFloat64(rowsSkippedCounter.WithLabelValues("metrics-ds", "strava")))
}
