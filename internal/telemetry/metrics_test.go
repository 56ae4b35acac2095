package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAnalysisUpdatesGaugeAndHistogram(t *testing.T) {
	before := testutil.ToFloat64(AccountsAnalyzed)

	RecordAnalysis(map[string]int{"cycle": 2, "shell": 1}, 42, 0.05)

	after := testutil.ToFloat64(AccountsAnalyzed)
	if after != 42 {
		t.Errorf("expected AccountsAnalyzed gauge to read 42, got %v (was %v)", after, before)
	}

	if got := testutil.ToFloat64(RingsDetectedTotal.WithLabelValues("cycle")); got < 2 {
		t.Errorf("expected cycle ring counter >= 2, got %v", got)
	}
	if got := testutil.ToFloat64(RingsDetectedTotal.WithLabelValues("shell")); got < 1 {
		t.Errorf("expected shell ring counter >= 1, got %v", got)
	}
}
