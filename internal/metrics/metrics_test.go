package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sanrakshak/herbtrace/domain"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.ObserveTransition(domain.OpFinalize, domain.StatusFinalized)
	r.ObserveTransition(domain.OpFinalize, domain.StatusFinalized)
	r.ObserveRejection(domain.ReasonOutsideGeoFence)
	r.ObserveOutbox("ledger_event", "queued")

	if got := testutil.ToFloat64(r.transitions.WithLabelValues("finalize", "FINALIZED")); got != 2 {
		t.Fatalf("expected 2 finalize transitions, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("OUTSIDE_GEO_FENCE")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(r.outbox.WithLabelValues("ledger_event", "queued")); got != 1 {
		t.Fatalf("expected 1 queued item, got %v", got)
	}

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}
