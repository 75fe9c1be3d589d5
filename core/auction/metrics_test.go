package auction

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/trackauction/core/model"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	resolveDuration.WithLabelValues("exact").Observe(0.1)
	searchNodes.WithLabelValues("exact").Inc()
	resolveTimeouts.WithLabelValues("steps").Inc()
	bidsAccepted.Inc()
	bidsRejected.Inc()
	invalidBids.Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"auction_resolve_duration_seconds",
		"auction_search_nodes_total",
		"auction_resolve_timeouts_total",
		"auction_bids_accepted_total",
		"auction_bids_rejected_total",
		"auction_invalid_bids_total",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}

func TestResolveUpdatesMetrics(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })

	r, err := NewResolver(model.Grid{Sections: 2, Time: 2}, Options{Strategy: WithStepBudget(1)})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	bids := []model.Bid{
		{Company: "a", Amount: 2, Cells: []model.Cell{{Location: 0, Time: 0}}},
		{Company: "b", Amount: 1, Cells: []model.Cell{{Location: 0, Time: 0}}},
	}
	if _, err := r.Resolve(context.Background(), bids); !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if got := testutil.ToFloat64(resolveTimeouts.WithLabelValues("steps")); got != 1 {
		t.Errorf("timeouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(bidsAccepted); got != 1 {
		t.Errorf("accepted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(bidsRejected); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}

	if _, err := r.Resolve(context.Background(), []model.Bid{{Company: "a", Amount: 0, Cells: bids[0].Cells}}); err == nil {
		t.Fatal("expected invalid bid error")
	}
	if got := testutil.ToFloat64(invalidBids); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
}
