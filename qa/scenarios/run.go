package scenarios

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/trackauction/app"
	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/events"
	"github.com/kilianp07/trackauction/infra/logger"
	"github.com/kilianp07/trackauction/infra/metrics"
	"github.com/kilianp07/trackauction/infra/mqtt"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	pub := mqtt.NewMockPublisher()
	for _, c := range sc.FailCompanies {
		pub.FailCompanies[c] = true
	}

	strategy, err := auction.ParseStrategy(sc.Strategy)
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	policy, err := auction.ParseInvalidBidPolicy(sc.InvalidBids)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	resolver, err := auction.NewResolver(sc.ModelGrid(), auction.Options{
		Strategy:    strategy,
		InvalidBids: policy,
		Workers:     sc.Workers,
		LPBound:     true,
		Logger:      logger.NopLogger{},
	})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	svc := app.NewService(resolver, app.Deps{Sink: sink, Publisher: pub, Logger: logger.NopLogger{}})
	sub := svc.Bus().SubscribeBuffered(256)
	ctx, cancel := context.WithCancel(context.Background())
	done := svc.Start(ctx)
	defer func() {
		cancel()
		<-done
		_ = svc.Close()
	}()

	bids, err := sc.BuildBids()
	if err != nil {
		t.Fatalf("bids: %v", err)
	}
	out, err := svc.Auction(ctx, bids)
	recorded := func() bool {
		n, gerr := testutil.GatherAndCount(reg, "auction_resolutions_total")
		return gerr == nil && n > 0
	}
	if !eventually(recorded, 2*time.Second) {
		t.Errorf("scenario %s: resolution not recorded by the metrics sink", sc.Name)
	}

	switch sc.Expected.Error {
	case "invalid_bid":
		if !errors.Is(err, auction.ErrInvalidBid) {
			t.Fatalf("scenario %s expected invalid bid, got %v", sc.Name, err)
		}
		return
	case "timeout":
		if err != nil || out == nil || !auction.IsTimeout(out.Err) {
			t.Fatalf("scenario %s expected interrupted search, got %v", sc.Name, err)
		}
	case "":
		if err != nil {
			t.Fatalf("scenario %s: %v", sc.Name, err)
		}
		if out.Err != nil {
			t.Errorf("scenario %s unexpected resolver error: %v", sc.Name, out.Err)
		}
	default:
		t.Fatalf("scenario %s: unknown expected error %q", sc.Name, sc.Expected.Error)
	}

	res := out.Result
	if res.Total != sc.Expected.Total {
		t.Errorf("scenario %s expected total %d, got %d", sc.Name, sc.Expected.Total, res.Total)
	}
	if res.Exact != sc.Expected.Exact {
		t.Errorf("scenario %s expected exact=%v", sc.Name, sc.Expected.Exact)
	}
	if sc.Expected.Accepted != nil && !equalInts(res.Accepted, sc.Expected.Accepted) {
		t.Errorf("scenario %s expected accepted %v, got %v", sc.Name, sc.Expected.Accepted, res.Accepted)
	}

	delivered := 0
	for {
		select {
		case ev := <-sub:
			if a, ok := ev.(events.AwardEvent); ok && a.Delivered {
				delivered++
			}
			continue
		default:
		}
		break
	}
	if delivered != sc.Expected.Delivered {
		t.Errorf("scenario %s expected %d delivered awards, got %d", sc.Name, sc.Expected.Delivered, delivered)
	}
}

func eventually(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
