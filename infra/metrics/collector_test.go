package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trackauction/core/events"
	coremetrics "github.com/kilianp07/trackauction/core/metrics"
	"github.com/kilianp07/trackauction/internal/eventbus"
)

type memorySink struct {
	mu          sync.Mutex
	resolutions []coremetrics.Resolution
	rejections  []coremetrics.BidRejection
	awards      []coremetrics.Award
}

func (m *memorySink) RecordResolution(r coremetrics.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, r)
	return nil
}

func (m *memorySink) RecordBidRejection(r coremetrics.BidRejection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, r)
	return nil
}

func (m *memorySink) RecordAward(a coremetrics.Award) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awards = append(m.awards, a)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New[events.Event]()
	sink := &memorySink{}
	done := StartEventCollector(context.Background(), bus, sink)

	bus.Publish(events.ResolutionEvent{AuctionID: "a", Strategy: "exact", Exact: true, Total: 7})
	bus.Publish(events.BidRejectedEvent{AuctionID: "a", Company: "c", Reason: events.ReasonOutbid})
	bus.Publish(events.AwardEvent{AuctionID: "a", Company: "w", Err: errors.New("offline")})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	require.Len(t, sink.resolutions, 1)
	assert.Equal(t, int64(7), sink.resolutions[0].Total)
	require.Len(t, sink.rejections, 1)
	assert.Equal(t, events.ReasonOutbid, sink.rejections[0].Reason)
	require.Len(t, sink.awards, 1)
	assert.Equal(t, "offline", sink.awards[0].Error)
}

func TestStartEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.New[events.Event]()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestStartEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	<-done
}
