package metrics

import (
	"context"
	"errors"

	"github.com/kilianp07/trackauction/core/events"
	coremetrics "github.com/kilianp07/trackauction/core/metrics"
	"github.com/kilianp07/trackauction/infra/logger"
	"github.com/kilianp07/trackauction/internal/eventbus"
)

// collectorBuffer sizes the subscription so that one auction's rejection
// events fit without drops.
const collectorBuffer = 1024

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled or the bus is closed. The
// returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.SubscribeBuffered(collectorBuffer)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %s: %v", ev.EventName(), err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.ResolutionEvent:
		return sink.RecordResolution(coremetrics.Resolution{
			AuctionID:  e.AuctionID,
			Strategy:   e.Strategy,
			Bids:       e.Bids,
			Accepted:   e.Accepted,
			Rejected:   e.Rejected,
			Total:      e.Total,
			UpperBound: e.UpperBound,
			Exact:      e.Exact,
			Nodes:      e.Nodes,
			Duration:   e.Duration,
			Failed:     e.Failed,
			Time:       e.Time,
		})
	case events.BidRejectedEvent:
		if r, ok := sink.(coremetrics.BidRejectionRecorder); ok {
			return r.RecordBidRejection(coremetrics.BidRejection{
				AuctionID: e.AuctionID,
				Company:   e.Company,
				Amount:    e.Amount,
				Reason:    e.Reason,
				Time:      e.Time,
			})
		}
	case events.AwardEvent:
		if r, ok := sink.(coremetrics.AwardRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			return r.RecordAward(coremetrics.Award{
				AuctionID: e.AuctionID,
				Company:   e.Company,
				Cells:     e.Cells,
				Amount:    e.Amount,
				Delivered: e.Delivered,
				Error:     errStr,
				Time:      e.Time,
			})
		}
	default:
		return errors.New("unsupported event")
	}
	return nil
}
