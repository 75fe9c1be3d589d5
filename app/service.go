package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/trackauction/app/plugins"
	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/auction/ledger"
	"github.com/kilianp07/trackauction/core/events"
	coremetrics "github.com/kilianp07/trackauction/core/metrics"
	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/monitoring"
	coremqtt "github.com/kilianp07/trackauction/core/mqtt"
	"github.com/kilianp07/trackauction/infra/logger"
	"github.com/kilianp07/trackauction/infra/metrics"
	inframon "github.com/kilianp07/trackauction/infra/monitoring"
	"github.com/kilianp07/trackauction/infra/mqtt"
	"github.com/kilianp07/trackauction/internal/eventbus"
)

// Deps are the collaborators of a Service. Nil fields fall back to no-op
// implementations.
type Deps struct {
	Sink      coremetrics.MetricsSink
	Store     ledger.Store
	Publisher coremqtt.Publisher
	// ReceiptWait bounds the wait for each award receipt. Zero skips
	// receipt tracking.
	ReceiptWait time.Duration
	Logger      logger.Logger
}

// Outcome is the result of one auction run by the service.
type Outcome struct {
	ID       string
	Strategy string
	Bids     []model.Bid
	Result   *auction.Result
	// Err is the non-fatal resolver error, if any (an interrupted search).
	Err error
}

// Service runs auctions and distributes their results.
type Service struct {
	Resolver *auction.Resolver

	bus         *eventbus.Bus[events.Event]
	sink        coremetrics.MetricsSink
	store       ledger.Store
	publisher   coremqtt.Publisher
	receiptWait time.Duration
	log         logger.Logger
	now         func() time.Time

	promAddr string
	closers  []func() error

	// dropped is the bus drop count already reported.
	dropped atomic.Int64
}

// NewService wires a Service around resolver.
func NewService(resolver *auction.Resolver, deps Deps) *Service {
	s := &Service{
		Resolver:    resolver,
		bus:         eventbus.New[events.Event](),
		sink:        deps.Sink,
		store:       deps.Store,
		publisher:   deps.Publisher,
		receiptWait: deps.ReceiptWait,
		log:         deps.Logger,
		now:         time.Now,
	}
	if s.sink == nil {
		s.sink = coremetrics.NopSink{}
	}
	if s.store == nil {
		s.store = ledger.NopStore{}
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	return s
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	opts, err := cfg.Solver.Options(logger.New("auction"))
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	resolver, err := auction.NewResolver(cfg.Grid.Grid(), opts)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := plugins.NewLedgerStore(cfg.Ledger)
	if err != nil {
		coremetrics.Close(sink)
		return nil, fmt.Errorf("ledger: %w", err)
	}

	deps := Deps{Sink: sink, Store: store, Logger: logg}
	var client *mqtt.PahoClient
	if cfg.MQTT.Enabled {
		client, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			coremetrics.Close(sink)
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		deps.Publisher = client
		deps.ReceiptWait = time.Duration(cfg.MQTT.ReceiptWaitMS) * time.Millisecond
	}

	svc := NewService(resolver, deps)
	svc.promAddr = cfg.Metrics.PrometheusAddr
	svc.closers = append(svc.closers, store.Close)
	if client != nil {
		svc.closers = append(svc.closers, func() error { client.Disconnect(); return nil })
	}
	svc.closers = append(svc.closers, func() error { coremetrics.Close(sink); return nil })
	return svc, nil
}

// Bus exposes the event bus so callers can observe auctions.
func (s *Service) Bus() *eventbus.Bus[events.Event] { return s.bus }

// Start launches the metrics collector and, when configured, the Prometheus
// endpoint. Both stop with ctx. The returned channel is closed once the
// collector has drained.
func (s *Service) Start(ctx context.Context) <-chan struct{} {
	done := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	return done
}

// Auction resolves bids, records the outcome and notifies the winners.
// An interrupted search still yields an Outcome; its Err wraps
// auction.ErrSolverTimedOut. Any other resolver failure is returned as the
// error and no allocation is produced.
func (s *Service) Auction(ctx context.Context, bids []model.Bid) (*Outcome, error) {
	id := uuid.NewString()
	strategy := s.Resolver.Strategy().String()
	tags := map[string]string{"module": "auction", "auction_id": id}
	log := logger.With(s.log, map[string]any{"auction_id": id, "strategy": strategy})

	var res *auction.Result
	resolveErr := monitoring.Guard(tags, func() error {
		var err error
		res, err = s.Resolver.Resolve(ctx, bids)
		return err
	})
	ts := s.now()
	failed := resolveErr != nil && !auction.IsTimeout(resolveErr)
	if failed {
		res = nil
	}
	s.publishResolution(id, strategy, bids, res, resolveErr, failed, ts)

	if err := s.store.Append(ctx, ledger.NewRecord(id, ts, strategy, bids, res, resolveErr)); err != nil {
		log.Errorf("ledger append: %v", err)
		monitoring.CaptureException(err, tags)
	}
	if failed {
		if !errors.Is(resolveErr, auction.ErrInvalidBid) {
			monitoring.CaptureException(resolveErr, tags)
		}
		s.reportDrops(log)
		return nil, fmt.Errorf("auction %s: %w", id, resolveErr)
	}
	if resolveErr != nil {
		log.Warnf("search interrupted: %v", resolveErr)
	}

	s.notify(ctx, id, bids, res, ts)
	log.Infof("resolved: %d/%d bids accepted, total %d", len(res.Accepted), len(bids), res.Total)
	s.reportDrops(log)
	return &Outcome{ID: id, Strategy: strategy, Bids: bids, Result: res, Err: resolveErr}, nil
}

// reportDrops warns about events the bus discarded for slow subscribers
// since the previous report.
func (s *Service) reportDrops(log logger.Logger) {
	total := s.bus.Dropped()
	if prev := s.dropped.Swap(total); total > prev {
		log.Warnf("event bus dropped %d events (%d since start); metrics and subscribers miss them", total-prev, total)
	}
}

// DroppedEvents returns the number of events the bus discarded so far.
func (s *Service) DroppedEvents() int64 { return s.bus.Dropped() }

func (s *Service) publishResolution(id, strategy string, bids []model.Bid, res *auction.Result, resolveErr error, failed bool, ts time.Time) {
	ev := events.ResolutionEvent{
		AuctionID: id,
		Strategy:  strategy,
		Bids:      len(bids),
		Failed:    failed,
		Err:       resolveErr,
		Time:      ts,
	}
	if res != nil {
		ev.Accepted = len(res.Accepted)
		ev.Rejected = len(res.Rejected)
		ev.Total = res.Total
		ev.UpperBound = res.UpperBound
		ev.Exact = res.Exact
		ev.Nodes = res.Stats.Nodes
		ev.Duration = res.Stats.Elapsed
	}
	s.bus.Publish(ev)

	var bidErr *auction.BidError
	if errors.As(resolveErr, &bidErr) {
		s.bus.Publish(events.BidRejectedEvent{
			AuctionID: id,
			Index:     bidErr.Index,
			Company:   bidErr.Company,
			Amount:    bids[bidErr.Index].Amount,
			Reason:    events.ReasonInvalid,
			Time:      ts,
		})
		return
	}
	if res == nil {
		return
	}
	for _, i := range res.Rejected {
		s.bus.Publish(events.BidRejectedEvent{
			AuctionID: id,
			Index:     i,
			Company:   bids[i].Company,
			Amount:    bids[i].Amount,
			Reason:    events.ReasonOutbid,
			Time:      ts,
		})
	}
}

// notify sends one award per winning company with all of its cells.
func (s *Service) notify(ctx context.Context, id string, bids []model.Bid, res *auction.Result, ts time.Time) {
	if s.publisher == nil {
		return
	}
	amounts := make(map[string]int64)
	for _, i := range res.Accepted {
		amounts[bids[i].Company] += bids[i].Amount
	}
	for _, company := range res.Allocation.Companies() {
		award := coremqtt.Award{
			AuctionID: id,
			Company:   company,
			Amount:    amounts[company],
			Cells:     res.Allocation.CellsOf(company),
			Exact:     res.Exact,
			IssuedAt:  ts,
		}
		delivered, err := s.deliver(ctx, award)
		if err != nil {
			s.log.Warnf("award %s to %s: %v", id, company, err)
		}
		s.bus.Publish(events.AwardEvent{
			AuctionID: id,
			Company:   company,
			Cells:     len(award.Cells),
			Amount:    award.Amount,
			Delivered: delivered,
			Err:       err,
			Time:      s.now(),
		})
	}
}

func (s *Service) deliver(ctx context.Context, a coremqtt.Award) (bool, error) {
	msgID, err := s.publisher.PublishAward(ctx, a)
	if err != nil {
		return false, err
	}
	if s.receiptWait <= 0 {
		return true, nil
	}
	return s.publisher.WaitForReceipt(msgID, s.receiptWait)
}

// History returns the ledger records matching q.
func (s *Service) History(ctx context.Context, q ledger.Query) ([]ledger.Record, error) {
	return s.store.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	monitoring.Flush(2 * time.Second)
	return errors.Join(errs...)
}
