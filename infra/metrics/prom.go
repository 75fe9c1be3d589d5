package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/trackauction/core/metrics"
)

// PromSink records auction outcomes in Prometheus metrics.
type PromSink struct {
	resolutions *prometheus.CounterVec
	value       prometheus.Gauge
	gap         prometheus.Gauge
	rejections  *prometheus.CounterVec
	awards      *prometheus.CounterVec
}

// NewPromSink registers auction metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_resolutions_total",
		Help: "Number of resolved auctions",
	}, []string{"strategy", "exact", "failed"})
	value := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auction_allocation_value",
		Help: "Total amount of the last allocation",
	})
	gap := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "auction_optimality_gap",
		Help: "Upper bound minus allocated total for the last auction",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_bid_rejections_total",
		Help: "Rejected bids per company and reason",
	}, []string{"company", "reason"})
	awards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_awards_total",
		Help: "Award notifications per company",
	}, []string{"company", "delivered"})

	var err error
	if resolutions, err = register(reg, resolutions); err != nil {
		return nil, err
	}
	if value, err = register(reg, value); err != nil {
		return nil, err
	}
	if gap, err = register(reg, gap); err != nil {
		return nil, err
	}
	if rejections, err = register(reg, rejections); err != nil {
		return nil, err
	}
	if awards, err = register(reg, awards); err != nil {
		return nil, err
	}
	return &PromSink{resolutions: resolutions, value: value, gap: gap, rejections: rejections, awards: awards}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordResolution counts the auction and updates the value gauges.
func (s *PromSink) RecordResolution(r coremetrics.Resolution) error {
	s.resolutions.WithLabelValues(r.Strategy, strconv.FormatBool(r.Exact), strconv.FormatBool(r.Failed)).Inc()
	if r.Failed {
		return nil
	}
	s.value.Set(float64(r.Total))
	s.gap.Set(r.UpperBound - float64(r.Total))
	return nil
}

// RecordBidRejection counts one rejected bid.
func (s *PromSink) RecordBidRejection(r coremetrics.BidRejection) error {
	s.rejections.WithLabelValues(r.Company, r.Reason).Inc()
	return nil
}

// RecordAward counts one award notification.
func (s *PromSink) RecordAward(a coremetrics.Award) error {
	s.awards.WithLabelValues(a.Company, strconv.FormatBool(a.Delivered)).Inc()
	return nil
}
