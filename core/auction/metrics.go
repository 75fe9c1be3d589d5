package auction

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	resolveDuration *prometheus.HistogramVec
	searchNodes     *prometheus.CounterVec
	resolveTimeouts *prometheus.CounterVec
	bidsAccepted    prometheus.Counter
	bidsRejected    prometheus.Counter
	invalidBids     prometheus.Counter
)

type collectors struct {
	duration *prometheus.HistogramVec
	nodes    *prometheus.CounterVec
	timeouts *prometheus.CounterVec
	accepted prometheus.Counter
	rejected prometheus.Counter
	invalid  prometheus.Counter
}

// newCollectors creates new metric collectors.
func newCollectors() collectors {
	return collectors{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auction_resolve_duration_seconds",
				Help:    "Wall time spent resolving one batch of bids",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"strategy"},
		),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_search_nodes_total",
				Help: "Branch and bound nodes explored",
			},
			[]string{"strategy"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_resolve_timeouts_total",
				Help: "Resolutions that returned a non-exact allocation",
			},
			[]string{"strategy"},
		),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_accepted_total",
			Help: "Bids awarded their full cell set",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Bids that lost to a conflicting selection",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_invalid_bids_total",
			Help: "Resolutions refused because of a malformed bid",
		}),
	}
}

func (c collectors) install() {
	resolveDuration, searchNodes, resolveTimeouts = c.duration, c.nodes, c.timeouts
	bidsAccepted, bidsRejected, invalidBids = c.accepted, c.rejected, c.invalid
}

func init() {
	newCollectors().install()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers resolver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(resolveDuration, searchNodes, resolveTimeouts, bidsAccepted, bidsRejected, invalidBids)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	newCollectors().install()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
