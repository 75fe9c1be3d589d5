package metrics

import "time"

// Resolution summarises one auction for the sinks.
type Resolution struct {
	AuctionID  string
	Strategy   string
	Bids       int
	Accepted   int
	Rejected   int
	Total      int64
	UpperBound float64
	Exact      bool
	Nodes      int64
	Duration   time.Duration
	Failed     bool
	Time       time.Time
}

// MetricsSink records auction resolutions.
type MetricsSink interface {
	RecordResolution(r Resolution) error
}

// BidRejection describes one losing or refused bid.
type BidRejection struct {
	AuctionID string
	Company   string
	Amount    int64
	Reason    string
	Time      time.Time
}

// BidRejectionRecorder records rejected bids.
type BidRejectionRecorder interface {
	RecordBidRejection(r BidRejection) error
}

// Award describes the notification of a winning company.
type Award struct {
	AuctionID string
	Company   string
	Cells     int
	Amount    int64
	Delivered bool
	Error     string
	Time      time.Time
}

// AwardRecorder records award notifications.
type AwardRecorder interface {
	RecordAward(a Award) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordResolution(Resolution) error     { return nil }
func (NopSink) RecordBidRejection(BidRejection) error { return nil }
func (NopSink) RecordAward(Award) error               { return nil }
