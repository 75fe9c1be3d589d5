package events

import "time"

// ResolutionEvent is published after every call to the resolver, including
// failed ones.
type ResolutionEvent struct {
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
	// Failed is set when no allocation was produced. Err may still be set
	// on a successful but interrupted resolution.
	Failed bool
	Err    error
	Time   time.Time
}

func (ResolutionEvent) EventName() string { return "resolution" }
