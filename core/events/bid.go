package events

import "time"

// Rejection reasons carried by BidRejectedEvent.
const (
	ReasonOutbid  = "outbid"
	ReasonInvalid = "invalid"
)

// BidRejectedEvent is published for each bid that did not win.
type BidRejectedEvent struct {
	AuctionID string
	Index     int
	Company   string
	Amount    int64
	Reason    string
	Time      time.Time
}

func (BidRejectedEvent) EventName() string { return "bid_rejected" }

// AwardEvent reports the notification of one winning company.
type AwardEvent struct {
	AuctionID string
	Company   string
	Cells     int
	Amount    int64
	Delivered bool
	Err       error
	Time      time.Time
}

func (AwardEvent) EventName() string { return "award" }
