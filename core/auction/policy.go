package auction

import (
	"fmt"
	"math"
	"strings"

	"github.com/kilianp07/trackauction/core/model"
)

// InvalidBidPolicy decides what happens to a bid listing the same cell twice.
type InvalidBidPolicy int

const (
	// PolicyReject fails the whole resolution with a *BidError.
	PolicyReject InvalidBidPolicy = iota
	// PolicyRepair removes duplicate cells and keeps the bid. Other defects
	// still fail.
	PolicyRepair
)

func (p InvalidBidPolicy) String() string {
	if p == PolicyRepair {
		return "repair"
	}
	return "reject"
}

// ParseInvalidBidPolicy accepts "reject" (or empty) and "repair".
func ParseInvalidBidPolicy(s string) (InvalidBidPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyReject, nil
	case "repair":
		return PolicyRepair, nil
	default:
		return PolicyReject, fmt.Errorf("unknown invalid bid policy %q", s)
	}
}

// normalize validates bids against grid and returns copies whose cell sets
// are sorted. The input slice is never modified.
func normalize(grid model.Grid, bids []model.Bid, policy InvalidBidPolicy) ([]model.Bid, int, error) {
	out := make([]model.Bid, len(bids))
	repaired := 0
	var total int64
	for i, b := range bids {
		switch {
		case b.Company == "":
			return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: "empty company"}
		case b.Amount <= 0:
			return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: fmt.Sprintf("amount %d is not positive", b.Amount)}
		case len(b.Cells) == 0:
			return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: "no cells"}
		case b.Amount > math.MaxInt64-total:
			return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: "amounts of the batch overflow int64"}
		}
		total += b.Amount
		for _, c := range b.Cells {
			if !grid.Contains(c) {
				return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: fmt.Sprintf("cell %s outside grid", c)}
			}
		}
		cells := model.Dedupe(b.Cells)
		if len(cells) != len(b.Cells) {
			if policy != PolicyRepair {
				return nil, repaired, &BidError{Index: i, Company: b.Company, Reason: "duplicate cell"}
			}
			repaired++
		}
		b.Cells = cells
		out[i] = b
	}
	return out, repaired, nil
}
