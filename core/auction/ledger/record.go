package ledger

import (
	"time"

	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/model"
)

// NewRecord converts a resolution of bids into a ledger record. res may be
// nil when the resolution failed before producing an allocation.
func NewRecord(id string, ts time.Time, strategy string, bids []model.Bid, res *auction.Result, resolveErr error) Record {
	rec := Record{ID: id, Timestamp: ts, Strategy: strategy, Bids: len(bids)}
	if resolveErr != nil {
		rec.Error = resolveErr.Error()
	}
	if res == nil {
		return rec
	}
	rec.Exact = res.Exact
	rec.Total = res.Total
	rec.UpperBound = res.UpperBound
	rec.Rejected = res.Rejected
	for _, i := range res.Accepted {
		b := bids[i]
		rec.Accepted = append(rec.Accepted, Award{
			Index:   i,
			Company: b.Company,
			Amount:  b.Amount,
			Cells:   model.Dedupe(b.Cells),
		})
	}
	return rec
}
