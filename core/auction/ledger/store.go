package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/trackauction/core/model"
)

// Award is one accepted bid as stored in the ledger.
type Award struct {
	Index   int          `json:"index"`
	Company string       `json:"company"`
	Amount  int64        `json:"amount"`
	Cells   []model.Cell `json:"cells"`
}

// Record captures the outcome of one auction.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Strategy   string    `json:"strategy"`
	Exact      bool      `json:"exact"`
	Total      int64     `json:"total"`
	UpperBound float64   `json:"upper_bound"`
	Bids       int       `json:"bids"`
	Accepted   []Award   `json:"accepted"`
	Rejected   []int     `json:"rejected"`
	Error      string    `json:"error,omitempty"`
}

// Winners returns the companies holding at least one award, sorted.
func (r Record) Winners() []string {
	var out []string
	for _, a := range r.Accepted {
		out = append(out, a.Company)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Allocation rebuilds the cell ownership map of the record.
func (r Record) Allocation() model.Allocation {
	alloc := model.Allocation{}
	for _, a := range r.Accepted {
		for _, c := range a.Cells {
			alloc[c] = a.Company
		}
	}
	return alloc
}

// Query filters ledger records. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Company string
	// ExactOnly drops records produced by an interrupted search.
	ExactOnly bool
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ExactOnly && !r.Exact {
		return false
	}
	if q.Company != "" {
		_, found := slices.BinarySearch(r.Winners(), q.Company)
		return found
	}
	return true
}

// Store persists auction records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
