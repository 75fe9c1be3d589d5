package auction

import (
	"errors"
	"fmt"
)

// ErrInvalidBid is returned when a bid cannot enter the conflict graph.
var ErrInvalidBid = errors.New("invalid bid")

// ErrSolverTimedOut signals that a bounded search stopped before proving
// optimality. The accompanying Result is still a valid allocation.
var ErrSolverTimedOut = errors.New("solver timed out")

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised selectors.
var ErrUnknownStrategy = errors.New("unknown solver strategy")

// BidError describes why the bid at Index was refused.
type BidError struct {
	Index   int
	Company string
	Reason  string
}

func (e *BidError) Error() string {
	return fmt.Sprintf("invalid bid %d (company %q): %s", e.Index, e.Company, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidBid) hold.
func (e *BidError) Unwrap() error { return ErrInvalidBid }
