// Package auction implements winner determination for the track slot auction.
//
// Every bid names the exact grid cells a train movement needs and the amount
// its company pays for them. Resolve selects the set of pairwise disjoint bids
// with the largest total amount and maps their cells to the winning
// companies. Bids are atomic: a bid either receives all of its cells or none.
//
// Resolution flow:
//  1. Validate bids (empty company, non-positive amount, cells outside the
//     grid, duplicate cells according to InvalidBidPolicy)
//  2. Build the conflict graph from an inverted cell index
//  3. Split the graph into connected components
//  4. Optionally bound each component with its linear relaxation
//  5. Branch and bound each component on an explicit stack, optionally on
//     several workers
//  6. Assemble the allocation
//
// Among equally valuable selections the one whose (company, submission index)
// sequence is lexicographically smallest wins. Bounded strategies
// ("deadline:<d>", "steps:<n>") return their best selection with
// Result.Exact unset and an error wrapping ErrSolverTimedOut.
package auction
