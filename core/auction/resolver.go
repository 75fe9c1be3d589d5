package auction

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/trackauction/core/logger"
	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/monitoring"
)

// parallelThreshold is the component size from which the tree is split
// across workers. Smaller components are cheaper to search in one go.
const parallelThreshold = 12

// maxSplitDepth caps how many levels are expanded to produce worker tasks.
const maxSplitDepth = 16

// runSearch explores one worker task. Tests replace it to inject failures.
var runSearch = (*component).search

// Options configures a Resolver.
type Options struct {
	Strategy    Strategy
	InvalidBids InvalidBidPolicy
	// Workers is the number of goroutines exploring one component. Values
	// below 2 search sequentially.
	Workers int
	// LPBound enables the linear relaxation bound, which lets the search
	// stop as soon as an incumbent reaches it.
	LPBound bool
	Logger  logger.Logger
}

// Stats describes the work done by one resolution.
type Stats struct {
	Bids       int
	Components int
	Edges      int
	Repaired   int
	Nodes      int64
	Pruned     int64
	Workers    int
	Elapsed    time.Duration
}

// Result is the outcome of a resolution. Accepted and Rejected hold indices
// into the submitted bid slice, in increasing order.
type Result struct {
	Allocation model.Allocation
	Accepted   []int
	Rejected   []int
	Total      int64
	// Exact is true when Total is a proven optimum.
	Exact bool
	// UpperBound is the best total any allocation could reach, as far as the
	// resolver could prove it.
	UpperBound float64
	Stats      Stats
}

// IsAccepted reports whether the bid at index i won.
func (r *Result) IsAccepted(i int) bool {
	_, ok := slices.BinarySearch(r.Accepted, i)
	return ok
}

// Resolver selects the maximum value set of non-conflicting bids.
// A Resolver holds no per-call state and may be shared between goroutines.
type Resolver struct {
	grid model.Grid
	opts Options
	log  logger.Logger
}

// NewResolver returns a Resolver for grid.
func NewResolver(grid model.Grid, opts Options) (*Resolver, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Resolver{grid: grid, opts: opts, log: logger.OrNop(opts.Logger)}, nil
}

// Grid returns the grid the resolver validates bids against.
func (r *Resolver) Grid() model.Grid { return r.grid }

// Strategy returns the configured solver strategy.
func (r *Resolver) Strategy() Strategy { return r.opts.Strategy }

// Resolve computes the allocation for bids. It never modifies bids.
//
// When a bounded strategy runs out of budget, or ctx is cancelled, the
// returned Result is still a valid conflict-free allocation with Exact set
// to false, and the error wraps ErrSolverTimedOut.
func (r *Resolver) Resolve(ctx context.Context, bids []model.Bid) (*Result, error) {
	start := time.Now()
	mode := modeLabel(r.opts.Strategy)

	normalized, repaired, err := normalize(r.grid, bids, r.opts.InvalidBids)
	if err != nil {
		invalidBids.Inc()
		return nil, err
	}
	res := &Result{
		Allocation: model.Allocation{},
		Exact:      true,
		Stats:      Stats{Bids: len(bids), Repaired: repaired, Workers: r.opts.Workers},
	}
	if len(normalized) == 0 {
		res.Stats.Elapsed = time.Since(start)
		return res, nil
	}

	b := &budget{ctx: ctx}
	switch r.opts.Strategy.Mode {
	case ModeDeadline:
		b.deadline = start.Add(r.opts.Strategy.Deadline)
	case ModeSteps:
		b.maxSteps = r.opts.Strategy.MaxSteps
	}

	cg := buildConflictGraph(r.grid, normalized)
	comps := cg.components()
	res.Stats.Components = len(comps)
	res.Stats.Edges = cg.edges

	companies := make([]string, len(normalized))
	amounts := make([]int64, len(normalized))
	for i, bid := range normalized {
		companies[i] = bid.Company
		amounts[i] = bid.Amount
	}
	rows := r.cliqueRows(cg, comps)

	var st searchStats
	selected := make([]int, 0, len(normalized))
	for ci, members := range comps {
		c := newComponent(members, companies, amounts, cg)
		res.UpperBound += r.componentBound(c, rows[ci])
		chosen, complete, err := r.solve(c, b, &st)
		if err != nil {
			return nil, err
		}
		if !complete {
			res.Exact = false
		}
		for _, k := range chosen.members() {
			selected = append(selected, c.order[k])
		}
	}
	slices.Sort(selected)

	for _, i := range selected {
		bid := normalized[i]
		for _, c := range bid.Cells {
			res.Allocation[c] = bid.Company
		}
		res.Total += bid.Amount
	}
	res.Accepted = selected
	for i := range normalized {
		if _, ok := slices.BinarySearch(selected, i); !ok {
			res.Rejected = append(res.Rejected, i)
		}
	}
	if res.Exact {
		res.UpperBound = float64(res.Total)
	}
	res.Stats.Nodes = st.nodes.Load()
	res.Stats.Pruned = st.pruned.Load()
	res.Stats.Elapsed = time.Since(start)

	resolveDuration.WithLabelValues(mode).Observe(res.Stats.Elapsed.Seconds())
	searchNodes.WithLabelValues(mode).Add(float64(res.Stats.Nodes))
	bidsAccepted.Add(float64(len(res.Accepted)))
	bidsRejected.Add(float64(len(res.Rejected)))

	r.log.Debugw("auction resolved", map[string]any{
		"strategy":   r.opts.Strategy.String(),
		"bids":       len(bids),
		"accepted":   len(res.Accepted),
		"total":      res.Total,
		"exact":      res.Exact,
		"components": res.Stats.Components,
		"nodes":      res.Stats.Nodes,
		"elapsed":    res.Stats.Elapsed.String(),
	})

	if !res.Exact {
		resolveTimeouts.WithLabelValues(mode).Inc()
		if cerr := ctx.Err(); cerr != nil {
			return res, fmt.Errorf("%w: %w", ErrSolverTimedOut, cerr)
		}
		return res, ErrSolverTimedOut
	}
	return res, nil
}

// cliqueRows distributes the per-cell cliques over components, translated
// to submission indices. All bids of a clique conflict pairwise, so they
// share a component.
func (r *Resolver) cliqueRows(cg *conflictGraph, comps [][]int) [][][]int {
	compOf := make(map[int]int)
	for ci, members := range comps {
		for _, m := range members {
			compOf[m] = ci
		}
	}
	rows := make([][][]int, len(comps))
	for _, clique := range cg.cliques {
		ci := compOf[clique[0]]
		rows[ci] = append(rows[ci], clique)
	}
	return rows
}

// componentBound solves the relaxation for c and records the integer target.
// Without a usable relaxation the plain sum of amounts is returned.
func (r *Resolver) componentBound(c *component, cliques [][]int) float64 {
	var sum int64
	for _, w := range c.weight {
		sum += w
	}
	if !r.opts.LPBound || len(c.order) < 2 {
		c.target = sum
		return float64(sum)
	}
	pos := make(map[int]int, len(c.order))
	for k, gi := range c.order {
		pos[gi] = k
	}
	local := make([][]int, len(cliques))
	for i, clique := range cliques {
		row := make([]int, len(clique))
		for j, gi := range clique {
			row[j] = pos[gi]
		}
		local[i] = row
	}
	weights := make([]float64, len(c.weight))
	for i, w := range c.weight {
		weights[i] = float64(w)
	}
	bound, err := lpSolve(weights, local)
	if err != nil || bound > float64(sum) || bound < 0 {
		r.log.Debugf("relaxation skipped for component of %d bids: %v", len(c.order), err)
		return float64(sum)
	}
	if sum <= maxExactFloat {
		c.target = integerTarget(bound)
	} else {
		c.target = sum
	}
	return bound
}

// solve searches one component and returns the chosen local positions.
func (r *Resolver) solve(c *component, b *budget, st *searchStats) (bitset, bool, error) {
	seed, seedValue := c.greedy()
	var floor atomic.Int64
	floor.Store(seedValue)

	var best outcome
	if r.opts.Workers < 2 || len(c.order) < parallelThreshold {
		best = c.search(c.root(), &floor, b, st)
	} else {
		var err error
		best, err = r.searchParallel(c, &floor, b, st)
		if err != nil {
			return nil, false, err
		}
	}
	if best.value < seedValue {
		return seed, best.complete, nil
	}
	return best.chosen, best.complete, nil
}

// searchParallel explores preference-ordered prefixes of the tree on a
// bounded pool. Outcomes are merged by value, then by prefix order, so the
// answer matches the sequential search.
func (r *Resolver) searchParallel(c *component, floor *atomic.Int64, b *budget, st *searchStats) (outcome, error) {
	tasks := c.split(r.opts.Workers*4, maxSplitDepth)
	results := make([]outcome, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Workers)
	for i, t := range tasks {
		tags := map[string]string{
			"module": "auction",
			"worker": strconv.Itoa(i),
			"bids":   strconv.Itoa(len(c.order)),
		}
		g.Go(func() error {
			err := monitoring.Guard(tags, func() error {
				results[i] = runSearch(c, t, floor, b, st)
				return nil
			})
			if err != nil {
				return fmt.Errorf("search worker %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcome{}, err
	}

	best := outcome{value: -1, complete: true}
	for _, o := range results {
		if !o.complete {
			best.complete = false
		}
		if o.value > best.value {
			best.chosen, best.value = o.chosen, o.value
		}
	}
	return best, nil
}

func modeLabel(s Strategy) string {
	switch s.Mode {
	case ModeDeadline:
		return "deadline"
	case ModeSteps:
		return "steps"
	default:
		return "exact"
	}
}

// IsTimeout reports whether err only signals an interrupted search.
func IsTimeout(err error) bool { return errors.Is(err, ErrSolverTimedOut) }
