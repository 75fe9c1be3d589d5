package auction

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/monitoring"
)

var smallGrid = model.Grid{Sections: 6, Time: 6}

func cell(l, t int) model.Cell { return model.Cell{Location: l, Time: t} }

func bid(company string, amount int64, cells ...model.Cell) model.Bid {
	return model.Bid{Company: company, Amount: amount, Cells: cells}
}

func newResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := NewResolver(smallGrid, opts)
	require.NoError(t, err)
	return r
}

func TestResolve_HigherBidWinsSharedCell(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("x", 10, cell(0, 0)),
		bid("y", 5, cell(0, 0)),
	})
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, []int{0}, res.Accepted)
	assert.Equal(t, []int{1}, res.Rejected)
	assert.Equal(t, model.Allocation{cell(0, 0): "x"}, res.Allocation)
	assert.Equal(t, int64(10), res.Total)
}

func TestResolve_DisjointBidsBothAccepted(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("x", 10, cell(0, 0)),
		bid("y", 5, cell(1, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Accepted)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, int64(15), res.Total)
	assert.Equal(t, model.Allocation{cell(0, 0): "x", cell(1, 0): "y"}, res.Allocation)
}

func TestResolve_ThreeWayConflict(t *testing.T) {
	r := newResolver(t, Options{LPBound: true})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 3, cell(2, 2), cell(2, 3)),
		bid("b", 5, cell(2, 2)),
		bid("c", 7, cell(1, 1), cell(2, 2)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Accepted)
	assert.Equal(t, int64(7), res.Total)
	assert.Equal(t, model.Allocation{cell(1, 1): "c", cell(2, 2): "c"}, res.Allocation)
}

func TestResolve_EmptyInput(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Empty(t, res.Allocation)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Accepted)
}

func TestResolve_SameCompanyCannotWinOverlappingBids(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 4, cell(0, 0), cell(0, 1)),
		bid("a", 6, cell(0, 1), cell(0, 2)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Accepted)
	assert.Equal(t, int64(6), res.Total)
}

func TestResolve_CombinationBeatsSingleHighBid(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("big", 10, cell(0, 0), cell(0, 1)),
		bid("s1", 6, cell(0, 0)),
		bid("s2", 6, cell(0, 1)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Accepted)
	assert.Equal(t, int64(12), res.Total)
}

func TestResolve_TieBreakPrefersSmallestCompany(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("b", 5, cell(0, 0)),
		bid("a", 5, cell(0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Accepted)
	assert.Equal(t, "a", res.Allocation[cell(0, 0)])
}

func TestResolve_TieBreakSameCompanyPrefersEarlierBid(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 5, cell(0, 0), cell(0, 1)),
		bid("a", 5, cell(0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Accepted)
	assert.Len(t, res.Allocation, 2)
}

func TestResolve_TieBreakComparesWholeSelection(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("b", 10, cell(0, 0), cell(1, 0)),
		bid("a", 5, cell(0, 0)),
		bid("a", 5, cell(1, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Accepted)
	assert.Equal(t, int64(10), res.Total)
}

func TestResolve_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bids := randomBids(rng, 14, 4, smallGrid)
	r := newResolver(t, Options{LPBound: true})
	first, err := r.Resolve(context.Background(), bids)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), bids)
	require.NoError(t, err)
	assert.Equal(t, first.Allocation, second.Allocation)
	assert.Equal(t, first.Accepted, second.Accepted)
	assert.Equal(t, first.Total, second.Total)
}

func TestResolve_DoesNotModifyInput(t *testing.T) {
	bids := []model.Bid{bid("a", 3, cell(1, 1), cell(0, 0), cell(1, 1))}
	r := newResolver(t, Options{InvalidBids: PolicyRepair})
	_, err := r.Resolve(context.Background(), bids)
	require.NoError(t, err)
	assert.Equal(t, []model.Cell{cell(1, 1), cell(0, 0), cell(1, 1)}, bids[0].Cells)
}

func TestResolve_DuplicateCellRejectedByDefault(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 3, cell(0, 0)),
		bid("b", 4, cell(1, 1), cell(1, 1)),
	})
	assert.Nil(t, res)
	require.True(t, errors.Is(err, ErrInvalidBid))
	var be *BidError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, "b", be.Company)
}

func TestResolve_DuplicateCellRepaired(t *testing.T) {
	r := newResolver(t, Options{InvalidBids: PolicyRepair})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 3, cell(0, 0)),
		bid("b", 4, cell(1, 1), cell(1, 1)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Repaired)
	assert.Equal(t, []int{0, 1}, res.Accepted)
	assert.Equal(t, model.Allocation{cell(0, 0): "a", cell(1, 1): "b"}, res.Allocation)
}

func TestResolve_MalformedBidsFailUnderAnyPolicy(t *testing.T) {
	cases := map[string]model.Bid{
		"outside grid":    bid("a", 1, cell(6, 0)),
		"negative time":   bid("a", 1, cell(0, -1)),
		"zero amount":     bid("a", 0, cell(0, 0)),
		"negative amount": bid("a", -3, cell(0, 0)),
		"no cells":        bid("a", 1),
		"no company":      bid("", 1, cell(0, 0)),
	}
	for _, policy := range []InvalidBidPolicy{PolicyReject, PolicyRepair} {
		r := newResolver(t, Options{InvalidBids: policy})
		for name, b := range cases {
			_, err := r.Resolve(context.Background(), []model.Bid{b})
			if !errors.Is(err, ErrInvalidBid) {
				t.Errorf("%s/%s: expected ErrInvalidBid, got %v", policy, name, err)
			}
		}
	}
}

func TestResolve_StepBudgetReturnsValidNonExactResult(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bids := randomBids(rng, 16, 3, model.Grid{Sections: 3, Time: 3})
	r, err := NewResolver(model.Grid{Sections: 3, Time: 3}, Options{Strategy: WithStepBudget(1)})
	require.NoError(t, err)
	res, err := r.Resolve(context.Background(), bids)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	require.NotNil(t, res)
	assert.False(t, res.Exact)
	assertFeasible(t, bids, res)
	assert.GreaterOrEqual(t, res.UpperBound, float64(res.Total))
}

func TestResolve_DeadlineReturnsValidNonExactResult(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	bids := randomBids(rng, 16, 3, model.Grid{Sections: 3, Time: 3})
	r, err := NewResolver(model.Grid{Sections: 3, Time: 3}, Options{Strategy: WithDeadline(time.Nanosecond)})
	require.NoError(t, err)
	res, err := r.Resolve(context.Background(), bids)
	assert.True(t, errors.Is(err, ErrSolverTimedOut))
	require.NotNil(t, res)
	assert.False(t, res.Exact)
	assertFeasible(t, bids, res)
}

func TestResolve_CancelledContextInExactMode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newResolver(t, Options{})
	res, err := r.Resolve(ctx, []model.Bid{bid("a", 1, cell(0, 0)), bid("b", 2, cell(0, 0))})
	assert.True(t, errors.Is(err, ErrSolverTimedOut))
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.False(t, res.Exact)
	assertFeasible(t, []model.Bid{bid("a", 1, cell(0, 0)), bid("b", 2, cell(0, 0))}, res)
}

func TestResolve_GenerousDeadlineIsExact(t *testing.T) {
	r := newResolver(t, Options{Strategy: WithDeadline(time.Minute)})
	res, err := r.Resolve(context.Background(), []model.Bid{bid("a", 1, cell(0, 0)), bid("b", 2, cell(0, 0))})
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, []int{1}, res.Accepted)
}

func TestResolve_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 60; round++ {
		n := 1 + rng.Intn(12)
		bids := randomBids(rng, n, 4, smallGrid)
		for _, opts := range []Options{{}, {LPBound: true}} {
			r := newResolver(t, opts)
			res, err := r.Resolve(context.Background(), bids)
			require.NoError(t, err)
			wantTotal, wantSet := bruteForce(bids)
			assert.Equal(t, wantTotal, res.Total, "round %d", round)
			assert.Equal(t, wantSet, res.Accepted, "round %d", round)
			assertFeasible(t, bids, res)
		}
	}
}

func TestResolve_ParallelMatchesSequential(t *testing.T) {
	grid := model.Grid{Sections: 3, Time: 3}
	rng := rand.New(rand.NewSource(99))
	for round := 0; round < 8; round++ {
		bids := randomBids(rng, 16, 2, grid)
		seq, err := NewResolver(grid, Options{})
		require.NoError(t, err)
		par, err := NewResolver(grid, Options{Workers: 4, LPBound: true})
		require.NoError(t, err)

		want, err := seq.Resolve(context.Background(), bids)
		require.NoError(t, err)
		got, err := par.Resolve(context.Background(), bids)
		require.NoError(t, err)
		assert.Equal(t, want.Accepted, got.Accepted, "round %d", round)
		assert.Equal(t, want.Allocation, got.Allocation, "round %d", round)

		bfTotal, bfSet := bruteForce(bids)
		assert.Equal(t, bfTotal, got.Total)
		assert.Equal(t, bfSet, got.Accepted)
	}
}

func TestResolve_RelaxationFailureKeepsExactness(t *testing.T) {
	old := lpSolve
	lpSolve = func([]float64, [][]int) (float64, error) { return 0, errors.New("fail") }
	defer func() { lpSolve = old }()

	r := newResolver(t, Options{LPBound: true})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 3, cell(0, 0)),
		bid("b", 5, cell(0, 0)),
	})
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, []int{1}, res.Accepted)
}

func TestResolve_LargeAmountsMatchBruteForce(t *testing.T) {
	const scale = int64(1) << 50
	rng := rand.New(rand.NewSource(2024))
	for round := 0; round < 50; round++ {
		bids := randomBids(rng, 10+rng.Intn(4), 3, smallGrid)
		for i := range bids {
			bids[i].Amount = scale*int64(1+rng.Intn(6)) + rng.Int63n(scale)
		}
		wantTotal, wantSet := bruteForce(bids)
		for _, opts := range []Options{{LPBound: true}, {LPBound: true, Workers: 4}} {
			r := newResolver(t, opts)
			res, err := r.Resolve(context.Background(), bids)
			require.NoError(t, err)
			assert.True(t, res.Exact)
			assert.Equal(t, wantTotal, res.Total, "round %d workers %d", round, opts.Workers)
			assert.Equal(t, wantSet, res.Accepted, "round %d workers %d", round, opts.Workers)
		}
	}
}

func TestIntegerTargetNeverBelowBound(t *testing.T) {
	assert.EqualValues(t, 10, integerTarget(10-1e-7))
	assert.EqualValues(t, 7, integerTarget(7))
	big := float64(int64(1) << 52)
	assert.GreaterOrEqual(t, integerTarget(big-2), int64(1)<<52-2)
}

func TestResolve_HugeAmountsNearInt64Limit(t *testing.T) {
	x, y := cell(0, 0), cell(0, 1)
	r := newResolver(t, Options{LPBound: true})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 3e18, x, y),
		bid("b", 2e18, x),
		bid("c", 2e18, y),
	})
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.EqualValues(t, int64(4e18), res.Total)
	assert.Equal(t, []int{1, 2}, res.Accepted)
}

func TestResolve_RejectsOverflowingTotal(t *testing.T) {
	x, y := cell(0, 0), cell(0, 1)
	bids := []model.Bid{
		bid("a", 3e18, x, y),
		bid("b", 2e18, x),
		bid("c", 2e18, y),
		bid("d", 3e18, x, y),
	}
	for _, p := range []InvalidBidPolicy{PolicyReject, PolicyRepair} {
		r := newResolver(t, Options{InvalidBids: p})
		res, err := r.Resolve(context.Background(), bids)
		assert.Nil(t, res)
		require.ErrorIs(t, err, ErrInvalidBid)
		var be *BidError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 3, be.Index)
	}

	_, err := newResolver(t, Options{}).Resolve(context.Background(), []model.Bid{
		bid("a", math.MaxInt64, x),
		bid("b", 1, y),
	})
	assert.ErrorIs(t, err, ErrInvalidBid)
}

type panicMonitor struct {
	mu   sync.Mutex
	tags []map[string]string
}

func (m *panicMonitor) CaptureException(error, map[string]string) {}
func (m *panicMonitor) Flush(time.Duration)                       {}
func (m *panicMonitor) CapturePanic(_ any, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append(m.tags, tags)
}

func TestResolve_WorkerPanicIsReported(t *testing.T) {
	mon := &panicMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(nil) })
	old := runSearch
	runSearch = func(*component, node, *atomic.Int64, *budget, *searchStats) outcome {
		panic("corrupt frontier")
	}
	t.Cleanup(func() { runSearch = old })

	bids := make([]model.Bid, parallelThreshold)
	for i := range bids {
		bids[i] = bid("a", int64(i+1), cell(0, 0), cell(i%6, 1+i/6))
	}
	r := newResolver(t, Options{Workers: 2})
	res, err := r.Resolve(context.Background(), bids)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt frontier")

	mon.mu.Lock()
	defer mon.mu.Unlock()
	require.NotEmpty(t, mon.tags)
	assert.Equal(t, "auction", mon.tags[0]["module"])
	assert.NotEmpty(t, mon.tags[0]["worker"])
	assert.Equal(t, "12", mon.tags[0]["bids"])
}

func TestResolve_IndependentComponents(t *testing.T) {
	r := newResolver(t, Options{})
	res, err := r.Resolve(context.Background(), []model.Bid{
		bid("a", 2, cell(0, 0)),
		bid("b", 3, cell(0, 0)),
		bid("c", 4, cell(5, 5)),
		bid("d", 1, cell(5, 5)),
		bid("e", 1, cell(3, 3)),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Components)
	assert.Equal(t, 2, res.Stats.Edges)
	assert.Equal(t, []int{1, 2, 4}, res.Accepted)
	assert.True(t, res.IsAccepted(2))
	assert.False(t, res.IsAccepted(3))
}

func TestNewResolver_InvalidGrid(t *testing.T) {
	_, err := NewResolver(model.Grid{Sections: 0, Time: 5}, Options{})
	assert.Error(t, err)
}

// randomBids draws n bids of up to maxCells cells from a handful of companies.
func randomBids(rng *rand.Rand, n, maxCells int, grid model.Grid) []model.Bid {
	companies := []string{"a", "b", "c"}
	bids := make([]model.Bid, n)
	for i := range bids {
		k := 1 + rng.Intn(maxCells)
		cells := make([]model.Cell, 0, k)
		for j := 0; j < k; j++ {
			cells = append(cells, cell(rng.Intn(grid.Sections), rng.Intn(grid.Time)))
		}
		bids[i] = model.Bid{
			Company: companies[rng.Intn(len(companies))],
			Cells:   model.Dedupe(cells),
			Amount:  int64(1 + rng.Intn(6)),
		}
	}
	return bids
}

// bruteForce enumerates every subset and returns the best total together
// with the preferred optimal subset.
func bruteForce(bids []model.Bid) (int64, []int) {
	n := len(bids)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return bids[order[a]].Company < bids[order[b]].Company })

	preferred := func(a, b int) bool {
		for _, i := range order {
			ia, ib := a&(1<<i) != 0, b&(1<<i) != 0
			if ia != ib {
				return ia
			}
		}
		return false
	}

	bestTotal, bestMask := int64(-1), 0
	for mask := 0; mask < 1<<n; mask++ {
		used := map[model.Cell]bool{}
		ok := true
		var total int64
		for i := 0; i < n && ok; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			for _, c := range bids[i].Cells {
				if used[c] {
					ok = false
					break
				}
				used[c] = true
			}
			total += bids[i].Amount
		}
		if !ok {
			continue
		}
		if total > bestTotal || (total == bestTotal && preferred(mask, bestMask)) {
			bestTotal, bestMask = total, mask
		}
	}
	set := []int{}
	for i := 0; i < n; i++ {
		if bestMask&(1<<i) != 0 {
			set = append(set, i)
		}
	}
	return bestTotal, set
}

// assertFeasible checks exclusivity and atomicity of res against bids.
func assertFeasible(t *testing.T, bids []model.Bid, res *Result) {
	t.Helper()
	want := model.Allocation{}
	var total int64
	for _, i := range res.Accepted {
		for _, c := range bids[i].Cells {
			if owner, taken := want[c]; taken {
				t.Fatalf("cell %s awarded twice (%s and bid %d)", c, owner, i)
			}
			want[c] = bids[i].Company
		}
		total += bids[i].Amount
	}
	assert.Equal(t, want, res.Allocation)
	assert.Equal(t, total, res.Total)
	assert.Equal(t, len(bids), len(res.Accepted)+len(res.Rejected))
	for _, i := range res.Rejected {
		assert.False(t, res.IsAccepted(i))
	}
}
