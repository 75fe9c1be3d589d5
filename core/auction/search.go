package auction

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"
)

// budget is shared by every search running inside one Resolve call.
type budget struct {
	ctx      context.Context
	deadline time.Time
	maxSteps int64

	steps   atomic.Int64
	stopped atomic.Bool
}

// checkEvery is the number of nodes between clock and context checks. The
// first node is always checked.
const checkEvery = 256

// tick records one explored node and reports whether the search may go on.
func (b *budget) tick() bool {
	if b.stopped.Load() {
		return false
	}
	n := b.steps.Add(1)
	if b.maxSteps > 0 && n > b.maxSteps {
		b.stopped.Store(true)
		return false
	}
	if n == 1 || n%checkEvery == 0 {
		if b.ctx.Err() != nil || (!b.deadline.IsZero() && time.Now().After(b.deadline)) {
			b.stopped.Store(true)
			return false
		}
	}
	return true
}

// component is one connected block of the conflict graph, with its bids in
// preference order: company first, then submission index.
type component struct {
	// order maps local positions to submission indices.
	order  []int
	weight []int64
	adj    []bitset
	// target is the relaxation bound; reaching it proves optimality.
	target int64
}

func newComponent(members []int, companies []string, amounts []int64, cg *conflictGraph) *component {
	order := slices.Clone(members)
	slices.SortFunc(order, func(a, b int) int {
		if r := cmp.Compare(companies[a], companies[b]); r != 0 {
			return r
		}
		return cmp.Compare(a, b)
	})
	m := len(order)
	c := &component{order: order, weight: make([]int64, m), adj: make([]bitset, m), target: -1}
	for i, gi := range order {
		c.weight[i] = amounts[gi]
		c.adj[i] = newBitset(m)
		for j, gj := range order {
			if i != j && cg.adj[gi].has(gj) {
				c.adj[i].set(j)
			}
		}
	}
	return c
}

// node is a partial selection: positions below depth are decided.
type node struct {
	depth   int
	chosen  bitset
	blocked bitset
	value   int64
}

func (c *component) root() node {
	m := len(c.order)
	return node{chosen: newBitset(m), blocked: newBitset(m)}
}

// bound is the node value plus every undecided bid still compatible with it.
func (c *component) bound(n node) int64 {
	ub := n.value
	for k := n.depth; k < len(c.weight); k++ {
		if !n.blocked.has(k) {
			ub += c.weight[k]
		}
	}
	return ub
}

// children returns the include and exclude branches of n, or ok=false when
// n is a complete selection.
func (c *component) children(n node) (include, exclude node, ok bool) {
	d := n.depth
	for d < len(c.weight) && n.blocked.has(d) {
		d++
	}
	if d == len(c.weight) {
		return node{}, node{}, false
	}
	include = node{
		depth:   d + 1,
		chosen:  n.chosen.with(d),
		blocked: n.blocked.union(c.adj[d]),
		value:   n.value + c.weight[d],
	}
	exclude = node{depth: d + 1, chosen: n.chosen, blocked: n.blocked, value: n.value}
	return include, exclude, true
}

// greedy picks bids by decreasing amount. It seeds the search floor and is
// the fallback answer when a bounded search finds nothing better.
func (c *component) greedy() (bitset, int64) {
	idx := make([]int, len(c.weight))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(c.weight[b], c.weight[a]) })
	chosen := newBitset(len(c.weight))
	blocked := newBitset(len(c.weight))
	var value int64
	for _, k := range idx {
		if blocked.has(k) {
			continue
		}
		chosen.set(k)
		blocked = blocked.union(c.adj[k])
		value += c.weight[k]
	}
	return chosen, value
}

// searchStats counts work across all searches of one Resolve call.
type searchStats struct {
	nodes  atomic.Int64
	pruned atomic.Int64
}

// outcome is the best leaf a search visited.
type outcome struct {
	chosen   bitset
	value    int64
	complete bool
}

// search runs depth-first branch and bound from start using an explicit
// stack. Include branches are explored first, so leaves are met in tie-break
// preference order and a leaf only replaces the best when strictly better.
//
// floor holds a value already achieved elsewhere (greedy seed or another
// worker). It only prunes subtrees that are strictly worse, which keeps the
// first optimal leaf of this subtree reachable.
func (c *component) search(start node, floor *atomic.Int64, b *budget, st *searchStats) outcome {
	best := outcome{value: -1}
	stack := []node{start}
	for len(stack) > 0 {
		if !b.tick() {
			return best
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		st.nodes.Add(1)

		ub := c.bound(n)
		if ub < floor.Load() || ub <= best.value {
			st.pruned.Add(1)
			continue
		}
		inc, exc, ok := c.children(n)
		if !ok {
			best = outcome{chosen: n.chosen, value: n.value}
			raise(floor, n.value)
			if c.target >= 0 && n.value >= c.target {
				break
			}
			continue
		}
		stack = append(stack, exc, inc)
	}
	best.complete = true
	return best
}

// raise stores v in f when it is larger than the current value.
func raise(f *atomic.Int64, v int64) {
	for {
		cur := f.Load()
		if v <= cur || f.CompareAndSwap(cur, v) {
			return
		}
	}
}

// split expands the root breadth-first, include before exclude, until at
// least want prefixes exist. The returned prefixes are in preference order
// and partition the search tree.
func (c *component) split(want, maxDepth int) []node {
	frontier := []node{c.root()}
	for depth := 0; depth < maxDepth && len(frontier) < want; depth++ {
		next := make([]node, 0, 2*len(frontier))
		grew := false
		for _, n := range frontier {
			inc, exc, ok := c.children(n)
			if !ok {
				next = append(next, n)
				continue
			}
			next = append(next, inc, exc)
			grew = true
		}
		frontier = next
		if !grew {
			break
		}
	}
	return frontier
}
