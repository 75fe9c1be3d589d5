package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/trackauction/core/model"
)

func TestBuildConflictGraph(t *testing.T) {
	grid := model.Grid{Sections: 4, Time: 4}
	bids := []model.Bid{
		{Company: "a", Cells: []model.Cell{{Location: 0, Time: 0}, {Location: 1, Time: 0}}},
		{Company: "b", Cells: []model.Cell{{Location: 1, Time: 0}}},
		{Company: "c", Cells: []model.Cell{{Location: 1, Time: 0}, {Location: 2, Time: 2}}},
		{Company: "d", Cells: []model.Cell{{Location: 2, Time: 2}}},
		{Company: "e", Cells: []model.Cell{{Location: 3, Time: 3}}},
	}
	cg := buildConflictGraph(grid, bids)

	assert.Equal(t, 4, cg.edges)
	assert.True(t, cg.conflicts(0, 1))
	assert.True(t, cg.conflicts(0, 2))
	assert.True(t, cg.conflicts(1, 2))
	assert.True(t, cg.conflicts(2, 3))
	assert.False(t, cg.conflicts(0, 3))
	assert.False(t, cg.conflicts(4, 0))
	assert.Equal(t, []int{1, 2}, cg.adj[0].members())

	assert.Equal(t, [][]int{{0, 1, 2}, {2, 3}}, cg.cliques)
	assert.Equal(t, [][]int{{0, 1, 2, 3}, {4}}, cg.components())
}

func TestBuildConflictGraphDeduplicatesCliques(t *testing.T) {
	grid := model.Grid{Sections: 2, Time: 2}
	shared := []model.Cell{{Location: 0, Time: 0}, {Location: 0, Time: 1}, {Location: 1, Time: 1}}
	bids := []model.Bid{{Company: "a", Cells: shared}, {Company: "b", Cells: shared}}
	cg := buildConflictGraph(grid, bids)
	assert.Equal(t, 1, cg.edges)
	assert.Len(t, cg.cliques, 1)
}

func TestBitset(t *testing.T) {
	b := newBitset(130)
	b.set(0)
	b.set(64)
	c := b.with(129)
	assert.False(t, b.has(129))
	assert.True(t, c.has(129))
	assert.Equal(t, []int{0, 64, 129}, c.members())

	o := newBitset(130)
	o.set(5)
	u := b.union(o)
	assert.Equal(t, 3, u.count())
	assert.Equal(t, 2, b.count())
}

func TestComponentRankOrder(t *testing.T) {
	grid := model.Grid{Sections: 2, Time: 1}
	bids := []model.Bid{
		{Company: "z", Amount: 1, Cells: []model.Cell{{Location: 0, Time: 0}}},
		{Company: "a", Amount: 2, Cells: []model.Cell{{Location: 0, Time: 0}}},
		{Company: "a", Amount: 3, Cells: []model.Cell{{Location: 0, Time: 0}}},
	}
	cg := buildConflictGraph(grid, bids)
	c := newComponent([]int{0, 1, 2}, []string{"z", "a", "a"}, []int64{1, 2, 3}, cg)
	assert.Equal(t, []int{1, 2, 0}, c.order)
	assert.Equal(t, []int64{2, 3, 1}, c.weight)

	chosen, value := c.greedy()
	assert.Equal(t, int64(3), value)
	assert.Equal(t, []int{1}, chosen.members())

	tasks := c.split(4, 8)
	assert.GreaterOrEqual(t, len(tasks), 3)
	first, _, ok := c.children(c.root())
	assert.True(t, ok)
	assert.Equal(t, first.chosen, tasks[0].chosen)
}
