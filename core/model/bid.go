package model

import (
	"fmt"
	"maps"
	"slices"
)

// Bid is a company's offer for the exclusive use of a set of cells.
// A bid is atomic: either every cell is awarded or none is.
type Bid struct {
	// ID is an optional label used in logs and renderings.
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Company string `json:"company" yaml:"company"`
	Cells   []Cell `json:"cells" yaml:"cells"`
	// Amount is the value offered for the whole cell set.
	Amount int64 `json:"amount" yaml:"amount"`
}

// Label returns the bid ID, or a positional label when the ID is empty.
func (b Bid) Label(index int) string {
	if b.ID != "" {
		return b.ID
	}
	return fmt.Sprintf("%s#%d", b.Company, index)
}

// Allocation maps awarded cells to the winning company.
type Allocation map[Cell]string

// Owner returns the company holding c.
func (a Allocation) Owner(c Cell) (string, bool) {
	company, ok := a[c]
	return company, ok
}

// Cells returns the allocated cells in cell order.
func (a Allocation) Cells() []Cell {
	cells := slices.Collect(maps.Keys(a))
	SortCells(cells)
	return cells
}

// Companies returns the sorted set of companies holding at least one cell.
func (a Allocation) Companies() []string {
	set := make(map[string]struct{})
	for _, c := range a {
		set[c] = struct{}{}
	}
	out := slices.Collect(maps.Keys(set))
	slices.Sort(out)
	return out
}

// CellsOf returns the sorted cells held by company.
func (a Allocation) CellsOf(company string) []Cell {
	var cells []Cell
	for c, owner := range a {
		if owner == company {
			cells = append(cells, c)
		}
	}
	SortCells(cells)
	return cells
}

// Equal reports whether both allocations hold the same cells for the same companies.
func (a Allocation) Equal(o Allocation) bool {
	return maps.Equal(a, o)
}
