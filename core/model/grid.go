package model

import (
	"cmp"
	"fmt"
	"slices"
)

// Grid describes the discretised space-time of a circular track.
// Sections is the track length in location units and Time the number of
// time slots in the scheduling horizon.
type Grid struct {
	Sections int `json:"sections" yaml:"sections"`
	Time     int `json:"time" yaml:"time"`
}

// Validate checks that both dimensions are positive.
func (g Grid) Validate() error {
	if g.Sections <= 0 {
		return fmt.Errorf("grid sections must be positive, got %d", g.Sections)
	}
	if g.Time <= 0 {
		return fmt.Errorf("grid time must be positive, got %d", g.Time)
	}
	return nil
}

// Contains reports whether c lies inside the grid.
func (g Grid) Contains(c Cell) bool {
	return c.Location >= 0 && c.Location < g.Sections && c.Time >= 0 && c.Time < g.Time
}

// Key packs c into a single integer. Keys preserve the cell order.
func (g Grid) Key(c Cell) int {
	return c.Location*g.Time + c.Time
}

// CellAt is the inverse of Key.
func (g Grid) CellAt(key int) Cell {
	return Cell{Location: key / g.Time, Time: key % g.Time}
}

// Wrap reduces a location onto the circular track.
func (g Grid) Wrap(location int) int {
	l := location % g.Sections
	if l < 0 {
		l += g.Sections
	}
	return l
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int { return g.Sections * g.Time }

// Cell is one unit of track capacity for one time slot.
type Cell struct {
	Location int `json:"location" yaml:"location"`
	Time     int `json:"time" yaml:"time"`
}

// Compare orders cells by location, then by time.
func (c Cell) Compare(o Cell) int {
	if r := cmp.Compare(c.Location, o.Location); r != 0 {
		return r
	}
	return cmp.Compare(c.Time, o.Time)
}

// Less reports whether c sorts before o.
func (c Cell) Less(o Cell) bool { return c.Compare(o) < 0 }

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Location, c.Time)
}

// SortCells sorts cells in place using the cell order.
func SortCells(cells []Cell) {
	slices.SortFunc(cells, Cell.Compare)
}

// HasDuplicates reports whether cells contains the same cell twice.
func HasDuplicates(cells []Cell) bool {
	seen := make(map[Cell]struct{}, len(cells))
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}

// Dedupe returns a sorted copy of cells with duplicates removed.
func Dedupe(cells []Cell) []Cell {
	out := slices.Clone(cells)
	SortCells(out)
	return slices.Compact(out)
}

// Intersects reports whether two sorted cell sets share a cell.
func Intersects(a, b []Cell) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch a[i].Compare(b[j]) {
		case 0:
			return true
		case -1:
			i++
		default:
			j++
		}
	}
	return false
}
