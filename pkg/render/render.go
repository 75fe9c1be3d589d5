// Package render draws allocations and bids as text grids: one row per track
// location, one column per time slot.
package render

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kilianp07/trackauction/core/model"
)

const markerAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// overflowMarker is used once the alphabet is exhausted.
const overflowMarker = '#'

// bidMarker fills cells of a single bid view.
const bidMarker = '*'

// Options tunes the text layout.
type Options struct {
	// TimeDisplay is the spacing of time labels. Defaults to 10.
	TimeDisplay int
	// Legend appends the marker to company mapping when markers are not the
	// company ids themselves.
	Legend bool
}

// Renderer draws grids of a fixed size.
type Renderer struct {
	grid model.Grid
	opts Options
}

// New returns a Renderer for grid.
func New(grid model.Grid, opts Options) (*Renderer, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if opts.TimeDisplay < 1 {
		opts.TimeDisplay = 10
	}
	return &Renderer{grid: grid, opts: opts}, nil
}

// Markers assigns one display rune per company. Single character company ids
// are drawn as themselves; otherwise companies get consecutive runes from
// 0-9a-zA-Z in sorted order.
func Markers(companies []string) map[string]rune {
	sorted := slices.Clone(companies)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make(map[string]rune, len(sorted))
	self := true
	for _, c := range sorted {
		if utf8.RuneCountInString(c) != 1 {
			self = false
			break
		}
	}
	for i, c := range sorted {
		switch {
		case self:
			r, _ := utf8.DecodeRuneInString(c)
			out[c] = r
		case i < len(markerAlphabet):
			out[c] = rune(markerAlphabet[i])
		default:
			out[c] = overflowMarker
		}
	}
	return out
}

// Allocation writes the allocation grid with one company marker per cell.
func (r *Renderer) Allocation(w io.Writer, a model.Allocation) error {
	companies := a.Companies()
	markers := Markers(companies)
	rows := make([][]rune, r.grid.Sections)
	for _, c := range a.Cells() {
		if !r.grid.Contains(c) {
			return fmt.Errorf("cell %s outside %dx%d grid", c, r.grid.Sections, r.grid.Time)
		}
		rows[c.Location] = place(rows[c.Location], c.Time, markers[a[c]])
	}
	var b strings.Builder
	r.body(&b, rows)
	if r.opts.Legend {
		legend(&b, companies, markers)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Bid writes the cells requested by bid, each drawn as '*'.
func (r *Renderer) Bid(w io.Writer, bid model.Bid) error {
	rows := make([][]rune, r.grid.Sections)
	for _, c := range bid.Cells {
		if !r.grid.Contains(c) {
			return fmt.Errorf("cell %s outside %dx%d grid", c, r.grid.Sections, r.grid.Time)
		}
		rows[c.Location] = place(rows[c.Location], c.Time, bidMarker)
	}
	var b strings.Builder
	r.body(&b, rows)
	_, err := io.WriteString(w, b.String())
	return err
}

// place sets row[t] to m, padding with spaces. Rows only grow up to their
// last occupied slot.
func place(row []rune, t int, m rune) []rune {
	for len(row) <= t {
		row = append(row, ' ')
	}
	row[t] = m
	return row
}

func (r *Renderer) body(b *strings.Builder, rows [][]rune) {
	width := len(strconv.Itoa(r.grid.Sections))
	for l, row := range rows {
		fmt.Fprintf(b, "%*d│%s\n", width, l, string(row))
	}
	b.WriteString(strings.Repeat(" ", width))
	b.WriteRune('└')
	b.WriteString(strings.Repeat("─", r.grid.Time-1))
	b.WriteByte('\n')

	var labels strings.Builder
	labels.WriteString(strings.Repeat(" ", width+1))
	over := 0
	for t := 0; t < r.grid.Time; t++ {
		switch {
		case t%r.opts.TimeDisplay == 0:
			s := strconv.Itoa(t)
			over = len(s) - 1
			labels.WriteString(s)
		case over == 0:
			labels.WriteByte(' ')
		default:
			over--
		}
	}
	b.WriteString(strings.TrimRight(labels.String(), " "))
	b.WriteByte('\n')
}

func legend(b *strings.Builder, companies []string, markers map[string]rune) {
	parts := make([]string, 0, len(companies))
	for _, c := range companies {
		m := markers[c]
		if string(m) == c {
			continue
		}
		parts = append(parts, fmt.Sprintf("%c=%s", m, c))
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString("legend: ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte('\n')
}
