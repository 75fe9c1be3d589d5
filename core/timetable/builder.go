// Package timetable turns a planned train movement into the set of grid cells
// it needs, ready to be submitted as a bid.
package timetable

import (
	"errors"
	"fmt"

	"github.com/kilianp07/trackauction/core/model"
)

// ErrInfeasibleSchedule is returned when a movement cannot complete inside
// the scheduling horizon.
var ErrInfeasibleSchedule = errors.New("infeasible schedule")

// ErrInvalidRequest is returned for movement parameters that make no sense on
// the configured grid.
var ErrInvalidRequest = errors.New("invalid timetable request")

// Stop is a wait of Wait time units at Location.
type Stop struct {
	Location int `json:"location" yaml:"location"`
	Wait     int `json:"wait" yaml:"wait"`
}

// Request describes one train movement on the circular track.
type Request struct {
	Company       string `json:"company" yaml:"company"`
	StartTime     int    `json:"start_time" yaml:"start_time"`
	StartLocation int    `json:"start_location" yaml:"start_location"`
	EndLocation   int    `json:"end_location" yaml:"end_location"`
	// Stops at the same location are served in submission order.
	Stops []Stop `json:"stops" yaml:"stops"`
	// Speed is the number of locations advanced per time unit.
	Speed int `json:"speed" yaml:"speed"`
	// Size is the number of consecutive locations the train occupies.
	Size   int   `json:"size" yaml:"size"`
	Amount int64 `json:"amount" yaml:"amount"`
}

// Builder generates bids on a fixed grid.
type Builder struct {
	Grid model.Grid
}

// NewBuilder returns a Builder for grid.
func NewBuilder(grid model.Grid) (*Builder, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Builder{Grid: grid}, nil
}

func (b *Builder) validate(req Request) error {
	g := b.Grid
	switch {
	case req.Speed < 1:
		return fmt.Errorf("%w: speed must be at least 1, got %d", ErrInvalidRequest, req.Speed)
	case req.Size < 1 || req.Size > g.Sections:
		return fmt.Errorf("%w: size must be within [1,%d], got %d", ErrInvalidRequest, g.Sections, req.Size)
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidRequest, req.Amount)
	case req.StartLocation < 0 || req.StartLocation >= g.Sections:
		return fmt.Errorf("%w: start location %d outside track", ErrInvalidRequest, req.StartLocation)
	case req.EndLocation < 0 || req.EndLocation >= g.Sections:
		return fmt.Errorf("%w: end location %d outside track", ErrInvalidRequest, req.EndLocation)
	case req.StartTime < 0:
		return fmt.Errorf("%w: start time %d is negative", ErrInvalidRequest, req.StartTime)
	}
	for _, s := range req.Stops {
		if s.Location < 0 || s.Location >= g.Sections {
			return fmt.Errorf("%w: stop location %d outside track", ErrInvalidRequest, s.Location)
		}
		if s.Wait < 0 {
			return fmt.Errorf("%w: negative wait %d at location %d", ErrInvalidRequest, s.Wait, s.Location)
		}
	}
	return nil
}

// Build walks the movement slot by slot and returns the resulting bid.
// The returned cells are sorted and unique.
func (b *Builder) Build(req Request) (model.Bid, error) {
	if err := b.validate(req); err != nil {
		return model.Bid{}, err
	}
	g := b.Grid

	pending := make(map[int][]int)
	remaining := 0
	for _, s := range req.Stops {
		pending[s.Location] = append(pending[s.Location], s.Wait)
		remaining++
	}

	t := req.StartTime
	loc := req.StartLocation
	var cells []model.Cell
	for {
		start, end := t, t+1
		if waits := pending[loc]; len(waits) > 0 {
			end += waits[0]
			t += waits[0]
			pending[loc] = waits[1:]
			remaining--
		}
		if end > g.Time {
			return model.Bid{}, fmt.Errorf("%w: company %s needs slot %d beyond horizon %d",
				ErrInfeasibleSchedule, req.Company, end-1, g.Time)
		}
		for i := 0; i < req.Size; i++ {
			l := g.Wrap(loc + i)
			for s := start; s < end; s++ {
				cells = append(cells, model.Cell{Location: l, Time: s})
			}
		}
		if loc == req.EndLocation && remaining == 0 {
			break
		}
		t++
		loc = g.Wrap(loc + req.Speed)
	}

	return model.Bid{
		Company: req.Company,
		Cells:   model.Dedupe(cells),
		Amount:  req.Amount,
	}, nil
}
