package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/timetable"
)

type GridDef struct {
	Sections int `yaml:"sections"`
	Time     int `yaml:"time"`
}

// BidDef lists cells as [location, time] pairs.
type BidDef struct {
	ID      string   `yaml:"id,omitempty"`
	Company string   `yaml:"company"`
	Amount  int64    `yaml:"amount"`
	Cells   [][2]int `yaml:"cells"`
}

func (b BidDef) ToModel() model.Bid {
	cells := make([]model.Cell, len(b.Cells))
	for i, c := range b.Cells {
		cells[i] = model.Cell{Location: c[0], Time: c[1]}
	}
	return model.Bid{ID: b.ID, Company: b.Company, Amount: b.Amount, Cells: cells}
}

type Expected struct {
	Total    int64 `yaml:"total"`
	Accepted []int `yaml:"accepted"`
	Exact    bool  `yaml:"exact"`
	// Delivered counts winning companies whose award went out.
	Delivered int `yaml:"delivered"`
	// Error names the expected failure: "invalid_bid" or "timeout".
	Error string `yaml:"error,omitempty"`
}

type Scenario struct {
	Name          string              `yaml:"name"`
	Description   string              `yaml:"description,omitempty"`
	Grid          GridDef             `yaml:"grid"`
	Strategy      string              `yaml:"strategy,omitempty"`
	InvalidBids   string              `yaml:"invalid_bids,omitempty"`
	Workers       int                 `yaml:"workers,omitempty"`
	Bids          []BidDef            `yaml:"bids"`
	Requests      []timetable.Request `yaml:"requests,omitempty"`
	FailCompanies []string            `yaml:"fail_companies,omitempty"`
	Expected      Expected            `yaml:"expected"`
}

// ModelGrid returns the scenario grid.
func (s *Scenario) ModelGrid() model.Grid {
	return model.Grid{Sections: s.Grid.Sections, Time: s.Grid.Time}
}

// BuildBids returns the explicit bids followed by the built requests.
func (s *Scenario) BuildBids() ([]model.Bid, error) {
	bids := make([]model.Bid, 0, len(s.Bids)+len(s.Requests))
	for _, b := range s.Bids {
		bids = append(bids, b.ToModel())
	}
	if len(s.Requests) == 0 {
		return bids, nil
	}
	builder, err := timetable.NewBuilder(s.ModelGrid())
	if err != nil {
		return nil, err
	}
	for i, r := range s.Requests {
		bid, err := builder.Build(r)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
