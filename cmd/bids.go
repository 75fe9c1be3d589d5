package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/timetable"
)

// bidsFile lists bids either as explicit cell sets or as movements to expand
// through the timetable builder. Requests are appended after explicit bids.
type bidsFile struct {
	Bids     []model.Bid         `yaml:"bids"`
	Requests []timetable.Request `yaml:"requests"`
}

// loadBids reads path and returns the bids in submission order.
func loadBids(path string, grid model.Grid) ([]model.Bid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f bidsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	bids := f.Bids
	if len(f.Requests) > 0 {
		builder, err := timetable.NewBuilder(grid)
		if err != nil {
			return nil, err
		}
		for i, req := range f.Requests {
			bid, err := builder.Build(req)
			if err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			bids = append(bids, bid)
		}
	}
	return bids, nil
}
