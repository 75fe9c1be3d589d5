package config

import (
	"fmt"

	"github.com/kilianp07/trackauction/core/model"
)

// GridConfig sizes the track and the rendering of allocations.
type GridConfig struct {
	// Sections is the number of locations on the circular track.
	Sections int `json:"sections"`
	// Time is the number of time slots in the horizon.
	Time int `json:"time"`
	// Companies is the number of bidding companies. Only used for display.
	Companies int `json:"companies"`
	// TimeDisplay is the spacing of time labels under rendered grids.
	TimeDisplay int `json:"time_display"`
}

// SetDefaults applies the reference track dimensions.
func (c *GridConfig) SetDefaults() {
	if c.Sections == 0 {
		c.Sections = 14
	}
	if c.Time == 0 {
		c.Time = 300
	}
	if c.Companies == 0 {
		c.Companies = 2
	}
	if c.TimeDisplay == 0 {
		c.TimeDisplay = 10
	}
}

// Validate checks the dimensions are usable.
func (c GridConfig) Validate() error {
	if err := c.Grid().Validate(); err != nil {
		return err
	}
	if c.Companies < 0 {
		return fmt.Errorf("companies must not be negative")
	}
	if c.TimeDisplay < 1 {
		return fmt.Errorf("time_display must be at least 1")
	}
	return nil
}

// Grid returns the model grid described by the configuration.
func (c GridConfig) Grid() model.Grid {
	return model.Grid{Sections: c.Sections, Time: c.Time}
}
