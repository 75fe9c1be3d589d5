package config

import (
	"fmt"

	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/logger"
)

// SolverConfig selects how bids are resolved.
type SolverConfig struct {
	// Strategy is "exact", "deadline:<duration>" or "steps:<n>".
	Strategy string `json:"strategy"`
	// Workers is the number of goroutines searching one conflict component.
	Workers int `json:"workers"`
	// InvalidBidPolicy is "reject" or "repair".
	InvalidBidPolicy string `json:"invalid_bid_policy"`
	// LPBound enables the linear relaxation bound.
	LPBound bool `json:"lp_bound"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = "exact"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.InvalidBidPolicy == "" {
		c.InvalidBidPolicy = auction.PolicyReject.String()
	}
}

// Validate checks the selectors parse.
func (c SolverConfig) Validate() error {
	if _, err := auction.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := auction.ParseInvalidBidPolicy(c.InvalidBidPolicy); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

// Options converts the configuration into resolver options.
func (c SolverConfig) Options(log logger.Logger) (auction.Options, error) {
	strategy, err := auction.ParseStrategy(c.Strategy)
	if err != nil {
		return auction.Options{}, err
	}
	policy, err := auction.ParseInvalidBidPolicy(c.InvalidBidPolicy)
	if err != nil {
		return auction.Options{}, err
	}
	return auction.Options{
		Strategy:    strategy,
		InvalidBids: policy,
		Workers:     c.Workers,
		LPBound:     c.LPBound,
		Logger:      log,
	}, nil
}
