package auction

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects how the search is bounded.
type Mode int

const (
	// ModeExact searches until optimality is proven.
	ModeExact Mode = iota
	// ModeDeadline stops after a wall-clock budget.
	ModeDeadline
	// ModeSteps stops after a number of explored search nodes.
	ModeSteps
)

// Strategy is the solver selection passed to the resolver.
type Strategy struct {
	Mode     Mode
	Deadline time.Duration
	MaxSteps int64
}

// Exact returns the default exhaustive strategy.
func Exact() Strategy { return Strategy{Mode: ModeExact} }

// WithDeadline returns a strategy interrupted after d.
func WithDeadline(d time.Duration) Strategy {
	return Strategy{Mode: ModeDeadline, Deadline: d}
}

// WithStepBudget returns a strategy interrupted after n search nodes.
func WithStepBudget(n int64) Strategy {
	return Strategy{Mode: ModeSteps, MaxSteps: n}
}

// Bounded reports whether the strategy may return a non-optimal result.
func (s Strategy) Bounded() bool { return s.Mode != ModeExact }

func (s Strategy) String() string {
	switch s.Mode {
	case ModeDeadline:
		return "deadline:" + s.Deadline.String()
	case ModeSteps:
		return "steps:" + strconv.FormatInt(s.MaxSteps, 10)
	default:
		return "exact"
	}
}

// ParseStrategy reads a selector of the form "exact", "deadline:<duration>"
// or "steps:<n>". An empty selector means exact.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "exact" {
		return Exact(), nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	switch kind {
	case "deadline":
		d, err := time.ParseDuration(arg)
		if err != nil {
			return Strategy{}, fmt.Errorf("%w: deadline %q: %v", ErrUnknownStrategy, arg, err)
		}
		if d <= 0 {
			return Strategy{}, fmt.Errorf("%w: deadline must be positive", ErrUnknownStrategy)
		}
		return WithDeadline(d), nil
	case "steps":
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n <= 0 {
			return Strategy{}, fmt.Errorf("%w: steps %q must be a positive integer", ErrUnknownStrategy, arg)
		}
		return WithStepBudget(n), nil
	default:
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
