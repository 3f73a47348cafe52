package evaluator

import "fmt"

// Direction selects which way a window has to move for a rule to fire.
type Direction string

const (
	// Drop fires when oldest - newest >= threshold.
	Drop Direction = "drop"
	// Rise fires when newest - oldest >= threshold.
	Rise Direction = "rise"
)

// Rule is the static alert configuration of one monitored source.
type Rule struct {
	Source    string    `toml:"source"`
	Capacity  int       `toml:"capacity"`
	Threshold float64   `toml:"threshold"`
	Direction Direction `toml:"direction"`
	Label     string    `toml:"label"`
}

// delta returns the signed change across a window in the rule's direction.
func (r Rule) delta(oldest, newest float64) float64 {
	if r.Direction == Rise {
		return newest - oldest
	}
	return oldest - newest
}

// Validate checks that the rule can be evaluated. An empty direction means Drop.
func (r Rule) Validate() error {
	if r.Source == "" {
		return fmt.Errorf("rule source cannot be empty")
	}
	if r.Capacity < MinCapacity {
		return fmt.Errorf("rule %s: capacity must be >= %d, got %d", r.Source, MinCapacity, r.Capacity)
	}
	if r.Threshold <= 0 {
		return fmt.Errorf("rule %s: threshold must be > 0, got %v", r.Source, r.Threshold)
	}
	switch r.Direction {
	case "", Drop, Rise:
	default:
		return fmt.Errorf("rule %s: unknown direction %q", r.Source, r.Direction)
	}
	return nil
}

// DefaultRules are the rules used when no rules file is given.
//
// Readings arrive every 30s for the smoker (5 readings = 2.5 minutes) and every
// simulated hour for the stations (8 readings = a 3 hour span of the day).
// The station rules are drop detectors even though they are labelled "busy".
var DefaultRules = []Rule{
	{
		Source:    "01-smoker",
		Capacity:  5,
		Threshold: 15,
		Direction: Drop,
		Label:     "Smoker temperature fell, check fuel source and lid closure",
	},
	{
		Source:    "Station-447",
		Capacity:  8,
		Threshold: 1000,
		Direction: Drop,
		Label:     "Station 447 is busier than normal, adjust your commute",
	},
	{
		Source:    "Station-463",
		Capacity:  8,
		Threshold: 100,
		Direction: Drop,
		Label:     "Station 463 is busier than normal, adjust your commute",
	},
}
