package config

import (
	"bytes"
	"fmt"
	"os"

	"telemetry-streams/internal/evaluator"

	"github.com/pelletier/go-toml/v2"
)

// rulesFile is the layout of a rules file:
//
//	[[rule]]
//	source = "01-smoker"
//	capacity = 5
//	threshold = 15.0
//	direction = "drop"
//	label = "Smoker temperature fell"
type rulesFile struct {
	Rules []evaluator.Rule `toml:"rule"`
}

// LoadRules reads alert rules from a TOML file. An empty path returns the built-in rules.
func LoadRules(path string) ([]evaluator.Rule, error) {
	if path == "" {
		return append([]evaluator.Rule(nil), evaluator.DefaultRules...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates TOML rules. Unknown keys are rejected.
func ParseRules(data []byte) ([]evaluator.Rule, error) {
	var f rulesFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file defines no [[rule]] entries")
	}
	for _, r := range f.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Rules, nil
}
