package sim

import (
	"errors"
	"math"
)

type FoodSource struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Amount float64 `json:"amount"`
}

type Config struct {
	PopulationSize int          `json:"population_size"`
	WorldSpan      int          `json:"world_span"`
	FoodSources    []FoodSource `json:"food_sources"`
	Spread         float64      `json:"spread"`
	StepSize       int          `json:"step_size"`
	TimeSteps      int          `json:"time_steps"`

	// Seed 0 picks a time-derived seed; Simulation.Seed reports it.
	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"`

	// LegacyHeadings reproduces the old compass table where W moved like SW.
	LegacyHeadings bool `json:"legacy_headings"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize: 1000,
		WorldSpan:      600,
		FoodSources: []FoodSource{
			{Row: 200, Col: 200, Amount: 7000000},
			{Row: 400, Col: 400, Amount: 5000000},
		},
		Spread:    100,
		StepSize:  2,
		TimeSteps: 400,
		Workers:   1,
	}
}

// Validate returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if c.PopulationSize <= 0 {
		errs = append(errs, configErrorf("population_size", "must be positive, got %d", c.PopulationSize))
	}
	if c.TimeSteps <= 0 {
		errs = append(errs, configErrorf("time_steps", "must be positive, got %d", c.TimeSteps))
	}
	if c.StepSize <= 0 {
		errs = append(errs, configErrorf("step_size", "must be positive, got %d", c.StepSize))
	}
	if c.Workers < 0 {
		errs = append(errs, configErrorf("workers", "must not be negative, got %d", c.Workers))
	}
	errs = append(errs, validateField(c.WorldSpan, c.FoodSources, c.Spread)...)
	return errors.Join(errs...)
}

func validateField(size int, sources []FoodSource, spread float64) []error {
	var errs []error
	if size <= 0 {
		errs = append(errs, configErrorf("world_span", "must be positive, got %d", size))
	}
	if spread < 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		errs = append(errs, configErrorf("spread", "must be a finite non-negative number, got %v", spread))
	}
	for i, src := range sources {
		if src.Row < 0 || src.Row >= size || src.Col < 0 || src.Col >= size {
			errs = append(errs, configErrorf("food_sources", "source %d at (%d,%d) outside [0,%d)", i, src.Row, src.Col, size))
		}
		if src.Amount < 0 || math.IsNaN(src.Amount) || math.IsInf(src.Amount, 0) {
			errs = append(errs, configErrorf("food_sources", "source %d amount must be finite and non-negative, got %v", i, src.Amount))
		}
	}
	return errs
}
