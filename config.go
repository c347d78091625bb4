package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vl4deee11/ecoli/sim"
)

// loadConfig decodes path over the defaults, so absent keys keep their
// default values and "food_sources": [] clears the sources.
func loadConfig(path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return sim.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

type sourceList []sim.FoodSource

func (l *sourceList) String() string {
	parts := make([]string, 0, len(*l))
	for _, s := range *l {
		parts = append(parts, fmt.Sprintf("%d,%d,%g", s.Row, s.Col, s.Amount))
	}
	return strings.Join(parts, " ")
}

func (l *sourceList) Set(v string) error {
	fields := strings.Split(v, ",")
	if len(fields) != 3 {
		return fmt.Errorf("source %q: want row,col,amount", v)
	}
	row, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return fmt.Errorf("source %q: row: %w", v, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return fmt.Errorf("source %q: col: %w", v, err)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return fmt.Errorf("source %q: amount: %w", v, err)
	}
	*l = append(*l, sim.FoodSource{Row: row, Col: col, Amount: amount})
	return nil
}

type simFlags struct {
	configPath *string
	population *int
	span       *int
	spread     *float64
	stepSize   *int
	steps      *int
	seed       *int64
	workers    *int
	legacy     *bool
	noFood     *bool
	sources    sourceList
}

func registerSimFlags(fs *flag.FlagSet) *simFlags {
	def := sim.DefaultConfig()
	f := &simFlags{
		configPath: fs.String("config", "", "optional simulation config JSON path"),
		population: fs.Int("pop", def.PopulationSize, "population size"),
		span:       fs.Int("span", def.WorldSpan, "world edge length"),
		spread:     fs.Float64("spread", def.Spread, "gaussian smoothing standard deviation"),
		stepSize:   fs.Int("step", def.StepSize, "distance travelled per tick"),
		steps:      fs.Int("steps", def.TimeSteps, "number of ticks"),
		seed:       fs.Int64("seed", def.Seed, "rng seed (0 picks one)"),
		workers:    fs.Int("workers", def.Workers, "agent update workers (0 uses GOMAXPROCS)"),
		legacy:     fs.Bool("legacy-headings", false, "use the old compass table where W moves like SW"),
		noFood:     fs.Bool("no-food", false, "start without food sources"),
	}
	fs.Var(&f.sources, "source", "food source row,col,amount (repeatable, replaces the defaults)")
	return f
}

// resolve applies explicitly set flags over the config file.
func (f *simFlags) resolve(fs *flag.FlagSet) (sim.Config, error) {
	cfg, err := loadConfig(*f.configPath)
	if err != nil {
		return sim.Config{}, err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pop":
			cfg.PopulationSize = *f.population
		case "span":
			cfg.WorldSpan = *f.span
		case "spread":
			cfg.Spread = *f.spread
		case "step":
			cfg.StepSize = *f.stepSize
		case "steps":
			cfg.TimeSteps = *f.steps
		case "seed":
			cfg.Seed = *f.seed
		case "workers":
			cfg.Workers = *f.workers
		case "legacy-headings":
			cfg.LegacyHeadings = *f.legacy
		case "source":
			cfg.FoodSources = append([]sim.FoodSource(nil), f.sources...)
		}
	})
	if *f.noFood {
		if len(f.sources) > 0 {
			return sim.Config{}, usageError("-no-food and -source are mutually exclusive")
		}
		cfg.FoodSources = nil
	}
	return cfg, nil
}
