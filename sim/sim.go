package sim

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

type Sim struct {
	cfg   Config
	field *Field

	agents []*Agent
	seed   int64
	table  *compassTable

	ticksElapsed int
	lastTumbles  int
	workers      int
}

// Observer receives a snapshot after every tick of Run. Returning an error
// stops the run.
type Observer func(Snapshot) error

func NewSim(cfg Config) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	field, err := BuildField(cfg.WorldSpan, cfg.FoodSources, cfg.Spread)
	if err != nil {
		return nil, err
	}

	s := &Sim{
		cfg:     cfg,
		field:   field,
		seed:    cfg.Seed,
		table:   &compass,
		workers: cfg.Workers,
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	if cfg.LegacyHeadings {
		s.table = &legacyCompass
	}
	if s.workers == 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}

	master := rand.New(rand.NewSource(s.seed))
	s.agents = make([]*Agent, 0, cfg.PopulationSize)
	for i := 0; i < cfg.PopulationSize; i++ {
		pos := Position{Row: master.Intn(field.Size()), Col: master.Intn(field.Size())}
		heading := Heading(master.Intn(headingCount))
		rng := rand.New(rand.NewSource(master.Int63()))
		s.agents = append(s.agents, newAgent(i, pos, heading, field, s.table, cfg.StepSize, rng))
	}
	return s, nil
}

func (s *Sim) Config() Config { return s.cfg }
func (s *Sim) Field() *Field { return s.field }
func (s *Sim) Seed() int64 { return s.seed }
func (s *Sim) Ticks() int { return s.ticksElapsed }

// Step moves every agent once. Agents only read the immutable field, so the
// chunks may run in parallel without changing the outcome.
func (s *Sim) Step() error {
	if s.workers <= 1 || len(s.agents) < 2 {
		n, err := s.advance(s.agents)
		if err != nil {
			return err
		}
		s.lastTumbles = n
		s.ticksElapsed++
		return nil
	}

	chunk := (len(s.agents) + s.workers - 1) / s.workers
	counts := make([]int, s.workers)
	var g errgroup.Group
	for w := 0; w*chunk < len(s.agents); w++ {
		w := w
		lo, hi := w*chunk, min((w+1)*chunk, len(s.agents))
		g.Go(func() error {
			n, err := s.advance(s.agents[lo:hi])
			counts[w] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	s.lastTumbles = total
	s.ticksElapsed++
	return nil
}

func (s *Sim) advance(agents []*Agent) (int, error) {
	tumbles := 0
	for _, a := range agents {
		if a.SenseAndMove() {
			tumbles++
		}
		if !s.field.Contains(a.pos) {
			return tumbles, &InvariantError{Agent: a.ID, Position: a.pos, Reason: "position outside field after wraparound"}
		}
		if a.last != s.field.At(a.pos.Row, a.pos.Col) {
			return tumbles, &InvariantError{Agent: a.ID, Position: a.pos, Reason: "sensed concentration differs from field"}
		}
	}
	return tumbles, nil
}

func (s *Sim) Snapshot() Snapshot {
	positions := make([]Position, len(s.agents))
	sum := 0.0
	for i, a := range s.agents {
		positions[i] = a.pos
		sum += a.last
	}
	mean := 0.0
	if len(s.agents) > 0 {
		mean = sum / float64(len(s.agents))
	}
	return Snapshot{
		Tick:              s.ticksElapsed,
		Field:             s.field,
		Positions:         positions,
		Tumbles:           s.lastTumbles,
		MeanConcentration: mean,
	}
}

// Run calls Step exactly steps times, handing each snapshot to observe when
// it is not nil.
func (s *Sim) Run(steps int, observe Observer) error {
	if steps <= 0 {
		return configErrorf("time_steps", "must be positive, got %d", steps)
	}
	for i := 0; i < steps; i++ {
		if err := s.Step(); err != nil {
			return fmt.Errorf("tick %d: %w", s.ticksElapsed+1, err)
		}
		if observe == nil {
			continue
		}
		if err := observe(s.Snapshot()); err != nil {
			return fmt.Errorf("observe tick %d: %w", s.ticksElapsed, err)
		}
	}
	return nil
}
