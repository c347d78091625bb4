package sim

import "math/rand"

type Agent struct {
	ID int

	pos     Position
	heading Heading
	last    float64

	field    *Field
	table    *compassTable
	stepSize int
	rng      *rand.Rand
}

func newAgent(id int, pos Position, heading Heading, field *Field, table *compassTable, stepSize int, rng *rand.Rand) *Agent {
	return &Agent{
		ID:       id,
		pos:      pos,
		heading:  heading,
		last:     field.At(pos.Row, pos.Col),
		field:    field,
		table:    table,
		stepSize: stepSize,
		rng:      rng,
	}
}

func (a *Agent) Position() Position { return a.pos }
func (a *Agent) Heading() Heading { return a.heading }
func (a *Agent) LastConcentration() float64 { return a.last }

// SenseAndMove advances one step along the heading, wraps on the torus and
// compares the concentration found there with the previous reading. A reading
// that did not improve triggers a tumble to a uniformly drawn heading.
func (a *Agent) SenseAndMove() (tumbled bool) {
	off := a.table[a.heading]
	size := a.field.Size()
	next := Position{
		Row: wrap(a.pos.Row+a.stepSize*off.Row, size),
		Col: wrap(a.pos.Col+a.stepSize*off.Col, size),
	}

	now := a.field.At(next.Row, next.Col)
	if now <= a.last {
		a.heading = Heading(a.rng.Intn(headingCount))
		tumbled = true
	}
	a.last = now
	a.pos = next
	return tumbled
}

func wrap(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
