package sim

// Snapshot is a read-only view of one tick. Positions is a private copy in
// agent creation order; Field is shared and never mutated.
type Snapshot struct {
	Tick              int
	Field             *Field
	Positions         []Position
	Tumbles           int
	MeanConcentration float64
}

func (s Snapshot) TumbleFraction() float64 {
	if len(s.Positions) == 0 {
		return 0
	}
	return float64(s.Tumbles) / float64(len(s.Positions))
}
