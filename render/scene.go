package render

import (
	"fmt"
	"image"

	"github.com/vl4deee11/ecoli/sim"
	"github.com/vl4deee11/ecoli/wire"
)

// Scene rebuilds the picture on the receiving end of a stream.
type Scene struct {
	RunID string
	Span  int
	Steps int

	Tick      int
	Mean      float64
	Positions []sim.Position

	bg *image.Paletted
}

func (s *Scene) Apply(f wire.Frame) error {
	switch f.Kind {
	case wire.KindHello:
		s.RunID, s.Span, s.Steps = f.RunID, f.Span, f.Steps
		s.bg, s.Positions, s.Tick = nil, nil, 0
	case wire.KindField:
		if f.Span <= 0 || len(f.Values) != f.Span*f.Span {
			return fmt.Errorf("field frame: %d values for span %d", len(f.Values), f.Span)
		}
		s.Span = f.Span
		s.bg = Heatmap(Values{Span: f.Span, Data: f.Values})
	case wire.KindTick:
		s.Tick, s.Mean, s.Positions = f.Tick, f.Mean, f.Positions
	default:
		return fmt.Errorf("unexpected frame kind %d", f.Kind)
	}
	return nil
}

func (s *Scene) Ready() bool { return s.bg != nil }

func (s *Scene) Image() *image.RGBA {
	if s.bg == nil {
		return nil
	}
	return RGBA(Frame(s.bg, s.Positions, s.Tick))
}
