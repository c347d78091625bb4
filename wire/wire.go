// Package wire encodes simulation frames in protobuf wire format for the
// stream transport. Frames are self-describing through the kind field.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vl4deee11/ecoli/sim"
)

type Kind uint64

const (
	KindHello Kind = 1
	KindField Kind = 2
	KindTick  Kind = 3
)

const (
	fieldKind       protowire.Number = 1
	fieldRunID      protowire.Number = 2
	fieldSpan       protowire.Number = 3
	fieldPopulation protowire.Number = 4
	fieldSteps      protowire.Number = 5
	fieldSeed       protowire.Number = 6
	fieldValues     protowire.Number = 7
	fieldTick       protowire.Number = 8
	fieldPositions  protowire.Number = 9
	fieldTumbles    protowire.Number = 10
	fieldMean       protowire.Number = 11
)

var ErrMalformed = errors.New("malformed frame")

type Frame struct {
	Kind Kind

	// hello
	RunID      string
	Population int
	Steps      int
	Seed       int64

	// hello and field
	Span int

	// field, row-major
	Values []float32

	// tick
	Tick      int
	Positions []sim.Position
	Tumbles   int
	Mean      float64
}

func Hello(runID string, cfg sim.Config, seed int64) Frame {
	return Frame{
		Kind:       KindHello,
		RunID:      runID,
		Span:       cfg.WorldSpan,
		Population: cfg.PopulationSize,
		Steps:      cfg.TimeSteps,
		Seed:       seed,
	}
}

func FieldOf(f *sim.Field) Frame {
	values := f.Values()
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return Frame{Kind: KindField, Span: f.Size(), Values: out}
}

func TickOf(s sim.Snapshot) Frame {
	return Frame{
		Kind:      KindTick,
		Tick:      s.Tick,
		Positions: s.Positions,
		Tumbles:   s.Tumbles,
		Mean:      s.MeanConcentration,
	}
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func Encode(f Frame) []byte {
	b := make([]byte, 0, 64+4*len(f.Values)+4*len(f.Positions))
	b = appendVarint(b, fieldKind, uint64(f.Kind))
	if f.RunID != "" {
		b = protowire.AppendTag(b, fieldRunID, protowire.BytesType)
		b = protowire.AppendString(b, f.RunID)
	}
	b = appendVarint(b, fieldSpan, uint64(f.Span))
	b = appendVarint(b, fieldPopulation, uint64(f.Population))
	b = appendVarint(b, fieldSteps, uint64(f.Steps))
	b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(f.Seed))

	if len(f.Values) > 0 {
		packed := make([]byte, 0, 4*len(f.Values))
		for _, v := range f.Values {
			packed = protowire.AppendFixed32(packed, math.Float32bits(v))
		}
		b = protowire.AppendTag(b, fieldValues, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	b = appendVarint(b, fieldTick, uint64(f.Tick))
	if len(f.Positions) > 0 {
		packed := make([]byte, 0, 4*len(f.Positions))
		for _, p := range f.Positions {
			packed = protowire.AppendVarint(packed, uint64(p.Row))
			packed = protowire.AppendVarint(packed, uint64(p.Col))
		}
		b = protowire.AppendTag(b, fieldPositions, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	b = appendVarint(b, fieldTumbles, uint64(f.Tumbles))
	if f.Mean != 0 {
		b = protowire.AppendTag(b, fieldMean, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f.Mean))
	}
	return b
}

func Decode(b []byte) (Frame, error) {
	var f Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Frame{}, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isVarintField(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			f.setVarint(num, v)
		case typ == protowire.BytesType && num == fieldRunID:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("%w: run id: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			f.RunID = v
		case typ == protowire.BytesType && num == fieldValues:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 || len(v)%4 != 0 {
				return Frame{}, fmt.Errorf("%w: field values", ErrMalformed)
			}
			b = b[n:]
			f.Values = make([]float32, 0, len(v)/4)
			for len(v) > 0 {
				bits, m := protowire.ConsumeFixed32(v)
				v = v[m:]
				f.Values = append(f.Values, math.Float32frombits(bits))
			}
		case typ == protowire.BytesType && num == fieldPositions:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("%w: positions: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			coords, err := consumePacked(v)
			if err != nil {
				return Frame{}, err
			}
			if len(coords)%2 != 0 {
				return Frame{}, fmt.Errorf("%w: odd coordinate count %d", ErrMalformed, len(coords))
			}
			f.Positions = make([]sim.Position, len(coords)/2)
			for i := range f.Positions {
				f.Positions[i] = sim.Position{Row: int(coords[2*i]), Col: int(coords[2*i+1])}
			}
		case typ == protowire.Fixed64Type && num == fieldMean:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("%w: mean: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			f.Mean = math.Float64frombits(v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Frame{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if f.Kind < KindHello || f.Kind > KindTick {
		return Frame{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, f.Kind)
	}
	return f, nil
}

func isVarintField(num protowire.Number) bool {
	switch num {
	case fieldKind, fieldSpan, fieldPopulation, fieldSteps, fieldSeed, fieldTick, fieldTumbles:
		return true
	}
	return false
}

func (f *Frame) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldKind:
		f.Kind = Kind(v)
	case fieldSpan:
		f.Span = int(v)
	case fieldPopulation:
		f.Population = int(v)
	case fieldSteps:
		f.Steps = int(v)
	case fieldSeed:
		f.Seed = protowire.DecodeZigZag(v)
	case fieldTick:
		f.Tick = int(v)
	case fieldTumbles:
		f.Tumbles = int(v)
	}
}

func consumePacked(b []byte) ([]uint64, error) {
	var out []uint64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: packed varint: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		out = append(out, v)
	}
	return out, nil
}
