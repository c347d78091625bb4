package wire

import (
	"errors"
	"slices"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vl4deee11/ecoli/sim"
)

func TestTickFrameCarriesSnapshot(t *testing.T) {
	snap := sim.Snapshot{
		Tick:              17,
		Positions:         []sim.Position{{Row: 0, Col: 599}, {Row: 200, Col: 201}, {Row: 0, Col: 0}},
		Tumbles:           2,
		MeanConcentration: 93.25,
	}
	got, err := Decode(Encode(TickOf(snap)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != KindTick || got.Tick != 17 || got.Tumbles != 2 || got.Mean != 93.25 {
		t.Fatalf("unexpected tick frame: %+v", got)
	}
	if !slices.Equal(got.Positions, snap.Positions) {
		t.Fatalf("positions mismatch: %v vs %v", got.Positions, snap.Positions)
	}
}

func TestFieldAndHelloFrames(t *testing.T) {
	field, err := sim.BuildField(6, []sim.FoodSource{{Row: 2, Col: 3, Amount: 100}}, 1)
	if err != nil {
		t.Fatalf("build field: %v", err)
	}
	got, err := Decode(Encode(FieldOf(field)))
	if err != nil {
		t.Fatalf("decode field: %v", err)
	}
	if got.Span != 6 || len(got.Values) != 36 {
		t.Fatalf("unexpected field frame span=%d values=%d", got.Span, len(got.Values))
	}
	if got.Values[2*6+3] != float32(field.At(2, 3)) {
		t.Fatalf("expected peak %f, got %f", field.At(2, 3), got.Values[2*6+3])
	}

	cfg := sim.DefaultConfig()
	hello, err := Decode(Encode(Hello("run-1", cfg, -99)))
	if err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if hello.RunID != "run-1" || hello.Seed != -99 || hello.Span != 600 || hello.Population != 1000 || hello.Steps != 400 {
		t.Fatalf("unexpected hello: %+v", hello)
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := Encode(Frame{Kind: KindTick, Tick: 3})
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tick != 3 {
		t.Fatalf("expected tick 3, got %d", got.Tick)
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	truncated := Encode(TickOf(sim.Snapshot{Tick: 1, Positions: []sim.Position{{Row: 300, Col: 400}}}))
	truncated = truncated[:len(truncated)-1]

	var odd []byte
	odd = protowire.AppendTag(odd, fieldKind, protowire.VarintType)
	odd = protowire.AppendVarint(odd, uint64(KindTick))
	odd = protowire.AppendTag(odd, fieldPositions, protowire.BytesType)
	odd = protowire.AppendBytes(odd, protowire.AppendVarint(nil, 5))

	cases := map[string][]byte{
		"truncated":    truncated,
		"odd":          odd,
		"missing kind": Encode(Frame{Tick: 4}),
		"unknown kind": Encode(Frame{Kind: 9}),
	}
	for name, b := range cases {
		if _, err := Decode(b); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}
