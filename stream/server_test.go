package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vl4deee11/ecoli/sim"
	"github.com/vl4deee11/ecoli/wire"
)

func newTestServer(t *testing.T, steps int) (*Server, string) {
	t.Helper()
	cfg := sim.Config{
		PopulationSize: 20,
		WorldSpan:      32,
		FoodSources:    []sim.FoodSource{{Row: 8, Col: 8, Amount: 1000}},
		Spread:         4,
		StepSize:       2,
		TimeSteps:      steps,
		Seed:           11,
		Workers:        1,
	}
	s, err := sim.NewSim(cfg)
	if err != nil {
		t.Fatalf("new sim: %v", err)
	}
	srv := NewServer(s, 2*time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func readFrame(t *testing.T, conn *websocket.Conn) wire.Frame {
	t.Helper()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		f, err := wire.Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return f
	}
}

func TestServerGreetsThenStreamsTicks(t *testing.T) {
	srv, url := newTestServer(t, 5)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	hello := readFrame(t, conn)
	if hello.Kind != wire.KindHello || hello.RunID != srv.RunID() || hello.Span != 32 || hello.Steps != 5 {
		t.Fatalf("unexpected hello: %+v", hello)
	}
	field := readFrame(t, conn)
	if field.Kind != wire.KindField || len(field.Values) != 32*32 {
		t.Fatalf("unexpected field frame kind=%d values=%d", field.Kind, len(field.Values))
	}

	for srv.hub.Len() == 0 {
		time.Sleep(time.Millisecond)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	for want := 1; want <= 5; want++ {
		f := readFrame(t, conn)
		if f.Kind != wire.KindTick || f.Tick != want {
			t.Fatalf("expected tick %d, got kind=%d tick=%d", want, f.Kind, f.Tick)
		}
		if len(f.Positions) != 20 {
			t.Fatalf("expected 20 positions, got %d", len(f.Positions))
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if srv.sim.Ticks() != 5 {
		t.Fatalf("expected run to stop at 5 ticks, got %d", srv.sim.Ticks())
	}
}

func TestServerPausesOnRequest(t *testing.T) {
	srv, url := newTestServer(t, 1000)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]string{"type": "pause"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if typ != websocket.TextMessage {
			continue
		}
		var ack map[string]string
		if err := json.Unmarshal(data, &ack); err != nil {
			t.Fatalf("ack: %v", err)
		}
		if ack["ok"] != "received" {
			t.Fatalf("unexpected ack %v", ack)
		}
		break
	}
	if !srv.Paused() {
		t.Fatal("expected server to be paused")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := srv.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if srv.sim.Ticks() != 0 {
		t.Fatalf("expected no ticks while paused, got %d", srv.sim.Ticks())
	}
}

func TestStateChanDropsWhenFull(t *testing.T) {
	srv, _ := newTestServer(t, 40)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if srv.sim.Ticks() != 40 {
		t.Fatalf("expected 40 ticks, got %d", srv.sim.Ticks())
	}
	if n := len(srv.StateChan); n != cap(srv.StateChan) {
		t.Fatalf("expected full state channel, got %d of %d", n, cap(srv.StateChan))
	}
	first := <-srv.StateChan
	if first.Tick != 1 {
		t.Fatalf("expected oldest buffered tick 1, got %d", first.Tick)
	}
}
