// Package stream paces a simulation on a ticker and pushes every tick to
// websocket clients as wire frames.
package stream

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vl4deee11/ecoli/sim"
	"github.com/vl4deee11/ecoli/wire"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Server struct {
	sim      *sim.Sim
	hub      *Hub
	interval time.Duration
	runID    string

	hello []byte
	field []byte

	mu   sync.RWMutex
	last []byte

	paused atomic.Bool

	StateChan chan sim.Snapshot
}

func NewServer(s *sim.Sim, interval time.Duration) *Server {
	runID := uuid.NewString()
	return &Server{
		sim:       s,
		hub:       NewHub(),
		interval:  interval,
		runID:     runID,
		hello:     wire.Encode(wire.Hello(runID, s.Config(), s.Seed())),
		field:     wire.Encode(wire.FieldOf(s.Field())),
		StateChan: make(chan sim.Snapshot, 10),
	}
}

func (srv *Server) RunID() string { return srv.runID }

func (srv *Server) Paused() bool { return srv.paused.Load() }

func (srv *Server) SetPaused(p bool) { srv.paused.Store(p) }

// Run steps the simulation once per interval until TimeSteps ticks have
// elapsed, then keeps serving the final state until ctx is done.
func (srv *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(srv.interval)
	defer ticker.Stop()
	defer srv.hub.CloseAll()

	steps := srv.sim.Config().TimeSteps
	log.Printf("run %s: %s agents on %d×%d, %d ticks, seed %d",
		srv.runID, humanize.Comma(int64(srv.sim.Config().PopulationSize)),
		srv.sim.Field().Size(), srv.sim.Field().Size(), steps, srv.sim.Seed())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if srv.paused.Load() || srv.sim.Ticks() >= steps {
			continue
		}
		if err := srv.sim.Step(); err != nil {
			return err
		}
		snap := srv.sim.Snapshot()
		frame := wire.Encode(wire.TickOf(snap))

		srv.mu.Lock()
		srv.last = frame
		srv.mu.Unlock()
		srv.hub.Broadcast(frame)

		select {
		case srv.StateChan <- snap:
		default:
		}
		if snap.Tick == steps {
			log.Printf("run %s finished after %d ticks, mean concentration %.3f", srv.runID, snap.Tick, snap.MeanConcentration)
		}
	}
}

func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.serveWS)
	return mux
}

func (srv *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	client := &Client{conn: conn}

	srv.mu.RLock()
	last := srv.last
	srv.mu.RUnlock()
	for _, frame := range [][]byte{srv.hello, srv.field, last} {
		if frame == nil {
			continue
		}
		if err := client.Send(frame); err != nil {
			log.Printf("client greet error: %v", err)
			conn.Close()
			return
		}
	}
	srv.hub.Add(client)
	defer srv.hub.Remove(client)

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		typeStr, _ := msg["type"].(string)
		switch typeStr {
		case "pause":
			srv.SetPaused(true)
		case "resume":
			srv.SetPaused(false)
		default:
		}
		_ = client.SendJSON(map[string]string{"ok": "received"})
	}
}
