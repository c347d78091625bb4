// Package viewer shows a running stream in an ebiten window.
package viewer

import (
	"fmt"
	"log"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/vl4deee11/ecoli/render"
	"github.com/vl4deee11/ecoli/wire"
)

type Viewer struct {
	conn   *websocket.Conn
	frames chan wire.Frame
	errCh  chan error

	scene  render.Scene
	img    *ebiten.Image
	dirty  bool
	paused bool
	closed bool
	scale  int
}

func Dial(url string, scale int) (*Viewer, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Viewer{
		conn:   conn,
		frames: make(chan wire.Frame, 64),
		errCh:  make(chan error, 1),
		scale:  max(1, scale),
	}, nil
}

func (v *Viewer) read() {
	defer close(v.frames)
	for {
		typ, data, err := v.conn.ReadMessage()
		if err != nil {
			v.errCh <- err
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		f, err := wire.Decode(data)
		if err != nil {
			log.Printf("drop frame: %v", err)
			continue
		}
		v.frames <- f
	}
}

func (v *Viewer) Run() error {
	defer v.conn.Close()
	go v.read()

	ebiten.SetWindowTitle("E. coli chemotaxis")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(v)
}

func (v *Viewer) Update() error {
	for drained := false; !drained; {
		select {
		case f, ok := <-v.frames:
			if !ok {
				drained = true
				break
			}
			if err := v.scene.Apply(f); err != nil {
				log.Printf("apply frame: %v", err)
				continue
			}
			if f.Kind == wire.KindHello {
				ebiten.SetWindowSize(f.Span*v.scale, f.Span*v.scale)
			}
			v.dirty = true
		default:
			drained = true
		}
	}
	select {
	case err := <-v.errCh:
		if !v.closed {
			log.Printf("stream closed: %v", err)
			v.closed = true
		}
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && !v.closed {
		v.paused = !v.paused
		cmd := "resume"
		if v.paused {
			cmd = "pause"
		}
		if err := v.conn.WriteJSON(map[string]string{"type": cmd}); err != nil {
			log.Printf("send %s: %v", cmd, err)
		}
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if !v.scene.Ready() {
		ebitenutil.DebugPrint(screen, "waiting for field...")
		return
	}
	if v.dirty {
		pic := v.scene.Image()
		if v.img == nil || v.img.Bounds() != pic.Bounds() {
			v.img = ebiten.NewImage(pic.Bounds().Dx(), pic.Bounds().Dy())
		}
		v.img.WritePixels(pic.Pix)
		v.dirty = false
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(v.scale), float64(v.scale))
	screen.DrawImage(v.img, op)

	status := fmt.Sprintf("tick %d/%d  mean %.2f", v.scene.Tick, v.scene.Steps, v.scene.Mean)
	if v.paused {
		status += "  [paused]"
	}
	if v.closed {
		status += "  [disconnected]"
	}
	ebitenutil.DebugPrintAt(screen, status, 4, v.scene.Span*v.scale-16)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if v.scene.Span == 0 {
		return outsideWidth, outsideHeight
	}
	return v.scene.Span * v.scale, v.scene.Span * v.scale
}
