package render

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"io"

	"github.com/icza/mjpeg"

	"github.com/vl4deee11/ecoli/sim"
)

// Recorder consumes snapshots and finalizes its output on Close.
type Recorder interface {
	Observe(sim.Snapshot) error
	Close() error
}

type MJPEGRecorder struct {
	w       mjpeg.AviWriter
	bg      *image.Paletted
	buf     bytes.Buffer
	quality int
	frames  int
}

func NewMJPEG(path string, field Grid, fps int) (*MJPEGRecorder, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	n := int32(field.Size())
	w, err := mjpeg.New(path, n, n, int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create mjpeg %s: %w", path, err)
	}
	return &MJPEGRecorder{w: w, bg: Heatmap(field), quality: 90}, nil
}

func (r *MJPEGRecorder) Observe(s sim.Snapshot) error {
	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, Frame(r.bg, s.Positions, s.Tick), &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("encode frame %d: %w", s.Tick, err)
	}
	if err := r.w.AddFrame(r.buf.Bytes()); err != nil {
		return fmt.Errorf("add frame %d: %w", s.Tick, err)
	}
	r.frames++
	return nil
}

func (r *MJPEGRecorder) Frames() int { return r.frames }

func (r *MJPEGRecorder) Close() error { return r.w.Close() }

// GIFRecorder keeps every frame in memory and writes the animation on Close.
type GIFRecorder struct {
	out   io.Writer
	bg    *image.Paletted
	delay int
	anim  gif.GIF
}

func NewGIF(out io.Writer, field Grid, fps int) (*GIFRecorder, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	return &GIFRecorder{out: out, bg: Heatmap(field), delay: max(1, 100/fps)}, nil
}

func (r *GIFRecorder) Observe(s sim.Snapshot) error {
	r.anim.Image = append(r.anim.Image, Frame(r.bg, s.Positions, s.Tick))
	r.anim.Delay = append(r.anim.Delay, r.delay)
	return nil
}

func (r *GIFRecorder) Frames() int { return len(r.anim.Image) }

func (r *GIFRecorder) Close() error {
	if len(r.anim.Image) == 0 {
		return fmt.Errorf("gif: no frames recorded")
	}
	return gif.EncodeAll(r.out, &r.anim)
}

// Every forwards only every n-th snapshot to obs.
func Every(n int, obs sim.Observer) sim.Observer {
	if n <= 1 {
		return obs
	}
	return func(s sim.Snapshot) error {
		if s.Tick%n != 0 {
			return nil
		}
		return obs(s)
	}
}
