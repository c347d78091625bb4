package render

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/vl4deee11/ecoli/sim"
)

// Grid is the read side of a concentration field.
type Grid interface {
	Size() int
	At(row, col int) float64
}

// Values adapts a decoded row-major field to Grid.
type Values struct {
	Span int
	Data []float32
}

func (v Values) Size() int { return v.Span }

func (v Values) At(row, col int) float64 {
	return float64(v.Data[row*v.Span+col])
}

// Heatmap rasterizes the field once; rows run down the image.
func Heatmap(g Grid) *image.Paletted {
	n := g.Size()
	peak := 0.0
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if v := g.At(r, c); v > peak {
				peak = v
			}
		}
	}

	img := image.NewPaletted(image.Rect(0, 0, n, n), Palette)
	for r := 0; r < n; r++ {
		row := img.Pix[r*img.Stride : r*img.Stride+n]
		for c := range row {
			row[c] = Level(g.At(r, c), peak)
		}
	}
	return img
}

// Frame copies bg and paints the agents plus a tick label on top.
func Frame(bg *image.Paletted, positions []sim.Position, tick int) *image.Paletted {
	img := image.NewPaletted(bg.Rect, bg.Palette)
	copy(img.Pix, bg.Pix)

	for _, p := range positions {
		if !(image.Point{X: p.Col, Y: p.Row}).In(img.Rect) {
			continue
		}
		img.SetColorIndex(p.Col, p.Row, AgentIndex)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(Palette[AgentIndex]),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 13),
	}
	d.DrawString(fmt.Sprintf("t=%d", tick))
	return img
}

func RGBA(src *image.Paletted) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}
