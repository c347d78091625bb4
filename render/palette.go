package render

import (
	"image/color"
	"math"
)

// AgentIndex is the palette slot reserved for agents and labels. Field
// values map onto [0, AgentIndex).
const AgentIndex = 255

// cmrStops approximates the CMRmap colormap: black through blue, red and
// gold to white.
var cmrStops = [...]struct{ at, r, g, b float64 }{
	{0.000, 0.00, 0.00, 0.00},
	{0.125, 0.15, 0.15, 0.50},
	{0.250, 0.30, 0.15, 0.75},
	{0.375, 0.60, 0.20, 0.50},
	{0.500, 1.00, 0.25, 0.15},
	{0.625, 0.90, 0.50, 0.00},
	{0.750, 0.90, 0.75, 0.10},
	{0.875, 0.90, 0.90, 0.50},
	{1.000, 1.00, 1.00, 1.00},
}

var Palette = buildPalette()

func buildPalette() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = cmr(float64(i) / 255)
	}
	return p
}

func cmr(x float64) color.RGBA {
	for i := 1; i < len(cmrStops); i++ {
		hi := cmrStops[i]
		if x > hi.at && i < len(cmrStops)-1 {
			continue
		}
		lo := cmrStops[i-1]
		t := (x - lo.at) / (hi.at - lo.at)
		return color.RGBA{
			R: channel(lo.r + t*(hi.r-lo.r)),
			G: channel(lo.g + t*(hi.g-lo.g)),
			B: channel(lo.b + t*(hi.b-lo.b)),
			A: 0xff,
		}
	}
	return color.RGBA{A: 0xff}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Level maps a concentration onto a field palette index.
func Level(v, peak float64) uint8 {
	if peak <= 0 || v <= 0 {
		return 0
	}
	idx := math.Round(v / peak * (AgentIndex - 1))
	if idx > AgentIndex-1 {
		idx = AgentIndex - 1
	}
	return uint8(idx)
}
