package render

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/vl4deee11/ecoli/sim"
)

// Chart tracks how the population climbs the gradient over time.
type Chart struct {
	ticks  []float64
	mean   []float64
	tumble []float64
}

func (c *Chart) Observe(s sim.Snapshot) error {
	c.ticks = append(c.ticks, float64(s.Tick))
	c.mean = append(c.mean, s.MeanConcentration)
	c.tumble = append(c.tumble, s.TumbleFraction())
	return nil
}

func (c *Chart) Len() int { return len(c.ticks) }

func (c *Chart) Render(w io.Writer) error {
	if len(c.ticks) < 2 {
		return fmt.Errorf("chart needs at least 2 ticks, have %d", len(c.ticks))
	}
	top := 0.0
	for _, v := range c.mean {
		top = max(top, v)
	}
	if top == 0 {
		top = 1
	}

	graph := chart.Chart{
		Width:  800,
		Height: 300,
		XAxis: chart.XAxis{
			Name: "tick",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "mean concentration",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "tumble fraction",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "mean concentration",
				XValues: c.ticks,
				YValues: c.mean,
			},
			chart.ContinuousSeries{
				Name:    "tumble fraction",
				YAxis:   chart.YAxisSecondary,
				XValues: c.ticks,
				YValues: c.tumble,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}
