// Package comparison holds the per-epoch results recorded for the same RNN
// benchmark under three frameworks and renders them as line charts.
//
// Every chart draws one solid line per framework over epochs 1–5 and one
// dashed horizontal line at that framework's five-epoch total.
package comparison

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/rnnbench/pkg/errors"
	"github.com/YuminosukeSato/rnnbench/pkg/log"
)

// Framework colours.
var (
	Green  = color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}
	Orange = color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}
	Blue   = color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
)

// Epochs are the x values shared by every chart.
var Epochs = []float64{1, 2, 3, 4, 5}

// Series is one framework's per-epoch values.
type Series struct {
	Name   string
	Color  color.Color
	Values []float64
}

// Total returns the sum of the values.
func (s Series) Total() float64 {
	return floats.Sum(s.Values)
}

// Chart is a titled set of series sharing the Epochs axis.
type Chart struct {
	Name   string
	Title  string
	YLabel string
	Series []Series
}

// Accuracy is test accuracy in percent after each epoch.
func Accuracy() Chart {
	return Chart{
		Name:   "acc",
		Title:  "Accuracy Comparison",
		YLabel: "Accuracy (%)",
		Series: []Series{
			{Name: "Romeo", Color: Green, Values: []float64{92.08, 92.2, 92.56, 92.78, 93.67}},
			{Name: "Flux", Color: Orange, Values: []float64{89.64, 91.88, 93.01, 93.81, 94.32}},
			{Name: "TensorFlow", Color: Blue, Values: []float64{70.23, 89.49, 91.07, 91.99, 92.47}},
		},
	}
}

// Loss is training loss after each epoch.
func Loss() Chart {
	return Chart{
		Name:   "loss",
		Title:  "Loss Comparison",
		YLabel: "Loss",
		Series: []Series{
			{Name: "TensorFlow", Color: Blue, Values: []float64{1.0753, 0.3818, 0.3159, 0.2804, 0.2602}},
			{Name: "Romeo", Color: Green, Values: []float64{0.4036, 0.4243, 0.4160, 0.4167, 0.3925}},
			{Name: "Flux", Color: Orange, Values: []float64{0.3903, 0.2970, 0.2506, 0.2210, 0.2008}},
		},
	}
}

// Memory is the memory allocated in each epoch, in GiB.
func Memory() Chart {
	return Chart{
		Name:   "mem",
		Title:  "Memory Allocation Comparison",
		YLabel: "Memory (GiB)",
		Series: []Series{
			{Name: "Romeo", Color: Green, Values: []float64{1.566, 1.384, 1.384, 1.384, 1.384}},
			{Name: "Flux", Color: Orange, Values: []float64{4.035, 2.637, 2.637, 2.637, 2.637}},
			{Name: "TensorFlow", Color: Blue, Values: []float64{0.33, 0.19, 0.17, 0.09, 0.09}},
		},
	}
}

// Times is the wall-clock duration of each epoch in seconds.
func Times() Chart {
	return Chart{
		Name:   "times",
		Title:  "Training Time Comparison",
		YLabel: "Time (s)",
		Series: []Series{
			{Name: "TensorFlow", Color: Blue, Values: []float64{8.90, 6.12, 6.64, 6.97, 7.02}},
			{Name: "Flux", Color: Orange, Values: []float64{26.14, 3.60, 3.85, 3.86, 3.88}},
			{Name: "Romeo", Color: Green, Values: []float64{8.54, 3.26, 3.69, 3.34, 3.01}},
		},
	}
}

// All returns the four charts keyed by name.
func All() map[string]Chart {
	charts := make(map[string]Chart, 4)
	for _, c := range []Chart{Accuracy(), Loss(), Memory(), Times()} {
		charts[c.Name] = c
	}
	return charts
}

// Figure is a built chart together with the plotters it holds.
type Figure struct {
	Plot   *plot.Plot
	Lines  []*plotter.Line
	Totals []*plotter.Line
}

// totalDashes is the dash pattern of the total reference lines.
var totalDashes = []vg.Length{vg.Points(6), vg.Points(3)}

// Build lays out c as a plot.
func Build(c Chart) (*Figure, error) {
	if len(c.Series) == 0 {
		return nil, errors.NewValueError("comparison.Build", "chart "+c.Name+" has no series")
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Epochs"
	p.Y.Label.Text = c.YLabel
	p.X.Tick.Marker = epochTicks()
	p.Add(plotter.NewGrid())

	fig := &Figure{Plot: p}
	first, last := Epochs[0], Epochs[len(Epochs)-1]

	for _, s := range c.Series {
		if len(s.Values) != len(Epochs) {
			return nil, errors.NewDimensionError("comparison.Build", len(Epochs), len(s.Values), 0)
		}
		xys := make(plotter.XYs, len(Epochs))
		for i, x := range Epochs {
			xys[i] = plotter.XY{X: x, Y: s.Values[i]}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "series %s", s.Name)
		}
		line.Color = s.Color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		fig.Lines = append(fig.Lines, line)
	}

	for _, s := range c.Series {
		total := s.Total()
		line, err := plotter.NewLine(plotter.XYs{{X: first, Y: total}, {X: last, Y: total}})
		if err != nil {
			return nil, errors.Wrapf(err, "total of %s", s.Name)
		}
		line.Color = s.Color
		line.Dashes = totalDashes
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s Total", s.Name), line)
		fig.Totals = append(fig.Totals, line)
	}

	p.Legend.Top = true
	return fig, nil
}

// Render builds c and saves it to path. The format follows the file
// extension (.png, .svg, .pdf, ...).
func Render(c Chart, path string, width, height vg.Length) error {
	fig, err := Build(c)
	if err != nil {
		return err
	}
	if err := fig.Plot.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "save chart %s to %s", c.Name, path)
	}
	log.GetLoggerWithName("comparison").Info("Chart rendered",
		log.OperationKey, log.OperationRender,
		"chart", c.Name,
		log.PathKey, path,
	)
	return nil
}

func epochTicks() plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(Epochs))
	for i, e := range Epochs {
		ticks[i] = plot.Tick{Value: e, Label: strconv.Itoa(int(e))}
	}
	return ticks
}
