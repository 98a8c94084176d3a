// Package render draws schedules as Gantt charts: processors on the Y axis,
// time on the X axis, one labelled rectangle per job and processor.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"malleableSched/internal/malleable"
)

// DefaultDir is where rendered schedules go unless a path is given.
const DefaultDir = "schedules"

// ErrRender is matched by every rendering failure.
var ErrRender = errors.New("render failed")

type gantt struct {
	sched    *malleable.Schedule
	colors   []color.Color
	outline  draw.LineStyle
	label    text.Style
	makespan float64
}

func (g *gantt) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, e := range g.sched.Entries {
		fill := g.colors[e.Job%len(g.colors)]
		x0, x1 := trX(float64(e.Start)), trX(float64(e.Finish))
		for _, proc := range e.Processors {
			y0, y1 := trY(float64(proc)), trY(float64(proc+1))
			box := []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
			c.FillPolygon(fill, c.ClipPolygonXY(box))
			c.StrokeLines(g.outline, c.ClipLinesXY(append(box, box[0]))...)
			mid := vg.Point{X: (x0 + x1) / 2, Y: (y0 + y1) / 2}
			if c.Contains(mid) {
				c.FillText(g.label, mid, strconv.Itoa(e.ID))
			}
		}
	}
}

func (g *gantt) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, g.makespan, 0, float64(g.sched.Machines)
}

// Gantt builds the chart of s. Entries without concrete processors get the
// lowest free ones.
func Gantt(s *malleable.Schedule, title string) (*plot.Plot, error) {
	withProcs, err := malleable.AssignProcessors(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	pal, err := brewer.GetPalette(brewer.TypeQualitative, "Set3", 12)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "processor"
	p.X.Min, p.Y.Min = 0, 0

	outline := plotter.DefaultLineStyle
	outline.Width = vg.Points(0.5)
	p.Add(&gantt{
		sched:   withProcs,
		colors:  pal.Colors(),
		outline: outline,
		label: text.Style{
			Color:   color.Black,
			Font:    font.From(plotter.DefaultFont, vg.Points(8)),
			XAlign:  text.XCenter,
			YAlign:  text.YCenter,
			Handler: plot.DefaultTextHandler,
		},
		makespan: float64(withProcs.Makespan()),
	})
	return p, nil
}

// Save writes the chart; the format follows the file extension (svg, png, pdf...).
func Save(p *plot.Plot, path string) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
	}
	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// Write renders s into path.
func Write(s *malleable.Schedule, title, path string) error {
	p, err := Gantt(s, title)
	if err != nil {
		return err
	}
	return Save(p, path)
}

// FileName returns DefaultDir/<engine>_n<jobs>_m<machines>.svg.
func FileName(engine string, jobs, machines int) string {
	return filepath.Join(DefaultDir, fmt.Sprintf("%s_n%d_m%d.svg", engine, jobs, machines))
}
