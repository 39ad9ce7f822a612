package debug

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"ngosdi/mna"
)

// Dense 原生矩阵的稠密副本, 行列从0开始
func Dense(m *mna.Matrix) *mat.Dense {
	n := m.Size()
	if n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(n, n, nil)
	for _, e := range m.Elements() {
		d.Set(e.Row-1, e.Col-1, e.Real)
	}
	return d
}

// DumpDense 输出稠密矩阵
func DumpDense(w io.Writer, m *mna.Matrix) error {
	_, err := fmt.Fprintf(w, "%v\n", mat.Formatted(Dense(m), mat.Squeeze()))
	return err
}

// PlotSparsity 绘制已分配元素的位置, format 为 png / svg / pdf
func PlotSparsity(w io.Writer, m *mna.Matrix, format string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Jacobian %dx%d, %d entries", m.Size(), m.Size(), m.NonZeroCount())
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.X.Min, p.Y.Min = 0, -float64(m.Size()+1)
	p.X.Max, p.Y.Max = float64(m.Size()+1), 0

	pts := make(plotter.XYs, 0, m.NonZeroCount())
	for _, e := range m.Elements() {
		pts = append(pts, plotter.XY{X: float64(e.Col), Y: -float64(e.Row)})
	}
	if len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
	}

	wt, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
