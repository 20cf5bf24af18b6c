package powerspec

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	measuredColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	theoryColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	refColor      = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// plotRatio writes the measured-to-theory ratio against wavenumber on a
// log-x axis, with dashed 5% reference lines and dotted markers at the
// bounds of the comparison window.
func plotRatio(fname string, m *Measured, theory []float64, imin, imax int) error {
	if len(m.K) == 0 {
		return nil
	}

	p := plot.New()
	p.X.Label.Text = "k (h/Mpc)"
	p.Y.Label.Text = "P_measured / P_theory"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Min, p.Y.Max = 0, 1.5

	xy := make(plotter.XYs, len(m.K))
	for i := range m.K {
		xy[i].X, xy[i].Y = m.K[i], m.P[i]/theory[i]
	}
	line, err := plotter.NewLine(xy)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	line.Color = measuredColor
	p.Add(line)

	lo, hi := m.K[0]*0.9, m.K[len(m.K)-1]*1.1
	for _, y := range []float64{0.95, 1.05} {
		ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: y}, {X: hi, Y: y}})
		if err != nil {
			return err
		}
		ref.Width = vg.Points(1)
		ref.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		ref.Color = refColor
		p.Add(ref)
	}

	for _, i := range []int{imin, imax} {
		if i >= len(m.K) {
			i = len(m.K) - 1
		}
		mark, err := plotter.NewLine(
			plotter.XYs{{X: m.K[i], Y: 0}, {X: m.K[i], Y: 1.5}})
		if err != nil {
			return err
		}
		mark.Width = vg.Points(1)
		mark.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
		mark.Color = refColor
		p.Add(mark)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, fname)
}

// plotAbs writes the measured and theory spectra together on log-log axes.
func plotAbs(fname string, m *Measured, theory []float64) error {
	if len(m.K) == 0 {
		return nil
	}

	p := plot.New()
	p.X.Label.Text = "k (h/Mpc)"
	p.Y.Label.Text = "P(k)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	meas := make(plotter.XYs, len(m.K))
	th := make(plotter.XYs, len(m.K))
	for i := range m.K {
		meas[i].X, meas[i].Y = m.K[i], m.P[i]
		th[i].X, th[i].Y = m.K[i], theory[i]
	}

	measLine, err := plotter.NewLine(meas)
	if err != nil {
		return err
	}
	measLine.Width = vg.Points(2)
	measLine.Color = measuredColor

	thLine, err := plotter.NewLine(th)
	if err != nil {
		return err
	}
	thLine.Width = vg.Points(2)
	thLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	thLine.Color = theoryColor

	p.Add(measLine, thLine)
	p.Legend.Add("measured", measLine)
	p.Legend.Add("theory", thLine)
	p.Legend.Top = true

	// Keep sample-variance spikes in the first bins from stretching the
	// axis.
	p.Y.Max = theory[0] * 10

	return p.Save(6*vg.Inch, 4*vg.Inch, fname)
}
