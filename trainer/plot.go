package trainer

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// PlotPredictions draws predicted against actual prices with the y = x
// reference line. The image format follows the extension of path (.png,
// .svg, .pdf, ...).
func PlotPredictions(yTrue, yPred []float64, path string) error {
	if len(yTrue) == 0 {
		return errors.NewNumericError("PlotPredictions", "empty vector")
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError("PlotPredictions", len(yTrue), len(yPred), 0)
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual (test set)"
	p.X.Label.Text = "actual medv"
	p.Y.Label.Text = "predicted medv"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := yTrue[0], yTrue[0]
	for i := range yTrue {
		pts[i].X, pts[i].Y = yTrue[i], yPred[i]
		lo = min(lo, yTrue[i], yPred[i])
		hi = max(hi, yTrue[i], yPred[i])
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2)

	identity := plotter.NewFunction(func(x float64) float64 { return x })
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(scatter, identity)
	p.Legend.Add("test rows", scatter)
	p.Legend.Add("y = x", identity)
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = lo, hi

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewFilesystemError("mkdir", dir, err)
		}
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.NewFilesystemError("write", path, err)
	}
	return nil
}
