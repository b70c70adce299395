package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/seaward-labs/echoline/internal/domain"
)

// Echogram display range in dB; samples are clamped into it so one window's
// outliers cannot wash out the colour scale.
const (
	echogramMinDB = -90.0
	echogramMaxDB = -30.0
)

// Echogram renders each window's sample grid as a PNG heat map, one file per
// window, named after the transect and mile span.
type Echogram struct {
	dir string
}

// NewEchogram builds an echogram sink writing under dir.
func NewEchogram(dir string) (*Echogram, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("echogram: %w", err)
	}
	return &Echogram{dir: dir}, nil
}

// Emit renders the window.
func (e *Echogram) Emit(ctx context.Context, win *domain.ProcessedWindow) error {
	if len(win.Sv) == 0 || win.Bins() == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Transect %03d", win.Transect)
	p.X.Label.Text = "ping"
	p.Y.Label.Text = "depth (m)"

	hm := plotter.NewHeatMap(&svGrid{win: win}, palette.Heat(32, 1))
	p.Add(hm)

	name := fmt.Sprintf("T%03d-NM%04.0f.png", win.Transect, win.MileMarks[0])
	path := filepath.Join(e.dir, name)
	if err := p.Save(24*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("%w: echogram: %v", domain.ErrDelivery, err)
	}
	return nil
}

// svGrid adapts a window's Sv grid to the plotter. Depth grows downwards, so
// rows are flipped and negated.
type svGrid struct {
	win *domain.ProcessedWindow
}

func (g *svGrid) Dims() (int, int) {
	return len(g.win.PingTime), len(g.win.Range)
}

func (g *svGrid) Z(c, r int) float64 {
	v := g.win.Sv[len(g.win.Range)-1-r][c]
	switch {
	case math.IsNaN(v), v < echogramMinDB:
		return echogramMinDB
	case v > echogramMaxDB:
		return echogramMaxDB
	}
	return v
}

func (g *svGrid) X(c int) float64 {
	return float64(c)
}

func (g *svGrid) Y(r int) float64 {
	return -g.win.Range[len(g.win.Range)-1-r]
}
