// Package export renders snapshot distributions as PNG or SVG figures.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorBlack,
}

type FigureOptions struct {
	Title  string
	Bins   int
	Width  int
	Height int
	// Labels name the snapshots in the legend; missing labels fall back to
	// the snapshot time.
	Labels []string
}

func DefaultFigureOptions() FigureOptions {
	return FigureOptions{Bins: 100, Width: 1024, Height: 640}
}

// FormatOf picks the figure format from a file extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatPNG, FormatSVG:
		return ext, nil
	default:
		return "", fmt.Errorf("unsupported figure format: %q", ext)
	}
}

// Figure draws the normalised Lorentz-factor distribution of every snapshot
// as one line on shared axes.
func Figure(w io.Writer, format string, snaps []dynamo.Snapshot, opts FigureOptions) error {
	if len(snaps) == 0 {
		return fmt.Errorf("no snapshots to draw")
	}
	if opts.Bins < 1 {
		opts.Bins = DefaultFigureOptions().Bins
	}

	var provider chart.RendererProvider
	switch format {
	case FormatPNG:
		provider = chart.PNG
	case FormatSVG:
		provider = chart.SVG
	default:
		return fmt.Errorf("unsupported figure format: %q", format)
	}

	gammas := make([]dynamo.Ensemble, len(snaps))
	for i, s := range snaps {
		gammas[i] = s.Gammas
	}
	lo, hi := ensemble.Range(opts.Bins, gammas...)

	series := make([]chart.Series, 0, len(snaps))
	for i, s := range snaps {
		h, err := ensemble.Histogram(s.Gammas, opts.Bins, lo, hi)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("t = %.4g", s.Time)
		if i < len(opts.Labels) && opts.Labels[i] != "" {
			name = fmt.Sprintf("%s (t = %.4g)", opts.Labels[i], s.Time)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: h.Centers,
			YValues: h.Density,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2.0},
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:  "gamma",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  "density",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(provider, w)
}

// WriteFigure renders to path, choosing the format from its extension.
func WriteFigure(path string, snaps []dynamo.Snapshot, opts FigureOptions) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Figure(f, format, snaps, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
