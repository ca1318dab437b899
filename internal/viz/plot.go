package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Yellow,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Cyan,
}

// PlotSnapshots draws the binned density of each snapshot as one series on
// a shared Lorentz-factor axis. labels name the series in the caption.
func PlotSnapshots(snaps []dynamo.Snapshot, labels []string, bins, width, height int) (string, error) {
	if len(snaps) == 0 {
		return "", fmt.Errorf("no snapshots to plot")
	}

	gammas := make([]dynamo.Ensemble, len(snaps))
	for i, s := range snaps {
		gammas[i] = s.Gammas
	}
	lo, hi := ensemble.Range(bins, gammas...)

	data := make([][]float64, len(snaps))
	for i, s := range snaps {
		h, err := ensemble.Histogram(s.Gammas, bins, lo, hi)
		if err != nil {
			return "", err
		}
		data[i] = h.Density
	}

	names := make([]string, len(snaps))
	for i, s := range snaps {
		if i < len(labels) && labels[i] != "" {
			names[i] = labels[i]
		} else {
			names[i] = fmt.Sprintf("t=%.3g", s.Time)
		}
	}

	colors := make([]asciigraph.AnsiColor, len(data))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}

	caption := fmt.Sprintf("density over gamma in [%.0f, %.0f]: %s", lo, hi, strings.Join(names, ", "))
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	), nil
}

// PlotSeries draws a single time series, e.g. a metric history.
func PlotSeries(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
