package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/qrr/internal/sweep"
)

var (
	sweepAxes   []string
	sweepMetric string
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepAxes) == 0 {
		return fmt.Errorf("at least one --param is required (one of %s)", strings.Join(sweep.Params, ", "))
	}

	axes := make([]sweep.Axis, 0, len(sweepAxes))
	for _, s := range sweepAxes {
		a, err := sweep.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Per-point run logs only show up at debug level.
	logger := slog.Default()
	if !logger.Enabled(ctx, slog.LevelDebug) {
		logger = newLogger(slog.LevelWarn, noColor)
	}

	sw := sweep.New(axes, logger)
	slog.Info("sweep started", "points", sw.Size(), "metric", sweepMetric)
	points, err := sw.Run(ctx, cfg)
	if err != nil {
		return err
	}

	printSweep(axes, points)
	if best := sweep.Best(points, sweepMetric); best >= 0 {
		slog.Info("best point", "metric", sweepMetric, "value", points[best].Metrics[sweepMetric], "params", points[best].Params)
	}
	return nil
}

func printSweep(axes []sweep.Axis, points []sweep.Point) {
	var names []string
	for _, p := range points {
		if p.Err == nil {
			names = sortedKeys(p.Metrics)
			break
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(axes)+len(names))
	for _, a := range axes {
		header = append(header, strings.ToUpper(a.Name))
	}
	for _, n := range names {
		header = append(header, strings.ToUpper(n))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range points {
		row := make([]string, 0, len(header))
		for _, a := range axes {
			row = append(row, fmt.Sprintf("%g", p.Params[a.Name]))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error())
		} else {
			for _, n := range names {
				row = append(row, fmt.Sprintf("%.6g", p.Metrics[n]))
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}
