package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/qrr/internal/export"
	"github.com/san-kum/qrr/internal/storage"
	"github.com/san-kum/qrr/internal/viz"
)

var (
	plotBins   int
	plotWidth  int
	plotHeight int
	figureBins int
	outPath    string
	withGammas bool
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tN\tSTEPS\tDT\tNOISE\tMEAN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4g\t%s\t%.2f\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Dt,
			run.Noise,
			run.Metrics["mean_gamma"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []string, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, len(meta.Snapshots))
	for i, info := range meta.Snapshots {
		labels[i] = info.Label
	}
	return meta, labels, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, labels, err := loadRun(runID)
	if err != nil {
		return err
	}
	snaps, err := storage.New(dataDir).LoadSnapshots(runID)
	if err != nil {
		return err
	}

	out, err := viz.PlotSnapshots(snaps, labels, plotBins, plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Printf("%s  model=%s  n=%d  chi0=%g  kalpha=%g\n\n", meta.ID, meta.Model, meta.Particles, meta.Chi0, meta.Kalpha)
	fmt.Println(out)
	fmt.Println()
	printSummary(meta.Snapshots, snaps, meta.Metrics)
	return nil
}

func figureRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	meta, labels, err := loadRun(runID)
	if err != nil {
		return err
	}
	snaps, err := storage.New(dataDir).LoadSnapshots(runID)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = runID + ".png"
	}
	opts := export.DefaultFigureOptions()
	opts.Bins = figureBins
	opts.Labels = labels
	opts.Title = fmt.Sprintf("%s, chi0 = %g, N = %d", meta.Model, meta.Chi0, meta.Particles)
	if err := export.WriteFigure(path, snaps, opts); err != nil {
		return err
	}
	fmt.Printf("figure written to %s\n", path)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}

	f, err := os.Open(st.CSVPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0], withGammas)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
