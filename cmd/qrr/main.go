package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	noColor  bool
)

// main registers the qrr commands and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "qrr",
		Short:         "stochastic quantum radiation reaction of electron ensembles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, noColor)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qrr", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store its snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", true, "store the run under the data directory")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the snapshot distributions when done")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run a simulation with a live distribution view",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addConfigFlags(watchCmd)
	watchCmd.Flags().BoolVar(&saveWatch, "save", false, "store the run under the data directory")
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "display refresh rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the snapshot distributions of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBins, "bins", 60, "histogram bins")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	figureCmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "render the snapshot distributions to a PNG or SVG file",
		Args:  cobra.ExactArgs(1),
		RunE:  figureRun,
	}
	figureCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (.png or .svg), default <run_id>.png")
	figureCmd.Flags().IntVar(&figureBins, "bins", 100, "histogram bins")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the snapshot table of a run to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and snapshot statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().BoolVar(&withGammas, "gammas", false, "include every Lorentz factor")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	coeffsCmd := &cobra.Command{
		Use:   "coeffs",
		Short: "tabulate drift and diffusion coefficients",
		Args:  cobra.NoArgs,
		RunE:  printCoefficients,
	}
	coeffsCmd.Flags().StringVar(&coeffModel, "model", "quantum", "coefficient model")
	coeffsCmd.Flags().Float64Var(&coeffKalpha, "kalpha", 250, "radiation-reaction strength")
	coeffsCmd.Flags().Float64Var(&coeffChi0, "chi0", 1, "chi at the reference gamma")
	coeffsCmd.Flags().Float64Var(&coeffGamma0, "gamma0", 1800, "reference gamma")
	coeffsCmd.Flags().Float64Var(&coeffGammaMax, "gmax", 3600, "largest gamma to tabulate")
	coeffsCmd.Flags().IntVar(&coeffPoints, "points", 12, "rows to print")
	coeffsCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the suppression functions G and H")

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "run a grid of simulations over one or more parameters",
		Example: "  qrr sweep --preset quick --param chi0=0.25,0.5,1,2 --param kalpha=100,250",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "param", nil, "swept parameter as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_loss", "metric whose smallest value marks the best point")

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, plotCmd, figureCmd, exportCSVCmd, exportJSONCmd, presetsCmd, coeffsCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func setupLogging(level string, plain bool) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(newLogger(l, plain))
	return nil
}

func newLogger(level slog.Level, plain bool) *slog.Logger {
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    plain,
		}),
	)
}
