package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/qrr/internal/coeff"
	"github.com/san-kum/qrr/internal/config"
	"github.com/san-kum/qrr/internal/viz"
)

var (
	coeffModel    string
	coeffKalpha   float64
	coeffChi0     float64
	coeffGamma0   float64
	coeffGammaMax float64
	coeffPoints   int
)

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMODEL\tN\tSTEPS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", name, p.Config.Model, p.Config.Particles, p.Config.Steps, p.Description)
	}
	return w.Flush()
}

func printCoefficients(cmd *cobra.Command, args []string) error {
	m, err := coeff.New(coeffModel, coeffKalpha)
	if err != nil {
		return err
	}
	if coeffPoints < 2 {
		return fmt.Errorf("points must be at least 2")
	}
	if !(coeffGammaMax > 1) {
		return fmt.Errorf("gmax must exceed 1")
	}

	gammas := make([]float64, coeffPoints)
	floats.Span(gammas, 1, coeffGammaMax)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "GAMMA\tCHI\tDRIFT S\tDIFFUSION R\tG(CHI)\tH(CHI)\t")
	for _, g := range gammas {
		chi := coeff.Chi(g, coeffChi0, coeffGamma0)
		fmt.Fprintf(w, "%.1f\t%.4g\t%.5g\t%.5g\t%.4f\t%.4f\t\n",
			g, chi, m.Drift(chi), m.Diffusion(chi, g), coeff.G(chi), coeff.H(chi))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showPlot {
		const n = 60
		gs, hs := make([]float64, n), make([]float64, n)
		lo, hi := math.Log10(1e-3), math.Log10(1e2)
		for i := range gs {
			chi := math.Pow(10, lo+(hi-lo)*float64(i)/float64(n-1))
			gs[i], hs[i] = coeff.G(chi), coeff.H(chi)
		}
		fmt.Println()
		fmt.Println(viz.PlotSeries(gs, "G(chi), chi from 1e-3 to 1e2 (log)", 60, 10))
		fmt.Println()
		fmt.Println(viz.PlotSeries(hs, "H(chi), chi from 1e-3 to 1e2 (log)", 60, 10))
	}
	return nil
}
