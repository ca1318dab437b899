package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/qrr/internal/config"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/ensemble"
	"github.com/san-kum/qrr/internal/experiment"
	"github.com/san-kum/qrr/internal/storage"
	"github.com/san-kum/qrr/internal/viz"
)

var (
	configFile string
	preset     string
	model      string
	noiseName  string
	seed       uint64
	particles  int
	steps      int
	dt         float64
	workers    int
	chi0       float64
	kalpha     float64
	gridSize   int
	domain     string
	dist       string
	gamma0     float64
	width      float64
	snapSteps  []int
	saveRun    bool
	saveWatch  bool
	showPlot   bool
	frameRate  int
)

func addConfigFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&model, "model", def.Model, "coefficient model")
	f.StringVar(&noiseName, "noise", def.Noise, "noise strategy (particle, shared)")
	f.Uint64Var(&seed, "seed", def.Seed, "random seed")
	f.IntVarP(&particles, "particles", "n", def.Particles, "number of electrons")
	f.IntVar(&steps, "steps", def.Steps, "number of timesteps")
	f.Float64Var(&dt, "dt", def.Dt, "timestep")
	f.IntVar(&workers, "workers", def.Workers, "parallel workers")
	f.Float64Var(&chi0, "chi0", def.Chi0, "chi at the reference gamma")
	f.Float64Var(&kalpha, "kalpha", def.Kalpha, "radiation-reaction strength")
	f.IntVar(&gridSize, "grid", def.GridSize, "coefficient grid size")
	f.StringVar(&domain, "domain", def.Domain, "out-of-grid policy (clamp, strict)")
	f.StringVar(&dist, "dist", def.Distribution.Kind, "initial distribution (gaussian, mono, uniform)")
	f.Float64Var(&gamma0, "gamma0", def.Distribution.Gamma, "centre of the initial distribution")
	f.Float64Var(&width, "width", def.Distribution.Width, "width of the initial distribution")
	f.IntSliceVar(&snapSteps, "snapshot", nil, "extra step indices to snapshot")
}

// buildConfig layers defaults, the preset, the config file and explicitly
// set flags, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("noise") {
		cfg.Noise = noiseName
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("particles") {
		cfg.Particles = particles
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("chi0") {
		cfg.Chi0 = chi0
	}
	if flags.Changed("kalpha") {
		cfg.Kalpha = kalpha
	}
	if flags.Changed("grid") {
		cfg.GridSize = gridSize
	}
	if flags.Changed("domain") {
		cfg.Domain = domain
	}
	if flags.Changed("dist") {
		cfg.Distribution.Kind = dist
	}
	if flags.Changed("gamma0") {
		cfg.Distribution.Gamma = gamma0
	}
	if flags.Changed("width") {
		cfg.Distribution.Width = width
	}
	if flags.Changed("snapshot") {
		cfg.Snapshots = snapSteps
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, experiment.WithLogger(slog.Default()), experiment.WithPreset(preset))
	res, err := exp.Run(ctx)
	if err != nil {
		var se *dynamo.SimulationError
		if errors.As(err, &se) {
			slog.Error("particle left the coefficient domain", "step", se.Step, "particle", se.Particle, "gamma", se.Gamma)
		}
		return err
	}

	var infos []storage.SnapshotInfo
	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Metadata(), res)
		if err != nil {
			return err
		}
		slog.Info("run saved", "id", runID, "dir", st.Dir())
		if meta, err := st.Load(runID); err == nil {
			infos = meta.Snapshots
		}
	}
	printSummary(infos, res.Snapshots(), res.Metrics)

	if showPlot {
		labels := make([]string, len(infos))
		for i, info := range infos {
			labels[i] = info.Label
		}
		out, err := viz.PlotSnapshots(res.Snapshots(), labels, 60, 80, 15)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}

func printSummary(infos []storage.SnapshotInfo, snaps []dynamo.Snapshot, metrics map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT\tSTEP\tTIME\tMEAN\tSTD\tMIN\tMAX\tFLOOR")
	for i, snap := range snaps {
		label := fmt.Sprintf("#%d", i)
		if i < len(infos) {
			label = infos[i].Label
		}
		s := ensemble.Stats(snap.Gammas)
		fmt.Fprintf(w, "%s\t%d\t%.4g\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
			label, snap.Step, snap.Time, s.Mean, s.Std, s.Min, s.Max, s.Floor)
	}
	w.Flush()

	if len(metrics) == 0 {
		return
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(metrics) {
		fmt.Fprintf(w, "%s\t%.6g\n", name, metrics[name])
	}
	w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logs would tear the alternate screen, so only errors get through.
	quiet := newLogger(slog.LevelError, noColor)
	exp := experiment.New(cfg, experiment.WithLogger(quiet), experiment.WithPreset(preset))
	if err := exp.Setup(); err != nil {
		return err
	}

	title := cfg.Model
	if preset != "" {
		title = preset + " / " + cfg.Model
	}
	p := tea.NewProgram(viz.NewWatchModel(title, exp.Initial(), cfg.Steps, cancel), tea.WithAltScreen())
	if err := exp.AddObserver(viz.NewFeed(p.Send, cfg.Dt, frameRate)); err != nil {
		return err
	}

	go func() {
		res, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	m, ok := final.(viz.WatchModel)
	if !ok || !m.Done() {
		slog.Info("watch stopped before the run completed")
		return nil
	}
	if m.Err() != nil {
		return m.Err()
	}

	if saveWatch {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Metadata(), m.Result())
		if err != nil {
			return err
		}
		slog.Info("run saved", "id", runID)
	}
	return nil
}
