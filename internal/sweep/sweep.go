// Package sweep runs an experiment over the Cartesian product of parameter
// values and collects the run metrics of every point.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/qrr/internal/config"
	"github.com/san-kum/qrr/internal/dynamo"
	"github.com/san-kum/qrr/internal/experiment"
)

// Params lists the configuration fields a sweep can vary.
var Params = []string{"chi0", "dt", "gamma0", "kalpha", "particles", "seed", "steps", "width"}

// Apply sets the named parameter of cfg to v.
func Apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "chi0":
		cfg.Chi0 = v
	case "kalpha":
		cfg.Kalpha = v
	case "dt":
		cfg.Dt = v
	case "gamma0":
		cfg.Distribution.Gamma = v
	case "width":
		cfg.Distribution.Width = v
	case "steps":
		n, err := whole(name, v, math.MaxInt32)
		if err != nil {
			return err
		}
		cfg.Steps = int(n)
	case "particles":
		n, err := whole(name, v, math.MaxInt32)
		if err != nil {
			return err
		}
		cfg.Particles = int(n)
	case "seed":
		// float64 holds every integer up to 2^53 exactly.
		n, err := whole(name, v, 1<<53)
		if err != nil {
			return err
		}
		cfg.Seed = uint64(n)
	default:
		return dynamo.Configurationf("unknown sweep parameter: %s", name)
	}
	return nil
}

// whole checks that v is an integer in [0, limit].
func whole(name string, v, limit float64) (float64, error) {
	if v != math.Trunc(v) || v < 0 || v > limit {
		return 0, dynamo.Configurationf("%s must be a whole number in [0, %.0f], got %g", name, limit, v)
	}
	return v, nil
}

// Axis is one swept parameter and its values.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis parses "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return Axis{}, fmt.Errorf("sweep axis must look like name=v1,v2: %q", s)
	}
	a := Axis{Name: strings.TrimSpace(name)}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("sweep axis %s: %w", a.Name, err)
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

// Point is the outcome of one run of the sweep.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

type Sweep struct {
	axes   []Axis
	logger *slog.Logger
}

func New(axes []Axis, logger *slog.Logger) *Sweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweep{axes: axes, logger: logger}
}

// Size is the number of points in the sweep.
func (s *Sweep) Size() int {
	n := 1
	for _, a := range s.axes {
		n *= len(a.Values)
	}
	return n
}

// Run executes one experiment per point, varying the first axis slowest. A
// failed point is recorded in its Err field and the sweep continues; only a
// cancelled context stops it early.
func (s *Sweep) Run(ctx context.Context, base *config.Config) ([]Point, error) {
	for _, a := range s.axes {
		if len(a.Values) == 0 {
			return nil, dynamo.Configurationf("sweep axis %s has no values", a.Name)
		}
		if err := Apply(base.Clone(), a.Name, a.Values[0]); err != nil {
			return nil, err
		}
	}

	points := make([]Point, 0, s.Size())
	err := s.runRecursive(ctx, 0, base, make(map[string]float64), &points)
	return points, err
}

func (s *Sweep) runRecursive(ctx context.Context, depth int, base *config.Config, current map[string]float64, points *[]Point) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}

	if depth == len(s.axes) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*points = append(*points, s.runPoint(ctx, base, params))
		return nil
	}

	axis := s.axes[depth]
	for _, v := range axis.Values {
		current[axis.Name] = v
		if err := s.runRecursive(ctx, depth+1, base, current, points); err != nil {
			return err
		}
	}
	delete(current, axis.Name)
	return nil
}

func (s *Sweep) runPoint(ctx context.Context, base *config.Config, params map[string]float64) Point {
	p := Point{Params: params}

	cfg := base.Clone()
	for _, a := range s.axes {
		if err := Apply(cfg, a.Name, params[a.Name]); err != nil {
			p.Err = err
			return p
		}
	}

	res, err := experiment.New(cfg, experiment.WithLogger(s.logger)).Run(ctx)
	if err != nil {
		s.logger.Warn("sweep point failed", "params", params, "error", err)
		p.Err = err
		return p
	}
	p.Metrics = res.Metrics
	return p
}

// Best returns the index of the successful point with the smallest value of
// metric, or -1 if there is none.
func Best(points []Point, metric string) int {
	best, idx := math.Inf(1), -1
	for i, p := range points {
		if p.Err != nil {
			continue
		}
		v, ok := p.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if v < best {
			best, idx = v, i
		}
	}
	return idx
}
