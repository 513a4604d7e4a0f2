package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/experiment"
	"github.com/san-kum/esail/internal/logging"
)

var ErrNoCandidate = errors.New("optim: no parameter combination produced the metric")

type Goal int

const (
	Minimize Goal = iota
	Maximize
)

func (g Goal) better(a, b float64) bool {
	if g == Maximize {
		return a > b
	}
	return a < b
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	goal       Goal
}

func NewGridSearch(params []string, ranges [][]float64, goal Goal) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters with %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges, goal: goal}, nil
}

// Result is the best combination found and how many were evaluated.
type Result struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

// Search runs base with every combination of the parameter ranges and keeps
// the one whose metric is best. Runs that fail or come out non-finite are
// counted and skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (*Result, error) {
	best := &Result{Value: math.Inf(1)}
	if g.goal == Maximize {
		best.Value = math.Inf(-1)
	}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, best); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return best, ErrNoCandidate
	}
	logging.FromContext(ctx).Info(ctx, "grid search finished",
		logging.String("metric", metricName),
		logging.Float("best", best.Value),
		logging.Int("evaluated", best.Evaluated),
		logging.Int("failed", best.Failed),
	)
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for name, v := range current {
			if err := experiment.ApplyParam(cfg, name, v); err != nil {
				return err
			}
		}
		best.Evaluated++

		exp, err := experiment.New(cfg)
		if err != nil {
			best.Failed++
			return nil
		}
		result, err := exp.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		val, ok := result.Metrics[metricName]
		if err != nil || !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			best.Failed++
			return nil
		}

		if g.goal.better(val, best.Value) {
			best.Value = val
			best.Params = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best); err != nil {
			return err
		}
	}
	return nil
}
