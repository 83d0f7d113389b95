package scenario

import (
	"context"
	"fmt"

	"indent-mcp/internal/engine"
	"indent-mcp/internal/records"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent scenario calculations when none is configured.
const DefaultWorkers = 4

// Result is a baseline and its variations, in file order.
type Result struct {
	Name      string       `json:"name"`
	Base      engine.Run   `json:"base"`
	Scenarios []engine.Run `json:"scenarios"`
}

// Runs returns the baseline followed by every scenario.
func (r Result) Runs() []engine.Run {
	out := make([]engine.Run, 0, len(r.Scenarios)+1)
	out = append(out, r.Base)
	return append(out, r.Scenarios...)
}

// Runner evaluates scenario files against a dataset.
type Runner struct {
	engine  *engine.Engine
	workers int
	layouts []string
}

// NewRunner creates a runner. workers <= 0 uses DefaultWorkers.
func NewRunner(e *engine.Engine, workers int, layouts []string) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{engine: e, workers: workers, layouts: layouts}
}

// Run computes the baseline, then every variation concurrently as a re-run of it.
// The dataset is only read. Any failing scenario fails the batch.
func (r *Runner) Run(ctx context.Context, ds records.Dataset, f *File) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}

	e := r.engine
	if f.Options != nil {
		e = e.WithOptions(*f.Options)
	}

	in, err := f.Base.Inputs(r.layouts)
	if err != nil {
		return Result{}, err
	}
	name := f.Name
	if name == "" {
		name = "baseline"
	}
	base, err := e.Calculate(name, ds, in)
	if err != nil {
		return Result{}, fmt.Errorf("baseline: %w", err)
	}

	overrides := make([]engine.Overrides, len(f.Scenarios))
	for i, v := range f.Scenarios {
		if overrides[i], err = v.Overrides(r.layouts); err != nil {
			return Result{}, err
		}
	}

	log.Info().Str("file", name).Int("scenarios", len(f.Scenarios)).Int("workers", r.workers).Msg("Running scenarios")

	runs := make([]engine.Run, len(f.Scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, v := range f.Scenarios {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			run, err := e.Rerun(base, v.Name, ds, overrides[i])
			if err != nil {
				return fmt.Errorf("scenario %q: %w", v.Name, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{Name: name, Base: base, Scenarios: runs}, nil
}
