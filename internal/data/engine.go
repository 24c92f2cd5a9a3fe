// Package data implements a lazy, partitioned dataset that is computed in parallel.
//
// Transformations (Map, ReduceByKey) only build up an execution plan.
// Actions (Collect, Each, Reduce, Aggregate, CollectAsMap, Count, TakeSample) execute the plan,
// computing the partitions concurrently and blocking until the result is available or an error aborts them.
package data

import (
	"context"
	"runtime"
	"time"

	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Engine executes the dataset actions.
type Engine struct {
	name        string
	parallelism int
	logger      zerolog.Logger
}

// NewEngine creates a new engine that computes as many partitions concurrently as there are CPUs.
func NewEngine(name string) *Engine {
	return &Engine{
		name:        name,
		parallelism: runtime.NumCPU(),
		logger:      log.With().Str("engine", name).Logger(),
	}
}

// WithParallelism limits the number of partitions computed concurrently.
func (e *Engine) WithParallelism(p int) *Engine {
	if p < 1 {
		p = 1
	}
	e.parallelism = p
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return e.name
}

// Parallelism returns the max number of partitions computed concurrently.
func (e *Engine) Parallelism() int {
	return e.parallelism
}

// execute computes all partitions of the dataset, passing each record to the given consumer.
// The consumer is called concurrently for different partitions, but sequentially within a partition.
func execute[T any](ctx context.Context, ds *Dataset[T], action string, consume func(p int, t T) error) error {
	start := time.Now()
	err := run(ctx, ds, consume)
	metrics.Observer.Action(ds.engine.name, action, err)
	if err != nil {
		ds.engine.logger.Error().
			Err(err).
			Str("dataset", ds.name).
			Str("action", action).
			Msg("action failed")
		return err
	}
	ds.engine.logger.Debug().
		Str("dataset", ds.name).
		Str("action", action).
		Int("partitions", ds.partitions).
		Float64("duration", time.Since(start).Seconds()).
		Msg("action completed")
	return nil
}

func run[T any](ctx context.Context, ds *Dataset[T], consume func(p int, t T) error) error {
	compute, err := ds.plan(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ds.engine.parallelism)
	for p := 0; p < ds.partitions; p++ {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return compute(gctx, p, func(t T) error {
				return consume(p, t)
			})
		})
	}
	return g.Wait()
}
