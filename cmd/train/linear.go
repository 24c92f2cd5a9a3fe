package main

import (
	"context"
	"fmt"

	"github.com/drakos74/free-ml/infra/config"
	"github.com/drakos74/free-ml/internal/data"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/math/ml"
	"github.com/gonuts/commander"
	"github.com/rs/zerolog/log"
)

func svmCmd() *commander.Command {
	cmd := newCommand(ml.SVM, "svm [flags]", "trains a linear svm on random or given data", config.Job{
		N:          1000,
		D:          16,
		Iterations: 20,
		Partitions: 4,
	}, runSVM)
	cmd.Long = `
trains a linear classifier with the hinge loss.
Labels must be +1 or -1, generated data are separable on the first feature.

	$ train svm -n 10000 -d 16 -iterations 20 -partitions 4
`
	return cmd
}

func regressionCmd() *commander.Command {
	cmd := newCommand(ml.Regression, "regression [flags]", "trains a linear regression on random or given data", config.Job{
		N:          1000,
		D:          1,
		Iterations: 100,
		Partitions: 4,
		Seed:       1,
	}, runRegression)
	cmd.Long = `
trains a linear regression with the squared loss.
Generated data follow label = 2 * sum(features), without noise.

	$ train regression -n 1000 -d 1 -iterations 100
`
	return cmd
}

func runSVM(o *options) error {
	if err := check(o); err != nil {
		return err
	}
	ctx := context.Background()
	engine := o.engine()
	ds := ml.RandomSVMData(engine, o.N, o.D, o.Seed, o.Partitions)
	return train(ctx, o, engine, ds, ml.HingeLossGradient, true)
}

func runRegression(o *options) error {
	if err := check(o); err != nil {
		return err
	}
	ctx := context.Background()
	engine := o.engine()
	ds := ml.LinearData(engine, o.N, o.D, 2, o.Seed, o.Partitions)
	return train(ctx, o, engine, ds, ml.SquaredLossGradient, false)
}

func train(ctx context.Context, o *options, engine *data.Engine, generated *data.Dataset[ml.Example], gradient ml.Gradient, classify bool) error {
	ds, n, dim, err := examples(ctx, o, engine, generated)
	if err != nil {
		return err
	}

	opts, err := o.trainerOptions()
	if err != nil {
		return err
	}
	lm, err := ml.NewLinearModel(o.Model, ds, dim, n, nil, gradient, opts...)
	if err != nil {
		return fmt.Errorf("could not create model: %w", err)
	}
	if err := lm.Start(ctx, o.Iterations).Wait(); err != nil {
		return fmt.Errorf("could not train model: %w", err)
	}

	rows := make([][]string, 0)
	for i, norm := range lm.Norms() {
		rows = append(rows, []string{fmt.Sprintf("%d", i), mlmath.Format(norm)})
	}
	renderTable([]string{"round", "|w|"}, rows)
	plot("weight norm per round", lm.Norms())
	renderWeights(lm.W())
	renderTimings(lm.Timings())

	if classify {
		ratio, err := accuracy(ctx, lm, ds)
		if err != nil {
			return err
		}
		log.Info().Str("accuracy", mlmath.Format(ratio)).Msg("training accuracy")
	} else {
		if err := compare(ctx, lm, ds); err != nil {
			return err
		}
	}
	return o.save(lm.Snapshot())
}

// examples returns the dataset with its size and dimension.
func examples(ctx context.Context, o *options, engine *data.Engine, generated *data.Dataset[ml.Example]) (*data.Dataset[ml.Example], int, int, error) {
	if o.Input == "" {
		return generated, o.N, o.D, nil
	}
	ds, err := ml.ParseExamples(data.TextFile(engine, o.Input, o.Partitions)).Cache(ctx)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not read examples: %w", err)
	}
	n, err := ds.Count(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	first, err := ds.TakeSample(ctx, false, 1, o.Seed)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(first) == 0 {
		return nil, 0, 0, fmt.Errorf("no examples in '%s'", o.Input)
	}
	return ds, n, len(first[0].Features), nil
}

// accuracy is the ratio of examples classified correctly.
func accuracy(ctx context.Context, lm *ml.LinearModel, ds *data.Dataset[ml.Example]) (float64, error) {
	hits := data.Map(ds, func(e ml.Example, lm *ml.LinearModel) (int, error) {
		y, err := lm.Classify(e.Features)
		if err != nil {
			return 0, err
		}
		if y == e.Label {
			return 1, nil
		}
		return 0, nil
	}, lm)
	counts, err := data.Aggregate(ctx, hits, func() [2]int {
		return [2]int{}
	}, func(acc [2]int, hit int) [2]int {
		acc[0] += hit
		acc[1]++
		return acc
	}, func(acc [2]int, c [2]int) [2]int {
		acc[0] += c[0]
		acc[1] += c[1]
		return acc
	})
	if err != nil {
		return 0, fmt.Errorf("could not compute accuracy: %w", err)
	}
	if counts[1] == 0 {
		return 0, nil
	}
	return float64(counts[0]) / float64(counts[1]), nil
}

// compare prints the closed form least squares solution next to the trained weights.
func compare(ctx context.Context, lm *ml.LinearModel, ds *data.Dataset[ml.Example]) error {
	examples, err := ds.Collect(ctx)
	if err != nil {
		return err
	}
	x := make([][]float64, len(examples))
	y := make([]float64, len(examples))
	for i, e := range examples {
		x[i] = e.Features
		y[i] = e.Label
	}
	lsq, err := mlmath.LeastSquares(x, y)
	if err != nil {
		log.Warn().Err(err).Msg("could not compute least squares solution")
		return nil
	}
	w := lm.W()
	rows := make([][]string, len(w))
	for j := range w {
		rows[j] = []string{fmt.Sprintf("w%d", j), mlmath.Format(w[j]), mlmath.Format(lsq[j])}
	}
	renderTable([]string{"weight", "sgd", "least squares"}, rows)
	return nil
}
