package main

import (
	"context"
	"fmt"

	"github.com/drakos74/free-ml/infra/config"
	"github.com/drakos74/free-ml/internal/data"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/math/ml"
	"github.com/drakos74/free-ml/internal/math/random"
	"github.com/gonuts/commander"
)

func kmeansCmd() *commander.Command {
	cmd := newCommand(ml.KMeansKind, "kmeans [flags]", "clusters random or given points with k-means", config.Job{
		N:          1000,
		D:          2,
		K:          3,
		Iterations: 50,
		Partitions: 4,
		Seed:       1,
	}, runKMeans)
	cmd.Long = `
clusters points with Lloyd's algorithm, starting from a sample of the points.
Generated points are spread uniformly around k centers, 10 units apart.
For an input file the labels are ignored.

	$ train kmeans -n 1000 -d 2 -k 3
`
	return cmd
}

// blobs generates n points of dimension dim around k centers.
func blobs(engine *data.Engine, n, dim, k int, seed int64, partitions int) *data.Dataset[[]float64] {
	return data.Source(engine, n, func(i int) ([]float64, error) {
		c := float64(i%k) * 10
		s := seed + int64(i)*int64(dim)
		x := make([]float64, dim)
		for j := range x {
			x[j] = c + random.Draw(s+int64(j))
		}
		return x, nil
	}, partitions)
}

func runKMeans(o *options) error {
	if err := check(o); err != nil {
		return err
	}
	if o.K < 1 {
		return fmt.Errorf("need a positive number of clusters: %d", o.K)
	}
	ctx := context.Background()
	engine := o.engine()

	var points *data.Dataset[[]float64]
	if o.Input != "" {
		ds, _, _, err := examples(ctx, o, engine, nil)
		if err != nil {
			return err
		}
		points = ml.Features(ds)
	} else {
		points = blobs(engine, o.N, o.D, o.K, o.Seed, o.Partitions)
	}

	opts, err := o.trainerOptions()
	if err != nil {
		return err
	}
	km, err := ml.NewKMeans(points, o.K, nil, opts...)
	if err != nil {
		return fmt.Errorf("could not create k-means: %w", err)
	}
	if err := km.Start(ctx, o.Iterations).Wait(); err != nil {
		return fmt.Errorf("could not train k-means: %w", err)
	}

	sizes, err := clusterSizes(ctx, km, points)
	if err != nil {
		return err
	}
	rows := make([][]string, 0)
	for i, m := range km.Means() {
		rows = append(rows, []string{fmt.Sprintf("%d", i), fmt.Sprintf("%d", sizes[i]), formatVector(m)})
	}
	renderTable([]string{"cluster", "size", "mean"}, rows)

	mse := km.MSE()
	rows = make([][]string, len(mse))
	for i, m := range mse {
		rows[i] = []string{fmt.Sprintf("%d", i), mlmath.Format(m)}
	}
	renderTable([]string{"round", "mse"}, rows)
	plot("centroid movement per round", mse)
	renderTimings(km.Timings())

	return o.save(km.Snapshot())
}

// clusterSizes counts the points closest to each mean.
func clusterSizes(ctx context.Context, km *ml.KMeans, points *data.Dataset[[]float64]) (map[int]int, error) {
	assigned := data.Map(points, func(x []float64, km *ml.KMeans) (data.Pair[int, int], error) {
		c, err := km.Predict(x)
		if err != nil {
			return data.Pair[int, int]{}, err
		}
		return data.NewPair(c, 1), nil
	}, km)
	sizes, err := data.CollectAsMap(ctx, data.ReduceByKey(assigned, func(acc int, c int) int {
		return acc + c
	}, func() int {
		return 0
	}))
	if err != nil {
		return nil, fmt.Errorf("could not count cluster sizes: %w", err)
	}
	return sizes, nil
}
