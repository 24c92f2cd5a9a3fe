package main

import (
	"fmt"
	"sort"

	"github.com/drakos74/free-ml/infra/config"
	"github.com/drakos74/free-ml/internal/buffer"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/math/random"
	"github.com/gonuts/commander"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

func poissonCmd() *commander.Command {
	cmd := newCommand("poisson", "poisson [flags]", "draws samples from the poisson sampler", config.Job{
		N:      100000,
		Lambda: 3,
		Seed:   1,
	}, runPoisson)
	cmd.Long = `
draws n samples from a poisson distribution with the given rate
and compares their mean and variance to lambda.

	$ train poisson -n 100000 -lambda 3 -seed 1
`
	return cmd
}

func runPoisson(o *options) error {
	if o.N < 1 || o.Lambda <= 0 {
		return fmt.Errorf("need positive -n and -lambda: %d %v", o.N, o.Lambda)
	}
	sampler := random.NewPoisson(o.Lambda, o.Seed)
	samples := make([]float64, o.N)
	counts := make(map[int]int)
	stats := buffer.NewStats()
	for i := range samples {
		k := sampler.Sample()
		samples[i] = float64(k)
		counts[k]++
		stats.Push(float64(k))
	}

	mean, variance := stat.MeanVariance(samples, nil)
	log.Info().
		Float64("lambda", sampler.Lambda()).
		Float64("mean", mean).
		Float64("variance", variance).
		Float64("min", stats.Min()).
		Float64("max", stats.Max()).
		Msg("poisson samples")

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	histogram := make([]float64, 0)
	rows := make([][]string, 0, len(keys))
	for k := 0; len(keys) > 0 && k <= keys[len(keys)-1]; k++ {
		histogram = append(histogram, float64(counts[k]))
		rows = append(rows, []string{
			fmt.Sprintf("%d", k),
			fmt.Sprintf("%d", counts[k]),
			mlmath.Format(float64(counts[k]) / float64(o.N)),
		})
	}
	renderTable([]string{"k", "count", "frequency"}, rows)
	plot(fmt.Sprintf("poisson(%v) histogram", o.Lambda), histogram)
	return nil
}
