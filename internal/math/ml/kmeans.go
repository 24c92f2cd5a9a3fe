package ml

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/drakos74/free-ml/internal/buffer"
	"github.com/drakos74/free-ml/internal/concurrent"
	"github.com/drakos74/free-ml/internal/data"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/drakos74/go-ex-machina/xmath"
)

const (
	// MaxMovement is the centroid movement under which the clustering is considered converged.
	MaxMovement = 1e-7
	// SampleSeed is the seed for sampling the initial means.
	SampleSeed int64 = 1
)

// Cluster accumulates the points assigned to a cluster.
type Cluster struct {
	Sum   []float64 `json:"sum"`
	Count int       `json:"count"`
}

// KMeans clusters the points of a dataset with Lloyd's algorithm.
type KMeans struct {
	config
	data *data.Dataset[[]float64]
	k    int

	// running makes sure only one round is in flight
	running sync.Mutex
	mutex   sync.RWMutex
	dim     int
	means   [][]float64
	mse     []float64
	round   int
	timings *buffer.Stats
}

// NewKMeans creates a new k-means trainer for k clusters.
// If means is nil, the first round samples the initial means from the dataset.
func NewKMeans(ds *data.Dataset[[]float64], k int, means [][]float64, opts ...Option) (*KMeans, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: need at least one cluster: %d", ErrInvalidClusters, k)
	}
	km := &KMeans{
		config:  newConfig(KMeansKind, opts...),
		data:    ds,
		k:       k,
		mse:     make([]float64, 0),
		timings: buffer.NewStats(),
	}
	if means != nil {
		if err := km.setMeans(means); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func (km *KMeans) setMeans(means [][]float64) error {
	if len(means) != km.k {
		return fmt.Errorf("%w: %d means for %d clusters", ErrInvalidClusters, len(means), km.k)
	}
	dim := len(means[0])
	mm := make([][]float64, km.k)
	for i, m := range means {
		if len(m) != dim || dim == 0 {
			return fmt.Errorf("%w: mean %d has dimension %d vs %d", ErrDimensionMismatch, i, len(m), dim)
		}
		mm[i] = xmath.Vector(m).Copy()
	}
	km.means = mm
	km.dim = dim
	return nil
}

// Means returns a copy of the current centroids, nil if they are not initialised yet.
func (km *KMeans) Means() [][]float64 {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	return copyMeans(km.means)
}

// MSE returns the centroid movement of every completed round.
func (km *KMeans) MSE() []float64 {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	mse := make([]float64, len(km.mse))
	copy(mse, km.mse)
	return mse
}

// Round returns the number of completed rounds, including the sampling round.
func (km *KMeans) Round() int {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	return km.round
}

// K returns the number of clusters.
func (km *KMeans) K() int {
	return km.k
}

// Name returns the name of the trainer.
func (km *KMeans) Name() string {
	return km.name
}

// Timings returns the statistics of the round durations in seconds.
func (km *KMeans) Timings() buffer.Summary {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	return km.timings.Summary()
}

// Converged returns true if the last round moved the centroids less than MaxMovement.
func (km *KMeans) Converged() bool {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	return len(km.mse) > 0 && km.mse[len(km.mse)-1] < MaxMovement
}

// Predict returns the index of the closest centroid.
func (km *KMeans) Predict(x []float64) (int, error) {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	if km.means == nil {
		return 0, fmt.Errorf("%w: means are not initialised", ErrInvalidClusters)
	}
	c, _, err := closest(x, km.means)
	return c, err
}

// Step executes a single round.
func (km *KMeans) Step(ctx context.Context) error {
	km.running.Lock()
	defer km.running.Unlock()
	_, err := km.step(ctx)
	return err
}

// Train executes rounds until the centroids converge or nIterations rounds have been executed.
// Sampling the initial means counts as a round.
func (km *KMeans) Train(ctx context.Context, nIterations int) error {
	km.running.Lock()
	defer km.running.Unlock()
	for i := 0; i < nIterations; i++ {
		converged, err := km.step(ctx)
		if err != nil {
			return err
		}
		if converged {
			break
		}
	}
	km.logger.Info().
		Int("rounds", km.Round()).
		Str("means", fmt.Sprintf("%v", km.Means())).
		Msg("training completed")
	return nil
}

// Start trains in the background, the completion resolves when training stops.
func (km *KMeans) Start(ctx context.Context, nIterations int) *concurrent.Completion {
	return concurrent.Start(func() error {
		return km.Train(ctx, nIterations)
	})
}

func (km *KMeans) step(ctx context.Context) (bool, error) {
	start := time.Now()
	means := km.Means()
	round := km.Round()
	if means == nil {
		if err := km.sample(ctx); err != nil {
			return false, err
		}
		km.complete(round, start, 0, false)
		return false, nil
	}

	assigned := data.Map(km.data, func(x []float64, means [][]float64) (data.Pair[int, Cluster], error) {
		c, _, err := closest(x, means)
		if err != nil {
			return data.Pair[int, Cluster]{}, err
		}
		return data.NewPair(c, Cluster{Sum: x, Count: 1}), nil
	}, means)
	dim := len(means[0])
	clusters := data.ReduceByKey(assigned, accumulate, func() Cluster {
		return Cluster{Sum: mlmath.Zeros(dim)}
	})
	centroids := data.Map(clusters, func(c data.Pair[int, Cluster], _ struct{}) (data.Pair[int, []float64], error) {
		return data.NewPair(c.Key, centroid(c.Value)), nil
	}, struct{}{})
	newMeans, err := data.CollectAsMap(ctx, centroids)
	if err != nil {
		return false, fmt.Errorf("could not compute means for round %d: %w", round, err)
	}

	next := make([][]float64, km.k)
	var movement float64
	for i, m := range means {
		mean, ok := newMeans[i]
		if !ok {
			km.logger.Warn().
				Int("round", round).
				Int("cluster", i).
				Msg("no points assigned to cluster, keeping previous mean")
			mean = m
		}
		d := xmath.Vector(mean).Diff(m)
		movement += d.Dot(d)
		next[i] = mean
	}

	km.mutex.Lock()
	km.means = next
	km.mse = append(km.mse, movement)
	km.mutex.Unlock()

	km.complete(round, start, movement, true)
	return movement < MaxMovement, nil
}

// sample initialises the means with a sample of the dataset, without replacement.
func (km *KMeans) sample(ctx context.Context) error {
	sample, err := km.data.TakeSample(ctx, false, km.k, SampleSeed)
	if err != nil {
		return fmt.Errorf("could not sample initial means: %w", err)
	}
	if len(sample) < km.k {
		return fmt.Errorf("%w: %d points for %d clusters", ErrEmptyDataset, len(sample), km.k)
	}
	km.mutex.Lock()
	defer km.mutex.Unlock()
	return km.setMeans(sample)
}

func (km *KMeans) complete(round int, start time.Time, movement float64, tracked bool) {
	duration := time.Since(start)
	km.mutex.Lock()
	km.round++
	km.timings.Push(duration.Seconds())
	km.mutex.Unlock()

	metrics.Observer.Round(km.name, duration)
	if tracked {
		metrics.Observer.Movement(km.name, movement)
	}
	km.logger.Debug().
		Int("round", round).
		Float64("mse", movement).
		Float64("duration", duration.Seconds()).
		Msg("round completed")

	if err := km.registry.Add(km.key(KMeansKind), RoundEvent{
		Run:      km.run,
		Round:    round,
		Duration: duration.Seconds(),
		Movement: movement,
	}); err != nil {
		km.logger.Warn().Err(err).Int("round", round).Msg("could not register round")
	}
}

// closest returns the index of the mean with the smallest squared euclidean distance to x.
// On ties the lowest index wins.
func closest(x []float64, means [][]float64) (int, float64, error) {
	idx := 0
	min := math.Inf(1)
	for i, m := range means {
		if len(m) != len(x) {
			return 0, 0, fmt.Errorf("%w: point %d vs mean %d", ErrDimensionMismatch, len(x), len(m))
		}
		d := xmath.Vector(x).Diff(m)
		if sn := d.Dot(d); sn < min {
			idx = i
			min = sn
		}
	}
	return idx, min, nil
}

// accumulate adds the points of c to acc.
func accumulate(acc Cluster, c Cluster) Cluster {
	for i := range c.Sum {
		acc.Sum[i] += c.Sum[i]
	}
	acc.Count += c.Count
	return acc
}

func centroid(c Cluster) []float64 {
	count := float64(c.Count)
	return xmath.Vector(c.Sum).Op(func(x float64) float64 {
		return x / count
	})
}

func copyMeans(means [][]float64) [][]float64 {
	if means == nil {
		return nil
	}
	mm := make([][]float64, len(means))
	for i, m := range means {
		mm[i] = xmath.Vector(m).Copy()
	}
	return mm
}
