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
	"gonum.org/v1/gonum/floats"
)

// Gradient computes the loss gradient of a single example for the given weights.
type Gradient func(e Example, w []float64) ([]float64, error)

// HingeLossGradient is the sub-gradient of the hinge loss.
// It is -label*features if the margin label*(features.w) is less than 1, the zero vector otherwise.
func HingeLossGradient(e Example, w []float64) ([]float64, error) {
	if len(e.Features) != len(w) {
		return nil, fmt.Errorf("%w: features %d vs weights %d", ErrDimensionMismatch, len(e.Features), len(w))
	}
	grad := mlmath.Zeros(len(w))
	if e.Label*floats.Dot(e.Features, w) < 1 {
		floats.AddScaled(grad, -e.Label, e.Features)
	}
	return grad, nil
}

// SquaredLossGradient is the gradient of the squared loss, (features.w - label)*features.
func SquaredLossGradient(e Example, w []float64) ([]float64, error) {
	if len(e.Features) != len(w) {
		return nil, fmt.Errorf("%w: features %d vs weights %d", ErrDimensionMismatch, len(e.Features), len(w))
	}
	grad := mlmath.Zeros(len(w))
	floats.AddScaled(grad, floats.Dot(e.Features, w)-e.Label, e.Features)
	return grad, nil
}

// LinearModel is a linear model trained with gradient descent over a dataset.
// Every round sums the gradients of all examples for the current weights
// and moves the weights against it with a step decreasing as 1/sqrt(round).
type LinearModel struct {
	config
	kind     string
	data     *data.Dataset[Example]
	dim      int
	n        int
	gradient Gradient

	// running makes sure only one round is in flight
	running sync.Mutex
	mutex   sync.RWMutex
	w       []float64
	round   int
	norms   []float64
	timings *buffer.Stats
}

// NewLinearModel creates a new linear model of dimension dim, trained on n examples.
// w are the initial weights, if nil all weights start at zero.
func NewLinearModel(kind string, ds *data.Dataset[Example], dim, n int, w []float64, gradient Gradient, opts ...Option) (*LinearModel, error) {
	if dim < 1 || n < 1 {
		return nil, fmt.Errorf("%w: dimension %d and item count %d must be positive", ErrInvalidModel, dim, n)
	}
	if w == nil {
		w = mlmath.Zeros(dim)
	}
	if len(w) != dim {
		return nil, fmt.Errorf("%w: initial weights %d vs dimension %d", ErrDimensionMismatch, len(w), dim)
	}
	weights := make([]float64, dim)
	copy(weights, w)
	return &LinearModel{
		config:   newConfig(kind, opts...),
		kind:     kind,
		data:     ds,
		dim:      dim,
		n:        n,
		gradient: gradient,
		w:        weights,
		norms:    make([]float64, 0),
		timings:  buffer.NewStats(),
	}, nil
}

// NewLinearSVM creates a linear classifier trained on the hinge loss. Labels are expected to be +1 or -1.
func NewLinearSVM(ds *data.Dataset[Example], dim, n int, w []float64, opts ...Option) (*LinearModel, error) {
	return NewLinearModel(SVM, ds, dim, n, w, HingeLossGradient, opts...)
}

// NewLinearRegression creates a linear regression model trained on the squared loss.
func NewLinearRegression(ds *data.Dataset[Example], dim, n int, w []float64, opts ...Option) (*LinearModel, error) {
	return NewLinearModel(Regression, ds, dim, n, w, SquaredLossGradient, opts...)
}

// W returns a copy of the current weights.
func (lm *LinearModel) W() []float64 {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	w := make([]float64, len(lm.w))
	copy(w, lm.w)
	return w
}

// SetW replaces the weights.
func (lm *LinearModel) SetW(w []float64) error {
	if len(w) != lm.dim {
		return fmt.Errorf("%w: weights %d vs dimension %d", ErrDimensionMismatch, len(w), lm.dim)
	}
	lm.running.Lock()
	defer lm.running.Unlock()
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	copy(lm.w, w)
	return nil
}

// Round returns the number of completed rounds.
func (lm *LinearModel) Round() int {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return lm.round
}

// Norms returns the norm of the weights after every completed round.
func (lm *LinearModel) Norms() []float64 {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	norms := make([]float64, len(lm.norms))
	copy(norms, lm.norms)
	return norms
}

// Timings returns the statistics of the round durations in seconds.
func (lm *LinearModel) Timings() buffer.Summary {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return lm.timings.Summary()
}

// Name returns the name of the trainer.
func (lm *LinearModel) Name() string {
	return lm.name
}

// Predict returns the dot product of the features with the current weights.
func (lm *LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != lm.dim {
		return 0, fmt.Errorf("%w: features %d vs dimension %d", ErrDimensionMismatch, len(x), lm.dim)
	}
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return floats.Dot(x, lm.w), nil
}

// Classify returns the sign of the prediction, as +1 or -1.
func (lm *LinearModel) Classify(x []float64) (float64, error) {
	y, err := lm.Predict(x)
	if err != nil {
		return 0, err
	}
	if y < 0 {
		return -1, nil
	}
	return 1, nil
}

// Step executes a single training round.
func (lm *LinearModel) Step(ctx context.Context) error {
	lm.running.Lock()
	defer lm.running.Unlock()
	return lm.step(ctx)
}

// Train executes the given number of rounds, one after the other.
// Any error aborts the training.
func (lm *LinearModel) Train(ctx context.Context, nIterations int) error {
	lm.running.Lock()
	defer lm.running.Unlock()
	for i := 0; i < nIterations; i++ {
		if err := lm.step(ctx); err != nil {
			return err
		}
	}
	lm.logger.Info().
		Int("rounds", lm.Round()).
		Floats64("w", lm.W()).
		Msg("training completed")
	return nil
}

// Start trains in the background, the completion resolves when all rounds are done.
func (lm *LinearModel) Start(ctx context.Context, nIterations int) *concurrent.Completion {
	return concurrent.Start(func() error {
		return lm.Train(ctx, nIterations)
	})
}

func (lm *LinearModel) step(ctx context.Context) error {
	start := time.Now()
	// the weights for this round stay the same for all examples
	w := lm.W()
	round := lm.Round()

	gradients := data.Map[Example, []float64, []float64](lm.data, lm.grad, w)
	gradient, err := data.Reduce(ctx, gradients, func(acc []float64, g []float64) []float64 {
		floats.Add(acc, g)
		return acc
	}, func() []float64 {
		return mlmath.Zeros(lm.dim)
	})
	if err != nil {
		return fmt.Errorf("could not compute gradient for round %d: %w", round, err)
	}

	rate := float64(lm.n) * math.Sqrt(float64(round+1))
	lm.mutex.Lock()
	for j := range lm.w {
		lm.w[j] -= gradient[j] / rate
	}
	lm.round++
	norm := floats.Norm(lm.w, 2)
	lm.norms = append(lm.norms, norm)
	duration := time.Since(start)
	lm.timings.Push(duration.Seconds())
	lm.mutex.Unlock()

	metrics.Observer.Round(lm.name, duration)
	lm.logger.Debug().
		Int("round", round).
		Float64("norm", norm).
		Float64("duration", duration.Seconds()).
		Msg("round completed")

	if err := lm.registry.Add(lm.key(lm.kind), RoundEvent{
		Run:      lm.run,
		Round:    round,
		Duration: duration.Seconds(),
		Norm:     norm,
	}); err != nil {
		lm.logger.Warn().Err(err).Int("round", round).Msg("could not register round")
	}
	return nil
}

// grad applies the gradient function and makes sure the result fits the model.
func (lm *LinearModel) grad(e Example, w []float64) ([]float64, error) {
	g, err := lm.gradient(e, w)
	if err != nil {
		return nil, err
	}
	if len(g) != lm.dim {
		return nil, fmt.Errorf("%w: gradient %d vs dimension %d", ErrDimensionMismatch, len(g), lm.dim)
	}
	return g, nil
}
