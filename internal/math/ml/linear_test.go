package ml

import (
	"context"
	"errors"
	"testing"

	"github.com/drakos74/free-ml/internal/data"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/math/random"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separable(engine *data.Engine) *data.Dataset[Example] {
	return data.Parallelize(engine, []Example{
		{Label: 1, Features: []float64{1, 2}},
		{Label: 1, Features: []float64{2, 1}},
		{Label: -1, Features: []float64{-1, -2}},
		{Label: -1, Features: []float64{-2, -1}},
	}, 2)
}

func TestHingeLossGradient(t *testing.T) {

	type test struct {
		example Example
		w       []float64
		grad    []float64
		err     error
	}

	tests := map[string]test{
		"inside-margin": {
			example: Example{Label: 1, Features: []float64{1, 2}},
			w:       []float64{0, 0},
			grad:    []float64{-1, -2},
		},
		"inside-margin-negative": {
			example: Example{Label: -1, Features: []float64{1, 2}},
			w:       []float64{0.1, 0.1},
			grad:    []float64{1, 2},
		},
		"outside-margin": {
			example: Example{Label: 1, Features: []float64{1, 2}},
			w:       []float64{1, 1},
			grad:    []float64{0, 0},
		},
		"on-margin": {
			example: Example{Label: -1, Features: []float64{-1, 0}},
			w:       []float64{1, 5},
			grad:    []float64{0, 0},
		},
		"mismatch": {
			example: Example{Label: 1, Features: []float64{1, 2, 3}},
			w:       []float64{1, 1},
			err:     ErrDimensionMismatch,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			grad, err := HingeLossGradient(tt.example, tt.w)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.grad, grad)
		})
	}
}

func TestSquaredLossGradient(t *testing.T) {

	type test struct {
		example Example
		w       []float64
		grad    []float64
		err     error
	}

	tests := map[string]test{
		"zero-weights": {
			example: Example{Label: 4, Features: []float64{2}},
			w:       []float64{0},
			grad:    []float64{-8},
		},
		"exact": {
			example: Example{Label: 4, Features: []float64{2}},
			w:       []float64{2},
			grad:    []float64{0},
		},
		"two-dimensions": {
			example: Example{Label: 1, Features: []float64{1, 3}},
			w:       []float64{1, 1},
			grad:    []float64{3, 9},
		},
		"mismatch": {
			example: Example{Label: 1, Features: []float64{1}},
			w:       []float64{1, 1},
			err:     ErrDimensionMismatch,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			grad, err := SquaredLossGradient(tt.example, tt.w)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.grad, grad)
		})
	}
}

func TestLinearSVM_SingleStep(t *testing.T) {
	svm, err := NewLinearSVM(separable(data.NewEngine("svm")), 2, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, svm.W())

	err = svm.Train(context.Background(), 1)
	require.NoError(t, err)

	// gradients at zero weights : (-1,-2) + (-2,-1) + (-1,-2) + (-2,-1)
	w := svm.W()
	require.Len(t, w, 2)
	assert.InDelta(t, 6.0/4.0, w[0], 1e-12)
	assert.InDelta(t, 6.0/4.0, w[1], 1e-12)
	assert.Equal(t, 1, svm.Round())

	// all examples are outside the margin now
	err = svm.Train(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, w, svm.W())
	assert.Equal(t, 4, svm.Round())
	assert.Len(t, svm.Norms(), 4)
	assert.Equal(t, 4, svm.Timings().Count)

	for _, e := range []Example{
		{Label: 1, Features: []float64{3, 3}},
		{Label: -1, Features: []float64{-0.5, -3}},
	} {
		y, err := svm.Classify(e.Features)
		require.NoError(t, err)
		assert.Equal(t, e.Label, y)
	}
}

func TestLinearSVM_InitialWeights(t *testing.T) {
	w := []float64{1, 1}
	svm, err := NewLinearSVM(separable(data.NewEngine("svm")), 2, 4, w)
	require.NoError(t, err)

	err = svm.Step(context.Background())
	require.NoError(t, err)
	// margins are all 3, nothing to correct
	assert.Equal(t, []float64{1, 1}, svm.W())
	// initial weights are not shared with the caller
	w[0] = 100
	assert.Equal(t, []float64{1, 1}, svm.W())
}

func TestLinearRegression_Converges(t *testing.T) {
	engine := data.NewEngine("regression")
	ds := LinearData(engine, 100, 1, 2, 1, 4)

	regression, err := NewLinearRegression(ds, 1, 100, nil)
	require.NoError(t, err)

	completion := regression.Start(context.Background(), 200)
	require.NoError(t, completion.Wait())

	w := regression.W()
	assert.InDelta(t, 2, w[0], 1e-3)
	assert.Equal(t, 200, regression.Round())

	// the closed form solution agrees
	examples, err := ds.Collect(context.Background())
	require.NoError(t, err)
	x := make([][]float64, len(examples))
	y := make([]float64, len(examples))
	for i, e := range examples {
		x[i] = e.Features
		y[i] = e.Label
	}
	lsq, err := mlmath.LeastSquares(x, y)
	require.NoError(t, err)
	assert.InDelta(t, lsq[0], w[0], 1e-3)
}

func TestLinearModel_Errors(t *testing.T) {
	engine := data.NewEngine("errors")

	_, err := NewLinearSVM(separable(engine), 3, 4, []float64{0, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewLinearSVM(separable(engine), 2, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidModel)

	svm, err := NewLinearSVM(separable(engine), 3, 4, nil)
	require.NoError(t, err)
	err = svm.Train(context.Background(), 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, svm.Round())
	assert.Equal(t, []float64{0, 0, 0}, svm.W())

	failure := errors.New("gradient failure")
	lm, err := NewLinearModel("failing", separable(engine), 2, 4, nil, func(e Example, w []float64) ([]float64, error) {
		if e.Label < 0 {
			return nil, failure
		}
		return HingeLossGradient(e, w)
	})
	require.NoError(t, err)
	err = lm.Start(context.Background(), 3).Wait()
	assert.ErrorIs(t, err, failure)

	short, err := NewLinearModel("short", separable(engine), 2, 4, nil, func(e Example, w []float64) ([]float64, error) {
		return []float64{1}, nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, short.Step(context.Background()), ErrDimensionMismatch)

	_, err = svm.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLinearModel_Registry(t *testing.T) {
	registry := storage.NewMockRegistry()
	svm, err := NewLinearSVM(separable(data.NewEngine("svm")), 2, 4, nil,
		WithName("registry-svm"),
		WithRun("run-1"),
		WithRegistry(registry))
	require.NoError(t, err)
	require.NoError(t, svm.Train(context.Background(), 3))

	var events []RoundEvent
	err = registry.GetAll(storage.K{Pair: "registry-svm", Label: SVM}, &events)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i, e.Round)
		assert.Equal(t, "run-1", e.Run)
		assert.InDelta(t, 1.5*1.4142135623730951, e.Norm, 1e-9)
	}
}

func TestRandomSVMData(t *testing.T) {
	engine := data.NewEngine("random")
	a, err := RandomSVMData(engine, 50, 3, 0, 1).Collect(context.Background())
	require.NoError(t, err)
	b, err := RandomSVMData(engine, 50, 3, 0, 7).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, e := range a {
		assert.Len(t, e.Features, 3)
		assert.True(t, e.Label == 1 || e.Label == -1)
		for _, f := range e.Features {
			assert.True(t, f >= -1 && f < 1)
		}
	}

	svm, err := NewLinearSVM(RandomSVMData(engine, 50, 3, 0, 4), 3, 50, nil)
	require.NoError(t, err)
	require.NoError(t, svm.Train(context.Background(), 10))
	assert.Len(t, svm.W(), 3)
}

func TestParseExample(t *testing.T) {

	type test struct {
		line    string
		example Example
		err     bool
	}

	tests := map[string]test{
		"valid": {
			line:    "1 0.5 -2",
			example: Example{Label: 1, Features: []float64{0.5, -2}},
		},
		"tabs": {
			line:    "-1\t3\t4",
			example: Example{Label: -1, Features: []float64{3, 4}},
		},
		"no-features": {
			line: "1",
			err:  true,
		},
		"not-a-number": {
			line: "1 a",
			err:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e, err := ParseExample(tt.line)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.example, e)
		})
	}
}

func TestRandomSVMData_Records(t *testing.T) {

	type test struct {
		index    int
		label    float64
		features []float64
	}

	// record i is drawn from the seeds i*(d+1) ... i*(d+1)+d
	tests := map[string]test{
		"first": {
			index:    0,
			label:    1,
			features: []float64{0.4196961579291383, 0.9485365136351902},
		},
		"second": {
			index:    1,
			label:    1,
			features: []float64{0.9500938414366829, 0.5145067372322956},
		},
	}

	records, err := RandomSVMData(data.NewEngine("records"), 2, 2, 0, 2).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := records[tt.index]
			assert.Equal(t, tt.label, e.Label)
			require.Len(t, e.Features, len(tt.features))
			for j, f := range tt.features {
				assert.InDelta(t, f, e.Features[j], 1e-9)
			}
		})
	}

	// the first draw of seed 0 is exactly -1, which rounds to label 1
	assert.Equal(t, -1.0, random.Draw(0))
}
