package ml

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/drakos74/free-ml/internal/data"
	"github.com/drakos74/free-ml/internal/math/random"
)

// RandomSVMData generates n random examples of dimension dim for a binary classifier.
// Record i depends only on its index and the seed, so the data are the same for any number of partitions.
func RandomSVMData(engine *data.Engine, n, dim int, seed int64, partitions int) *data.Dataset[Example] {
	return data.Source(engine, n, func(i int) (Example, error) {
		s := seed + int64(i)*int64(dim+1)
		v := make([]float64, dim+1)
		for j := range v {
			v[j] = random.Draw(s + int64(j))
		}
		return svmLine(v), nil
	}, partitions)
}

// RandomSVMLine generates a random example of dimension dim for a binary classifier.
func RandomSVMLine(rng *random.Random, dim int) Example {
	return svmLine(rng.Randn(dim + 1))
}

func svmLine(v []float64) Example {
	return Example{
		Label:    math.Round(math.Abs(v[0]))*2 - 1,
		Features: v[1:],
	}
}

// LinearData generates n examples with label = Σ slope*x for features drawn from the given seed.
func LinearData(engine *data.Engine, n, dim int, slope float64, seed int64, partitions int) *data.Dataset[Example] {
	return data.Source(engine, n, func(i int) (Example, error) {
		s := seed + int64(i)*int64(dim)
		x := make([]float64, dim)
		var y float64
		for j := range x {
			x[j] = random.Draw(s + int64(j))
			y += slope * x[j]
		}
		return Example{Label: y, Features: x}, nil
	}, partitions)
}

// Features drops the labels of the examples.
func Features(ds *data.Dataset[Example]) *data.Dataset[[]float64] {
	return data.Map(ds, func(e Example, _ struct{}) ([]float64, error) {
		return e.Features, nil
	}, struct{}{})
}

// ParseExample parses a whitespace separated line of the form 'label f1 f2 ...'.
func ParseExample(line string) (Example, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Example{}, fmt.Errorf("could not parse example '%s': need a label and at least one feature", line)
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Example{}, fmt.Errorf("could not parse value %d of '%s': %w", i, line, err)
		}
		values[i] = v
	}
	return Example{
		Label:    values[0],
		Features: values[1:],
	}, nil
}

// ParseExamples parses every line of the dataset as an example.
func ParseExamples(lines *data.Dataset[string]) *data.Dataset[Example] {
	return data.Map(lines, func(line string, _ struct{}) (Example, error) {
		return ParseExample(line)
	}, struct{}{})
}
