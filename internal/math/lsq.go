package math

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LeastSquares solves the linear least squares problem for the given design rows and targets.
// The output is the weight vector w minimizing |Xw - y|^2 , without an intercept term.
// This is the optimum that gradient descent on the squared loss converges to.
func LeastSquares(x [][]float64, y []float64) ([]float64, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("inconsistent system [ %d | %d ]", len(x), len(y))
	}
	d := len(x[0])

	a := mat.NewDense(len(x), d, nil)
	for i, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("inconsistent row %d dimension %d vs %d", i, len(row), d)
		}
		a.SetRow(i, row)
	}
	b := mat.NewDense(len(y), 1, y)
	c := mat.NewDense(d, 1, nil)

	qr := new(mat.QR)
	qr.Factorize(a)

	err := qr.SolveTo(c, false, b)

	v := c.ColView(0)
	w := make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		w[i] = v.AtVec(i)
	}
	return w, err
}
