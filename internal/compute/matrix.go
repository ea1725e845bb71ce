package compute

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrDimensionMismatch = errors.New("number of cols in matrix A must be equal to number of rows in matrix B")
var ErrEmptyMatrix = errors.New("matrices must be non-empty")

// MultiplyMatrices computes A x B for the matrix-multiply task.
func MultiplyMatrices(a, b [][]float64) ([][]float64, error) {
	if len(a) == 0 || len(a[0]) == 0 || len(b) == 0 || len(b[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	if len(a[0]) != len(b) {
		return nil, ErrDimensionMismatch
	}

	am := mat.NewDense(len(a), len(a[0]), flatten(a))
	bm := mat.NewDense(len(b), len(b[0]), flatten(b))

	var c mat.Dense
	c.Mul(am, bm)

	rows, cols := c.Dims()
	result := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		result[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			result[i][j] = c.At(i, j)
		}
	}
	return result, nil
}

func flatten(m [][]float64) []float64 {
	flat := make([]float64, 0, len(m)*len(m[0]))
	for _, row := range m {
		flat = append(flat, row...)
	}
	return flat
}
