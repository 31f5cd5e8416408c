// Package features prepares per-word embedding matrices for clustering: random removal of
// feature dimensions followed by per-column standardization.
package features

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"paracluster/internal/core"
)

// DefaultDropCount is the number of dimensions removed before clustering.
const DefaultDropCount = 35

// DropDimensions removes count columns chosen uniformly without replacement. It returns
// the reduced matrix and the removed column indices in ascending order. count must be in
// [0, dim-1]; anything else is reported as ErrInvalidDropCount rather than clamped.
func DropDimensions(rows [][]float64, count int, rng *rand.Rand) ([][]float64, []int, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	dim := len(rows[0])
	if count < 0 || count >= dim {
		return nil, nil, fmt.Errorf("%w: cannot drop %d of %d dimensions (allowed 0-%d)",
			core.ErrInvalidDropCount, count, dim, dim-1)
	}
	for i, row := range rows {
		if len(row) != dim {
			return nil, nil, fmt.Errorf("row %d has %d dimensions, expected %d", i, len(row), dim)
		}
	}
	if count == 0 {
		return cloneRows(rows), nil, nil
	}

	dropped := rng.Perm(dim)[:count]
	sort.Ints(dropped)

	drop := make([]bool, dim)
	for _, d := range dropped {
		drop[d] = true
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		reduced := make([]float64, 0, dim-count)
		for j, v := range row {
			if !drop[j] {
				reduced = append(reduced, v)
			}
		}
		out[i] = reduced
	}
	return out, dropped, nil
}

// Standardize scales every column to zero mean and unit population variance, fitted on
// rows alone. Constant columns become all zeros.
func Standardize(rows [][]float64) [][]float64 {
	n := len(rows)
	if n == 0 {
		return nil
	}
	d := len(rows[0])
	if d == 0 {
		return cloneRows(rows)
	}

	m := mat.NewDense(n, d, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}

	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i := 0; i < n; i++ {
			m.Set(i, j, (col[i]-mean)/std)
		}
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
