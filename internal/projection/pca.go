// ABOUTME: Principal component projection of embedding vectors onto two axes
// ABOUTME: Centers the data and factorizes it with gonum's thin SVD
package projection

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Components is the number of principal axes kept
const Components = 2

// MinVectors is the smallest input that yields a meaningful projection
const MinVectors = 3

var (
	ErrTooFewVectors     = errors.New("not enough vectors to project")
	ErrDimensionMismatch = errors.New("vectors have different dimensions")
	ErrFactorization     = errors.New("singular value decomposition failed")
)

// Point is one projected vector
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result holds projected points in input order and the share of variance each
// of the two components explains.
type Result struct {
	Points            []Point    `json:"points"`
	ExplainedVariance [2]float64 `json:"explained_variance"`
}

// TotalExplainedVariance sums the variance explained by both components
func (r Result) TotalExplainedVariance() float64 {
	return r.ExplainedVariance[0] + r.ExplainedVariance[1]
}

// PCA projects vectors with principal component analysis
type PCA struct{}

// Project runs PCA over vectors, which must share one dimension
func (PCA) Project(vectors [][]float64) (Result, error) {
	n := len(vectors)
	if n < MinVectors {
		return Result{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewVectors, n, MinVectors)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return Result{}, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}

	data := make([]float64, 0, n*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return Result{}, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	x := mat.NewDense(n, dim, data)

	for j := 0; j < dim; j++ {
		mean := stat.Mean(mat.Col(nil, j, x), nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return Result{}, ErrFactorization
	}
	values := svd.Values(nil)

	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()

	// With one dimension or fully collinear input the second axis is zero.
	basis := mat.NewDense(dim, Components, nil)
	for c := 0; c < Components && c < cols; c++ {
		for i := 0; i < dim; i++ {
			basis.Set(i, c, v.At(i, c))
		}
	}

	var projected mat.Dense
	projected.Mul(x, basis)

	res := Result{Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		res.Points[i] = Point{X: projected.At(i, 0), Y: projected.At(i, 1)}
	}

	var total float64
	for _, s := range values {
		total += s * s
	}
	if total > 0 {
		for c := 0; c < Components && c < len(values); c++ {
			res.ExplainedVariance[c] = values[c] * values[c] / total
		}
	}
	return res, nil
}
