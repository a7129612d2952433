package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

var _ model.Transformer = (*StandardScaler)(nil)

// StandardScaler standardizes features to zero mean and unit variance.
// The SVR candidate fits one internally; kernel methods are sensitive to
// feature scale while the linear and tree families are not.
type StandardScaler struct {
	// Mean holds the per-feature mean. Public for gob encoding.
	Mean []float64

	// Scale holds the per-feature standard deviation. Public for gob encoding.
	Scale []float64

	// Fitted reports whether Fit has completed. Public for gob encoding.
	Fitted bool
}

// NewStandardScaler creates an unfitted StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// IsFitted reports whether the scaler has been fitted.
func (s *StandardScaler) IsFitted() bool { return s.Fitted }

// Fit computes per-feature mean and standard deviation.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer calfitErrors.Recover(&err, "StandardScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return calfitErrors.NewModelError("StandardScaler.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(r)

		var sq float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(r))
		if std == 0 {
			// Constant feature: leave values unchanged rather than divide by zero.
			std = 1
		}

		s.Mean[j] = mean
		s.Scale[j] = std
	}

	s.Fitted = true
	return nil
}

// Transform standardizes X with the fitted mean and scale.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, calfitErrors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits on X and returns the standardized X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
