package model

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor is the contract every candidate estimator family implements.
// X is (n_samples, n_features); y is a column vector (n_samples, 1).
type Regressor interface {
	// Fit trains the estimator on the given data.
	Fit(X, y mat.Matrix) error

	// Predict returns a (n_samples, 1) matrix of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool

	// GetParams returns the estimator's hyperparameters.
	GetParams() map[string]interface{}
}

// Transformer is a fitted, reusable numeric data transformation.
type Transformer interface {
	// Fit learns the transformation parameters from the data.
	Fit(X mat.Matrix) error

	// Transform applies the fitted transformation.
	Transform(X mat.Matrix) (*mat.Dense, error)

	// IsFitted reports whether the transformation has been fitted.
	IsFitted() bool
}
