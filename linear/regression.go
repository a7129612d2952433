// Package linear implements ordinary least squares regression, the baseline
// candidate family in model selection.
//
// Example usage:
//
//	lr := linear.NewRegression()
//	err := lr.Fit(X, y) // X: features, y: target values
//	if err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := lr.Predict(XTest)
//
// The model follows the standard estimator interface with Fit/Predict methods
// and integrates with the model selection and evaluation tools.
package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
)

var _ model.Regressor = (*Regression)(nil)

// Regression is an ordinary least squares linear regression model.
type Regression struct {
	State     *model.StateManager // State manager (composition instead of embedding) - Public for gob encoding
	Weights   *mat.VecDense       // Model weights (coefficients)
	Intercept float64             // Model intercept
	NFeatures int                 // Number of features
	logger    log.Logger          // Logger instance
}

// NewRegression creates a new untrained linear regression model.
//
// The model solves the normal equations and supports both single and
// multiple linear regression. It must be trained with Fit before making
// predictions.
func NewRegression() *Regression {
	lr := &Regression{
		State: model.NewStateManager(),
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)

	return lr
}

// Fit trains the model on X (n_samples, n_features) and y (n_samples, 1) by
// solving the normal equations (X^T * X)w = X^T * y with an intercept column.
//
// Errors:
//   - ErrEmptyData: if X or y are empty
//   - DimensionError: if the number of samples in X and y don't match
//   - ErrSingularMatrix: if X^T * X is singular and cannot be inverted
func (lr *Regression) Fit(X, y mat.Matrix) (err error) {
	defer calfitErrors.Recover(&err, "Regression.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	if lr.logger != nil {
		lr.logger.Debug("Training started",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return calfitErrors.NewModelError("Regression.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	if ry != r {
		return calfitErrors.NewDimensionError("Regression.Fit", r, ry, 0)
	}

	if cy != 1 {
		return calfitErrors.NewValueError("Regression.Fit", "y must be a column vector")
	}

	lr.NFeatures = c

	// Add column of 1s to X for the intercept term: X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		XWithIntercept.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			XWithIntercept.Set(i, j+1, X.At(i, j))
		}
	}

	// Solve normal equations: (X^T * X)^(-1) * X^T * y
	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	var XTXInv mat.Dense
	err = XTXInv.Inverse(&XTX)
	if err != nil {
		return calfitErrors.NewModelError("Regression.Fit", "singular matrix", calfitErrors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	// Separate intercept and weights
	lr.Intercept = weights.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, weights.AtVec(i+1))
	}

	lr.State.SetFitted()
	lr.State.SetDimensions(lr.NFeatures, r)

	if lr.logger != nil {
		lr.logger.Debug("Training completed",
			log.OperationKey, log.OperationFit,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	return nil
}

// Predict computes y_pred = X * weights + intercept for X of shape
// (n_samples, n_features) and returns a (n_samples, 1) matrix.
func (lr *Regression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer calfitErrors.Recover(&err, "Regression.Predict")
	if !lr.State.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("Regression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, calfitErrors.NewDimensionError("Regression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}

	return predictions, nil
}

// GetWeights returns the learned weights (coefficients).
func (lr *Regression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}

	weights := make([]float64, lr.Weights.Len())
	for i := 0; i < lr.Weights.Len(); i++ {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the learned intercept.
func (lr *Regression) GetIntercept() float64 {
	if !lr.State.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// IsFitted returns whether the model has been fitted.
func (lr *Regression) IsFitted() bool {
	return lr.State.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (lr *Regression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_features": lr.NFeatures,
		"fitted":     lr.State.IsFitted(),
	}
}
