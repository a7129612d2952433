// Package metrics provides the regression evaluation metrics used to compare
// and report candidate models.
//
// Metrics:
//   - MSE: Mean Squared Error for measuring prediction accuracy
//   - RMSE: Root Mean Squared Error (square root of MSE)
//   - MAE: Mean Absolute Error for robust error measurement
//   - R²: R-squared coefficient of determination
//   - MAPE: Mean Absolute Percentage Error
//
// All metrics support vector inputs, with matrix helpers for the column
// vectors the estimators return from Predict.
//
// Example usage:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	r2, err := metrics.R2Score(yTrue, yPred)
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// MSE measures the average squared differences between predictions and actual
// values. Lower values indicate better model performance. MSE is sensitive to
// outliers due to the squared differences.
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, calfitErrors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, calfitErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix calculates MSE for column-vector matrix inputs (n×1). It converts
// the matrices to vectors and delegates to MSE.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, yPredVec, err := toVectors("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(yTrueVec, yPredVec)
}

// RMSE calculates the Root Mean Squared Error between true and predicted
// values. RMSE is the square root of MSE, in the same units as the target.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
// MAE is more robust to outliers than MSE as it doesn't square the
// differences.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, calfitErrors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, calfitErrors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination (R²) score.
//
// R² represents the proportion of variance in the target that is predictable
// from the features. 1 indicates perfect predictions, 0 predictions no better
// than the mean, and negative values worse than mean predictions.
//
// Errors:
//   - ValueError: if input vectors are empty or all yTrue values are
//     identical (no variance)
//   - DimensionError: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, calfitErrors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, calfitErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// R² = 1 - RSS/TSS
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)
		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, calfitErrors.NewValueError("R2Score", "target has zero variance")
	}

	return 1 - rss/tss, nil
}

// R2ScoreMatrix calculates R² for column-vector matrix inputs (n×1).
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, yPredVec, err := toVectors("R2ScoreMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(yTrueVec, yPredVec)
}

// MAPE calculates the Mean Absolute Percentage Error between true and
// predicted values, as a fraction (0.1 means 10%).
//
// Observations whose true value is zero have no defined percentage error and
// are skipped; the mean is taken over the remaining observations. If every
// true value is zero the metric is undefined and a ValueError is returned.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, calfitErrors.NewValueError("MAPE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, calfitErrors.NewDimensionError("MAPE", n, yPred.Len(), 0)
	}

	var sum float64
	var valid int
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal == 0 {
			continue
		}
		sum += math.Abs((yTrueVal - yPred.AtVec(i)) / yTrueVal)
		valid++
	}

	if valid == 0 {
		return 0, calfitErrors.NewValueError("MAPE", "all true values are zero, percentage error undefined")
	}

	return sum / float64(valid), nil
}

// MAPEMatrix calculates MAPE for column-vector matrix inputs (n×1).
func MAPEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, yPredVec, err := toVectors("MAPEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MAPE(yTrueVec, yPredVec)
}

func toVectors(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, calfitErrors.NewValueError(op, "empty matrix")
	}

	if rTrue != rPred || cTrue != cPred {
		return nil, nil, calfitErrors.NewDimensionError(op, rTrue, rPred, 0)
	}

	if cTrue != 1 {
		return nil, nil, calfitErrors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}
	return yTrueVec, yPredVec, nil
}
