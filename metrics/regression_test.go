package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/metrics"
)

func vec(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestMSE(t *testing.T) {
	mse, err := metrics.MSE(vec(3, -0.5, 2, 7), vec(2.5, 0, 2, 8))
	require.NoError(t, err)
	assert.InDelta(t, 0.375, mse, 1e-12)
}

func TestMSE_PerfectPrediction(t *testing.T) {
	mse, err := metrics.MSE(vec(1, 2, 3), vec(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, mse)
}

func TestMSE_LengthMismatch(t *testing.T) {
	_, err := metrics.MSE(vec(1, 2), vec(1, 2, 3))
	require.Error(t, err)
}

func TestRMSE(t *testing.T) {
	rmse, err := metrics.RMSE(vec(0, 0, 0, 0), vec(2, 2, 2, 2))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rmse, 1e-12)
}

func TestMAE(t *testing.T) {
	mae, err := metrics.MAE(vec(3, -0.5, 2, 7), vec(2.5, 0, 2, 8))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mae, 1e-12)
}

func TestR2Score(t *testing.T) {
	r2, err := metrics.R2Score(vec(3, -0.5, 2, 7), vec(2.5, 0, 2, 8))
	require.NoError(t, err)
	assert.InDelta(t, 0.9486, r2, 1e-4)
}

func TestR2Score_MeanPredictionIsZero(t *testing.T) {
	r2, err := metrics.R2Score(vec(1, 2, 3), vec(2, 2, 2))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r2, 1e-12)
}

func TestR2Score_ZeroVariance(t *testing.T) {
	_, err := metrics.R2Score(vec(5, 5, 5), vec(4, 5, 6))
	require.Error(t, err)
}

func TestMAPE(t *testing.T) {
	mape, err := metrics.MAPE(vec(100, 200), vec(110, 180))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, mape, 1e-12)
}

func TestMAPE_SkipsZeroActuals(t *testing.T) {
	mape, err := metrics.MAPE(vec(0, 100), vec(50, 110))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, mape, 1e-12)
}

func TestMAPE_AllZeroActuals(t *testing.T) {
	_, err := metrics.MAPE(vec(0, 0), vec(1, 2))
	require.Error(t, err)
}

func TestMatrixHelpers(t *testing.T) {
	yTrue := mat.NewDense(3, 1, []float64{1, 2, 3})
	yPred := mat.NewDense(3, 1, []float64{1, 2, 4})

	mse, err := metrics.MSEMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, mse, 1e-12)

	r2, err := metrics.R2ScoreMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r2, 1e-12)

	_, err = metrics.MSEMatrix(mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil))
	require.Error(t, err)
}
