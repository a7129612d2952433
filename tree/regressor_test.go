package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/tree"
)

func stepData() (*mat.Dense, *mat.Dense) {
	// Step function: y = 10 for x < 5, y = 20 for x >= 5.
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 6, 7, 8, 9})
	y := mat.NewDense(8, 1, []float64{10, 10, 10, 10, 20, 20, 20, 20})
	return X, y
}

func TestRegressor_LearnsStepFunction(t *testing.T) {
	X, y := stepData()

	dt := tree.NewRegressor()
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{0, 100}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, pred.At(0, 0))
	assert.Equal(t, 20.0, pred.At(1, 0))

	// Single split suffices for a pure step.
	assert.Equal(t, 2, dt.GetNLeaves())
	assert.Equal(t, 1, dt.GetDepth())
}

func TestRegressor_MaxDepthLimitsTree(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{1, 3, 2, 8, 5, 9, 4, 7})

	dt := tree.NewRegressor(tree.WithMaxDepth(2))
	require.NoError(t, dt.Fit(X, y))

	assert.LessOrEqual(t, dt.GetDepth(), 2)
	assert.LessOrEqual(t, dt.GetNLeaves(), 4)
}

func TestRegressor_MinSamplesLeaf(t *testing.T) {
	X, y := stepData()

	dt := tree.NewRegressor(tree.WithMinSamplesLeaf(5))
	require.NoError(t, dt.Fit(X, y))

	// No split can leave 5 samples on both sides of 8 rows.
	assert.Equal(t, 1, dt.GetNLeaves())

	pred, err := dt.Predict(mat.NewDense(1, 1, []float64{3}))
	require.NoError(t, err)
	assert.Equal(t, 15.0, pred.At(0, 0))
}

func TestRegressor_Deterministic(t *testing.T) {
	X := mat.NewDense(10, 2, []float64{
		1, 9, 2, 7, 3, 5, 4, 4, 5, 8,
		6, 1, 7, 3, 8, 6, 9, 2, 10, 5,
	})
	y := mat.NewDense(10, 1, []float64{3, 5, 4, 9, 2, 8, 1, 7, 6, 5})

	a := tree.NewRegressor(tree.WithMaxDepth(3))
	b := tree.NewRegressor(tree.WithMaxDepth(3))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	probe := mat.NewDense(3, 2, []float64{2.5, 6, 5.5, 3, 9, 9})
	pa, err := a.Predict(probe)
	require.NoError(t, err)
	pb, err := b.Predict(probe)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, pa.At(i, 0), pb.At(i, 0))
	}
}

func TestRegressor_PredictBeforeFit(t *testing.T) {
	dt := tree.NewRegressor()
	_, err := dt.Predict(mat.NewDense(1, 1, nil))

	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
}

func TestRegressor_FeatureImportances(t *testing.T) {
	// Only the first feature carries signal.
	X := mat.NewDense(8, 2, []float64{
		1, 5, 2, 5, 3, 5, 4, 5,
		6, 5, 7, 5, 8, 5, 9, 5,
	})
	y := mat.NewDense(8, 1, []float64{10, 10, 10, 10, 20, 20, 20, 20})

	dt := tree.NewRegressor()
	require.NoError(t, dt.Fit(X, y))

	imp := dt.GetFeatureImportances()
	assert.InDelta(t, 1.0, imp[0], 1e-12)
	assert.Equal(t, 0.0, imp[1])
}
