// Package modelselection provides deterministic train/test splitting, k-fold
// cross validation, and the grid-search tournament that picks the final
// model.
package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

// TrainTestSplit shuffles the samples with a seeded PCG source and splits
// them into disjoint, exhaustive train and test sets. testSize is the
// fraction of samples held out, rounded to at least one sample per side.
//
// The same seed and inputs always produce the same split.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	defer calfitErrors.Recover(&err, "TrainTestSplit")

	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()

	if nSamples == 0 {
		return nil, nil, nil, nil, calfitErrors.NewSelectionError("no samples to split")
	}
	if yRows != nSamples {
		return nil, nil, nil, nil, calfitErrors.NewDimensionError("TrainTestSplit", nSamples, yRows, 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, calfitErrors.NewSelectionError("test size must be in (0, 1)")
	}

	nTest := int(float64(nSamples) * testSize)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= nSamples {
		return nil, nil, nil, nil, calfitErrors.NewSelectionError("not enough samples for a non-empty training set")
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testIdx := indices[:nTest]
	trainIdx := indices[nTest:]

	XTrain = takeRows(X, trainIdx)
	XTest = takeRows(X, testIdx)
	yTrain = takeRows(y, trainIdx)
	yTest = takeRows(y, testIdx)
	return XTrain, XTest, yTrain, yTest, nil
}

// takeRows extracts the given rows of m into a new dense matrix.
func takeRows(m mat.Matrix, indices []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(idx, j))
		}
	}
	return out
}
