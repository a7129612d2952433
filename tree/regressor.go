// Package tree implements CART-style decision tree regression, the
// non-linear candidate family in model selection.
package tree

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
)

var _ model.Regressor = (*Regressor)(nil)

// Node is a node in the regression tree.
type Node struct {
	IsLeaf    bool    // Whether this is a leaf node
	Feature   int     // Feature index for split (internal nodes)
	Threshold float64 // Threshold value for split (internal nodes)
	Left      *Node   // Left child (values <= threshold)
	Right     *Node   // Right child (values > threshold)
	Value     float64 // Predicted value (leaf nodes)
	Impurity  float64 // Node variance
	NSamples  int     // Number of samples at this node
	Depth     int     // Depth of this node in the tree
}

// Regressor is a decision tree regressor. Splits minimize the weighted
// variance of the children; leaves predict the mean target of their samples.
// Given identical data and hyperparameters the grown tree is identical:
// features are scanned in order and only a strictly better split replaces
// the current best.
type Regressor struct {
	State *model.StateManager // State manager - Public for gob encoding

	// Hyperparameters. Public for gob encoding.
	MaxDepth        int // Maximum depth of tree (0 = unlimited)
	MinSamplesSplit int // Minimum samples to split a node
	MinSamplesLeaf  int // Minimum samples in a leaf

	// Root of the grown tree. Public for gob encoding.
	Root *Node

	// NFeatures is the number of features seen during Fit.
	// Public for gob encoding.
	NFeatures int

	// FeatureImportances holds normalized impurity-decrease scores.
	// Public for gob encoding.
	FeatureImportances []float64

	logger log.Logger
}

// Option is a functional option for Regressor.
type Option func(*Regressor)

// NewRegressor creates a decision tree regressor with the given options.
func NewRegressor(opts ...Option) *Regressor {
	dt := &Regressor{
		State:           model.NewStateManager(),
		MaxDepth:        0, // Unlimited
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}

	dt.logger = log.GetLoggerWithName("tree").With(
		log.ModelNameKey, "DecisionTreeRegressor",
		log.ComponentKey, "tree",
	)

	for _, opt := range opts {
		opt(dt)
	}

	return dt
}

// WithMaxDepth sets the maximum tree depth (0 = unlimited).
func WithMaxDepth(depth int) Option {
	return func(dt *Regressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesSplit sets minimum samples to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *Regressor) {
		dt.MinSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets minimum samples in a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *Regressor) {
		dt.MinSamplesLeaf = n
	}
}

// Fit grows the tree on X (n_samples, n_features) and y (n_samples, 1).
func (dt *Regressor) Fit(X, y mat.Matrix) (err error) {
	defer calfitErrors.Recover(&err, "Regressor.Fit")

	startTime := time.Now()
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return calfitErrors.NewModelError("Regressor.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	if nSamples != yRows {
		return calfitErrors.NewDimensionError("Regressor.Fit", nSamples, yRows, 0)
	}

	if yCols != 1 {
		return calfitErrors.NewValueError("Regressor.Fit", "y must be a column vector")
	}

	dt.NFeatures = nFeatures
	dt.FeatureImportances = make([]float64, nFeatures)

	targets := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		targets[i] = y.At(i, 0)
	}

	dt.Root = dt.buildTree(X, targets, 0)
	dt.normalizeFeatureImportances()

	dt.State.SetFitted()
	dt.State.SetDimensions(nFeatures, nSamples)

	if dt.logger != nil {
		dt.logger.Debug("Training completed",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, nSamples,
			log.FeaturesKey, nFeatures,
			"depth", dt.GetDepth(),
			"leaves", dt.GetNLeaves(),
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
		)
	}

	return nil
}

// buildTree recursively grows the tree.
func (dt *Regressor) buildTree(X mat.Matrix, y []float64, depth int) *Node {
	nSamples := len(y)

	mean := meanOf(y)
	impurity := varianceOf(y, mean)

	node := &Node{
		Value:    mean,
		Impurity: impurity,
		NSamples: nSamples,
		Depth:    depth,
	}

	if dt.shouldStop(nSamples, impurity, depth) {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestImpurityDecrease := dt.findBestSplit(X, y, impurity)
	if bestFeature == -1 || bestImpurityDecrease <= 0 {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := dt.splitData(X, bestFeature, bestThreshold)
	if len(leftIndices) < dt.MinSamplesLeaf || len(rightIndices) < dt.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold

	dt.FeatureImportances[bestFeature] += bestImpurityDecrease * float64(nSamples)

	leftX, leftY := dt.getSubset(X, y, leftIndices)
	rightX, rightY := dt.getSubset(X, y, rightIndices)

	node.Left = dt.buildTree(leftX, leftY, depth+1)
	node.Right = dt.buildTree(rightX, rightY, depth+1)

	return node
}

// shouldStop checks the stopping criteria.
func (dt *Regressor) shouldStop(nSamples int, impurity float64, depth int) bool {
	if dt.MaxDepth > 0 && depth >= dt.MaxDepth {
		return true
	}

	if nSamples < dt.MinSamplesSplit {
		return true
	}

	// Pure node: all targets equal.
	if impurity == 0.0 {
		return true
	}

	return false
}

// findBestSplit scans every feature and candidate threshold for the split
// with the largest variance reduction.
func (dt *Regressor) findBestSplit(X mat.Matrix, y []float64, parentImpurity float64) (int, float64, float64) {
	nSamples, nFeatures := X.Dims()
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurityDecrease := 0.0

	for feature := 0; feature < nFeatures; feature++ {
		values := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			values[i] = X.At(i, feature)
		}

		sortedIndices := make([]int, nSamples)
		for i := range sortedIndices {
			sortedIndices[i] = i
		}
		sort.Slice(sortedIndices, func(i, j int) bool {
			return values[sortedIndices[i]] < values[sortedIndices[j]]
		})

		// Candidate thresholds are midpoints between consecutive distinct values.
		for i := 0; i < nSamples-1; i++ {
			idx1 := sortedIndices[i]
			idx2 := sortedIndices[i+1]

			if values[idx1] == values[idx2] {
				continue
			}

			threshold := (values[idx1] + values[idx2]) / 2.0

			var leftY, rightY []float64
			for j := 0; j < nSamples; j++ {
				if X.At(j, feature) <= threshold {
					leftY = append(leftY, y[j])
				} else {
					rightY = append(rightY, y[j])
				}
			}

			if len(leftY) < dt.MinSamplesLeaf || len(rightY) < dt.MinSamplesLeaf {
				continue
			}

			leftImpurity := varianceOf(leftY, meanOf(leftY))
			rightImpurity := varianceOf(rightY, meanOf(rightY))

			weightedImpurity := (float64(len(leftY))*leftImpurity + float64(len(rightY))*rightImpurity) / float64(nSamples)
			impurityDecrease := parentImpurity - weightedImpurity

			if impurityDecrease > bestImpurityDecrease {
				bestImpurityDecrease = impurityDecrease
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestImpurityDecrease
}

// splitData splits sample indices by feature and threshold.
func (dt *Regressor) splitData(X mat.Matrix, feature int, threshold float64) ([]int, []int) {
	nSamples, _ := X.Dims()
	var leftIndices, rightIndices []int

	for i := 0; i < nSamples; i++ {
		if X.At(i, feature) <= threshold {
			leftIndices = append(leftIndices, i)
		} else {
			rightIndices = append(rightIndices, i)
		}
	}

	return leftIndices, rightIndices
}

// getSubset extracts the rows of X and y at the given indices.
func (dt *Regressor) getSubset(X mat.Matrix, y []float64, indices []int) (mat.Matrix, []float64) {
	_, nFeatures := X.Dims()

	subX := mat.NewDense(len(indices), nFeatures, nil)
	subY := make([]float64, len(indices))
	for i, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			subX.Set(i, j, X.At(idx, j))
		}
		subY[i] = y[idx]
	}

	return subX, subY
}

func (dt *Regressor) normalizeFeatureImportances() {
	sum := 0.0
	for _, imp := range dt.FeatureImportances {
		sum += imp
	}

	if sum > 0 {
		for i := range dt.FeatureImportances {
			dt.FeatureImportances[i] /= sum
		}
	}
}

// Predict routes each row of X to its leaf and returns the leaf means as a
// (n_samples, 1) matrix.
func (dt *Regressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer calfitErrors.Recover(&err, "Regressor.Predict")

	if !dt.State.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("Regressor", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.NFeatures {
		return nil, calfitErrors.NewDimensionError("Regressor.Predict", dt.NFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		node := dt.Root
		for !node.IsLeaf {
			if X.At(i, node.Feature) <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		predictions.Set(i, 0, node.Value)
	}

	return predictions, nil
}

// IsFitted returns whether the model has been fitted.
func (dt *Regressor) IsFitted() bool {
	return dt.State.IsFitted()
}

// GetParams returns the model hyperparameters.
func (dt *Regressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         dt.MaxDepth,
		"min_samples_split": dt.MinSamplesSplit,
		"min_samples_leaf":  dt.MinSamplesLeaf,
	}
}

// GetFeatureImportances returns a copy of the feature importance scores.
func (dt *Regressor) GetFeatureImportances() []float64 {
	if dt.FeatureImportances == nil {
		return nil
	}

	importances := make([]float64, len(dt.FeatureImportances))
	copy(importances, dt.FeatureImportances)
	return importances
}

// GetDepth returns the depth of the grown tree.
func (dt *Regressor) GetDepth() int {
	if dt.Root == nil {
		return 0
	}
	return maxDepth(dt.Root)
}

func maxDepth(node *Node) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return node.Depth
	}

	leftDepth := maxDepth(node.Left)
	rightDepth := maxDepth(node.Right)

	if leftDepth > rightDepth {
		return leftDepth
	}
	return rightDepth
}

// GetNLeaves returns the number of leaf nodes.
func (dt *Regressor) GetNLeaves() int {
	return countLeaves(dt.Root)
}

func countLeaves(node *Node) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	return countLeaves(node.Left) + countLeaves(node.Right)
}

func meanOf(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func varianceOf(y []float64, mean float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sq float64
	for _, v := range y {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(y))
}
