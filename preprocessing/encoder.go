// Package preprocessing turns the raw gym-session table into the fully
// numeric, missing-free table the estimators consume. It provides the
// categorical encoders and the Preprocessor that orchestrates column
// pruning, encoding and validation.
package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

// OneHotEncoder converts categorical string features into 0/1 indicator
// columns, one per category, with categories in sorted order.
//
// Unknown-category policy (fixed): a value not seen during Fit maps to the
// all-zero bucket. This is the "unknown bucket" fallback for nominal
// attributes; attributes with a natural order use OrdinalEncoder, which
// rejects unknown levels instead.
type OneHotEncoder struct {
	// Categories holds the sorted category list per input feature.
	// Public for gob encoding.
	Categories [][]string

	// CategoryToIdx maps category to index per input feature.
	// Public for gob encoding.
	CategoryToIdx []map[string]int

	// NFeatures is the number of input features. Public for gob encoding.
	NFeatures int

	// NOutputs is the total number of indicator columns. Public for gob encoding.
	NOutputs int

	// Fitted reports whether Fit has completed. Public for gob encoding.
	Fitted bool
}

// NewOneHotEncoder creates an unfitted OneHotEncoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// IsFitted reports whether the encoder has been fitted.
func (e *OneHotEncoder) IsFitted() bool { return e.Fitted }

// Fit learns the category set of each feature from the training data.
// data is (n_samples, n_features) of raw string values.
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer calfitErrors.Recover(&err, "OneHotEncoder.Fit")

	if len(data) == 0 || len(data[0]) == 0 {
		return calfitErrors.NewModelError("OneHotEncoder.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	nFeatures := len(data[0])
	for i, row := range data {
		if len(row) != nFeatures {
			return calfitErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)
	e.NOutputs = 0

	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]bool)
		for i := range data {
			seen[data[i][j]] = true
		}

		categories := make([]string, 0, len(seen))
		for c := range seen {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		e.Categories[j] = categories

		toIdx := make(map[string]int, len(categories))
		for idx, c := range categories {
			toIdx[c] = idx
		}
		e.CategoryToIdx[j] = toIdx
		e.NOutputs += len(categories)
	}

	e.Fitted = true
	return nil
}

// TransformRow encodes a single observation into its indicator vector.
// Unknown categories leave their block all zero.
func (e *OneHotEncoder) TransformRow(row []string) ([]float64, error) {
	if !e.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("OneHotEncoder", "TransformRow")
	}
	if len(row) != e.NFeatures {
		return nil, calfitErrors.NewDimensionError("OneHotEncoder.TransformRow", e.NFeatures, len(row), 1)
	}

	out := make([]float64, e.NOutputs)
	offset := 0
	for j, value := range row {
		if idx, ok := e.CategoryToIdx[j][value]; ok {
			out[offset+idx] = 1.0
		}
		offset += len(e.Categories[j])
	}
	return out, nil
}

// Transform encodes data using the fitted category sets.
func (e *OneHotEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer calfitErrors.Recover(&err, "OneHotEncoder.Transform")

	if !e.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(data) == 0 {
		return mat.NewDense(0, e.NOutputs, nil), nil
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i, row := range data {
		encoded, err := e.TransformRow(row)
		if err != nil {
			return nil, err
		}
		result.SetRow(i, encoded)
	}
	return result, nil
}

// FitTransform fits on data and encodes the same data.
func (e *OneHotEncoder) FitTransform(data [][]string) (*mat.Dense, error) {
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// FeatureNames returns the output column names, "<input>_<category>" per
// indicator column.
func (e *OneHotEncoder) FeatureNames(inputNames []string) []string {
	if !e.IsFitted() {
		return nil
	}

	var out []string
	for j, categories := range e.Categories {
		name := fmt.Sprintf("x%d", j)
		if inputNames != nil && j < len(inputNames) {
			name = inputNames[j]
		}
		for _, c := range categories {
			out = append(out, name+"_"+c)
		}
	}
	return out
}

// OrdinalEncoder maps the levels of a single ordered categorical column to
// their rank, following a declared natural order (for example
// Beginner < Intermediate < Expert).
//
// Unknown-level policy (fixed): a level outside the declared order has no
// meaningful rank, so Transform fails with EncodingError instead of guessing.
type OrdinalEncoder struct {
	// Column is the source column name, used in error messages.
	// Public for gob encoding.
	Column string

	// Levels is the declared order, lowest rank first. Public for gob encoding.
	Levels []string

	// LevelToRank maps level to rank. Public for gob encoding.
	LevelToRank map[string]int

	// Fitted reports whether Fit has completed. Public for gob encoding.
	Fitted bool
}

// NewOrdinalEncoder creates an encoder for one ordered column with the given
// level order.
func NewOrdinalEncoder(column string, levels []string) *OrdinalEncoder {
	toRank := make(map[string]int, len(levels))
	for i, l := range levels {
		toRank[l] = i
	}
	return &OrdinalEncoder{Column: column, Levels: levels, LevelToRank: toRank}
}

// IsFitted reports whether the encoder has been fitted.
func (e *OrdinalEncoder) IsFitted() bool { return e.Fitted }

// Fit validates that every observed value is a declared level.
func (e *OrdinalEncoder) Fit(values []string) (err error) {
	defer calfitErrors.Recover(&err, "OrdinalEncoder.Fit")

	if len(e.Levels) == 0 {
		return calfitErrors.NewValueError("OrdinalEncoder.Fit", "no levels declared for column "+e.Column)
	}
	if len(values) == 0 {
		return calfitErrors.NewModelError("OrdinalEncoder.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	for _, v := range values {
		if _, ok := e.LevelToRank[v]; !ok {
			return calfitErrors.NewEncodingError(e.Column, v)
		}
	}

	e.Fitted = true
	return nil
}

// TransformValue encodes a single value as its rank.
func (e *OrdinalEncoder) TransformValue(value string) (float64, error) {
	if !e.IsFitted() {
		return 0, calfitErrors.NewNotFittedError("OrdinalEncoder", "TransformValue")
	}
	rank, ok := e.LevelToRank[value]
	if !ok {
		return 0, calfitErrors.NewEncodingError(e.Column, value)
	}
	return float64(rank), nil
}

// Transform encodes a column of values as ranks.
func (e *OrdinalEncoder) Transform(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		rank, err := e.TransformValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = rank
	}
	return out, nil
}
