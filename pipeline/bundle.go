// Package pipeline orchestrates the calories regression run end to end:
// preprocess, split, select, evaluate, persist. Stages run strictly in
// sequence and fail fast on the first typed error.
package pipeline

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	"github.com/gymetrics/calfit/linear"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/preprocessing"
	"github.com/gymetrics/calfit/svm"
	"github.com/gymetrics/calfit/tree"
)

// BundleFormatVersion is bumped when the serialized layout changes.
const BundleFormatVersion = 1

func init() {
	// Concrete estimator types carried behind the Regressor interface.
	gob.Register(&linear.Regression{})
	gob.Register(&tree.Regressor{})
	gob.Register(&svm.SVR{})
}

// BundleMetadata describes the run that produced a bundle.
type BundleMetadata struct {
	FormatVersion int
	FamilyName    string
	Params        map[string]interface{}
	CVScore       float64
	FeatureNames  []string
	Target        string
	CreatedAt     time.Time
}

// Bundle is the persisted artifact: the final model together with the fitted
// encoding scheme that produced its training matrix. Loading a bundle
// restores everything needed to reproduce predictions on raw observations.
type Bundle struct {
	Preprocessor *preprocessing.Preprocessor
	Model        model.Regressor
	Metadata     BundleMetadata
}

// Save gob-encodes the bundle to path. The file is written to a temporary
// sibling and renamed into place, so a failed save never leaves a
// complete-looking artifact. Failures surface as PersistError.
func (b *Bundle) Save(path string) (err error) {
	defer calfitErrors.Recover(&err, "Bundle.Save")

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return calfitErrors.NewPersistError(path, err)
	}
	tmpName := tmp.Name()

	encodeErr := gob.NewEncoder(tmp).Encode(b)
	if closeErr := tmp.Close(); encodeErr == nil {
		encodeErr = closeErr
	}
	if encodeErr != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.NewPersistError(path, encodeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.NewPersistError(path, err)
	}
	return nil
}

// LoadBundle reads a bundle saved by Save.
func LoadBundle(path string) (_ *Bundle, err error) {
	defer calfitErrors.Recover(&err, "LoadBundle")

	file, err := os.Open(path)
	if err != nil {
		return nil, calfitErrors.NewPersistError(path, err)
	}
	defer func() { _ = file.Close() }()

	var b Bundle
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, calfitErrors.NewPersistError(path, err)
	}
	return &b, nil
}

// PredictRaw pushes one raw observation through the fitted encoding scheme
// and the final model. Observations that cannot be encoded consistently
// (missing attributes, unknown ordinal levels, non-numeric values) surface
// as InferenceError.
func (b *Bundle) PredictRaw(obs map[string]string) (float64, error) {
	if b.Preprocessor == nil || b.Model == nil {
		return 0, calfitErrors.NewInferenceError("bundle is incomplete", nil)
	}

	features, err := b.Preprocessor.EncodeRow(obs)
	if err != nil {
		return 0, calfitErrors.NewInferenceError("cannot encode observation", err)
	}

	X := mat.NewDense(1, len(features), features)
	pred, err := b.Model.Predict(X)
	if err != nil {
		return 0, calfitErrors.NewInferenceError("prediction failed", err)
	}
	return pred.At(0, 0), nil
}
