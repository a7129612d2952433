package linear

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	"github.com/gymetrics/calfit/pkg/log"
)

// regressionState is the gob wire form of Regression. The weight vector is
// flattened to a plain slice; gonum matrices are not gob-encodable.
type regressionState struct {
	Weights   []float64
	Intercept float64
	NFeatures int
	NSamples  int
	Fitted    bool
}

// GobEncode implements gob.GobEncoder.
func (lr *Regression) GobEncode() ([]byte, error) {
	state := regressionState{
		Weights:   lr.GetWeights(),
		Intercept: lr.Intercept,
		NFeatures: lr.NFeatures,
		Fitted:    lr.State.IsFitted(),
	}
	_, state.NSamples = lr.State.GetDimensions()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (lr *Regression) GobDecode(data []byte) error {
	var state regressionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	lr.Intercept = state.Intercept
	lr.NFeatures = state.NFeatures
	if state.Weights != nil {
		lr.Weights = mat.NewVecDense(len(state.Weights), state.Weights)
	}

	lr.State = model.NewStateManager()
	lr.State.SetDimensions(state.NFeatures, state.NSamples)
	if state.Fitted {
		lr.State.SetFitted()
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)
	return nil
}
