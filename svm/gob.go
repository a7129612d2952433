package svm

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	"github.com/gymetrics/calfit/pkg/log"
	"github.com/gymetrics/calfit/preprocessing"
)

// svrState is the gob wire form of SVR. The support matrix is flattened to a
// plain slice; gonum matrices are not gob-encodable.
type svrState struct {
	Kernel  string
	C       float64
	Epsilon float64
	Gamma   float64
	MaxIter int
	Tol     float64
	Eta0    float64

	Alphas      []float64
	B           float64
	SupportRows int
	SupportCols int
	SupportData []float64
	Scaler      *preprocessing.StandardScaler
	YMean       float64
	YScale      float64
	NFeatures   int
	NIter       int
	Converged   bool
	Fitted      bool
}

// GobEncode implements gob.GobEncoder.
func (s *SVR) GobEncode() ([]byte, error) {
	state := svrState{
		Kernel:    s.Kernel,
		C:         s.C,
		Epsilon:   s.Epsilon,
		Gamma:     s.Gamma,
		MaxIter:   s.MaxIter,
		Tol:       s.Tol,
		Eta0:      s.Eta0,
		Alphas:    s.Alphas,
		B:         s.B,
		Scaler:    s.Scaler,
		YMean:     s.YMean,
		YScale:    s.YScale,
		NFeatures: s.NFeatures,
		NIter:     s.NIter,
		Converged: s.Converged,
		Fitted:    s.State.IsFitted(),
	}

	if s.SupportX != nil {
		r, c := s.SupportX.Dims()
		state.SupportRows = r
		state.SupportCols = c
		state.SupportData = make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			state.SupportData = append(state.SupportData, s.SupportX.RawRowView(i)...)
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *SVR) GobDecode(data []byte) error {
	var state svrState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	s.Kernel = state.Kernel
	s.C = state.C
	s.Epsilon = state.Epsilon
	s.Gamma = state.Gamma
	s.MaxIter = state.MaxIter
	s.Tol = state.Tol
	s.Eta0 = state.Eta0
	s.Alphas = state.Alphas
	s.B = state.B
	s.Scaler = state.Scaler
	s.YMean = state.YMean
	s.YScale = state.YScale
	s.NFeatures = state.NFeatures
	s.NIter = state.NIter
	s.Converged = state.Converged

	if state.SupportRows > 0 {
		s.SupportX = mat.NewDense(state.SupportRows, state.SupportCols, state.SupportData)
	}
	if s.Scaler == nil {
		s.Scaler = preprocessing.NewStandardScaler()
	}

	s.State = model.NewStateManager()
	s.State.SetDimensions(state.NFeatures, state.SupportRows)
	if state.Fitted {
		s.State.SetFitted()
	}

	s.logger = log.GetLoggerWithName("svm").With(
		log.ModelNameKey, "SVR",
		log.ComponentKey, "svm",
	)
	return nil
}
