// Package svm implements epsilon-insensitive support vector regression, the
// kernel candidate family in model selection.
package svm

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
	"github.com/gymetrics/calfit/preprocessing"
)

var _ model.Regressor = (*SVR)(nil)

// Kernel names accepted by WithKernel.
const (
	KernelLinear = "linear"
	KernelRBF    = "rbf"
)

// SVR is an epsilon-insensitive support vector regressor.
//
// The model is f(x) = Σ_i Alpha_i * K(x_i, x) + B over the training points,
// trained by full-batch subgradient descent on the epsilon-insensitive loss
// with an L2 penalty of strength 1/C. Full-batch updates make training
// deterministic: the same data and hyperparameters always give the same
// coefficients, with no random number source involved.
//
// Features are standardized internally; kernel methods are sensitive to
// feature scale.
type SVR struct {
	State *model.StateManager // State manager - Public for gob encoding

	// Hyperparameters. Public for gob encoding.
	Kernel  string  // Kernel name: "linear" or "rbf"
	C       float64 // Inverse regularization strength
	Epsilon float64 // Width of the insensitive tube
	Gamma   float64 // RBF kernel coefficient (0 = 1/n_features)
	MaxIter int     // Iteration budget
	Tol     float64 // Convergence tolerance on the epoch loss
	Eta0    float64 // Learning rate

	// Fitted state. Public for gob encoding.
	Alphas    []float64                     // Per-training-point coefficients
	B         float64                       // Bias term
	SupportX  *mat.Dense                    // Standardized training points
	Scaler    *preprocessing.StandardScaler // Internal feature scaler
	YMean     float64                       // Target mean, for internal target standardization
	YScale    float64                       // Target standard deviation
	NFeatures int                           // Number of features seen during Fit
	NIter     int                           // Iterations actually executed
	Converged bool                          // Whether training reached Tol

	logger log.Logger
}

// Option is a functional option for SVR.
type Option func(*SVR)

// NewSVR creates an SVR with the given options.
func NewSVR(opts ...Option) *SVR {
	s := &SVR{
		State:   model.NewStateManager(),
		Kernel:  KernelRBF,
		C:       1.0,
		Epsilon: 0.1,
		Gamma:   0, // 1/n_features
		MaxIter: 500,
		Tol:     1e-6,
		Eta0:    0.01,
		Scaler:  preprocessing.NewStandardScaler(),
	}

	s.logger = log.GetLoggerWithName("svm").With(
		log.ModelNameKey, "SVR",
		log.ComponentKey, "svm",
	)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithKernel sets the kernel function ("linear" or "rbf").
func WithKernel(kernel string) Option {
	return func(s *SVR) {
		s.Kernel = kernel
	}
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(s *SVR) {
		s.C = c
	}
}

// WithEpsilon sets the width of the insensitive tube.
func WithEpsilon(epsilon float64) Option {
	return func(s *SVR) {
		s.Epsilon = epsilon
	}
}

// WithGamma sets the RBF kernel coefficient (0 defaults to 1/n_features).
func WithGamma(gamma float64) Option {
	return func(s *SVR) {
		s.Gamma = gamma
	}
}

// WithMaxIter sets the iteration budget.
func WithMaxIter(maxIter int) Option {
	return func(s *SVR) {
		s.MaxIter = maxIter
	}
}

// WithTol sets the convergence tolerance on the epoch loss.
func WithTol(tol float64) Option {
	return func(s *SVR) {
		s.Tol = tol
	}
}

// Fit trains the model on X (n_samples, n_features) and y (n_samples, 1).
// If the iteration budget runs out before the loss change drops below Tol,
// a ConvergenceWarning is raised through the warning handler and the model
// is kept usable.
func (s *SVR) Fit(X, y mat.Matrix) (err error) {
	defer calfitErrors.Recover(&err, "SVR.Fit")

	startTime := time.Now()
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows == 0 || cols == 0 {
		return calfitErrors.NewModelError("SVR.Fit", "empty data", calfitErrors.ErrEmptyData)
	}

	if yRows != rows {
		return calfitErrors.NewDimensionError("SVR.Fit", rows, yRows, 0)
	}

	if yCols != 1 {
		return calfitErrors.NewValueError("SVR.Fit", "y must be a column vector")
	}

	if s.Kernel != KernelLinear && s.Kernel != KernelRBF {
		return calfitErrors.NewValueError("SVR.Fit", "unknown kernel "+s.Kernel)
	}

	if s.C <= 0 {
		return calfitErrors.NewValueError("SVR.Fit", "C must be positive")
	}

	s.NFeatures = cols

	scaled, err := s.Scaler.FitTransform(X)
	if err != nil {
		return err
	}
	s.SupportX = scaled

	// Standardize the target as well: the loss subgradient is bounded, so
	// training in raw target units would need a far larger iteration budget.
	targets := make([]float64, rows)
	var ySum float64
	for i := 0; i < rows; i++ {
		targets[i] = y.At(i, 0)
		ySum += targets[i]
	}
	s.YMean = ySum / float64(rows)

	var ySq float64
	for i := 0; i < rows; i++ {
		d := targets[i] - s.YMean
		ySq += d * d
	}
	s.YScale = math.Sqrt(ySq / float64(rows))
	if s.YScale == 0 {
		s.YScale = 1
	}
	for i := 0; i < rows; i++ {
		targets[i] = (targets[i] - s.YMean) / s.YScale
	}

	gamma := s.Gamma
	if gamma <= 0 {
		gamma = 1.0 / float64(cols)
	}

	// Precompute the training kernel matrix.
	K := mat.NewDense(rows, rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			v := s.kernelValue(scaled.RawRowView(i), scaled.RawRowView(j), gamma)
			K.Set(i, j, v)
			K.Set(j, i, v)
		}
	}

	s.Alphas = make([]float64, rows)
	s.B = 0

	lambda := 1.0 / s.C
	prevLoss := math.Inf(1)
	s.Converged = false
	s.NIter = 0

	f := make([]float64, rows)
	grad := make([]float64, rows)

	for iter := 0; iter < s.MaxIter; iter++ {
		// f_i = Σ_j alpha_j K_ij + b
		for i := 0; i < rows; i++ {
			var sum float64
			for j := 0; j < rows; j++ {
				sum += s.Alphas[j] * K.At(i, j)
			}
			f[i] = sum + s.B
		}

		// Subgradient of the epsilon-insensitive loss per sample.
		var epochLoss, gradSum float64
		for i := 0; i < rows; i++ {
			residual := f[i] - targets[i]
			excess := math.Abs(residual) - s.Epsilon
			if excess > 0 {
				epochLoss += excess
				grad[i] = sign(residual)
			} else {
				grad[i] = 0
			}
			gradSum += grad[i]
		}
		epochLoss /= float64(rows)

		for i := 0; i < rows; i++ {
			// Each alpha_i feels the loss subgradient through column i of K.
			var kGrad float64
			for j := 0; j < rows; j++ {
				kGrad += grad[j] * K.At(j, i)
			}
			kGrad /= float64(rows)
			s.Alphas[i] -= s.Eta0 * (kGrad + lambda*s.Alphas[i])
		}
		s.B -= s.Eta0 * gradSum / float64(rows)

		s.NIter++

		if math.Abs(prevLoss-epochLoss) < s.Tol {
			s.Converged = true
			break
		}
		prevLoss = epochLoss
	}

	if !s.Converged {
		calfitErrors.Warn(calfitErrors.NewConvergenceWarning("SVR", s.NIter, "iteration budget reached"))
	}

	s.State.SetFitted()
	s.State.SetDimensions(cols, rows)

	if s.logger != nil {
		s.logger.Debug("Training completed",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, rows,
			log.FeaturesKey, cols,
			"kernel", s.Kernel,
			"iterations", s.NIter,
			"converged", s.Converged,
			log.DurationMsKey, time.Since(startTime).Milliseconds(),
		)
	}

	return nil
}

// Predict computes f(x) for each row of X and returns a (n_samples, 1)
// matrix.
func (s *SVR) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer calfitErrors.Recover(&err, "SVR.Predict")

	if !s.State.IsFitted() {
		return nil, calfitErrors.NewNotFittedError("SVR", "Predict")
	}

	rows, cols := X.Dims()
	if cols != s.NFeatures {
		return nil, calfitErrors.NewDimensionError("SVR.Predict", s.NFeatures, cols, 1)
	}

	scaled, err := s.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}

	gamma := s.Gamma
	if gamma <= 0 {
		gamma = 1.0 / float64(s.NFeatures)
	}

	nSupport, _ := s.SupportX.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		xi := scaled.RawRowView(i)
		pred := s.B
		for j := 0; j < nSupport; j++ {
			pred += s.Alphas[j] * s.kernelValue(s.SupportX.RawRowView(j), xi, gamma)
		}
		predictions.Set(i, 0, pred*s.YScale+s.YMean)
	}

	return predictions, nil
}

func (s *SVR) kernelValue(a, b []float64, gamma float64) float64 {
	switch s.Kernel {
	case KernelLinear:
		var dot float64
		for k := range a {
			dot += a[k] * b[k]
		}
		return dot
	default: // rbf
		var sq float64
		for k := range a {
			d := a[k] - b[k]
			sq += d * d
		}
		return math.Exp(-gamma * sq)
	}
}

// IsFitted returns whether the model has been fitted.
func (s *SVR) IsFitted() bool {
	return s.State.IsFitted()
}

// GetParams returns the model hyperparameters.
func (s *SVR) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"kernel":   s.Kernel,
		"C":        s.C,
		"epsilon":  s.Epsilon,
		"gamma":    s.Gamma,
		"max_iter": s.MaxIter,
		"tol":      s.Tol,
	}
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
