package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/pkg/errors"
)

func TestStageErrors_AsTargets(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target interface{}
	}{
		{"load", errors.NewLoadError("data/raw.csv", "file missing", nil), new(*errors.LoadError)},
		{"preprocess", errors.NewPreprocessError("weight_kg", "missing values remain"), new(*errors.PreprocessError)},
		{"encoding", errors.NewEncodingError("experience_level", "Pro"), new(*errors.EncodingError)},
		{"selection", errors.NewSelectionError("training subset is empty"), new(*errors.SelectionError)},
		{"inference", errors.NewInferenceError("row has 3 values, schema has 5", nil), new(*errors.InferenceError)},
		{"persist", errors.NewPersistError("model.gob", errors.New("disk full")), new(*errors.PersistError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, errors.As(tt.err, tt.target), "expected %T in chain", tt.target)
		})
	}
}

func TestLoadError_Message(t *testing.T) {
	err := errors.NewLoadError("gym.csv", "header row missing", nil)
	assert.Contains(t, err.Error(), "gym.csv")
	assert.Contains(t, err.Error(), "header row missing")
}

func TestEncodingError_Message(t *testing.T) {
	err := errors.NewEncodingError("workout_type", "Zumba")
	assert.Contains(t, err.Error(), "workout_type")
	assert.Contains(t, err.Error(), "Zumba")
}

func TestNotFittedError(t *testing.T) {
	err := errors.NewNotFittedError("SVR", "Predict")

	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "SVR", nf.ModelName)
	assert.Equal(t, "Predict", nf.Method)
}

func TestRecover_ConvertsPanic(t *testing.T) {
	fn := func() (err error) {
		defer errors.Recover(&err, "test.fn")
		panic("boom")
	}

	err := fn()
	require.Error(t, err)

	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "test.fn", pe.Operation)
	assert.NotEmpty(t, pe.StackTrace)
}

func TestWarn_CustomHandler(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(nil)

	w := errors.NewConvergenceWarning("SVR", 500, "")
	errors.Warn(w)

	require.Error(t, captured)
	assert.Contains(t, captured.Error(), "SVR")
}
