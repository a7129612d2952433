// Package errors provides the error taxonomy and warning system for calfit.
//
// Every pipeline stage fails fast with one of the typed errors below; there is
// no retry or local recovery. Errors carry stack traces via cockroachdb/errors
// and marshal themselves as structured zerolog objects.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("calfit-warning: %v\n", w)
	}
)

// SetWarningHandler replaces the process-wide warning handler. Warnings are
// non-fatal conditions such as an optimizer hitting its iteration budget.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // suppress warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn emits a warning through the configured handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an iterative optimizer stops on its
// iteration budget instead of its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	Pipeline stage errors
//
// ===========================================================================

// LoadError indicates the raw dataset file is missing, empty, or malformed.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calfit: load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("calfit: load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *LoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "LoadError")
}

// NewLoadError creates a LoadError with a stack trace attached.
func NewLoadError(path, reason string, err error) error {
	return errors.WithStack(&LoadError{Path: path, Reason: reason, Err: err})
}

// PreprocessError indicates the raw dataset cannot be turned into a fully
// numeric, missing-free table (for example, residual missing values with no
// imputation policy defined).
type PreprocessError struct {
	Column string
	Reason string
}

func (e *PreprocessError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("calfit: preprocess: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("calfit: preprocess: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *PreprocessError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "PreprocessError")
}

// NewPreprocessError creates a PreprocessError with a stack trace attached.
func NewPreprocessError(column, reason string) error {
	return errors.WithStack(&PreprocessError{Column: column, Reason: reason})
}

// EncodingError indicates a categorical value cannot be encoded under the
// fitted scheme and the column defines no fallback bucket.
type EncodingError struct {
	Column string
	Value  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("calfit: encode: column %q: unseen category %q with no fallback", e.Column, e.Value)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *EncodingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("value", e.Value).
		Str("type", "EncodingError")
}

// NewEncodingError creates an EncodingError with a stack trace attached.
func NewEncodingError(column, value string) error {
	return errors.WithStack(&EncodingError{Column: column, Value: value})
}

// SelectionError indicates model selection could not produce a final model:
// the training subset is empty or every candidate family failed.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("calfit: select: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *SelectionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Str("type", "SelectionError")
}

// NewSelectionError creates a SelectionError with a stack trace attached.
func NewSelectionError(reason string) error {
	return errors.WithStack(&SelectionError{Reason: reason})
}

// InferenceError indicates a new raw observation could not be pushed through
// the fitted encoding scheme and model.
type InferenceError struct {
	Reason string
	Err    error
}

func (e *InferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calfit: infer: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("calfit: infer: %s", e.Reason)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *InferenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Str("type", "InferenceError")
}

// NewInferenceError creates an InferenceError with a stack trace attached.
func NewInferenceError(reason string, err error) error {
	return errors.WithStack(&InferenceError{Reason: reason, Err: err})
}

// PersistError indicates the model artifact could not be written or read back.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("calfit: persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *PersistError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("type", "PersistError")
}

// NewPersistError creates a PersistError with a stack trace attached.
func NewPersistError(path string, err error) error {
	return errors.WithStack(&PersistError{Path: path, Err: err})
}

// ===========================================================================
//
//	Estimator-level errors
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called on an
// estimator that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("calfit: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError is returned when input data has an unexpected shape.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("calfit: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError is returned when an argument value is invalid for an operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("calfit: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a general model-operation error wrapping a cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calfit: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("calfit: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an operation receives no data.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a matrix cannot be inverted.
	ErrSingularMatrix = New("singular matrix")
)
