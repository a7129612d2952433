// Standard attribute keys for pipeline logging. Using these constants keeps
// field names consistent across stages and estimators.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LinearRegression", "DecisionTreeRegressor", "SVR"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "preprocessing", "modelselection"
	ComponentKey = "ml.component"

	// StageKey names the pipeline stage.
	// Values: "load", "preprocess", "split", "select", "evaluate", "persist"
	StageKey = "pipeline.stage"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"
)

// Performance and metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// CVScoreKey records a mean cross-validated score.
	CVScoreKey = "metrics.cv_score"

	// SeedKey records the random seed for reproducibility.
	SeedKey = "config.random_seed"

	// PredsKey is the number of predictions made.
	PredsKey = "preds.count"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"

	StageLoad       = "load"
	StagePreprocess = "preprocess"
	StageSplit      = "split"
	StageSelect     = "select"
	StageEvaluate   = "evaluate"
	StagePersist    = "persist"
)
