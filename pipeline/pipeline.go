package pipeline

import (
	"time"

	"github.com/gymetrics/calfit/dataset"
	"github.com/gymetrics/calfit/metrics"
	"github.com/gymetrics/calfit/modelselection"
	"github.com/gymetrics/calfit/pkg/log"
	"github.com/gymetrics/calfit/preprocessing"
)

// Config fixes everything a run depends on. Two runs with equal configs and
// equal input data produce identical reports and bundles.
type Config struct {
	// Target is the target column name.
	Target string

	// DropColumns is the fixed identifier drop-list.
	DropColumns []string

	// OrdinalLevels declares natural-order levels per ordered categorical
	// column.
	OrdinalLevels map[string][]string

	// Preprocessor, when set, is a fitted encoding scheme reused as-is
	// instead of fitting a new one. The input dataset is then expected to
	// already be encoded under that scheme (Transform on encoded data is a
	// no-op), so a run can consume the preprocess stage's artifact directly.
	Preprocessor *preprocessing.Preprocessor

	// TestSize is the held-out fraction (default 0.2).
	TestSize float64

	// Folds is the cross-validation fold count (default 5).
	Folds int

	// Seed drives every random choice in the run (default 42).
	Seed int64

	// BundlePath, when set, is where the fitted bundle is persisted.
	BundlePath string

	// DemoObservation, when set, is one raw observation to predict for the
	// report.
	DemoObservation map[string]string
}

func (c *Config) applyDefaults() {
	if c.TestSize <= 0 {
		c.TestSize = 0.2
	}
	if c.Folds < 2 {
		c.Folds = 5
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Pipeline runs the full sequence on a raw dataset.
type Pipeline struct {
	cfg      Config
	families []modelselection.Family
	logger   log.Logger
}

// New creates a Pipeline with the default three-family tournament.
func New(cfg Config) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		cfg:      cfg,
		families: modelselection.DefaultFamilies(),
		logger:   log.GetLoggerWithName("pipeline"),
	}
}

// NewWithFamilies creates a Pipeline with a custom candidate list.
func NewWithFamilies(cfg Config, families []modelselection.Family) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		cfg:      cfg,
		families: families,
		logger:   log.GetLoggerWithName("pipeline"),
	}
}

// Run executes preprocess → split → select → evaluate → persist on the raw
// dataset and returns the evaluation report and the fitted bundle. The first
// stage error aborts the run.
func (p *Pipeline) Run(raw *dataset.Dataset) (*Report, *Bundle, error) {
	start := time.Now()

	// Preprocess.
	stageStart := time.Now()
	pre := p.cfg.Preprocessor
	var encoded *dataset.Dataset
	var err error
	if pre != nil {
		encoded, err = pre.Transform(raw)
	} else {
		pre = preprocessing.New(preprocessing.Config{
			Target:        p.cfg.Target,
			DropColumns:   p.cfg.DropColumns,
			OrdinalLevels: p.cfg.OrdinalLevels,
		})
		encoded, err = pre.FitTransform(raw)
	}
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("Stage completed",
		log.StageKey, log.StagePreprocess,
		log.SamplesKey, encoded.NumRows(),
		log.FeaturesKey, encoded.NumCols()-1,
		log.DurationMsKey, time.Since(stageStart).Milliseconds(),
	)

	// Split.
	stageStart = time.Now()
	X, y, err := encoded.FeatureTarget(p.cfg.Target)
	if err != nil {
		return nil, nil, err
	}
	XTrain, XTest, yTrain, yTest, err := modelselection.TrainTestSplit(X, y, p.cfg.TestSize, p.cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	p.logger.Info("Stage completed",
		log.StageKey, log.StageSplit,
		"train_samples", trainRows,
		"test_samples", testRows,
		log.SeedKey, p.cfg.Seed,
		log.DurationMsKey, time.Since(stageStart).Milliseconds(),
	)

	// Select.
	stageStart = time.Now()
	selector := modelselection.NewSelector(p.families, p.cfg.Folds, p.cfg.Seed)
	result, err := selector.Select(XTrain, yTrain)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("Stage completed",
		log.StageKey, log.StageSelect,
		log.ModelNameKey, result.FamilyName,
		log.CVScoreKey, result.CVScore,
		log.DurationMsKey, time.Since(stageStart).Milliseconds(),
	)

	// Evaluate.
	stageStart = time.Now()
	report := &Report{
		FamilyName: result.FamilyName,
		Params:     result.Params,
		CVScore:    result.CVScore,
	}

	trainPred, err := result.Model.Predict(XTrain)
	if err != nil {
		return nil, nil, err
	}
	testPred, err := result.Model.Predict(XTest)
	if err != nil {
		return nil, nil, err
	}

	if report.R2Train, err = metrics.R2ScoreMatrix(yTrain, trainPred); err != nil {
		return nil, nil, err
	}
	if report.R2Test, err = metrics.R2ScoreMatrix(yTest, testPred); err != nil {
		return nil, nil, err
	}
	if report.MSETest, err = metrics.MSEMatrix(yTest, testPred); err != nil {
		return nil, nil, err
	}
	if mape, err := metrics.MAPEMatrix(yTest, testPred); err == nil {
		report.MAPETest = mape
		report.MAPEValid = true
	}
	report.Overfit = report.R2Train-report.R2Test > OverfitGap

	p.logger.Info("Stage completed",
		log.StageKey, log.StageEvaluate,
		log.R2ScoreKey, report.R2Test,
		"r2_train", report.R2Train,
		"overfit", report.Overfit,
		log.DurationMsKey, time.Since(stageStart).Milliseconds(),
	)

	// Bundle and persist.
	stageStart = time.Now()
	bundle := &Bundle{
		Preprocessor: pre,
		Model:        result.Model,
		Metadata: BundleMetadata{
			FormatVersion: BundleFormatVersion,
			FamilyName:    result.FamilyName,
			Params:        result.Params,
			CVScore:       result.CVScore,
			FeatureNames:  pre.FeatureNames(),
			Target:        p.cfg.Target,
			CreatedAt:     time.Now().UTC(),
		},
	}

	if p.cfg.DemoObservation != nil {
		pred, err := bundle.PredictRaw(p.cfg.DemoObservation)
		if err != nil {
			return nil, nil, err
		}
		report.DemoPrediction = pred
		report.DemoPredictionValid = true
	}

	if p.cfg.BundlePath != "" {
		if err := bundle.Save(p.cfg.BundlePath); err != nil {
			return nil, nil, err
		}
		p.logger.Info("Stage completed",
			log.StageKey, log.StagePersist,
			"path", p.cfg.BundlePath,
			log.DurationMsKey, time.Since(stageStart).Milliseconds(),
		)
	}

	p.logger.Info("Run completed",
		log.ModelNameKey, result.FamilyName,
		log.R2ScoreKey, report.R2Test,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return report, bundle, nil
}
