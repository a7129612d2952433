package pipeline_test

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/dataset"
	"github.com/gymetrics/calfit/pipeline"
	"github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/preprocessing"
)

// syntheticSessions builds a deterministic gym-session table with numeric,
// nominal and ordinal attributes and a target driven by duration and weight.
func syntheticSessions(t *testing.T, n int) *dataset.Dataset {
	t.Helper()

	r := rand.New(rand.NewPCG(7, 7))
	genders := []string{"M", "F"}
	levels := []string{"Beginner", "Intermediate", "Expert"}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		age := 20 + r.IntN(40)
		weight := 50 + r.Float64()*50
		duration := 20 + r.Float64()*70
		gender := genders[i%2]
		level := levels[i%3]
		calories := 3.5*duration + 1.2*weight + float64(10*(i%3)) + r.NormFloat64()*5

		rows[i] = []string{
			fmt.Sprintf("s%03d", i),
			fmt.Sprintf("%d", age),
			fmt.Sprintf("%.2f", weight),
			fmt.Sprintf("%.2f", duration),
			gender,
			level,
			fmt.Sprintf("%.2f", calories),
		}
	}

	d, err := dataset.New(
		[]string{"session_id", "age", "weight_kg", "duration_min", "gender", "experience_level", "calories_burned"},
		rows,
	)
	require.NoError(t, err)
	return d
}

func sessionConfig() pipeline.Config {
	return pipeline.Config{
		Target:      "calories_burned",
		DropColumns: []string{"session_id", "user_id", "id"},
		OrdinalLevels: map[string][]string{
			"experience_level": {"Beginner", "Intermediate", "Expert"},
		},
		Seed: 42,
		DemoObservation: map[string]string{
			"age":              "35",
			"weight_kg":        "72.5",
			"duration_min":     "55",
			"gender":           "F",
			"experience_level": "Intermediate",
		},
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	raw := syntheticSessions(t, 40)

	report, bundle, err := pipeline.New(sessionConfig()).Run(raw)
	require.NoError(t, err)

	assert.NotEmpty(t, report.FamilyName)
	assert.Greater(t, report.R2Test, 0.8, "target is close to linear in the features")
	assert.True(t, report.DemoPredictionValid)
	assert.Greater(t, report.DemoPrediction, 0.0)

	require.NotNil(t, bundle)
	assert.Equal(t, report.FamilyName, bundle.Metadata.FamilyName)
	assert.Equal(t, "calories_burned", bundle.Metadata.Target)
	assert.NotEmpty(t, bundle.Metadata.FeatureNames)
}

func TestPipeline_Reproducible(t *testing.T) {
	raw := syntheticSessions(t, 40)
	cfg := sessionConfig()

	r1, _, err := pipeline.New(cfg).Run(raw)
	require.NoError(t, err)
	r2, _, err := pipeline.New(cfg).Run(raw)
	require.NoError(t, err)

	assert.Equal(t, r1.FamilyName, r2.FamilyName)
	assert.Equal(t, r1.Params, r2.Params)
	assert.Equal(t, r1.CVScore, r2.CVScore)
	assert.Equal(t, r1.R2Train, r2.R2Train)
	assert.Equal(t, r1.R2Test, r2.R2Test)
	assert.Equal(t, r1.MSETest, r2.MSETest)
	assert.Equal(t, r1.DemoPrediction, r2.DemoPrediction)
}

func TestPipeline_MissingValuesAbort(t *testing.T) {
	d, err := dataset.New(
		[]string{"age", "calories_burned"},
		[][]string{{"25", "350"}, {"NA", "410"}},
	)
	require.NoError(t, err)

	_, _, err = pipeline.New(pipeline.Config{Target: "calories_burned"}).Run(d)

	var pe *errors.PreprocessError
	require.True(t, errors.As(err, &pe))
}

func TestPipeline_OnlyIdentifierAndTargetAborts(t *testing.T) {
	d, err := dataset.New(
		[]string{"session_id", "calories_burned"},
		[][]string{{"s1", "350"}, {"s2", "480"}, {"s3", "520"}},
	)
	require.NoError(t, err)

	_, _, err = pipeline.New(sessionConfig()).Run(d)

	var pe *errors.PreprocessError
	require.True(t, errors.As(err, &pe))
}

func TestPipeline_ReusesFittedPreprocessor(t *testing.T) {
	raw := syntheticSessions(t, 40)
	cfg := sessionConfig()

	base, _, err := pipeline.New(cfg).Run(raw)
	require.NoError(t, err)

	pre := preprocessing.New(preprocessing.Config{
		Target:        cfg.Target,
		DropColumns:   cfg.DropColumns,
		OrdinalLevels: cfg.OrdinalLevels,
	})
	encoded, err := pre.FitTransform(raw)
	require.NoError(t, err)

	// A run fed the encoded artifact and the fitted scheme must agree with
	// the run that fitted from raw data.
	chained := cfg
	chained.Preprocessor = pre
	got, _, err := pipeline.New(chained).Run(encoded)
	require.NoError(t, err)

	assert.Equal(t, base.FamilyName, got.FamilyName)
	assert.Equal(t, base.CVScore, got.CVScore)
	assert.Equal(t, base.R2Test, got.R2Test)
	assert.Equal(t, base.DemoPrediction, got.DemoPrediction)
}

func TestPipeline_PersistsBundle(t *testing.T) {
	raw := syntheticSessions(t, 40)
	cfg := sessionConfig()
	cfg.BundlePath = filepath.Join(t.TempDir(), "model.gob")

	report, original, err := pipeline.New(cfg).Run(raw)
	require.NoError(t, err)

	loaded, err := pipeline.LoadBundle(cfg.BundlePath)
	require.NoError(t, err)

	assert.Equal(t, original.Metadata.FamilyName, loaded.Metadata.FamilyName)
	assert.Equal(t, pipeline.BundleFormatVersion, loaded.Metadata.FormatVersion)

	// The restored bundle must reproduce predictions exactly.
	pred, err := loaded.PredictRaw(cfg.DemoObservation)
	require.NoError(t, err)
	assert.Equal(t, report.DemoPrediction, pred)
}

func TestReport_String(t *testing.T) {
	r := &pipeline.Report{
		FamilyName: "linear",
		CVScore:    0.95,
		R2Train:    0.99,
		R2Test:     0.70,
		MSETest:    12.5,
		MAPETest:   0.08,
		MAPEValid:  true,
		Overfit:    true,
	}

	out := r.String()
	assert.Contains(t, out, "linear")
	assert.Contains(t, out, "overfitting")
	assert.Contains(t, out, "8.00%")
}
