package preprocessing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/preprocessing"
)

func TestOneHotEncoder_SortedCategories(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	err := enc.Fit([][]string{
		{"Yoga", "M"},
		{"Cardio", "F"},
		{"HIIT", "M"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cardio", "HIIT", "Yoga"}, enc.Categories[0])
	assert.Equal(t, []string{"F", "M"}, enc.Categories[1])
	assert.Equal(t, 5, enc.NOutputs)
}

func TestOneHotEncoder_TransformRow(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	require.NoError(t, enc.Fit([][]string{{"Yoga"}, {"Cardio"}, {"HIIT"}}))

	row, err := enc.TransformRow([]string{"HIIT"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, row)
}

func TestOneHotEncoder_UnknownMapsToZeroBucket(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	require.NoError(t, enc.Fit([][]string{{"Yoga"}, {"Cardio"}}))

	row, err := enc.TransformRow([]string{"Strength"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, row)
}

func TestOneHotEncoder_FeatureNames(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	require.NoError(t, enc.Fit([][]string{{"Yoga", "M"}, {"Cardio", "F"}}))

	names := enc.FeatureNames([]string{"workout_type", "gender"})
	assert.Equal(t, []string{
		"workout_type_Cardio", "workout_type_Yoga",
		"gender_F", "gender_M",
	}, names)
}

func TestOneHotEncoder_NotFitted(t *testing.T) {
	enc := preprocessing.NewOneHotEncoder()
	_, err := enc.TransformRow([]string{"Yoga"})

	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
}

func TestOrdinalEncoder_RanksFollowDeclaredOrder(t *testing.T) {
	enc := preprocessing.NewOrdinalEncoder("experience_level",
		[]string{"Beginner", "Intermediate", "Expert"})
	require.NoError(t, enc.Fit([]string{"Expert", "Beginner", "Intermediate"}))

	out, err := enc.Transform([]string{"Beginner", "Intermediate", "Expert"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, out)
}

func TestOrdinalEncoder_UnknownLevelFails(t *testing.T) {
	enc := preprocessing.NewOrdinalEncoder("experience_level",
		[]string{"Beginner", "Intermediate", "Expert"})
	require.NoError(t, enc.Fit([]string{"Beginner"}))

	_, err := enc.TransformValue("Legendary")

	var ee *errors.EncodingError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "experience_level", ee.Column)
	assert.Equal(t, "Legendary", ee.Value)
}

func TestOrdinalEncoder_FitRejectsUndeclaredValue(t *testing.T) {
	enc := preprocessing.NewOrdinalEncoder("experience_level",
		[]string{"Beginner", "Intermediate", "Expert"})
	err := enc.Fit([]string{"Beginner", "Pro"})

	var ee *errors.EncodingError
	require.True(t, errors.As(err, &ee))
}
