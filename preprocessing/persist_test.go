package preprocessing_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/preprocessing"
)

func TestPreprocessorSaveLoad_RoundTrip(t *testing.T) {
	p := preprocessing.New(sessionConfig())
	require.NoError(t, p.Fit(rawSessions(t)))

	path := filepath.Join(t.TempDir(), "encoder.gob")
	require.NoError(t, p.Save(path))

	loaded, err := preprocessing.LoadPreprocessor(path)
	require.NoError(t, err)

	assert.True(t, loaded.IsFitted())
	assert.Equal(t, p.FeatureNames(), loaded.FeatureNames())
	assert.Equal(t, p.Dropped, loaded.Dropped)

	// The restored scheme must encode observations identically.
	obs := map[string]string{
		"age":              "38",
		"gender":           "F",
		"experience_level": "Intermediate",
		"duration_min":     "50",
	}
	want, err := p.EncodeRow(obs)
	require.NoError(t, err)
	got, err := loaded.EncodeRow(obs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPreprocessorSave_RequiresFit(t *testing.T) {
	p := preprocessing.New(sessionConfig())
	err := p.Save(filepath.Join(t.TempDir(), "encoder.gob"))

	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
}

func TestLoadPreprocessor_MissingFile(t *testing.T) {
	_, err := preprocessing.LoadPreprocessor(filepath.Join(t.TempDir(), "nope.gob"))

	var pe *errors.PersistError
	require.True(t, errors.As(err, &pe))
}
