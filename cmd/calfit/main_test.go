package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/dataset"
)

func writeRawSessions(t *testing.T, path string, n int) {
	t.Helper()

	r := rand.New(rand.NewPCG(11, 11))
	genders := []string{"M", "F"}
	levels := []string{"Beginner", "Intermediate", "Expert"}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		age := 20 + r.IntN(40)
		weight := 50 + r.Float64()*50
		duration := 20 + r.Float64()*70
		calories := 3.5*duration + 1.2*weight + r.NormFloat64()*5

		rows[i] = []string{
			fmt.Sprintf("s%03d", i),
			fmt.Sprintf("%d", age),
			fmt.Sprintf("%.2f", weight),
			fmt.Sprintf("%.2f", duration),
			genders[i%2],
			levels[i%3],
			fmt.Sprintf("%.2f", calories),
		}
	}

	d, err := dataset.New(
		[]string{"session_id", "age", "weight_kg", "duration_min", "gender", "experience_level", "calories_burned"},
		rows,
	)
	require.NoError(t, err)
	require.NoError(t, d.Save(path))
}

// Each stage consumes the artifacts the previous stage wrote: preprocess
// emits the encoded dataset and the fitted encoder, select trains from those
// and persists the bundle, evaluate reloads the bundle.
func TestStages_ChainArtifacts(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw.csv")
	writeRawSessions(t, rawPath, 40)

	encodedPath := filepath.Join(dir, "preprocessed.csv")
	encoderPath := filepath.Join(dir, "encoder.gob")
	bundlePath := filepath.Join(dir, "model.gob")

	require.NoError(t, runPreprocess(rawPath, encodedPath, encoderPath))
	require.FileExists(t, encodedPath)
	require.FileExists(t, encoderPath)

	require.NoError(t, runSelect(encodedPath, encoderPath, bundlePath))
	require.FileExists(t, bundlePath)

	require.NoError(t, runEvaluate(rawPath, bundlePath))
}

func TestRunSelect_MissingEncoder(t *testing.T) {
	dir := t.TempDir()
	err := runSelect(filepath.Join(dir, "preprocessed.csv"), filepath.Join(dir, "encoder.gob"), filepath.Join(dir, "model.gob"))
	require.Error(t, err)
}
