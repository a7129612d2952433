package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/dataset"
	"github.com/gymetrics/calfit/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_TypeInference(t *testing.T) {
	path := writeFile(t, "age,gender,calories_burned\n25,M,350.5\n31,F,410\n")

	d, err := dataset.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "gender", "calories_burned"}, d.Names)
	assert.Equal(t, dataset.Numeric, d.Types[0])
	assert.Equal(t, dataset.Categorical, d.Types[1])
	assert.Equal(t, dataset.Numeric, d.Types[2])
	assert.Equal(t, 2, d.NumRows())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := dataset.Load(filepath.Join(t.TempDir(), "nope.csv"))

	var le *errors.LoadError
	require.True(t, errors.As(err, &le))
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "")
	_, err := dataset.Load(path)

	var le *errors.LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Reason, "empty")
}

func TestLoad_HeaderOnly(t *testing.T) {
	path := writeFile(t, "age,weight\n")
	_, err := dataset.Load(path)

	var le *errors.LoadError
	require.True(t, errors.As(err, &le))
}

func TestLoad_RaggedRows(t *testing.T) {
	path := writeFile(t, "age,weight\n25,70\n31\n")
	_, err := dataset.Load(path)

	var le *errors.LoadError
	require.True(t, errors.As(err, &le))
}

func TestNumericColumn_MissingBecomesNaN(t *testing.T) {
	d, err := dataset.New(
		[]string{"weight"},
		[][]string{{"70.5"}, {"NA"}, {"82"}},
	)
	require.NoError(t, err)

	col, err := d.NumericColumn("weight")
	require.NoError(t, err)
	assert.Equal(t, 70.5, col[0])
	assert.True(t, col[1] != col[1], "missing cell should parse to NaN")
	assert.Equal(t, 82.0, col[2])
	assert.True(t, d.HasMissing())
}

func TestMatrix_RejectsCategorical(t *testing.T) {
	d, err := dataset.New(
		[]string{"age", "gender"},
		[][]string{{"25", "M"}, {"31", "F"}},
	)
	require.NoError(t, err)

	_, err = d.Matrix()
	require.Error(t, err)
}

func TestFeatureTarget(t *testing.T) {
	d, err := dataset.New(
		[]string{"age", "duration_min", "calories_burned"},
		[][]string{{"25", "45", "350"}, {"31", "60", "480"}},
	)
	require.NoError(t, err)

	X, y, err := d.FeatureTarget("calories_burned")
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 45.0, X.At(0, 1))
	assert.Equal(t, 350.0, y.AtVec(0))
	assert.Equal(t, 480.0, y.AtVec(1))
	assert.Equal(t, []string{"age", "duration_min"}, d.FeatureNames("calories_burned"))
}

func TestFeatureTarget_NoFeatureColumns(t *testing.T) {
	d, err := dataset.New(
		[]string{"calories_burned"},
		[][]string{{"350"}, {"480"}},
	)
	require.NoError(t, err)

	_, _, err = d.FeatureTarget("calories_burned")

	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Message, "no feature columns")
}

func TestDropColumns(t *testing.T) {
	d, err := dataset.New(
		[]string{"session_id", "age", "calories_burned"},
		[][]string{{"s1", "25", "350"}, {"s2", "31", "480"}},
	)
	require.NoError(t, err)

	out := d.DropColumns("session_id", "not_there")
	assert.Equal(t, []string{"age", "calories_burned"}, out.Names)
	assert.Equal(t, "25", out.Rows[0][0])

	// original untouched
	assert.Equal(t, 3, d.NumCols())
}

func TestSaveRoundTrip(t *testing.T) {
	d, err := dataset.New(
		[]string{"age", "calories_burned"},
		[][]string{{"25", "350.5"}, {"31", "480"}},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, d.Save(path))

	back, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, d.Names, back.Names)
	assert.Equal(t, d.Rows, back.Rows)
}

func TestFromMatrix(t *testing.T) {
	d, err := dataset.New(
		[]string{"a", "b"},
		[][]string{{"1", "2"}, {"3", "4"}},
	)
	require.NoError(t, err)

	m, err := d.Matrix()
	require.NoError(t, err)

	back, err := dataset.FromMatrix([]string{"a", "b"}, m)
	require.NoError(t, err)
	assert.Equal(t, "3", back.Rows[1][0])
	assert.Equal(t, dataset.Numeric, back.Types[0])
}
