// Package dataset provides the in-memory table the pipeline stages operate on:
// an ordered sequence of rows over a named, typed column schema, loaded from
// and persisted to delimiter-separated text files.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

// ColumnType classifies a column by its inferred content.
type ColumnType int

const (
	// Numeric columns contain only float-parseable (or missing) cells.
	Numeric ColumnType = iota
	// Categorical columns contain at least one non-numeric cell.
	Categorical
)

// String returns the column type name.
func (t ColumnType) String() string {
	if t == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Dataset is an immutable-by-convention table with a fixed schema. Loaders
// create it; transformations produce a new Dataset rather than mutating.
type Dataset struct {
	Names []string     // Column names, in file order
	Types []ColumnType // Inferred type per column
	Rows  [][]string   // Raw cells, row-major
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "nan":
		return true
	}
	return false
}

// New builds a Dataset from a header and rows, inferring column types.
// Every row must have exactly len(names) cells.
func New(names []string, rows [][]string) (*Dataset, error) {
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, calfitErrors.NewDimensionError("dataset.New", len(names), len(row), i)
		}
	}

	d := &Dataset{
		Names: names,
		Types: make([]ColumnType, len(names)),
		Rows:  rows,
	}
	for j := range names {
		d.Types[j] = inferColumnType(rows, j)
	}
	return d, nil
}

func inferColumnType(rows [][]string, col int) ColumnType {
	for _, row := range rows {
		cell := row[col]
		if IsMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return Categorical
		}
	}
	return Numeric
}

// NumRows returns the number of data rows.
func (d *Dataset) NumRows() int { return len(d.Rows) }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.Names) }

// ColumnIndex returns the index of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, n := range d.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Column returns the raw cells of the named column.
func (d *Dataset) Column(name string) ([]string, error) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, calfitErrors.NewValueError("Dataset.Column", "unknown column "+name)
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NumericColumn parses the named column as float64. Missing cells become NaN.
func (d *Dataset) NumericColumn(name string) ([]float64, error) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, calfitErrors.NewValueError("Dataset.NumericColumn", "unknown column "+name)
	}
	if d.Types[idx] != Numeric {
		return nil, calfitErrors.NewValueError("Dataset.NumericColumn", "column "+name+" is not numeric")
	}

	out := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		cell := row[idx]
		if IsMissing(cell) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, calfitErrors.NewValueError("Dataset.NumericColumn", "unparseable cell in column "+name)
		}
		out[i] = v
	}
	return out, nil
}

// HasMissing reports whether any cell in the dataset is missing.
func (d *Dataset) HasMissing() bool {
	for _, row := range d.Rows {
		for _, cell := range row {
			if IsMissing(cell) {
				return true
			}
		}
	}
	return false
}

// Matrix converts a fully numeric, missing-free dataset to a dense matrix.
func (d *Dataset) Matrix() (*mat.Dense, error) {
	if d.NumRows() == 0 {
		return nil, calfitErrors.NewModelError("Dataset.Matrix", "empty dataset", calfitErrors.ErrEmptyData)
	}
	for j, t := range d.Types {
		if t != Numeric {
			return nil, calfitErrors.NewValueError("Dataset.Matrix", "column "+d.Names[j]+" is not numeric")
		}
	}

	m := mat.NewDense(d.NumRows(), d.NumCols(), nil)
	for j, name := range d.Names {
		col, err := d.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if math.IsNaN(v) {
				return nil, calfitErrors.NewValueError("Dataset.Matrix", "missing value in column "+name)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// FeatureTarget splits a fully numeric dataset into a feature matrix and the
// named target column vector.
func (d *Dataset) FeatureTarget(target string) (*mat.Dense, *mat.VecDense, error) {
	tIdx := d.ColumnIndex(target)
	if tIdx < 0 {
		return nil, nil, calfitErrors.NewValueError("Dataset.FeatureTarget", "unknown target column "+target)
	}
	if d.NumCols() < 2 {
		return nil, nil, calfitErrors.NewValueError("Dataset.FeatureTarget", "no feature columns besides target "+target)
	}

	full, err := d.Matrix()
	if err != nil {
		return nil, nil, err
	}

	nRows := d.NumRows()
	nFeatures := d.NumCols() - 1
	X := mat.NewDense(nRows, nFeatures, nil)
	y := mat.NewVecDense(nRows, nil)

	for i := 0; i < nRows; i++ {
		fj := 0
		for j := 0; j < d.NumCols(); j++ {
			if j == tIdx {
				y.SetVec(i, full.At(i, j))
				continue
			}
			X.Set(i, fj, full.At(i, j))
			fj++
		}
	}
	return X, y, nil
}

// FeatureNames returns the column names excluding the given target.
func (d *Dataset) FeatureNames(target string) []string {
	out := make([]string, 0, len(d.Names))
	for _, n := range d.Names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// DropColumns returns a new Dataset without the named columns. Unknown names
// are ignored.
func (d *Dataset) DropColumns(names ...string) *Dataset {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	var keep []int
	for j, n := range d.Names {
		if !drop[n] {
			keep = append(keep, j)
		}
	}

	out := &Dataset{
		Names: make([]string, len(keep)),
		Types: make([]ColumnType, len(keep)),
		Rows:  make([][]string, len(d.Rows)),
	}
	for i, j := range keep {
		out.Names[i] = d.Names[j]
		out.Types[i] = d.Types[j]
	}
	for i, row := range d.Rows {
		newRow := make([]string, len(keep))
		for k, j := range keep {
			newRow[k] = row[j]
		}
		out.Rows[i] = newRow
	}
	return out
}

// FromMatrix builds a fully numeric Dataset from column names and a matrix.
func FromMatrix(names []string, m mat.Matrix) (*Dataset, error) {
	r, c := m.Dims()
	if c != len(names) {
		return nil, calfitErrors.NewDimensionError("dataset.FromMatrix", len(names), c, 1)
	}

	rows := make([][]string, r)
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		rows[i] = row
	}

	types := make([]ColumnType, c)
	for j := range types {
		types[j] = Numeric
	}
	return &Dataset{Names: names, Types: types, Rows: rows}, nil
}
