package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
)

// Load reads a delimiter-separated UTF-8 file with a header row into a
// Dataset with inferred column types. It fails with LoadError if the file is
// missing, empty, has no data rows, or contains ragged records.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, calfitErrors.NewLoadError(path, "cannot open file", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, calfitErrors.NewLoadError(path, "malformed records", err)
	}

	if len(records) == 0 {
		return nil, calfitErrors.NewLoadError(path, "file is empty", nil)
	}
	if len(records) < 2 {
		return nil, calfitErrors.NewLoadError(path, "no data rows after header", nil)
	}

	d, err := New(records[0], records[1:])
	if err != nil {
		return nil, calfitErrors.NewLoadError(path, "inconsistent row width", err)
	}
	return d, nil
}

// Save writes the dataset in the same format Load reads. The file is written
// to a temporary sibling and renamed into place, so a failed write never
// leaves a complete-looking artifact behind.
func (d *Dataset) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return calfitErrors.Wrap(err, "create temp artifact")
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	writeErr := writer.Write(d.Names)
	if writeErr == nil {
		writeErr = writer.WriteAll(d.Rows)
	}
	if writeErr == nil {
		writer.Flush()
		writeErr = writer.Error()
	}

	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.Wrap(writeErr, "write artifact")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.Wrap(err, "rename artifact into place")
	}
	return nil
}
