package preprocessing

import (
	"encoding/gob"
	"os"
	"path/filepath"

	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
)

// Save gob-encodes the fitted preprocessor to path, so a later stage can
// reuse the exact encoding scheme instead of refitting one. The file is
// written to a temporary sibling and renamed into place, so a failed save
// never leaves a complete-looking artifact. Failures surface as PersistError.
func (p *Preprocessor) Save(path string) (err error) {
	defer calfitErrors.Recover(&err, "Preprocessor.Save")

	if !p.Fitted {
		return calfitErrors.NewNotFittedError("Preprocessor", "Save")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return calfitErrors.NewPersistError(path, err)
	}
	tmpName := tmp.Name()

	encodeErr := gob.NewEncoder(tmp).Encode(p)
	if closeErr := tmp.Close(); encodeErr == nil {
		encodeErr = closeErr
	}
	if encodeErr != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.NewPersistError(path, encodeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return calfitErrors.NewPersistError(path, err)
	}
	return nil
}

// LoadPreprocessor reads a preprocessor saved by Save.
func LoadPreprocessor(path string) (_ *Preprocessor, err error) {
	defer calfitErrors.Recover(&err, "LoadPreprocessor")

	file, err := os.Open(path)
	if err != nil {
		return nil, calfitErrors.NewPersistError(path, err)
	}
	defer func() { _ = file.Close() }()

	var p Preprocessor
	if err := gob.NewDecoder(file).Decode(&p); err != nil {
		return nil, calfitErrors.NewPersistError(path, err)
	}
	p.logger = log.GetLoggerWithName("preprocessing")
	return &p, nil
}
