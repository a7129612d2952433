package preprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gymetrics/calfit/dataset"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
)

// DefaultCorrThreshold is the fixed redundancy criterion: the later column of
// a numeric pair with |Pearson r| at or above this value is dropped.
const DefaultCorrThreshold = 0.97

// Config fixes the preprocessing rules for a run. The rules are declared up
// front, not inferred, so the encoding scheme is reproducible.
type Config struct {
	// Target is the target column name, kept numeric and placed last in the
	// preprocessed schema.
	Target string

	// DropColumns is the fixed identifier drop-list (columns with no
	// predictive value, such as session or user ids).
	DropColumns []string

	// OrdinalLevels declares the natural order of each ordered categorical
	// column, lowest first. Categorical columns not listed here are
	// one-hot encoded.
	OrdinalLevels map[string][]string

	// CorrThreshold overrides DefaultCorrThreshold when > 0.
	CorrThreshold float64
}

// Preprocessor transforms a raw Dataset into the preprocessed generation:
// redundant columns removed, every categorical column encoded, no missing
// values. The fitted scheme is reused verbatim for single-observation
// inference, and travels with the final model in the persisted bundle.
type Preprocessor struct {
	// Cfg is the declared configuration. Public for gob encoding.
	Cfg Config

	// Dropped lists the columns removed at fit time (identifier list plus
	// correlation-redundant columns). Public for gob encoding.
	Dropped []string

	// NumericCols, OrdinalCols and NominalCols partition the kept feature
	// columns, in raw schema order. Public for gob encoding.
	NumericCols []string
	OrdinalCols []string
	NominalCols []string

	// OneHot encodes all nominal columns jointly. Public for gob encoding.
	OneHot *OneHotEncoder

	// Ordinals holds the per-column ordinal encoders. Public for gob encoding.
	Ordinals map[string]*OrdinalEncoder

	// InputOrder is the kept feature columns in raw schema order.
	// Public for gob encoding.
	InputOrder []string

	// OutputNames is the encoded schema, target last. Public for gob encoding.
	OutputNames []string

	// Fitted reports whether Fit has completed. Public for gob encoding.
	Fitted bool

	logger log.Logger
}

// New creates a Preprocessor with the given fixed rules.
func New(cfg Config) *Preprocessor {
	if cfg.CorrThreshold <= 0 {
		cfg.CorrThreshold = DefaultCorrThreshold
	}
	return &Preprocessor{
		Cfg:    cfg,
		logger: log.GetLoggerWithName("preprocessing"),
	}
}

// IsFitted reports whether the preprocessor has been fitted.
func (p *Preprocessor) IsFitted() bool { return p.Fitted }

// Fit learns the encoding scheme from the raw dataset: which columns to
// drop, the category sets of nominal columns, and validates the declared
// ordinal levels against the observed data.
func (p *Preprocessor) Fit(d *dataset.Dataset) (err error) {
	defer calfitErrors.Recover(&err, "Preprocessor.Fit")

	start := time.Now()

	if d.NumRows() == 0 {
		return calfitErrors.NewPreprocessError("", "raw dataset has no rows")
	}

	tIdx := d.ColumnIndex(p.Cfg.Target)
	if tIdx < 0 {
		return calfitErrors.NewPreprocessError(p.Cfg.Target, "target column not found")
	}
	if d.Types[tIdx] != dataset.Numeric {
		return calfitErrors.NewPreprocessError(p.Cfg.Target, "target column is not numeric")
	}

	work := d.DropColumns(p.Cfg.DropColumns...)
	p.Dropped = presentColumns(d, p.Cfg.DropColumns)

	// No imputation policy is defined, so missing values in any kept column
	// are fatal.
	if col := firstMissingColumn(work); col != "" {
		return calfitErrors.NewPreprocessError(col, "missing values remain and no imputation policy is defined")
	}

	redundant, err := p.correlatedColumns(work)
	if err != nil {
		return err
	}
	work = work.DropColumns(redundant...)
	p.Dropped = append(p.Dropped, redundant...)

	p.NumericCols = nil
	p.OrdinalCols = nil
	p.NominalCols = nil
	p.InputOrder = nil
	p.Ordinals = make(map[string]*OrdinalEncoder)

	for j, name := range work.Names {
		if name == p.Cfg.Target {
			continue
		}
		p.InputOrder = append(p.InputOrder, name)

		switch {
		case work.Types[j] == dataset.Numeric:
			p.NumericCols = append(p.NumericCols, name)
		case p.Cfg.OrdinalLevels[name] != nil:
			p.OrdinalCols = append(p.OrdinalCols, name)
			enc := NewOrdinalEncoder(name, p.Cfg.OrdinalLevels[name])
			values, err := work.Column(name)
			if err != nil {
				return err
			}
			if err := enc.Fit(values); err != nil {
				return err
			}
			p.Ordinals[name] = enc
		default:
			p.NominalCols = append(p.NominalCols, name)
		}
	}

	if len(p.InputOrder) == 0 {
		return calfitErrors.NewPreprocessError("", "no feature columns remain after dropping identifiers and redundant columns")
	}

	if len(p.NominalCols) > 0 {
		nominalData := make([][]string, work.NumRows())
		for i := range nominalData {
			row := make([]string, len(p.NominalCols))
			for k, name := range p.NominalCols {
				row[k] = work.Rows[i][work.ColumnIndex(name)]
			}
			nominalData[i] = row
		}
		p.OneHot = NewOneHotEncoder()
		if err := p.OneHot.Fit(nominalData); err != nil {
			return err
		}
	}

	p.OutputNames = p.buildOutputNames()
	p.Fitted = true

	p.logger.Info("Preprocessor fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, d.NumRows(),
		log.FeaturesKey, len(p.InputOrder),
		"dropped_columns", len(p.Dropped),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// buildOutputNames expands the kept feature columns into the encoded schema,
// nominal columns replaced by their indicator columns, target last.
func (p *Preprocessor) buildOutputNames() []string {
	oneHotNames := map[string][]string{}
	if p.OneHot != nil {
		offset := 0
		all := p.OneHot.FeatureNames(p.NominalCols)
		for j, name := range p.NominalCols {
			n := len(p.OneHot.Categories[j])
			oneHotNames[name] = all[offset : offset+n]
			offset += n
		}
	}

	var out []string
	for _, name := range p.InputOrder {
		if expanded, ok := oneHotNames[name]; ok {
			out = append(out, expanded...)
			continue
		}
		out = append(out, name)
	}
	return append(out, p.Cfg.Target)
}

// Transform applies the fitted scheme. Applying it to an already-encoded
// dataset is a no-op, so the transformation has a fixed point.
func (p *Preprocessor) Transform(d *dataset.Dataset) (_ *dataset.Dataset, err error) {
	defer calfitErrors.Recover(&err, "Preprocessor.Transform")

	if !p.Fitted {
		return nil, calfitErrors.NewNotFittedError("Preprocessor", "Transform")
	}

	if equalNames(d.Names, p.OutputNames) {
		// Already encoded under this scheme.
		if col := firstMissingColumn(d); col != "" {
			return nil, calfitErrors.NewPreprocessError(col, "missing values in encoded dataset")
		}
		return d, nil
	}

	if col := firstMissingColumn(d); col != "" {
		return nil, calfitErrors.NewPreprocessError(col, "missing values remain and no imputation policy is defined")
	}

	tIdx := d.ColumnIndex(p.Cfg.Target)
	if tIdx < 0 {
		return nil, calfitErrors.NewPreprocessError(p.Cfg.Target, "target column not found")
	}

	rows := make([][]string, d.NumRows())
	for i := 0; i < d.NumRows(); i++ {
		obs := make(map[string]string, d.NumCols())
		for j, name := range d.Names {
			obs[name] = d.Rows[i][j]
		}

		features, err := p.EncodeRow(obs)
		if err != nil {
			return nil, err
		}

		row := make([]string, 0, len(features)+1)
		for _, v := range features {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, strings.TrimSpace(d.Rows[i][tIdx]))
		rows[i] = row
	}

	out, err := dataset.New(p.OutputNames, rows)
	if err != nil {
		return nil, err
	}
	for j, t := range out.Types {
		if t != dataset.Numeric {
			return nil, calfitErrors.NewPreprocessError(out.Names[j], "non-numeric values remain after encoding")
		}
	}
	return out, nil
}

// FitTransform fits the scheme on d and returns the encoded dataset.
func (p *Preprocessor) FitTransform(d *dataset.Dataset) (*dataset.Dataset, error) {
	if err := p.Fit(d); err != nil {
		return nil, err
	}
	return p.Transform(d)
}

// FeatureNames returns the encoded feature schema, excluding the target.
func (p *Preprocessor) FeatureNames() []string {
	if !p.Fitted {
		return nil
	}
	return p.OutputNames[:len(p.OutputNames)-1]
}

// EncodeRow pushes one raw observation through the fitted scheme and returns
// its encoded feature vector (target excluded). This is the inference path:
// the mapping is exactly the one fitted on the raw dataset.
func (p *Preprocessor) EncodeRow(obs map[string]string) ([]float64, error) {
	if !p.Fitted {
		return nil, calfitErrors.NewNotFittedError("Preprocessor", "EncodeRow")
	}

	var nominalRow []string
	nominalVec := map[string][]float64{}
	if p.OneHot != nil {
		nominalRow = make([]string, len(p.NominalCols))
		for k, name := range p.NominalCols {
			v, ok := obs[name]
			if !ok {
				return nil, calfitErrors.NewValueError("Preprocessor.EncodeRow", "missing attribute "+name)
			}
			nominalRow[k] = v
		}
		encoded, err := p.OneHot.TransformRow(nominalRow)
		if err != nil {
			return nil, err
		}
		offset := 0
		for j, name := range p.NominalCols {
			n := len(p.OneHot.Categories[j])
			nominalVec[name] = encoded[offset : offset+n]
			offset += n
		}
	}

	var out []float64
	for _, name := range p.InputOrder {
		if vec, ok := nominalVec[name]; ok {
			out = append(out, vec...)
			continue
		}

		raw, ok := obs[name]
		if !ok {
			return nil, calfitErrors.NewValueError("Preprocessor.EncodeRow", "missing attribute "+name)
		}

		if enc, ok := p.Ordinals[name]; ok {
			rank, err := enc.TransformValue(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, rank)
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, calfitErrors.NewValueError("Preprocessor.EncodeRow", "attribute "+name+" is not numeric")
		}
		out = append(out, v)
	}
	return out, nil
}

// correlatedColumns returns the later column of every numeric feature pair
// whose |Pearson r| meets the fixed threshold.
func (p *Preprocessor) correlatedColumns(d *dataset.Dataset) ([]string, error) {
	var numeric []string
	for j, name := range d.Names {
		if name != p.Cfg.Target && d.Types[j] == dataset.Numeric {
			numeric = append(numeric, name)
		}
	}

	cols := make(map[string][]float64, len(numeric))
	for _, name := range numeric {
		col, err := d.NumericColumn(name)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}

	dropped := make(map[string]bool)
	var out []string
	for i := 0; i < len(numeric); i++ {
		if dropped[numeric[i]] {
			continue
		}
		for j := i + 1; j < len(numeric); j++ {
			if dropped[numeric[j]] {
				continue
			}
			r := pairwiseCorrelation(cols[numeric[i]], cols[numeric[j]])
			if math.Abs(r) >= p.Cfg.CorrThreshold {
				dropped[numeric[j]] = true
				out = append(out, numeric[j])
				p.logger.Info("Dropping redundant column",
					"column", numeric[j],
					"correlated_with", numeric[i],
					"pearson_r", r,
				)
			}
		}
	}
	return out, nil
}

// pairwiseCorrelation computes Pearson correlation over rows where both
// values are present.
func pairwiseCorrelation(a, b []float64) float64 {
	var xs, ys []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func firstMissingColumn(d *dataset.Dataset) string {
	for _, row := range d.Rows {
		for j, cell := range row {
			if dataset.IsMissing(cell) {
				return d.Names[j]
			}
		}
	}
	return ""
}

func presentColumns(d *dataset.Dataset, names []string) []string {
	var out []string
	for _, n := range names {
		if d.ColumnIndex(n) >= 0 {
			out = append(out, n)
		}
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
