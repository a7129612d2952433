package modelselection

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gymetrics/calfit/core/model"
	"github.com/gymetrics/calfit/linear"
	"github.com/gymetrics/calfit/metrics"
	calfitErrors "github.com/gymetrics/calfit/pkg/errors"
	"github.com/gymetrics/calfit/pkg/log"
	"github.com/gymetrics/calfit/svm"
	"github.com/gymetrics/calfit/tree"
)

// scoreEpsilon is the near-tie margin: candidates whose mean CV scores
// differ by less than this are considered tied and resolved by family
// priority.
const scoreEpsilon = 1e-9

// Family describes one candidate model family in the selection tournament.
type Family struct {
	// Name identifies the family in reports and logs.
	Name string

	// Priority resolves near-ties: the lower value wins. Simpler families
	// get lower priorities so a tie never picks the more complex model.
	Priority int

	// Grid is the hyperparameter grid, one map per candidate. A nil or
	// empty grid means a single candidate with default parameters.
	Grid []map[string]interface{}

	// New constructs an unfitted estimator for one grid point.
	New func(params map[string]interface{}) model.Regressor
}

// Result is the outcome of a selection tournament.
type Result struct {
	FamilyName string
	Params     map[string]interface{}
	CVScore    float64
	Model      model.Regressor
}

// Selector runs k-fold cross-validated grid search over a fixed list of
// candidate families and refits the winner on the full training set.
// Scoring is mean R² across folds. Everything downstream of the seed is
// deterministic: families and grid points are scanned in declaration order
// and only a score better by more than the near-tie margin replaces the
// current best.
type Selector struct {
	Families []Family
	KFold    *KFold

	logger log.Logger
}

// NewSelector creates a Selector with k-fold cross validation on the given
// seed.
func NewSelector(families []Family, k int, seed int64) *Selector {
	return &Selector{
		Families: families,
		KFold:    NewKFold(k, true, seed),
		logger:   log.GetLoggerWithName("modelselection"),
	}
}

// DefaultFamilies returns the standard three-family tournament: linear
// regression, decision tree regression, and support vector regression, in
// priority order.
func DefaultFamilies() []Family {
	return []Family{
		{
			Name:     "linear",
			Priority: 0,
			New: func(_ map[string]interface{}) model.Regressor {
				return linear.NewRegression()
			},
		},
		{
			Name:     "tree",
			Priority: 1,
			Grid: []map[string]interface{}{
				{"max_depth": 3, "min_samples_leaf": 1},
				{"max_depth": 5, "min_samples_leaf": 1},
				{"max_depth": 5, "min_samples_leaf": 5},
				{"max_depth": 7, "min_samples_leaf": 5},
			},
			New: func(params map[string]interface{}) model.Regressor {
				return tree.NewRegressor(
					tree.WithMaxDepth(params["max_depth"].(int)),
					tree.WithMinSamplesLeaf(params["min_samples_leaf"].(int)),
				)
			},
		},
		{
			Name:     "svr",
			Priority: 2,
			Grid: []map[string]interface{}{
				{"kernel": svm.KernelLinear, "C": 1.0},
				{"kernel": svm.KernelRBF, "C": 1.0},
				{"kernel": svm.KernelRBF, "C": 10.0},
			},
			New: func(params map[string]interface{}) model.Regressor {
				return svm.NewSVR(
					svm.WithKernel(params["kernel"].(string)),
					svm.WithC(params["C"].(float64)),
				)
			},
		},
	}
}

// Select runs the tournament on the training set and returns the winning
// family, its parameters, its mean CV score, and the winner refitted on all
// of X and y. Candidates whose fits fail on any fold are skipped; if no
// candidate survives, a SelectionError is returned.
func (s *Selector) Select(X, y mat.Matrix) (_ *Result, err error) {
	defer calfitErrors.Recover(&err, "Selector.Select")

	start := time.Now()
	nSamples, _ := X.Dims()

	if len(s.Families) == 0 {
		return nil, calfitErrors.NewSelectionError("no candidate families")
	}
	if nSamples < s.KFold.NSplits {
		return nil, calfitErrors.NewSelectionError(
			fmt.Sprintf("%d samples cannot fill %d folds", nSamples, s.KFold.NSplits))
	}

	folds := s.KFold.Split(nSamples)

	var best *Result
	bestPriority := 0

	for _, family := range s.Families {
		grid := family.Grid
		if len(grid) == 0 {
			grid = []map[string]interface{}{nil}
		}

		for _, params := range grid {
			score, cvErr := s.crossValScore(family, params, X, y, folds)
			if cvErr != nil {
				s.logger.Warn("Candidate failed cross validation",
					"family", family.Name,
					"params", paramsString(params),
					"error", cvErr.Error(),
				)
				continue
			}

			s.logger.Info("Candidate scored",
				"family", family.Name,
				"params", paramsString(params),
				log.CVScoreKey, score,
			)

			better := best == nil ||
				score > best.CVScore+scoreEpsilon ||
				(score > best.CVScore-scoreEpsilon && family.Priority < bestPriority)
			if better {
				best = &Result{
					FamilyName: family.Name,
					Params:     params,
					CVScore:    score,
				}
				bestPriority = family.Priority
			}
		}
	}

	if best == nil {
		return nil, calfitErrors.NewSelectionError("every candidate failed cross validation")
	}

	// Refit the winner on the full training set.
	winner := s.familyByName(best.FamilyName).New(best.Params)
	if err := winner.Fit(X, y); err != nil {
		return nil, calfitErrors.NewSelectionError("winner refit failed: " + err.Error())
	}
	best.Model = winner

	s.logger.Info("Model selected",
		log.ModelNameKey, best.FamilyName,
		"params", paramsString(best.Params),
		log.CVScoreKey, best.CVScore,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return best, nil
}

// crossValScore fits one candidate on each fold and returns the mean R²
// over the held-out folds.
func (s *Selector) crossValScore(family Family, params map[string]interface{}, X, y mat.Matrix, folds []Fold) (float64, error) {
	var sum float64
	for _, fold := range folds {
		est := family.New(params)

		XTrain := takeRows(X, fold.TrainIndices)
		yTrain := takeRows(y, fold.TrainIndices)
		XTest := takeRows(X, fold.TestIndices)
		yTest := takeRows(y, fold.TestIndices)

		if err := est.Fit(XTrain, yTrain); err != nil {
			return 0, err
		}

		yPred, err := est.Predict(XTest)
		if err != nil {
			return 0, err
		}

		r2, err := metrics.R2ScoreMatrix(yTest, yPred)
		if err != nil {
			return 0, err
		}
		sum += r2
	}
	return sum / float64(len(folds)), nil
}

func (s *Selector) familyByName(name string) Family {
	for _, f := range s.Families {
		if f.Name == name {
			return f
		}
	}
	return Family{}
}

// paramsString renders a parameter map with deterministic key order for
// logging.
func paramsString(params map[string]interface{}) string {
	if len(params) == 0 {
		return "default"
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, params[k])
	}
	return out
}
