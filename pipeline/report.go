package pipeline

import (
	"fmt"
	"strings"
)

// OverfitGap is the fixed train/test R² gap above which a run is flagged as
// overfitting.
const OverfitGap = 0.15

// Report summarizes one evaluation run.
type Report struct {
	FamilyName string
	Params     map[string]interface{}
	CVScore    float64

	R2Train float64
	R2Test  float64
	MSETest float64

	// MAPETest is a fraction (0.1 means 10%). Valid only when MAPEValid;
	// the metric is undefined when every test target is zero.
	MAPETest  float64
	MAPEValid bool

	// Overfit is set when R2Train - R2Test exceeds OverfitGap.
	Overfit bool

	// DemoPrediction is the single-observation inference included in the
	// report, if one was requested.
	DemoPrediction      float64
	DemoPredictionValid bool
}

// String renders the report for the command line.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "selected model: %s", r.FamilyName)
	if len(r.Params) > 0 {
		fmt.Fprintf(&b, " (%v)", r.Params)
	}
	fmt.Fprintf(&b, "\ncv score (mean R²): %.4f\n", r.CVScore)
	fmt.Fprintf(&b, "train R²: %.4f\n", r.R2Train)
	fmt.Fprintf(&b, "test  R²: %.4f\n", r.R2Test)
	fmt.Fprintf(&b, "test  MSE: %.4f\n", r.MSETest)
	if r.MAPEValid {
		fmt.Fprintf(&b, "test  MAPE: %.2f%%\n", r.MAPETest*100)
	} else {
		fmt.Fprintf(&b, "test  MAPE: undefined (all targets zero)\n")
	}
	if r.Overfit {
		fmt.Fprintf(&b, "warning: train/test R² gap %.4f exceeds %.2f, model may be overfitting\n",
			r.R2Train-r.R2Test, OverfitGap)
	}
	if r.DemoPredictionValid {
		fmt.Fprintf(&b, "demo prediction: %.2f\n", r.DemoPrediction)
	}
	return b.String()
}
