// Command calfit runs the calories regression pipeline as four ordered batch
// stages, each consuming the previous stage's artifact:
//
//	calfit eda <raw.csv> <outdir>                                summary stats and plots
//	calfit preprocess <raw.csv> <out.csv> <encoder.gob>          encoded dataset plus fitted encoder
//	calfit select <preprocessed.csv> <encoder.gob> <bundle.gob>  train, select, persist bundle
//	calfit evaluate <raw.csv> <bundle.gob>                       metrics report and demo inference
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gymetrics/calfit/dataset"
	"github.com/gymetrics/calfit/linear"
	"github.com/gymetrics/calfit/metrics"
	"github.com/gymetrics/calfit/modelselection"
	"github.com/gymetrics/calfit/pipeline"
	"github.com/gymetrics/calfit/pkg/log"
	"github.com/gymetrics/calfit/preprocessing"

	"gonum.org/v1/gonum/mat"
)

const (
	targetColumn = "calories_burned"
	defaultSeed  = 42
)

var (
	dropColumns   = []string{"session_id", "user_id", "id"}
	ordinalLevels = map[string][]string{
		"experience_level": {"Beginner", "Intermediate", "Expert"},
	}
)

func runConfig() pipeline.Config {
	return pipeline.Config{
		Target:        targetColumn,
		DropColumns:   dropColumns,
		OrdinalLevels: ordinalLevels,
		Seed:          defaultSeed,
	}
}

func main() {
	log.SetProvider(log.NewZerologProvider(log.LevelInfo))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "eda":
		err = runEDA(arg(2, "raw.csv"), arg(3, "eda"))
	case "preprocess":
		err = runPreprocess(arg(2, "raw.csv"), arg(3, "preprocessed.csv"), arg(4, "encoder.gob"))
	case "select":
		err = runSelect(arg(2, "preprocessed.csv"), arg(3, "encoder.gob"), arg(4, "model.gob"))
	case "evaluate":
		err = runEvaluate(arg(2, "raw.csv"), arg(3, "model.gob"))
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "calfit %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func arg(i int, fallback string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: calfit <stage> [args]

stages:
  eda <raw.csv> <outdir>                                summary stats and plots
  preprocess <raw.csv> <out.csv> <encoder.gob>          write the encoded dataset and fitted encoder
  select <preprocessed.csv> <encoder.gob> <bundle.gob>  train, select and persist the model
  evaluate <raw.csv> <bundle.gob>                       metrics report and demo inference`)
}

// runEDA prints per-column summary statistics and writes the target
// histogram plus a duration/target scatter with a fitted line.
func runEDA(rawPath, outDir string) error {
	d, err := dataset.Load(rawPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	fmt.Printf("%d rows, %d columns\n\n", d.NumRows(), d.NumCols())
	for j, name := range d.Names {
		if d.Types[j] != dataset.Numeric {
			fmt.Printf("%-20s categorical\n", name)
			continue
		}
		col, err := d.NumericColumn(name)
		if err != nil {
			return err
		}
		mean, std := stat.MeanStdDev(col, nil)
		fmt.Printf("%-20s mean=%.2f std=%.2f\n", name, mean, std)
	}

	target, err := d.NumericColumn(targetColumn)
	if err != nil {
		return err
	}

	if err := saveHistogram(target, filepath.Join(outDir, "target_hist.png")); err != nil {
		return err
	}

	if d.ColumnIndex("duration_min") >= 0 {
		duration, err := d.NumericColumn("duration_min")
		if err != nil {
			return err
		}
		if err := saveScatterWithFit(duration, target, filepath.Join(outDir, "duration_vs_target.png")); err != nil {
			return err
		}
	}

	fmt.Printf("\nplots written to %s\n", outDir)
	return nil
}

func saveHistogram(values []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Calories Burned"
	p.X.Label.Text = targetColumn
	p.Y.Label.Text = "count"

	pts := make(plotter.Values, len(values))
	copy(pts, values)

	hist, err := plotter.NewHist(pts, 20)
	if err != nil {
		return err
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

func saveScatterWithFit(xData, yData []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Session Duration vs Calories Burned"
	p.X.Label.Text = "duration_min"
	p.Y.Label.Text = targetColumn

	pts := make(plotter.XYs, len(xData))
	for i := range xData {
		pts[i].X = xData[i]
		pts[i].Y = yData[i]
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Color = plotter.DefaultLineStyle.Color
	p.Add(scatter)
	p.Legend.Add("sessions", scatter)

	n := len(xData)
	X := mat.NewDense(n, 1, xData)
	y := mat.NewDense(n, 1, yData)

	lr := linear.NewRegression()
	if err := lr.Fit(X, y); err != nil {
		return err
	}

	minX, maxX := xData[0], xData[0]
	for _, x := range xData {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}

	slope := lr.GetWeights()[0]
	intercept := lr.GetIntercept()
	linePts := plotter.XYs{
		{X: minX, Y: slope*minX + intercept},
		{X: maxX, Y: slope*maxX + intercept},
	}

	line, err := plotter.NewLine(linePts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("fitted line", line)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// runPreprocess writes the fully numeric encoded dataset artifact together
// with the fitted encoder the select stage reuses.
func runPreprocess(rawPath, outPath, encoderPath string) error {
	d, err := dataset.Load(rawPath)
	if err != nil {
		return err
	}

	pre := preprocessing.New(preprocessing.Config{
		Target:        targetColumn,
		DropColumns:   dropColumns,
		OrdinalLevels: ordinalLevels,
	})
	encoded, err := pre.FitTransform(d)
	if err != nil {
		return err
	}

	if err := encoded.Save(outPath); err != nil {
		return err
	}
	if err := pre.Save(encoderPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d rows, %d columns\n", outPath, encoded.NumRows(), encoded.NumCols())
	fmt.Printf("encoder written to %s\n", encoderPath)
	return nil
}

// runSelect consumes the preprocess stage's artifacts, runs the tournament
// and persists the winning bundle.
func runSelect(encodedPath, encoderPath, bundlePath string) error {
	pre, err := preprocessing.LoadPreprocessor(encoderPath)
	if err != nil {
		return err
	}

	d, err := dataset.Load(encodedPath)
	if err != nil {
		return err
	}

	cfg := runConfig()
	cfg.BundlePath = bundlePath
	cfg.Preprocessor = pre

	report, _, err := pipeline.New(cfg).Run(d)
	if err != nil {
		return err
	}

	fmt.Print(report.String())
	fmt.Printf("bundle written to %s\n", bundlePath)
	return nil
}

// runEvaluate reloads the persisted bundle, recomputes the metrics report on
// the same deterministic split, and runs one demo inference.
func runEvaluate(rawPath, bundlePath string) error {
	bundle, err := pipeline.LoadBundle(bundlePath)
	if err != nil {
		return err
	}

	d, err := dataset.Load(rawPath)
	if err != nil {
		return err
	}

	encoded, err := bundle.Preprocessor.Transform(d)
	if err != nil {
		return err
	}

	X, y, err := encoded.FeatureTarget(bundle.Metadata.Target)
	if err != nil {
		return err
	}

	XTrain, XTest, yTrain, yTest, err := modelselection.TrainTestSplit(X, y, 0.2, defaultSeed)
	if err != nil {
		return err
	}

	report := &pipeline.Report{
		FamilyName: bundle.Metadata.FamilyName,
		Params:     bundle.Metadata.Params,
		CVScore:    bundle.Metadata.CVScore,
	}

	trainPred, err := bundle.Model.Predict(XTrain)
	if err != nil {
		return err
	}
	testPred, err := bundle.Model.Predict(XTest)
	if err != nil {
		return err
	}

	if report.R2Train, err = metrics.R2ScoreMatrix(yTrain, trainPred); err != nil {
		return err
	}
	if report.R2Test, err = metrics.R2ScoreMatrix(yTest, testPred); err != nil {
		return err
	}
	if report.MSETest, err = metrics.MSEMatrix(yTest, testPred); err != nil {
		return err
	}
	if mape, err := metrics.MAPEMatrix(yTest, testPred); err == nil {
		report.MAPETest = mape
		report.MAPEValid = true
	}
	report.Overfit = report.R2Train-report.R2Test > pipeline.OverfitGap

	// Demo inference: the first raw row, re-encoded through the bundle.
	if d.NumRows() > 0 {
		obs := make(map[string]string, d.NumCols())
		for j, name := range d.Names {
			obs[name] = d.Rows[0][j]
		}
		pred, err := bundle.PredictRaw(obs)
		if err != nil {
			return err
		}
		report.DemoPrediction = pred
		report.DemoPredictionValid = true
	}

	fmt.Print(report.String())
	return nil
}
