package forecast

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// maxReportPredictions bounds the prediction sample embedded in a JSON
// report; the full series goes to CSV instead.
const maxReportPredictions = 1000

// Report is the serializable summary of a cross-validation run.
type Report struct {
	GeneratedAt          time.Time    `json:"generated_at"`
	Parameters           CVParams     `json:"parameters"`
	Overall              Performance  `json:"overall_performance"`
	DailyMetrics         []DayMetrics `json:"daily_metrics"`
	Gaps                 []Gap        `json:"gaps,omitempty"`
	Predictions          []Prediction `json:"predictions"`
	PredictionsTruncated bool         `json:"predictions_truncated,omitempty"`
}

// NewReport builds a report from a CV result, truncating the embedded
// prediction list when it is large.
func NewReport(result *CVResult) *Report {
	r := &Report{
		GeneratedAt:  time.Now().UTC(),
		Parameters:   result.Parameters,
		Overall:      result.Overall,
		DailyMetrics: result.DailyMetrics,
		Gaps:         result.Gaps,
		Predictions:  result.Predictions,
	}
	if len(r.Predictions) > maxReportPredictions {
		r.Predictions = r.Predictions[:maxReportPredictions]
		r.PredictionsTruncated = true
	}
	return r
}

// WriteReportJSON writes the report as indented JSON.
func WriteReportJSON(path string, report *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WritePredictionsCSV writes the full hourly prediction series.
func WritePredictionsCSV(path string, predictions []Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"datetime",
		"date",
		"net_load",
		"system_lambda",
		"predicted_lambda",
		"residual",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range predictions {
		row := []string{
			p.Datetime.UTC().Format(time.RFC3339),
			p.Date,
			fmtFloat(p.NetLoad),
			fmtFloat(p.SystemLambda),
			fmtFloat(p.PredictedLambda),
			fmtFloat(p.SystemLambda - p.PredictedLambda),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
