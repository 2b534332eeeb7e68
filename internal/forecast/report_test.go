package forecast

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(predictions int) *CVResult {
	result := &CVResult{
		Parameters: CVParams{
			StartDate:           day(1),
			EndDate:             day(10),
			InitialTrainingDays: 5,
			PolynomialDegree:    1,
			ExpandingWindow:     true,
		},
		Overall:      Performance{MAE: 3.2, RMSE: 4.1, RSquared: 0.91, TotalHours: predictions, ForecastDays: 1},
		DailyMetrics: []DayMetrics{{Date: "2024-06-06", MAE: 3.2, RMSE: 4.1, RSquared: 0.91, Hours: predictions}},
	}
	for i := 0; i < predictions; i++ {
		result.Predictions = append(result.Predictions, Prediction{
			Datetime:        day(6).Add(time.Duration(i) * time.Hour),
			Date:            "2024-06-06",
			NetLoad:         30000,
			SystemLambda:    25,
			PredictedLambda: 26.5,
		})
	}
	return result
}

func TestNewReportTruncatesPredictions(t *testing.T) {
	report := NewReport(sampleResult(maxReportPredictions + 50))
	assert.Len(t, report.Predictions, maxReportPredictions)
	assert.True(t, report.PredictionsTruncated)

	small := NewReport(sampleResult(10))
	assert.Len(t, small.Predictions, 10)
	assert.False(t, small.PredictionsTruncated)
}

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReportJSON(path, NewReport(sampleResult(5))))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 3.2, decoded.Overall.MAE)
	assert.Len(t, decoded.Predictions, 5)
}

func TestWritePredictionsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "predictions.csv")
	require.NoError(t, WritePredictionsCSV(path, sampleResult(3).Predictions))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"datetime", "date", "net_load", "system_lambda", "predicted_lambda", "residual"}, records[0])
	assert.Equal(t, "-1.5", records[1][5])
}
