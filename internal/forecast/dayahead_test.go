package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ercot-mcp/internal/frame"
)

func TestDayAheadForecast(t *testing.T) {
	src := newStubSource()
	for d := 1; d <= 10; d++ {
		src.addDay(day(d), 24, 0.002, 5)
	}
	// The target day has a net-load forecast but no settled lambda yet.
	rows := make([]frame.Row, 24)
	for h := 0; h < 24; h++ {
		rows[h] = frame.Row{
			frame.DatetimeColumn: day(11).Add(time.Duration(h) * time.Hour),
			"NetLoad":            31000.0 + float64(h)*250,
		}
	}
	src.frames[day(11).Format(dateLayout)] = frame.New(
		[]string{frame.DatetimeColumn, "NetLoad"}, rows)

	result, err := DayAheadForecast(context.Background(), DayAheadParams{
		TargetDate:       day(11),
		TrainingDays:     10,
		PolynomialDegree: 1,
	}, src)
	require.NoError(t, err)

	require.Len(t, result.Coefficients, 2)
	assert.InDelta(t, 5.0, result.Coefficients[0], 1e-6)
	assert.InDelta(t, 0.002, result.Coefficients[1], 1e-9)
	assert.InDelta(t, 0, result.Training.MAE, 1e-6)

	require.Len(t, result.Predictions, 24)
	first := result.Predictions[0]
	assert.Equal(t, "2024-06-11", first.Date)
	assert.InDelta(t, 5+0.002*31000.0, first.PredictedLambda, 1e-6)
}

func TestDayAheadForecastInsufficientTraining(t *testing.T) {
	src := newStubSource()
	src.addDay(day(11), 24, 0.002, 5)

	_, err := DayAheadForecast(context.Background(), DayAheadParams{
		TargetDate:       day(11),
		TrainingDays:     5,
		PolynomialDegree: 3,
	}, src)
	var dataErr *InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
}

func TestDayAheadForecastMissingTargetDay(t *testing.T) {
	src := newStubSource()
	for d := 1; d <= 10; d++ {
		src.addDay(day(d), 24, 0.002, 5)
	}

	_, err := DayAheadForecast(context.Background(), DayAheadParams{
		TargetDate:       day(11),
		TrainingDays:     10,
		PolynomialDegree: 1,
	}, src)
	var dataErr *InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
}

func TestDayAheadForecastRejectsBadParams(t *testing.T) {
	_, err := DayAheadForecast(context.Background(), DayAheadParams{
		TargetDate:   day(11),
		TrainingDays: 0,
	}, newStubSource())
	require.Error(t, err)
}
