package forecast

import "math"

// Performance is one set of forecast error metrics.
type Performance struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	RSquared     float64 `json:"r_squared"`
	TotalHours   int     `json:"total_hours"`
	ForecastDays int     `json:"forecast_days,omitempty"`
}

func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

func rootMeanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// rSquared is the coefficient of determination from residual and total sums
// of squares. Defined only for 2 or more points; callers must filter shorter
// series out before scoring.
func rSquared(actual, predicted []float64) float64 {
	n := len(actual)
	if n < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, a := range actual {
		mean += a
	}
	mean /= float64(n)

	ssRes, ssTot := 0.0, 0.0
	for i := range actual {
		r := actual[i] - predicted[i]
		ssRes += r * r
		d := actual[i] - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func scoreSeries(actual, predicted []float64) Performance {
	return Performance{
		MAE:        meanAbsoluteError(actual, predicted),
		RMSE:       rootMeanSquaredError(actual, predicted),
		RSquared:   rSquared(actual, predicted),
		TotalHours: len(actual),
	}
}
