package forecast

import (
	"context"
	"fmt"
	"time"

	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/frame"
	"ercot-mcp/internal/logger"
)

// InsufficientDataError means a cross-validation run produced zero usable
// forecast days.
type InsufficientDataError struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no usable forecast days in [%s, %s]: %s",
		e.StartDate.Format(dateLayout), e.EndDate.Format(dateLayout), e.Reason)
}

// DataSource supplies one calendar day of joined feature/target data
// (NetLoad and SystemLambda per hour). The production implementation fetches
// through the API client; tests use stubs.
type DataSource interface {
	FetchDay(ctx context.Context, day time.Time) (*frame.Frame, error)
}

// MarketDataSource is the production DataSource: net-load features joined
// with the day-ahead system lambda, both pulled from the ERCOT API.
type MarketDataSource struct {
	Fetcher Fetcher
	Size    int
}

func (s *MarketDataSource) FetchDay(ctx context.Context, day time.Time) (*frame.Frame, error) {
	d := day.Format(dateLayout)

	netLoad, err := GetNetLoadForecast(ctx, s.Fetcher, d, d, s.Size)
	if err != nil {
		return nil, err
	}
	lambda, err := s.Fetcher.FetchData(ctx, "da_system_lambda", ercot.FetchOptions{
		DateFrom: d,
		Size:     s.Size,
	})
	if err != nil {
		return nil, err
	}
	return frame.InnerJoinOnDatetime(netLoad, lambda.Select(frame.DatetimeColumn, "SystemLambda")), nil
}

// CVParams configures a rolling-forecast cross-validation run.
type CVParams struct {
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	InitialTrainingDays int       `json:"initial_training_days"`
	PolynomialDegree    int       `json:"polynomial_degree"`
	ExpandingWindow     bool      `json:"expanding_window"`
}

// DayMetrics is the per-forecast-day scorecard.
type DayMetrics struct {
	Date     string  `json:"date"`
	MAE      float64 `json:"mae"`
	RMSE     float64 `json:"rmse"`
	RSquared float64 `json:"r_squared"`
	Hours    int     `json:"hours"`
}

// Prediction is one row-level actual/predicted pair.
type Prediction struct {
	Datetime        time.Time `json:"datetime"`
	Date            string    `json:"date"`
	NetLoad         float64   `json:"net_load"`
	SystemLambda    float64   `json:"system_lambda"`
	PredictedLambda float64   `json:"predicted_lambda"`
}

// Gap records a forecast day that was skipped rather than scored.
type Gap struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// CVResult is the read-only outcome of one cross-validation run.
type CVResult struct {
	Parameters   CVParams     `json:"parameters"`
	Overall      Performance  `json:"overall_performance"`
	DailyMetrics []DayMetrics `json:"daily_metrics"`
	Predictions  []Prediction `json:"predictions"`
	Gaps         []Gap        `json:"gaps,omitempty"`
}

// RollingForecastCV evaluates the price model by repeatedly fitting on a
// historical window and forecasting the next unseen day.
//
// One iteration runs per day in [start+initialTrainingDays, end]. With an
// expanding window the training span is [start, day-1]; with a sliding
// window it is the initialTrainingDays days ending the previous day. A day
// whose fetch fails, returns no rows, or yields fewer than 2 valid hours is
// recorded as a gap and skipped; the run only fails when no day scores at
// all. Each calendar day is fetched at most once per run.
func RollingForecastCV(ctx context.Context, params CVParams, src DataSource) (*CVResult, error) {
	if params.InitialTrainingDays < 1 {
		return nil, fmt.Errorf("initial_training_days must be at least 1")
	}
	if params.EndDate.Before(params.StartDate) {
		return nil, fmt.Errorf("end_date %s is before start_date %s",
			params.EndDate.Format(dateLayout), params.StartDate.Format(dateLayout))
	}
	firstForecast := params.StartDate.AddDate(0, 0, params.InitialTrainingDays)
	if firstForecast.After(params.EndDate) {
		return nil, &InsufficientDataError{
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
			Reason: fmt.Sprintf("range holds no forecast days after %d training days",
				params.InitialTrainingDays),
		}
	}

	log := logger.WithComponent("cv")
	model := NewModel(params.PolynomialDegree)

	// Per-run day cache: every calendar day is fetched exactly once, whether
	// it ends up in training windows, as a forecast day, or both.
	days := map[string]*frame.Frame{}
	fetchDay := func(day time.Time) *frame.Frame {
		k := day.Format(dateLayout)
		if cached, ok := days[k]; ok {
			return cached
		}
		f, err := src.FetchDay(ctx, day)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"date": k}).Warn("day fetch failed")
			f = nil
		}
		days[k] = f
		return f
	}

	result := &CVResult{Parameters: params}
	var pooledActual, pooledPredicted []float64

	for day := firstForecast; !day.After(params.EndDate); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)

		trainStart := params.StartDate
		if !params.ExpandingWindow {
			trainStart = day.AddDate(0, 0, -params.InitialTrainingDays)
		}

		var trainingDays []*frame.Frame
		for d := trainStart; d.Before(day); d = d.AddDate(0, 0, 1) {
			if f := fetchDay(d); !f.Empty() {
				trainingDays = append(trainingDays, f)
			}
		}
		training := frame.Concat(trainingDays...)
		if training.Empty() {
			result.Gaps = append(result.Gaps, Gap{Date: date, Reason: "no training data"})
			continue
		}

		testDay := validRows(fetchDay(day), model)
		if testDay.Len() < 2 {
			result.Gaps = append(result.Gaps, Gap{Date: date, Reason: "fewer than 2 valid hours"})
			continue
		}

		fitted, err := model.Fit(training)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"date": date}).Warn("fit failed")
			result.Gaps = append(result.Gaps, Gap{Date: date, Reason: fmt.Sprintf("fit failed: %v", err)})
			continue
		}
		predicted, err := fitted.Predict(testDay)
		if err != nil {
			result.Gaps = append(result.Gaps, Gap{Date: date, Reason: fmt.Sprintf("predict failed: %v", err)})
			continue
		}

		actual := make([]float64, testDay.Len())
		for i, r := range testDay.Rows {
			actual[i], _ = r.Float(model.TargetColumn)
		}

		perf := scoreSeries(actual, predicted)
		result.DailyMetrics = append(result.DailyMetrics, DayMetrics{
			Date:     date,
			MAE:      perf.MAE,
			RMSE:     perf.RMSE,
			RSquared: perf.RSquared,
			Hours:    testDay.Len(),
		})

		for i, r := range testDay.Rows {
			t, _ := r.Datetime()
			netLoad, _ := r.Float(model.FeatureColumn)
			result.Predictions = append(result.Predictions, Prediction{
				Datetime:        t,
				Date:            date,
				NetLoad:         netLoad,
				SystemLambda:    actual[i],
				PredictedLambda: predicted[i],
			})
		}
		pooledActual = append(pooledActual, actual...)
		pooledPredicted = append(pooledPredicted, predicted...)

		log.WithFields(logger.Fields{"date": date, "mae": perf.MAE, "hours": testDay.Len()}).Info("scored forecast day")
	}

	if len(result.DailyMetrics) == 0 {
		return nil, &InsufficientDataError{
			StartDate: params.StartDate,
			EndDate:   params.EndDate,
			Reason:    "every forecast day was skipped",
		}
	}

	// Pooled over all prediction rows, not averaged per-day averages.
	result.Overall = scoreSeries(pooledActual, pooledPredicted)
	result.Overall.ForecastDays = len(result.DailyMetrics)
	return result, nil
}

// validRows keeps only rows carrying both the feature and target values.
func validRows(f *frame.Frame, model Model) *frame.Frame {
	if f.Empty() {
		return &frame.Frame{}
	}
	out := &frame.Frame{Columns: append([]string(nil), f.Columns...)}
	for _, r := range f.Rows {
		if _, ok := r.Float(model.FeatureColumn); !ok {
			continue
		}
		if _, ok := r.Float(model.TargetColumn); !ok {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
