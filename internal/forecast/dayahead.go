package forecast

import (
	"context"
	"fmt"
	"time"

	"ercot-mcp/internal/frame"
	"ercot-mcp/internal/logger"
)

// DayAheadParams configures a single next-day price forecast.
type DayAheadParams struct {
	TargetDate       time.Time `json:"target_date"`
	TrainingDays     int       `json:"training_days"`
	PolynomialDegree int       `json:"polynomial_degree"`
}

// DayAheadResult carries the fitted model summary, its in-sample training
// performance, and the hourly predictions for the target date.
type DayAheadResult struct {
	Parameters   DayAheadParams `json:"parameters"`
	Coefficients []float64      `json:"coefficients"`
	Training     Performance    `json:"training_performance"`
	Predictions  []Prediction   `json:"predictions"`
}

// DayAheadForecast fits the price model on the TrainingDays days preceding
// the target date and predicts the target date's hourly system lambda from
// its net-load forecast. The target day's lambda may not exist yet, so
// prediction rows require only the feature; actuals are filled when present.
func DayAheadForecast(ctx context.Context, params DayAheadParams, src DataSource) (*DayAheadResult, error) {
	if params.TrainingDays < 1 {
		return nil, fmt.Errorf("training_days must be at least 1")
	}

	model := NewModel(params.PolynomialDegree)
	trainStart := params.TargetDate.AddDate(0, 0, -params.TrainingDays)
	trainEnd := params.TargetDate.AddDate(0, 0, -1)

	training := collectDays(ctx, src, trainStart, trainEnd)
	trainRows := validRows(training, model)
	if trainRows.Len() < params.PolynomialDegree+2 {
		return nil, &InsufficientDataError{
			StartDate: trainStart,
			EndDate:   trainEnd,
			Reason: fmt.Sprintf("only %d valid training hours for a degree-%d fit",
				trainRows.Len(), params.PolynomialDegree),
		}
	}

	fitted, err := model.Fit(trainRows)
	if err != nil {
		return nil, err
	}

	inSample, err := fitted.Predict(trainRows)
	if err != nil {
		return nil, err
	}
	trainActual := make([]float64, trainRows.Len())
	for i, r := range trainRows.Rows {
		trainActual[i], _ = r.Float(model.TargetColumn)
	}

	target, err := src.FetchDay(ctx, params.TargetDate)
	if err != nil {
		return nil, err
	}
	date := params.TargetDate.Format(dateLayout)

	result := &DayAheadResult{
		Parameters:   params,
		Coefficients: fitted.Coefficients(),
		Training:     scoreSeries(trainActual, inSample),
	}
	if target.Empty() {
		return nil, &InsufficientDataError{
			StartDate: params.TargetDate,
			EndDate:   params.TargetDate,
			Reason:    "no net-load forecast rows for the target date",
		}
	}

	predicted, err := fitted.Predict(target)
	if err != nil {
		return nil, err
	}
	for i, r := range target.Rows {
		netLoad, ok := r.Float(model.FeatureColumn)
		if !ok {
			continue
		}
		t, _ := r.Datetime()
		actual, _ := r.Float(model.TargetColumn)
		result.Predictions = append(result.Predictions, Prediction{
			Datetime:        t,
			Date:            date,
			NetLoad:         netLoad,
			SystemLambda:    actual,
			PredictedLambda: predicted[i],
		})
	}
	if len(result.Predictions) == 0 {
		return nil, &InsufficientDataError{
			StartDate: params.TargetDate,
			EndDate:   params.TargetDate,
			Reason:    "target date rows carry no net-load values",
		}
	}
	return result, nil
}

// collectDays fetches and concatenates every day in [start, end]. Days that
// fail to fetch are logged and skipped; the caller decides whether whatever
// survives is enough.
func collectDays(ctx context.Context, src DataSource, start, end time.Time) *frame.Frame {
	log := logger.WithComponent("dayahead")
	var parts []*frame.Frame
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		f, err := src.FetchDay(ctx, d)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"date": d.Format(dateLayout)}).Warn("training day fetch failed")
			continue
		}
		parts = append(parts, f)
	}
	return frame.Concat(parts...)
}
