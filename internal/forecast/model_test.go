package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ercot-mcp/internal/frame"
)

func trainingFrame(xs []float64, f func(x float64) float64) *frame.Frame {
	rows := make([]frame.Row, len(xs))
	for i, x := range xs {
		rows[i] = frame.Row{"NetLoad": x, "SystemLambda": f(x)}
	}
	return frame.New([]string{"NetLoad", "SystemLambda"}, rows)
}

func TestFitRecoversLinearRelation(t *testing.T) {
	// lambda = 5 + 2*netload, exactly.
	training := trainingFrame([]float64{1, 2, 3, 4, 5}, func(x float64) float64 { return 5 + 2*x })

	m := Model{FeatureColumn: "NetLoad", TargetColumn: "SystemLambda", Degree: 1}
	fitted, err := m.Fit(training)
	require.NoError(t, err)

	coeffs := fitted.Coefficients()
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 5.0, coeffs[0], 1e-9)
	assert.InDelta(t, 2.0, coeffs[1], 1e-9)
}

func TestFitRecoversCubicRelation(t *testing.T) {
	f := func(x float64) float64 { return 1 + 0.5*x - 0.25*x*x + 0.125*x*x*x }
	training := trainingFrame([]float64{-3, -2, -1, 0, 1, 2, 3, 4}, f)

	fitted, err := NewModel(3).Fit(training)
	require.NoError(t, err)

	predicted, err := fitted.Predict(trainingFrame([]float64{1.5, -2.5}, f))
	require.NoError(t, err)
	assert.InDelta(t, f(1.5), predicted[0], 1e-6)
	assert.InDelta(t, f(-2.5), predicted[1], 1e-6)
}

func TestFitSkipsInvalidRows(t *testing.T) {
	training := trainingFrame([]float64{1, 2, 3}, func(x float64) float64 { return 2 * x })
	training.Rows = append(training.Rows,
		frame.Row{"NetLoad": math.NaN(), "SystemLambda": 1.0},
		frame.Row{"NetLoad": 4.0},
		frame.Row{"SystemLambda": 8.0},
	)

	fitted, err := Model{FeatureColumn: "NetLoad", TargetColumn: "SystemLambda", Degree: 1}.Fit(training)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fitted.Coefficients()[1], 1e-9)
}

func TestFitInsufficientRows(t *testing.T) {
	training := trainingFrame([]float64{1, 2}, func(x float64) float64 { return x })
	_, err := NewModel(3).Fit(training)
	require.Error(t, err)
}

func TestFitMissingColumns(t *testing.T) {
	f := frame.New([]string{"Other"}, []frame.Row{{"Other": 1.0}})
	_, err := NewModel(1).Fit(f)
	var featErr *FeatureMismatchError
	require.ErrorAs(t, err, &featErr)
	assert.Equal(t, "NetLoad", featErr.Expected)
}

func TestPredictMissingFeatureColumn(t *testing.T) {
	training := trainingFrame([]float64{1, 2, 3}, func(x float64) float64 { return x })
	fitted, err := NewModel(1).Fit(training)
	require.NoError(t, err)

	_, err = fitted.Predict(frame.New([]string{"Other"}, []frame.Row{{"Other": 1.0}}))
	var featErr *FeatureMismatchError
	require.ErrorAs(t, err, &featErr)
}

func TestPredictMissingValueYieldsNaN(t *testing.T) {
	training := trainingFrame([]float64{1, 2, 3}, func(x float64) float64 { return x })
	fitted, err := NewModel(1).Fit(training)
	require.NoError(t, err)

	features := frame.New([]string{"NetLoad"}, []frame.Row{
		{"NetLoad": 2.0},
		{},
	})
	predicted, err := fitted.Predict(features)
	require.NoError(t, err)
	require.Len(t, predicted, 2)
	assert.InDelta(t, 2.0, predicted[0], 1e-9)
	assert.True(t, math.IsNaN(predicted[1]))
}

func TestFitSingularMatrix(t *testing.T) {
	// A constant feature makes the design matrix singular for degree >= 1.
	training := trainingFrame([]float64{2, 2, 2, 2}, func(x float64) float64 { return x })
	_, err := NewModel(2).Fit(training)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	actual := []float64{10, 20, 30, 40}
	predicted := []float64{12, 18, 33, 40}

	assert.InDelta(t, 1.75, meanAbsoluteError(actual, predicted), 1e-9)
	assert.InDelta(t, math.Sqrt((4.0+4+9+0)/4), rootMeanSquaredError(actual, predicted), 1e-9)

	r2 := rSquared(actual, predicted)
	assert.Greater(t, r2, 0.9)
	assert.InDelta(t, 1.0, rSquared(actual, actual), 1e-9)

	assert.True(t, math.IsNaN(rSquared([]float64{1}, []float64{1})))

	// Constant actuals: 1 when matched exactly, 0 otherwise.
	assert.Equal(t, 1.0, rSquared([]float64{5, 5}, []float64{5, 5}))
	assert.Equal(t, 0.0, rSquared([]float64{5, 5}, []float64{4, 6}))
}
