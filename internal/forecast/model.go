package forecast

import (
	"fmt"
	"math"

	"ercot-mcp/internal/frame"
)

// FeatureMismatchError means a predict frame does not carry the column the
// model was fitted on.
type FeatureMismatchError struct {
	Expected string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature frame is missing column %q used at fit time", e.Expected)
}

// Model configures a polynomial least-squares regression of a target price
// column on powers 1..Degree of a single feature column.
type Model struct {
	FeatureColumn string
	TargetColumn  string
	Degree        int
}

// NewModel builds a model with the project defaults: SystemLambda regressed
// on NetLoad.
func NewModel(degree int) Model {
	return Model{
		FeatureColumn: "NetLoad",
		TargetColumn:  "SystemLambda",
		Degree:        degree,
	}
}

// FittedModel is one immutable fit. Refitting requires a fresh Fit call.
type FittedModel struct {
	featureColumn string
	degree        int

	// coefficients[0] is the intercept, coefficients[k] multiplies feature^k.
	coefficients []float64
}

// Coefficients returns a copy of the fitted coefficients (intercept first).
func (m *FittedModel) Coefficients() []float64 {
	return append([]float64(nil), m.coefficients...)
}

// Fit estimates coefficients by ordinary least squares over every training
// row that carries both the feature and the target. Rows missing either are
// skipped.
func (m Model) Fit(training *frame.Frame) (*FittedModel, error) {
	if training.Empty() {
		return nil, fmt.Errorf("empty training frame")
	}
	if !training.HasColumn(m.FeatureColumn) {
		return nil, &FeatureMismatchError{Expected: m.FeatureColumn}
	}
	if !training.HasColumn(m.TargetColumn) {
		return nil, fmt.Errorf("training frame is missing target column %q", m.TargetColumn)
	}

	var xs, ys []float64
	for _, r := range training.Rows {
		x, okX := r.Float(m.FeatureColumn)
		y, okY := r.Float(m.TargetColumn)
		if !okX || !okY || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	n := m.Degree + 1
	if len(xs) < n {
		return nil, fmt.Errorf("need at least %d valid training rows for degree %d, have %d", n, m.Degree, len(xs))
	}

	// Normal equations: (XᵀX) β = Xᵀy with X = [1, x, x², ..., x^degree].
	xtx := make([][]float64, n)
	xty := make([]float64, n)
	for i := range xtx {
		xtx[i] = make([]float64, n)
	}
	for k, x := range xs {
		pows := powers(x, m.Degree)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				xtx[i][j] += pows[i] * pows[j]
			}
			xty[i] += pows[i] * ys[k]
		}
	}

	coeffs, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("fit degree-%d model: %w", m.Degree, err)
	}

	return &FittedModel{
		featureColumn: m.FeatureColumn,
		degree:        m.Degree,
		coefficients:  coeffs,
	}, nil
}

// Predict evaluates the fitted polynomial for each row of the feature frame.
// The frame must carry the feature column used at fit time; rows whose value
// is missing predict NaN so positions stay aligned with the input.
func (m *FittedModel) Predict(features *frame.Frame) ([]float64, error) {
	if !features.HasColumn(m.featureColumn) {
		return nil, &FeatureMismatchError{Expected: m.featureColumn}
	}
	out := make([]float64, features.Len())
	for i, r := range features.Rows {
		x, ok := r.Float(m.featureColumn)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		pows := powers(x, m.degree)
		v := 0.0
		for k, c := range m.coefficients {
			v += c * pows[k]
		}
		out[i] = v
	}
	return out, nil
}

func powers(x float64, degree int) []float64 {
	p := make([]float64, degree+1)
	p[0] = 1
	for k := 1; k <= degree; k++ {
		p[k] = p[k-1] * x
	}
	return p
}

// solveLinearSystem solves A x = b in place with Gaussian elimination and
// partial pivoting. A must be square.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		// Pivot on the largest remaining magnitude in this column.
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular design matrix (column %d)", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
