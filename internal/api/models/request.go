package models

// FetchRequest asks for raw endpoint data over a date range.
type FetchRequest struct {
	Endpoint        string            `json:"endpoint" binding:"required"`
	DateFrom        string            `json:"date_from" binding:"required"`
	DateTo          string            `json:"date_to"`
	SettlementPoint string            `json:"settlement_point"`
	ResourceType    string            `json:"resource_type"`
	Size            int               `json:"size"`
	Extra           map[string]string `json:"extra"`
	ResampleHourly  bool              `json:"resample_hourly"`
}

// NormalizeRequest carries an already-fetched raw payload to be converted
// into canonical form: fields metadata plus positional data rows, the shape
// the upstream API returns.
type NormalizeRequest struct {
	Endpoint string  `json:"endpoint" binding:"required"`
	Fields   []Field `json:"fields" binding:"required"`
	Data     [][]any `json:"data"`
}

// Field is one column descriptor of a raw payload.
type Field struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"cardinalityType"`
}

// NetLoadForecastRequest asks for the assembled net-load feature series.
type NetLoadForecastRequest struct {
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to"`
	Size     int    `json:"size"`
}

// DayAheadRequest asks for a next-day price forecast.
type DayAheadRequest struct {
	TargetDate       string `json:"target_date" binding:"required"`
	TrainingDays     int    `json:"training_days"`
	PolynomialDegree int    `json:"polynomial_degree"`
}

// CVRequest configures a rolling-forecast cross-validation run.
type CVRequest struct {
	StartDate           string `json:"start_date" binding:"required"`
	EndDate             string `json:"end_date" binding:"required"`
	InitialTrainingDays int    `json:"initial_training_days"`
	PolynomialDegree    int    `json:"polynomial_degree"`
	SlidingWindow       bool   `json:"sliding_window"`
}
