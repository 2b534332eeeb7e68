package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/frame"
	"ercot-mcp/internal/logger"
)

const dateLayout = "2006-01-02"

// Fetcher is the slice of the API client the forecasting layer needs.
// *ercot.Client satisfies it; tests substitute fakes.
type Fetcher interface {
	FetchData(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error)
}

// GetVintageForecast fetches a forecast endpoint restricted to postings
// available by 07:00 the day before delivery (the last acceptable day-ahead
// vintage), then keeps only the most recently posted row per DATETIME.
//
// For the zone load endpoint the per-model series are pivoted wide and
// reduced to a MedianLoadForecast column; solar and wind pass through with
// their own columns.
func GetVintageForecast(ctx context.Context, f Fetcher, endpointName, dateFrom, dateTo string, size int) (*frame.Frame, error) {
	if dateTo == "" {
		dateTo = dateFrom
	}
	end, err := time.ParseInLocation(dateLayout, dateTo, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateTo, err)
	}
	cutoff := end.AddDate(0, 0, -1).Add(7 * time.Hour).Format("2006-01-02T15:04:05")

	dat, err := f.FetchData(ctx, endpointName, ercot.FetchOptions{
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Size:     size,
		Extra:    map[string]string{"postedDatetimeTo": cutoff},
	})
	if err != nil {
		return nil, err
	}
	if dat.Empty() {
		return dat, nil
	}

	if endpointName == "ercot_zone_load_forecast" {
		return pivotLoadForecast(dat)
	}

	out := filterLatestPosted(dat)
	for _, col := range []string{"DSTFlag", "HourEnding", "DeliveryDate"} {
		dropColumn(out, col)
	}
	return out, nil
}

// GetNetLoadForecast assembles the net-load feature series for a date range:
// NetLoad = MedianLoadForecast − (solar + wind COPHSL system-wide forecasts).
func GetNetLoadForecast(ctx context.Context, f Fetcher, dateFrom, dateTo string, size int) (*frame.Frame, error) {
	log := logger.WithComponent("netload")

	solar, err := GetVintageForecast(ctx, f, "solar_system_forecast", dateFrom, dateTo, size)
	if err != nil {
		return nil, fmt.Errorf("solar forecast: %w", err)
	}
	solar = keepSystemWideHSL(solar, "SolarHSLSystemWide", log)

	wind, err := GetVintageForecast(ctx, f, "wind_system_forecast", dateFrom, dateTo, size)
	if err != nil {
		return nil, fmt.Errorf("wind forecast: %w", err)
	}
	wind = keepSystemWideHSL(wind, "WindHSLSystemWide", log)

	load, err := GetVintageForecast(ctx, f, "ercot_zone_load_forecast", dateFrom, dateTo, size)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}

	dat := frame.LeftJoinOnDatetime(solar, wind)
	dat = frame.LeftJoinOnDatetime(dat, load)

	dat.AddColumn("Renewables")
	dat.AddColumn("NetLoad")
	for _, r := range dat.Rows {
		renewables := 0.0
		for _, col := range []string{"SolarHSLSystemWide", "WindHSLSystemWide"} {
			if v, ok := r.Float(col); ok {
				renewables += v
			}
		}
		r["Renewables"] = renewables
		if load, ok := r.Float("MedianLoadForecast"); ok {
			r["NetLoad"] = load - renewables
		}
	}
	return dat, nil
}

// keepSystemWideHSL reduces a generation forecast to DATETIME plus a single
// renamed COPHSL system-wide column. When the column is absent (endpoint
// reshuffles happen), the series degrades to zero generation with a warning
// rather than failing the whole net-load assembly.
func keepSystemWideHSL(f *frame.Frame, renamed string, log *logger.Entry) *frame.Frame {
	var source string
	for _, c := range f.Columns {
		if strings.Contains(c, "COPHSL") && strings.Contains(c, "SystemWide") {
			source = c
			break
		}
	}
	if source == "" {
		log.WithFields(logger.Fields{"column": renamed}).Warn("COPHSL system-wide column not found, assuming zero generation")
		out := f.Select(frame.DatetimeColumn)
		out.AddColumn(renamed)
		for _, r := range out.Rows {
			r[renamed] = 0.0
		}
		return out
	}
	out := f.Select(frame.DatetimeColumn, source)
	out.Rename(source, renamed)
	return out
}

// filterLatestPosted keeps, per DATETIME, the row with the most recent
// PostedDatetime. Frames without a PostedDatetime column pass through.
// Output is sorted by DATETIME for determinism.
func filterLatestPosted(f *frame.Frame) *frame.Frame {
	if !f.HasColumn("PostedDatetime") {
		return f
	}
	latest := make(map[time.Time]frame.Row, f.Len())
	posted := make(map[time.Time]time.Time, f.Len())
	for _, r := range f.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		p, err := postedTime(r)
		if err != nil {
			continue
		}
		if prev, seen := posted[t]; !seen || p.After(prev) || p.Equal(prev) {
			latest[t] = r
			posted[t] = p
		}
	}

	times := make([]time.Time, 0, len(latest))
	for t := range latest {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := &frame.Frame{Columns: append([]string(nil), f.Columns...)}
	for _, t := range times {
		out.Rows = append(out.Rows, latest[t])
	}
	return out
}

// pivotLoadForecast turns the long per-model zone load series into a single
// MedianLoadForecast column: latest posting per (Model, DATETIME), pivot wide
// by Model, median across the model columns.
func pivotLoadForecast(f *frame.Frame) (*frame.Frame, error) {
	if !f.HasColumn("Model") || !f.HasColumn("SystemTotal") {
		return nil, fmt.Errorf("zone load forecast is missing Model/SystemTotal columns (have %v)", f.Columns)
	}

	type cell struct {
		value  float64
		posted time.Time
	}
	byTime := map[time.Time]map[string]cell{}
	models := map[string]struct{}{}

	for _, r := range f.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		model, _ := r.String("Model")
		total, ok := r.Float("SystemTotal")
		if !ok {
			continue
		}
		p, _ := postedTime(r)

		if byTime[t] == nil {
			byTime[t] = map[string]cell{}
		}
		if prev, seen := byTime[t][model]; !seen || !p.Before(prev.posted) {
			byTime[t][model] = cell{value: total, posted: p}
		}
		models[model] = struct{}{}
	}

	modelCols := pickModelColumns(models)

	times := make([]time.Time, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	out := &frame.Frame{Columns: []string{frame.DatetimeColumn, "MedianLoadForecast"}}
	for _, t := range times {
		var values []float64
		for _, m := range modelCols {
			if c, ok := byTime[t][m]; ok {
				values = append(values, c.value)
			}
		}
		if len(values) == 0 {
			continue
		}
		out.Rows = append(out.Rows, frame.Row{
			frame.DatetimeColumn: t,
			"MedianLoadForecast": median(values),
		})
	}
	return out, nil
}

// pickModelColumns selects the ensemble member columns to take the median
// over: model names like E1, A3, M2, X1. When none match, every model column
// participates.
func pickModelColumns(models map[string]struct{}) []string {
	var ensemble, all []string
	for m := range models {
		all = append(all, m)
		if len(m) > 1 && strings.ContainsRune("EAMX", rune(m[0])) && m[1] >= '0' && m[1] <= '9' {
			ensemble = append(ensemble, m)
		}
	}
	if len(ensemble) > 0 {
		sort.Strings(ensemble)
		return ensemble
	}
	sort.Strings(all)
	return all
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func postedTime(r frame.Row) (time.Time, error) {
	v, ok := r["PostedDatetime"]
	if !ok {
		return time.Time{}, fmt.Errorf("no PostedDatetime")
	}
	switch pv := v.(type) {
	case time.Time:
		return pv, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.ParseInLocation(layout, pv, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unparseable PostedDatetime %v", v)
}

func dropColumn(f *frame.Frame, name string) {
	kept := f.Columns[:0]
	for _, c := range f.Columns {
		if c != name {
			kept = append(kept, c)
		}
	}
	f.Columns = kept
	for _, r := range f.Rows {
		delete(r, name)
	}
}
