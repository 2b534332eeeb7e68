package frame

import (
	"sort"
	"time"
)

// ResampleHourly aggregates 5-minute settlement prices to hourly means.
// Rows are grouped by the hour their DATETIME falls in (and by settlement
// point when the column is present); the mean SettlementPointPrice of each
// group is emitted as RTLMP. Output rows are sorted by DATETIME, then by
// settlement point, so repeated runs produce identical frames.
func ResampleHourly(f *Frame, settlementColumn string) *Frame {
	type key struct {
		hour  time.Time
		point string
	}
	sums := map[key]float64{}
	counts := map[key]int{}

	hasPoint := f.HasColumn(settlementColumn)
	for _, r := range f.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		price, ok := r.Float("SettlementPointPrice")
		if !ok {
			continue
		}
		k := key{hour: t.Truncate(time.Hour)}
		if hasPoint {
			k.point, _ = r.String(settlementColumn)
		}
		sums[k] += price
		counts[k]++
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].hour.Equal(keys[j].hour) {
			return keys[i].hour.Before(keys[j].hour)
		}
		return keys[i].point < keys[j].point
	})

	columns := []string{DatetimeColumn}
	if hasPoint {
		columns = append(columns, settlementColumn)
	}
	columns = append(columns, "RTLMP")

	out := &Frame{Columns: columns}
	for _, k := range keys {
		row := Row{
			DatetimeColumn: k.hour,
			"RTLMP":        sums[k] / float64(counts[k]),
		}
		if hasPoint {
			row[settlementColumn] = k.point
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
