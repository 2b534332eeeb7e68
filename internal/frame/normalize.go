package frame

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NormalizationError reports a response whose shape could not be mapped to a
// canonical frame. It always names the endpoint so a failure is diagnosable
// without re-running the fetch.
type NormalizationError struct {
	Endpoint string
	Reason   string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Endpoint, e.Reason)
}

type datetimeStrategy struct {
	name    string
	columns []string
	apply   func(r Row) (time.Time, error)
}

// The supported datetime source encodings, in priority order. The first
// strategy whose source columns are all present wins; the order matters
// because several endpoints carry overlapping column sets (e.g. DeliveryDate
// plus both DeliveryHour and DeliveryInterval).
var datetimeStrategies = []datetimeStrategy{
	{
		name:    "delivery_interval_5min",
		columns: []string{"DeliveryDate", "DeliveryHour", "DeliveryInterval"},
		apply: func(r Row) (time.Time, error) {
			base, err := parseTimeValue(r["DeliveryDate"])
			if err != nil {
				return time.Time{}, err
			}
			hour, err := parseHour(r["DeliveryHour"])
			if err != nil {
				return time.Time{}, err
			}
			interval, err := parseHour(r["DeliveryInterval"])
			if err != nil {
				return time.Time{}, err
			}
			return base.Add(time.Duration(hour)*time.Hour + time.Duration(interval)*5*time.Minute), nil
		},
	},
	{
		name:    "interval_ending",
		columns: []string{"IntervalEnding"},
		apply:   func(r Row) (time.Time, error) { return parseTimeValue(r["IntervalEnding"]) },
	},
	{
		name:    "operating_day_hour_ending",
		columns: []string{"OperatingDay", "HourEnding"},
		apply:   hourEndingStrategy("OperatingDay"),
	},
	{
		name:    "operating_date_hour_ending",
		columns: []string{"OperatingDate", "HourEnding"},
		apply:   hourEndingStrategy("OperatingDate"),
	},
	{
		name:    "delivery_date_hour",
		columns: []string{"DeliveryDate", "DeliveryHour"},
		apply: func(r Row) (time.Time, error) {
			base, err := parseTimeValue(r["DeliveryDate"])
			if err != nil {
				return time.Time{}, err
			}
			hour, err := parseHour(r["DeliveryHour"])
			if err != nil {
				return time.Time{}, err
			}
			return base.Add(time.Duration(hour) * time.Hour), nil
		},
	},
	{
		name:    "delivery_date_hour_ending",
		columns: []string{"DeliveryDate", "HourEnding"},
		apply:   hourEndingStrategy("DeliveryDate"),
	},
	{
		name:    "sced_timestamp",
		columns: []string{"SCEDTimestamp"},
		apply:   func(r Row) (time.Time, error) { return parseTimeValue(r["SCEDTimestamp"]) },
	},
	{
		name:    "sced_time_stamp",
		columns: []string{"SCEDTimeStamp"},
		apply:   func(r Row) (time.Time, error) { return parseTimeValue(r["SCEDTimeStamp"]) },
	},
}

func hourEndingStrategy(dateColumn string) func(r Row) (time.Time, error) {
	return func(r Row) (time.Time, error) {
		base, err := parseTimeValue(r[dateColumn])
		if err != nil {
			return time.Time{}, err
		}
		return parseHourEnding(base, r["HourEnding"])
	}
}

// Normalize converts a raw tabular response for the named endpoint into a
// canonical frame: cleaned column names, a DATETIME column computed from the
// endpoint's source encoding, rows de-duplicated and sorted ascending by
// DATETIME. It is deterministic and idempotent: feeding a canonical frame
// back through yields an identical frame.
func Normalize(endpoint string, f *Frame) (*Frame, error) {
	if f == nil {
		return nil, &NormalizationError{Endpoint: endpoint, Reason: "nil frame"}
	}
	out := cleanColumnNames(f)
	if out.Empty() {
		return out, nil
	}

	if out.HasColumn(DatetimeColumn) {
		// Already canonical (or datetimes serialized as strings): coerce and
		// keep the existing values.
		for _, r := range out.Rows {
			t, err := parseTimeValue(r[DatetimeColumn])
			if err != nil {
				return nil, &NormalizationError{Endpoint: endpoint, Reason: fmt.Sprintf("bad DATETIME value: %v", err)}
			}
			r[DatetimeColumn] = t
		}
	} else {
		strategy, ok := selectStrategy(out)
		if !ok {
			return nil, &NormalizationError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("no recognizable datetime columns among %v", out.Columns),
			}
		}
		for i, r := range out.Rows {
			t, err := strategy.apply(r)
			if err != nil {
				return nil, &NormalizationError{
					Endpoint: endpoint,
					Reason:   fmt.Sprintf("row %d (%s): %v", i, strategy.name, err),
				}
			}
			r[DatetimeColumn] = t
		}
		out.AddColumn(DatetimeColumn)
	}

	out.DedupRows()
	out.SortByDatetime()
	return out, nil
}

func selectStrategy(f *Frame) (datetimeStrategy, bool) {
	for _, s := range datetimeStrategies {
		all := true
		for _, c := range s.columns {
			if !f.HasColumn(c) {
				all = false
				break
			}
		}
		if all {
			return s, true
		}
	}
	return datetimeStrategy{}, false
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// cleanColumnNames returns a copy of the frame with every column renamed to
// PascalCase with spaces and hyphens removed. Names that are already
// PascalCase (leading capital, no separators) are preserved byte-for-byte, so
// acronym columns like SCEDTimestamp and COPHSLSystemWide survive untouched.
func cleanColumnNames(f *Frame) *Frame {
	columns := make([]string, len(f.Columns))
	rename := make(map[string]string, len(f.Columns))
	for i, c := range f.Columns {
		nc := toPascalCase(c)
		columns[i] = nc
		rename[c] = nc
	}
	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nk, ok := rename[k]
			if !ok {
				nk = toPascalCase(k)
			}
			nr[nk] = v
		}
		rows[i] = nr
	}
	return &Frame{Columns: columns, Rows: rows}
}

func toPascalCase(name string) string {
	n := strings.NewReplacer("-", "_", " ", "_").Replace(name)
	if n != "" && n[0] >= 'A' && n[0] <= 'Z' && !strings.Contains(n, "_") {
		return n
	}
	n = camelBoundary.ReplaceAllString(n, "${1}_${2}")
	parts := strings.Split(n, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// parseTimeValue accepts the timestamp representations seen across ERCOT
// endpoints: ISO8601 strings (with or without offset or time part), epoch
// seconds, and epoch milliseconds. All naive values are interpreted as UTC so
// normalization has no wall-clock or zone dependence.
func parseTimeValue(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case string:
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
		} {
			if t, err := time.ParseInLocation(layout, tv, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", tv)
	case float64:
		return epochToTime(tv), nil
	case int:
		return epochToTime(float64(tv)), nil
	case int64:
		return epochToTime(float64(tv)), nil
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp value")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func epochToTime(v float64) time.Time {
	// Values above ~1e12 can only be epoch milliseconds.
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

// parseHour coerces an hour or interval count to an integer.
func parseHour(v any) (int, error) {
	switch hv := v.(type) {
	case float64:
		return int(hv), nil
	case int:
		return hv, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(hv))
		if err != nil {
			return 0, fmt.Errorf("unparseable hour %q", hv)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported hour type %T", v)
	}
}

// parseHourEnding maps ERCOT hour-ending notation onto an absolute stamp.
// Hour-ending 1 covers 00:00-01:00 and stamps as base+0h; the special "24:00"
// form marks the last hour of the day (base+23h).
func parseHourEnding(base time.Time, v any) (time.Time, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "24:00" {
			return base.Add(23 * time.Hour), nil
		}
		if i := strings.IndexByte(s, ':'); i > 0 {
			s = s[:i]
		}
		h, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable hour ending %q", v)
		}
		return base.Add(time.Duration(h-1) * time.Hour), nil
	}
	h, err := parseHour(v)
	if err != nil {
		return time.Time{}, err
	}
	return base.Add(time.Duration(h-1) * time.Hour), nil
}
