package frame

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DatetimeColumn is the unified timestamp column every canonical frame carries.
const DatetimeColumn = "DATETIME"

// Row is one record of a frame, keyed by normalized column name.
// Values are the JSON-decoded types (string, float64, bool, nil) except for
// DATETIME, which is always a time.Time once a frame is canonical.
type Row map[string]any

// Frame is an ordered, column-consistent table of rows. It is the canonical
// shape all ERCOT responses are converted into: one DATETIME column plus the
// endpoint's own fields with cleaned names.
type Frame struct {
	Columns []string
	Rows    []Row
}

// New builds a frame from a column list and pre-built rows.
func New(columns []string, rows []Row) *Frame {
	return &Frame{Columns: columns, Rows: rows}
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return f == nil || len(f.Rows) == 0 }

// Len returns the row count.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	if f == nil {
		return false
	}
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column name if not already present.
func (f *Frame) AddColumn(name string) {
	if !f.HasColumn(name) {
		f.Columns = append(f.Columns, name)
	}
}

// Select returns a new frame restricted to the given columns, preserving row
// order. Missing columns are skipped.
func (f *Frame) Select(columns ...string) *Frame {
	kept := make([]string, 0, len(columns))
	for _, c := range columns {
		if f.HasColumn(c) {
			kept = append(kept, c)
		}
	}
	rows := make([]Row, 0, len(f.Rows))
	for _, r := range f.Rows {
		nr := make(Row, len(kept))
		for _, c := range kept {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		rows = append(rows, nr)
	}
	return &Frame{Columns: kept, Rows: rows}
}

// Rename renames a column in place. No-op if the column does not exist.
func (f *Frame) Rename(from, to string) {
	for i, c := range f.Columns {
		if c == from {
			f.Columns[i] = to
		}
	}
	for _, r := range f.Rows {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
}

// Datetime returns the row's DATETIME value if present and typed.
func (r Row) Datetime() (time.Time, bool) {
	v, ok := r[DatetimeColumn]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Float returns the row's value for col coerced to float64.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the row's value for col as a string.
func (r Row) String(col string) (string, bool) {
	s, ok := r[col].(string)
	return s, ok
}

// SortByDatetime orders rows ascending by DATETIME. Rows without a DATETIME
// sort first so malformed data is easy to spot at the top.
func (f *Frame) SortByDatetime() {
	sort.SliceStable(f.Rows, func(i, j int) bool {
		ti, oki := f.Rows[i].Datetime()
		tj, okj := f.Rows[j].Datetime()
		if oki != okj {
			return !oki
		}
		return ti.Before(tj)
	})
}

// DedupRows removes rows that are exact duplicates across all columns,
// keeping the first occurrence. Row order is preserved.
func (f *Frame) DedupRows() {
	seen := make(map[string]struct{}, len(f.Rows))
	out := f.Rows[:0]
	for _, r := range f.Rows {
		k := f.rowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	f.Rows = out
}

// rowKey builds a deterministic identity string for a row using the frame's
// column order.
func (f *Frame) rowKey(r Row) string {
	var b strings.Builder
	for _, c := range f.Columns {
		v := r[c]
		if t, ok := v.(time.Time); ok {
			b.WriteString(t.UTC().Format(time.RFC3339Nano))
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// InnerJoinOnDatetime joins two canonical frames on equal DATETIME values.
// Columns from right are added to the left row; on a name collision the left
// value wins. Rows keep left's order. Right frames with duplicate timestamps
// contribute their first row only.
func InnerJoinOnDatetime(left, right *Frame) *Frame {
	byTime := make(map[time.Time]Row, right.Len())
	for _, r := range right.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		if _, exists := byTime[t]; !exists {
			byTime[t] = r
		}
	}

	columns := append([]string(nil), left.Columns...)
	joined := &Frame{Columns: columns}
	for _, c := range right.Columns {
		if c != DatetimeColumn {
			joined.AddColumn(c)
		}
	}

	for _, lr := range left.Rows {
		t, ok := lr.Datetime()
		if !ok {
			continue
		}
		rr, ok := byTime[t]
		if !ok {
			continue
		}
		nr := make(Row, len(joined.Columns))
		for k, v := range lr {
			nr[k] = v
		}
		for k, v := range rr {
			if _, exists := nr[k]; !exists {
				nr[k] = v
			}
		}
		joined.Rows = append(joined.Rows, nr)
	}
	return joined
}

// LeftJoinOnDatetime joins right onto left by DATETIME, keeping every left
// row whether or not a match exists. Left values win name collisions.
func LeftJoinOnDatetime(left, right *Frame) *Frame {
	byTime := make(map[time.Time]Row, right.Len())
	for _, r := range right.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		if _, exists := byTime[t]; !exists {
			byTime[t] = r
		}
	}

	joined := &Frame{Columns: append([]string(nil), left.Columns...)}
	for _, c := range right.Columns {
		if c != DatetimeColumn {
			joined.AddColumn(c)
		}
	}

	for _, lr := range left.Rows {
		nr := make(Row, len(joined.Columns))
		for k, v := range lr {
			nr[k] = v
		}
		if t, ok := lr.Datetime(); ok {
			if rr, ok := byTime[t]; ok {
				for k, v := range rr {
					if _, exists := nr[k]; !exists {
						nr[k] = v
					}
				}
			}
		}
		joined.Rows = append(joined.Rows, nr)
	}
	return joined
}

// Concat appends the rows of all frames, taking the column union in first-seen
// order. Nil and empty frames are skipped.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{}
	for _, f := range frames {
		if f.Empty() {
			continue
		}
		for _, c := range f.Columns {
			out.AddColumn(c)
		}
		out.Rows = append(out.Rows, f.Rows...)
	}
	return out
}

// FilterByDate returns rows whose DATETIME date (UTC) falls in [from, to].
func (f *Frame) FilterByDate(from, to time.Time) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	for _, r := range f.Rows {
		t, ok := r.Datetime()
		if !ok {
			continue
		}
		d := t.UTC().Truncate(24 * time.Hour)
		if d.Before(from.UTC().Truncate(24*time.Hour)) || d.After(to.UTC().Truncate(24*time.Hour)) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
