package translate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// remoteDateLayout is the canonical cell format written back to the sheet.
const remoteDateLayout = "2006-01-02"

// naiveLayouts are date formats that carry no zone. They are parsed in the
// user's configured location, never UTC: interpreting a bare date as UTC
// shifts it a day for every timezone behind UTC.
var naiveLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// zonedLayouts carry their own offset and are honored as written.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
}

// ParseRemoteDate normalizes a spreadsheet cell value into a time in loc.
// Accepts epoch milliseconds (the sheet API hands numbers back as float64)
// and the string layouts above. Empty cells return nil.
func ParseRemoteDate(value any, loc *time.Location) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		if v == 0 {
			return nil, nil
		}
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("fractional epoch value %v", v)
		}
		t := time.UnixMilli(int64(v)).In(loc)
		return &t, nil
	case int64:
		if v == 0 {
			return nil, nil
		}
		t := time.UnixMilli(v).In(loc)
		return &t, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		// Numeric strings are epoch milliseconds too
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 12 {
			t := time.UnixMilli(ms).In(loc)
			return &t, nil
		}
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.In(loc)
				return &t, nil
			}
		}
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("unrecognized date format %q", s)
	default:
		return nil, fmt.Errorf("unsupported date value type %T", value)
	}
}

// FormatRemoteDate renders a time as a sheet cell in loc. A round trip
// through ParseRemoteDate yields the same calendar date.
func FormatRemoteDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(remoteDateLayout)
}

// SameDay reports whether two times fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
