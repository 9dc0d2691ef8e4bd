// Package period handles the DD-MM-YYYY_DD-MM-YYYY reporting window
// encoded in input file names.
package period

import (
	"fmt"
	"time"

	"regexp"
)

const layout = "02-01-2006"

var rePeriod = regexp.MustCompile(`(\d{2}-\d{2}-\d{4})_(\d{2}-\d{2}-\d{4})`)

// Range is an inclusive day range. The zero value means "unbounded":
// every day is inside it.
type Range struct {
	Start time.Time
	End   time.Time
}

// FromFilename extracts the reporting window from a file name such as
// "Relatorio_05-10-2025_11-10-2025.xlsx". The second return is false
// when the name carries no window.
func FromFilename(name string) (Range, bool) {
	m := rePeriod.FindStringSubmatch(name)
	if m == nil {
		return Range{}, false
	}
	start, err := time.Parse(layout, m[1])
	if err != nil {
		return Range{}, false
	}
	end, err := time.Parse(layout, m[2])
	if err != nil {
		return Range{}, false
	}
	if end.Before(start) {
		start, end = end, start
	}
	return Range{Start: start, End: end}, true
}

// IsZero reports whether the range is unbounded.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether the given day falls inside the range.
// Comparison is at day granularity.
func (r Range) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

// Label renders the range back in file-name form.
func (r Range) Label() string {
	return fmt.Sprintf("%s_%s", r.Start.Format(layout), r.End.Format(layout))
}
