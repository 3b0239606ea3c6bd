package grid

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

type QuickRange string

const (
	RangeToday      QuickRange = "today"
	RangeYesterday  QuickRange = "yesterday"
	RangeLast7Days  QuickRange = "last7Days"
	RangeLast30Days QuickRange = "last30Days"
	RangeThisMonth  QuickRange = "thisMonth"
	RangeLastMonth  QuickRange = "lastMonth"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func span(start, end time.Time) DateRange {
	return DateRange{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

// Resolve returns the inclusive bounds of r relative to today.
func (r QuickRange) Resolve(today time.Time) (DateRange, error) {
	d := Day(today)
	switch r {
	case RangeToday:
		return span(d, d), nil
	case RangeYesterday:
		y := d.AddDate(0, 0, -1)
		return span(y, y), nil
	case RangeLast7Days:
		return span(d.AddDate(0, 0, -6), d), nil
	case RangeLast30Days:
		return span(d.AddDate(0, 0, -29), d), nil
	case RangeThisMonth:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return span(first, d), nil
	case RangeLastMonth:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return span(first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)), nil
	}
	return DateRange{}, fmt.Errorf("unknown quick range %q", string(r))
}

// Validate checks both bounds parse and start is not after end.
func (r DateRange) Validate() error {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return fmt.Errorf("startDate: %w", err)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return fmt.Errorf("endDate: %w", err)
	}
	if start.After(end) {
		return fmt.Errorf("startDate %s is after endDate %s", r.Start, r.End)
	}
	return nil
}
