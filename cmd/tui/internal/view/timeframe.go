package view

import (
	"time"
)

// Timeframe represents a predefined or custom due date range.
type Timeframe int

const (
	TimeframeThisWeek Timeframe = iota
	TimeframeLastWeek
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeThisYear
	TimeframeAll
	TimeframeCustom
)

var timeframes = []Timeframe{
	TimeframeThisWeek,
	TimeframeLastWeek,
	TimeframeThisMonth,
	TimeframeLastMonth,
	TimeframeThisYear,
	TimeframeAll,
	TimeframeCustom,
}

func (t Timeframe) String() string {
	switch t {
	case TimeframeThisWeek:
		return "This Week"
	case TimeframeLastWeek:
		return "Last Week"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeThisYear:
		return "This Year"
	case TimeframeAll:
		return "All Time"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// Range returns the inclusive calendar days covered relative to now. Both are nil for
// TimeframeAll and TimeframeCustom, whose bounds come from elsewhere. Weeks start on Monday.
func (t Timeframe) Range(now time.Time) (*time.Time, *time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	offset := int(today.Weekday())
	if offset == 0 {
		offset = 7
	}

	monday := today.AddDate(0, 0, -offset+1)
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch t {
	case TimeframeThisWeek:
		return new(monday), new(monday.AddDate(0, 0, 6))
	case TimeframeLastWeek:
		return new(monday.AddDate(0, 0, -7)), new(monday.AddDate(0, 0, -1))
	case TimeframeThisMonth:
		return new(firstOfMonth), new(firstOfMonth.AddDate(0, 1, -1))
	case TimeframeLastMonth:
		start := firstOfMonth.AddDate(0, -1, 0)
		return new(start), new(firstOfMonth.AddDate(0, 0, -1))
	case TimeframeThisYear:
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return new(start), new(start.AddDate(1, 0, -1))
	}

	return nil, nil
}
