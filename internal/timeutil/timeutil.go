// Package timeutil provides utility functions and types for working with
// time-related operations. Timeline arithmetic in lapse runs on UTC
// microseconds since the Unix epoch; the conversions here are the only
// place time.Time values cross into that representation.
package timeutil

import "time"

// Period is a named reporting time period.
type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period14Days    Period = "14days"
	Period30Days    Period = "30days"
	Period90Days    Period = "90days"
)

// Range maps a period to its day offset from today.
var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period14Days:    -13,
	Period30Days:    -29,
	Period90Days:    -89,
}

// PeriodCollection is the set of valid report periods.
var PeriodCollection = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodYesterday,
	Period7Days,
	Period14Days,
	Period30Days,
	Period90Days,
}

// ToUs converts a time value to UTC microseconds since the epoch.
func ToUs(t time.Time) int64 {
	return t.UnixMicro()
}

// FromUs converts UTC microseconds since the epoch to a time value.
func FromUs(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}
