package config

import (
	"slices"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/lapse/internal/timeutil"
)

// FilterConfig represents a configuration to filter the timeline by a
// requested range and assigned tags.
type FilterConfig struct {
	StartUs int64
	EndUs   int64
	Tags    []string
}

// getTimeRange returns the start and end time according to the specified
// time period.
func getTimeRange(period timeutil.Period) (start, end time.Time) {
	now := time.Now()

	start = timeutil.RoundToStart(now)
	end = timeutil.RoundToEnd(now)

	//nolint:exhaustive // other cases covered by default
	switch period {
	case timeutil.PeriodToday:
		return
	case timeutil.PeriodYesterday:
		start = now.AddDate(0, 0, timeutil.Range[period])
		start = timeutil.RoundToStart(start)
		end = timeutil.RoundToEnd(start)

		return
	case timeutil.PeriodAllTime:
		start = time.Unix(0, 0)
		return
	default:
		start = now.AddDate(0, 0, timeutil.Range[period])
		start = timeutil.RoundToStart(start)
	}

	return
}

// parseWhen parses a human date expression such as "2024-03-01",
// "yesterday 9am", or "2 hours ago".
func parseWhen(s string) (time.Time, error) {
	dt, err := dateparser.Parse(&dateparser.Configuration{
		CurrentTime: time.Now(),
	}, s)
	if err != nil {
		return time.Time{}, err
	}

	return dt.Time, nil
}

// Filter builds the requested range and tag filter from command-line
// arguments. A named period takes precedence over explicit start/end.
func Filter(ctx *cli.Context) (*FilterConfig, error) {
	filterCfg := &FilterConfig{}

	if ctx.String("tag") != "" {
		filterCfg.Tags = strings.Split(ctx.String("tag"), ",")
	}

	period := timeutil.Period(strings.TrimSpace(ctx.String("period")))

	if period != "" && !slices.Contains(timeutil.PeriodCollection, period) {
		return nil, errInvalidPeriod
	}

	if period != "" {
		start, end := getTimeRange(period)
		filterCfg.StartUs = timeutil.ToUs(start)
		filterCfg.EndUs = timeutil.ToUs(end)

		return filterCfg, nil
	}

	var start, end time.Time

	if s := ctx.String("start"); s != "" {
		t, err := parseWhen(s)
		if err != nil {
			return nil, errInvalidStartDate
		}

		start = t
	} else {
		start = timeutil.RoundToStart(time.Now())
	}

	if e := ctx.String("end"); e != "" {
		t, err := parseWhen(e)
		if err != nil {
			return nil, errInvalidEndDate
		}

		end = t
	} else {
		end = time.Now()
	}

	if !end.After(start) {
		return nil, errInvalidDateRange
	}

	filterCfg.StartUs = timeutil.ToUs(start)
	filterCfg.EndUs = timeutil.ToUs(end)

	return filterCfg, nil
}
