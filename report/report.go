// Package report renders effective segments for humans and for export.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/lapse/internal/timeutil"
	"github.com/ayoisaiah/lapse/timeline"
)

const noSegmentsMsg = "No attributed time found for the specified time range"

const timeFormat = "Jan 02, 2006 03:04:05 PM"

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}

func printTable(data [][]string, writer io.Writer) {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		pterm.Error.Printfln("Failed to output segment table: %s", err.Error())
		return
	}

	fmt.Fprintln(writer, str)
}

// Table prints one row per effective segment.
func Table(w io.Writer, segments []timeline.Segment) {
	if len(segments) == 0 {
		pterm.Info.WithWriter(w).Println(noSegmentsMsg)
		return
	}

	tableBody := make([][]string, len(segments))

	for i := range segments {
		seg := &segments[i]

		app := seg.AppName
		if seg.Coverage == timeline.CoverageUnobservedGap {
			app = pterm.Gray("(unobserved)")
		}

		title := ""
		if seg.Title != nil {
			title = *seg.Title
		}

		row := []string{
			fmt.Sprintf("%d", i+1),
			timeutil.FromUs(seg.StartUs).Local().Format(timeFormat),
			timeutil.FromUs(seg.EndUs).Local().Format(timeFormat),
			formatDuration(seg.DurationSeconds),
			app,
			title,
			strings.Join(seg.Tags, " · "),
			seg.Source.String(),
		}

		tableBody[i] = row
	}

	tableBody = append([][]string{
		{"#", "START", "END", "DURATION", "APP", "TITLE", "TAGS", "SOURCE"},
	}, tableBody...)

	printTable(tableBody, w)
}

// Summary aggregates observed time per application, along with tag
// totals and any unobserved gap time, and prints the result.
func Summary(w io.Writer, segments []timeline.Segment) {
	if len(segments) == 0 {
		pterm.Info.WithWriter(w).Println(noSegmentsMsg)
		return
	}

	var (
		appTotals = map[string]float64{}
		tagTotals = map[string]float64{}

		totalObserved float64
		totalGap      float64
	)

	for i := range segments {
		seg := &segments[i]

		if seg.Coverage == timeline.CoverageUnobservedGap {
			totalGap += seg.DurationSeconds
			continue
		}

		name := seg.AppName
		if name == "" {
			name = seg.BundleID
		}

		appTotals[name] += seg.DurationSeconds
		totalObserved += seg.DurationSeconds

		for _, tag := range seg.Tags {
			tagTotals[tag] += seg.DurationSeconds
		}
	}

	names := make([]string, 0, len(appTotals))
	for name := range appTotals {
		names = append(names, name)
	}

	sort.Sort(natural.StringSlice(names))

	tableBody := [][]string{{"APP", "DURATION", "SHARE"}}

	for _, name := range names {
		share := 0.0
		if totalObserved > 0 {
			share = appTotals[name] / totalObserved * 100
		}

		tableBody = append(tableBody, []string{
			name,
			formatDuration(appTotals[name]),
			fmt.Sprintf("%.1f%%", share),
		})
	}

	printTable(tableBody, w)

	if len(tagTotals) > 0 {
		tags := make([]string, 0, len(tagTotals))
		for tag := range tagTotals {
			tags = append(tags, tag)
		}

		sort.Sort(natural.StringSlice(tags))

		tagBody := [][]string{{"TAG", "DURATION"}}
		for _, tag := range tags {
			tagBody = append(tagBody, []string{tag, formatDuration(tagTotals[tag])})
		}

		printTable(tagBody, w)
	}

	pterm.Info.Printfln("total attributed: %s", formatDuration(totalObserved))

	if totalGap > 0 {
		pterm.Warning.Printfln(
			"unobserved gap time: %s (no agent was running)",
			formatDuration(totalGap),
		)
	}
}
