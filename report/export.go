package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ayoisaiah/lapse/internal/timeutil"
	"github.com/ayoisaiah/lapse/timeline"
)

// WriteJSON serializes segments as a JSON array.
func WriteJSON(w io.Writer, segments []timeline.Segment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if segments == nil {
		segments = []timeline.Segment{}
	}

	return enc.Encode(segments)
}

var csvHeader = []string{
	"start",
	"end",
	"duration_seconds",
	"source",
	"coverage",
	"bundle_id",
	"app_name",
	"title",
	"tags",
	"support_ids",
}

// WriteCSV serializes segments as CSV with RFC 3339 timestamps.
func WriteCSV(w io.Writer, segments []timeline.Segment) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range segments {
		seg := &segments[i]

		title := ""
		if seg.Title != nil {
			title = *seg.Title
		}

		row := []string{
			timeutil.FromUs(seg.StartUs).Format(time.RFC3339Nano),
			timeutil.FromUs(seg.EndUs).Format(time.RFC3339Nano),
			strconv.FormatFloat(seg.DurationSeconds, 'f', 6, 64),
			seg.Source.String(),
			seg.Coverage.String(),
			seg.BundleID,
			seg.AppName,
			title,
			strings.Join(seg.Tags, ";"),
			strings.Join(seg.SupportIDs, ";"),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
