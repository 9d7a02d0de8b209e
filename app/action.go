package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/lapse/config"
	"github.com/ayoisaiah/lapse/engine"
	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/internal/interval"
	"github.com/ayoisaiah/lapse/internal/timeutil"
	"github.com/ayoisaiah/lapse/report"
	"github.com/ayoisaiah/lapse/sensor"
	"github.com/ayoisaiah/lapse/store"
	"github.com/ayoisaiah/lapse/timeline"
)

const timeFormat = "Jan 02, 2006 03:04:05 PM"

func setup() (*config.Config, *store.Client, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, nil, err
	}

	initLogger(cfg)

	db, err := store.NewClient(cfg.System.DBPath)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}

// buildSegments reads the event log and folds it into effective segments
// for the filtered range.
func buildSegments(
	db store.DB,
	filter *config.FilterConfig,
) ([]timeline.Segment, error) {
	states, err := db.GetStateEvents(filter.StartUs, filter.EndUs)
	if err != nil {
		return nil, err
	}

	activity, err := db.GetActivityEvents(filter.StartUs, filter.EndUs)
	if err != nil {
		return nil, err
	}

	edits, err := db.GetEdits()
	if err != nil {
		return nil, err
	}

	segments := timeline.Build(
		states,
		activity,
		edits,
		interval.New(filter.StartUs, filter.EndUs),
	)

	if len(filter.Tags) > 0 {
		segments = filterByTags(segments, filter.Tags)
	}

	return segments, nil
}

func filterByTags(segments []timeline.Segment, tags []string) []timeline.Segment {
	var out []timeline.Segment

	for i := range segments {
		for _, want := range tags {
			found := false

			for _, tag := range segments[i].Tags {
				if tag == want {
					found = true
					break
				}
			}

			if found {
				out = append(out, segments[i])
				break
			}
		}
	}

	return out
}

func segmentsHelper(ctx *cli.Context) ([]timeline.Segment, *store.Client, error) {
	filter, err := config.Filter(ctx)
	if err != nil {
		return nil, nil, err
	}

	_, db, err := setup()
	if err != nil {
		return nil, nil, err
	}

	segments, err := buildSegments(db, filter)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return segments, db, nil
}

// timelineAction handles the timeline command which prints or exports
// the effective timeline.
func timelineAction(ctx *cli.Context) error {
	segments, db, err := segmentsHelper(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var out io.Writer = os.Stdout

	if path := ctx.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		out = f
	}

	switch {
	case ctx.Bool("json"):
		return report.WriteJSON(out, segments)
	case ctx.Bool("csv"):
		return report.WriteCSV(out, segments)
	default:
		report.Table(out, segments)
		return nil
	}
}

// reportAction handles the report command which summarizes attributed
// time per application and tag.
func reportAction(ctx *cli.Context) error {
	segments, db, err := segmentsHelper(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	report.Summary(os.Stdout, segments)

	return nil
}

var errEditRangeRequired = errors.New(
	"edits require both --start and --end",
)

// editRange parses the required --start/--end pair into an interval.
func editRange(ctx *cli.Context) (interval.Interval, error) {
	if ctx.String("start") == "" || ctx.String("end") == "" {
		return interval.Interval{}, errEditRangeRequired
	}

	filter, err := config.Filter(ctx)
	if err != nil {
		return interval.Interval{}, err
	}

	return interval.New(filter.StartUs, filter.EndUs), nil
}

func newEdit(cfg *config.Config, op event.EditOp, iv interval.Interval) *event.UserEditEvent {
	now := time.Now()

	return &event.UserEditEvent{
		ID:            uuid.NewString(),
		Author:        cfg.Settings.Author,
		CreatedWallUs: timeutil.ToUs(now),
		CreatedMonoNs: now.UnixNano(),
		Op:            op,
		StartUs:       iv.StartUs,
		EndUs:         iv.EndUs,
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func appendEdit(db *store.Client, edit *event.UserEditEvent) error {
	if err := db.AppendEdit(edit); err != nil {
		return err
	}

	pterm.Info.Printfln("edit %s recorded", edit.ID)

	return nil
}

// deleteAction handles the delete command, which removes a time range
// from the effective timeline without touching raw observations.
func deleteAction(ctx *cli.Context) error {
	iv, err := editRange(ctx)
	if err != nil {
		return err
	}

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	edit := newEdit(cfg, event.OpDelete, iv)
	edit.Note = optString(ctx.String("note"))

	return appendEdit(db, edit)
}

// addAction handles the add command which manually attributes a range.
func addAction(ctx *cli.Context) error {
	iv, err := editRange(ctx)
	if err != nil {
		return err
	}

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	edit := newEdit(cfg, event.OpAdd, iv)
	edit.AppName = optString(ctx.String("app"))
	edit.BundleID = optString(ctx.String("bundle-id"))
	edit.Title = optString(ctx.String("title"))
	edit.Note = optString(ctx.String("note"))

	return appendEdit(db, edit)
}

func tagEditAction(ctx *cli.Context, op event.EditOp) error {
	iv, err := editRange(ctx)
	if err != nil {
		return err
	}

	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	edit := newEdit(cfg, op, iv)
	edit.Tag = optString(ctx.String("name"))
	edit.Note = optString(ctx.String("note"))

	return appendEdit(db, edit)
}

func tagAction(ctx *cli.Context) error {
	return tagEditAction(ctx, event.OpTag)
}

func untagAction(ctx *cli.Context) error {
	return tagEditAction(ctx, event.OpUntag)
}

// undoAction records an undo_edit targeting an existing edit. The target
// must exist and must not already be undone.
func undoAction(ctx *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	targetID := ctx.String("id")

	edits, err := db.GetEdits()
	if err != nil {
		return err
	}

	if err := timeline.ValidateUndo(edits, targetID); err != nil {
		return err
	}

	var target *event.UserEditEvent

	for i := range edits {
		if edits[i].ID == targetID {
			target = &edits[i]
			break
		}
	}

	edit := newEdit(cfg, event.OpUndo, target.Interval())
	edit.TargetID = &targetID

	return appendEdit(db, edit)
}

// editsAction lists the full edit log with each edit's resolved status.
func editsAction(ctx *cli.Context) error {
	_, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	edits, err := db.GetEdits()
	if err != nil {
		return err
	}

	if len(edits) == 0 {
		pterm.Info.Println("No edits recorded")
		return nil
	}

	active := timeline.ActiveEditIDs(edits)

	tableBody := [][]string{
		{"ID", "OP", "START", "END", "TAG", "AUTHOR", "STATUS"},
	}

	for i := range edits {
		e := &edits[i]

		status := pterm.Red("undone")
		if active[e.ID] {
			status = pterm.Green("active")
		}

		if e.Op == event.OpUndo {
			status = pterm.Gray("undo")
		}

		tag := ""
		if e.Tag != nil {
			tag = *e.Tag
		}

		tableBody = append(tableBody, []string{
			e.ID,
			e.Op.String(),
			timeutil.FromUs(e.StartUs).Local().Format(timeFormat),
			timeutil.FromUs(e.EndUs).Local().Format(timeFormat),
			tag,
			e.Author,
			status,
		})
	}

	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(tableBody).Srender()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, str)

	return nil
}

// conservativeProber is used during replay: the machine cannot probe a
// live session, so unknown state resolves to not-working until the trace
// says otherwise.
type conservativeProber struct{}

func (conservativeProber) ProbeSession() (onConsole, locked, known bool) {
	return false, true, false
}

// replayAction feeds a recorded sensor trace through the working-state
// machine, appending the resulting events to the log.
func replayAction(ctx *cli.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	var in io.Reader = os.Stdin

	if path := ctx.String("file"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		in = f
	}

	notifications, err := sensor.ReadTrace(in)
	if err != nil {
		return err
	}

	machine := engine.New(
		engine.NewSystemClock(),
		db,
		conservativeProber{},
		machineHooks(cfg),
		nil,
	)

	notifs := make(chan sensor.Notification)

	go func() {
		defer close(notifs)

		for _, n := range notifications {
			notifs <- n
		}
	}()

	if err := machine.Run(context.Background(), notifs); err != nil {
		return err
	}

	pterm.Info.Printfln(
		"replayed %d notifications (run %s)",
		len(notifications),
		machine.RunID(),
	)

	return nil
}
