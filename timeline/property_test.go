package timeline_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/internal/interval"
	"github.com/ayoisaiah/lapse/timeline"
)

var appNames = []string{"Editor", "Browser", "Terminal", "Mail"}

func genInputs(t *rapid.T) (
	[]event.SystemStateEvent,
	[]event.RawActivityEvent,
	[]event.UserEditEvent,
	interval.Interval,
) {
	requested := interval.New(at(0, 0), at(24, 0))

	minute := rapid.IntRange(0, 24*60-1)

	var (
		states []event.SystemStateEvent
		id     int64
	)

	working := false

	flips := rapid.SliceOfN(minute, 0, 12).Draw(t, "flips")

	for _, m := range flips {
		id++
		working = !working

		states = append(states, event.SystemStateEvent{
			ID:        id,
			RunID:     "run-1",
			WallUs:    at(0, m),
			MonoNs:    at(0, m) * 1000,
			IsWorking: working,
			Kind:      event.KindStateChange,
			Source:    event.SourceSession,
		})
	}

	var activity []event.RawActivityEvent

	acts := rapid.SliceOfN(minute, 0, 12).Draw(t, "activity")

	for _, m := range acts {
		id++

		activity = append(activity, event.RawActivityEvent{
			ID:      id,
			WallUs:  at(0, m),
			MonoNs:  at(0, m) * 1000,
			AppName: rapid.SampledFrom(appNames).Draw(t, "app"),
			Reason:  event.ReasonAppActivated,
			Working: true,
		})
	}

	var edits []event.UserEditEvent

	editCount := rapid.IntRange(0, 8).Draw(t, "editCount")

	for i := 0; i < editCount; i++ {
		startMin := rapid.IntRange(0, 24*60-2).Draw(t, "editStart")
		endMin := rapid.IntRange(startMin+1, 24*60-1).Draw(t, "editEnd")

		op := rapid.SampledFrom([]event.EditOp{
			event.OpDelete,
			event.OpAdd,
			event.OpTag,
			event.OpUntag,
			event.OpUndo,
		}).Draw(t, "op")

		e := event.UserEditEvent{
			ID:            fmt.Sprintf("edit-%d", i),
			Author:        "prop",
			CreatedWallUs: at(24, i),
			CreatedMonoNs: at(24, i) * 1000,
			Op:            op,
			StartUs:       at(0, startMin),
			EndUs:         at(0, endMin),
		}

		switch op {
		case event.OpAdd:
			app := rapid.SampledFrom(appNames).Draw(t, "addApp")
			e.AppName = &app
		case event.OpTag, event.OpUntag:
			tag := rapid.SampledFrom([]string{"deep", "admin", "meet"}).
				Draw(t, "tag")
			e.Tag = &tag
		case event.OpUndo:
			if i == 0 {
				continue
			}

			target := fmt.Sprintf(
				"edit-%d",
				rapid.IntRange(0, i-1).Draw(t, "target"),
			)
			e.TargetID = &target
		}

		edits = append(edits, e)
	}

	return states, activity, edits, requested
}

func TestBuildInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		states, activity, edits, requested := genInputs(t)

		segments := timeline.Build(states, activity, edits, requested)

		for i := range segments {
			seg := &segments[i]

			if seg.EndUs <= seg.StartUs {
				t.Fatalf("non-positive segment %+v", seg)
			}

			if seg.DurationSeconds <= 0 {
				t.Fatalf("non-positive duration %+v", seg)
			}

			if seg.StartUs < requested.StartUs || seg.EndUs > requested.EndUs {
				t.Fatalf("segment escapes requested range %+v", seg)
			}

			if i > 0 && seg.StartUs < segments[i-1].EndUs {
				t.Fatalf(
					"overlap between %+v and %+v",
					segments[i-1], seg,
				)
			}
		}
	})
}

func TestBuildDeterministicUnderShuffle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		states, activity, edits, requested := genInputs(t)

		a := timeline.Build(states, activity, edits, requested)
		b := timeline.Build(
			reversed(states),
			reversed(activity),
			reversed(edits),
			requested,
		)

		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("output depends on input ordering:\n%s", diff)
		}
	})
}

func TestTagEditsPreserveTotalDuration(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		states, activity, edits, requested := genInputs(t)

		var tagsOnly []event.UserEditEvent

		for _, e := range edits {
			if e.Op == event.OpTag || e.Op == event.OpUntag {
				tagsOnly = append(tagsOnly, e)
			}
		}

		total := func(segments []timeline.Segment) int64 {
			var sum int64
			for i := range segments {
				sum += segments[i].Interval().DurationUs()
			}

			return sum
		}

		plain := timeline.Build(states, activity, nil, requested)
		tagged := timeline.Build(states, activity, tagsOnly, requested)

		if total(plain) != total(tagged) {
			t.Fatalf(
				"tag edits changed total duration: %d != %d",
				total(plain), total(tagged),
			)
		}
	})
}

func TestActiveDeletesAlwaysWin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		states, activity, edits, requested := genInputs(t)

		segments := timeline.Build(states, activity, edits, requested)

		active := timeline.ActiveEditIDs(edits)

		for _, e := range edits {
			if e.Op != event.OpDelete || !active[e.ID] {
				continue
			}

			for i := range segments {
				if segments[i].Interval().Overlaps(e.Interval()) {
					t.Fatalf(
						"segment %+v overlaps active delete %s",
						segments[i], e.ID,
					)
				}
			}
		}
	})
}
