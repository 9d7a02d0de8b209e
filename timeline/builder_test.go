package timeline_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/internal/interval"
	"github.com/ayoisaiah/lapse/timeline"
)

// base is 2024-03-01 00:00:00 UTC.
var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMicro()

// at converts hours and minutes on the fixture day to µs.
func at(h, m int) int64 {
	return base + int64(h)*3_600_000_000 + int64(m)*60_000_000
}

func day() interval.Interval {
	return interval.New(at(0, 0), at(24, 0))
}

var nextID int64

func stateEvent(wallUs int64, working bool) event.SystemStateEvent {
	nextID++

	return event.SystemStateEvent{
		ID:               nextID,
		RunID:            "run-1",
		WallUs:           wallUs,
		MonoNs:           wallUs * 1000,
		SystemAwake:      true,
		SessionOnConsole: working,
		ScreenLocked:     !working,
		IsWorking:        working,
		Kind:             event.KindStateChange,
		Source:           event.SourceSession,
	}
}

func gapEvent(recordedUs, gapStartUs, gapEndUs int64) event.SystemStateEvent {
	nextID++

	return event.SystemStateEvent{
		ID:         nextID,
		RunID:      "run-2",
		WallUs:     recordedUs,
		MonoNs:     recordedUs * 1000,
		Kind:       event.KindGapDetected,
		Source:     event.SourceAgent,
		GapStartUs: gapStartUs,
		GapEndUs:   gapEndUs,
	}
}

func activityEvent(wallUs int64, app string) event.RawActivityEvent {
	nextID++

	return event.RawActivityEvent{
		ID:       nextID,
		WallUs:   wallUs,
		MonoNs:   wallUs * 1000,
		BundleID: "com.example." + app,
		AppName:  app,
		PID:      100,
		Reason:   event.ReasonAppActivated,
		Working:  true,
	}
}

func editAt(createdUs int64, op event.EditOp, startUs, endUs int64) event.UserEditEvent {
	nextID++

	return event.UserEditEvent{
		ID:            string(rune('a' + nextID%26)),
		Author:        "tester",
		CreatedWallUs: createdUs,
		CreatedMonoNs: createdUs * 1000,
		Op:            op,
		StartUs:       startUs,
		EndUs:         endUs,
	}
}

type span struct {
	start, end int64
	app        string
	coverage   timeline.Coverage
	source     timeline.SegmentSource
}

func reversed[S any](in []S) []S {
	out := make([]S, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}

	return out
}

func spans(segments []timeline.Segment) []span {
	var out []span

	for i := range segments {
		out = append(out, span{
			start:    segments[i].StartUs,
			end:      segments[i].EndUs,
			app:      segments[i].AppName,
			coverage: segments[i].Coverage,
			source:   segments[i].Source,
		})
	}

	return out
}

func TestWorkingIntervalsSplitAttribution(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
		stateEvent(at(17, 0), true),
		stateEvent(at(18, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	got := timeline.Build(states, activity, nil, day())

	want := []span{
		{at(9, 0), at(12, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
		{at(17, 0), at(18, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}

	// Not-working time yields no segments at all: gaps appear only when
	// a gap_detected event marks them.
	for i := range got {
		if got[i].Coverage != timeline.CoverageObserved {
			t.Fatalf("unexpected gap segment: %+v", got[i])
		}
	}
}

func TestAttributionHoldsUntilNextEvent(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{
		activityEvent(at(9, 0), "Editor"),
		activityEvent(at(10, 30), "Browser"),
	}

	got := timeline.Build(states, activity, nil, day())

	want := []span{
		{at(9, 0), at(10, 30), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
		{at(10, 30), at(12, 0), "Browser", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestGapIsNeverObserved(t *testing.T) {
	// An abnormal end at 12:00 detected on restart at 12:30, where the
	// restarted agent finds the session working again.
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		gapEvent(at(12, 30), at(12, 0), at(12, 30)),
		stateEvent(at(12, 30), true),
		stateEvent(at(18, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	got := timeline.Build(states, activity, nil, day())

	want := []span{
		{at(9, 0), at(12, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
		{at(12, 0), at(12, 30), "", timeline.CoverageUnobservedGap, timeline.SourceRaw},
		{at(12, 30), at(18, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestManualAddSplitByDelete(t *testing.T) {
	meeting := "Meeting"

	add := editAt(at(20, 0), event.OpAdd, at(10, 0), at(11, 0))
	add.ID = "add-1"
	add.AppName = &meeting

	del := editAt(at(21, 0), event.OpDelete, at(10, 15), at(10, 20))
	del.ID = "del-1"

	got := timeline.Build(nil, nil, []event.UserEditEvent{add, del}, day())

	want := []span{
		{at(10, 0), at(10, 15), "Meeting", timeline.CoverageObserved, timeline.SourceManual},
		{at(10, 20), at(11, 0), "Meeting", timeline.CoverageObserved, timeline.SourceManual},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteWinsRegardlessOfCreationOrder(t *testing.T) {
	meeting := "Meeting"

	// Delete created before the add: the deleted sub-interval must still
	// be absent from the output.
	del := editAt(at(19, 0), event.OpDelete, at(10, 15), at(10, 20))
	del.ID = "del-1"

	add := editAt(at(20, 0), event.OpAdd, at(10, 0), at(11, 0))
	add.ID = "add-1"
	add.AppName = &meeting

	got := timeline.Build(nil, nil, []event.UserEditEvent{add, del}, day())

	for i := range got {
		iv := got[i].Interval()
		if iv.Overlaps(interval.New(at(10, 15), at(10, 20))) {
			t.Fatalf("deleted interval resurfaced in %+v", got[i])
		}
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 manual segments, got %d", len(got))
	}
}

func TestDeleteSplitsRawSegment(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	del := editAt(at(20, 0), event.OpDelete, at(10, 0), at(10, 30))
	del.ID = "del-1"

	got := timeline.Build(states, activity, []event.UserEditEvent{del}, day())

	want := []span{
		{at(9, 0), at(10, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
		{at(10, 30), at(12, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestTagsSplitWithoutChangingDuration(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	tag := "deep-work"

	tagEdit := editAt(at(20, 0), event.OpTag, at(10, 0), at(11, 0))
	tagEdit.ID = "tag-1"
	tagEdit.Tag = &tag

	before := timeline.Build(states, activity, nil, day())
	after := timeline.Build(states, activity, []event.UserEditEvent{tagEdit}, day())

	var beforeTotal, afterTotal float64

	for i := range before {
		beforeTotal += before[i].DurationSeconds
	}

	for i := range after {
		afterTotal += after[i].DurationSeconds
	}

	if beforeTotal != afterTotal {
		t.Fatalf(
			"tagging changed total duration: %v != %v",
			beforeTotal, afterTotal,
		)
	}

	if len(after) != 3 {
		t.Fatalf("expected 3 segments after tag split, got %d", len(after))
	}

	mid := after[1]
	if mid.StartUs != at(10, 0) || mid.EndUs != at(11, 0) {
		t.Fatalf("unexpected tagged piece: %+v", mid)
	}

	if diff := cmp.Diff([]string{"deep-work"}, mid.Tags); diff != "" {
		t.Fatalf("tag set mismatch (-want +got):\n%s", diff)
	}

	if len(after[0].Tags) != 0 || len(after[2].Tags) != 0 {
		t.Fatal("tag leaked outside the edit interval")
	}
}

func TestUntagRemovesOnlyInRange(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	tag := "deep-work"

	tagEdit := editAt(at(20, 0), event.OpTag, at(9, 0), at(12, 0))
	tagEdit.ID = "tag-1"
	tagEdit.Tag = &tag

	untagEdit := editAt(at(21, 0), event.OpUntag, at(10, 0), at(11, 0))
	untagEdit.ID = "untag-1"
	untagEdit.Tag = &tag

	got := timeline.Build(
		states,
		activity,
		[]event.UserEditEvent{tagEdit, untagEdit},
		day(),
	)

	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}

	if len(got[0].Tags) != 1 || len(got[2].Tags) != 1 {
		t.Fatal("tag missing outside the untagged range")
	}

	if len(got[1].Tags) != 0 {
		t.Fatalf("tag still present in untagged range: %v", got[1].Tags)
	}
}

func TestAddSupersedesRawAttribution(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	meeting := "Meeting"

	add := editAt(at(20, 0), event.OpAdd, at(10, 0), at(11, 0))
	add.ID = "add-1"
	add.AppName = &meeting

	got := timeline.Build(states, activity, []event.UserEditEvent{add}, day())

	want := []span{
		{at(9, 0), at(10, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
		{at(10, 0), at(11, 0), "Meeting", timeline.CoverageObserved, timeline.SourceManual},
		{at(11, 0), at(12, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIsOrderIndependent(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
		stateEvent(at(14, 0), true),
		stateEvent(at(16, 0), false),
	}

	activity := []event.RawActivityEvent{
		activityEvent(at(9, 0), "Editor"),
		activityEvent(at(14, 30), "Browser"),
	}

	tag := "focus"
	tagEdit := editAt(at(20, 0), event.OpTag, at(9, 30), at(15, 0))
	tagEdit.ID = "tag-1"
	tagEdit.Tag = &tag

	del := editAt(at(21, 0), event.OpDelete, at(11, 0), at(11, 30))
	del.ID = "del-1"

	edits := []event.UserEditEvent{tagEdit, del}

	forward := timeline.Build(states, activity, edits, day())

	backward := timeline.Build(
		reversed(states),
		reversed(activity),
		reversed(edits),
		day(),
	)

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Fatalf("output depends on input ordering (-forward +backward):\n%s", diff)
	}
}

func TestOpenWorkingIntervalExtendsToRangeEnd(t *testing.T) {
	states := []event.SystemStateEvent{stateEvent(at(22, 0), true)}
	activity := []event.RawActivityEvent{activityEvent(at(22, 0), "Editor")}

	got := timeline.Build(states, activity, nil, day())

	want := []span{
		{at(22, 0), at(24, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyRequestedRange(t *testing.T) {
	states := []event.SystemStateEvent{stateEvent(at(9, 0), true)}

	if got := timeline.Build(states, nil, nil, interval.New(at(10, 0), at(10, 0))); got != nil {
		t.Fatalf("expected nil for empty range, got %v", got)
	}
}

func TestSegmentsClippedToRequestedRange(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(8, 0), true),
		stateEvent(at(20, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(8, 0), "Editor")}

	got := timeline.Build(states, activity, nil, interval.New(at(9, 0), at(10, 0)))

	want := []span{
		{at(9, 0), at(10, 0), "Editor", timeline.CoverageObserved, timeline.SourceRaw},
	}

	if diff := cmp.Diff(want, spans(got), cmp.AllowUnexported(span{})); diff != "" {
		t.Fatalf("segment mismatch (-want +got):\n%s", diff)
	}
}
