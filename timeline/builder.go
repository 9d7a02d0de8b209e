// Package timeline folds the append-only event log and the layered user
// edits into a conflict-resolved sequence of attributed time segments.
// Build is a pure function: identical inputs produce identical output, no
// matter how the input slices are ordered, and nothing here performs I/O.
package timeline

import (
	"sort"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/internal/interval"
)

// Build derives the effective segments for the requested range from raw
// system-state events, raw activity events, and the full edit log. Edits
// are passed unbounded because an edit created long after a range can
// still affect it.
func Build(
	states []event.SystemStateEvent,
	activity []event.RawActivityEvent,
	edits []event.UserEditEvent,
	requested interval.Interval,
) []Segment {
	if requested.Empty() {
		return nil
	}

	states = sortedStates(states)
	activity = sortedActivity(activity)

	working := workingIntervals(states, requested)
	segments := baseSegments(activity, working, requested)
	segments = applyGaps(segments, states, requested)
	segments = applyEdits(segments, edits, requested)

	return cleanup(segments)
}

func sortedStates(states []event.SystemStateEvent) []event.SystemStateEvent {
	out := append([]event.SystemStateEvent(nil), states...)

	sort.Slice(out, func(i, j int) bool {
		if out[i].WallUs != out[j].WallUs {
			return out[i].WallUs < out[j].WallUs
		}

		return out[i].ID < out[j].ID
	})

	return out
}

func sortedActivity(activity []event.RawActivityEvent) []event.RawActivityEvent {
	out := append([]event.RawActivityEvent(nil), activity...)

	sort.Slice(out, func(i, j int) bool {
		if out[i].WallUs != out[j].WallUs {
			return out[i].WallUs < out[j].WallUs
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// workingIntervals walks the sorted state events, opening an interval
// when the stored isWorking snapshot becomes true and closing it when it
// becomes false. An interval still open at the last event extends to the
// end of the requested range. Results are clipped to the range.
func workingIntervals(
	states []event.SystemStateEvent,
	requested interval.Interval,
) []interval.Interval {
	var (
		out     []interval.Interval
		openAt  int64
		working bool
	)

	for i := range states {
		ev := &states[i]

		switch {
		case ev.IsWorking && !working:
			openAt = ev.WallUs
			working = true
		case !ev.IsWorking && working:
			out = append(out, interval.New(openAt, ev.WallUs))
			working = false
		}
	}

	if working {
		out = append(out, interval.New(openAt, requested.EndUs))
	}

	var clipped []interval.Interval

	for _, iv := range out {
		if c, ok := iv.Intersect(requested); ok {
			clipped = append(clipped, c)
		}
	}

	return clipped
}

// baseSegments assumes each activity event's attribution holds from its
// own timestamp until the next event (or range end), then intersects that
// provisional span with every working interval. A span that straddles a
// not-working gap is attributed in the working portions only.
func baseSegments(
	activity []event.RawActivityEvent,
	working []interval.Interval,
	requested interval.Interval,
) []Segment {
	var out []Segment

	for i := range activity {
		ev := &activity[i]

		spanEnd := requested.EndUs
		if i+1 < len(activity) {
			spanEnd = activity[i+1].WallUs
		}

		span := interval.New(ev.WallUs, spanEnd)

		for _, w := range working {
			piece, ok := span.Intersect(w)
			if !ok {
				continue
			}

			piece, ok = piece.Intersect(requested)
			if !ok {
				continue
			}

			out = append(out, Segment{
				StartUs:    piece.StartUs,
				EndUs:      piece.EndUs,
				Source:     SourceRaw,
				BundleID:   ev.BundleID,
				AppName:    ev.AppName,
				Title:      ev.Title,
				Coverage:   CoverageObserved,
				SupportIDs: []string{activitySupport(ev.ID)},
			})
		}
	}

	return out
}

// applyGaps carves every gap_detected interval out of the attributed
// segments and emits it as an unobserved_gap segment, so reporting can
// distinguish "the agent was not running" from ordinary not-working time.
func applyGaps(
	segments []Segment,
	states []event.SystemStateEvent,
	requested interval.Interval,
) []Segment {
	for i := range states {
		ev := &states[i]

		if ev.Kind != event.KindGapDetected {
			continue
		}

		gap, ok := ev.GapInterval().Intersect(requested)
		if !ok {
			continue
		}

		// Carve the gap out of everything already emitted, observed
		// segments and earlier gaps alike, to preserve non-overlap.
		segments = subtractFromAll(segments, gap)

		segments = append(segments, Segment{
			StartUs:    gap.StartUs,
			EndUs:      gap.EndUs,
			Source:     SourceRaw,
			Coverage:   CoverageUnobservedGap,
			SupportIDs: []string{stateSupport(ev.ID)},
		})
	}

	return segments
}

// applyEdits layers the active edits over the segments in strict order:
// deletes first, then manual adds, then tag operations. Deleted intervals
// are remembered so that a delete always wins over a manual add covering
// the same time, regardless of creation order.
func applyEdits(
	segments []Segment,
	edits []event.UserEditEvent,
	requested interval.Interval,
) []Segment {
	refs := make([]*event.UserEditEvent, len(edits))
	for i := range edits {
		refs[i] = &edits[i]
	}

	active := activeEdits(refs)

	var deleted []interval.Interval

	for _, e := range active {
		if e.Op != event.OpDelete {
			continue
		}

		segments = subtractFromAll(segments, e.Interval())
		deleted = append(deleted, e.Interval())
	}

	for _, e := range active {
		if e.Op != event.OpAdd {
			continue
		}

		add, ok := e.Interval().Intersect(requested)
		if !ok {
			continue
		}

		// The add supersedes whatever attribution occupied that time.
		segments = subtractFromAll(segments, add)

		// Its own coverage excludes every recorded deletion.
		for _, piece := range add.SubtractAll(deleted) {
			seg := Segment{
				StartUs:    piece.StartUs,
				EndUs:      piece.EndUs,
				Source:     SourceManual,
				Coverage:   CoverageObserved,
				SupportIDs: []string{editSupport(e.ID)},
			}

			if e.BundleID != nil {
				seg.BundleID = *e.BundleID
			}

			if e.AppName != nil {
				seg.AppName = *e.AppName
			}

			seg.Title = e.Title

			segments = append(segments, seg)
		}
	}

	for _, e := range active {
		switch e.Op {
		case event.OpTag, event.OpUntag:
			segments = applyTag(segments, e)
		}
	}

	return segments
}

// applyTag splits every overlapping segment into up to three pieces and
// adjusts the tag set of the overlap piece only. Tags never change the
// total attributed duration.
func applyTag(segments []Segment, e *event.UserEditEvent) []Segment {
	if e.Tag == nil {
		return segments
	}

	target := e.Interval()

	var out []Segment

	for i := range segments {
		seg := &segments[i]

		overlap, ok := seg.Interval().Intersect(target)
		if !ok {
			out = append(out, *seg)
			continue
		}

		if before := interval.New(seg.StartUs, overlap.StartUs); !before.Empty() {
			out = append(out, seg.withInterval(before))
		}

		mid := seg.withInterval(overlap)
		if e.Op == event.OpTag {
			mid.Tags = addTag(mid.Tags, *e.Tag)
		} else {
			mid.Tags = removeTag(mid.Tags, *e.Tag)
		}

		mid.SupportIDs = append(mid.SupportIDs, editSupport(e.ID))
		out = append(out, mid)

		if after := interval.New(overlap.EndUs, seg.EndUs); !after.Empty() {
			out = append(out, seg.withInterval(after))
		}
	}

	return out
}

func subtractFromAll(segments []Segment, iv interval.Interval) []Segment {
	var out []Segment

	for i := range segments {
		seg := &segments[i]

		for _, piece := range seg.Interval().Subtract(iv) {
			out = append(out, seg.withInterval(piece))
		}
	}

	return out
}

// addTag inserts tag into tags, keeping the slice ordered and free of
// duplicates.
func addTag(tags []string, tag string) []string {
	i := sort.SearchStrings(tags, tag)
	if i < len(tags) && tags[i] == tag {
		return tags
	}

	tags = append(tags, "")
	copy(tags[i+1:], tags[i:])
	tags[i] = tag

	return tags
}

func removeTag(tags []string, tag string) []string {
	i := sort.SearchStrings(tags, tag)
	if i >= len(tags) || tags[i] != tag {
		return tags
	}

	return append(tags[:i], tags[i+1:]...)
}

// cleanup drops empty segments, derives durations, and imposes the final
// (start, end) ordering.
func cleanup(segments []Segment) []Segment {
	var out []Segment

	for i := range segments {
		seg := segments[i]

		if seg.Interval().Empty() {
			continue
		}

		seg.DurationSeconds = seg.Interval().Seconds()
		out = append(out, seg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartUs != out[j].StartUs {
			return out[i].StartUs < out[j].StartUs
		}

		return out[i].EndUs < out[j].EndUs
	})

	return out
}
