package timeline_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/timeline"
)

func edit(id string, createdUs int64, op event.EditOp) event.UserEditEvent {
	return event.UserEditEvent{
		ID:            id,
		Author:        "tester",
		CreatedWallUs: createdUs,
		CreatedMonoNs: createdUs * 1000,
		Op:            op,
		StartUs:       at(10, 0),
		EndUs:         at(11, 0),
	}
}

func undoOf(id string, createdUs int64, targetID string) event.UserEditEvent {
	e := edit(id, createdUs, event.OpUndo)
	e.TargetID = &targetID

	return e
}

func TestUndoChains(t *testing.T) {
	testCases := []struct {
		name  string
		edits []event.UserEditEvent
		want  map[string]bool
	}{
		{
			name: "plain undo deactivates its target",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "A"),
			},
			want: map[string]bool{},
		},
		{
			name: "undo of an undo reactivates the edit",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "A"),
				undoOf("C", 3, "B"),
			},
			want: map[string]bool{"A": true},
		},
		{
			name: "four levels deep deactivates again",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "A"),
				undoOf("C", 3, "B"),
				undoOf("D", 4, "C"),
			},
			want: map[string]bool{},
		},
		{
			name: "most recent undo decides among siblings",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "A"),
				undoOf("C", 3, "A"),
				undoOf("D", 4, "C"),
			},
			// C is the most recent undo of A but is itself undone by D,
			// so resolution falls through to B, which still holds.
			want: map[string]bool{},
		},
		{
			name: "unrelated edits are untouched",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				edit("X", 2, event.OpAdd),
				undoOf("B", 3, "A"),
			},
			want: map[string]bool{"X": true},
		},
		{
			name: "undo cycle resolves as not undone",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "C"),
				undoOf("C", 3, "B"),
			},
			want: map[string]bool{"A": true},
		},
		{
			name: "cycle does not leak into a real chain",
			edits: []event.UserEditEvent{
				edit("A", 1, event.OpDelete),
				undoOf("B", 2, "C"),
				undoOf("C", 3, "B"),
				undoOf("D", 4, "A"),
			},
			want: map[string]bool{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := timeline.ActiveEditIDs(tc.edits)

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("active edits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUndoResolutionIgnoresInputOrder(t *testing.T) {
	edits := []event.UserEditEvent{
		edit("A", 1, event.OpDelete),
		undoOf("B", 2, "A"),
		undoOf("C", 3, "A"),
		undoOf("D", 4, "C"),
		edit("X", 5, event.OpAdd),
	}

	forward := timeline.ActiveEditIDs(edits)
	backward := timeline.ActiveEditIDs(reversed(edits))

	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Fatalf("resolution depends on input ordering:\n%s", diff)
	}
}

func TestValidateUndo(t *testing.T) {
	edits := []event.UserEditEvent{
		edit("A", 1, event.OpDelete),
		undoOf("B", 2, "A"),
		edit("X", 3, event.OpTag),
	}

	if err := timeline.ValidateUndo(edits, "X"); err != nil {
		t.Fatalf("expected X to be a valid target, got %v", err)
	}

	// Undos themselves are valid targets while still active.
	if err := timeline.ValidateUndo(edits, "B"); err != nil {
		t.Fatalf("expected B to be a valid target, got %v", err)
	}

	err := timeline.ValidateUndo(edits, "missing")
	if !errors.Is(err, timeline.ErrUndoTargetNotFound) {
		t.Fatalf("expected ErrUndoTargetNotFound, got %v", err)
	}

	err = timeline.ValidateUndo(edits, "A")
	if !errors.Is(err, timeline.ErrUndoTargetAlreadyUndone) {
		t.Fatalf("expected ErrUndoTargetAlreadyUndone, got %v", err)
	}
}

func TestUndoRestoresDeletedTime(t *testing.T) {
	states := []event.SystemStateEvent{
		stateEvent(at(9, 0), true),
		stateEvent(at(12, 0), false),
	}

	activity := []event.RawActivityEvent{activityEvent(at(9, 0), "Editor")}

	del := edit("del-1", at(20, 0), event.OpDelete)
	undo := undoOf("undo-1", at(21, 0), "del-1")

	plain := timeline.Build(states, activity, nil, day())
	restored := timeline.Build(
		states,
		activity,
		[]event.UserEditEvent{del, undo},
		day(),
	)

	if diff := cmp.Diff(plain, restored); diff != "" {
		t.Fatalf("undone delete still affects output:\n%s", diff)
	}
}
