package timeline

import (
	"errors"
	"sort"

	"github.com/ayoisaiah/lapse/internal/event"
)

var (
	ErrUndoTargetNotFound = errors.New(
		"undo target not found",
	)
	ErrUndoTargetAlreadyUndone = errors.New(
		"undo target already undone",
	)
)

// undoResolver decides which edits are active after undo resolution. An
// edit is undone iff at least one undo targeting it is itself active.
// When several undos target the same edit the most recent one determines
// the outcome; if that undo is itself undone, resolution falls through to
// the next most recent, and so on. Undos may target other undos, so the
// definition is mutually recursive.
type undoResolver struct {
	undosByTarget map[string][]*event.UserEditEvent
	memo          map[string]bool
	inProgress    map[string]bool
}

func newUndoResolver(edits []*event.UserEditEvent) *undoResolver {
	r := &undoResolver{
		undosByTarget: make(map[string][]*event.UserEditEvent),
		memo:          make(map[string]bool),
		inProgress:    make(map[string]bool),
	}

	for _, e := range edits {
		if e.Op != event.OpUndo || e.TargetID == nil {
			continue
		}

		r.undosByTarget[*e.TargetID] = append(r.undosByTarget[*e.TargetID], e)
	}

	// Most recent undo first; id breaks creation-time ties so that
	// resolution order never depends on input ordering.
	for _, undos := range r.undosByTarget {
		sort.Slice(undos, func(i, j int) bool {
			if undos[i].CreatedWallUs != undos[j].CreatedWallUs {
				return undos[i].CreatedWallUs > undos[j].CreatedWallUs
			}

			return undos[i].ID > undos[j].ID
		})
	}

	return r
}

// isUndone resolves the undo state of the edit with the given id.
// Malformed data can make undos target each other in a cycle; any edit
// re-entered while its own resolution is still in progress is treated as
// not undone so that resolution always terminates.
func (r *undoResolver) isUndone(id string) bool {
	if v, ok := r.memo[id]; ok {
		return v
	}

	if r.inProgress[id] {
		return false
	}

	r.inProgress[id] = true
	defer delete(r.inProgress, id)

	undone := false

	for _, undo := range r.undosByTarget[id] {
		if !r.isUndone(undo.ID) {
			undone = true
			break
		}
	}

	r.memo[id] = undone

	return undone
}

// activeEdits filters edits down to the non-undo operations that survive
// undo resolution, ordered by creation time (id as tie-break).
func activeEdits(edits []*event.UserEditEvent) []*event.UserEditEvent {
	r := newUndoResolver(edits)

	var active []*event.UserEditEvent

	for _, e := range edits {
		if e.Op == event.OpUndo {
			continue
		}

		if r.isUndone(e.ID) {
			continue
		}

		active = append(active, e)
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedWallUs != active[j].CreatedWallUs {
			return active[i].CreatedWallUs < active[j].CreatedWallUs
		}

		return active[i].ID < active[j].ID
	})

	return active
}

// ActiveEditIDs resolves the full edit log and reports which non-undo
// edits are still in effect.
func ActiveEditIDs(edits []event.UserEditEvent) map[string]bool {
	refs := make([]*event.UserEditEvent, len(edits))
	for i := range edits {
		refs[i] = &edits[i]
	}

	out := make(map[string]bool)

	for _, e := range activeEdits(refs) {
		out[e.ID] = true
	}

	return out
}

// ValidateUndo checks that targetID names an existing edit that is not
// already undone. Called before an undo_edit event is appended.
func ValidateUndo(edits []event.UserEditEvent, targetID string) error {
	refs := make([]*event.UserEditEvent, len(edits))

	found := false

	for i := range edits {
		refs[i] = &edits[i]

		if edits[i].ID == targetID {
			found = true
		}
	}

	if !found {
		return ErrUndoTargetNotFound
	}

	if newUndoResolver(refs).isUndone(targetID) {
		return ErrUndoTargetAlreadyUndone
	}

	return nil
}
