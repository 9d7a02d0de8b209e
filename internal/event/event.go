// Package event defines the immutable facts that make up the lapse event
// log: system-state snapshots, raw activity observations, and user edits.
// Events are append-only. Nothing in this package or its consumers mutates
// or deletes an event once it has been recorded.
package event

import (
	"errors"

	"github.com/ayoisaiah/lapse/internal/interval"
)

var ErrInvalidEditRange = errors.New(
	"edit range is invalid: end must be after start",
)

// SystemStateEvent is a snapshot of the observation booleans recorded by
// the working-state machine. Created once, never mutated.
type SystemStateEvent struct {
	// ID is assigned by the store on append and increases monotonically.
	ID int64 `json:"id"`

	RunID string `json:"run_id"`

	WallUs int64 `json:"wall_us"`
	MonoNs int64 `json:"mono_ns"`

	SystemAwake      bool `json:"system_awake"`
	SessionOnConsole bool `json:"session_on_console"`
	ScreenLocked     bool `json:"screen_locked"`

	// IsWorking is the derived working value at emission time. It is
	// stored, not recomputed later.
	IsWorking bool `json:"is_working"`

	Kind   StateKind `json:"kind"`
	Source Source    `json:"source"`

	// Gap payload, set only for KindGapDetected.
	GapStartUs int64 `json:"gap_start_us,omitempty"`
	GapEndUs   int64 `json:"gap_end_us,omitempty"`

	// Clock payload, set only for KindClockChange.
	WallDeltaSec float64 `json:"wall_delta_sec,omitempty"`
	MonoDeltaSec float64 `json:"mono_delta_sec,omitempty"`
	DriftSec     float64 `json:"drift_sec,omitempty"`
}

// GapInterval returns the unobserved span carried by a gap event.
func (e *SystemStateEvent) GapInterval() interval.Interval {
	return interval.New(e.GapStartUs, e.GapEndUs)
}

// RawActivityEvent records which application held focus at a point in
// time. Emitted only while the derived working state is true.
type RawActivityEvent struct {
	ID int64 `json:"id"`

	WallUs int64 `json:"wall_us"`
	MonoNs int64 `json:"mono_ns"`

	// BundleID is the stable application key; AppName the display name.
	BundleID string `json:"bundle_id"`
	AppName  string `json:"app_name"`
	PID      int    `json:"pid"`

	// Title is present only when TitleStatus is TitleOK.
	Title       *string     `json:"title,omitempty"`
	TitleStatus TitleStatus `json:"title_status"`

	Reason  ActivityReason `json:"reason"`
	Working bool           `json:"working"`
}

// UserEditEvent is one user action layered over the raw timeline. An undo
// is itself just another edit event, which is what makes multi-level undo
// possible.
type UserEditEvent struct {
	ID     string `json:"id"`
	Author string `json:"author"`

	CreatedWallUs int64 `json:"created_wall_us"`
	CreatedMonoNs int64 `json:"created_mono_ns"`

	Op EditOp `json:"op"`

	// Target interval. For OpUndo this mirrors the targeted edit's
	// interval.
	StartUs int64 `json:"start_us"`
	EndUs   int64 `json:"end_us"`

	Tag *string `json:"tag,omitempty"`

	// Manual attribution, used only by OpAdd.
	BundleID *string `json:"bundle_id,omitempty"`
	AppName  *string `json:"app_name,omitempty"`
	Title    *string `json:"title,omitempty"`

	Note *string `json:"note,omitempty"`

	// TargetID references the edit an OpUndo targets.
	TargetID *string `json:"target_id,omitempty"`
}

// Interval returns the edit's target interval.
func (e *UserEditEvent) Interval() interval.Interval {
	return interval.New(e.StartUs, e.EndUs)
}

// Validate rejects malformed edits before they reach the store.
func (e *UserEditEvent) Validate() error {
	if e.EndUs <= e.StartUs {
		return ErrInvalidEditRange
	}

	return nil
}
