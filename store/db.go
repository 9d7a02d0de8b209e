package store

import "github.com/ayoisaiah/lapse/internal/event"

// DB is the event-log storage interface. Recorded events can only be
// appended and read; there are deliberately no update or delete methods.
type DB interface {
	// AppendState appends a system-state event and returns its id.
	AppendState(ev *event.SystemStateEvent) (int64, error)
	// AppendActivity appends a raw-activity event and returns its id.
	AppendActivity(ev *event.RawActivityEvent) (int64, error)
	// AppendEdit appends a user-edit event after validating its range.
	AppendEdit(ev *event.UserEditEvent) error
	// GetStateEvents returns state events relevant to a time range.
	GetStateEvents(startUs, endUs int64) ([]event.SystemStateEvent, error)
	// GetActivityEvents returns activity events relevant to a time range.
	GetActivityEvents(startUs, endUs int64) ([]event.RawActivityEvent, error)
	// GetEdits returns all user edits, unbounded.
	GetEdits() ([]event.UserEditEvent, error)
	// LastRun reports the most recent run and whether it stopped cleanly.
	LastRun() (runID string, stopped bool, lastObservedUs int64, found bool, err error)
	// Sync forces a durable flush of the log.
	Sync() error
	// Close ends the database connection.
	Close() error
}

var _ DB = (*Client)(nil)
