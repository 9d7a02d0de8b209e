// Package store persists the lapse event log in BoltDB. The log is
// append-only: this package exposes no update or delete entry points for
// recorded events, which is how raw-event immutability is enforced in
// lieu of database triggers.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io/fs"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/lapse/internal/event"
)

var errLapseRunning = errors.New(
	"is lapse already running? Only one instance can be active at a time",
)

var (
	bucketStateEvents    = []byte("state_events")
	bucketActivityEvents = []byte("activity_events")
	bucketEditEvents     = []byte("edit_events")
	bucketMeta           = []byte("meta")

	keyLastObservedUs = []byte("last_observed_us")
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// itob converts a bucket sequence number to a sortable big-endian key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)

	return b
}

// AppendState appends a system-state event and returns its assigned,
// monotonically increasing id.
func (c *Client) AppendState(ev *event.SystemStateEvent) (int64, error) {
	var id int64

	err := c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStateEvents)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		stored := *ev
		stored.ID = int64(seq)

		value, err := json.Marshal(&stored)
		if err != nil {
			return err
		}

		if err := b.Put(itob(seq), value); err != nil {
			return err
		}

		id = stored.ID

		return advanceLastObserved(tx, ev.WallUs)
	})

	return id, err
}

// AppendActivity appends a raw-activity event and returns its assigned id.
func (c *Client) AppendActivity(ev *event.RawActivityEvent) (int64, error) {
	var id int64

	err := c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivityEvents)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		stored := *ev
		stored.ID = int64(seq)

		value, err := json.Marshal(&stored)
		if err != nil {
			return err
		}

		if err := b.Put(itob(seq), value); err != nil {
			return err
		}

		id = stored.ID

		return advanceLastObserved(tx, ev.WallUs)
	})

	return id, err
}

// AppendEdit appends a user-edit event. Malformed ranges are rejected
// before anything is written.
func (c *Client) AppendEdit(ev *event.UserEditEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEditEvents)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		value, err := json.Marshal(ev)
		if err != nil {
			return err
		}

		return b.Put(itob(seq), value)
	})
}

// advanceLastObserved raises the last-observed watermark used for gap
// detection. It only ever moves forward.
func advanceLastObserved(tx *bolt.Tx, wallUs int64) error {
	b := tx.Bucket(bucketMeta)

	if cur := b.Get(keyLastObservedUs); cur != nil {
		if int64(binary.BigEndian.Uint64(cur)) >= wallUs {
			return nil
		}
	}

	return b.Put(keyLastObservedUs, itob(uint64(wallUs)))
}

// GetStateEvents returns the state events relevant to the range
// [startUs, endUs): every event recorded before the range end, plus gap
// events recorded later whose unobserved span reaches into the range.
// Results are ordered by (wall timestamp, id).
func (c *Client) GetStateEvents(startUs, endUs int64) ([]event.SystemStateEvent, error) {
	var out []event.SystemStateEvent

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStateEvents).ForEach(func(_, v []byte) error {
			var ev event.SystemStateEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			keep := ev.WallUs < endUs

			if ev.Kind == event.KindGapDetected {
				keep = ev.GapStartUs < endUs && ev.GapEndUs > startUs
			}

			if keep {
				out = append(out, ev)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortStateEvents(out)

	return out, nil
}

// GetActivityEvents returns the activity events whose attribution can
// reach into [startUs, endUs): everything inside the range plus the last
// event before it, since an attribution holds until the next event.
func (c *Client) GetActivityEvents(startUs, endUs int64) ([]event.RawActivityEvent, error) {
	var all []event.RawActivityEvent

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketActivityEvents).ForEach(func(_, v []byte) error {
			var ev event.RawActivityEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			if ev.WallUs < endUs {
				all = append(all, ev)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].WallUs != all[j].WallUs {
			return all[i].WallUs < all[j].WallUs
		}

		return all[i].ID < all[j].ID
	})

	// Trim to the last event at or before the range start.
	firstInside := len(all)

	for i := range all {
		if all[i].WallUs >= startUs {
			firstInside = i
			break
		}
	}

	if firstInside > 0 {
		firstInside--
	}

	return all[firstInside:], nil
}

// GetEdits returns every user edit ever recorded. Edits are read
// unbounded because an edit's effect may need resolving regardless of
// when it was created.
func (c *Client) GetEdits() ([]event.UserEditEvent, error) {
	var out []event.UserEditEvent

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEditEvents).ForEach(func(_, v []byte) error {
			var ev event.UserEditEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			out = append(out, ev)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// LastRun reports the most recent run recorded in the log and whether it
// terminated cleanly with an agent_stop event. lastObservedUs is the
// watermark of the newest event appended by any run.
func (c *Client) LastRun() (runID string, stopped bool, lastObservedUs int64, found bool, err error) {
	err = c.View(func(tx *bolt.Tx) error {
		if cur := tx.Bucket(bucketMeta).Get(keyLastObservedUs); cur != nil {
			lastObservedUs = int64(binary.BigEndian.Uint64(cur))
		}

		var (
			lastStart *event.SystemStateEvent
			stops     = map[string]bool{}
		)

		ferr := tx.Bucket(bucketStateEvents).ForEach(func(_, v []byte) error {
			var ev event.SystemStateEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}

			switch ev.Kind {
			case event.KindAgentStart:
				e := ev
				lastStart = &e
			case event.KindAgentStop:
				stops[ev.RunID] = true
			}

			return nil
		})
		if ferr != nil {
			return ferr
		}

		if lastStart != nil {
			found = true
			runID = lastStart.RunID
			stopped = stops[runID]
		}

		return nil
	})

	return runID, stopped, lastObservedUs, found, err
}

func sortStateEvents(events []event.SystemStateEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].WallUs != events[j].WallUs {
			return events[i].WallUs < events[j].WallUs
		}

		return events[i].ID < events[j].ID
	})
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errLapseRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection with the event
// buckets in place.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			bucketStateEvents,
			bucketActivityEvents,
			bucketEditEvents,
			bucketMeta,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Client{db}, nil
}
