package engine

import (
	"context"
	"log/slog"

	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/lapse/internal/event"
)

// snapshot captures the current booleans and clocks into a new
// system-state event. The derived isWorking value is computed once here
// and stored, never recomputed later.
func (m *Machine) snapshot(kind event.StateKind, source event.Source) *event.SystemStateEvent {
	return &event.SystemStateEvent{
		RunID:            m.runID,
		WallUs:           m.clock.WallUs(),
		MonoNs:           m.clock.MonoNs(),
		SystemAwake:      m.systemAwake,
		SessionOnConsole: m.sessionOnConsole,
		ScreenLocked:     m.screenLocked,
		IsWorking:        m.isWorking(),
		Kind:             kind,
		Source:           source,
	}
}

// emitState records a snapshot of the given kind, running drift detection
// against the previous snapshot first.
func (m *Machine) emitState(kind event.StateKind, source event.Source) (int64, error) {
	ev := m.snapshot(kind, source)

	if err := m.checkDrift(ev); err != nil {
		return 0, err
	}

	return m.appendState(ev)
}

// appendState persists a state event and advances the drift baseline.
// Append failures are fatal to the calling operation; the machine never
// retries writes.
func (m *Machine) appendState(ev *event.SystemStateEvent) (int64, error) {
	id, err := m.store.AppendState(ev)
	if err != nil {
		return 0, err
	}

	ev.ID = id
	m.prevWallUs = ev.WallUs
	m.prevMonoNs = ev.MonoNs

	m.logger.Debug("state event recorded",
		slog.Int64("id", id),
		slog.String("kind", ev.Kind.String()),
		slog.Bool("is_working", ev.IsWorking),
	)

	return id, nil
}

// checkDrift compares the wall-clock delta since the previous snapshot to
// the monotonic delta. A deviation beyond the threshold is recorded as a
// clock_change audit event; it never alters isWorking. A monotonic clock
// running backwards means the comparison cannot be trusted, so nothing is
// emitted in that case.
func (m *Machine) checkDrift(next *event.SystemStateEvent) error {
	if m.prevWallUs == 0 && m.prevMonoNs == 0 {
		return nil
	}

	if next.MonoNs < m.prevMonoNs {
		return nil
	}

	wallDelta := float64(next.WallUs-m.prevWallUs) / 1e6
	monoDelta := float64(next.MonoNs-m.prevMonoNs) / 1e9

	drift := wallDelta - monoDelta
	if drift < 0 {
		drift = -drift
	}

	if drift <= driftThreshold.Seconds() {
		return nil
	}

	m.logger.Warn("wall clock drifted from monotonic clock",
		slog.Float64("wall_delta_sec", wallDelta),
		slog.Float64("mono_delta_sec", monoDelta),
		slog.Float64("drift_sec", drift),
	)

	ev := m.snapshot(event.KindClockChange, event.SourceAgent)
	ev.WallUs = next.WallUs
	ev.MonoNs = next.MonoNs
	ev.WallDeltaSec = wallDelta
	ev.MonoDeltaSec = monoDelta
	ev.DriftSec = drift

	_, err := m.appendState(ev)

	return err
}

// emitActivity records the current foreground context. Activity events
// exist only while working.
func (m *Machine) emitActivity(reason event.ActivityReason) error {
	ev := &event.RawActivityEvent{
		WallUs:      m.clock.WallUs(),
		MonoNs:      m.clock.MonoNs(),
		BundleID:    m.fg.bundleID,
		AppName:     m.fg.appName,
		PID:         m.fg.pid,
		Title:       m.fg.title,
		TitleStatus: m.fg.titleStatus,
		Reason:      reason,
		Working:     m.isWorking(),
	}

	id, err := m.store.AppendActivity(ev)
	if err != nil {
		return err
	}

	ev.ID = id

	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		m.logger.Debug(spew.Sdump(ev))
	}

	return nil
}
