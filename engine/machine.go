// Package engine derives the boolean working signal from raw
// session/sleep/lock observations and decides when to append events to
// the log. The machine is a single logical actor: every notification is
// handled on one goroutine inside Run, so boolean-flip detection and
// event emission can never interleave or race.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/internal/interval"
	"github.com/ayoisaiah/lapse/sensor"
)

// driftThreshold is the wall-vs-monotonic deviation beyond which a
// clock_change audit event is recorded.
const driftThreshold = 120 * time.Second

// Clock supplies wall and monotonic time. Split out so tests can drive
// the machine deterministically.
type Clock interface {
	WallUs() int64
	MonoNs() int64
}

// SystemClock reads the host clocks.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) WallUs() int64 { return time.Now().UTC().UnixMicro() }

func (c *SystemClock) MonoNs() int64 { return int64(time.Since(c.start)) }

// Prober re-reads the console session state on demand. Wake handling must
// re-probe rather than assume the session is unlocked.
type Prober interface {
	ProbeSession() (onConsole, locked, known bool)
}

// Appender is the store surface the machine writes through. It is
// append-only: no update or delete operations exist.
type Appender interface {
	AppendState(ev *event.SystemStateEvent) (int64, error)
	AppendActivity(ev *event.RawActivityEvent) (int64, error)

	// LastRun reports the most recent prior run and whether it recorded
	// a matching stop event. found is false for a fresh log.
	LastRun() (runID string, stopped bool, lastObservedUs int64, found bool, err error)

	// Sync forces a durable flush of the event log.
	Sync() error
}

// Hooks are optional callbacks the host wires in. They run on the
// machine's goroutine and must not block.
type Hooks struct {
	// OnFlip fires whenever the derived working value changes.
	OnFlip func(working bool)

	// OnGap fires when an abnormal prior-run termination is detected.
	OnGap func(gap interval.Interval)

	// OnAccessibility fires when the accessibility permission toggles.
	OnAccessibility func(granted bool)
}

// foreground is the machine's view of the current frontmost application.
type foreground struct {
	bundleID    string
	appName     string
	pid         int
	title       *string
	titleStatus event.TitleStatus
}

// Machine owns all mutable tracking state. Create with New, drive with
// Run.
type Machine struct {
	clock  Clock
	store  Appender
	prober Prober
	hooks  Hooks
	logger *slog.Logger

	runID string

	systemAwake      bool
	sessionOnConsole bool
	screenLocked     bool
	manualPause      bool

	fg foreground

	// Previous snapshot clocks, for drift detection. Zero until the
	// first snapshot is recorded.
	prevWallUs int64
	prevMonoNs int64
}

// New returns a machine ready to Run. logger may be nil.
func New(clock Clock, store Appender, prober Prober, hooks Hooks, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Machine{
		clock:  clock,
		store:  store,
		prober: prober,
		hooks:  hooks,
		logger: logger,
		runID:  uuid.NewString(),

		// Conservative until the first probe: unknown session data never
		// yields positive working time.
		systemAwake:      true,
		sessionOnConsole: false,
		screenLocked:     true,
	}
}

// RunID identifies this machine run in the event log.
func (m *Machine) RunID() string { return m.runID }

// isWorking applies the single authoritative derivation rule.
func (m *Machine) isWorking() bool {
	return m.systemAwake &&
		m.sessionOnConsole &&
		!m.screenLocked &&
		!m.manualPause
}

// Run performs startup detection, then serializes notifications until ctx
// is cancelled. On shutdown it records the final stop snapshot before
// returning, so the host must keep the store open until Run returns. A
// persistence failure aborts the run with the underlying error.
func (m *Machine) Run(ctx context.Context, notifs <-chan sensor.Notification) error {
	if err := m.startup(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return m.shutdown()
		case n, ok := <-notifs:
			if !ok {
				return m.shutdown()
			}

			if err := m.handle(n); err != nil {
				return err
			}
		}
	}
}

// startup checks the previous run for abnormal termination, then records
// this run's agent_start snapshot from freshly probed state.
func (m *Machine) startup() error {
	prevRunID, stopped, lastObservedUs, found, err := m.store.LastRun()
	if err != nil {
		return err
	}

	now := m.clock.WallUs()

	if found && !stopped {
		gap := interval.New(lastObservedUs, now)

		m.logger.Warn("previous run terminated abnormally",
			slog.String("run_id", prevRunID),
			slog.Int64("gap_start_us", gap.StartUs),
			slog.Int64("gap_end_us", gap.EndUs),
		)

		ev := m.snapshot(event.KindGapDetected, event.SourceAgent)
		ev.GapStartUs = gap.StartUs
		ev.GapEndUs = gap.EndUs

		if _, err := m.appendState(ev); err != nil {
			return err
		}

		if m.hooks.OnGap != nil {
			m.hooks.OnGap(gap)
		}
	}

	m.probeSession()

	if _, err := m.emitState(event.KindAgentStart, event.SourceAgent); err != nil {
		return err
	}

	if m.isWorking() {
		return m.emitActivity(event.ReasonWorkingBegan)
	}

	return nil
}

// shutdown records the final stop snapshot.
func (m *Machine) shutdown() error {
	_, err := m.emitState(event.KindAgentStop, event.SourceAgent)
	return err
}

// probeSession refreshes the session booleans from the prober, resolving
// unknown state conservatively to not-working.
func (m *Machine) probeSession() {
	onConsole, locked, known := m.prober.ProbeSession()
	if !known {
		onConsole = false
		locked = true
	}

	m.sessionOnConsole = onConsole
	m.screenLocked = locked
}
