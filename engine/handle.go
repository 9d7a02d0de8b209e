package engine

import (
	"fmt"

	"github.com/ayoisaiah/lapse/internal/event"
	"github.com/ayoisaiah/lapse/sensor"
)

// handle dispatches one notification. Transition policy: boolean changes
// are persisted only when the derived working value flips, except for the
// dedicated kinds (sleep, wake, poweroff, accessibility) which are always
// recorded.
func (m *Machine) handle(n sensor.Notification) error {
	switch v := n.(type) {
	case sensor.SessionStateChanged:
		return m.handleSessionState(v)
	case sensor.WillSleep:
		return m.handleWillSleep()
	case sensor.DidWake:
		return m.handleDidWake()
	case sensor.WillPowerOff:
		return m.handleWillPowerOff()
	case sensor.AppActivated:
		return m.handleAppActivated(v)
	case sensor.TitleChanged:
		return m.handleTitleChanged(v)
	case sensor.AccessibilityChanged:
		return m.handleAccessibility(v)
	case sensor.ManualPause:
		return m.handleManualPause(v)
	default:
		return fmt.Errorf("unhandled notification: %T", n)
	}
}

// handleSessionState covers lock, unlock, and fast user switching alike:
// the formula already yields not-working when the session leaves the
// console, so no special-casing is needed.
func (m *Machine) handleSessionState(v sensor.SessionStateChanged) error {
	onConsole, locked := v.OnConsole, v.Locked
	if !v.Known {
		onConsole = false
		locked = true
	}

	before := m.isWorking()

	m.sessionOnConsole = onConsole
	m.screenLocked = locked

	return m.flipIfChanged(before, event.SourceSession)
}

// handleWillSleep forces systemAwake off. Sleep is always recorded,
// independent of the flip-only rule. Display sleep must not arrive here:
// only genuine system sleep notifications toggle systemAwake.
func (m *Machine) handleWillSleep() error {
	before := m.isWorking()

	m.systemAwake = false

	if _, err := m.emitState(event.KindSleep, event.SourcePower); err != nil {
		return err
	}

	m.notifyFlip(before)

	return nil
}

// handleDidWake restores systemAwake and re-probes session state rather
// than assuming the session is unlocked.
func (m *Machine) handleDidWake() error {
	before := m.isWorking()

	m.systemAwake = true
	m.probeSession()

	if _, err := m.emitState(event.KindWake, event.SourcePower); err != nil {
		return err
	}

	m.notifyFlip(before)

	if !before && m.isWorking() {
		return m.emitActivity(event.ReasonWorkingBegan)
	}

	return nil
}

// handleWillPowerOff forces not-working and flushes the log while the
// host still can.
func (m *Machine) handleWillPowerOff() error {
	before := m.isWorking()

	m.systemAwake = false
	m.sessionOnConsole = false

	if _, err := m.emitState(event.KindPowerOff, event.SourcePower); err != nil {
		return err
	}

	m.notifyFlip(before)

	return m.store.Sync()
}

func (m *Machine) handleAppActivated(v sensor.AppActivated) error {
	m.fg = foreground{
		bundleID:    v.BundleID,
		appName:     v.AppName,
		pid:         v.PID,
		titleStatus: m.fg.titleStatus,
	}

	if !m.isWorking() {
		return nil
	}

	return m.emitActivity(event.ReasonAppActivated)
}

func (m *Machine) handleTitleChanged(v sensor.TitleChanged) error {
	if v.PID != m.fg.pid {
		// Stale read for an app that is no longer frontmost.
		return nil
	}

	m.fg.title = v.Title
	m.fg.titleStatus = v.Status

	if !m.isWorking() {
		return nil
	}

	reason := event.ReasonTitleChanged
	if v.Poll {
		reason = event.ReasonPollFallback
	}

	return m.emitActivity(reason)
}

// handleAccessibility records the permission toggle. Losing the
// permission degrades title capture but never stops tracking, so
// isWorking is untouched.
func (m *Machine) handleAccessibility(v sensor.AccessibilityChanged) error {
	kind := event.KindAccessibilityDenied
	if v.Granted {
		kind = event.KindAccessibilityGranted
	}

	if !v.Granted {
		m.fg.title = nil
		m.fg.titleStatus = event.TitleNoPermission
	}

	if _, err := m.emitState(kind, event.SourceSession); err != nil {
		return err
	}

	if m.hooks.OnAccessibility != nil {
		m.hooks.OnAccessibility(v.Granted)
	}

	return nil
}

// handleManualPause is the fourth gate in the working formula. It
// follows the same flip-only emission policy, sourced as manual.
func (m *Machine) handleManualPause(v sensor.ManualPause) error {
	before := m.isWorking()

	m.manualPause = v.Paused

	return m.flipIfChanged(before, event.SourceManual)
}

// flipIfChanged persists a state_change snapshot only when the derived
// working value actually flipped, then emits the working_began activity
// snapshot on a false→true transition.
func (m *Machine) flipIfChanged(before bool, source event.Source) error {
	after := m.isWorking()
	if after == before {
		return nil
	}

	if _, err := m.emitState(event.KindStateChange, source); err != nil {
		return err
	}

	m.notifyFlip(before)

	if after {
		return m.emitActivity(event.ReasonWorkingBegan)
	}

	return nil
}

func (m *Machine) notifyFlip(before bool) {
	after := m.isWorking()
	if after != before && m.hooks.OnFlip != nil {
		m.hooks.OnFlip(after)
	}
}
