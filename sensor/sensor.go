// Package sensor defines the closed set of notifications the OS sensor
// bridge delivers to the working-state machine. The bridge itself (session
// probing, sleep/wake observers, accessibility title capture) lives
// outside this module; lapse only consumes its typed notifications.
package sensor

import "github.com/ayoisaiah/lapse/internal/event"

// Notification is one observation delivered by the sensor bridge.
type Notification interface {
	isNotification()
}

// SessionStateChanged reports the console session's state. Known is false
// when the bridge could not determine the state; the machine resolves
// that conservatively to not-working.
type SessionStateChanged struct {
	OnConsole bool
	Locked    bool
	Known     bool
}

// WillSleep announces imminent system sleep.
type WillSleep struct{}

// DidWake announces the system waking. Session state must be re-probed,
// not assumed.
type DidWake struct{}

// WillPowerOff announces imminent shutdown.
type WillPowerOff struct{}

// AppActivated reports a foreground application change.
type AppActivated struct {
	BundleID string
	AppName  string
	PID      int
}

// TitleChanged reports a window-title read for the foreground app.
type TitleChanged struct {
	PID    int
	Title  *string
	Status event.TitleStatus
	Poll   bool // true when the read came from the poll fallback
}

// AccessibilityChanged reports the accessibility permission toggling.
type AccessibilityChanged struct {
	Granted bool
}

// ManualPause is a user-initiated pause or resume. It is a fourth gate
// ANDed into the working formula, not a sensor observation.
type ManualPause struct {
	Paused bool
}

func (SessionStateChanged) isNotification()  {}
func (WillSleep) isNotification()            {}
func (DidWake) isNotification()              {}
func (WillPowerOff) isNotification()         {}
func (AppActivated) isNotification()         {}
func (TitleChanged) isNotification()         {}
func (AccessibilityChanged) isNotification() {}
func (ManualPause) isNotification()          {}
