package sensor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ayoisaiah/lapse/internal/event"
)

// replayRecord is the JSON-lines wire form of a notification, used to
// replay recorded sensor traces through the state machine.
type replayRecord struct {
	Type string `json:"type"`

	OnConsole bool `json:"on_console,omitempty"`
	Locked    bool `json:"locked,omitempty"`
	Known     bool `json:"known,omitempty"`

	BundleID string `json:"bundle_id,omitempty"`
	AppName  string `json:"app_name,omitempty"`
	PID      int    `json:"pid,omitempty"`

	Title  *string            `json:"title,omitempty"`
	Status *event.TitleStatus `json:"status,omitempty"`
	Poll   bool               `json:"poll,omitempty"`

	Granted bool `json:"granted,omitempty"`
	Paused  bool `json:"paused,omitempty"`

	// DelayMs is ignored by the decoder; replay hosts may use it to pace
	// delivery.
	DelayMs int64 `json:"delay_ms,omitempty"`
}

const (
	typeSession       = "session_state_changed"
	typeWillSleep     = "will_sleep"
	typeDidWake       = "did_wake"
	typeWillPowerOff  = "will_power_off"
	typeAppActivated  = "app_activated"
	typeTitleChanged  = "title_changed"
	typeAccessibility = "accessibility_changed"
	typeManualPause   = "manual_pause"
)

func (r *replayRecord) notification() (Notification, error) {
	switch r.Type {
	case typeSession:
		return SessionStateChanged{
			OnConsole: r.OnConsole,
			Locked:    r.Locked,
			Known:     r.Known,
		}, nil
	case typeWillSleep:
		return WillSleep{}, nil
	case typeDidWake:
		return DidWake{}, nil
	case typeWillPowerOff:
		return WillPowerOff{}, nil
	case typeAppActivated:
		return AppActivated{
			BundleID: r.BundleID,
			AppName:  r.AppName,
			PID:      r.PID,
		}, nil
	case typeTitleChanged:
		status := event.TitleOK
		if r.Status != nil {
			status = *r.Status
		}

		return TitleChanged{
			PID:    r.PID,
			Title:  r.Title,
			Status: status,
			Poll:   r.Poll,
		}, nil
	case typeAccessibility:
		return AccessibilityChanged{Granted: r.Granted}, nil
	case typeManualPause:
		return ManualPause{Paused: r.Paused}, nil
	default:
		return nil, fmt.Errorf("unknown notification type: %q", r.Type)
	}
}

// ReadTrace decodes a JSON-lines sensor trace into notifications.
func ReadTrace(r io.Reader) ([]Notification, error) {
	var out []Notification

	scanner := bufio.NewScanner(r)

	line := 0

	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec replayRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}

		n, err := rec.notification()
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}

		out = append(out, n)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
