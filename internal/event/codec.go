package event

import "fmt"

// The enumerations below are tagged variants in memory and strings only at
// the storage boundary. The text codecs here are the single place raw
// strings are produced or consumed; core logic never matches on them.

// StateKind identifies what a system-state snapshot records.
type StateKind uint8

const (
	KindStateChange StateKind = iota
	KindAgentStart
	KindAgentStop
	KindSleep
	KindWake
	KindPowerOff
	KindGapDetected
	KindClockChange
	KindTZChange
	KindAccessibilityGranted
	KindAccessibilityDenied
)

var stateKindNames = map[StateKind]string{
	KindStateChange:          "state_change",
	KindAgentStart:           "agent_start",
	KindAgentStop:            "agent_stop",
	KindSleep:                "sleep",
	KindWake:                 "wake",
	KindPowerOff:             "poweroff",
	KindGapDetected:          "gap_detected",
	KindClockChange:          "clock_change",
	KindTZChange:             "tz_change",
	KindAccessibilityGranted: "accessibility_granted",
	KindAccessibilityDenied:  "accessibility_denied",
}

func (k StateKind) String() string {
	if s, ok := stateKindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("StateKind(%d)", uint8(k))
}

func (k StateKind) MarshalText() ([]byte, error) {
	s, ok := stateKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown state kind: %d", uint8(k))
	}

	return []byte(s), nil
}

func (k *StateKind) UnmarshalText(b []byte) error {
	for v, s := range stateKindNames {
		if s == string(b) {
			*k = v
			return nil
		}
	}

	return fmt.Errorf("unknown state kind: %q", string(b))
}

// Source identifies the channel a snapshot originated from.
type Source uint8

const (
	SourceSession Source = iota
	SourcePower
	SourceAgent
	SourceManual
)

var sourceNames = map[Source]string{
	SourceSession: "session",
	SourcePower:   "power",
	SourceAgent:   "agent",
	SourceManual:  "manual",
}

func (s Source) String() string {
	if v, ok := sourceNames[s]; ok {
		return v
	}

	return fmt.Sprintf("Source(%d)", uint8(s))
}

func (s Source) MarshalText() ([]byte, error) {
	v, ok := sourceNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown source: %d", uint8(s))
	}

	return []byte(v), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	for v, name := range sourceNames {
		if name == string(b) {
			*s = v
			return nil
		}
	}

	return fmt.Errorf("unknown source: %q", string(b))
}

// TitleStatus reports the outcome of a window-title read.
type TitleStatus uint8

const (
	TitleOK TitleStatus = iota
	TitleNoPermission
	TitleNotSupported
	TitleNoWindow
	TitleError
)

var titleStatusNames = map[TitleStatus]string{
	TitleOK:           "ok",
	TitleNoPermission: "no_permission",
	TitleNotSupported: "not_supported",
	TitleNoWindow:     "no_window",
	TitleError:        "error",
}

func (s TitleStatus) String() string {
	if v, ok := titleStatusNames[s]; ok {
		return v
	}

	return fmt.Sprintf("TitleStatus(%d)", uint8(s))
}

func (s TitleStatus) MarshalText() ([]byte, error) {
	v, ok := titleStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown title status: %d", uint8(s))
	}

	return []byte(v), nil
}

func (s *TitleStatus) UnmarshalText(b []byte) error {
	for v, name := range titleStatusNames {
		if name == string(b) {
			*s = v
			return nil
		}
	}

	return fmt.Errorf("unknown title status: %q", string(b))
}

// ActivityReason records why an activity snapshot was taken.
type ActivityReason uint8

const (
	ReasonWorkingBegan ActivityReason = iota
	ReasonAppActivated
	ReasonTitleChanged
	ReasonPollFallback
)

var activityReasonNames = map[ActivityReason]string{
	ReasonWorkingBegan: "working_began",
	ReasonAppActivated: "app_activated",
	ReasonTitleChanged: "title_changed",
	ReasonPollFallback: "poll_fallback",
}

func (r ActivityReason) String() string {
	if v, ok := activityReasonNames[r]; ok {
		return v
	}

	return fmt.Sprintf("ActivityReason(%d)", uint8(r))
}

func (r ActivityReason) MarshalText() ([]byte, error) {
	v, ok := activityReasonNames[r]
	if !ok {
		return nil, fmt.Errorf("unknown activity reason: %d", uint8(r))
	}

	return []byte(v), nil
}

func (r *ActivityReason) UnmarshalText(b []byte) error {
	for v, name := range activityReasonNames {
		if name == string(b) {
			*r = v
			return nil
		}
	}

	return fmt.Errorf("unknown activity reason: %q", string(b))
}

// EditOp is the operation a user edit performs.
type EditOp uint8

const (
	OpDelete EditOp = iota
	OpAdd
	OpTag
	OpUntag
	OpUndo
)

var editOpNames = map[EditOp]string{
	OpDelete: "delete_range",
	OpAdd:    "add_range",
	OpTag:    "tag_range",
	OpUntag:  "untag_range",
	OpUndo:   "undo_edit",
}

func (o EditOp) String() string {
	if v, ok := editOpNames[o]; ok {
		return v
	}

	return fmt.Sprintf("EditOp(%d)", uint8(o))
}

func (o EditOp) MarshalText() ([]byte, error) {
	v, ok := editOpNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown edit op: %d", uint8(o))
	}

	return []byte(v), nil
}

func (o *EditOp) UnmarshalText(b []byte) error {
	for v, name := range editOpNames {
		if name == string(b) {
			*o = v
			return nil
		}
	}

	return fmt.Errorf("unknown edit op: %q", string(b))
}
