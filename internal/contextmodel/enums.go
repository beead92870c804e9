package contextmodel

import "encoding/json"

// TimeOfDay classifies the current instant into one of four coarse bands.
type TimeOfDay int

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
	Night
)

var timeOfDayNames = map[TimeOfDay]string{
	Morning:   "morning",
	Afternoon: "afternoon",
	Evening:   "evening",
	Night:     "night",
}

var timeOfDayFromName = map[string]TimeOfDay{
	"morning":   Morning,
	"afternoon": Afternoon,
	"evening":   Evening,
	"night":     Night,
}

func (t TimeOfDay) String() string {
	if s, ok := timeOfDayNames[t]; ok {
		return s
	}
	return "unknown"
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := timeOfDayFromName[s]; ok {
		*t = v
	}
	return nil
}

// UserState is the coarse availability classification derived by the
// user-state machine.
type UserState int

const (
	DeepWork UserState = iota
	InMeeting
	Transitioning
	Available
	Away
	WindingDown
)

var userStateNames = map[UserState]string{
	DeepWork:      "deep_work",
	InMeeting:     "in_meeting",
	Transitioning: "transitioning",
	Available:     "available",
	Away:          "away",
	WindingDown:   "winding_down",
}

var userStateFromName = map[string]UserState{
	"deep_work":     DeepWork,
	"in_meeting":    InMeeting,
	"transitioning": Transitioning,
	"available":     Available,
	"away":          Away,
	"winding_down":  WindingDown,
}

func (s UserState) String() string {
	if n, ok := userStateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s UserState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *UserState) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := userStateFromName[n]; ok {
		*s = v
	}
	return nil
}

// Blocked reports whether the state belongs to BLOCKED = {deep_work, in_meeting, away}.
func (s UserState) Blocked() bool {
	return s == DeepWork || s == InMeeting || s == Away
}

// Unblocked reports whether the state belongs to UNBLOCKED = {available, transitioning}.
func (s UserState) Unblocked() bool {
	return s == Available || s == Transitioning
}

// InterruptionMode controls how aggressively the delivery gate admits messages.
type InterruptionMode int

const (
	Focus InterruptionMode = iota
	Balanced
	Active
)

var interruptionModeNames = map[InterruptionMode]string{
	Focus:    "focus",
	Balanced: "balanced",
	Active:   "active",
}

var interruptionModeFromName = map[string]InterruptionMode{
	"focus":    Focus,
	"balanced": Balanced,
	"active":   Active,
}

func (m InterruptionMode) String() string {
	if n, ok := interruptionModeNames[m]; ok {
		return n
	}
	return "unknown"
}

func (m InterruptionMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *InterruptionMode) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, ok := interruptionModeFromName[n]
	if !ok {
		return &InvalidEnumError{Kind: "interruption mode", Value: n}
	}
	*m = v
	return nil
}

// ParseInterruptionMode validates a raw string against the enum, returning
// InvalidEnumError if it does not match a known mode.
func ParseInterruptionMode(raw string) (InterruptionMode, error) {
	v, ok := interruptionModeFromName[raw]
	if !ok {
		return 0, &InvalidEnumError{Kind: "interruption mode", Value: raw}
	}
	return v, nil
}

// CaptureMode is the sensor-side capture policy, persisted but not
// interpreted by the core beyond storage and round-trip.
type CaptureMode int

const (
	OnSwitch CaptureMode = iota
	CaptureBalanced
	Detailed
)

var captureModeNames = map[CaptureMode]string{
	OnSwitch:        "on_switch",
	CaptureBalanced: "balanced",
	Detailed:        "detailed",
}

var captureModeFromName = map[string]CaptureMode{
	"on_switch": OnSwitch,
	"balanced":  CaptureBalanced,
	"detailed":  Detailed,
}

func (m CaptureMode) String() string {
	if n, ok := captureModeNames[m]; ok {
		return n
	}
	return "unknown"
}

func (m CaptureMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *CaptureMode) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, ok := captureModeFromName[n]
	if !ok {
		return &InvalidEnumError{Kind: "capture mode", Value: n}
	}
	*m = v
	return nil
}

// ParseCaptureMode validates a raw string against the enum.
func ParseCaptureMode(raw string) (CaptureMode, error) {
	v, ok := captureModeFromName[raw]
	if !ok {
		return 0, &InvalidEnumError{Kind: "capture mode", Value: raw}
	}
	return v, nil
}

// DataQuality reflects how many context sources reported successfully on
// the last refresh.
type DataQuality int

const (
	Good DataQuality = iota
	Degraded
	Stale
)

var dataQualityNames = map[DataQuality]string{
	Good:     "good",
	Degraded: "degraded",
	Stale:    "stale",
}

func (d DataQuality) String() string {
	if n, ok := dataQualityNames[d]; ok {
		return n
	}
	return "unknown"
}

func (d DataQuality) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// InterventionType classifies a proactive message's delivery treatment.
type InterventionType int

const (
	Nudge InterventionType = iota
	Advisory
	Alert
	Ambient
	ProactiveBundle
)

var interventionTypeNames = map[InterventionType]string{
	Nudge:           "nudge",
	Advisory:        "advisory",
	Alert:           "alert",
	Ambient:         "ambient",
	ProactiveBundle: "proactive_bundle",
}

var interventionTypeFromName = map[string]InterventionType{
	"nudge":            Nudge,
	"advisory":         Advisory,
	"alert":            Alert,
	"ambient":          Ambient,
	"proactive_bundle": ProactiveBundle,
}

func (t InterventionType) String() string {
	if n, ok := interventionTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

func (t InterventionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *InterventionType) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := interventionTypeFromName[n]; ok {
		*t = v
	}
	return nil
}

// ActivityType classifies a screen observation's dominant activity.
type ActivityType int

const (
	Coding ActivityType = iota
	Browsing
	Communication
	Reading
	Design
	Terminal
	Entertainment
	Other
)

var activityTypeNames = map[ActivityType]string{
	Coding:         "coding",
	Browsing:       "browsing",
	Communication:  "communication",
	Reading:        "reading",
	Design:         "design",
	Terminal:       "terminal",
	Entertainment:  "entertainment",
	Other:          "other",
}

var activityTypeFromName = map[string]ActivityType{
	"coding":         Coding,
	"browsing":       Browsing,
	"communication":  Communication,
	"reading":        Reading,
	"design":         Design,
	"terminal":       Terminal,
	"entertainment":  Entertainment,
	"other":          Other,
}

func (a ActivityType) String() string {
	if n, ok := activityTypeNames[a]; ok {
		return n
	}
	return "unknown"
}

func (a ActivityType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *ActivityType) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := activityTypeFromName[n]; ok {
		*a = v
		return nil
	}
	*a = Other
	return nil
}

// InvalidEnumError is an InvariantViolation: a caller supplied a string that
// does not match any member of a closed enum.
type InvalidEnumError struct {
	Kind  string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return "invalid " + e.Kind + ": " + e.Value
}
