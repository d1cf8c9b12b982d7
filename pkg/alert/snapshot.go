// Package alert reads the driver-state feed produced by the in-cabin camera
// models.
package alert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Feed document keys.
const (
	KeyActivity    = "Activity Alert"
	KeyHands       = "HOW Alert"
	KeyHealth      = "Health Alert"
	KeyDistraction = "Distraction Alert"
	KeyFatigue     = "Fatigue Alert"
	KeySleep       = "Sleep Alert"
)

// Safe values. A missing field reads as its safe value.
const (
	ActivitySafe = "safe driving"
	HandsOn      = "on_wheel"
	Off          = "off"
	On           = "on"
)

// Snapshot is one read of the feed. String fields are lower-cased.
type Snapshot struct {
	Activity    string
	Hands       string
	Health      string
	Distraction string
	Fatigue     bool
	Sleep       bool
}

// SafeSnapshot is what an empty feed document means.
func SafeSnapshot() Snapshot {
	return Snapshot{Activity: ActivitySafe, Hands: HandsOn, Health: Off, Distraction: Off}
}

// Drowsy reports a fatigue or sleep condition.
func (s Snapshot) Drowsy() bool {
	return s.Fatigue || s.Sleep
}

// Safe is true only when every observed signal is at its safe value.
func (s Snapshot) Safe() bool {
	return s.Activity == ActivitySafe &&
		s.Distraction == Off &&
		s.Hands == HandsOn &&
		s.Health == Off
}

// AdvisoryPrompt is the one-shot prompt asking for a short safety tip.
func (s Snapshot) AdvisoryPrompt() string {
	return fmt.Sprintf("Driver activity: %s. "+
		"Distraction alert: %s. "+
		"Hands on or off wheel: %s. "+
		"Health alert: %s. "+
		"Based on these observations, provide a short, polite safety instruction in 20 words or less. "+
		"The tone should be clear and supportive. Avoid generic advice.",
		s.Activity, s.Distraction, s.Hands, s.Health)
}

// Parse decodes a feed document.
func Parse(data []byte) (Snapshot, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return Snapshot{}, fmt.Errorf("decode alert document: %w", err)
	}
	return FromMap(m), nil
}

// FromMap normalizes a decoded feed document. Sleep Alert is canonically a
// boolean; the strings "true", "on" and "yes" are also accepted. Fatigue
// Alert is "on"/"off" and maps to the same boolean form.
func FromMap(m map[string]interface{}) Snapshot {
	s := SafeSnapshot()
	if v := str(m[KeyActivity]); v != "" {
		s.Activity = v
	}
	if v := str(m[KeyHands]); v != "" {
		s.Hands = v
	}
	if v := str(m[KeyHealth]); v != "" {
		s.Health = v
	}
	if v := str(m[KeyDistraction]); v != "" {
		s.Distraction = v
	}
	s.Fatigue = truthy(m[KeyFatigue])
	s.Sleep = truthy(m[KeySleep])
	return s
}

// Map is the feed document form of s.
func (s Snapshot) Map() map[string]interface{} {
	fatigue := Off
	if s.Fatigue {
		fatigue = On
	}
	return map[string]interface{}{
		KeyActivity:    s.Activity,
		KeyHands:       s.Hands,
		KeyHealth:      s.Health,
		KeyDistraction: s.Distraction,
		KeyFatigue:     fatigue,
		KeySleep:       s.Sleep,
	}
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(t))
	case bool:
		if t {
			return On
		}
		return Off
	case nil:
		return ""
	default:
		return strings.ToLower(fmt.Sprint(t))
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "on", "yes":
			return true
		}
	}
	return false
}
