// Package session holds the single live assistant state shared between the
// orchestrator goroutine and the UI-facing control entry points.
package session

import (
	"sync"
	"sync/atomic"
)

// Mode is the session's top-level behavior state.
type Mode string

const (
	ModeMonitoring Mode = "MONITORING"
	ModeAssistance Mode = "ASSISTANCE"
	ModeCheckUp    Mode = "CHECK_UP"
	ModeEmergency  Mode = "EMERGENCY"
)

// Session is created once at process start and lives until exit.
//
// mode and micPressed are written by both the UI goroutines and the
// orchestrator. The monitoring flags and the location override are also
// reachable from the control API, so every field is synchronized; no
// multi-field transaction is offered because each is read at the top of a pass.
type Session struct {
	mu               sync.RWMutex
	mode             Mode
	locationOverride string

	micPressed           atomic.Bool
	monitoringEnabled    atomic.Bool
	voiceFeedbackEnabled atomic.Bool
}

// New returns a session in Monitoring with both monitoring flags on.
func New() *Session {
	s := &Session{mode: ModeMonitoring}
	s.monitoringEnabled.Store(true)
	s.voiceFeedbackEnabled.Store(true)
	return s
}

func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// ResetToMonitoring is the common exit path of every assistance or check-up
// branch: back to Monitoring with the mic flag cleared.
func (s *Session) ResetToMonitoring() {
	s.SetMode(ModeMonitoring)
	s.micPressed.Store(false)
}

func (s *Session) PressMic()        { s.micPressed.Store(true) }
func (s *Session) ClearMic()        { s.micPressed.Store(false) }
func (s *Session) MicPressed() bool { return s.micPressed.Load() }

func (s *Session) MonitoringEnabled() bool        { return s.monitoringEnabled.Load() }
func (s *Session) VoiceFeedbackEnabled() bool     { return s.voiceFeedbackEnabled.Load() }
func (s *Session) SetMonitoringEnabled(v bool)    { s.monitoringEnabled.Store(v) }
func (s *Session) SetVoiceFeedbackEnabled(v bool) { s.voiceFeedbackEnabled.Store(v) }

// EnableMonitoring turns on both the alert fetch and its spoken feedback.
func (s *Session) EnableMonitoring() {
	s.monitoringEnabled.Store(true)
	s.voiceFeedbackEnabled.Store(true)
}

// DisableMonitoring turns off both flags.
func (s *Session) DisableMonitoring() {
	s.monitoringEnabled.Store(false)
	s.voiceFeedbackEnabled.Store(false)
}

// LocationOverride returns the reverse-geocoded address reported by the UI,
// or "" when none has arrived yet.
func (s *Session) LocationOverride() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locationOverride
}

func (s *Session) SetLocationOverride(address string) {
	s.mu.Lock()
	s.locationOverride = address
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of the session for the control API.
type Snapshot struct {
	Mode                 Mode   `json:"mode"`
	MicPressed           bool   `json:"mic_pressed"`
	MonitoringEnabled    bool   `json:"monitoring_enabled"`
	VoiceFeedbackEnabled bool   `json:"voice_feedback_enabled"`
	LocationOverride     string `json:"location_override,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	mode, loc := s.mode, s.locationOverride
	s.mu.RUnlock()
	return Snapshot{
		Mode:                 mode,
		MicPressed:           s.micPressed.Load(),
		MonitoringEnabled:    s.monitoringEnabled.Load(),
		VoiceFeedbackEnabled: s.voiceFeedbackEnabled.Load(),
		LocationOverride:     loc,
	}
}
