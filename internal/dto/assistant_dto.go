package dto

type MonitorModeResponse struct {
	Mode string `json:"mode"` // "on" or "off"
}

type AssistantStateResponse struct {
	Mode                 string `json:"mode"`
	MicPressed           bool   `json:"mic_pressed"`
	MonitoringEnabled    bool   `json:"monitoring_enabled"`
	VoiceFeedbackEnabled bool   `json:"voice_feedback_enabled"`
	LocationOverride     string `json:"location_override,omitempty"`
}
