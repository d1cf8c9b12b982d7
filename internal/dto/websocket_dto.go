package dto

import "encoding/json"

// Websocket message types, server to UI.
const (
	WsTypeDisplay      = "display"
	WsTypeShowPanel    = "show_panel"
	WsTypeHidePanel    = "hide_panel"
	WsTypeMonitorState = "monitor_state"
)

// Websocket message types, UI to server.
const (
	WsTypeMicPressed = "mic_pressed"
	WsTypeLocation   = "location"
)

type WsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type WsDisplayData struct {
	Text string `json:"text"`
}

type WsMonitorStateData struct {
	Monitoring    bool   `json:"monitoring"`
	VoiceFeedback bool   `json:"voice_feedback"`
	Mode          string `json:"mode"` // "on" when both are set
}
