// Package assistant defines the collaborators the in-car assistant core
// consumes. Concrete adapters live in internal/service, pkg/speech,
// pkg/browser and internal/websocket; tests use pkg/assistant/assistanttest.
package assistant

import (
	"context"
	"fmt"
	"time"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Recognizer turns driver speech into lower-cased text. ok is false when
// nothing intelligible was heard before the timeout; recognition failures are
// reported the same way.
type Recognizer interface {
	Recognize(ctx context.Context, timeout time.Duration) (text string, ok bool)
}

// Speaker plays text aloud. It is fire-and-forget for callers.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// Buzzer plays the audible danger alarm.
type Buzzer interface {
	Buzz(ctx context.Context)
}

// Display is the frontend bridge. All calls are fire-and-forget.
type Display interface {
	Display(text string)
	ShowPanel()
	HidePanel()
	UpdateMonitorState(monitoring, voiceFeedback bool)
}

// Geo resolves places and reads the last known vehicle position.
type Geo interface {
	ResolveDestination(ctx context.Context, name string) (Coordinates, error)
	LastKnownOrigin(ctx context.Context) (Coordinates, error)
}

type RoutePlanner interface {
	RouteSummary(ctx context.Context, origin, dest Coordinates) (string, error)
}

type WeatherReporter interface {
	WeatherAt(ctx context.Context, at Coordinates) (string, error)
}

// MapView controls the external map shown on the cockpit screen.
type MapView interface {
	OpenAt(ctx context.Context, at Coordinates) error
	OpenDirections(ctx context.Context, dest Coordinates) error
	Close(ctx context.Context) error
}

type NotifyMode string

const (
	NotifyMessage NotifyMode = "message"
	NotifyCall    NotifyMode = "call"
)

// Notifier reaches a contact through the phone bridge.
type Notifier interface {
	NotifyContact(ctx context.Context, number, text string, mode NotifyMode) error
}

type EmergencyMailer interface {
	SendEmergencyEmail(ctx context.Context, streamURL, toAddress string) error
}

type Contact struct {
	Name   string `yaml:"name" json:"name"`
	Number string `yaml:"number" json:"number"`
}

// ContactBook finds the first contact whose name occurs in text.
type ContactBook interface {
	Match(text string) (Contact, bool)
}

// Announce shows text on the panel and speaks it.
func Announce(ctx context.Context, d Display, s Speaker, text string) {
	d.Display(text)
	s.Speak(ctx, text)
}
