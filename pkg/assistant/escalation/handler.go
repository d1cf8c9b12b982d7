// Package escalation runs the check-up that follows a fatigue or sleep alert
// and, when the driver stays silent, the emergency notification sequence.
package escalation

import (
	"context"
	"strings"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/session"
)

const (
	MsgAreYouOkay     = "Are you okay? Can you hear me?"
	MsgDanger         = "Dangerous! No response from driver."
	MsgWantToTalk     = "Do you want to talk to me?"
	MsgAssistanceMode = "Okay, I'm here to help you, you're in assistance mode now"
	MsgStandBy        = "okay, let me know if you need me"
)

// Outcome of one check-up.
type Outcome string

const (
	OutcomeEmergency  Outcome = "emergency"
	OutcomeAssistance Outcome = "assistance"
	OutcomeDismissed  Outcome = "dismissed"
)

// Incident describes one finished check-up.
type Incident struct {
	Outcome   Outcome
	StartedAt time.Time
	EndedAt   time.Time
	Location  *assistant.Coordinates
}

// IncidentRecorder persists incidents. Failures are logged by the caller.
type IncidentRecorder interface {
	RecordIncident(ctx context.Context, in Incident) error
}

type Config struct {
	CheckupTimeout   time.Duration
	FollowupTimeout  time.Duration
	SettleDelay      time.Duration
	CallGap          time.Duration // between the emergency message and the call
	EmergencyContact assistant.Contact
	ReceiverEmail    string
	LiveStreamURL    string
}

func DefaultConfig() Config {
	return Config{
		CheckupTimeout:  50 * time.Second,
		FollowupTimeout: 40 * time.Second,
		SettleDelay:     7 * time.Second,
		CallGap:         time.Second,
	}
}

type Deps struct {
	Session    *session.Session
	Recognizer assistant.Recognizer
	Speaker    assistant.Speaker
	Display    assistant.Display
	Buzzer     assistant.Buzzer
	Mailer     assistant.EmergencyMailer
	Notifier   assistant.Notifier
	Geo        assistant.Geo
	Incidents  IncidentRecorder // optional

	// Sleep waits d or until ctx ends. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration)
	Now   func() time.Time
}

type Handler struct {
	Deps
	cfg    Config
	logger logger.ILogger
}

func NewHandler(deps Deps, cfg Config, log logger.ILogger) *Handler {
	def := DefaultConfig()
	if cfg.CheckupTimeout <= 0 {
		cfg.CheckupTimeout = def.CheckupTimeout
	}
	if cfg.FollowupTimeout <= 0 {
		cfg.FollowupTimeout = def.FollowupTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.CallGap < 0 {
		cfg.CallGap = 0
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepCtx
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Handler{Deps: deps, cfg: cfg, logger: log}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// EmergencyText is the message sent to the emergency contact.
func EmergencyText(streamURL string) string {
	return "🚨 *Emergency Alert!* 🚨\nDriver seems to be unresponsive 😔\n📺 Check the live stream here:\n🔗 " + streamURL
}

// RunCheckup asks the driver whether they are okay. It only runs from
// Monitoring and always leaves the session in Monitoring or Assistance.
func (h *Handler) RunCheckup(ctx context.Context) Outcome {
	if mode := h.Session.Mode(); mode != session.ModeMonitoring {
		h.logger.Warn("Escalation", "Check-up skipped, session busy", map[string]interface{}{
			"mode": string(mode),
		})
		return ""
	}

	started := h.Now()
	h.Session.SetMode(session.ModeCheckUp)
	assistant.Announce(ctx, h.Display, h.Speaker, MsgAreYouOkay)
	h.Display.ShowPanel()

	response, heard := h.Recognizer.Recognize(ctx, h.cfg.CheckupTimeout)
	if !heard || strings.TrimSpace(response) == "" {
		h.emergency(ctx)
		h.record(ctx, OutcomeEmergency, started)
		h.Session.ResetToMonitoring()
		h.Display.HidePanel()
		return OutcomeEmergency
	}

	assistant.Announce(ctx, h.Display, h.Speaker, MsgWantToTalk)
	answer, _ := h.Recognizer.Recognize(ctx, h.cfg.FollowupTimeout)

	if IsAffirmative(answer) {
		assistant.Announce(ctx, h.Display, h.Speaker, MsgAssistanceMode)
		h.Display.ShowPanel()
		h.Session.SetMode(session.ModeAssistance)
		h.record(ctx, OutcomeAssistance, started)
		return OutcomeAssistance
	}

	assistant.Announce(ctx, h.Display, h.Speaker, MsgStandBy)
	h.Session.ResetToMonitoring()
	h.Display.HidePanel()
	h.record(ctx, OutcomeDismissed, started)
	return OutcomeDismissed
}

// emergency notifies the emergency contact. Every step is attempted once;
// failures are logged and do not stop the sequence.
func (h *Handler) emergency(ctx context.Context) {
	h.Session.SetMode(session.ModeEmergency)
	assistant.Announce(ctx, h.Display, h.Speaker, MsgDanger)
	h.Buzzer.Buzz(ctx)

	h.logger.Warn("Escalation", "Driver unresponsive, notifying emergency contact", map[string]interface{}{
		"contact": h.cfg.EmergencyContact.Name,
	})

	if err := h.Mailer.SendEmergencyEmail(ctx, h.cfg.LiveStreamURL, h.cfg.ReceiverEmail); err != nil {
		h.logger.Error("Escalation", "Emergency email failed", map[string]interface{}{
			"to":    h.cfg.ReceiverEmail,
			"error": err.Error(),
		})
	}

	number := h.cfg.EmergencyContact.Number
	if err := h.Notifier.NotifyContact(ctx, number, EmergencyText(h.cfg.LiveStreamURL), assistant.NotifyMessage); err != nil {
		h.logger.Error("Escalation", "Emergency message failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	h.Sleep(ctx, h.cfg.CallGap)
	if err := h.Notifier.NotifyContact(ctx, number, "", assistant.NotifyCall); err != nil {
		h.logger.Error("Escalation", "Emergency call failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	h.Sleep(ctx, h.cfg.SettleDelay)
}

func (h *Handler) record(ctx context.Context, outcome Outcome, started time.Time) {
	if h.Incidents == nil {
		return
	}
	in := Incident{Outcome: outcome, StartedAt: started, EndedAt: h.Now()}
	if h.Geo != nil {
		if at, err := h.Geo.LastKnownOrigin(ctx); err == nil {
			in.Location = &at
		}
	}
	if err := h.Incidents.RecordIncident(ctx, in); err != nil {
		h.logger.Error("Escalation", "Failed to record incident", map[string]interface{}{
			"outcome": string(outcome),
			"error":   err.Error(),
		})
	}
}

var affirmations = map[string]bool{"yes": true, "yeah": true, "yep": true, "sure": true}

// IsAffirmative reports whether answer contains an affirmation word.
func IsAffirmative(answer string) bool {
	for _, w := range strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if affirmations[w] {
			return true
		}
	}
	return false
}
