// Package orchestrator drives the assistant for the lifetime of the process:
// one goroutine that decides, pass by pass, whether to converse, escalate or
// watch the alert feed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/alert"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/escalation"
	"nova-drive-be/pkg/assistant/session"
	"nova-drive-be/pkg/llm"
)

const (
	MsgGreeting      = "Hey driver, how can I help you?"
	MsgAdvisoryError = "Error analyzing driver alert data."
)

// TurnLoop is satisfied by *router.Router.
type TurnLoop interface {
	RunLoop(ctx context.Context)
}

// Checkup is satisfied by *escalation.Handler.
type Checkup interface {
	RunCheckup(ctx context.Context) escalation.Outcome
}

type Config struct {
	PollInterval  time.Duration
	WakeWord      string // empty disables wake-word listening
	WakeWindow    time.Duration
	AlertCooldown time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:  100 * time.Millisecond,
		WakeWord:      "hey nova",
		WakeWindow:    5 * time.Second,
		AlertCooldown: 5 * time.Second,
	}
}

type Deps struct {
	Session    *session.Session
	Recognizer assistant.Recognizer
	Speaker    assistant.Speaker
	Display    assistant.Display
	Feed       alert.Feed
	Advisor    llm.LLMProvider
	Router     TurnLoop
	Checkup    Checkup

	Sleep func(ctx context.Context, d time.Duration)
}

type Orchestrator struct {
	Deps
	cfg    Config
	logger logger.ILogger

	pushed     bool
	lastPushed [2]bool
}

func New(deps Deps, cfg Config, log logger.ILogger) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepCtx
	}
	cfg.WakeWord = strings.ToLower(strings.TrimSpace(cfg.WakeWord))
	return &Orchestrator{Deps: deps, cfg: cfg, logger: log}
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

// Run loops until ctx is cancelled. It returns nil on cancellation; a
// failing pass is logged and the loop carries on.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Orchestrator", "Session loop started", map[string]interface{}{
		"wake_word": o.cfg.WakeWord,
	})
	for {
		if ctx.Err() != nil {
			o.logger.Info("Orchestrator", "Session loop stopped", nil)
			return nil
		}
		if err := o.safePass(ctx); err != nil {
			o.logger.Error("Orchestrator", "Pass failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		o.Sleep(ctx, o.cfg.PollInterval)
	}
}

func (o *Orchestrator) safePass(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in pass: %v", r)
			o.Session.ResetToMonitoring()
		}
	}()
	o.Pass(ctx)
	return nil
}

// Pass runs one iteration of the priority list.
func (o *Orchestrator) Pass(ctx context.Context) {
	o.pushMonitorState()

	if o.Session.MicPressed() || (o.Session.Mode() == session.ModeMonitoring && o.heardWakeWord(ctx)) {
		o.Display.Display("")
		o.Session.SetMode(session.ModeAssistance)
		o.Display.ShowPanel()
		o.Router.RunLoop(ctx)
		return
	}

	if o.Session.Mode() == session.ModeAssistance {
		o.Display.ShowPanel()
		o.Router.RunLoop(ctx)
		return
	}

	if o.Session.Mode() == session.ModeMonitoring &&
		o.Session.MonitoringEnabled() && o.Session.VoiceFeedbackEnabled() {
		o.monitor(ctx)
	}
}

func (o *Orchestrator) heardWakeWord(ctx context.Context) bool {
	if o.cfg.WakeWord == "" || o.cfg.WakeWindow <= 0 {
		return false
	}
	text, ok := o.Recognizer.Recognize(ctx, o.cfg.WakeWindow)
	if !ok || !strings.Contains(strings.ToLower(text), o.cfg.WakeWord) {
		return false
	}
	o.logger.Info("Orchestrator", "Wake word detected", nil)
	assistant.Announce(ctx, o.Display, o.Speaker, MsgGreeting)
	return true
}

func (o *Orchestrator) monitor(ctx context.Context) {
	snap, err := o.Feed.Current(ctx)
	if err != nil {
		if errors.Is(err, alert.ErrNoData) {
			return
		}
		o.logger.Warn("Orchestrator", "Alert feed unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if snap.Drowsy() {
		o.logger.Warn("Orchestrator", "Drowsiness detected, starting check-up", map[string]interface{}{
			"fatigue": snap.Fatigue,
			"sleep":   snap.Sleep,
		})
		o.Checkup.RunCheckup(ctx)
		o.Sleep(ctx, o.cfg.AlertCooldown)
		return
	}

	if snap.Safe() {
		return
	}

	// The driver may have pressed the mic while the feed was read.
	if o.Session.MicPressed() || o.Session.Mode() != session.ModeMonitoring {
		return
	}

	reply, err := o.Advisor.Chat(ctx, []llm.Message{llm.UserMessage(snap.AdvisoryPrompt())})
	if err != nil {
		o.logger.Error("Orchestrator", "Safety advisory failed", map[string]interface{}{
			"error": err.Error(),
		})
		assistant.Announce(ctx, o.Display, o.Speaker, MsgAdvisoryError)
		return
	}
	if reply = strings.TrimSpace(reply); reply != "" {
		o.Speaker.Speak(ctx, reply)
	}
}

// pushMonitorState sends the button state to the UI when it changed.
func (o *Orchestrator) pushMonitorState() {
	state := [2]bool{o.Session.MonitoringEnabled(), o.Session.VoiceFeedbackEnabled()}
	if o.pushed && state == o.lastPushed {
		return
	}
	o.pushed, o.lastPushed = true, state
	o.Display.UpdateMonitorState(state[0], state[1])
}
