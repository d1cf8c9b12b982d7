// Package router turns one driver utterance into an action: a fixed list of
// keyword rules first, then an intent-driven dispatch table.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/history"
	"nova-drive-be/pkg/assistant/intent"
	"nova-drive-be/pkg/assistant/session"
	"nova-drive-be/pkg/llm"
)

// Outcome tells the turn loop whether to keep listening.
type Outcome int

const (
	Continue Outcome = iota
	EndTurnLoop
)

func (o Outcome) String() string {
	if o == EndTurnLoop {
		return "end_turn_loop"
	}
	return "continue"
}

// IntentClassifier is satisfied by *intent.Classifier.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) intent.Intent
}

type Config struct {
	SilenceTimeout time.Duration // silence allowed before falling back to monitoring
	CommandTimeout time.Duration // one listening window
	MessageTimeout time.Duration // overall budget for dictating a message body
	Now            func() time.Time
}

func DefaultConfig() Config {
	return Config{
		SilenceTimeout: 30 * time.Second,
		CommandTimeout: 12 * time.Second,
		MessageTimeout: 25 * time.Second,
		Now:            time.Now,
	}
}

// Deps are the collaborators a Router needs.
type Deps struct {
	Session    *session.Session
	History    *history.Manager
	Classifier IntentClassifier
	Chat       llm.LLMProvider
	Recognizer assistant.Recognizer
	Speaker    assistant.Speaker
	Display    assistant.Display
	Geo        assistant.Geo
	Routes     assistant.RoutePlanner
	Weather    assistant.WeatherReporter
	Maps       assistant.MapView
	Notifier   assistant.Notifier
	Contacts   assistant.ContactBook
}

// Turn carries state across utterances of one router loop.
type Turn struct {
	LastHeard time.Time
}

type rule struct {
	name   string
	match  func(norm string) bool
	handle func(ctx context.Context, utterance, norm string) Outcome
}

type dispatchFunc func(ctx context.Context, utterance string, in intent.Intent) Outcome

type Router struct {
	Deps
	cfg    Config
	logger logger.ILogger

	rules    []rule
	dispatch map[intent.Type]dispatchFunc
}

func New(deps Deps, cfg Config, log logger.ILogger) *Router {
	def := DefaultConfig()
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = def.SilenceTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = def.MessageTimeout
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	r := &Router{Deps: deps, cfg: cfg, logger: log}

	// Order is priority: the first matching rule wins.
	r.rules = []rule{
		{name: "map_close", match: phrases(mapClosePhrases), handle: r.closeMap},
		{name: "map_open", match: phrases(mapOpenPhrases), handle: r.openMap},
		{name: "farewell", match: phrases(farewellPhrases), handle: r.farewell},
		{name: "enable_monitoring", match: phrases(enablePhrases), handle: r.enableMonitoring},
		{name: "disable_monitoring", match: phrases(disablePhrases), handle: r.disableMonitoring},
		{name: "contact", match: phrases(contactPhrases), handle: r.contactAction},
	}

	r.dispatch = map[intent.Type]dispatchFunc{
		intent.TypeETA:      r.routeInfo,
		intent.TypeTraffic:  r.routeInfo,
		intent.TypeNavigate: r.navigate,
		intent.TypeWeather:  r.weather,
		intent.TypeChat:     r.chat,
	}

	return r
}

func phrases(list []string) func(string) bool {
	return func(norm string) bool { return containsPhrase(norm, list) }
}

// RunLoop listens and routes until a handler ends the loop, the mode leaves
// Assistance, or ctx is cancelled.
func (r *Router) RunLoop(ctx context.Context) {
	turn := &Turn{LastHeard: r.cfg.Now()}
	for ctx.Err() == nil && r.Session.Mode() == session.ModeAssistance {
		text, _ := r.Recognizer.Recognize(ctx, r.cfg.CommandTimeout)
		if r.Handle(ctx, text, turn) == EndTurnLoop {
			return
		}
	}
}

// Handle routes a single utterance. An empty utterance counts as silence.
func (r *Router) Handle(ctx context.Context, utterance string, turn *Turn) Outcome {
	norm := normalize(utterance)
	if norm == "" {
		return r.silence(ctx, turn)
	}
	turn.LastHeard = r.cfg.Now()

	for _, rl := range r.rules {
		if rl.match(norm) {
			r.logger.Debug("Router", "Rule matched", map[string]interface{}{
				"rule":      rl.name,
				"utterance": utterance,
			})
			return rl.handle(ctx, utterance, norm)
		}
	}

	in := r.Classifier.Classify(ctx, utterance)
	handler, ok := r.dispatch[in.Type]
	if !ok {
		handler = r.chat
	}
	return handler(ctx, utterance, in)
}

func (r *Router) say(ctx context.Context, text string) {
	assistant.Announce(ctx, r.Display, r.Speaker, text)
}

// exitToMonitoring is the shared tail of every mode-control branch.
func (r *Router) exitToMonitoring() Outcome {
	r.Session.ResetToMonitoring()
	r.Display.HidePanel()
	r.Display.Display("")
	return EndTurnLoop
}

func (r *Router) silence(ctx context.Context, turn *Turn) Outcome {
	if r.cfg.Now().Sub(turn.LastHeard) <= r.cfg.SilenceTimeout {
		return Continue
	}
	r.say(ctx, MsgSilenceTimeout)
	return r.exitToMonitoring()
}

func (r *Router) closeMap(ctx context.Context, _, _ string) Outcome {
	r.say(ctx, MsgAck)
	r.say(ctx, MsgClosingMaps)
	if err := r.Maps.Close(ctx); err != nil {
		r.logger.Warn("Router", "Failed to close map view", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return r.exitToMonitoring()
}

func (r *Router) openMap(ctx context.Context, _, _ string) Outcome {
	r.say(ctx, MsgAck)
	r.say(ctx, MsgOpeningMaps)
	origin, err := r.Geo.LastKnownOrigin(ctx)
	if err != nil {
		r.logger.Warn("Router", "No known origin for map view", map[string]interface{}{
			"error": err.Error(),
		})
		r.say(ctx, MsgLocationNotFound)
		return r.exitToMonitoring()
	}
	if err := r.Maps.OpenAt(ctx, origin); err != nil {
		r.logger.Warn("Router", "Failed to open map view", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return r.exitToMonitoring()
}

func (r *Router) farewell(ctx context.Context, _, _ string) Outcome {
	r.say(ctx, MsgGoodbye)
	return r.exitToMonitoring()
}

func (r *Router) enableMonitoring(ctx context.Context, _, _ string) Outcome {
	r.say(ctx, MsgAck)
	r.say(ctx, MsgMonitoringOn)
	r.Session.EnableMonitoring()
	r.Display.UpdateMonitorState(true, true)
	return r.exitToMonitoring()
}

func (r *Router) disableMonitoring(ctx context.Context, _, _ string) Outcome {
	r.say(ctx, MsgAck)
	r.say(ctx, MsgMonitoringOff)
	r.Session.DisableMonitoring()
	r.Display.UpdateMonitorState(false, false)
	return r.exitToMonitoring()
}

// contactAction messages or calls someone from the contact book. An unknown
// name gets one re-prompt; if it is still unknown the turn loop ends quietly
// with the mode left at Assistance, so the orchestrator resumes listening.
func (r *Router) contactAction(ctx context.Context, _, norm string) Outcome {
	mode := assistant.NotifyMessage
	if containsPhrase(norm, callPhrases) {
		mode = assistant.NotifyCall
	}

	contact, ok := r.Contacts.Match(norm)
	if !ok {
		r.Speaker.Speak(ctx, MsgRepeatName)
		again, _ := assistant.ListenWithRetry(ctx, r.Recognizer, r.Speaker, assistant.RetryPolicy{
			MaxAttempts: 1,
			Timeout:     r.cfg.CommandTimeout,
		})
		contact, ok = r.Contacts.Match(normalize(again))
		if !ok {
			r.logger.Info("Router", "Contact not recognized, abandoning", map[string]interface{}{
				"heard": again,
			})
			return EndTurnLoop
		}
	}

	if mode == assistant.NotifyCall {
		r.Speaker.Speak(ctx, fmt.Sprintf("Calling %s on WhatsApp.", contact.Name))
		r.notify(ctx, contact, "", mode)
		return Continue
	}

	r.say(ctx, fmt.Sprintf("Got it. Now tell me the message to send to %s.", contact.Name))
	body, ok := assistant.ListenWithRetry(ctx, r.Recognizer, r.Speaker, assistant.RetryPolicy{
		Timeout:  r.cfg.CommandTimeout,
		Deadline: r.cfg.MessageTimeout,
		Prompt:   MsgSayAgain,
		Now:      r.cfg.Now,
	})
	if !ok {
		r.Speaker.Speak(ctx, MsgNoMessage)
		return EndTurnLoop
	}

	r.notify(ctx, contact, strings.TrimSpace(body), mode)
	r.Speaker.Speak(ctx, MsgMessageSent)
	return Continue
}

func (r *Router) notify(ctx context.Context, contact assistant.Contact, text string, mode assistant.NotifyMode) {
	if err := r.Notifier.NotifyContact(ctx, contact.Number, text, mode); err != nil {
		r.logger.Error("Router", "Failed to notify contact", map[string]interface{}{
			"contact": contact.Name,
			"mode":    string(mode),
			"error":   err.Error(),
		})
	}
}

func (r *Router) routeInfo(ctx context.Context, _ string, in intent.Intent) Outcome {
	summary, err := r.routeSummary(ctx, in.Destination)
	if err != nil {
		r.logger.Warn("Router", "Route calculation failed", map[string]interface{}{
			"destination": in.Destination,
			"error":       err.Error(),
		})
		r.say(ctx, MsgRouteFailed)
		return Continue
	}
	r.say(ctx, summary)
	return Continue
}

func (r *Router) routeSummary(ctx context.Context, destination string) (string, error) {
	if destination == "" {
		return "", fmt.Errorf("no destination given")
	}
	dest, err := r.Geo.ResolveDestination(ctx, destination)
	if err != nil {
		return "", fmt.Errorf("resolve destination: %w", err)
	}
	origin, err := r.Geo.LastKnownOrigin(ctx)
	if err != nil {
		return "", fmt.Errorf("read origin: %w", err)
	}
	return r.Routes.RouteSummary(ctx, origin, dest)
}

func (r *Router) navigate(ctx context.Context, _ string, in intent.Intent) Outcome {
	destination := in.Destination
	if destination == "" {
		r.say(ctx, MsgWhereTo)
		heard, ok := assistant.ListenWithRetry(ctx, r.Recognizer, r.Speaker, assistant.RetryPolicy{
			MaxAttempts: 2,
			Timeout:     r.cfg.CommandTimeout,
			Prompt:      MsgSayAgain,
		})
		if !ok {
			return Continue
		}
		destination = strings.TrimSpace(heard)
	}

	r.say(ctx, fmt.Sprintf("Opening directions to %s...", cases.Title(language.English).String(destination)))

	dest, err := r.Geo.ResolveDestination(ctx, destination)
	if err != nil {
		r.logger.Warn("Router", "Destination not found", map[string]interface{}{
			"destination": destination,
			"error":       err.Error(),
		})
		r.Speaker.Speak(ctx, MsgLocationNotFound)
		return Continue
	}
	if err := r.Maps.OpenDirections(ctx, dest); err != nil {
		r.logger.Error("Router", "Failed to open directions", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return Continue
}

func (r *Router) weather(ctx context.Context, _ string, in intent.Intent) Outcome {
	var (
		at  assistant.Coordinates
		err error
	)
	if in.Destination != "" {
		at, err = r.Geo.ResolveDestination(ctx, in.Destination)
	} else {
		at, err = r.Geo.LastKnownOrigin(ctx)
	}

	var report string
	if err == nil {
		report, err = r.Weather.WeatherAt(ctx, at)
	}
	if err != nil {
		r.logger.Warn("Router", "Weather lookup failed", map[string]interface{}{
			"destination": in.Destination,
			"error":       err.Error(),
		})
		r.say(ctx, MsgWeatherFailed)
		return Continue
	}

	r.say(ctx, report)
	return Continue
}

func (r *Router) chat(ctx context.Context, utterance string, _ intent.Intent) Outcome {
	r.History.Append(llm.UserMessage(utterance))

	reply, err := r.Chat.Chat(ctx, r.History.Prepare(ctx))
	if err != nil {
		r.logger.Error("Router", "Chat completion failed", map[string]interface{}{
			"error": err.Error(),
		})
		r.say(ctx, MsgChatFailed)
		return Continue
	}

	reply = strings.TrimSpace(reply)
	r.say(ctx, reply)
	r.History.Append(llm.AssistantMessage(reply))
	return Continue
}
