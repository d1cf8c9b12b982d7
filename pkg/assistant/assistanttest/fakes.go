// Package assistanttest provides in-memory collaborators for exercising the
// assistant core without audio, network or a browser.
package assistanttest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/llm"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Recognizer replays scripted utterances. An empty entry is a silent window:
// the clock (if set) advances by the requested timeout and ok is false. Once
// the script is exhausted every call is silent and OnExhausted runs.
type Recognizer struct {
	mu          sync.Mutex
	script      []string
	Clock       *Clock
	OnExhausted func()
	Timeouts    []time.Duration
}

func NewRecognizer(clock *Clock, utterances ...string) *Recognizer {
	return &Recognizer{script: utterances, Clock: clock}
}

func (r *Recognizer) Recognize(ctx context.Context, timeout time.Duration) (string, bool) {
	r.mu.Lock()
	r.Timeouts = append(r.Timeouts, timeout)
	if len(r.script) == 0 {
		hook := r.OnExhausted
		r.mu.Unlock()
		if r.Clock != nil {
			r.Clock.Advance(timeout)
		}
		if hook != nil {
			hook()
		}
		return "", false
	}
	text := r.script[0]
	r.script = r.script[1:]
	r.mu.Unlock()

	if text == "" {
		if r.Clock != nil {
			r.Clock.Advance(timeout)
		}
		return "", false
	}
	if r.Clock != nil {
		r.Clock.Advance(time.Second)
	}
	return text, true
}

// Calls returns how many listening windows were opened.
func (r *Recognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Timeouts)
}

func (r *Recognizer) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.script)
}

type Speaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *Speaker) Speak(_ context.Context, text string) {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
}

func (s *Speaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// Said reports whether text was spoken verbatim.
func (s *Speaker) Said(text string) bool {
	for _, t := range s.Spoken() {
		if t == text {
			return true
		}
	}
	return false
}

func (s *Speaker) Count(text string) int {
	n := 0
	for _, t := range s.Spoken() {
		if t == text {
			n++
		}
	}
	return n
}

type Buzzer struct {
	mu    sync.Mutex
	count int
}

func (b *Buzzer) Buzz(context.Context) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
}

func (b *Buzzer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Display records every bridge call as an event string: "display:<text>",
// "show_panel", "hide_panel" or "monitor_state:<on|off>,<on|off>".
type Display struct {
	mu     sync.Mutex
	events []string
}

func (d *Display) record(e string) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *Display) Display(text string) { d.record("display:" + text) }
func (d *Display) ShowPanel()          { d.record("show_panel") }
func (d *Display) HidePanel()          { d.record("hide_panel") }

func (d *Display) UpdateMonitorState(monitoring, voiceFeedback bool) {
	d.record("monitor_state:" + onOff(monitoring) + "," + onOff(voiceFeedback))
}

func (d *Display) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *Display) Has(event string) bool {
	for _, e := range d.Events() {
		if e == event {
			return true
		}
	}
	return false
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// ErrNotFound is returned by Geo for unknown places.
var ErrNotFound = errors.New("not found")

// Geo resolves names from a fixed table.
type Geo struct {
	Places    map[string]assistant.Coordinates
	Origin    assistant.Coordinates
	OriginErr error
	Resolved  []string
}

func (g *Geo) ResolveDestination(_ context.Context, name string) (assistant.Coordinates, error) {
	g.Resolved = append(g.Resolved, name)
	c, ok := g.Places[strings.ToLower(name)]
	if !ok {
		return assistant.Coordinates{}, ErrNotFound
	}
	return c, nil
}

func (g *Geo) LastKnownOrigin(context.Context) (assistant.Coordinates, error) {
	return g.Origin, g.OriginErr
}

type Routes struct {
	Summary string
	Err     error
	Calls   int
}

func (r *Routes) RouteSummary(context.Context, assistant.Coordinates, assistant.Coordinates) (string, error) {
	r.Calls++
	return r.Summary, r.Err
}

type Weather struct {
	Report string
	Err    error
	At     []assistant.Coordinates
}

func (w *Weather) WeatherAt(_ context.Context, at assistant.Coordinates) (string, error) {
	w.At = append(w.At, at)
	return w.Report, w.Err
}

type MapView struct {
	Opened     []assistant.Coordinates
	Directions []assistant.Coordinates
	Closed     int
}

func (m *MapView) OpenAt(_ context.Context, at assistant.Coordinates) error {
	m.Opened = append(m.Opened, at)
	return nil
}

func (m *MapView) OpenDirections(_ context.Context, dest assistant.Coordinates) error {
	m.Directions = append(m.Directions, dest)
	return nil
}

func (m *MapView) Close(context.Context) error {
	m.Closed++
	return nil
}

type Notification struct {
	Number string
	Text   string
	Mode   assistant.NotifyMode
}

type Notifier struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (n *Notifier) NotifyContact(_ context.Context, number, text string, mode assistant.NotifyMode) error {
	n.mu.Lock()
	n.sent = append(n.sent, Notification{Number: number, Text: text, Mode: mode})
	n.mu.Unlock()
	return n.Err
}

func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

type Email struct {
	StreamURL string
	To        string
}

type Mailer struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

func (m *Mailer) SendEmergencyEmail(_ context.Context, streamURL, to string) error {
	m.mu.Lock()
	m.sent = append(m.sent, Email{StreamURL: streamURL, To: to})
	m.mu.Unlock()
	return m.Err
}

func (m *Mailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

// Contacts matches names by substring, first entry wins.
type Contacts []assistant.Contact

func (c Contacts) Match(text string) (assistant.Contact, bool) {
	lower := strings.ToLower(text)
	for _, ct := range c {
		if strings.Contains(lower, strings.ToLower(ct.Name)) {
			return ct, true
		}
	}
	return assistant.Contact{}, false
}

// LLM returns queued replies in order, then Default. Err, when set, fails
// every call.
type LLM struct {
	mu       sync.Mutex
	Replies  []string
	Default  string
	Err      error
	Chats    [][]llm.Message
	Prompts  []string
	LastOpts llm.Options
}

func (l *LLM) next() string {
	if len(l.Replies) == 0 {
		return l.Default
	}
	r := l.Replies[0]
	l.Replies = l.Replies[1:]
	return r
}

func (l *LLM) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Chats = append(l.Chats, append([]llm.Message(nil), history...))
	l.LastOpts = llm.Apply(llm.Options{}, opts...)
	if l.Err != nil {
		return "", l.Err
	}
	return l.next(), nil
}

func (l *LLM) Generate(_ context.Context, prompt string, opts ...llm.Option) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Prompts = append(l.Prompts, prompt)
	l.LastOpts = llm.Apply(llm.Options{}, opts...)
	if l.Err != nil {
		return "", l.Err
	}
	return l.next(), nil
}

// Locator answers ApproximateLocation with a fixed result.
type Locator struct {
	City, Country string
	Err           error
}

func (l Locator) ApproximateLocation(context.Context) (string, string, error) {
	return l.City, l.Country, l.Err
}

// Override is a fixed location override.
type Override string

func (o Override) LocationOverride() string { return string(o) }
