// Package history keeps the token-budgeted transcript sent to the chat model.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/llm"
)

const (
	// DefaultMaxTokens is the budget for everything after the system message.
	DefaultMaxTokens = 7000

	tokensPerWord = 1.3

	locationUnavailable = "Location is unavailable."
)

// LocationSource gives a coarse position from the network address.
type LocationSource interface {
	ApproximateLocation(ctx context.Context) (city, country string, err error)
}

// OverrideSource returns the reverse-geocoded address reported by the UI, or "".
type OverrideSource interface {
	LocationOverride() string
}

type Manager struct {
	locator   LocationSource
	override  OverrideSource
	now       func() time.Time
	maxTokens float64
	logger    logger.ILogger

	messages []llm.Message
}

type Option func(*Manager)

// WithClock replaces time.Now for the date and time in the system prompt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMaxTokens(n float64) Option {
	return func(m *Manager) { m.maxTokens = n }
}

// NewManager returns a manager seeded with one system message. It is owned by
// the orchestrator goroutine and is not safe for concurrent use.
func NewManager(ctx context.Context, locator LocationSource, override OverrideSource, log logger.ILogger, opts ...Option) *Manager {
	m := &Manager{
		locator:   locator,
		override:  override,
		now:       time.Now,
		maxTokens: DefaultMaxTokens,
		logger:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.messages = []llm.Message{m.RegenerateSystemContext(ctx)}
	return m
}

// RegenerateSystemContext builds the system prompt from the clock and the
// best known location. It never fails: a failed lookup degrades the location
// sentence only.
func (m *Manager) RegenerateSystemContext(ctx context.Context) llm.Message {
	now := m.now()

	var location string
	if addr := m.overrideAddress(); addr != "" {
		location = fmt.Sprintf("You are currently at %s.", addr)
	} else if m.locator == nil {
		location = locationUnavailable
	} else if city, country, err := m.locator.ApproximateLocation(ctx); err != nil {
		m.logger.Warn("History", "Approximate location lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		location = locationUnavailable
	} else {
		if city == "" {
			city = "an unknown city"
		}
		if country == "" {
			country = "an unknown country"
		}
		location = fmt.Sprintf("You are currently in %s, %s.", city, country)
	}

	var prompt strings.Builder
	prompt.WriteString("You are a helpful driving assistant.\n")
	prompt.WriteString(fmt.Sprintf("Today is %s and the time is %s.\n",
		now.Format("Monday, January 2, 2006"), now.Format("03:04 PM")))
	prompt.WriteString(location + "\n")
	prompt.WriteString("You help the driver with their current location, the current time, traffic and weather info, ")
	prompt.WriteString("estimated arrival times and directions to destinations.\n")
	prompt.WriteString("You also talk with the driver when they feel sleepy or fatigued.\n")
	prompt.WriteString("Only respond in 1-2 sentences unless instructed otherwise.\n")

	return llm.SystemMessage(prompt.String())
}

func (m *Manager) overrideAddress() string {
	if m.override == nil {
		return ""
	}
	return strings.TrimSpace(m.override.LocationOverride())
}

// RefreshSystemContext replaces the leading system message, inserting one if
// the history does not start with it.
func (m *Manager) RefreshSystemContext(ctx context.Context) {
	sys := m.RegenerateSystemContext(ctx)
	if len(m.messages) > 0 && m.messages[0].Role == llm.RoleSystem {
		m.messages[0] = sys
		return
	}
	m.messages = append([]llm.Message{sys}, m.messages...)
}

func (m *Manager) Append(msg llm.Message) {
	m.messages = append(m.messages, msg)
}

// Messages returns a copy of the current history.
func (m *Manager) Messages() []llm.Message {
	out := make([]llm.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Prepare refreshes the system context and trims the stored history to the
// budget, returning what should be sent to the model.
func (m *Manager) Prepare(ctx context.Context) []llm.Message {
	m.RefreshSystemContext(ctx)
	m.messages = Trim(m.messages, m.maxTokens)
	return m.Messages()
}

// EstimateTokens approximates the token cost of text at 1.3 tokens per word.
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * tokensPerWord
}

// Trim keeps a leading system message plus the longest run of most recent
// messages whose combined cost fits maxTokens. The system message is not
// counted. The input slice is not modified.
func Trim(history []llm.Message, maxTokens float64) []llm.Message {
	var head []llm.Message
	rest := history
	if len(history) > 0 && history[0].Role == llm.RoleSystem {
		head = history[:1]
		rest = history[1:]
	}

	total := 0.0
	cut := len(rest)
	for i := len(rest) - 1; i >= 0; i-- {
		cost := EstimateTokens(rest[i].Content)
		if total+cost > maxTokens {
			break
		}
		total += cost
		cut = i
	}

	out := make([]llm.Message, 0, len(head)+len(rest)-cut)
	out = append(out, head...)
	return append(out, rest[cut:]...)
}
