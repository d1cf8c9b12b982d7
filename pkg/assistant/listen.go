package assistant

import (
	"context"
	"time"
)

// RetryPolicy bounds ListenWithRetry. A zero MaxAttempts means "until
// Deadline"; with neither set a single attempt is made.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration // per listening window
	Deadline    time.Duration // overall budget measured from the first attempt
	Prompt      string        // spoken once, after the first empty attempt
	Now         func() time.Time
}

// ListenWithRetry listens until a non-empty utterance arrives or the policy
// is exhausted. It is the shared "re-prompt once, else give up" primitive used
// for contact names, message bodies and destinations.
func ListenWithRetry(ctx context.Context, rec Recognizer, spk Speaker, p RetryPolicy) (string, bool) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts == 0 && p.Deadline <= 0 {
		maxAttempts = 1
	}

	start := now()
	prompted := false
	for attempt := 1; ; attempt++ {
		if text, ok := rec.Recognize(ctx, p.Timeout); ok && text != "" {
			return text, true
		}
		if ctx.Err() != nil {
			return "", false
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return "", false
		}
		if p.Deadline > 0 && now().Sub(start) >= p.Deadline {
			return "", false
		}
		if !prompted && p.Prompt != "" {
			spk.Speak(ctx, p.Prompt)
			prompted = true
		}
	}
}
