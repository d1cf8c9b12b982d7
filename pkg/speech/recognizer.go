package speech

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"

	"github.com/google/uuid"
)

// Recorder captures microphone audio into a WAV file.
type Recorder interface {
	Record(ctx context.Context, d time.Duration, path string) error
}

// CommandRecorder records with an external tool such as arecord. The
// template receives {seconds} and {file}.
type CommandRecorder struct {
	Command Command
}

func (r CommandRecorder) Record(ctx context.Context, d time.Duration, path string) error {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return r.Command.Run(ctx, map[string]string{
		"seconds": strconv.Itoa(secs),
		"file":    path,
	})
}

// errorBackoff caps the pause after a failed window so a broken microphone
// or transcriber cannot turn the caller's listen loop into a busy spin.
const errorBackoff = 2 * time.Second

// Recognizer records in windows of at most PhraseLimit until something is
// transcribed or the timeout is used up.
type Recognizer struct {
	recorder    Recorder
	transcriber Transcriber
	phraseLimit time.Duration
	tmpDir      string
	logger      logger.ILogger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration)
}

var _ assistant.Recognizer = (*Recognizer)(nil)

func NewRecognizer(recorder Recorder, transcriber Transcriber, phraseLimit time.Duration, log logger.ILogger) *Recognizer {
	if phraseLimit <= 0 {
		phraseLimit = 12 * time.Second
	}
	return &Recognizer{
		recorder:    recorder,
		transcriber: transcriber,
		phraseLimit: phraseLimit,
		tmpDir:      os.TempDir(),
		logger:      log,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func (r *Recognizer) Recognize(ctx context.Context, timeout time.Duration) (string, bool) {
	start := r.now()
	for {
		remaining := timeout - r.now().Sub(start)
		if remaining <= 0 || ctx.Err() != nil {
			return "", false
		}
		window := r.phraseLimit
		if remaining < window {
			window = remaining
		}

		attempt := r.now()
		text, err := r.listenOnce(ctx, window)
		if err != nil {
			r.logger.Warn("SPEECH", "Recognition failed", map[string]interface{}{"error": err.Error()})
			// Sit out the unused part of the window, up to errorBackoff.
			pause := window - r.now().Sub(attempt)
			if pause > errorBackoff {
				pause = errorBackoff
			}
			if pause > 0 {
				r.sleep(ctx, pause)
			}
			return "", false
		}
		if text != "" {
			r.logger.Debug("SPEECH", "Heard", map[string]interface{}{"text": text})
			return text, true
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *Recognizer) listenOnce(ctx context.Context, window time.Duration) (string, error) {
	path := filepath.Join(r.tmpDir, fmt.Sprintf("nova-%s.wav", uuid.NewString()))
	defer os.Remove(path)

	if err := r.recorder.Record(ctx, window, path); err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	text, err := r.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", err
	}
	return Clean(text), nil
}

// Clean lower-cases a transcript and drops surrounding whitespace and the
// trailing full stop Whisper tends to add.
func Clean(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.TrimSpace(strings.TrimRight(text, ".!"))
}
