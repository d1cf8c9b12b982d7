// Package speech adapts the cabin audio hardware: microphone capture through
// an external recorder, Groq Whisper transcription, and TTS and alarm
// playback through external players.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is a whitespace separated command line template. Placeholders
// such as {text} or {file} are substituted per argument, so a value with
// spaces stays a single argument.
type Command string

func (c Command) expand(vars map[string]string) ([]string, error) {
	fields := strings.Fields(string(c))
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	args := make([]string, len(fields))
	for i, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, "{"+k+"}", v)
		}
		args[i] = f
	}
	return args, nil
}

// Run executes the command and waits for it. Output is captured for the
// error message only.
func (c Command) Run(ctx context.Context, vars map[string]string) error {
	args, err := c.expand(vars)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
