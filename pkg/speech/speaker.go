package speech

import (
	"context"
	"sync"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
)

// CommandSpeaker speaks through a TTS command line such as "espeak-ng {text}".
// Calls are serialized so utterances never overlap.
type CommandSpeaker struct {
	command Command
	logger  logger.ILogger
	mu      sync.Mutex
}

var _ assistant.Speaker = (*CommandSpeaker)(nil)

func NewCommandSpeaker(command string, log logger.ILogger) *CommandSpeaker {
	return &CommandSpeaker{command: Command(command), logger: log}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("TTS", "Speaking", map[string]interface{}{"text": text})
	if err := s.command.Run(ctx, map[string]string{"text": text}); err != nil {
		s.logger.Error("TTS", "Speak failed", map[string]interface{}{"error": err.Error()})
	}
}

// CommandBuzzer plays the alarm sound.
type CommandBuzzer struct {
	command Command
	logger  logger.ILogger
}

var _ assistant.Buzzer = (*CommandBuzzer)(nil)

func NewCommandBuzzer(command string, log logger.ILogger) *CommandBuzzer {
	return &CommandBuzzer{command: Command(command), logger: log}
}

func (b *CommandBuzzer) Buzz(ctx context.Context) {
	if b.command == "" {
		return
	}
	if err := b.command.Run(ctx, nil); err != nil {
		b.logger.Error("TTS", "Buzzer failed", map[string]interface{}{"error": err.Error()})
	}
}
