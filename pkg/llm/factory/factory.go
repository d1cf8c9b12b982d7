package factory

import (
	"context"
	"fmt"

	"nova-drive-be/pkg/llm"
	"nova-drive-be/pkg/llm/gemini"
	"nova-drive-be/pkg/llm/groq"
	"nova-drive-be/pkg/llm/ollama"
)

// Settings carries what any of the supported backends may need.
type Settings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	GroqAPIKey    string
	GeminiAPIKey  string
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama", "":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case "groq":
		if s.GroqAPIKey == "" {
			return nil, fmt.Errorf("groq provider requires GROQ_API_KEY")
		}
		return groq.NewGroqProvider(s.GroqAPIKey, "", s.Model), nil
	case "gemini":
		p, err := gemini.NewGeminiProvider(ctx, s.GeminiAPIKey, s.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
