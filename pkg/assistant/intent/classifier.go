// Package intent classifies a driver utterance into a structured intent
// with the chat model.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/llm"
)

// Type is the coarse action the driver asked for.
type Type string

const (
	TypeChat     Type = "chat"
	TypeWeather  Type = "weather"
	TypeTraffic  Type = "traffic"
	TypeETA      Type = "eta"
	TypeNavigate Type = "navigate"
)

func (t Type) Valid() bool {
	switch t {
	case TypeChat, TypeWeather, TypeTraffic, TypeETA, TypeNavigate:
		return true
	}
	return false
}

// Intent is the structured reading of one utterance. Destination is empty
// when the driver means their current location.
type Intent struct {
	Type        Type   `json:"type"`
	Destination string `json:"destination"`
}

// Chat is the fallback for anything that cannot be classified.
var Chat = Intent{Type: TypeChat}

// Classifier asks the model to label an utterance. It never returns an error:
// every failure degrades to Chat.
type Classifier struct {
	llmProvider llm.LLMProvider
	region      string
	logger      logger.ILogger
}

// NewClassifier creates a classifier. region biases the destination examples
// in the prompt ("Cairo, Egypt").
func NewClassifier(llmProvider llm.LLMProvider, region string, logger logger.ILogger) *Classifier {
	if region == "" {
		region = "Cairo, Egypt"
	}
	return &Classifier{
		llmProvider: llmProvider,
		region:      region,
		logger:      logger,
	}
}

// Classify makes exactly one model call at temperature 0.
func (c *Classifier) Classify(ctx context.Context, utterance string) Intent {
	response, err := c.llmProvider.Generate(ctx, c.buildPrompt(utterance), llm.WithTemperature(0.0), llm.WithJSON())
	if err != nil {
		c.logger.Error("Intent", "Intent classification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return Chat
	}

	in, err := parseIntent(response)
	if err != nil {
		c.logger.Warn("Intent", "Intent parsing failed, using chat", map[string]interface{}{
			"error":    err.Error(),
			"response": response,
		})
		return Chat
	}

	c.logger.Debug("Intent", "Resolved intent", map[string]interface{}{
		"type":        in.Type,
		"destination": in.Destination,
	})
	return in
}

func (c *Classifier) buildPrompt(utterance string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a classification engine. Do not explain or speak.\n")
	prompt.WriteString(fmt.Sprintf("You are part of a driver assistant that helps drivers in %s.\n", c.region))
	prompt.WriteString("ONLY return a valid JSON object with exactly these 2 fields:\n")
	prompt.WriteString("- type: one of [\"chat\", \"weather\", \"traffic\", \"eta\", \"navigate\"]\n")
	prompt.WriteString("- destination: a place like \"Giza\", \"Sheikh Zayed\" or \"the drive Nasr City\". ")
	prompt.WriteString("If the driver means their current location, leave it empty like \"\".\n\n")

	prompt.WriteString("Destinations can be precise like \"Sheikh Zayed st.34\", \"Sheikh Zayed district 5\" or \"Mesaha square in dokki\".\n")
	prompt.WriteString("If the driver only asks about their current location, use type chat with an empty destination.\n\n")

	prompt.WriteString("Examples:\n")
	prompt.WriteString("User: \"what's the weather like in Giza?\" -> {\"type\": \"weather\", \"destination\": \"Giza\"}\n")
	prompt.WriteString("User: \"how's traffic near me?\" -> {\"type\": \"traffic\", \"destination\": \"\"}\n")
	prompt.WriteString("User: \"how far is Sheikh Zayed?\" -> {\"type\": \"eta\", \"destination\": \"Sheikh Zayed\"}\n")
	prompt.WriteString("User: \"navigate to maadi\" -> {\"type\": \"navigate\", \"destination\": \"maadi\"}\n")
	prompt.WriteString("User: \"navigate to waterway New Cairo\" -> {\"type\": \"navigate\", \"destination\": \"waterway New Cairo\"}\n")
	prompt.WriteString("User: \"tell me a joke\" -> {\"type\": \"chat\", \"destination\": \"\"}\n\n")

	prompt.WriteString("Now classify this input:\n")
	prompt.WriteString(fmt.Sprintf("%q\n", utterance))
	prompt.WriteString("Respond ONLY with JSON. No explanation.")

	return prompt.String()
}

func parseIntent(response string) (Intent, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return Intent{}, fmt.Errorf("no JSON found in response")
	}

	var raw struct {
		Type        string `json:"type"`
		Destination string `json:"destination"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return Intent{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	t := Type(strings.ToLower(strings.TrimSpace(raw.Type)))
	if !t.Valid() {
		return Intent{}, fmt.Errorf("unknown intent type %q", raw.Type)
	}

	return Intent{Type: t, Destination: strings.TrimSpace(raw.Destination)}, nil
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
