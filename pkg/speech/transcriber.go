package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultSTTModel    = "whisper-large-v3"

	// DrivingPrompt biases Whisper towards short navigation commands and
	// Cairo area names.
	DrivingPrompt = "You are transcribing short English voice commands from a driver assistant system in Egypt. " +
		"Expect navigation-related words like 'navigate to', 'how far is', and 'estimated arrival time'. " +
		"Egyptian area names may include: Zahraa El Maadi, Maadi, Nasr City, Dokki, Giza, Zamalek, Sheraton, New Cairo, El Rehab, Shorouk, 6 October."
)

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type GroqTranscriber struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	prompt   string
	client   *http.Client
}

func NewGroqTranscriber(apiKey, baseURL, model, language string) *GroqTranscriber {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	if model == "" {
		model = DefaultSTTModel
	}
	if language == "" {
		language = "en"
	}
	return &GroqTranscriber{
		apiKey:   apiKey,
		baseURL:  baseURL,
		model:    model,
		language: language,
		prompt:   DrivingPrompt,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Transcribe uploads a WAV file and returns the plain text transcript.
func (t *GroqTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	fields := map[string]string{
		"model":           t.model,
		"language":        t.language,
		"response_format": "text",
		"temperature":     "0.2",
		"prompt":          t.prompt,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq transcription error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
