package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	SMTP      SMTPConfig
	Keys      APIKeys
	Ai        AIConfig
	Assistant AssistantConfig
	Alert     AlertConfig
	Storage   StorageConfig
	Speech    SpeechConfig
	Browser   BrowserConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string // empty disables the bus
	RedisURL           string // empty disables the UI mirror channel
	JwtSecret          string // empty leaves the control API open
	OtelEnabled        bool
	OtelEndpoint       string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Here         string
	OpenWeather  string
	Groq         string
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider      string // "ollama", "groq" or "gemini"
	LLMModel         string // e.g. "llama3.2"
	OllamaBaseURL    string
	MaxHistoryTokens int
	Region           string // biases destination parsing and geocoding
	CountryCode      string // ISO 3166-1 alpha-3 for HERE, e.g. "EGY"
}

type AssistantConfig struct {
	WakeWord        string
	PollInterval    time.Duration
	WakeWindow      time.Duration
	CommandTimeout  time.Duration
	SilenceTimeout  time.Duration
	MessageTimeout  time.Duration
	CheckupTimeout  time.Duration
	FollowupTimeout time.Duration
	SettleDelay     time.Duration
	AlertCooldown   time.Duration
	ContactsFile    string
	EmergencyName   string
	EmergencyNumber string
	ReceiverEmail   string
	LiveStreamURL   string
}

type AlertConfig struct {
	Source      string // "file", "http" or "nats"
	FilePath    string
	URL         string
	NatsSubject string
}

type StorageConfig struct {
	LocationFile   string
	IncidentDBPath string
}

type SpeechConfig struct {
	RecordCommand string // receives {seconds} and {file}
	SpeakCommand  string // receives {text}
	BuzzerCommand string
	Language      string
	STTModel      string
	PhraseLimit   time.Duration // longest single recording
}

type BrowserConfig struct {
	Enabled   bool
	ChromeBin string
	Headless  bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/ws.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Nova Drive"),
		},
		Keys: APIKeys{
			Here:         getEnv("HERE_API_KEY", ""),
			OpenWeather:  getEnv("OPENWEATHER_API_KEY", ""),
			Groq:         getEnv("GROQ_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:      getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:         getEnv("LLM_MODEL", "llama3.2"),
			OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			MaxHistoryTokens: getEnvAsInt("MAX_HISTORY_TOKENS", 7000),
			Region:           getEnv("ASSISTANT_REGION", "Cairo, Egypt"),
			CountryCode:      getEnv("ASSISTANT_COUNTRY_CODE", "EGY"),
		},
		Assistant: AssistantConfig{
			WakeWord:        getEnv("WAKE_WORD", "hey nova"),
			PollInterval:    getEnvAsDuration("POLL_INTERVAL_MS", 100*time.Millisecond),
			WakeWindow:      getEnvAsDuration("WAKE_WINDOW_MS", 5*time.Second),
			CommandTimeout:  getEnvAsDuration("COMMAND_TIMEOUT_MS", 12*time.Second),
			SilenceTimeout:  getEnvAsDuration("SILENCE_TIMEOUT_MS", 30*time.Second),
			MessageTimeout:  getEnvAsDuration("MESSAGE_TIMEOUT_MS", 25*time.Second),
			CheckupTimeout:  getEnvAsDuration("CHECKUP_TIMEOUT_MS", 50*time.Second),
			FollowupTimeout: getEnvAsDuration("FOLLOWUP_TIMEOUT_MS", 40*time.Second),
			SettleDelay:     getEnvAsDuration("SETTLE_DELAY_MS", 7*time.Second),
			AlertCooldown:   getEnvAsDuration("ALERT_COOLDOWN_MS", 5*time.Second),
			ContactsFile:    getEnv("CONTACTS_FILE", "config/contacts.yaml"),
			EmergencyName:   getEnv("EMERGENCY_CONTACT_NAME", ""),
			EmergencyNumber: getEnv("EMERGENCY_CONTACT_NUMBER", ""),
			ReceiverEmail:   getEnv("RECEIVER_EMAIL", ""),
			LiveStreamURL:   getEnv("LIVE_STREAM_URL", ""),
		},
		Alert: AlertConfig{
			Source:      getEnv("ALERT_SOURCE", "file"),
			FilePath:    getEnv("ALERT_FILE_PATH", "data/driver_alert.json"),
			URL:         getEnv("ALERT_URL", ""),
			NatsSubject: getEnv("ALERT_NATS_SUBJECT", "events.alert.snapshot"),
		},
		Storage: StorageConfig{
			LocationFile:   getEnv("LOCATION_FILE", "location.json"),
			IncidentDBPath: getEnv("INCIDENT_DB_PATH", "data/incidents.db"),
		},
		Speech: SpeechConfig{
			RecordCommand: getEnv("RECORD_COMMAND", "arecord -q -f S16_LE -r 16000 -c 1 -d {seconds} {file}"),
			SpeakCommand:  getEnv("SPEAK_COMMAND", "espeak-ng {text}"),
			BuzzerCommand: getEnv("BUZZER_COMMAND", "aplay -q assets/audio/buzzer.wav"),
			Language:      getEnv("SPEECH_LANGUAGE", "en"),
			STTModel:      getEnv("STT_MODEL", "whisper-large-v3"),
			PhraseLimit:   getEnvAsDuration("PHRASE_LIMIT_MS", 12*time.Second),
		},
		Browser: BrowserConfig{
			Enabled:   getEnvAsBool("BROWSER_ENABLED", true),
			ChromeBin: getEnv("CHROME_BIN", ""),
			Headless:  getEnvAsBool("BROWSER_HEADLESS", false),
		},
	}
}

// Validate reports settings the assistant cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Ai.LLMProvider {
	case "ollama", "":
	case "groq":
		if c.Keys.Groq == "" {
			errs = append(errs, errors.New("GROQ_API_KEY is required for LLM_PROVIDER=groq"))
		}
	case "gemini":
		if c.Keys.GoogleGemini == "" {
			errs = append(errs, errors.New("GOOGLE_GEMINI_API_KEY is required for LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.Ai.LLMProvider))
	}

	switch c.Alert.Source {
	case "file":
		if c.Alert.FilePath == "" {
			errs = append(errs, errors.New("ALERT_FILE_PATH is required for ALERT_SOURCE=file"))
		}
	case "http":
		if c.Alert.URL == "" {
			errs = append(errs, errors.New("ALERT_URL is required for ALERT_SOURCE=http"))
		}
	case "nats":
		if c.App.NatsURL == "" {
			errs = append(errs, errors.New("NATS_URL is required for ALERT_SOURCE=nats"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ALERT_SOURCE %q", c.Alert.Source))
	}

	if c.Ai.MaxHistoryTokens <= 0 {
		errs = append(errs, errors.New("MAX_HISTORY_TOKENS must be positive"))
	}
	if c.Assistant.SilenceTimeout <= 0 || c.Assistant.CheckupTimeout <= 0 || c.Assistant.FollowupTimeout <= 0 {
		errs = append(errs, errors.New("listening timeouts must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads a whole number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if ms, err := strconv.Atoi(strValue); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
