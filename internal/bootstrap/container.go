package bootstrap

import (
	"context"
	"fmt"

	"nova-drive-be/internal/config"
	"nova-drive-be/internal/controller"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/pkg/mailer"
	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/internal/repository/implementation"
	"nova-drive-be/internal/repository/memory"
	"nova-drive-be/internal/service"
	"nova-drive-be/internal/websocket"
	"nova-drive-be/pkg/alert"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/escalation"
	"nova-drive-be/pkg/assistant/history"
	"nova-drive-be/pkg/assistant/intent"
	"nova-drive-be/pkg/assistant/orchestrator"
	"nova-drive-be/pkg/assistant/router"
	"nova-drive-be/pkg/assistant/session"
	"nova-drive-be/pkg/browser"
	"nova-drive-be/pkg/llm/factory"
	"nova-drive-be/pkg/speech"

	pktNats "nova-drive-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// OutboundTopic carries emergency emails and contact jobs to the consumer.
const OutboundTopic = "assistant.outbound"

// startable feeds need a background watch before Current is meaningful.
type startable interface {
	Start(ctx context.Context) error
}

type Container struct {
	Logger *logger.ZapLogger

	// Controllers
	AssistantController   controller.IAssistantController
	DiagnosticsController controller.IDiagnosticsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Orchestrator    *orchestrator.Orchestrator
	WebSocketHub    *websocket.Hub
	AlertFeed       alert.Feed

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	sess := session.New()
	lookupCache := memory.NewLookupRepository()

	locationRepo := implementation.NewLocationRepository(cfg.Storage.LocationFile)
	contactRepo, err := implementation.NewContactRepository(cfg.Assistant.ContactsFile)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	incidentRepo, err := implementation.NewIncidentRepository(cfg.Storage.IncidentDBPath)
	if err != nil {
		return nil, fmt.Errorf("open incident log: %w", err)
	}
	c.closers = append(c.closers, func() { _ = incidentRepo.Close() })

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
		locationRepo,
		sysLogger,
	)

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional: without it contact jobs are logged and dropped.
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		nc, err := pktNats.Connect(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, nc.Close)
			if natsPub, err = pktNats.NewPublisherFromConn(nc, sysLogger); err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to create NATS publisher", map[string]interface{}{"error": err.Error()})
			}
			if natsSub, err = pktNats.NewSubscriberFromConn(nc, sysLogger); err != nil {
				sysLogger.Warn("BOOTSTRAP", "Failed to create NATS subscriber", map[string]interface{}{"error": err.Error()})
			} else {
				c.closers = append(c.closers, natsSub.Close)
			}
		}
	}
	var bus service.EventPublisher
	if natsPub != nil {
		bus = natsPub
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 3. Services
	publisherService := service.NewPublisherService(OutboundTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, OutboundTopic, emailService, bus, sysLogger)

	locationService := service.NewLocationService(
		cfg.Keys.Here,
		cfg.Ai.CountryCode,
		service.DefaultLocationEndpoints(),
		lookupCache,
		locationRepo,
		sysLogger,
	)
	navigationService := service.NewNavigationService(cfg.Keys.Here, "", sysLogger)
	weatherService := service.NewWeatherService(cfg.Keys.OpenWeather, "", sysLogger)
	incidentService := service.NewIncidentService(incidentRepo, bus, sysLogger)

	llmProvider, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		GroqAPIKey:    cfg.Keys.Groq,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
	})
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 4. Speech and screen adapters
	recognizer := speech.NewRecognizer(
		speech.CommandRecorder{Command: speech.Command(cfg.Speech.RecordCommand)},
		speech.NewGroqTranscriber(cfg.Keys.Groq, "", cfg.Speech.STTModel, cfg.Speech.Language),
		cfg.Speech.PhraseLimit,
		sysLogger,
	)
	speaker := speech.NewCommandSpeaker(cfg.Speech.SpeakCommand, sysLogger)
	buzzer := speech.NewCommandBuzzer(cfg.Speech.BuzzerCommand, sysLogger)

	var maps assistant.MapView = browser.Disabled{Logger: sysLogger}
	if cfg.Browser.Enabled {
		mapView := browser.NewMapView(browser.Config{
			ChromeBin: cfg.Browser.ChromeBin,
			Headless:  cfg.Browser.Headless,
		}, sysLogger)
		c.closers = append(c.closers, func() { _ = mapView.Shutdown() })
		maps = mapView
	}

	feed, err := newAlertFeed(cfg, natsSub, sysLogger)
	if err != nil {
		return nil, err
	}
	c.AlertFeed = feed

	// 5. Assistant core
	historyManager := history.NewManager(ctx, locationService, sess, sysLogger,
		history.WithMaxTokens(float64(cfg.Ai.MaxHistoryTokens)))

	turnRouter := router.New(router.Deps{
		Session:    sess,
		History:    historyManager,
		Classifier: intent.NewClassifier(llmProvider, cfg.Ai.Region, sysLogger),
		Chat:       llmProvider,
		Recognizer: recognizer,
		Speaker:    speaker,
		Display:    c.WebSocketHub,
		Geo:        locationService,
		Routes:     navigationService,
		Weather:    weatherService,
		Maps:       maps,
		Notifier:   publisherService,
		Contacts:   contactRepo,
	}, router.Config{
		SilenceTimeout: cfg.Assistant.SilenceTimeout,
		CommandTimeout: cfg.Assistant.CommandTimeout,
		MessageTimeout: cfg.Assistant.MessageTimeout,
	}, sysLogger)

	checkup := escalation.NewHandler(escalation.Deps{
		Session:    sess,
		Recognizer: recognizer,
		Speaker:    speaker,
		Display:    c.WebSocketHub,
		Buzzer:     buzzer,
		Mailer:     publisherService,
		Notifier:   publisherService,
		Geo:        locationService,
		Incidents:  incidentService,
	}, escalation.Config{
		CheckupTimeout:   cfg.Assistant.CheckupTimeout,
		FollowupTimeout:  cfg.Assistant.FollowupTimeout,
		SettleDelay:      cfg.Assistant.SettleDelay,
		CallGap:          escalation.DefaultConfig().CallGap,
		EmergencyContact: emergencyContact(cfg, contactRepo),
		ReceiverEmail:    cfg.Assistant.ReceiverEmail,
		LiveStreamURL:    cfg.Assistant.LiveStreamURL,
	}, sysLogger)

	c.Orchestrator = orchestrator.New(orchestrator.Deps{
		Session:    sess,
		Recognizer: recognizer,
		Speaker:    speaker,
		Display:    c.WebSocketHub,
		Feed:       feed,
		Advisor:    llmProvider,
		Router:     turnRouter,
		Checkup:    checkup,
	}, orchestrator.Config{
		PollInterval:  cfg.Assistant.PollInterval,
		WakeWord:      cfg.Assistant.WakeWord,
		WakeWindow:    cfg.Assistant.WakeWindow,
		AlertCooldown: cfg.Assistant.AlertCooldown,
	}, sysLogger)

	assistantService := service.NewAssistantService(sess, speaker, c.WebSocketHub, locationService, locationRepo, sysLogger)
	c.WebSocketHub.SetInboundHandler(assistantService)

	// 6. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService)
	c.DiagnosticsController = controller.NewDiagnosticsController(sysLogger, incidentService)

	return c, nil
}

func newAlertFeed(cfg *config.Config, natsSub *pktNats.Subscriber, log logger.ILogger) (alert.Feed, error) {
	switch cfg.Alert.Source {
	case "http":
		return alert.NewHTTPFeed(cfg.Alert.URL), nil
	case "nats":
		if natsSub == nil {
			return nil, fmt.Errorf("alert source nats needs a reachable NATS_URL")
		}
		return alert.NewNATSFeed(natsSub, cfg.Alert.NatsSubject, log), nil
	default:
		return alert.NewFileFeed(cfg.Alert.FilePath, log), nil
	}
}

// emergencyContact prefers the configured number, then a contact of that
// name, then the first contact on file.
func emergencyContact(cfg *config.Config, contacts contract.IContactRepository) assistant.Contact {
	if cfg.Assistant.EmergencyNumber != "" {
		return assistant.Contact{Name: cfg.Assistant.EmergencyName, Number: cfg.Assistant.EmergencyNumber}
	}
	if cfg.Assistant.EmergencyName != "" {
		if ct, ok := contacts.Match(cfg.Assistant.EmergencyName); ok {
			return ct
		}
	}
	if all := contacts.FindAll(); len(all) > 0 {
		return all[0]
	}
	return assistant.Contact{}
}

// StartAlertFeed begins watching the alert source when it needs a watch.
func (c *Container) StartAlertFeed(ctx context.Context) error {
	if s, ok := c.AlertFeed.(startable); ok {
		return s.Start(ctx)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	if f, ok := c.AlertFeed.(*alert.FileFeed); ok {
		_ = f.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
