package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/assistanttest"
	"nova-drive-be/pkg/assistant/history"
	"nova-drive-be/pkg/assistant/intent"
	"nova-drive-be/pkg/assistant/session"
	"nova-drive-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classifierFunc func(ctx context.Context, utterance string) intent.Intent

func (f classifierFunc) Classify(ctx context.Context, utterance string) intent.Intent {
	return f(ctx, utterance)
}

var (
	origin = assistant.Coordinates{Lat: 30.0444, Lon: 31.2357}
	giza   = assistant.Coordinates{Lat: 30.0131, Lon: 31.2089}
	maadi  = assistant.Coordinates{Lat: 29.9602, Lon: 31.2569}
)

type harness struct {
	router   *Router
	session  *session.Session
	clock    *assistanttest.Clock
	rec      *assistanttest.Recognizer
	speaker  *assistanttest.Speaker
	display  *assistanttest.Display
	geo      *assistanttest.Geo
	routes   *assistanttest.Routes
	weather  *assistanttest.Weather
	maps     *assistanttest.MapView
	notifier *assistanttest.Notifier
	chat     *assistanttest.LLM
	history  *history.Manager
	intents  []intent.Intent
	classify int
}

func newHarness(t *testing.T, script ...string) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		session:  session.New(),
		clock:    assistanttest.NewClock(time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)),
		speaker:  &assistanttest.Speaker{},
		display:  &assistanttest.Display{},
		routes:   &assistanttest.Routes{Summary: "The estimated travel time is 20 minutes (normally 15 minutes), covering 12.5 km. Traffic conditions are normal."},
		weather:  &assistanttest.Weather{Report: "Current weather is clear sky."},
		maps:     &assistanttest.MapView{},
		notifier: &assistanttest.Notifier{},
		chat:     &assistanttest.LLM{Default: "Sure, here is one."},
	}
	h.rec = assistanttest.NewRecognizer(h.clock, script...)
	h.geo = &assistanttest.Geo{
		Places: map[string]assistant.Coordinates{"giza": giza, "maadi": maadi},
		Origin: origin,
	}
	h.history = history.NewManager(ctx, assistanttest.Locator{City: "Cairo", Country: "Egypt"}, h.session, logger.NewNop(), history.WithClock(h.clock.Now))
	h.session.SetMode(session.ModeAssistance)

	classifier := classifierFunc(func(context.Context, string) intent.Intent {
		h.classify++
		if len(h.intents) == 0 {
			return intent.Chat
		}
		in := h.intents[0]
		h.intents = h.intents[1:]
		return in
	})

	h.router = New(Deps{
		Session:    h.session,
		History:    h.history,
		Classifier: classifier,
		Chat:       h.chat,
		Recognizer: h.rec,
		Speaker:    h.speaker,
		Display:    h.display,
		Geo:        h.geo,
		Routes:     h.routes,
		Weather:    h.weather,
		Maps:       h.maps,
		Notifier:   h.notifier,
		Contacts: assistanttest.Contacts{
			{Name: "nada", Number: "+201093661321"},
			{Name: "mama", Number: "+201270509918"},
		},
	}, Config{
		SilenceTimeout: 30 * time.Second,
		CommandTimeout: 12 * time.Second,
		MessageTimeout: 25 * time.Second,
		Now:            h.clock.Now,
	}, logger.NewNop())

	return h
}

func (h *harness) handle(text string) Outcome {
	return h.router.Handle(context.Background(), text, &Turn{LastHeard: h.clock.Now()})
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		text    string
		phrases []string
		want    bool
	}{
		{"Please CLOSE the map", mapClosePhrases, false},
		{"close map please", mapClosePhrases, true},
		{"Open maps!", mapOpenPhrases, true},
		{"thanks, bye", farewellPhrases, true},
		{"what's the weekend forecast", disablePhrases, false},
		{"send a message to nada", contactPhrases, true},
		{"can you recommend a restaurant", contactPhrases, false},
		{"what's happening during rush hour", callPhrases, true},
		{"give mama a ring", callPhrases, true},
		{"calling mama", callPhrases, true},
		{"texting nada please", contactPhrases, true},
		{"Stop-Monitoring now", disablePhrases, true},
		{"monitoring mode please", enablePhrases, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPhrase(normalize(tt.text), tt.phrases))
		})
	}
}

func TestHandle_DisableMonitoring(t *testing.T) {
	h := newHarness(t)
	h.session.PressMic()

	out := h.handle("Disable monitoring")

	assert.Equal(t, EndTurnLoop, out)
	assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	assert.False(t, h.session.MicPressed())
	assert.False(t, h.session.VoiceFeedbackEnabled())
	assert.False(t, h.session.MonitoringEnabled())
	assert.True(t, h.display.Has("monitor_state:off,off"))
	assert.True(t, h.display.Has("hide_panel"))
	assert.Equal(t, []string{MsgAck, MsgMonitoringOff}, h.speaker.Spoken())
	assert.Zero(t, h.classify)
}

func TestHandle_EnableMonitoring(t *testing.T) {
	h := newHarness(t)
	h.session.DisableMonitoring()

	out := h.handle("start monitoring again")

	assert.Equal(t, EndTurnLoop, out)
	assert.True(t, h.session.MonitoringEnabled())
	assert.True(t, h.session.VoiceFeedbackEnabled())
	assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	assert.True(t, h.display.Has("monitor_state:on,on"))
}

func TestHandle_MapsAndFarewell(t *testing.T) {
	t.Run("close", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, EndTurnLoop, h.handle("close gps"))
		assert.Equal(t, 1, h.maps.Closed)
		assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	})

	t.Run("open at origin", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, EndTurnLoop, h.handle("open maps"))
		assert.Equal(t, []assistant.Coordinates{origin}, h.maps.Opened)
		assert.Equal(t, []string{MsgAck, MsgOpeningMaps}, h.speaker.Spoken())
	})

	t.Run("goodbye", func(t *testing.T) {
		h := newHarness(t)
		h.session.PressMic()
		assert.Equal(t, EndTurnLoop, h.handle("ok thank you"))
		assert.True(t, h.speaker.Said(MsgGoodbye))
		assert.False(t, h.session.MicPressed())
		assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	})
}

func TestHandle_Silence(t *testing.T) {
	h := newHarness(t)
	turn := &Turn{LastHeard: h.clock.Now()}

	h.clock.Advance(12 * time.Second)
	assert.Equal(t, Continue, h.router.Handle(context.Background(), "", turn))
	assert.Empty(t, h.speaker.Spoken())

	h.clock.Advance(19 * time.Second)
	assert.Equal(t, EndTurnLoop, h.router.Handle(context.Background(), "", turn))
	assert.Equal(t, []string{MsgSilenceTimeout}, h.speaker.Spoken())
	assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	assert.True(t, h.display.Has("hide_panel"))
}

func TestHandle_SpeechResetsSilenceTimer(t *testing.T) {
	h := newHarness(t)
	turn := &Turn{LastHeard: h.clock.Now()}

	h.clock.Advance(25 * time.Second)
	h.router.Handle(context.Background(), "tell me a joke", turn)
	h.clock.Advance(25 * time.Second)

	assert.Equal(t, Continue, h.router.Handle(context.Background(), "", turn))
}

func TestHandle_CallKnownContact(t *testing.T) {
	h := newHarness(t)

	out := h.handle("call mama")

	assert.Equal(t, Continue, out)
	require.Len(t, h.notifier.Sent(), 1)
	assert.Equal(t, assistanttest.Notification{Number: "+201270509918", Text: "", Mode: assistant.NotifyCall}, h.notifier.Sent()[0])
	assert.Equal(t, []string{"Calling mama on WhatsApp."}, h.speaker.Spoken())
	assert.Equal(t, session.ModeAssistance, h.session.Mode())
}

func TestHandle_InflectedContactCommands(t *testing.T) {
	tests := []struct {
		text   string
		script []string
		number string
		body   string
		mode   assistant.NotifyMode
	}{
		{"calling mama", nil, "+201270509918", "", assistant.NotifyCall},
		{"texting nada please", []string{"i am on my way"}, "+201093661321", "i am on my way", assistant.NotifyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			h := newHarness(t, tt.script...)

			assert.Equal(t, Continue, h.handle(tt.text))

			assert.Zero(t, h.classify, "keyword rules run before classification")
			require.Len(t, h.notifier.Sent(), 1)
			sent := h.notifier.Sent()[0]
			assert.Equal(t, tt.number, sent.Number)
			assert.Equal(t, tt.body, sent.Text)
			assert.Equal(t, tt.mode, sent.Mode)
		})
	}
}

func TestHandle_UnknownContactRepromptsOnce(t *testing.T) {
	h := newHarness(t, "uncle sam")

	out := h.handle("call my friend")

	assert.Equal(t, EndTurnLoop, out)
	assert.Equal(t, 1, h.speaker.Count(MsgRepeatName))
	assert.Len(t, h.speaker.Spoken(), 1, "abandonment is silent")
	assert.Equal(t, 1, h.rec.Calls())
	assert.Empty(t, h.notifier.Sent())
	assert.Equal(t, session.ModeAssistance, h.session.Mode())
}

func TestHandle_ContactNameOnRetry(t *testing.T) {
	h := newHarness(t, "it's nada")

	out := h.handle("ring someone")

	assert.Equal(t, Continue, out)
	require.Len(t, h.notifier.Sent(), 1)
	assert.Equal(t, "+201093661321", h.notifier.Sent()[0].Number)
	assert.Equal(t, assistant.NotifyCall, h.notifier.Sent()[0].Mode)
}

func TestHandle_SendMessage(t *testing.T) {
	h := newHarness(t, "", "i will be late")

	out := h.handle("send a whatsapp to nada")

	assert.Equal(t, Continue, out)
	require.Len(t, h.notifier.Sent(), 1)
	assert.Equal(t, assistanttest.Notification{
		Number: "+201093661321",
		Text:   "i will be late",
		Mode:   assistant.NotifyMessage,
	}, h.notifier.Sent()[0])
	assert.Equal(t, []string{
		"Got it. Now tell me the message to send to nada.",
		MsgSayAgain,
		MsgMessageSent,
	}, h.speaker.Spoken())
}

func TestHandle_MessageBodyTimesOut(t *testing.T) {
	h := newHarness(t, "", "", "", "", "")

	out := h.handle("text mama")

	assert.Equal(t, EndTurnLoop, out)
	assert.Empty(t, h.notifier.Sent())
	assert.Equal(t, 1, h.speaker.Count(MsgSayAgain))
	assert.True(t, h.speaker.Said(MsgNoMessage))
	// 12s windows against a 25s budget: three windows before giving up.
	assert.Equal(t, 3, h.rec.Calls())
}

func TestHandle_NotifierFailureIsLoggedOnly(t *testing.T) {
	h := newHarness(t)
	h.notifier.Err = errors.New("bridge offline")

	assert.Equal(t, Continue, h.handle("call nada"))
	assert.Len(t, h.notifier.Sent(), 1)
}

func TestHandle_RouteInfo(t *testing.T) {
	t.Run("eta", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeETA, Destination: "Giza"}}

		assert.Equal(t, Continue, h.handle("how far is giza"))
		assert.Equal(t, []string{h.routes.Summary}, h.speaker.Spoken())
		assert.Equal(t, 1, h.routes.Calls)
	})

	t.Run("unknown destination", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeTraffic, Destination: "atlantis"}}

		assert.Equal(t, Continue, h.handle("traffic to atlantis"))
		assert.Equal(t, []string{MsgRouteFailed}, h.speaker.Spoken())
		assert.Zero(t, h.routes.Calls)
	})

	t.Run("routing error", func(t *testing.T) {
		h := newHarness(t)
		h.routes.Err = errors.New("timeout")
		h.intents = []intent.Intent{{Type: intent.TypeETA, Destination: "maadi"}}

		h.handle("when will i reach maadi")
		assert.Equal(t, []string{MsgRouteFailed}, h.speaker.Spoken())
	})

	t.Run("no origin", func(t *testing.T) {
		h := newHarness(t)
		h.geo.OriginErr = errors.New("no fix")
		h.intents = []intent.Intent{{Type: intent.TypeETA, Destination: "giza"}}

		h.handle("how long to giza")
		assert.Equal(t, []string{MsgRouteFailed}, h.speaker.Spoken())
	})
}

func TestHandle_Navigate(t *testing.T) {
	t.Run("with destination", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeNavigate, Destination: "maadi"}}

		assert.Equal(t, Continue, h.handle("navigate to maadi"))
		assert.Equal(t, []assistant.Coordinates{maadi}, h.maps.Directions)
		assert.Equal(t, []string{"Opening directions to Maadi..."}, h.speaker.Spoken())
	})

	t.Run("asks where to", func(t *testing.T) {
		h := newHarness(t, "giza")
		h.intents = []intent.Intent{{Type: intent.TypeNavigate}}

		assert.Equal(t, Continue, h.handle("take me somewhere"))
		assert.Equal(t, []assistant.Coordinates{giza}, h.maps.Directions)
		assert.Equal(t, MsgWhereTo, h.speaker.Spoken()[0])
	})

	t.Run("unresolved", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeNavigate, Destination: "nowhere land"}}

		assert.Equal(t, Continue, h.handle("navigate to nowhere land"))
		assert.Empty(t, h.maps.Directions)
		assert.True(t, h.speaker.Said(MsgLocationNotFound))
	})
}

func TestHandle_Weather(t *testing.T) {
	t.Run("current location", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeWeather}}

		h.handle("what's the weather")
		assert.Equal(t, []assistant.Coordinates{origin}, h.weather.At)
		assert.Equal(t, []string{h.weather.Report}, h.speaker.Spoken())
	})

	t.Run("destination", func(t *testing.T) {
		h := newHarness(t)
		h.intents = []intent.Intent{{Type: intent.TypeWeather, Destination: "Giza"}}

		h.handle("weather in giza")
		assert.Equal(t, []assistant.Coordinates{giza}, h.weather.At)
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t)
		h.weather.Err = errors.New("401")
		h.intents = []intent.Intent{{Type: intent.TypeWeather}}

		h.handle("is it raining")
		assert.Equal(t, []string{MsgWeatherFailed}, h.speaker.Spoken())
	})
}

func TestHandle_Chat(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, Continue, h.handle("tell me a joke"))

	require.Len(t, h.chat.Chats, 1)
	sent := h.chat.Chats[0]
	assert.Equal(t, llm.RoleSystem, sent[0].Role)
	assert.Equal(t, llm.UserMessage("tell me a joke"), sent[len(sent)-1])

	msgs := h.history.Messages()
	assert.Equal(t, llm.AssistantMessage("Sure, here is one."), msgs[len(msgs)-1])
	assert.Equal(t, []string{"Sure, here is one."}, h.speaker.Spoken())
}

func TestHandle_ChatFailure(t *testing.T) {
	h := newHarness(t)
	h.chat.Err = errors.New("model not loaded")

	assert.Equal(t, Continue, h.handle("how are you"))
	assert.Equal(t, []string{MsgChatFailed}, h.speaker.Spoken())
	require.Len(t, h.chat.Chats, 1, "no retry")
}

func TestRunLoop(t *testing.T) {
	h := newHarness(t, "", "tell me a joke", "goodbye")

	h.router.RunLoop(context.Background())

	assert.Equal(t, session.ModeMonitoring, h.session.Mode())
	assert.Equal(t, 3, h.rec.Calls())
	assert.Equal(t, []string{"Sure, here is one.", MsgGoodbye}, h.speaker.Spoken())
}

func TestRunLoop_StopsWhenModeChanges(t *testing.T) {
	h := newHarness(t)
	h.session.SetMode(session.ModeMonitoring)

	h.router.RunLoop(context.Background())

	assert.Zero(t, h.rec.Calls())
}

func TestRunLoop_SilenceTimeout(t *testing.T) {
	h := newHarness(t)

	h.router.RunLoop(context.Background())

	// Each silent window advances the clock by 12s: the third exceeds 30s.
	assert.Equal(t, 3, h.rec.Calls())
	assert.Equal(t, []string{MsgSilenceTimeout}, h.speaker.Spoken())
	assert.Equal(t, session.ModeMonitoring, h.session.Mode())
}
