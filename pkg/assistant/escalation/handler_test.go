package escalation

import (
	"context"
	"errors"
	"testing"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/assistant"
	"nova-drive-be/pkg/assistant/assistanttest"
	"nova-drive-be/pkg/assistant/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type incidentLog struct {
	sess      *session.Session
	incidents []Incident
	modes     []session.Mode
}

func (l *incidentLog) RecordIncident(_ context.Context, in Incident) error {
	l.incidents = append(l.incidents, in)
	l.modes = append(l.modes, l.sess.Mode())
	return nil
}

type fixture struct {
	handler   *Handler
	session   *session.Session
	rec       *assistanttest.Recognizer
	speaker   *assistanttest.Speaker
	display   *assistanttest.Display
	buzzer    *assistanttest.Buzzer
	mailer    *assistanttest.Mailer
	notifier  *assistanttest.Notifier
	incidents *incidentLog
	slept     []time.Duration
}

func newFixture(t *testing.T, script ...string) *fixture {
	t.Helper()
	clock := assistanttest.NewClock(time.Date(2026, time.June, 2, 23, 40, 0, 0, time.UTC))
	f := &fixture{
		session:  session.New(),
		speaker:  &assistanttest.Speaker{},
		display:  &assistanttest.Display{},
		buzzer:   &assistanttest.Buzzer{},
		mailer:   &assistanttest.Mailer{},
		notifier: &assistanttest.Notifier{},
	}
	f.rec = assistanttest.NewRecognizer(clock, script...)
	f.incidents = &incidentLog{sess: f.session}

	f.handler = NewHandler(Deps{
		Session:    f.session,
		Recognizer: f.rec,
		Speaker:    f.speaker,
		Display:    f.display,
		Buzzer:     f.buzzer,
		Mailer:     f.mailer,
		Notifier:   f.notifier,
		Geo:        &assistanttest.Geo{Origin: assistant.Coordinates{Lat: 30.05, Lon: 31.24}},
		Incidents:  f.incidents,
		Sleep:      func(_ context.Context, d time.Duration) { f.slept = append(f.slept, d) },
		Now:        clock.Now,
	}, Config{
		CheckupTimeout:   50 * time.Second,
		FollowupTimeout:  40 * time.Second,
		SettleDelay:      7 * time.Second,
		CallGap:          time.Second,
		EmergencyContact: assistant.Contact{Name: "nada", Number: "+201093661321"},
		ReceiverEmail:    "family@example.com",
		LiveStreamURL:    "https://stream.example.com/cabin",
	}, logger.NewNop())

	return f
}

func TestRunCheckup_NoResponseNotifiesEmergencyContact(t *testing.T) {
	f := newFixture(t, "")

	out := f.handler.RunCheckup(context.Background())

	assert.Equal(t, OutcomeEmergency, out)
	assert.Equal(t, []time.Duration{50 * time.Second}, f.rec.Timeouts)

	require.Len(t, f.mailer.Sent(), 1)
	assert.Equal(t, assistanttest.Email{StreamURL: "https://stream.example.com/cabin", To: "family@example.com"}, f.mailer.Sent()[0])

	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, assistant.NotifyMessage, sent[0].Mode)
	assert.Equal(t, "+201093661321", sent[0].Number)
	assert.Contains(t, sent[0].Text, "Driver seems to be unresponsive")
	assert.Contains(t, sent[0].Text, "https://stream.example.com/cabin")
	assert.Equal(t, assistant.NotifyCall, sent[1].Mode)

	assert.Equal(t, 1, f.buzzer.Count())
	assert.Equal(t, []time.Duration{time.Second, 7 * time.Second}, f.slept)
	assert.Equal(t, []string{MsgAreYouOkay, MsgDanger}, f.speaker.Spoken())

	assert.Equal(t, session.ModeMonitoring, f.session.Mode())
	assert.False(t, f.session.MicPressed())
	events := f.display.Events()
	assert.Equal(t, "hide_panel", events[len(events)-1])

	require.Len(t, f.incidents.incidents, 1)
	assert.Equal(t, OutcomeEmergency, f.incidents.incidents[0].Outcome)
	assert.Equal(t, session.ModeEmergency, f.incidents.modes[0], "still escalating while notifications run")
	require.NotNil(t, f.incidents.incidents[0].Location)
}

func TestRunCheckup_NotificationFailuresDoNotStopSequence(t *testing.T) {
	f := newFixture(t)
	f.mailer.Err = errors.New("smtp down")
	f.notifier.Err = errors.New("bridge down")

	out := f.handler.RunCheckup(context.Background())

	assert.Equal(t, OutcomeEmergency, out)
	assert.Len(t, f.mailer.Sent(), 1)
	assert.Len(t, f.notifier.Sent(), 2)
	assert.Equal(t, session.ModeMonitoring, f.session.Mode())
}

func TestRunCheckup_DriverWantsToTalk(t *testing.T) {
	f := newFixture(t, "i'm fine", "yeah sure")

	out := f.handler.RunCheckup(context.Background())

	assert.Equal(t, OutcomeAssistance, out)
	assert.Equal(t, session.ModeAssistance, f.session.Mode())
	assert.Equal(t, []time.Duration{50 * time.Second, 40 * time.Second}, f.rec.Timeouts)
	assert.Equal(t, []string{MsgAreYouOkay, MsgWantToTalk, MsgAssistanceMode}, f.speaker.Spoken())
	events := f.display.Events()
	assert.Equal(t, "show_panel", events[len(events)-1])
	assert.Empty(t, f.mailer.Sent())
	assert.Empty(t, f.notifier.Sent())
}

func TestRunCheckup_DriverDeclines(t *testing.T) {
	for _, answer := range []string{"no thanks", ""} {
		t.Run(answer, func(t *testing.T) {
			f := newFixture(t, "i am here", answer)

			out := f.handler.RunCheckup(context.Background())

			assert.Equal(t, OutcomeDismissed, out)
			assert.Equal(t, session.ModeMonitoring, f.session.Mode())
			assert.True(t, f.speaker.Said(MsgStandBy))
			assert.True(t, f.display.Has("hide_panel"))
			assert.Empty(t, f.notifier.Sent())
		})
	}
}

func TestRunCheckup_OnlyFromMonitoring(t *testing.T) {
	for _, mode := range []session.Mode{session.ModeCheckUp, session.ModeEmergency, session.ModeAssistance} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, "")
			f.session.SetMode(mode)

			out := f.handler.RunCheckup(context.Background())

			assert.Equal(t, Outcome(""), out)
			assert.Equal(t, mode, f.session.Mode())
			assert.Empty(t, f.speaker.Spoken())
			assert.Zero(t, f.rec.Calls())
		})
	}
}

func TestIsAffirmative(t *testing.T) {
	tests := map[string]bool{
		"yes":               true,
		"Yeah, please":      true,
		"sure thing":        true,
		"yep.":              true,
		"yesterday was bad": false,
		"no":                false,
		"":                  false,
	}
	for answer, want := range tests {
		assert.Equal(t, want, IsAffirmative(answer), answer)
	}
}
