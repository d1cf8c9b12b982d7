package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Snapshot
	}{
		{
			name: "empty document is safe",
			doc:  `{}`,
			want: SafeSnapshot(),
		},
		{
			name: "values are lower-cased",
			doc:  `{"Activity Alert":"Texting","HOW Alert":"OFF_WHEEL","Health Alert":"Off","Distraction Alert":"ON"}`,
			want: Snapshot{Activity: "texting", Hands: "off_wheel", Health: "off", Distraction: "on"},
		},
		{
			name: "sleep as boolean",
			doc:  `{"Sleep Alert": true}`,
			want: Snapshot{Activity: ActivitySafe, Hands: HandsOn, Health: Off, Distraction: Off, Sleep: true},
		},
		{
			name: "sleep as legacy string",
			doc:  `{"Sleep Alert": "True"}`,
			want: Snapshot{Activity: ActivitySafe, Hands: HandsOn, Health: Off, Distraction: Off, Sleep: true},
		},
		{
			name: "sleep off string",
			doc:  `{"Sleep Alert": "off"}`,
			want: SafeSnapshot(),
		},
		{
			name: "fatigue on",
			doc:  `{"Fatigue Alert": "on"}`,
			want: Snapshot{Activity: ActivitySafe, Hands: HandsOn, Health: Off, Distraction: Off, Fatigue: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"Sleep Alert":`))
	assert.Error(t, err)
}

func TestSnapshotPredicates(t *testing.T) {
	assert.True(t, SafeSnapshot().Safe())
	assert.False(t, SafeSnapshot().Drowsy())

	distracted := SafeSnapshot()
	distracted.Distraction = On
	assert.False(t, distracted.Safe())

	handsOff := SafeSnapshot()
	handsOff.Hands = "off_wheel"
	assert.False(t, handsOff.Safe())

	sick := SafeSnapshot()
	sick.Health = "on"
	assert.False(t, sick.Safe())
}

func TestAdvisoryPrompt(t *testing.T) {
	s := Snapshot{Activity: "texting", Hands: "off_wheel", Health: "off", Distraction: "on"}

	assert.Equal(t,
		"Driver activity: texting. Distraction alert: on. Hands on or off wheel: off_wheel. Health alert: off. "+
			"Based on these observations, provide a short, polite safety instruction in 20 words or less. "+
			"The tone should be clear and supportive. Avoid generic advice.",
		s.AdvisoryPrompt())
}

func TestSnapshotJSONUsesFeedKeys(t *testing.T) {
	s := Snapshot{Activity: "drinking", Hands: HandsOn, Health: Off, Distraction: Off, Fatigue: true}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "drinking", doc[KeyActivity])
	assert.Equal(t, "on", doc[KeyFatigue])
	assert.Equal(t, false, doc[KeySleep])
}

func TestFileFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver_alert.json")
	feed := NewFileFeed(path, logger.NewNop())

	_, err := feed.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	require.NoError(t, os.WriteFile(path, []byte(`{"Distraction Alert":"on"}`), 0644))
	snap, err := feed.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "on", snap.Distraction)
}

func TestFileFeed_WatchRefreshesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver_alert.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFileFeed(path, logger.NewNop())
	require.NoError(t, feed.Start(ctx))
	defer feed.Close()

	snap, err := feed.Current(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Drowsy())

	require.NoError(t, os.WriteFile(path, []byte(`{"Sleep Alert": true}`), 0644))

	assert.Eventually(t, func() bool {
		snap, err := feed.Current(ctx)
		return err == nil && snap.Sleep
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHTTPFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/alert":
			w.Write([]byte(`{"HOW Alert":"off_wheel"}`))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	snap, err := NewHTTPFeed(srv.URL + "/alert").Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "off_wheel", snap.Hands)

	_, err = NewHTTPFeed(srv.URL + "/empty").Current(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	_, err = NewHTTPFeed(srv.URL + "/broken").Current(context.Background())
	assert.Error(t, err)
}

func TestNATSFeedHandle(t *testing.T) {
	feed := NewNATSFeed(nil, "", logger.NewNop())

	_, err := feed.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	require.NoError(t, feed.Handle(context.Background(), events.New(events.TypeAlertSnapshot, map[string]interface{}{
		KeyFatigue: "on",
	})))

	snap, err := feed.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Drowsy())
}
