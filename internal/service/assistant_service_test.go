package service

import (
	"context"
	"path/filepath"
	"testing"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/implementation"
	"nova-drive-be/internal/repository/memory"
	"nova-drive-be/pkg/assistant/assistanttest"
	"nova-drive-be/pkg/assistant/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assistantHarness struct {
	svc     IAssistantService
	sess    *session.Session
	speaker *assistanttest.Speaker
	display *assistanttest.Display
}

func newAssistantHarness(t *testing.T, gs *geoServer) *assistantHarness {
	repo := implementation.NewLocationRepository(filepath.Join(t.TempDir(), "location.json"))
	geo := NewLocationService("k", "EGY", gs.endpoints(), memory.NewLookupRepository(), repo, logger.NewNop())
	h := &assistantHarness{
		sess:    session.New(),
		speaker: &assistanttest.Speaker{},
		display: &assistanttest.Display{},
	}
	h.svc = NewAssistantService(h.sess, h.speaker, h.display, geo, repo, logger.NewNop())
	return h
}

func ptr(v float64) *float64 { return &v }

func TestMonitoringToggles(t *testing.T) {
	h := newAssistantHarness(t, newGeoServer(t))
	ctx := context.Background()

	assert.Equal(t, "on", h.svc.MonitorMode().Mode)

	res := h.svc.DisableMonitoring(ctx)
	assert.Equal(t, "off", res.Mode)
	assert.False(t, h.sess.MonitoringEnabled())
	assert.False(t, h.sess.VoiceFeedbackEnabled())

	res = h.svc.EnableMonitoring(ctx)
	assert.Equal(t, "on", res.Mode)

	assert.Equal(t, []string{MsgMonitoringDisabled, MsgMonitoringEnabled}, h.speaker.Spoken())
	assert.Equal(t, []string{"monitor_state:off,off", "monitor_state:on,on"}, h.display.Events())
}

func TestMonitorMode_PartialIsOff(t *testing.T) {
	h := newAssistantHarness(t, newGeoServer(t))
	h.sess.SetVoiceFeedbackEnabled(false)
	assert.Equal(t, "off", h.svc.MonitorMode().Mode)
}

func TestPressMicAndState(t *testing.T) {
	h := newAssistantHarness(t, newGeoServer(t))
	h.svc.PressMic(context.Background())

	st := h.svc.State()
	assert.True(t, st.MicPressed)
	assert.Equal(t, string(session.ModeMonitoring), st.Mode)
}

func TestReceiveLocation(t *testing.T) {
	h := newAssistantHarness(t, newGeoServer(t))

	res, err := h.svc.ReceiveLocation(context.Background(), dto.LocationRequest{Latitude: ptr(29.96), Longitude: ptr(31.25)})
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "Road 9, Maadi, Cairo, Egypt", res.Address)
	assert.Equal(t, "Road 9, Maadi, Cairo, Egypt", h.sess.LocationOverride())
}

func TestReceiveLocation_GeocodeFails(t *testing.T) {
	h := newAssistantHarness(t, newGeoServer(t))
	h.sess.SetLocationOverride("Zamalek")

	res, err := h.svc.ReceiveLocation(context.Background(), dto.LocationRequest{Latitude: ptr(0), Longitude: ptr(0)})
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, entity.UnknownAddress, res.Address)
	assert.Equal(t, "Zamalek", h.sess.LocationOverride(), "override kept")
}
