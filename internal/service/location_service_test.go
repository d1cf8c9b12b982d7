package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/internal/repository/implementation"
	"nova-drive-be/internal/repository/memory"
	"nova-drive-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geoServer struct {
	*httptest.Server
	ipHits      atomic.Int32
	geocodeHits atomic.Int32
	lastQuery   atomic.Value
	userAgent   atomic.Value
}

func newGeoServer(t *testing.T) *geoServer {
	gs := &geoServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ip", func(w http.ResponseWriter, r *http.Request) {
		gs.ipHits.Add(1)
		w.Write([]byte(`{"status":"success","country":"Egypt","city":"Cairo","lat":30.04,"lon":31.23}`))
	})
	mux.HandleFunc("/geocode", func(w http.ResponseWriter, r *http.Request) {
		gs.geocodeHits.Add(1)
		gs.lastQuery.Store(r.URL.Query())
		if r.URL.Query().Get("q") == "atlantis" {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(`{"items":[{"title":"Maadi","position":{"lat":29.96,"lng":31.25}}]}`))
	})
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		gs.userAgent.Store(r.Header.Get("User-Agent"))
		if r.URL.Query().Get("lat") == "0.000000" {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
			return
		}
		w.Write([]byte(`{"display_name":"Road 9, Maadi, Cairo, Egypt"}`))
	})
	gs.Server = httptest.NewServer(mux)
	t.Cleanup(gs.Close)
	return gs
}

func (gs *geoServer) endpoints() LocationEndpoints {
	return LocationEndpoints{
		IPLookup: gs.URL + "/ip",
		Geocode:  gs.URL + "/geocode",
		Reverse:  gs.URL + "/reverse",
	}
}

func newLocationService(t *testing.T, gs *geoServer) (ILocationService, contract.ILocationRepository) {
	repo := implementation.NewLocationRepository(filepath.Join(t.TempDir(), "location.json"))
	svc := NewLocationService("here-key", "egy", gs.endpoints(), memory.NewLookupRepository(), repo, logger.NewNop())
	return svc, repo
}

func TestApproximateLocation_Cached(t *testing.T) {
	gs := newGeoServer(t)
	svc, _ := newLocationService(t, gs)

	for i := 0; i < 2; i++ {
		city, country, err := svc.ApproximateLocation(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Cairo", city)
		assert.Equal(t, "Egypt", country)
	}
	assert.EqualValues(t, 1, gs.ipHits.Load())
}

func TestResolveDestination(t *testing.T) {
	gs := newGeoServer(t)
	svc, _ := newLocationService(t, gs)
	ctx := context.Background()

	got, err := svc.ResolveDestination(ctx, "Maadi")
	require.NoError(t, err)
	assert.Equal(t, assistant.Coordinates{Lat: 29.96, Lon: 31.25}, got)

	q := gs.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"countryCode:EGY"}, q["in"])
	assert.Equal(t, []string{"here-key"}, q["apiKey"])

	_, err = svc.ResolveDestination(ctx, "maadi ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, gs.geocodeHits.Load(), "second lookup is served from cache")

	_, err = svc.ResolveDestination(ctx, "atlantis")
	assert.ErrorIs(t, err, ErrPlaceNotFound)

	_, err = svc.ResolveDestination(ctx, "  ")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestLastKnownOrigin(t *testing.T) {
	gs := newGeoServer(t)
	svc, repo := newLocationService(t, gs)
	ctx := context.Background()

	got, err := svc.LastKnownOrigin(ctx)
	require.NoError(t, err)
	assert.Equal(t, assistant.Coordinates{Lat: 30.04, Lon: 31.23}, got, "falls back to ip estimate")

	require.NoError(t, repo.Save(ctx, entity.Location{Latitude: 29.9, Longitude: 31.2}))
	got, err = svc.LastKnownOrigin(ctx)
	require.NoError(t, err)
	assert.Equal(t, assistant.Coordinates{Lat: 29.9, Lon: 31.2}, got)
}

func TestReverseGeocode(t *testing.T) {
	gs := newGeoServer(t)
	svc, _ := newLocationService(t, gs)
	ctx := context.Background()

	addr, err := svc.ReverseGeocode(ctx, assistant.Coordinates{Lat: 29.96, Lon: 31.25})
	require.NoError(t, err)
	assert.Equal(t, "Road 9, Maadi, Cairo, Egypt", addr)
	assert.Equal(t, nominatimUserAgent, gs.userAgent.Load())

	_, err = svc.ReverseGeocode(ctx, assistant.Coordinates{})
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestLocationService_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := implementation.NewLocationRepository(filepath.Join(t.TempDir(), "location.json"))
	svc := NewLocationService("k", "EGY", LocationEndpoints{IPLookup: srv.URL, Geocode: srv.URL, Reverse: srv.URL},
		memory.NewLookupRepository(), repo, logger.NewNop())

	_, _, err := svc.ApproximateLocation(context.Background())
	assert.ErrorContains(t, err, "status 502")
	_, err = svc.LastKnownOrigin(context.Background())
	assert.Error(t, err)
}
