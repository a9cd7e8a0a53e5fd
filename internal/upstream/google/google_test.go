package google_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/upstream/google"
)

func newClient(t *testing.T, h http.HandlerFunc) *google.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := google.New("AIza-test-key", maps.WithBaseURL(srv.URL), maps.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestClient_Geocode(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "Amarillo, TX", r.URL.Query().Get("address"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":35.222,"lng":-101.8313}}}]}`))
	})

	got, err := c.Geocode(context.Background(), "Amarillo,  TX")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lng: -101.8313, Lat: 35.222}, got)
}

func TestClient_GeocodeZeroResults(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	_, err := c.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_Route(t *testing.T) {
	path := []maps.LatLng{{Lat: 35.0, Lng: -97.0}, {Lat: 35.5, Lng: -98.0}, {Lat: 36.0, Lng: -99.0}}
	var gotWaypoints string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/directions/json", r.URL.Path)
		gotWaypoints = r.URL.Query().Get("waypoints")
		fmt.Fprintf(w, `{"status":"OK","routes":[{
			"overview_polyline":{"points":%q},
			"legs":[
				{"distance":{"value":100000,"text":"100 km"},"duration":{"value":3600,"text":"1 hour"}},
				{"distance":{"value":150000,"text":"150 km"},"duration":{"value":5400,"text":"1.5 hours"}}
			]}]}`, maps.Encode(path))
	})

	res, err := c.Route(context.Background(), []domain.Coordinate{
		{Lng: -97.0, Lat: 35.0}, {Lng: -98.0, Lat: 35.5}, {Lng: -99.0, Lat: 36.0},
	})
	require.NoError(t, err)

	assert.Equal(t, "35.500000,-98.000000", gotWaypoints)
	assert.InDelta(t, 250, res.DistanceKm, 1e-9)
	assert.InDelta(t, 2.5, res.DurationHours, 1e-9)
	require.Len(t, res.Legs, 2)
	assert.InDelta(t, 100, res.Legs[0].DistanceKm, 1e-9)
	require.Len(t, res.Coordinates, 3)
	assert.InDelta(t, -98.0, res.Coordinates[1].Lng, 1e-5)
	assert.InDelta(t, 35.5, res.Coordinates[1].Lat, 1e-5)
}

func TestClient_RouteNeedsTwoWaypoints(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Route(context.Background(), []domain.Coordinate{{Lng: 1, Lat: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
