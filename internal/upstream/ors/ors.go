// Package ors geocodes locations with the OpenRouteService search API.
package ors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// DefaultBaseURL is the hosted OpenRouteService API.
const DefaultBaseURL = "https://api.openrouteservice.org"

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocoder implements upstream.Geocoder using /geocode/search.
// It is safe for concurrent use.
type Geocoder struct {
	client  *upstream.Client
	apiKey  string
	baseURL string
	country string
}

// New returns a Geocoder. An empty apiKey is an error.
func New(apiKey, baseURL string, timeout time.Duration) (*Geocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ors.New: api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Geocoder{
		client:  upstream.NewClient(timeout),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		country: "US",
	}, nil
}

// WithClient swaps the HTTP client, mainly to shorten backoff in tests.
func (g *Geocoder) WithClient(c *upstream.Client) *Geocoder {
	g.client = c
	return g
}

// Geocode implements upstream.Geocoder. A query with no match returns an
// error wrapping domain.ErrValidation.
func (g *Geocoder) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	text := strings.Join(strings.Fields(query), " ")
	if text == "" {
		return domain.Coordinate{}, fmt.Errorf("ors.Geocoder.Geocode: %w: empty location", domain.ErrValidation)
	}

	endpoint := g.baseURL + "/geocode/search"
	var decoded geocodeResponse
	err := g.client.GetJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", g.apiKey)
		req.Header.Set("Accept", "application/json")
		q := req.URL.Query()
		q.Set("text", text)
		q.Set("boundary.country", g.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	}, &decoded)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("ors.Geocoder.Geocode: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinate{}, fmt.Errorf("ors.Geocoder.Geocode: %w: no match for %q", domain.ErrValidation, text)
	}
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinate{}, fmt.Errorf("ors.Geocoder.Geocode: invalid coordinate format for %q", text)
	}
	return domain.Coordinate{Lng: coords[0], Lat: coords[1]}, nil
}
