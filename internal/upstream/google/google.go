// Package google adapts the Google Maps Geocoding and Directions APIs to the
// planner's upstream interfaces.
package google

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// Client implements both upstream.Geocoder and upstream.Router.
type Client struct {
	client *maps.Client
	region string
}

// New creates a Client with the given API key. Extra options (for example
// maps.WithBaseURL in tests) are passed to the Maps client.
func New(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("google.New: create maps client: %w", err)
	}
	return &Client{client: c, region: "us"}, nil
}

// Geocode implements upstream.Geocoder.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	text := strings.Join(strings.Fields(query), " ")
	if text == "" {
		return domain.Coordinate{}, fmt.Errorf("google.Client.Geocode: %w: empty location", domain.ErrValidation)
	}

	results, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: text, Region: c.region})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return domain.Coordinate{}, fmt.Errorf("google.Client.Geocode: %w: no match for %q", domain.ErrValidation, text)
		}
		return domain.Coordinate{}, fmt.Errorf("google.Client.Geocode: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinate{}, fmt.Errorf("google.Client.Geocode: %w: no match for %q", domain.ErrValidation, text)
	}
	loc := results[0].Geometry.Location
	return domain.Coordinate{Lng: loc.Lng, Lat: loc.Lat}, nil
}

// Route implements upstream.Router. Intermediate waypoints are passed as
// Directions waypoints so one request covers every leg.
func (c *Client) Route(ctx context.Context, waypoints []domain.Coordinate) (upstream.RouteResult, error) {
	if len(waypoints) < 2 {
		return upstream.RouteResult{}, fmt.Errorf("google.Client.Route: %w: need at least 2 waypoints", domain.ErrValidation)
	}

	r := &maps.DirectionsRequest{
		Origin:      latLng(waypoints[0]),
		Destination: latLng(waypoints[len(waypoints)-1]),
		Mode:        maps.TravelModeDriving,
		Region:      c.region,
	}
	for _, w := range waypoints[1 : len(waypoints)-1] {
		r.Waypoints = append(r.Waypoints, latLng(w))
	}

	routes, _, err := c.client.Directions(ctx, r)
	if err != nil {
		return upstream.RouteResult{}, fmt.Errorf("google.Client.Route: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return upstream.RouteResult{}, fmt.Errorf("google.Client.Route: no route found")
	}

	route := routes[0]
	path, err := route.OverviewPolyline.Decode()
	if err != nil {
		return upstream.RouteResult{}, fmt.Errorf("google.Client.Route: decode polyline: %w", err)
	}

	var res upstream.RouteResult
	for _, p := range path {
		res.Coordinates = append(res.Coordinates, domain.Coordinate{Lng: p.Lng, Lat: p.Lat})
	}
	for _, l := range route.Legs {
		leg := domain.Leg{DistanceKm: float64(l.Distance.Meters) / 1000, DurationHours: l.Duration.Hours()}
		res.Legs = append(res.Legs, leg)
		res.DistanceKm += leg.DistanceKm
		res.DurationHours += leg.DurationHours
	}
	return res, nil
}

func latLng(c domain.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
