// Package osrm routes trips through an OSRM HTTP server.
package osrm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/upstream"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Router implements upstream.Router against the OSRM route service.
type Router struct {
	client  *upstream.Client
	baseURL string
	profile string
}

// New returns a Router for baseURL (DefaultBaseURL when empty).
func New(baseURL string, timeout time.Duration) *Router {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Router{
		client:  upstream.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
	}
}

// WithClient swaps the HTTP client, mainly to shorten backoff in tests.
func (r *Router) WithClient(c *upstream.Client) *Router {
	r.client = c
	return r
}

// Route implements upstream.Router.
func (r *Router) Route(ctx context.Context, waypoints []domain.Coordinate) (upstream.RouteResult, error) {
	if len(waypoints) < 2 {
		return upstream.RouteResult{}, fmt.Errorf("osrm.Router.Route: %w: need at least 2 waypoints", domain.ErrValidation)
	}

	pairs := make([]string, len(waypoints))
	for i, w := range waypoints {
		pairs[i] = strconv.FormatFloat(w.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(w.Lat, 'f', 6, 64)
	}
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s", r.baseURL, r.profile, strings.Join(pairs, ";"))

	var decoded routeResponse
	err := r.client.GetJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("overview", "full")
		q.Set("geometries", "geojson")
		q.Set("steps", "false")
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &decoded)
	if err != nil {
		return upstream.RouteResult{}, fmt.Errorf("osrm.Router.Route: %w", err)
	}

	if decoded.Code != "Ok" {
		return upstream.RouteResult{}, fmt.Errorf("osrm.Router.Route: code %s: %s", decoded.Code, decoded.Message)
	}
	if len(decoded.Routes) == 0 {
		return upstream.RouteResult{}, fmt.Errorf("osrm.Router.Route: no routes returned")
	}

	route := decoded.Routes[0]
	res := upstream.RouteResult{
		DistanceKm:    route.Distance / 1000,
		DurationHours: route.Duration / 3600,
	}
	for _, c := range route.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		res.Coordinates = append(res.Coordinates, domain.Coordinate{Lng: c[0], Lat: c[1]})
	}
	for _, l := range route.Legs {
		res.Legs = append(res.Legs, domain.Leg{DistanceKm: l.Distance / 1000, DurationHours: l.Duration / 3600})
	}
	return res, nil
}
