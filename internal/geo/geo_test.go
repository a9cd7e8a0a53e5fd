package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/eld-planner/internal/domain"
)

func TestDistance_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.Coordinate
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         domain.Coordinate{Lng: -87.6298, Lat: 41.8781},
			b:         domain.Coordinate{Lng: -87.6298, Lat: 41.8781},
			wantKm:    0,
			tolerance: 0.000001,
		},
		{
			name:      "Chicago to St. Louis (~420km)",
			a:         domain.Coordinate{Lng: -87.6298, Lat: 41.8781},
			b:         domain.Coordinate{Lng: -90.1994, Lat: 38.6270},
			wantKm:    418,
			tolerance: 10,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         domain.Coordinate{Lng: -74.0060, Lat: 40.7128},
			b:         domain.Coordinate{Lng: -118.2437, Lat: 34.0522},
			wantKm:    3944,
			tolerance: 50,
		},
		{
			name:      "one degree of latitude (~111km)",
			a:         domain.Coordinate{Lng: 0, Lat: 0},
			b:         domain.Coordinate{Lng: 0, Lat: 1},
			wantKm:    111.19,
			tolerance: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Distance() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	a := domain.Coordinate{Lng: -97.7431, Lat: 30.2672}
	b := domain.Coordinate{Lng: -104.9903, Lat: 39.7392}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistance_TriangleInequality(t *testing.T) {
	a := domain.Coordinate{Lng: -122.4194, Lat: 37.7749}
	b := domain.Coordinate{Lng: -112.0740, Lat: 33.4484}
	c := domain.Coordinate{Lng: -95.3698, Lat: 29.7604}

	assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-9)
}

func TestInterpolate_Endpoints(t *testing.T) {
	a := domain.Coordinate{Lng: -90, Lat: 35}
	b := domain.Coordinate{Lng: -80, Lat: 40}

	assert.Equal(t, a, Interpolate(a, b, 0))
	assert.Equal(t, b, Interpolate(a, b, 1))
}

func TestInterpolate_Midpoint(t *testing.T) {
	a := domain.Coordinate{Lng: -90, Lat: 35}
	b := domain.Coordinate{Lng: -80, Lat: 40}

	got := Interpolate(a, b, 0.5)

	assert.InDelta(t, -85.0, got.Lng, 1e-9)
	assert.InDelta(t, 37.5, got.Lat, 1e-9)
}
