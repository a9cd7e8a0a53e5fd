package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/events"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"6f1c2a4e-9d7b-4c3a-8e21-5b0f7d9a1c33", "hos.trip.planned.6f1c2a4e-9d7b-4c3a-8e21-5b0f7d9a1c33"},
		{"a.b*c>d e", "hos.trip.planned.a_b_c_d_e"},
		{"   ", "hos.trip.planned._"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, events.Subject(tc.in))
	}
}

func TestTripPlanned_WireFormat(t *testing.T) {
	msg := events.TripPlanned{
		TripID:          "abc",
		PlannedAt:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		TotalDistanceKm: 4500,
		Days:            5,
		Restarts:        1,
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "abc", got["tripId"])
	assert.Equal(t, "2026-03-14T12:00:00Z", got["plannedAt"])
	assert.Equal(t, 4500.0, got["totalDistanceKm"])
	assert.Equal(t, 5.0, got["days"])
	assert.Equal(t, 1.0, got["restarts"])
}

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	assert.NoError(t, p.PublishTripPlanned(context.Background(), events.TripPlanned{TripID: "x"}))
}

func TestNewNATSPublisher_UnreachableServer(t *testing.T) {
	_, err := events.NewNATSPublisher("nats://127.0.0.1:1", nil, nil)
	assert.Error(t, err)
}
