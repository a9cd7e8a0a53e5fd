// Package events publishes plan summaries for downstream consumers
// (dispatch boards, analytics) over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectTripPlanned is the subject every plan summary is published on.
const SubjectTripPlanned = "hos.trip.planned"

// TripPlanned summarizes one successful plan.
type TripPlanned struct {
	TripID             string    `json:"tripId"`
	PlannedAt          time.Time `json:"plannedAt"`
	Pickup             string    `json:"pickup"`
	Dropoff            string    `json:"dropoff"`
	TotalDistanceKm    float64   `json:"totalDistanceKm"`
	TotalDrivingHours  float64   `json:"totalDrivingHours"`
	TotalDurationHours float64   `json:"totalDurationHours"`
	Days               int       `json:"days"`
	Restarts           int       `json:"restarts"`
	StartingCycleHours float64   `json:"startingCycleHours"`
	EndingCycleHours   float64   `json:"endingCycleHours"`
}

// Publisher delivers plan summaries.
type Publisher interface {
	PublishTripPlanned(ctx context.Context, msg TripPlanned) error
}

// Metrics is implemented by metrics.Collector.
type Metrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// NATSPublisher publishes to a NATS server. It is safe for concurrent use.
type NATSPublisher struct {
	nc      *nats.Conn
	metrics Metrics
	log     *slog.Logger
}

// NewNATSPublisher connects to url. m may be nil.
func NewNATSPublisher(url string, m Metrics, log *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("eld-planner"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events.NewNATSPublisher: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, metrics: m, log: log}, nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// PublishTripPlanned implements Publisher.
func (p *NATSPublisher) PublishTripPlanned(ctx context.Context, msg TripPlanned) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("events.NATSPublisher.PublishTripPlanned: %w", err)
	}

	start := time.Now()
	err = p.nc.Publish(Subject(msg.TripID), b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("events.NATSPublisher.PublishTripPlanned: %w", err)
	}
	p.log.DebugContext(ctx, "trip planned event published", "trip_id", msg.TripID)
	return nil
}

// Subject returns the per-trip subject under SubjectTripPlanned, so
// consumers can subscribe to "hos.trip.planned.>" or a single trip.
func Subject(tripID string) string {
	return SubjectTripPlanned + "." + subjectToken(tripID)
}

// Nop discards every event. Used when no NATS URL is configured.
type Nop struct{}

func (Nop) PublishTripPlanned(context.Context, TripPlanned) error { return nil }

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*', or '.'.
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
