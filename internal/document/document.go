// Package document renders per-day driver log sheets and keeps them in a
// short-lived in-memory store until they are downloaded.
package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/logbook"
)

// LogSheet is everything printed on one day's log.
type LogSheet struct {
	TripID uuid.UUID
	Date   time.Time
	Day    logbook.Day
	From   string
	To     string
	// TotalMiles is the trip mileage through the end of this day.
	TotalMiles float64
	Carrier    string
}

// Filename is the stable name a sheet is stored and served under.
func (s LogSheet) Filename() string {
	return fmt.Sprintf("fmcsa_log_%s_day_%d.pdf", s.TripID, s.Day.Log.DayNumber)
}

// DocumentRef points at a rendered sheet.
type DocumentRef struct {
	Filename string
	URL      string
}

// LogRenderer turns a LogSheet into a retrievable document.
type LogRenderer interface {
	Render(ctx context.Context, sheet LogSheet) (DocumentRef, error)
}

// Store holds rendered documents in memory until they expire.
// It is safe for concurrent use.
type Store struct {
	c *gocache.Cache
}

// NewStore returns a Store whose entries live for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{c: gocache.New(ttl, ttl/2+time.Minute)}
}

// Put stores a document under name, replacing any previous one.
func (s *Store) Put(name string, data []byte) {
	s.c.SetDefault(name, data)
}

// Get returns the document stored under name.
// Returns domain.ErrNotFound if it was never stored or has expired.
func (s *Store) Get(name string) ([]byte, error) {
	v, ok := s.c.Get(name)
	if !ok {
		return nil, fmt.Errorf("document.Store.Get %q: %w", name, domain.ErrNotFound)
	}
	return v.([]byte), nil
}
