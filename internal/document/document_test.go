package document_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/eld-planner/internal/document"
	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/logbook"
)

func sheet() document.LogSheet {
	return document.LogSheet{
		TripID: uuid.MustParse("6f1c2a4e-9d7b-4c3a-8e21-5b0f7d9a1c33"),
		Date:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		From:   "Oklahoma City, OK",
		To:     "Albuquerque, NM",
		Day: logbook.Day{
			Log: domain.DailyLog{
				DayNumber:      1,
				DrivingHours:   9.9,
				OnDutyHours:    11.9,
				OffDutyHours:   12.1,
				CycleUsedHours: 11.9,
				DistanceKm:     870,
				Schedule: []domain.DutySegment{
					{Status: domain.DutyOff, StartHour: 0, EndHour: 6},
					{Status: domain.DutyOnDuty, StartHour: 6, EndHour: 7, Remark: "Pickup"},
					{Status: domain.DutyDriving, StartHour: 7, EndHour: 16.9},
					{Status: domain.DutyOnDuty, StartHour: 16.9, EndHour: 17.9, Remark: "Dropoff"},
					{Status: domain.DutyOff, StartHour: 17.9, EndHour: 24, Remark: "End of trip"},
				},
			},
			Remarks: []string{"Pickup at 0 km (0 mi), 1 h on duty", "Dropoff at 870 km (541 mi), 1 h on duty"},
		},
		TotalMiles: 541,
	}
}

func TestDraw_ProducesPDF(t *testing.T) {
	data, err := document.Draw(sheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "missing PDF header")
	assert.Greater(t, len(data), 1000)
}

func TestDraw_HandlesNonASCIILocations(t *testing.T) {
	s := sheet()
	s.From = "Montréal → Québec"
	s.Day.Log.Requires34HourRestart = true

	_, err := document.Draw(s)
	assert.NoError(t, err)
}

func TestPDFRenderer_RenderStoresDocument(t *testing.T) {
	store := document.NewStore(time.Minute)
	r := document.NewPDFRenderer(store, "https://planner.example.com/")

	ref, err := r.Render(context.Background(), sheet())
	require.NoError(t, err)

	want := "fmcsa_log_6f1c2a4e-9d7b-4c3a-8e21-5b0f7d9a1c33_day_1.pdf"
	assert.Equal(t, want, ref.Filename)
	assert.Equal(t, "https://planner.example.com/api/logs/"+want, ref.URL)

	data, err := store.Get(want)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := document.NewPDFRenderer(document.NewStore(time.Minute), "").Render(ctx, sheet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := document.NewStore(time.Minute).Get("nope.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Expires(t *testing.T) {
	store := document.NewStore(20 * time.Millisecond)
	store.Put("a.pdf", []byte("x"))

	got, err := store.Get("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	time.Sleep(40 * time.Millisecond)
	_, err = store.Get("a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
