package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/logbook"
)

// csvHeaders defines the column names written as the first row of the CSV export.
var csvHeaders = []string{
	"trip_id", "day_number", "driving_hours", "on_duty_hours", "off_duty_hours",
	"sleeper_hours", "cycle_used", "distance_km", "distance_miles",
	"requires_34_hour_restart", "stops", "pdf_url",
}

// writeCSV encodes one row per daily log.
// Stop labels within a row are pipe-separated ("|") to keep each day on a single CSV line.
func writeCSV(w http.ResponseWriter, t domain.Trip) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, l := range t.DailyLogs {
		//nolint:errcheck
		cw.Write(dailyLogToCSVRecord(t, l))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trip_`+t.ID.String()+`.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// dailyLogToCSVRecord encodes a day as a flat string slice.
// Hours are written with two decimals, distances with one.
func dailyLogToCSVRecord(t domain.Trip, l domain.DailyLog) []string {
	var stops bytes.Buffer
	for _, s := range t.Stops {
		if s.DayNumber != l.DayNumber {
			continue
		}
		if stops.Len() > 0 {
			stops.WriteByte('|')
		}
		stops.WriteString(s.Label)
	}
	var url string
	for _, d := range t.Documents {
		if d.DayNumber == l.DayNumber {
			url = d.URL
		}
	}
	return []string{
		t.ID.String(),
		strconv.Itoa(l.DayNumber),
		formatHours(l.DrivingHours),
		formatHours(l.OnDutyHours),
		formatHours(l.OffDutyHours),
		formatHours(l.SleeperHours),
		formatHours(l.CycleUsedHours),
		strconv.FormatFloat(l.DistanceKm, 'f', 1, 64),
		strconv.FormatFloat(logbook.Miles(l.DistanceKm), 'f', 1, 64),
		strconv.FormatBool(l.Requires34HourRestart),
		stops.String(),
		url,
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
