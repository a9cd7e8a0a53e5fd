package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/pkordes/eld-planner/internal/domain"
	"github.com/pkordes/eld-planner/internal/logbook"
)

// Page geometry in inches on US Letter.
const (
	margin    = 0.5
	gridLeft  = margin + 0.9
	gridTop   = 3.4
	gridWidth = 6.0
	rowHeight = 0.32
	hourWidth = gridWidth / 24
)

var gridRows = []struct {
	status domain.DutyStatus
	label  string
}{
	{domain.DutyOff, "1. Off Duty"},
	{domain.DutySleeper, "2. Sleeper Berth"},
	{domain.DutyDriving, "3. Driving"},
	{domain.DutyOnDuty, "4. On Duty (not driving)"},
}

// PDFRenderer draws FMCSA-style daily log sheets and stores them in a Store.
type PDFRenderer struct {
	store   *Store
	baseURL string
}

// NewPDFRenderer returns a renderer whose document URLs are rooted at
// baseURL (for example "https://planner.example.com").
func NewPDFRenderer(store *Store, baseURL string) *PDFRenderer {
	return &PDFRenderer{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Render implements LogRenderer.
func (r *PDFRenderer) Render(ctx context.Context, sheet LogSheet) (DocumentRef, error) {
	if err := ctx.Err(); err != nil {
		return DocumentRef{}, err
	}

	data, err := Draw(sheet)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("document.PDFRenderer.Render: %w", err)
	}

	name := sheet.Filename()
	r.store.Put(name, data)
	return DocumentRef{Filename: name, URL: r.baseURL + "/api/logs/" + name}, nil
}

// Draw renders sheet to PDF bytes.
func Draw(sheet LogSheet) ([]byte, error) {
	pdf := fpdf.New("P", "in", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("Driver's Daily Log - Day %d", sheet.Day.Log.DayNumber), false)
	pdf.SetCreator("eld-planner", false)
	pdf.SetCreationDate(sheet.Date)
	pdf.AddPage()

	drawHeader(pdf, sheet)
	drawInfo(pdf, sheet)
	drawGrid(pdf, sheet.Day.Log)
	drawRemarks(pdf, sheet.Day)
	drawShipping(pdf, sheet)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *fpdf.Fpdf, sheet LogSheet) {
	top := 0.75
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(margin, top, "Drivers Daily Log")
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(margin+0.75, top+0.2, "[24 hours]")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(2.8, top, sheet.Date.Format("01"))
	pdf.Text(3.6, top, sheet.Date.Format("02"))
	pdf.Text(4.25, top, sheet.Date.Format("2006"))
	pdf.Line(2.7, top+0.05, 3.3, top+0.05)
	pdf.Line(3.5, top+0.05, 4.0, top+0.05)
	pdf.Line(4.2, top+0.05, 4.7, top+0.05)
	pdf.SetFont("Helvetica", "", 7)
	pdf.Text(2.8, top+0.2, "(month)")
	pdf.Text(3.6, top+0.2, "(day)")
	pdf.Text(4.3, top+0.2, "(year)")

	pdf.Text(margin+4.5, top, "Original - File at home terminal.")
	pdf.Text(margin+4.5, top+0.18, "Duplicate - Driver retains this in his/her possession for 8 days.")
}

func drawInfo(pdf *fpdf.Fpdf, sheet LogSheet) {
	y := 1.3
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin+0.1, y, "From:")
	pdf.Text(margin+3.9, y, "To:")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin+0.6, y-0.02, ascii(sheet.From))
	pdf.Text(margin+4.3, y-0.02, ascii(sheet.To))
	pdf.Line(margin+0.55, y+0.05, margin+3.7, y+0.05)
	pdf.Line(margin+4.25, y+0.05, margin+7.5, y+0.05)

	y += 0.35
	box := 0.42
	pdf.Rect(margin+0.35, y, 1.9, box, "D")
	pdf.Rect(margin+2.35, y, 1.7, box, "D")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin+1.1, y+0.28, fmt.Sprintf("%.0f", logbook.Miles(sheet.Day.Log.DistanceKm)))
	pdf.Text(margin+3.0, y+0.28, fmt.Sprintf("%.0f", sheet.TotalMiles))
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(margin+0.5, y+box+0.15, "Total Miles Driving Today")
	pdf.Text(margin+2.5, y+box+0.15, "Total Mileage Today")

	carrier := sheet.Carrier
	if carrier == "" {
		carrier = "Independent Carrier"
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin+4.6, y+0.25, ascii(carrier))
	pdf.Line(margin+4.25, y+0.32, margin+7.5, y+0.32)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(margin+5.0, y+0.47, "Name of Carrier or Carriers")
}

func drawGrid(pdf *fpdf.Fpdf, l domain.DailyLog) {
	pdf.SetFont("Helvetica", "", 7)
	for h := 0; h <= 24; h++ {
		x := gridLeft + float64(h)*hourWidth
		label := fmt.Sprint(h)
		switch h {
		case 0, 24:
			label = "Mid"
		case 12:
			label = "Noon"
		}
		pdf.Text(x-pdf.GetStringWidth(label)/2, gridTop-0.08, label)
	}
	pdf.Text(gridLeft+gridWidth+0.15, gridTop-0.08, "Total")

	pdf.SetLineWidth(0.01)
	totals := map[domain.DutyStatus]float64{}
	for _, seg := range l.Schedule {
		totals[seg.Status] += seg.EndHour - seg.StartHour
	}
	for i, row := range gridRows {
		y := gridTop + float64(i)*rowHeight
		pdf.Rect(gridLeft, y, gridWidth, rowHeight, "D")
		for q := 1; q < 96; q++ {
			x := gridLeft + float64(q)*hourWidth/4
			tick := rowHeight / 4
			if q%4 == 0 {
				tick = rowHeight
			} else if q%2 == 0 {
				tick = rowHeight / 2
			}
			pdf.Line(x, y, x, y+tick)
		}
		pdf.Text(margin, y+rowHeight/2+0.04, row.label)
		pdf.Text(gridLeft+gridWidth+0.15, y+rowHeight/2+0.04, fmt.Sprintf("%.2f", totals[row.status]))
	}

	// Duty line: a horizontal stroke per segment joined by vertical risers.
	pdf.SetLineWidth(0.03)
	prevY := -1.0
	for _, seg := range l.Schedule {
		y := rowCenter(seg.Status)
		x1 := gridLeft + seg.StartHour*hourWidth
		x2 := gridLeft + seg.EndHour*hourWidth
		if prevY >= 0 && prevY != y {
			pdf.Line(x1, prevY, x1, y)
		}
		pdf.Line(x1, y, x2, y)
		prevY = y
	}
	pdf.SetLineWidth(0.01)
}

func rowCenter(s domain.DutyStatus) float64 {
	for i, row := range gridRows {
		if row.status == s {
			return gridTop + float64(i)*rowHeight + rowHeight/2
		}
	}
	return gridTop
}

func drawRemarks(pdf *fpdf.Fpdf, day logbook.Day) {
	y := gridTop + 4*rowHeight + 0.45
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, y, "Remarks")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range day.Remarks {
		y += 0.2
		pdf.Text(margin+0.2, y, ascii(line))
	}

	y += 0.35
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(margin, y, fmt.Sprintf("On-duty hours today: %.2f   Cycle used: %.2f", day.Log.OnDutyHours, day.Log.CycleUsedHours))
	if day.Log.Requires34HourRestart {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Text(margin+4.0, y, "34-hour restart required")
	}
}

func drawShipping(pdf *fpdf.Fpdf, sheet LogSheet) {
	y := 9.6
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, y, "Shipping Documents:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(margin, y+0.3, "BOL or Manifest No.: "+sheet.TripID.String())
	pdf.Text(margin, y+0.55, "Shipper & Commodity: General Freight")
}

// ascii replaces characters outside printable ASCII, which the core PDF fonts
// cannot encode from a Go string.
func ascii(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x7E {
			return '?'
		}
		return r
	}, s)
}
