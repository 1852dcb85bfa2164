package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"meeting-tracker/internal/domain"
)

// Render produces the "Meeting Outcome Report" PDF for a meeting and its
// action items.
func Render(meeting *domain.Meeting, actions []domain.ActionItem) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Meeting Outcome Report", "", 0, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		generated := fmt.Sprintf("Generated on %s", time.Now().Format("2006-01-02 15:04"))
		pdf.CellFormat(0, 10, generated, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 10, fmt.Sprintf("Title: %s", meeting.Title), "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf("Date: %s", meeting.Date), "", "L", false)
	pdf.Ln(5)

	pdf.MultiCell(0, 8, fmt.Sprintf("Notes:\n%s", meeting.Description), "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Action Items:", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	if len(actions) == 0 {
		pdf.CellFormat(0, 8, "No action items recorded.", "", 1, "L", false, 0, "")
	} else {
		for i, item := range actions {
			due := "Not Set"
			if item.DueDate != nil && *item.DueDate != "" {
				due = *item.DueDate
			}
			pdf.MultiCell(0, 8, fmt.Sprintf(
				"%d. %s\nAssigned to: %s\nStatus: %s\nDue Date: %s",
				i+1, item.Task, item.AssignedTo, item.Status, due,
			), "", "L", false)
			pdf.Ln(4)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
