package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

const ticketSheet = "Tickets"

var ticketExportHeader = []any{"ID", "Room", "Floor", "Student Email", "Title", "Status", "AI Confidence", "Photo", "Created At"}

// ReportService renders spreadsheets for staff.
type ReportService struct {
	tickets *TicketService
}

// NewReportService constructs the service.
func NewReportService(tickets *TicketService) *ReportService {
	return &ReportService{tickets: tickets}
}

// TicketsWorkbook exports all tickets in triage order as an xlsx file.
func (s *ReportService) TicketsWorkbook(ctx context.Context) ([]byte, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	SortForTriage(tickets)
	return renderTicketsWorkbook(tickets)
}

func renderTicketsWorkbook(tickets []domain.Ticket) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ticketSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	header := ticketExportHeader
	if err := f.SetSheetRow(ticketSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ticketSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(ticketSheet, "A", lastCol, 20); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, t := range tickets {
		row := []any{
			t.ID,
			t.RoomNumber,
			optionalInt(t.Floor),
			t.StudentEmail,
			t.Title,
			string(t.Status),
			optionalFloat(t.AIConfidence),
			optionalString(t.PhotoURL),
			t.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ticketSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ticketSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optionalInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v *string) any {
	if v == nil {
		return ""
	}
	return *v
}
