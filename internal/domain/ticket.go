package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// ParseTicketStatus validates a status value. "in-process" is accepted as a
// legacy spelling of in-progress.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch strings.TrimSpace(raw) {
	case string(TicketStatusOpen):
		return TicketStatusOpen, true
	case string(TicketStatusInProgress), "in-process":
		return TicketStatusInProgress, true
	case string(TicketStatusResolved):
		return TicketStatusResolved, true
	}
	return "", false
}

// Ticket is a reported sanitation issue.
type Ticket struct {
	ID           string
	StudentEmail string
	RoomNumber   string
	Floor        *int
	Title        string
	Description  string
	Status       TicketStatus
	PhotoURL     *string
	AIConfidence *float64
	CreatedAt    time.Time
}
