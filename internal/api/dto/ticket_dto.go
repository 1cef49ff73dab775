package dto

import (
	"time"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// UpdateStatusRequest payload for PUT /caretaker/tickets/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID           string              `json:"_id"`
	StudentEmail string              `json:"studentEmail"`
	RoomNumber   string              `json:"roomNumber"`
	Floor        *int                `json:"floor"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       domain.TicketStatus `json:"status"`
	PhotoURL     *string             `json:"photoUrl"`
	AIConfidence *float64            `json:"aiConfidence"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// TicketEnvelope wraps a single ticket with a message.
type TicketEnvelope struct {
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
}

// TicketListResponse wraps a list of tickets.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
}
