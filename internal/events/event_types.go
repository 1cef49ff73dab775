package events

import (
	"time"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventAnnouncementCreated EventType = "announcement_created"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	StudentEmail string  `json:"student_email"`
	RoomNumber   string  `json:"room_number"`
	Floor        *int    `json:"floor,omitempty"`
	Title        string  `json:"title"`
	PhotoURL     *string `json:"photo_url,omitempty"`
}

// TicketStatusChangedPayload payload. The previous status is not known because
// the update is a single-column write.
type TicketStatusChangedPayload struct {
	NewStatus domain.TicketStatus `json:"new_status"`
}

// AnnouncementCreatedPayload carries the full announcement so subscribers can
// fan it out without another read.
type AnnouncementCreatedPayload struct {
	Announcement domain.Announcement `json:"announcement"`
}
