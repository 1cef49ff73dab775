package dto

import (
	"time"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// CreateAnnouncementRequest payload for POST /caretaker/announcements.
type CreateAnnouncementRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Priority       string `json:"priority"`
	TargetAudience string `json:"targetAudience"`
}

// AnnouncementResponse is the wire form of an announcement.
type AnnouncementResponse struct {
	ID             string                      `json:"_id"`
	Title          string                      `json:"title"`
	Content        string                      `json:"content"`
	PostedBy       string                      `json:"postedBy"`
	PostedByName   string                      `json:"postedByName"`
	Priority       domain.AnnouncementPriority `json:"priority"`
	TargetAudience domain.Audience             `json:"targetAudience"`
	CreatedAt      time.Time                   `json:"createdAt"`
}

// AnnouncementListResponse wraps announcements.
type AnnouncementListResponse struct {
	Announcements []AnnouncementResponse `json:"announcements"`
}

// AnnouncementEnvelope wraps a created announcement.
type AnnouncementEnvelope struct {
	Message      string               `json:"message"`
	Announcement AnnouncementResponse `json:"announcement"`
}
