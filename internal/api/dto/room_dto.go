package dto

import (
	"time"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// RoomResponse is the wire form of a room.
type RoomResponse struct {
	ID          string          `json:"_id"`
	RoomNumber  string          `json:"roomNumber"`
	Floor       int             `json:"floor"`
	LastCleaned *time.Time      `json:"lastCleaned"`
	Caretaker   *string         `json:"caretaker"`
	Janitors    domain.Janitors `json:"janitors"`
}

// MarkCleanResponse is returned by POST /student/mark-clean.
type MarkCleanResponse struct {
	Message string       `json:"message"`
	Room    RoomResponse `json:"room"`
}

// RateRequest payload for POST /student/rate, keyed by janitor type.
type RateRequest struct {
	Ratings map[string]int `json:"ratings"`
}

// RatingResponse is one stored rating.
type RatingResponse struct {
	ID          string             `json:"_id"`
	Floor       int                `json:"floor"`
	JanitorType domain.JanitorType `json:"janitorType"`
	Rating      int                `json:"rating"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// RateResponse is returned by POST /student/rate.
type RateResponse struct {
	Message      string           `json:"message"`
	SavedRatings []RatingResponse `json:"savedRatings"`
}

// StudentDashboardResponse is returned by GET /student/dashboard-student.
type StudentDashboardResponse struct {
	User          UserResponse           `json:"user"`
	Room          RoomResponse           `json:"room"`
	Tickets       []TicketResponse       `json:"tickets"`
	Notifications []AnnouncementResponse `json:"notifications"`
}

// StaffRatingResponse is one row of the caretaker ratings table.
type StaffRatingResponse struct {
	Floor         int                `json:"floor"`
	JanitorType   domain.JanitorType `json:"janitorType"`
	JanitorName   string             `json:"janitorName"`
	AverageRating float64            `json:"averageRating"`
	TotalRatings  int                `json:"totalRatings"`
}

// StaffRatingsResponse is returned by GET /caretaker/staff-ratings.
type StaffRatingsResponse struct {
	Ratings []StaffRatingResponse `json:"ratings"`
}

// CaretakerDashboardResponse is returned by GET /caretaker/dashboard.
type CaretakerDashboardResponse struct {
	Tickets []TicketResponse      `json:"tickets"`
	Ratings []StaffRatingResponse `json:"ratings"`
}
