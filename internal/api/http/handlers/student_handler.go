package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/cleantrack/cleantrack-api/internal/api/dto"
	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/service"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// StudentHandler serves the student dashboard, room and rating endpoints.
type StudentHandler struct {
	dashboard     *service.DashboardService
	rooms         *service.RoomService
	ratings       *service.RatingService
	announcements *service.AnnouncementService
}

// StudentHandlerDependencies bundles the services behind student routes.
type StudentHandlerDependencies struct {
	Dashboard     *service.DashboardService
	Rooms         *service.RoomService
	Ratings       *service.RatingService
	Announcements *service.AnnouncementService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(deps StudentHandlerDependencies) *StudentHandler {
	return &StudentHandler{
		dashboard:     deps.Dashboard,
		rooms:         deps.Rooms,
		ratings:       deps.Ratings,
		announcements: deps.Announcements,
	}
}

// Dashboard GET /student/dashboard-student.
func (h *StudentHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	view, err := h.dashboard.Student(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(dto.StudentDashboardResponse{
		User:          userResponse(view.User),
		Room:          roomResponse(view.Room),
		Tickets:       ticketResponses(view.Tickets),
		Notifications: announcementResponses(view.Notifications),
	})
}

// MarkClean POST /student/mark-clean.
func (h *StudentHandler) MarkClean(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	room, err := h.rooms.MarkClean(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(dto.MarkCleanResponse{
		Message: fmt.Sprintf("Room %s marked as clean!", room.RoomNumber),
		Room:    roomResponse(room),
	})
}

// Rate POST /student/rate.
func (h *StudentHandler) Rate(c *fiber.Ctx) error {
	var req dto.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	saved, err := h.ratings.Submit(c.UserContext(), user, req.Ratings)
	if err != nil {
		return err
	}
	return c.JSON(dto.RateResponse{
		Message:      "Ratings submitted successfully!",
		SavedRatings: ratingResponses(saved),
	})
}

// StaffRatings GET /student/staff-ratings. Responds with janitor type to
// average, "N/A" where nobody has rated yet.
func (h *StudentHandler) StaffRatings(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	averages, err := h.ratings.StudentAverages(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(averages)
}

// Announcements GET /student/announcements.
func (h *StudentHandler) Announcements(c *fiber.Ctx) error {
	list, err := h.announcements.ListForStudents(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.AnnouncementListResponse{Announcements: announcementResponses(list)})
}

func (h *StudentHandler) currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return h.dashboard.LoadUser(c.UserContext(), principal)
}
