package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cleantrack/cleantrack-api/internal/api/dto"
	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/service"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CaretakerHandler serves the staff triage surface.
type CaretakerHandler struct {
	tickets       *service.TicketService
	ratings       *service.RatingService
	announcements *service.AnnouncementService
	dashboard     *service.DashboardService
	reports       *service.ReportService
}

// CaretakerHandlerDependencies bundles the services behind caretaker routes.
type CaretakerHandlerDependencies struct {
	Tickets       *service.TicketService
	Ratings       *service.RatingService
	Announcements *service.AnnouncementService
	Dashboard     *service.DashboardService
	Reports       *service.ReportService
}

// NewCaretakerHandler constructs handler.
func NewCaretakerHandler(deps CaretakerHandlerDependencies) *CaretakerHandler {
	return &CaretakerHandler{
		tickets:       deps.Tickets,
		ratings:       deps.Ratings,
		announcements: deps.Announcements,
		dashboard:     deps.Dashboard,
		reports:       deps.Reports,
	}
}

// ListTickets GET /caretaker/tickets.
func (h *CaretakerHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketListResponse{Tickets: ticketResponses(tickets)})
}

// UpdateStatus PUT /caretaker/tickets/:id/status.
func (h *CaretakerHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketEnvelope{Message: "Status updated", Ticket: ticketResponse(ticket)})
}

// StaffRatings GET /caretaker/staff-ratings?janitorType=&floor=&sortOrder=.
func (h *CaretakerHandler) StaffRatings(c *fiber.Ctx) error {
	filter := service.RatingFilter{
		JanitorType: c.Query("janitorType"),
		SortOrder:   c.Query("sortOrder"),
	}
	if raw := strings.TrimSpace(c.Query("floor")); raw != "" && raw != "all" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("Invalid floor", map[string]any{"floor": raw})
		}
		filter.Floor = &floor
	}
	rows, err := h.ratings.CaretakerRatings(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.StaffRatingsResponse{Ratings: staffRatingResponses(rows)})
}

// CreateAnnouncement POST /caretaker/announcements.
func (h *CaretakerHandler) CreateAnnouncement(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	announcement, err := h.announcements.Create(c.UserContext(), principal, service.AnnouncementInput{
		Title:          req.Title,
		Content:        req.Content,
		Priority:       req.Priority,
		TargetAudience: req.TargetAudience,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AnnouncementEnvelope{
		Message:      "Announcement posted",
		Announcement: announcementResponse(announcement),
	})
}

// ListAnnouncements GET /caretaker/announcements.
func (h *CaretakerHandler) ListAnnouncements(c *fiber.Ctx) error {
	list, err := h.announcements.ListForStaff(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.AnnouncementListResponse{Announcements: announcementResponses(list)})
}

// Dashboard GET /caretaker/dashboard.
func (h *CaretakerHandler) Dashboard(c *fiber.Ctx) error {
	view, err := h.dashboard.Caretaker(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.CaretakerDashboardResponse{
		Tickets: ticketResponses(view.Tickets),
		Ratings: staffRatingResponses(view.Ratings),
	})
}

// ExportTickets GET /caretaker/tickets/export.
func (h *CaretakerHandler) ExportTickets(c *fiber.Ctx) error {
	workbook, err := h.reports.TicketsWorkbook(c.UserContext())
	if err != nil {
		return err
	}
	c.Attachment(fmt.Sprintf("tickets-%s.xlsx", time.Now().UTC().Format("20060102")))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(workbook)
}
