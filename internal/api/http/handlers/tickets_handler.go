package handlers

import (
	"mime/multipart"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/cleantrack/cleantrack-api/internal/api/dto"
	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/service"
	"github.com/cleantrack/cleantrack-api/internal/storage"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

const photoField = "photo"

// TicketsHandler manages student ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets/create. Accepts multipart form data with an
// optional "photo" file. Scoring continues after the response is written.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.TicketCreateInput{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		RoomNumber:   c.FormValue("roomNumber"),
		StudentEmail: c.FormValue("studentEmail"),
	}

	if form, err := c.MultipartForm(); err == nil {
		if files := form.File[photoField]; len(files) > 0 {
			file, err := files[0].Open()
			if err != nil {
				return apperrors.NewValidationError("could not read photo", nil)
			}
			defer file.Close()
			input.Photo = photoFromHeader(files[0], file)
		}
	}

	ticket, _, err := h.service.CreateTicket(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TicketEnvelope{
		Message: "Ticket created successfully",
		Ticket:  ticketResponse(ticket),
	})
}

// ListForStudent GET /tickets/student/:email.
func (h *TicketsHandler) ListForStudent(c *fiber.Ctx) error {
	email := c.Params("email")
	if unescaped, err := url.PathUnescape(email); err == nil {
		email = unescaped
	}
	tickets, err := h.service.ListForStudent(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponses(tickets))
}

func photoFromHeader(header *multipart.FileHeader, file multipart.File) *storage.Photo {
	return &storage.Photo{
		FileName:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Content:     file,
	}
}
