package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/events"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	"github.com/cleantrack/cleantrack-api/internal/storage"
	"github.com/cleantrack/cleantrack-api/internal/worker"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// ScoringSubmitter launches background urgency scoring for a ticket.
type ScoringSubmitter interface {
	Submit(ticketID, description string) *worker.Task
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	photos     storage.PhotoStore
	scoring    ScoringSubmitter
	dispatcher events.Dispatcher
	maxPhoto   int64
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	UserRepo      repository.UserRepository
	Photos        storage.PhotoStore
	Scoring       ScoringSubmitter
	Dispatcher    events.Dispatcher
	MaxPhotoBytes int64
	Logger        *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		photos:     deps.Photos,
		scoring:    deps.Scoring,
		dispatcher: deps.Dispatcher,
		maxPhoto:   deps.MaxPhotoBytes,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	RoomNumber  string
	// StudentEmail is only used when the caller's account cannot be loaded.
	StudentEmail string
	Photo        *storage.Photo
}

// CreateTicket validates, stores the optional photo, persists the ticket and
// starts scoring in the background. The returned ticket is a snapshot taken
// before scoring, so AIConfidence is always nil. The task may be ignored.
func (s *TicketService) CreateTicket(ctx context.Context, principal domain.Principal, input TicketCreateInput) (*domain.Ticket, *worker.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, nil, apperrors.NewValidationError("Title and description are required.", nil)
	}
	if input.Photo != nil {
		if err := storage.ValidatePhoto(*input.Photo, s.maxPhoto); err != nil {
			return nil, nil, apperrors.NewValidationError(photoErrorMessage(err), nil)
		}
	}

	roomNumber := strings.TrimSpace(input.RoomNumber)
	ticket := &domain.Ticket{
		StudentEmail: s.resolveStudentEmail(ctx, principal, input.StudentEmail),
		RoomNumber:   roomNumber,
		Title:        title,
		Description:  description,
		Status:       domain.TicketStatusOpen,
	}
	if floor, ok := domain.FloorFromRoomNumber(roomNumber); ok {
		ticket.Floor = &floor
	}

	if input.Photo != nil {
		url, err := s.photos.Save(ctx, *input.Photo)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) {
				return nil, nil, apperrors.NewValidationError(photoErrorMessage(err), nil)
			}
			return nil, nil, apperrors.NewUploadError(err)
		}
		ticket.PhotoURL = &url
	}

	ticket.CreatedAt = s.now().UTC()
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.NewPersistenceError(err)
	}

	// Copy before handing the id to the worker so the response never reflects
	// a later confidence write.
	snapshot := *ticket
	task := s.scoring.Submit(ticket.ID, ticket.Description)

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ID,
		Actor:     events.Actor{UserID: principal.UserID, Role: principal.Role},
		Payload: events.TicketCreatedPayload{
			StudentEmail: ticket.StudentEmail,
			RoomNumber:   ticket.RoomNumber,
			Floor:        ticket.Floor,
			Title:        ticket.Title,
			PhotoURL:     ticket.PhotoURL,
		},
	})
	return &snapshot, task, nil
}

// resolveStudentEmail prefers the account email and falls back to the
// caller-supplied value, then to "unknown".
func (s *TicketService) resolveStudentEmail(ctx context.Context, principal domain.Principal, supplied string) string {
	if _, err := uuid.Parse(principal.UserID); err == nil {
		user, err := s.users.GetByID(ctx, principal.UserID)
		if err == nil {
			return user.Email
		}
		s.logger.Warn("could not resolve ticket author, using supplied email",
			zap.String("user_id", principal.UserID), zap.Error(err))
	}
	if supplied = strings.TrimSpace(supplied); supplied != "" {
		return supplied
	}
	return "unknown"
}

// ListForStudent returns a student's tickets newest first.
func (s *TicketService) ListForStudent(ctx context.Context, email string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByStudentEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// ListAll returns every ticket newest first.
func (s *TicketService) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// UpdateStatus sets any valid status. Transitions are not restricted.
func (s *TicketService) UpdateStatus(ctx context.Context, principal domain.Principal, ticketID, rawStatus string) (*domain.Ticket, error) {
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": rawStatus})
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		return nil, apperrors.NewNotFound("Ticket", nil)
	}

	ticket, err := s.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		return nil, apperrors.MapError(err, "Ticket")
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		SubjectID: ticket.ID,
		Actor:     events.Actor{UserID: principal.UserID, Role: principal.Role},
		Payload:   events.TicketStatusChangedPayload{NewStatus: ticket.Status},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func photoErrorMessage(err error) string {
	if errors.Is(err, storage.ErrTooLarge) {
		return "Photo is too large"
	}
	return "Only JPG/PNG allowed"
}
