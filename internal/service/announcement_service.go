package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/events"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// AnnouncementWindow is how far back announcement lists reach.
const AnnouncementWindow = 7 * 24 * time.Hour

// AnnouncementService posts and lists staff announcements.
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
	now           func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(announcements repository.AnnouncementRepository, users repository.UserRepository, dispatcher events.Dispatcher) *AnnouncementService {
	return &AnnouncementService{
		announcements: announcements,
		users:         users,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

// AnnouncementInput is the payload for a new announcement.
type AnnouncementInput struct {
	Title          string
	Content        string
	Priority       string
	TargetAudience string
}

// Create stores the announcement and publishes it for email fan-out.
func (s *AnnouncementService) Create(ctx context.Context, principal domain.Principal, input AnnouncementInput) (*domain.Announcement, error) {
	if !principal.Role.IsStaff() {
		return nil, apperrors.NewForbidden("Only staff can post announcements")
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, apperrors.NewValidationError("Title and content are required", nil)
	}
	priority, ok := domain.ParseAnnouncementPriority(strings.ToLower(strings.TrimSpace(input.Priority)))
	if !ok {
		return nil, apperrors.NewValidationError("Invalid priority", map[string]any{"priority": input.Priority})
	}
	audience, ok := domain.ParseAudience(strings.ToLower(strings.TrimSpace(input.TargetAudience)))
	if !ok {
		return nil, apperrors.NewValidationError("Invalid target audience", map[string]any{"targetAudience": input.TargetAudience})
	}

	if _, err := uuid.Parse(principal.UserID); err != nil {
		return nil, apperrors.NewNotFound("User", nil)
	}
	poster, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, apperrors.MapError(err, "User")
	}

	announcement := &domain.Announcement{
		Title:          title,
		Content:        content,
		PostedBy:       poster.ID,
		PostedByName:   poster.Name,
		Priority:       priority,
		TargetAudience: audience,
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventAnnouncementCreated,
			SubjectID: announcement.ID,
			Actor:     events.Actor{UserID: principal.UserID, Role: principal.Role},
			Timestamp: s.now().UTC(),
			Payload:   events.AnnouncementCreatedPayload{Announcement: *announcement},
		})
	}
	return announcement, nil
}

// ListForStudents returns the last week's announcements aimed at students.
func (s *AnnouncementService) ListForStudents(ctx context.Context) ([]domain.Announcement, error) {
	return s.listRecent(ctx, domain.AudienceAll, domain.AudienceStudents)
}

// ListForStaff returns the last week's announcements aimed at staff.
func (s *AnnouncementService) ListForStaff(ctx context.Context) ([]domain.Announcement, error) {
	return s.listRecent(ctx, domain.AudienceAll, domain.AudienceStaff)
}

func (s *AnnouncementService) listRecent(ctx context.Context, audiences ...domain.Audience) ([]domain.Announcement, error) {
	since := s.now().Add(-AnnouncementWindow)
	list, err := s.announcements.ListSince(ctx, since, audiences)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if list == nil {
		list = []domain.Announcement{}
	}
	SortAnnouncements(list)
	return list, nil
}

// SortAnnouncements orders by priority (high first) then newest first.
func SortAnnouncements(list []domain.Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Priority.Rank(), list[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
