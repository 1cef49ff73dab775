package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// DashboardService assembles the read-only dashboard views.
type DashboardService struct {
	users         repository.UserRepository
	rooms         *RoomService
	tickets       *TicketService
	ratings       *RatingService
	announcements *AnnouncementService
}

// DashboardDependencies bundles the services a dashboard reads from.
type DashboardDependencies struct {
	UserRepo      repository.UserRepository
	Rooms         *RoomService
	Tickets       *TicketService
	Ratings       *RatingService
	Announcements *AnnouncementService
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		users:         deps.UserRepo,
		rooms:         deps.Rooms,
		tickets:       deps.Tickets,
		ratings:       deps.Ratings,
		announcements: deps.Announcements,
	}
}

// StudentDashboard is the student's landing view.
type StudentDashboard struct {
	User          *domain.User
	Room          *domain.Room
	Tickets       []domain.Ticket
	Notifications []domain.Announcement
}

// CaretakerDashboard is the triage view for staff.
type CaretakerDashboard struct {
	Tickets []domain.Ticket
	Ratings []StaffRating
}

// LoadUser fetches the account behind a principal.
func (s *DashboardService) LoadUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if _, err := uuid.Parse(principal.UserID); err != nil {
		return nil, apperrors.NewNotFound("User", nil)
	}
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, apperrors.MapError(err, "User")
	}
	return user, nil
}

// Student builds the dashboard, creating the student's room on first visit.
func (s *DashboardService) Student(ctx context.Context, principal domain.Principal) (*StudentDashboard, error) {
	user, err := s.LoadUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.EnsureForStudent(ctx, user)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListForStudent(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	notifications, err := s.announcements.ListForStudents(ctx)
	if err != nil {
		return nil, err
	}
	return &StudentDashboard{User: user, Room: room, Tickets: tickets, Notifications: notifications}, nil
}

// Caretaker lists every ticket in triage order together with rating aggregates.
func (s *DashboardService) Caretaker(ctx context.Context) (*CaretakerDashboard, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	SortForTriage(tickets)
	ratings, err := s.ratings.CaretakerRatings(ctx, RatingFilter{})
	if err != nil {
		return nil, err
	}
	return &CaretakerDashboard{Tickets: tickets, Ratings: ratings}, nil
}

var triageBucket = map[domain.TicketStatus]int{
	domain.TicketStatusOpen:       0,
	domain.TicketStatusInProgress: 1,
	domain.TicketStatusResolved:   2,
}

// SortForTriage puts open tickets first, most urgent first with unscored ones
// after scored ones, then in-progress and resolved tickets newest first.
func SortForTriage(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		if triageBucket[a.Status] != triageBucket[b.Status] {
			return triageBucket[a.Status] < triageBucket[b.Status]
		}
		if a.Status == domain.TicketStatusOpen {
			switch {
			case a.AIConfidence != nil && b.AIConfidence == nil:
				return true
			case a.AIConfidence == nil && b.AIConfidence != nil:
				return false
			case a.AIConfidence != nil && *a.AIConfidence != *b.AIConfidence:
				return *a.AIConfidence > *b.AIConfidence
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
