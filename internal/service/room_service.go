package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// RoomService manages per-room cleaning records.
type RoomService struct {
	rooms  repository.RoomRepository
	users  repository.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRoomService constructs the service.
func NewRoomService(rooms repository.RoomRepository, users repository.UserRepository, logger *zap.Logger) *RoomService {
	return &RoomService{rooms: rooms, users: users, logger: logger, now: time.Now}
}

// StudentFloor is the floor used for a student's room and ratings. Rooms
// without a numeric prefix are treated as first floor.
func StudentFloor(user *domain.User) int {
	if user.RoomNumber != nil {
		if floor, ok := domain.FloorFromRoomNumber(*user.RoomNumber); ok {
			return floor
		}
	}
	return 1
}

// EnsureForStudent returns the student's room, creating it with the floor's
// default janitors on first access.
func (s *RoomService) EnsureForStudent(ctx context.Context, user *domain.User) (*domain.Room, error) {
	if user.RoomNumber == nil || *user.RoomNumber == "" {
		return nil, apperrors.NewValidationError("No room number on account", nil)
	}
	floor := StudentFloor(user)
	defaults := &domain.Room{
		RoomNumber: *user.RoomNumber,
		Floor:      floor,
		Janitors:   domain.DefaultJanitors(floor),
	}
	if caretaker, err := s.users.FindCaretakerForFloor(ctx, floor); err == nil {
		defaults.Caretaker = &caretaker.Name
	} else if !apperrors.IsNotFound(err) {
		s.logger.Warn("caretaker lookup failed", zap.Int("floor", floor), zap.Error(err))
	}

	room, err := s.rooms.GetOrCreate(ctx, defaults)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return room, nil
}

// MarkClean stamps the student's room as cleaned now.
func (s *RoomService) MarkClean(ctx context.Context, user *domain.User) (*domain.Room, error) {
	if user.Role != domain.RoleStudent {
		return nil, apperrors.NewForbidden("Only students can mark clean.")
	}
	room, err := s.EnsureForStudent(ctx, user)
	if err != nil {
		return nil, err
	}
	updated, err := s.rooms.MarkCleaned(ctx, room.RoomNumber, s.now().UTC())
	if err != nil {
		return nil, apperrors.MapError(err, "Room")
	}
	return updated, nil
}

// JanitorsForFloor returns the janitor roster recorded on the floor's rooms,
// falling back to the fixed table when the floor has no rooms yet.
func (s *RoomService) JanitorsForFloor(ctx context.Context, floor int) domain.Janitors {
	room, err := s.rooms.FirstOnFloor(ctx, floor)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("room lookup failed", zap.Int("floor", floor), zap.Error(err))
		}
		return domain.DefaultJanitors(floor)
	}
	return room.Janitors
}
