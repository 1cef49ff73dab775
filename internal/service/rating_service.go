package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/cache"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

// NoRatings is shown for a janitor nobody has rated yet.
const NoRatings = "N/A"

// RatingsCache is the subset of the Redis cache the rating service needs.
type RatingsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64) ([]domain.RatingAggregate, error)
	Set(ctx context.Context, generation int64, aggregates []domain.RatingAggregate) error
	Invalidate(ctx context.Context)
}

// RatingService records janitor ratings and serves their aggregates.
type RatingService struct {
	ratings repository.RatingRepository
	rooms   *RoomService
	cache   RatingsCache
	logger  *zap.Logger
}

// NewRatingService constructs the service. cache may be nil.
func NewRatingService(ratings repository.RatingRepository, rooms *RoomService, ratingsCache RatingsCache, logger *zap.Logger) *RatingService {
	return &RatingService{ratings: ratings, rooms: rooms, cache: ratingsCache, logger: logger}
}

// StaffRating is one row of the caretaker ratings table.
type StaffRating struct {
	Floor         int
	JanitorType   domain.JanitorType
	JanitorName   string
	AverageRating float64
	TotalRatings  int
}

// RatingFilter narrows the caretaker ratings table. Empty fields match all.
type RatingFilter struct {
	JanitorType string
	Floor       *int
	SortOrder   string
}

// Submit stores one rating per janitor type for the student's floor.
func (s *RatingService) Submit(ctx context.Context, user *domain.User, input map[string]int) ([]*domain.Rating, error) {
	if user.Role != domain.RoleStudent {
		return nil, apperrors.NewForbidden("Only students can rate janitors.")
	}
	if len(input) == 0 {
		return nil, apperrors.NewValidationError("At least one rating is required", nil)
	}
	for key, value := range input {
		if _, ok := domain.ParseJanitorType(key); !ok {
			return nil, apperrors.NewValidationError("Invalid janitor type", map[string]any{"janitorType": key})
		}
		if value < 1 || value > 5 {
			return nil, apperrors.NewValidationError("Ratings must be between 1 and 5", map[string]any{"janitorType": key})
		}
	}

	floor := StudentFloor(user)
	ratings := make([]*domain.Rating, 0, len(input))
	for _, jt := range domain.JanitorTypes {
		if value, ok := input[string(jt)]; ok {
			ratings = append(ratings, &domain.Rating{
				UserID:      user.ID,
				Floor:       floor,
				JanitorType: jt,
				Rating:      value,
			})
		}
	}
	if err := s.ratings.CreateBatch(ctx, ratings); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return ratings, nil
}

// Aggregates returns mean and count per (floor, janitor type), served from
// the cache when possible. The cache generation is read before the query so
// a fill racing a Submit is discarded.
func (s *RatingService) Aggregates(ctx context.Context) ([]domain.RatingAggregate, error) {
	useCache := s.cache != nil
	var generation int64
	if useCache {
		gen, err := s.cache.Generation(ctx)
		if err != nil {
			s.logger.Warn("rating cache generation read failed", zap.Error(err))
			useCache = false
		}
		generation = gen
	}
	if useCache {
		aggregates, err := s.cache.Get(ctx, generation)
		if err == nil {
			return aggregates, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("rating cache read failed", zap.Error(err))
		}
	}

	aggregates, err := s.ratings.Aggregate(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if useCache {
		err := s.cache.Set(ctx, generation, aggregates)
		switch {
		case errors.Is(err, cache.ErrStale):
			s.logger.Debug("ratings changed during aggregation; cache fill skipped")
		case err != nil:
			s.logger.Warn("rating cache write failed", zap.Error(err))
		}
	}
	return aggregates, nil
}

// StudentAverages formats the average per janitor type on the student's floor
// with one decimal, or N/A when unrated.
func (s *RatingService) StudentAverages(ctx context.Context, user *domain.User) (map[domain.JanitorType]string, error) {
	aggregates, err := s.Aggregates(ctx)
	if err != nil {
		return nil, err
	}
	floor := StudentFloor(user)
	result := make(map[domain.JanitorType]string, len(domain.JanitorTypes))
	for _, jt := range domain.JanitorTypes {
		result[jt] = NoRatings
	}
	for _, agg := range aggregates {
		if agg.Floor == floor && agg.Count > 0 {
			result[agg.JanitorType] = fmt.Sprintf("%.1f", agg.Average)
		}
	}
	return result, nil
}

// CaretakerRatings lists aggregates with janitor names, sorted by average.
func (s *RatingService) CaretakerRatings(ctx context.Context, filter RatingFilter) ([]StaffRating, error) {
	var janitorType domain.JanitorType
	if filter.JanitorType != "" && filter.JanitorType != "all" {
		jt, ok := domain.ParseJanitorType(filter.JanitorType)
		if !ok {
			return nil, apperrors.NewValidationError("Invalid janitor type", map[string]any{"janitorType": filter.JanitorType})
		}
		janitorType = jt
	}
	ascending := false
	switch strings.ToLower(filter.SortOrder) {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		return nil, apperrors.NewValidationError("Invalid sort order", map[string]any{"sortOrder": filter.SortOrder})
	}

	aggregates, err := s.Aggregates(ctx)
	if err != nil {
		return nil, err
	}

	rosters := map[int]domain.Janitors{}
	rows := make([]StaffRating, 0, len(aggregates))
	for _, agg := range aggregates {
		if janitorType != "" && agg.JanitorType != janitorType {
			continue
		}
		if filter.Floor != nil && agg.Floor != *filter.Floor {
			continue
		}
		roster, ok := rosters[agg.Floor]
		if !ok {
			roster = s.rooms.JanitorsForFloor(ctx, agg.Floor)
			rosters[agg.Floor] = roster
		}
		rows = append(rows, StaffRating{
			Floor:         agg.Floor,
			JanitorType:   agg.JanitorType,
			JanitorName:   roster.Name(agg.JanitorType),
			AverageRating: math.Round(agg.Average*100) / 100,
			TotalRatings:  agg.Count,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AverageRating != rows[j].AverageRating {
			if ascending {
				return rows[i].AverageRating < rows[j].AverageRating
			}
			return rows[i].AverageRating > rows[j].AverageRating
		}
		if rows[i].Floor != rows[j].Floor {
			return rows[i].Floor < rows[j].Floor
		}
		return rows[i].JanitorType < rows[j].JanitorType
	})
	return rows, nil
}
