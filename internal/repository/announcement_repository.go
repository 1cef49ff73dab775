package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// AnnouncementRepository stores append-only announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *domain.Announcement) error
	ListSince(ctx context.Context, since time.Time, audiences []domain.Audience) ([]domain.Announcement, error)
}

type announcementRepository struct {
	pool *pgxpool.Pool
}

// NewAnnouncementRepository constructs repository.
func NewAnnouncementRepository(pool *pgxpool.Pool) AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

const announcementColumns = `id, title, content, posted_by, posted_by_name, priority, target_audience, created_at`

func (r *announcementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (title, content, posted_by, posted_by_name, priority, target_audience)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		a.Title,
		a.Content,
		a.PostedBy,
		a.PostedByName,
		a.Priority,
		a.TargetAudience,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListSince returns announcements created at or after since for the given
// audiences, newest first. Priority ordering is left to callers.
func (r *announcementRepository) ListSince(ctx context.Context, since time.Time, audiences []domain.Audience) ([]domain.Announcement, error) {
	names := make([]string, len(audiences))
	for i, a := range audiences {
		names[i] = string(a)
	}
	const query = `SELECT ` + announcementColumns + ` FROM announcements
        WHERE created_at >= $1 AND target_audience = ANY($2)
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, since, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Content,
		&a.PostedBy,
		&a.PostedByName,
		&a.Priority,
		&a.TargetAudience,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
