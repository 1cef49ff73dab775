package http

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}}
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memUsers) GetByEmailAndRole(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email && u.Role == role })
}

func (r *memUsers) DeleteUnverifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email && !u.IsVerified {
			delete(r.users, id)
		}
	}
	return nil
}

func (r *memUsers) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsVerified = true
	u.VerificationCode = nil
	return nil
}

func (r *memUsers) ListVerifiedByRoles(context.Context, []domain.Role) ([]domain.User, error) {
	return nil, nil
}

func (r *memUsers) FindCaretakerForFloor(context.Context, int) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

type memTickets struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newMemTickets() *memTickets {
	return &memTickets{tickets: map[string]*domain.Ticket{}}
}

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *memTickets) list(match func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []domain.Ticket{}
	for _, t := range r.tickets {
		if match(t) {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *memTickets) ListByStudentEmail(_ context.Context, email string) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool { return t.StudentEmail == email }), nil
}

func (r *memTickets) ListAll(context.Context) ([]domain.Ticket, error) {
	return r.list(func(*domain.Ticket) bool { return true }), nil
}

func (r *memTickets) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t.Status = status
	cp := *t
	return &cp, nil
}

func (r *memTickets) SetConfidence(_ context.Context, id string, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.AIConfidence = &confidence
	return nil
}

type memRatings struct {
	mu      sync.Mutex
	ratings []domain.Rating
}

func (r *memRatings) CreateBatch(_ context.Context, ratings []*domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range ratings {
		rating.ID = uuid.NewString()
		rating.CreatedAt = time.Now()
		r.ratings = append(r.ratings, *rating)
	}
	return nil
}

func (r *memRatings) Aggregate(context.Context) ([]domain.RatingAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := map[[2]string]int{}
	result := []domain.RatingAggregate{}
	for _, rating := range r.ratings {
		k := [2]string{strconv.Itoa(rating.Floor), string(rating.JanitorType)}
		i, ok := index[k]
		if !ok {
			i = len(result)
			index[k] = i
			result = append(result, domain.RatingAggregate{Floor: rating.Floor, JanitorType: rating.JanitorType})
		}
		agg := &result[i]
		agg.Average = (agg.Average*float64(agg.Count) + float64(rating.Rating)) / float64(agg.Count+1)
		agg.Count++
	}
	return result, nil
}

type memPhotos struct{}

func (memPhotos) Save(_ context.Context, photo storage.Photo) (string, error) {
	return "http://localhost:3000/uploads/" + uuid.NewString() + strings.ToLower(photo.FileName[strings.LastIndex(photo.FileName, "."):]), nil
}

type captureMailer struct {
	mu   sync.Mutex
	last map[string]string
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = map[string]string{}
	}
	m.last[to] = body
	return nil
}

// code extracts the verification code from the last mail sent to addr.
func (m *captureMailer) code(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	body := m.last[addr]
	return strings.TrimSpace(body[strings.LastIndex(body, ":")+1:])
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

var errDown = errors.New("connection refused")
