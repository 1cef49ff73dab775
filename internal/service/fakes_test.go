package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/cache"
	"github.com/cleantrack/cleantrack-api/internal/config"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/events"
	"github.com/cleantrack/cleantrack-api/internal/observability"
	"github.com/cleantrack/cleantrack-api/internal/scoring"
	"github.com/cleantrack/cleantrack-api/internal/storage"
	"github.com/cleantrack/cleantrack-api/internal/worker"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
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

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByEmailAndRole(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email && u.Role == role })
}

func (r *fakeUserRepo) DeleteUnverifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email && !u.IsVerified {
			delete(r.users, id)
		}
	}
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
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

func (r *fakeUserRepo) ListVerifiedByRoles(_ context.Context, roles []domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.IsVerified && u.Role == role {
				result = append(result, *u)
			}
		}
	}
	return result, nil
}

func (r *fakeUserRepo) FindCaretakerForFloor(_ context.Context, floor int) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.Role == domain.RoleCaretaker && u.IsVerified && u.Floor != nil && *u.Floor == floor
	})
}

// addVerified inserts an already verified account.
func (r *fakeUserRepo) addVerified(t *testing.T, name, email string, role domain.Role, room string, floor *int) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123", 4)
	if err != nil {
		t.Fatal(err)
	}
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, Floor: floor, IsVerified: true}
	if room != "" {
		u.RoomNumber = &room
	}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

type fakeRoomRepo struct {
	mu      sync.Mutex
	rooms   map[string]*domain.Room
	inserts int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[string]*domain.Room{}}
}

func (r *fakeRoomRepo) GetOrCreate(_ context.Context, defaults *domain.Room) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rooms[defaults.RoomNumber]; ok {
		cp := *existing
		return &cp, nil
	}
	room := *defaults
	room.ID = uuid.NewString()
	r.rooms[room.RoomNumber] = &room
	r.inserts++
	cp := room
	return &cp, nil
}

// room returns a copy of the stored row, or nil.
func (r *fakeRoomRepo) room(roomNumber string) *domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomNumber]; ok {
		cp := *room
		return &cp
	}
	return nil
}

func (r *fakeRoomRepo) MarkCleaned(_ context.Context, roomNumber string, at time.Time) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomNumber]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	room.LastCleaned = &at
	cp := *room
	return &cp, nil
}

func (r *fakeRoomRepo) AssignCaretakerForFloor(_ context.Context, floor int, caretaker string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, room := range r.rooms {
		if room.Floor == floor {
			name := caretaker
			room.Caretaker = &name
			n++
		}
	}
	return n, nil
}

func (r *fakeRoomRepo) FirstOnFloor(_ context.Context, floor int) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *domain.Room
	for _, room := range r.rooms {
		if room.Floor == floor && (found == nil || room.RoomNumber < found.RoomNumber) {
			found = room
		}
	}
	if found == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *found
	return &cp, nil
}

type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	createErr error
	writeErr  error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	ticket.ID = uuid.NewString()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTicketRepo) list(match func(*domain.Ticket) bool) []domain.Ticket {
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

func (r *fakeTicketRepo) ListByStudentEmail(_ context.Context, email string) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool { return t.StudentEmail == email }), nil
}

func (r *fakeTicketRepo) ListAll(context.Context) ([]domain.Ticket, error) {
	return r.list(func(*domain.Ticket) bool { return true }), nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
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

func (r *fakeTicketRepo) SetConfidence(_ context.Context, id string, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.AIConfidence = &confidence
	return nil
}

type fakeRatingRepo struct {
	mu         sync.Mutex
	ratings    []domain.Rating
	aggregates int
	err        error
}

func (r *fakeRatingRepo) CreateBatch(_ context.Context, ratings []*domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, rating := range ratings {
		rating.ID = uuid.NewString()
		rating.CreatedAt = time.Now()
		r.ratings = append(r.ratings, *rating)
	}
	return nil
}

func (r *fakeRatingRepo) Aggregate(context.Context) ([]domain.RatingAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates++
	type key struct {
		floor int
		jt    domain.JanitorType
	}
	sums := map[key][2]int{}
	for _, rating := range r.ratings {
		k := key{rating.Floor, rating.JanitorType}
		s := sums[k]
		sums[k] = [2]int{s[0] + rating.Rating, s[1] + 1}
	}
	result := []domain.RatingAggregate{}
	for k, s := range sums {
		result = append(result, domain.RatingAggregate{
			Floor: k.floor, JanitorType: k.jt, Average: float64(s[0]) / float64(s[1]), Count: s[1],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Floor != result[j].Floor {
			return result[i].Floor < result[j].Floor
		}
		return result[i].JanitorType < result[j].JanitorType
	})
	return result, nil
}

type fakeAnnouncementRepo struct {
	mu   sync.Mutex
	list []domain.Announcement
}

func (r *fakeAnnouncementRepo) Create(_ context.Context, a *domain.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.list = append(r.list, *a)
	return nil
}

func (r *fakeAnnouncementRepo) ListSince(_ context.Context, since time.Time, audiences []domain.Audience) ([]domain.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Announcement
	for _, a := range r.list {
		if a.CreatedAt.Before(since) {
			continue
		}
		for _, aud := range audiences {
			if a.TargetAudience == aud {
				result = append(result, a)
			}
		}
	}
	return result, nil
}

type fakePhotoStore struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakePhotoStore) Save(context.Context, storage.Photo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "http://localhost:3000/uploads/" + uuid.NewString() + ".jpg", nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("smtp refused")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Score(context.Context, string) (float64, error) {
	return s.score, s.err
}

// testEnv wires every service over in-memory fakes.
type testEnv struct {
	users         *fakeUserRepo
	rooms         *fakeRoomRepo
	tickets       *fakeTicketRepo
	ratings       *fakeRatingRepo
	announcements *fakeAnnouncementRepo
	photos        *fakePhotoStore
	mailer        *fakeMailer
	redis         *miniredis.Miniredis

	tokens          *auth.TokenManager
	authSvc         *AuthService
	ticketSvc       *TicketService
	roomSvc         *RoomService
	ratingSvc       *RatingService
	announcementSvc *AnnouncementService
	notificationSvc *NotificationService
	dashboardSvc    *DashboardService
	reportSvc       *ReportService
	worker          *worker.ScoringWorker
}

func newTestEnv(t *testing.T, scorer scoring.Scorer) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		users:         newFakeUserRepo(),
		rooms:         newFakeRoomRepo(),
		tickets:       newFakeTicketRepo(),
		ratings:       &fakeRatingRepo{},
		announcements: &fakeAnnouncementRepo{},
		photos:        &fakePhotoStore{},
		mailer:        &fakeMailer{failTo: map[string]bool{}},
		redis:         miniredis.RunT(t),
	}
	redisClient := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	dispatcher := events.NewInMemoryDispatcher(logger)
	env.tokens = auth.NewTokenManager("test-secret", time.Hour)
	env.authSvc = NewAuthService(config.AuthConfig{BcryptCost: 4, EmailDomain: "@iitrpr.ac.in"}, AuthDependencies{
		UserRepo: env.users,
		RoomRepo: env.rooms,
		Tokens:   env.tokens,
		Mailer:   env.mailer,
		Logger:   logger,
	})
	env.worker = worker.NewScoringWorker(env.tickets, scorer, time.Second, observability.NewMetrics(), logger)
	env.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:    env.tickets,
		UserRepo:      env.users,
		Photos:        env.photos,
		Scoring:       env.worker,
		Dispatcher:    dispatcher,
		MaxPhotoBytes: 1 << 20,
		Logger:        logger,
	})
	env.roomSvc = NewRoomService(env.rooms, env.users, logger)
	env.ratingSvc = NewRatingService(env.ratings, env.roomSvc, cache.NewRatingsCache(redisClient, time.Minute, logger), logger)
	env.announcementSvc = NewAnnouncementService(env.announcements, env.users, dispatcher)
	env.notificationSvc = NewNotificationService(dispatcher, env.users, env.mailer, logger)
	env.notificationSvc.RegisterHandlers()
	env.dashboardSvc = NewDashboardService(DashboardDependencies{
		UserRepo:      env.users,
		Rooms:         env.roomSvc,
		Tickets:       env.ticketSvc,
		Ratings:       env.ratingSvc,
		Announcements: env.announcementSvc,
	})
	env.reportSvc = NewReportService(env.ticketSvc)
	return env
}

func intPtr(v int) *int { return &v }
