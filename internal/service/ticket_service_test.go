package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/scoring"
	"github.com/cleantrack/cleantrack-api/internal/storage"
	"github.com/cleantrack/cleantrack-api/internal/worker"
)

func studentPrincipal(t *testing.T, env *testEnv, room string) (domain.Principal, *domain.User) {
	t.Helper()
	u := env.users.addVerified(t, "Asha", "asha@iitrpr.ac.in", domain.RoleStudent, room, nil)
	return domain.Principal{UserID: u.ID, Role: domain.RoleStudent}, u
}

func TestCreateTicketValidationHappensBeforeIO(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")

	cases := []TicketCreateInput{
		{Title: "", Description: "dirty floor"},
		{Title: "Floor", Description: "   "},
		{Title: " \t", Description: "\n"},
	}
	for _, input := range cases {
		input.Photo = &storage.Photo{FileName: "a.jpg", ContentType: "image/jpeg", Content: bytes.NewReader(nil)}
		_, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, input)
		assertDomainError(t, err, 400, "Title and description are required.")
		assert.Nil(t, task)
	}
	assert.Zero(t, env.photos.calls)
	assert.Empty(t, env.tickets.tickets)
}

func TestCreateTicketRejectsUnsupportedPhoto(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")

	_, _, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "Bin", Description: "Overflowing",
		Photo: &storage.Photo{FileName: "a.gif", ContentType: "image/gif"},
	})
	assertDomainError(t, err, 400, "Only JPG/PNG allowed")
	assert.Zero(t, env.photos.calls)
}

func TestCreateTicketReturnsBeforeScoring(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, user := studentPrincipal(t, env, "305")

	ticket, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "  Washroom  ", Description: " Tap leak ", RoomNumber: "305",
		Photo: &storage.Photo{FileName: "leak.png", ContentType: "image/png", Size: 10, Content: bytes.NewReader([]byte("png"))},
	})
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.AIConfidence)
	assert.Equal(t, "Washroom", ticket.Title)
	assert.Equal(t, "Tap leak", ticket.Description)
	assert.Equal(t, user.Email, ticket.StudentEmail)
	require.NotNil(t, ticket.Floor)
	assert.Equal(t, 3, *ticket.Floor)
	require.NotNil(t, ticket.PhotoURL)
	assert.Equal(t, 1, env.photos.calls)

	res := task.Wait()
	assert.Equal(t, 50.0, res.Confidence)
	assert.Equal(t, worker.SourceNeutral, res.Source)

	// The returned snapshot never sees the background write.
	assert.Nil(t, ticket.AIConfidence)
	stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AIConfidence)
	assert.Equal(t, 50.0, *stored.AIConfidence)
}

func TestCreateTicketScoringFallbacks(t *testing.T) {
	cases := []struct {
		name        string
		scorer      scoring.Scorer
		description string
		want        float64
	}{
		{"model", stubScorer{score: 91.25}, "sink", 91.25},
		{"keyword hit", stubScorer{err: errors.New("timeout")}, "there is a leak", 75.0},
		{"keyword miss", stubScorer{err: errors.New("timeout")}, "please mop", 40.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.scorer)
			principal, _ := studentPrincipal(t, env, "101")

			ticket, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
				Title: "Issue", Description: tc.description, RoomNumber: "101",
			})
			require.NoError(t, err)
			task.Wait()

			stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.AIConfidence)
			assert.Equal(t, tc.want, *stored.AIConfidence)
		})
	}
}

func TestCreateTicketUploadFailureAbortsCreation(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")
	env.photos.err = errors.New("disk full")

	_, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "Bin", Description: "Overflowing", RoomNumber: "101",
		Photo: &storage.Photo{FileName: "a.jpg", ContentType: "image/jpeg", Content: bytes.NewReader([]byte("x"))},
	})
	assertDomainError(t, err, 502, "")
	assert.Nil(t, task)
	assert.Empty(t, env.tickets.tickets)
}

func TestCreateTicketPersistenceFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")
	env.tickets.createErr = errors.New("connection refused")

	_, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "Bin", Description: "Overflowing", RoomNumber: "101",
	})
	assertDomainError(t, err, 503, "")
	assert.Nil(t, task)
}

func TestCreateTicketEmailFallbackAndFloorHeuristic(t *testing.T) {
	env := newTestEnv(t, nil)
	principal := domain.Principal{UserID: "00000000-0000-0000-0000-000000000000", Role: domain.RoleStudent}

	ticket, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "Hall", Description: "Dusty", RoomNumber: "A12", StudentEmail: "walkin@iitrpr.ac.in",
	})
	require.NoError(t, err)
	task.Wait()
	assert.Equal(t, "walkin@iitrpr.ac.in", ticket.StudentEmail)
	assert.Nil(t, ticket.Floor)

	ticket, task, err = env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{
		Title: "Hall", Description: "Dusty",
	})
	require.NoError(t, err)
	task.Wait()
	assert.Equal(t, "unknown", ticket.StudentEmail)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")
	caretaker := domain.Principal{UserID: "c", Role: domain.RoleCaretaker}
	ctx := context.Background()

	ticket, task, err := env.ticketSvc.CreateTicket(ctx, principal, TicketCreateInput{Title: "T", Description: "D", RoomNumber: "101"})
	require.NoError(t, err)
	task.Wait()

	_, err = env.ticketSvc.UpdateStatus(ctx, caretaker, ticket.ID, "cancelled")
	assertDomainError(t, err, 400, "Invalid status")
	stored, _ := env.tickets.GetByID(ctx, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)

	updated, err := env.ticketSvc.UpdateStatus(ctx, caretaker, ticket.ID, "in-process")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	require.NotNil(t, updated.AIConfidence, "status write must not clobber confidence")

	// Backward moves are allowed and repeating a status is a no-op.
	for _, status := range []string{"resolved", "resolved", "open"} {
		updated, err = env.ticketSvc.UpdateStatus(ctx, caretaker, ticket.ID, status)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatus(status), updated.Status)
	}

	_, err = env.ticketSvc.UpdateStatus(ctx, caretaker, "6f1c1a52-9d55-4c3e-9a51-9f7d8a6b0c11", "resolved")
	assertDomainError(t, err, 404, "Ticket not found")
	_, err = env.ticketSvc.UpdateStatus(ctx, caretaker, "garbage", "resolved")
	assertDomainError(t, err, 404, "Ticket not found")
}

func TestStatusAndScoringRaceKeepBothFields(t *testing.T) {
	env := newTestEnv(t, stubScorer{score: 80})
	principal, _ := studentPrincipal(t, env, "101")
	caretaker := domain.Principal{UserID: "c", Role: domain.RoleCaretaker}
	ctx := context.Background()

	ticket, task, err := env.ticketSvc.CreateTicket(ctx, principal, TicketCreateInput{Title: "T", Description: "D", RoomNumber: "101"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.ticketSvc.UpdateStatus(ctx, caretaker, ticket.ID, "resolved")
		assert.NoError(t, err)
	}()
	task.Wait()
	wg.Wait()

	stored, err := env.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
	require.NotNil(t, stored.AIConfidence)
	assert.Equal(t, 80.0, *stored.AIConfidence)
}

func TestListForStudent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	list, err := env.ticketSvc.ListForStudent(ctx, "nobody@iitrpr.ac.in")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	principal, user := studentPrincipal(t, env, "101")
	for _, title := range []string{"first", "second", "third"} {
		_, task, err := env.ticketSvc.CreateTicket(ctx, principal, TicketCreateInput{Title: title, Description: "d", RoomNumber: "101"})
		require.NoError(t, err)
		task.Wait()
	}

	list, err = env.ticketSvc.ListForStudent(ctx, user.Email)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
}

func TestScoringWriteFailureLeavesConfidenceNull(t *testing.T) {
	env := newTestEnv(t, nil)
	principal, _ := studentPrincipal(t, env, "101")
	env.tickets.writeErr = errors.New("db down")

	ticket, task, err := env.ticketSvc.CreateTicket(context.Background(), principal, TicketCreateInput{Title: "T", Description: "D", RoomNumber: "101"})
	require.NoError(t, err)
	res := task.Wait()
	assert.Equal(t, worker.SourceAbandoned, res.Source)

	stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AIConfidence)
}
