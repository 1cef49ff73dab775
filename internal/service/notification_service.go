package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/events"
	"github.com/cleantrack/cleantrack-api/internal/mailer"
	"github.com/cleantrack/cleantrack-api/internal/repository"
)

const broadcastTimeout = 2 * time.Minute

// NotificationService reacts to domain events: ticket events are logged and
// announcements are mailed to their audience.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mailer     mailer.Mailer
	logger     *zap.Logger

	wg sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, m mailer.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mailer:     m,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventAnnouncementCreated, n.handleAnnouncementCreated)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

// handleAnnouncementCreated fans out in the background so posting is not
// held up by SMTP.
func (n *NotificationService) handleAnnouncementCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AnnouncementCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		defer cancel()
		n.broadcast(ctx, payload)
	}()
	return nil
}

func (n *NotificationService) broadcast(ctx context.Context, payload events.AnnouncementCreatedPayload) {
	a := payload.Announcement
	recipients, err := n.users.ListVerifiedByRoles(ctx, a.TargetAudience.Roles())
	if err != nil {
		n.logger.Error("failed to load announcement recipients", zap.String("announcement_id", a.ID), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("[%s] %s", a.Priority, a.Title)
	body := fmt.Sprintf("%s\n\nPosted by %s", a.Content, a.PostedByName)
	sent := 0
	for _, user := range recipients {
		if user.ID == a.PostedBy {
			continue
		}
		if err := n.mailer.Send(ctx, user.Email, subject, body); err != nil {
			n.logger.Warn("announcement email failed",
				zap.String("announcement_id", a.ID),
				zap.String("email", user.Email),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	n.logger.Info("announcement broadcast finished",
		zap.String("announcement_id", a.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int("sent", sent),
	)
}

// Drain waits for running broadcasts until ctx expires.
func (n *NotificationService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
