package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

// Pusher delivers an event to a user's open connections.
type Pusher interface {
	Notify(userID, event string, payload any) int
}

// EventNotification is the push event carrying a new notification.
const EventNotification = "notification"

// Service creates notifications for users.
type Service interface {
	Publish(ctx context.Context, in repository.NotificationInput) (*core.Notification, error)
}

type service struct {
	repo   repository.NotificationRepository
	pusher Pusher
	log    *zap.Logger
}

// NewService builds the publisher. pusher may be nil when no browser
// connections are served; subscribers still see the insert on the change
// feed.
func NewService(repo repository.NotificationRepository, pusher Pusher, log *zap.Logger) Service {
	return &service{repo: repo, pusher: pusher, log: log}
}

func (s *service) Publish(ctx context.Context, in repository.NotificationInput) (*core.Notification, error) {
	if in.UserID == "" {
		return nil, core.NewValidationError("user_id", "destinataire requis")
	}
	if in.Title == "" {
		return nil, core.NewValidationError("title", "titre requis")
	}
	if in.Type != "" && !in.Type.Valid() {
		return nil, core.NewValidationError("type", fmt.Sprintf("type inconnu %q", in.Type))
	}

	n, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to publish notification: %w", err)
	}
	s.log.Info("notification published",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)))

	if s.pusher != nil {
		s.pusher.Notify(n.UserID, EventNotification, n)
	}
	return n, nil
}
