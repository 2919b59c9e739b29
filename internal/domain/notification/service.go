// Package notification is the per-user notification sink. Writes happen as a
// side effect of complaint lifecycle events and never fail the caller.
package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier is the write side used by other domains.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string)
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "notification").Logger()}
}

// Notify appends a notification for userID. Failures are logged and dropped.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	n := &Notification{UserID: userID, Title: title, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).
			Str("recipient", userID.String()).
			Str("title", title).
			Msg("failed to create notification")
	}
}

// List returns the most recent notifications for userID.
func (s *Service) List(ctx context.Context, userID uuid.UUID, isRead *bool) ([]*Notification, error) {
	return s.repo.ListForUser(ctx, userID, ListFilter{IsRead: isRead, Limit: RecentLimit})
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one of the caller's notifications as read. An id that does
// not belong to the caller is ignored.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug().Str("user_id", userID.String()).Str("notification_id", id.String()).
			Msg("mark read matched no owned notification")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
