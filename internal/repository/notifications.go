package repository

import (
	"context"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

type NotificationRepository interface {
	Recent(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	// Get returns one of the user's rows, or ErrNotFound.
	Get(ctx context.Context, userID, id string) (*core.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MarkRead and Delete only touch the row when it belongs to userID.
	MarkRead(ctx context.Context, userID, id string) error
	// MarkAllRead flips only the user's unread rows.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	Create(ctx context.Context, in NotificationInput) (*core.Notification, error)
}

type notificationRepository struct {
	db store.DB
}

func NewNotificationRepository(client *store.Client) NotificationRepository {
	return &notificationRepository{db: client.DB()}
}

func (r *notificationRepository) Recent(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	return store.Select[core.Notification](ctx, r.db,
		store.From("notifications").Eq("user_id", userID).Order("created_at", true).Limit(limit))
}

func (r *notificationRepository) Get(ctx context.Context, userID, id string) (*core.Notification, error) {
	return store.One[core.Notification](ctx, r.db, store.From("notifications").Eq("id", id).Eq("user_id", userID))
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	return store.Count(ctx, r.db, store.From("notifications").Eq("user_id", userID).Eq("read", false))
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	_, err := store.ExecCount(ctx, r.db, store.Update{
		In:    "notifications",
		Set:   store.Values{}.Set("read", true),
		Where: ownRow(userID, id),
	})
	return err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return store.ExecCount(ctx, r.db, store.Update{
		In:    "notifications",
		Set:   store.Values{}.Set("read", true),
		Where: []store.Filter{{Column: "user_id", Value: userID}, {Column: "read", Value: false}},
	})
}

func ownRow(userID, id string) []store.Filter {
	return []store.Filter{{Column: "id", Value: id}, {Column: "user_id", Value: userID}}
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := store.ExecCount(ctx, r.db, store.Delete{From: "notifications", Where: ownRow(userID, id)})
	return err
}

func (r *notificationRepository) Create(ctx context.Context, in NotificationInput) (*core.Notification, error) {
	kind := in.Type
	if kind == "" {
		kind = core.NotificationInfo
	}
	return store.ExecOne[core.Notification](ctx, r.db, store.Insert{
		Into: "notifications",
		Rows: []store.Values{store.Values{}.
			Set("user_id", in.UserID).
			Set("title", in.Title).
			Set("message", in.Message).
			Set("type", kind).
			Set("link", core.StringPtr(in.Link))},
	})
}
