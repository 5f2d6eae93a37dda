package web

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/notify"
)

// Events pushed on the notification socket.
const (
	eventNotifications = "notifications"
	eventUnreadCount   = "unread_count"
)

const socketOpenTimeout = 10 * time.Second

// originChecker accepts same-host handshakes and the configured CORS
// origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// socket handles GET /api/ws. The connection receives the notification list
// whenever it changes and the unread count whenever it is re-polled; it
// also receives events published to the user.
func (h *Handler) socket(w http.ResponseWriter, r *http.Request) {
	userID := sessionFromContext(r.Context()).UserID()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws: upgrade failed", zap.Error(err))
		return
	}
	sock := h.sockets.Register(userID, conn)
	defer sock.Close()

	feed := notify.NewFeed(h.repos.Notifications, h.changes, h.log)
	feed.OnChange(func(items []core.Notification) {
		if err := sock.Send(eventNotifications, items); err != nil {
			h.log.Debug("ws: push failed", zap.String("user_id", userID), zap.Error(err))
		}
	})
	badge := notify.NewBadge(h.repos.Notifications, h.changes, h.log)
	badge.OnPoll(func(n int) {
		if err := sock.Send(eventUnreadCount, n); err != nil {
			h.log.Debug("ws: push failed", zap.String("user_id", userID), zap.Error(err))
		}
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), socketOpenTimeout)
	feed.Open(ctx, userID)
	badge.Open(ctx, userID)
	cancel()
	defer feed.Close()
	defer badge.Close()

	h.log.Info("ws: connected", zap.String("user_id", userID), zap.Int("connections", h.sockets.Connected(userID)))
	// No inbound events; read until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.log.Info("ws: disconnected", zap.String("user_id", userID))
}
