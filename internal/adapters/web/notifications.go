package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mbs-manager/internal/core"
	"mbs-manager/internal/notify"
	"mbs-manager/internal/repository"
)

// openFeed opens the caller's notification feed for the duration of one
// request.
func (h *Handler) openFeed(r *http.Request) *notify.Feed {
	f := notify.NewFeed(h.repos.Notifications, h.changes, h.log)
	f.Open(r.Context(), sessionFromContext(r.Context()).UserID())
	return f
}

type feedResponse struct {
	Items       []core.Notification `json:"items"`
	UnreadCount int                 `json:"unread_count"`
}

// notifications handles GET /api/notifications.
func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	f := h.openFeed(r)
	defer f.Close()
	writeJSON(w, feedResponse{Items: f.Items(), UnreadCount: f.UnreadCount()})
}

// unreadCount handles GET /api/notifications/unread-count.
func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	b := notify.NewBadge(h.repos.Notifications, h.changes, h.log)
	b.Open(r.Context(), sessionFromContext(r.Context()).UserID())
	defer b.Close()
	writeJSON(w, map[string]int{"unread_count": b.Count()})
}

// markRead handles POST /api/notifications/{id}/read.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	f := h.openFeed(r)
	defer f.Close()
	if err := f.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, feedResponse{Items: f.Items(), UnreadCount: f.UnreadCount()})
}

// markAllRead handles POST /api/notifications/read-all.
func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	f := h.openFeed(r)
	defer f.Close()
	if err := f.MarkAllAsRead(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, feedResponse{Items: f.Items(), UnreadCount: f.UnreadCount()})
}

// deleteNotification handles DELETE /api/notifications/{id}.
func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	f := h.openFeed(r)
	defer f.Close()
	if err := f.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// publishNotification handles POST /api/notifications. Only admins and
// managers may notify other users.
func (h *Handler) publishNotification(w http.ResponseWriter, r *http.Request) {
	prof := sessionFromContext(r.Context()).State().Profile
	if prof == nil || (prof.Role != core.RoleAdmin && prof.Role != core.RoleManager) {
		writeError(w, r, "admin or manager role required", "FORBIDDEN", http.StatusForbidden)
		return
	}
	var req struct {
		UserID  string                `json:"user_id"`
		Title   string                `json:"title"`
		Message string                `json:"message"`
		Type    core.NotificationType `json:"type"`
		Link    string                `json:"link"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.notifier.Publish(r.Context(), repository.NotificationInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Link:    req.Link,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, n)
}
