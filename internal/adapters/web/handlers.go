package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mbs-manager/internal/auth"
	"mbs-manager/internal/notify"
	"mbs-manager/internal/realtime"
	"mbs-manager/internal/repository"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Auth     auth.Service
	Repos    *repository.Set
	Changes  notify.Changes
	Sockets  *realtime.Sockets
	Notifier notify.Service
	Log      *zap.Logger

	AllowedOrigins []string
	SessionTTL     time.Duration
	// SecureCookies marks the session cookie Secure. Off only for local
	// development over plain HTTP.
	SecureCookies bool
}

// Handler holds the services and the chi router.
type Handler struct {
	auth     auth.Service
	repos    *repository.Set
	changes  notify.Changes
	sockets  *realtime.Sockets
	notifier notify.Service
	log      *zap.Logger

	sessionTTL    time.Duration
	secureCookies bool
	upgrader      websocket.Upgrader
	router        chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(d Deps) http.Handler {
	h := &Handler{
		auth:          d.Auth,
		repos:         d.Repos,
		changes:       d.Changes,
		sockets:       d.Sockets,
		notifier:      d.Notifier,
		log:           d.Log,
		sessionTTL:    d.SessionTTL,
		secureCookies: d.SecureCookies,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(d.AllowedOrigins)}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log))
	r.Use(Recoverer(h.log))
	r.Use(CORS(d.AllowedOrigins))

	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(64 << 10))
		r.Post("/api/auth/signup", h.signUp)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/ws", h.socket)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)
			r.Post("/api/auth/password", h.changePassword)

			// Pages
			r.Get("/api/dashboard", h.dashboard)
			r.Get("/api/inventory", h.inventory)
			r.Get("/api/customers", h.customers)
			r.Get("/api/suppliers", h.suppliers)
			r.Get("/api/analytics", h.analytics)
			r.Get("/api/profile", h.profile)
			r.Put("/api/profile", h.updateProfile)

			// Entity forms
			r.Get("/api/forms/{name}/schema", h.formSchema)
			r.Get("/api/lookups", h.lookups)
			r.Post("/api/products", h.createProduct)
			r.Post("/api/customers", h.createCustomer)
			r.Post("/api/suppliers", h.createSupplier)

			// Orders
			r.Get("/api/orders", h.orders)
			r.Post("/api/orders", h.createOrder)
			r.Get("/api/orders/form", h.newOrderForm)
			r.Get("/api/orders/{id}", h.order)
			r.Get("/api/orders/{id}/form", h.editOrderForm)
			r.Put("/api/orders/{id}", h.updateOrder)
			r.Delete("/api/orders/{id}", h.deleteOrder)

			// Notifications
			r.Get("/api/notifications", h.notifications)
			r.Get("/api/notifications/unread-count", h.unreadCount)
			r.Post("/api/notifications", h.publishNotification)
			r.Post("/api/notifications/read-all", h.markAllRead)
			r.Post("/api/notifications/{id}/read", h.markRead)
			r.Delete("/api/notifications/{id}", h.deleteNotification)
		})
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
