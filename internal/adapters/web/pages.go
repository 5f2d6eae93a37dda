package web

import (
	"net/http"

	"mbs-manager/internal/core"
	"mbs-manager/internal/forms"
	"mbs-manager/internal/views"
)

// page is the JSON snapshot of a list page after one load.
type page[T any] struct {
	Phase  views.Phase `json:"phase"`
	Search string      `json:"search,omitempty"`
	Rows   []T         `json:"rows"`
	Stats  any         `json:"stats"`
}

// inventoryRow adds the derived stock figures to an inventory line.
type inventoryRow struct {
	core.InventoryItem
	Available   int              `json:"available"`
	Status      core.StockStatus `json:"status"`
	StatusLabel string           `json:"status_label"`
}

// dashboard handles GET /api/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	v := views.NewDashboard(h.repos, h.log)
	v.Load(r.Context())
	writeJSON(w, struct {
		Phase        views.Phase          `json:"phase"`
		Stats        views.DashboardStats `json:"stats"`
		RecentOrders []core.Order         `json:"recent_orders"`
	}{v.Phase(), v.Stats(), v.RecentOrders()})
}

// inventory handles GET /api/inventory?search=.
func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	v := views.NewInventory(h.repos, h.log)
	v.Load(r.Context())
	v.SetSearch(r.URL.Query().Get("search"))

	visible := v.Visible()
	rows := make([]inventoryRow, len(visible))
	for i, it := range visible {
		st := it.Status()
		rows[i] = inventoryRow{InventoryItem: it, Available: it.Available(), Status: st, StatusLabel: st.Label()}
	}
	writeJSON(w, page[inventoryRow]{Phase: v.Phase(), Search: v.Search(), Rows: rows, Stats: v.Stats()})
}

// customers handles GET /api/customers?search=.
func (h *Handler) customers(w http.ResponseWriter, r *http.Request) {
	v := views.NewCustomers(h.repos, h.log)
	v.Load(r.Context())
	v.SetSearch(r.URL.Query().Get("search"))
	writeJSON(w, page[core.Customer]{Phase: v.Phase(), Search: v.Search(), Rows: v.Visible(), Stats: v.CountsByType()})
}

// suppliers handles GET /api/suppliers?search=.
func (h *Handler) suppliers(w http.ResponseWriter, r *http.Request) {
	v := views.NewSuppliers(h.repos, h.log)
	v.Load(r.Context())
	v.SetSearch(r.URL.Query().Get("search"))
	writeJSON(w, page[core.Supplier]{
		Phase:  v.Phase(),
		Search: v.Search(),
		Rows:   v.Visible(),
		Stats:  map[string]int{"total": v.Count()},
	})
}

// orders handles GET /api/orders?search=&status=.
func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	v := views.NewOrders(h.repos, h.log)
	if status := r.URL.Query().Get("status"); status != "" {
		if err := v.SetStatus(status); err != nil {
			h.writeFailure(w, r, err)
			return
		}
	}
	v.Load(r.Context())
	v.SetSearch(r.URL.Query().Get("search"))
	writeJSON(w, struct {
		page[core.Order]
		Status string `json:"status"`
	}{page[core.Order]{Phase: v.Phase(), Search: v.Search(), Rows: v.Visible(), Stats: v.Stats()}, v.Status()})
}

// analytics handles GET /api/analytics.
func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	v := views.NewAnalytics(h.repos, h.log)
	v.Load(r.Context())
	writeJSON(w, struct {
		Phase views.Phase          `json:"phase"`
		Stats views.AnalyticsStats `json:"stats"`
	}{v.Phase(), v.Stats()})
}

// profile handles GET /api/profile.
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	v := views.NewProfile(sessionFromContext(r.Context()), h.log)
	v.Load(r.Context())
	writeJSON(w, struct {
		Phase   views.Phase   `json:"phase"`
		Email   string        `json:"email"`
		Profile *core.Profile `json:"profile"`
	}{v.Phase(), v.Email(), v.Profile()})
}

// updateProfile handles PUT /api/profile.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	v := views.NewProfile(sess, h.log)
	f := forms.NewProfileForm(h.repos.Profiles, sess, h.log, v.ProfileSaved)
	f.Load()
	d := f.Draft()
	if !decodeJSON(w, r, &d) {
		return
	}
	f.SetDraft(d)
	if err := f.Submit(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, v.Profile())
}
