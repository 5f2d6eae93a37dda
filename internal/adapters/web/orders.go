package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"mbs-manager/internal/core"
	"mbs-manager/internal/forms"
	"mbs-manager/internal/views"
)

type orderFormResponse struct {
	OrderID   string           `json:"order_id,omitempty"`
	Draft     forms.OrderDraft `json:"draft"`
	Total     decimal.Decimal  `json:"total"`
	Customers []core.Customer  `json:"customers"`
	Products  []core.Product   `json:"products"`
}

func (h *Handler) orderForm(r *http.Request) *forms.OrderForm {
	sess := sessionFromContext(r.Context())
	return forms.NewOrderForm(h.repos, h.log, sess.UserID, nil)
}

func formSnapshot(f *forms.OrderForm) orderFormResponse {
	return orderFormResponse{
		OrderID:   f.Editing(),
		Draft:     f.Draft(),
		Total:     f.Total(),
		Customers: f.Customers(),
		Products:  f.Products(),
	}
}

// newOrderForm handles GET /api/orders/form: an empty draft plus the
// selectable customers and products.
func (h *Handler) newOrderForm(w http.ResponseWriter, r *http.Request) {
	f := h.orderForm(r)
	if err := f.Open(r.Context(), ""); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, formSnapshot(f))
}

// editOrderForm handles GET /api/orders/{id}/form.
func (h *Handler) editOrderForm(w http.ResponseWriter, r *http.Request) {
	f := h.orderForm(r)
	if err := f.Open(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, formSnapshot(f))
}

// order handles GET /api/orders/{id}.
func (h *Handler) order(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.repos.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	items, err := h.repos.Orders.Items(r.Context(), id)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, struct {
		*core.Order
		Items []core.OrderItem `json:"items"`
	}{o, items})
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var d forms.OrderDraft
	if !decodeJSON(w, r, &d) {
		return
	}
	f := h.orderForm(r)
	f.SetDraft(d)
	if err := f.Submit(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// updateOrder handles PUT /api/orders/{id}: the stored items are replaced by
// the valid lines of the body.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var d forms.OrderDraft
	if !decodeJSON(w, r, &d) {
		return
	}
	f := h.orderForm(r)
	if err := f.Open(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	f.SetDraft(d)
	if err := f.Submit(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteOrder handles DELETE /api/orders/{id}.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	v := views.NewOrders(h.repos, h.log)
	if err := v.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
