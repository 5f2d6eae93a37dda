package web

import (
	"context"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"mbs-manager/internal/forms"
	"mbs-manager/internal/repository"
	"mbs-manager/internal/views"
)

// formDrafts are the draft types whose JSON schema the client can fetch to
// render a form.
var formDrafts = map[string]any{
	"product":  forms.ProductDraft{},
	"customer": forms.CustomerDraft{},
	"supplier": forms.SupplierDraft{},
	"order":    forms.OrderDraft{},
	"profile":  repository.ProfileUpdate{},
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func schemaFor(name string) (*jsonschema.Schema, bool) {
	v, ok := formDrafts[name]
	if !ok {
		return nil, false
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{Type: "string", Pattern: `^-?[0-9]+([.,][0-9]+)?$`}
			}
			return nil
		},
	}
	return reflector.Reflect(v), true
}

// formSchema handles GET /api/forms/{name}/schema.
func (h *Handler) formSchema(w http.ResponseWriter, r *http.Request) {
	s, ok := schemaFor(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, r, "unknown form", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, s)
}

// lookups handles GET /api/lookups: categories and suppliers for the
// product form.
func (h *Handler) lookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, views.LoadLookups(r.Context(), h.repos, h.log))
}

// createProduct handles POST /api/products. Fields missing from the body keep
// the form defaults.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	d := forms.DefaultProductDraft()
	if !decodeJSON(w, r, &d) {
		return
	}
	f := forms.NewProductForm(h.repos, h.log, nil)
	f.SetDraft(d)
	h.submit(w, r, f.Submit)
}

// createCustomer handles POST /api/customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	d := forms.DefaultCustomerDraft()
	if !decodeJSON(w, r, &d) {
		return
	}
	f := forms.NewCustomerForm(h.repos, h.log, nil)
	f.SetDraft(d)
	h.submit(w, r, f.Submit)
}

// createSupplier handles POST /api/suppliers.
func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	d := forms.DefaultSupplierDraft()
	if !decodeJSON(w, r, &d) {
		return
	}
	f := forms.NewSupplierForm(h.repos, h.log, nil)
	f.SetDraft(d)
	h.submit(w, r, f.Submit)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, submit func(ctx context.Context) error) {
	if err := submit(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
