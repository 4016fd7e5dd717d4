// internal/adapters/in/http/handlers/admin_product_handler.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	adminapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/admin"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

// FormKeyHeader names the admin form a create request comes from. Two
// submissions with the same key are not allowed to run at once.
const FormKeyHeader = "X-Form-Key"

// ProductMutator is the admin write side of the catalog.
type ProductMutator interface {
	Create(ctx context.Context, formKey string, raw productdom.RawFields) (productdom.Product, error)
	Update(ctx context.Context, id string, raw productdom.RawFields) (productdom.Product, error)
	Delete(ctx context.Context, id string) error
	ToggleActive(ctx context.Context, id string) (productdom.Product, error)
	ClearAll(ctx context.Context) (int, error)
	InFlight(id string) bool
	InFlightIDs() []string
}

// AdminCatalog lists every product, inactive ones included.
type AdminCatalog interface {
	Loading() bool
	Products() []productdom.Product
}

// AdminProductHandler serves the admin product table. It sits behind
// middleware.RequireAdmin.
//
//	GET    /api/admin/products
//	POST   /api/admin/products
//	DELETE /api/admin/products?confirm=yes
//	PUT    /api/admin/products/{id}
//	DELETE /api/admin/products/{id}
//	POST   /api/admin/products/{id}/toggle
type AdminProductHandler struct {
	mutator ProductMutator
	catalog AdminCatalog
}

func NewAdminProductHandler(mutator ProductMutator, catalog AdminCatalog) http.Handler {
	return &AdminProductHandler{mutator: mutator, catalog: catalog}
}

const adminProductsPath = "/api/admin/products"

func (h *AdminProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")

	if path == adminProductsPath {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		case http.MethodDelete:
			h.clearAll(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/toggle"); ok {
		id = pathID(id, adminProductsPath+"/")
		if id == "" {
			notFound(w)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		p, err := h.mutator.ToggleActive(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdminProductView(p, false))
		return
	}

	id := pathID(path, adminProductsPath+"/")
	if id == "" {
		notFound(w)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		if err := h.mutator.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *AdminProductHandler) list(w http.ResponseWriter) {
	products := h.catalog.Products()
	out := make([]adminProductView, 0, len(products))
	for _, p := range products {
		out = append(out, toAdminProductView(p, h.mutator.InFlight(p.ID)))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loading":  h.catalog.Loading(),
		"products": out,
		"inFlight": h.mutator.InFlightIDs(),
	})
}

func (h *AdminProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	formKey := strings.TrimSpace(r.Header.Get(FormKeyHeader))
	if formKey == "" {
		formKey = adminapp.DefaultFormKey
	}

	p, err := h.mutator.Create(r.Context(), formKey, form.raw())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdminProductView(p, false))
}

func (h *AdminProductHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var form productForm
	if err := decodeJSON(w, r, &form); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	p, err := h.mutator.Update(r.Context(), id, form.raw())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminProductView(p, false))
}

// clearAll is destructive; the client must confirm explicitly.
func (h *AdminProductHandler) clearAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "yes" {
		badRequest(w, "confirmation_required")
		return
	}
	n, err := h.mutator.ClearAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
