// internal/adapters/in/http/handlers/catalog_handler.go
package handlers

import (
	"iter"
	"net/http"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

// CatalogReader is the read side of the catalog store.
type CatalogReader interface {
	Loading() bool
	Ready() bool
	Get(id string) (productdom.Product, bool)
	Search(term string) iter.Seq[productdom.Product]
}

// CatalogHandler serves the storefront listing.
//
//	GET /api/catalog?q=term
//	GET /api/catalog/{id}
type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(catalog CatalogReader) http.Handler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	switch {
	case r.URL.Path == "/api/catalog" || r.URL.Path == "/api/catalog/":
		h.list(w, r)
	default:
		id := pathID(r.URL.Path, "/api/catalog/")
		if id == "" {
			notFound(w)
			return
		}
		h.get(w, id)
	}
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	products := []productView{}
	for p := range h.catalog.Search(r.URL.Query().Get("q")) {
		products = append(products, toProductView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loading":  h.catalog.Loading(),
		"products": products,
	})
}

// Inactive products are not part of the storefront.
func (h *CatalogHandler) get(w http.ResponseWriter, id string) {
	p, ok := h.catalog.Get(id)
	if !ok || !p.IsActive {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(p))
}
