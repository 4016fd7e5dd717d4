// internal/adapters/in/http/handlers/cart_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http/middleware"
	cartapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/cart"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

// CartProvider returns the cart bound to a client scope.
type CartProvider interface {
	For(scope string) (*cartapp.Store, error)
}

// CartHandler serves the client's cart. The scope comes from the client cookie.
//
//	GET    /api/cart
//	DELETE /api/cart
//	POST   /api/cart/items          {"productId": "..."}
//	PUT    /api/cart/items/{id}     {"quantity": n}
//	DELETE /api/cart/items/{id}
//	POST   /api/cart/toggle
type CartHandler struct {
	carts   CartProvider
	catalog CatalogReader
}

func NewCartHandler(carts CartProvider, catalog CatalogReader) http.Handler {
	return &CartHandler{carts: carts, catalog: catalog}
}

type cartItemView struct {
	ProductID string       `json:"productId"`
	Quantity  int          `json:"quantity"`
	Available bool         `json:"available"`
	Product   *productView `json:"product,omitempty"`
	Subtotal  string       `json:"subtotal"`
}

type cartView struct {
	Items        []cartItemView `json:"items"`
	ItemCount    int            `json:"itemCount"`
	Total        string         `json:"total"`
	Unavailable  []string       `json:"unavailable"`
	Pruned       []string       `json:"pruned,omitempty"`
	Open         bool           `json:"open"`
	CatalogReady bool           `json:"catalogReady"`
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.For(middleware.Scope(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.URL.Path {
	case "/api/cart", "/api/cart/":
		switch r.Method {
		case http.MethodGet:
			h.view(w, r, cart)
		case http.MethodDelete:
			if err := cart.ClearCart(r.Context()); err != nil {
				writeError(w, err)
				return
			}
			h.respond(r.Context(), w, cart, nil)
		default:
			methodNotAllowed(w)
		}
		return
	case "/api/cart/items", "/api/cart/items/":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.add(w, r, cart)
		return
	case "/api/cart/toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"open": cart.ToggleCart()})
		return
	}

	id := pathID(r.URL.Path, "/api/cart/items/")
	if id == "" {
		notFound(w)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.setQuantity(w, r, cart, id)
	case http.MethodDelete:
		if _, err := cart.RemoveFromCart(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		h.respond(r.Context(), w, cart, nil)
	default:
		methodNotAllowed(w)
	}
}

// view drops lines whose product was removed or deactivated before answering.
// Until the catalog has loaded, lines are reported unavailable but kept.
func (h *CartHandler) view(w http.ResponseWriter, r *http.Request, cart *cartapp.Store) {
	pruned, err := cart.PruneUnavailable(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(r.Context(), w, cart, pruned)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request, cart *cartapp.Store) {
	var in struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if in.ProductID == "" {
		badRequest(w, "productId_required")
		return
	}
	p, ok := h.catalog.Get(in.ProductID)
	if !ok || !p.IsActive {
		notFound(w)
		return
	}
	if _, err := cart.AddToCart(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	h.respond(r.Context(), w, cart, nil)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request, cart *cartapp.Store, id string) {
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if in.Quantity == nil {
		badRequest(w, "quantity_required")
		return
	}
	if _, err := cart.SetQuantity(r.Context(), id, *in.Quantity); err != nil {
		writeError(w, err)
		return
	}
	h.respond(r.Context(), w, cart, nil)
}

func (h *CartHandler) respond(ctx context.Context, w http.ResponseWriter, cart *cartapp.Store, pruned []string) {
	lines, err := cart.Lines(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	totals, err := cart.Total(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	out := cartView{
		Items:        make([]cartItemView, 0, len(lines)),
		ItemCount:    totals.ItemCount,
		Total:        totals.Amount.StringFixed(productdom.PriceScale),
		Unavailable:  totals.Unavailable,
		Pruned:       pruned,
		Open:         cart.IsOpen(),
		CatalogReady: h.catalog.Ready(),
	}
	for _, l := range lines {
		item := cartItemView{ProductID: l.ProductID, Quantity: l.Quantity, Subtotal: "0.00"}
		if p, ok := h.catalog.Get(l.ProductID); ok && p.IsActive {
			v := toProductView(p)
			item.Available = true
			item.Product = &v
			item.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(productdom.PriceScale)
		}
		out.Items = append(out.Items, item)
	}
	writeJSON(w, http.StatusOK, out)
}
