// internal/adapters/in/http/router.go
package httpin

import (
	"context"
	"net/http"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http/handlers"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http/middleware"
	adminapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/admin"
	cartapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/cart"
	catalogapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/catalog"
	contactapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/contact"
	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// RouterDeps collects the application services injected from main.go.
type RouterDeps struct {
	Catalog  *catalogapp.Store
	Carts    *cartapp.Stores
	Mutator  *adminapp.Mutator
	Sessions *sessionapp.Registry
	Auth     sessionapp.Authenticator
	Contact  *contactapp.Usecase

	CORSOrigin    string
	SecureCookies bool
}

// NewRouter sets up HTTP routing. Routes whose dependencies are missing are
// answered with 404 and logged at startup.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var catalogH, cartH, contactH, sessionH, adminH http.Handler

	if deps.Catalog != nil {
		catalogH = handlers.NewCatalogHandler(deps.Catalog)
		if deps.Carts != nil {
			cartH = handlers.NewCartHandler(deps.Carts, deps.Catalog)
		}
	}
	if deps.Contact != nil {
		contactH = handlers.NewContactHandler(deps.Contact)
	}
	if deps.Sessions != nil && deps.Auth != nil {
		sessionH = handlers.NewSessionHandler(deps.Sessions, deps.Auth)
	}
	if deps.Sessions != nil && deps.Mutator != nil && deps.Catalog != nil {
		adminH = middleware.RequireAdmin(sessionCheck(deps.Sessions))(
			handlers.NewAdminProductHandler(deps.Mutator, deps.Catalog),
		)
	}

	handleSafe(mux, "/api/catalog", catalogH, "catalog")
	handleSafe(mux, "/api/catalog/", catalogH, "catalog")
	handleSafe(mux, "/api/cart", cartH, "cart")
	handleSafe(mux, "/api/cart/", cartH, "cart")
	handleSafe(mux, "/api/contact", contactH, "contact")
	handleSafe(mux, "/api/admin/login", sessionH, "session")
	handleSafe(mux, "/api/admin/logout", sessionH, "session")
	handleSafe(mux, "/api/admin/session", sessionH, "session")
	handleSafe(mux, "/api/admin/products", adminH, "admin_products")
	handleSafe(mux, "/api/admin/products/", adminH, "admin_products")

	var h http.Handler = mux
	h = middleware.ClientScope(deps.SecureCookies)(h)
	h = middleware.Logging(h)
	h = middleware.Recover(h)
	h = middleware.CORS(deps.CORSOrigin)(h)
	return h
}

func sessionCheck(reg *sessionapp.Registry) middleware.SessionCheck {
	return func(ctx context.Context, scope string) (bool, error) {
		ok, _, err := reg.IsValid(ctx, scope)
		return ok, err
	}
}

// handleSafe mounts h, or a 404 handler when h was not wired.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		logx.Warn().Str("route", pattern).Str("handler", name).Msg("[router] handler not wired; serving 404")
		mux.Handle(pattern, http.NotFoundHandler())
		return
	}
	mux.Handle(pattern, h)
}
