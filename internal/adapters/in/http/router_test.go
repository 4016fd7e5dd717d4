package httpin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/auth"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/kvcatalog"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/secret"
	adminapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/admin"
	cartapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/cart"
	catalogapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/catalog"
	contactapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/contact"
	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

const adminPassword = "open sesame"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memContacts struct {
	mu   sync.Mutex
	msgs []contactdom.Message
}

func (m *memContacts) Save(_ context.Context, msg contactdom.Message) (contactdom.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = "msg-" + string(rune('a'+len(m.msgs)))
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

type app struct {
	srv   *httptest.Server
	clock *fakeClock
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()

	store := kv.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	catalog := catalogapp.NewStore(kvcatalog.NewProductRepositoryKV(store))
	signal := catalogapp.NewSignal()
	t.Cleanup(catalog.Bind(signal))
	catalog.Refresh(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	sessions := sessionapp.NewRegistry(store, sessionapp.WithClock(clock))
	t.Cleanup(sessions.Close)

	h := NewRouter(RouterDeps{
		Catalog:    catalog,
		Carts:      cartapp.NewStores(store, catalog),
		Mutator:    adminapp.NewMutator(kvcatalog.NewProductRepositoryKV(store), signal, nil),
		Sessions:   sessions,
		Auth:       sessionapp.Chain{auth.NewPasswordAuthenticator(secret.StaticPasswordHash(hash))},
		Contact:    contactapp.NewUsecase(&memContacts{}, nil),
		CORSOrigin: "https://shop.example",
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	srv.Client().Jar = jar
	return &app{srv: srv, clock: clock}
}

func (a *app) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	out := map[string]any{}
	b, _ := io.ReadAll(res.Body)
	if len(b) > 0 && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("%s %s: bad json %q", method, path, b)
		}
	}
	return res.StatusCode, out
}

func (a *app) login(t *testing.T) {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/admin/login", `{"password":"`+adminPassword+`"}`)
	if code != http.StatusOK || body["state"] != "logged_in" {
		t.Fatalf("login = %d %v", code, body)
	}
}

func products(body map[string]any) []map[string]any {
	raw, _ := body["products"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]any))
	}
	return out
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	res, err := a.srv.Client().Get(a.srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Fatalf("healthz = %d %q", res.StatusCode, b)
	}
}

func TestStorefrontCartFlow(t *testing.T) {
	a := newApp(t)

	code, body := a.do(t, http.MethodGet, "/api/catalog", "")
	if code != http.StatusOK || len(products(body)) != 4 {
		t.Fatalf("products = %d %v", code, body)
	}
	if p := products(body)[0]; p["price"] != "50.00" {
		t.Fatalf("price = %v, want 50.00", p["price"])
	}

	code, body = a.do(t, http.MethodGet, "/api/catalog?q=YEAR", "")
	if code != http.StatusOK || len(products(body)) != 1 {
		t.Fatalf("search = %d %v", code, body)
	}

	a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	code, body = a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"2"}`)
	if code != http.StatusOK || body["total"] != "220.00" || body["itemCount"] != float64(3) {
		t.Fatalf("cart = %d %v", code, body)
	}

	code, body = a.do(t, http.MethodPut, "/api/cart/items/2", `{"quantity":0}`)
	if code != http.StatusOK || body["total"] != "100.00" {
		t.Fatalf("set quantity = %d %v", code, body)
	}

	code, _ = a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"nope"}`)
	if code != http.StatusNotFound {
		t.Fatalf("unknown product = %d, want 404", code)
	}

	code, body = a.do(t, http.MethodPost, "/api/cart/toggle", "")
	if code != http.StatusOK || body["open"] != true {
		t.Fatalf("toggle = %d %v", code, body)
	}

	code, body = a.do(t, http.MethodDelete, "/api/cart", "")
	if code != http.StatusOK || body["total"] != "0.00" || body["open"] != true {
		t.Fatalf("clear = %d %v", code, body)
	}
}

func TestCartIsPerClient(t *testing.T) {
	a := newApp(t)
	a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)

	// a second browser without the cookie gets its own cart
	other, err := http.Get(a.srv.URL + "/api/cart")
	if err != nil {
		t.Fatal(err)
	}
	defer other.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(other.Body).Decode(&body)
	if body["itemCount"] != float64(0) {
		t.Fatalf("foreign cart = %v", body)
	}
}

func TestAdminRequiresSession(t *testing.T) {
	a := newApp(t)

	code, body := a.do(t, http.MethodGet, "/api/admin/products", "")
	if code != http.StatusUnauthorized || body["error"] != "session_expired" {
		t.Fatalf("anonymous = %d %v", code, body)
	}

	code, body = a.do(t, http.MethodPost, "/api/admin/login", `{"password":"wrong password"}`)
	if code != http.StatusUnauthorized || body["error"] != "invalid_credentials" {
		t.Fatalf("bad login = %d %v", code, body)
	}

	a.login(t)
	code, body = a.do(t, http.MethodGet, "/api/admin/session", "")
	if code != http.StatusOK || body["state"] != "logged_in" || body["expiresAt"] == nil {
		t.Fatalf("session = %d %v", code, body)
	}

	a.clock.Advance(29 * time.Minute)
	if code, _ := a.do(t, http.MethodGet, "/api/admin/products", ""); code != http.StatusOK {
		t.Fatalf("at 29m = %d, want 200", code)
	}

	a.clock.Advance(2 * time.Minute)
	code, body = a.do(t, http.MethodGet, "/api/admin/products", "")
	if code != http.StatusUnauthorized || body["error"] != "session_expired" {
		t.Fatalf("at 31m = %d %v", code, body)
	}
	if _, body := a.do(t, http.MethodGet, "/api/admin/session", ""); body["state"] != "logged_out" {
		t.Fatalf("session after expiry = %v", body)
	}
}

func TestAdminLogout(t *testing.T) {
	a := newApp(t)
	a.login(t)
	if code, _ := a.do(t, http.MethodPost, "/api/admin/logout", ""); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := a.do(t, http.MethodGet, "/api/admin/products", ""); code != http.StatusUnauthorized {
		t.Fatalf("after logout = %d, want 401", code)
	}
}

func TestAdminProductLifecycle(t *testing.T) {
	a := newApp(t)
	a.login(t)

	code, body := a.do(t, http.MethodPost, "/api/admin/products", `{"name":"Test","price":75.5}`)
	if code != http.StatusCreated || body["price"] != "75.50" || body["is_active"] != true {
		t.Fatalf("create = %d %v", code, body)
	}
	id := body["id"].(string)

	// the storefront sees the new product as soon as create returns
	_, body = a.do(t, http.MethodGet, "/api/catalog", "")
	if len(products(body)) != 5 {
		t.Fatalf("storefront after create = %v", body)
	}

	code, body = a.do(t, http.MethodPost, "/api/admin/products", `{"name":"","price":"10"}`)
	if code != http.StatusBadRequest || body["field"] != "name" {
		t.Fatalf("invalid create = %d %v", code, body)
	}

	code, body = a.do(t, http.MethodPut, "/api/admin/products/"+id, `{"name":"Renamed","price":"80"}`)
	if code != http.StatusOK || body["name"] != "Renamed" || body["price"] != "80.00" {
		t.Fatalf("update = %d %v", code, body)
	}
	if code, _ := a.do(t, http.MethodPut, "/api/admin/products/99", `{"name":"X","price":"1"}`); code != http.StatusNotFound {
		t.Fatalf("update missing = %d, want 404", code)
	}

	a.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	code, body = a.do(t, http.MethodPost, "/api/admin/products/1/toggle", "")
	if code != http.StatusOK || body["is_active"] != false {
		t.Fatalf("toggle = %d %v", code, body)
	}
	_, body = a.do(t, http.MethodGet, "/api/cart", "")
	if pruned, _ := body["pruned"].([]any); len(pruned) != 1 || pruned[0] != "1" || body["itemCount"] != float64(0) {
		t.Fatalf("cart after deactivation = %v", body)
	}

	_, body = a.do(t, http.MethodGet, "/api/admin/products", "")
	if len(products(body)) != 5 {
		t.Fatalf("admin list should include inactive products: %v", body)
	}

	if code, _ := a.do(t, http.MethodDelete, "/api/admin/products/"+id, ""); code != http.StatusNoContent {
		t.Fatalf("delete = %d", code)
	}

	code, body = a.do(t, http.MethodDelete, "/api/admin/products", "")
	if code != http.StatusBadRequest || body["error"] != "confirmation_required" {
		t.Fatalf("unconfirmed clear = %d %v", code, body)
	}
	code, body = a.do(t, http.MethodDelete, "/api/admin/products?confirm=yes", "")
	if code != http.StatusOK || body["deleted"] != float64(4) {
		t.Fatalf("clear = %d %v", code, body)
	}
	_, body = a.do(t, http.MethodGet, "/api/catalog", "")
	if len(products(body)) != 0 {
		t.Fatalf("storefront after clear = %v", body)
	}
}

func TestContact(t *testing.T) {
	a := newApp(t)

	code, body := a.do(t, http.MethodPost, "/api/contact", `{"name":"A","email":"bad","subject":"s","message":"m"}`)
	if code != http.StatusBadRequest || body["field"] != "email" {
		t.Fatalf("invalid = %d %v", code, body)
	}
	code, body = a.do(t, http.MethodPost, "/api/contact", `{"name":"A","email":"a@b.c","subject":"s","message":"m"}`)
	if code != http.StatusCreated || body["id"] == "" {
		t.Fatalf("submit = %d %v", code, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	a := newApp(t)
	req, _ := http.NewRequest(http.MethodOptions, a.srv.URL+"/api/cart", nil)
	res, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight = %d", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("allow-origin = %q", got)
	}
	if res.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials not allowed for a concrete origin")
	}
}

func TestUnwiredRoutesAre404(t *testing.T) {
	srv := httptest.NewServer(NewRouter(RouterDeps{}))
	defer srv.Close()
	res, err := http.Get(srv.URL + "/api/catalog")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unwired = %d, want 404", res.StatusCode)
	}
}
