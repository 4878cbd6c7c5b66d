package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud-kitchen/controllers"
	"cloud-kitchen/guest"
	"cloud-kitchen/memstore"
	"cloud-kitchen/middleware"
	"cloud-kitchen/models"
	"cloud-kitchen/notify"
	"cloud-kitchen/routes"
	"cloud-kitchen/services"
	"cloud-kitchen/utils"
	"cloud-kitchen/webhook"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminEmail = "chef@kitchen.test"

type cartBody struct {
	Items []models.CartLine `json:"items"`
	Total models.Money      `json:"total"`
}

type api struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T, assistantURL string) *api {
	t.Helper()
	utils.JwtKey = []byte("test-secret")

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	ctx := context.Background()
	store := memstore.New()
	guests, err := guest.Open(ctx, "sqlite3", ":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { guests.Close() })

	emails := utils.NewEmailService(nil, "http://localhost", log)
	hub := notify.NewHub(log)
	carts := services.NewCartService(store, store, guests, log)
	sessions := services.NewSessionService(guests, time.Hour, log)
	ctrls := routes.Controllers{
		Users:  controllers.NewUserController(services.NewUserService(store, emails, func(e string) bool { return e == adminEmail }, log), log),
		Foods:  controllers.NewFoodController(services.NewCatalogService(store, store, log), log),
		Carts:  controllers.NewCartController(carts, log),
		Orders: controllers.NewOrderController(services.NewCheckoutService(store, carts, store, hub, emails, log), services.NewOrderService(store, store, hub, emails, log), log),
		Events: controllers.NewEventsController(hub, log),
		Guests: controllers.NewGuestController(sessions, log),
		Assistant: controllers.NewAssistantController(
			webhook.NewAssistantClient(assistantURL, 5*time.Second, log),
			webhook.NewInvoiceClient("", 5*time.Second, log),
			log,
		),
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))
	routes.RegisterRoutes(router, ctrls, middleware.GuestSession(sessions, log))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &api{t: t, server: srv}
}

// do sends a JSON request; headers are given as key, value pairs.
func (a *api) do(method, path string, body interface{}, headers ...string) *http.Response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *api) decode(resp *http.Response, v interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(v))
}

func (a *api) signUp(email string) string {
	a.t.Helper()
	resp := a.do("POST", "/register", map[string]string{"name": "Test", "email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	resp = a.do("POST", "/login", map[string]string{"email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	a.decode(resp, &out)
	require.NotEmpty(a.t, out.Token)
	return "Bearer " + out.Token
}

func (a *api) startGuest() string {
	a.t.Helper()
	resp := a.do("POST", "/guest/sessions", nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	var sess models.GuestSession
	a.decode(resp, &sess)
	require.NotEmpty(a.t, sess.ID)
	return sess.ID
}

func TestStorefrontFlow(t *testing.T) {
	a := newAPI(t, "")
	admin := a.signUp(adminEmail)
	customer := a.signUp("ayesha@example.com")

	// catalog setup
	resp := a.do("POST", "/admin/categories", map[string]interface{}{"name": "Rice", "display_order": 1}, "Authorization", admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cat models.Category
	a.decode(resp, &cat)

	resp = a.do("POST", "/admin/foods", map[string]interface{}{
		"name": "Kacchi Biryani", "price": 120.50, "category_id": cat.ID.Hex(),
	}, "Authorization", admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var biryani models.FoodItem
	a.decode(resp, &biryani)

	resp = a.do("POST", "/admin/foods", map[string]interface{}{"name": "Borhani", "price": 75}, "Authorization", customer)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do("GET", "/menu?category="+cat.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var menu []models.FoodItem
	a.decode(resp, &menu)
	require.Len(t, menu, 1)
	assert.Equal(t, "Rice", menu[0].CategoryName)

	// guest builds a cart
	guestID := a.startGuest()
	for i := 0; i < 2; i++ {
		resp = a.do("POST", "/cart/items", map[string]string{"food_item_id": biryani.ID.Hex()}, middleware.GuestHeader, guestID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	var cart cartBody
	a.decode(resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "241.00", cart.Total.String())

	resp = a.do("POST", "/checkout", map[string]string{"delivery_address": "Road 5", "phone": "017"}, middleware.GuestHeader, guestID)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "guests must sign in to check out")

	// sign in and merge
	resp = a.do("POST", "/cart/merge", nil, "Authorization", customer, middleware.GuestHeader, guestID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = cartBody{}
	a.decode(resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	resp = a.do("POST", "/checkout", map[string]string{}, "Authorization", customer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no delivery details on file")

	resp = a.do("POST", "/checkout", map[string]string{"delivery_address": "Road 5, Dhanmondi", "phone": "01700000000"}, "Authorization", customer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order services.OrderView
	a.decode(resp, &order)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "241.00", order.TotalAmount.String())
	assert.Equal(t, "bg-yellow-500", order.StatusColor)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "120.50", order.Items[0].Price.String())

	resp = a.do("GET", "/cart", nil, "Authorization", customer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart = cartBody{}
	a.decode(resp, &cart)
	assert.Empty(t, cart.Items)

	resp = a.do("POST", "/checkout", map[string]string{"delivery_address": "Road 5", "phone": "017"}, "Authorization", customer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty cart")

	// admin moves the order along
	resp = a.do("GET", "/admin/orders?status=pending", nil, "Authorization", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []services.OrderView
	a.decode(resp, &pending)
	require.Len(t, pending, 1)

	statusPath := "/admin/orders/" + order.ID.Hex() + "/status"
	resp = a.do("PATCH", statusPath, map[string]string{"status": "confirmed"}, "Authorization", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do("PATCH", statusPath, map[string]string{"status": "pending"}, "Authorization", admin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = a.do("PATCH", statusPath, map[string]string{"status": "teleported"}, "Authorization", admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.do("GET", "/orders", nil, "Authorization", customer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []services.OrderView
	a.decode(resp, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusConfirmed, mine[0].Status)
}

func TestCartRequiresSession(t *testing.T) {
	a := newAPI(t, "")

	resp := a.do("GET", "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do("GET", "/cart", nil, middleware.GuestHeader, "0b7a3f2e-8d0c-4c51-9a39-3a4d2f1b9e77")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "unknown session")

	resp = a.do("GET", "/cart", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGuestSessionEnd(t *testing.T) {
	a := newAPI(t, "")
	id := a.startGuest()

	resp := a.do("DELETE", "/guest/session", nil, middleware.GuestHeader, id)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.do("GET", "/cart", nil, middleware.GuestHeader, id)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAssistantUsesGuestChatID(t *testing.T) {
	var got struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"We open at 11am."}`))
	}))
	defer hook.Close()

	a := newAPI(t, hook.URL)
	id := a.startGuest()

	resp := a.do("POST", "/assistant/messages", map[string]string{"message": "When do you open?"}, middleware.GuestHeader, id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reply struct {
		Reply     string `json:"reply"`
		SessionID string `json:"session_id"`
	}
	a.decode(resp, &reply)
	assert.Equal(t, "We open at 11am.", reply.Reply)
	assert.Equal(t, "guest_"+id, reply.SessionID)
	assert.Equal(t, "guest_"+id, got.SessionID)
	assert.Equal(t, "When do you open?", got.Message)
}

func TestAssistantNotConfigured(t *testing.T) {
	a := newAPI(t, "")
	id := a.startGuest()

	resp := a.do("POST", "/assistant/messages", map[string]string{"message": "hi"}, middleware.GuestHeader, id)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	a := newAPI(t, "")
	resp := a.do("GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
