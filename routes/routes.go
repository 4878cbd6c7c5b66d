// routes/routes.go
package routes

import (
	"net/http"

	"cloud-kitchen/controllers"
	"cloud-kitchen/middleware"

	"github.com/gorilla/mux"
)

// Controllers bundles every handler group the router serves.
type Controllers struct {
	Users     *controllers.UserController
	Foods     *controllers.FoodController
	Carts     *controllers.CartController
	Orders    *controllers.OrderController
	Events    *controllers.EventsController
	Guests    *controllers.GuestController
	Assistant *controllers.AssistantController
}

// RegisterRoutes sets up all the routes for the application. guestSession
// resolves the X-Guest-Session header.
func RegisterRoutes(router *mux.Router, c Controllers, guestSession mux.MiddlewareFunc) {
	// signed-in users only
	auth := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(h)
	}
	// signed-in user or guest
	session := func(h http.HandlerFunc) http.Handler {
		return middleware.OptionalAuth(guestSession(h))
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Public routes
	router.HandleFunc("/register", c.Users.Register).Methods("POST")
	router.HandleFunc("/login", c.Users.Login).Methods("POST")
	router.HandleFunc("/verify", c.Users.VerifyEmail).Methods("GET")

	// Protected routes
	router.Handle("/profile", auth(c.Users.GetProfile)).Methods("GET")
	router.Handle("/profile", auth(c.Users.UpdateProfile)).Methods("PUT")

	// Catalog routes
	router.HandleFunc("/menu", c.Foods.GetMenu).Methods("GET")
	router.HandleFunc("/menu/{id}", c.Foods.GetFoodByID).Methods("GET")
	router.HandleFunc("/categories", c.Foods.GetCategories).Methods("GET")

	// Guest session routes
	router.HandleFunc("/guest/sessions", c.Guests.StartSession).Methods("POST")
	router.Handle("/guest/session", guestSession(http.HandlerFunc(c.Guests.EndSession))).Methods("DELETE")

	// Cart Routes
	router.Handle("/cart", session(c.Carts.GetCart)).Methods("GET")
	router.Handle("/cart/items", session(c.Carts.AddToCart)).Methods("POST")
	router.Handle("/cart/items/{id}", session(c.Carts.UpdateQuantity)).Methods("PATCH")
	router.Handle("/cart/items/{id}", session(c.Carts.RemoveFromCart)).Methods("DELETE")
	router.Handle("/cart/merge", session(c.Carts.MergeCart)).Methods("POST")

	// Order Routes
	router.Handle("/checkout", session(c.Orders.CreateOrder)).Methods("POST")
	router.Handle("/orders", auth(c.Orders.GetOrders)).Methods("GET")

	// Assistant
	router.Handle("/assistant/messages", session(c.Assistant.SendMessage)).Methods("POST")

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/foods", c.Foods.CreateFood).Methods("POST")
	admin.HandleFunc("/foods/{id}", c.Foods.UpdateFood).Methods("PUT")
	admin.HandleFunc("/foods/{id}", c.Foods.DeleteFood).Methods("DELETE")
	admin.HandleFunc("/categories", c.Foods.CreateCategory).Methods("POST")
	admin.HandleFunc("/categories/{id}", c.Foods.UpdateCategory).Methods("PUT")
	admin.HandleFunc("/categories/{id}", c.Foods.DeleteCategory).Methods("DELETE")
	admin.HandleFunc("/orders", c.Orders.GetAllOrders).Methods("GET")
	admin.HandleFunc("/orders/events", c.Events.StreamOrderEvents).Methods("GET")
	admin.HandleFunc("/orders/{id}/status", c.Orders.UpdateOrderStatus).Methods("PATCH")
	admin.HandleFunc("/invoices", c.Assistant.UploadInvoice).Methods("POST")
}
