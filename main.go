// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud-kitchen/config"
	"cloud-kitchen/controllers"
	"cloud-kitchen/guest"
	"cloud-kitchen/memstore"
	"cloud-kitchen/middleware"
	"cloud-kitchen/notify"
	"cloud-kitchen/repository"
	"cloud-kitchen/routes"
	"cloud-kitchen/seed"
	"cloud-kitchen/services"
	"cloud-kitchen/utils"
	"cloud-kitchen/webhook"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// backend is everything the services need from the main database.
type backend interface {
	services.FoodStore
	services.CategoryStore
	services.CartStore
	services.OrderStore
	services.UserStore
}

func main() {
	seedFile := flag.String("seed", "", "YAML menu applied when the catalog is empty (overrides MENU_SEED_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	log := utils.Component(logger, "main")
	if !cfg.EnvFileLoaded {
		log.Info("No .env file found. Proceeding with environment variables.")
	}
	if *seedFile != "" {
		cfg.MenuSeedFile = *seedFile
	}

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB, or fall back to memory for local runs
	var store backend
	var mongoStore *repository.MongoStore
	if cfg.MongoURI != "" {
		client, err := utils.ConnectDB(cfg.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("Could not connect to MongoDB")
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Error("Error disconnecting from MongoDB")
			}
		}()
		mongoStore = repository.NewMongoStore(client, cfg.MongoDatabase, utils.Component(logger, "repository"))
		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = mongoStore.EnsureIndexes(idxCtx)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Could not create indexes")
		}
		store = mongoStore
		log.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
	} else {
		log.Warn("MONGO_URI not set, using the in-memory store; data is lost on restart")
		store = memstore.New()
	}

	guests, err := guest.Open(ctx, cfg.GuestStoreDriver, cfg.GuestStoreDSN, utils.Component(logger, "guest_store"))
	if err != nil {
		log.WithError(err).Fatal("Could not open guest store")
	}
	defer guests.Close()

	// Initialize EmailService
	mailer, err := utils.NewMailer(cfg.MailProvider, cfg.PostmarkAPIToken, cfg.SendGridAPIKey, cfg.EmailSender)
	if err != nil {
		log.WithError(err).Fatal("Invalid mail configuration")
	}
	emailService := utils.NewEmailService(mailer, cfg.AppBaseURL, utils.Component(logger, "email"))
	if !emailService.Enabled() {
		log.Warn("MAIL_PROVIDER not set, emails are skipped and new accounts are verified immediately")
	}

	hub := notify.NewHub(utils.Component(logger, "notify"))
	watching := cfg.WatchOrders && mongoStore != nil
	if watching {
		go func() {
			if err := notify.WatchOrders(ctx, mongoStore.OrdersCollection(), hub, utils.Component(logger, "order_watch")); err != nil {
				log.WithError(err).Error("Order change stream stopped")
			}
		}()
	}

	// Services
	catalog := services.NewCatalogService(store, store, utils.Component(logger, "catalog_service"))
	carts := services.NewCartService(store, store, guests, utils.Component(logger, "cart_service"))
	sessions := services.NewSessionService(guests, cfg.GuestSessionTTL, utils.Component(logger, "session_service"))
	events := orderEvents(hub, watching)
	checkout := services.NewCheckoutService(store, carts, store, events, emailService, utils.Component(logger, "checkout_service"))
	orders := services.NewOrderService(store, store, events, emailService, utils.Component(logger, "order_service"))
	users := services.NewUserService(store, emailService, cfg.IsAdminEmail, utils.Component(logger, "user_service"))

	sessions.StartJanitor(ctx, time.Hour)

	if cfg.MenuSeedFile != "" {
		menu, err := seed.LoadFile(cfg.MenuSeedFile)
		if err != nil {
			log.WithError(err).Fatal("Could not load menu seed")
		}
		if _, err := seed.Apply(ctx, catalog, menu, utils.Component(logger, "seed")); err != nil {
			log.WithError(err).Fatal("Could not seed menu")
		}
	}

	// Initialize controllers
	httpLog := utils.Component(logger, "http")
	ctrls := routes.Controllers{
		Users:  controllers.NewUserController(users, httpLog),
		Foods:  controllers.NewFoodController(catalog, httpLog),
		Carts:  controllers.NewCartController(carts, httpLog),
		Orders: controllers.NewOrderController(checkout, orders, httpLog),
		Events: controllers.NewEventsController(hub, httpLog),
		Guests: controllers.NewGuestController(sessions, httpLog),
		Assistant: controllers.NewAssistantController(
			webhook.NewAssistantClient(cfg.AssistantWebhookURL, cfg.WebhookTimeout, utils.Component(logger, "assistant")),
			webhook.NewInvoiceClient(cfg.InvoiceWebhookURL, cfg.WebhookTimeout, utils.Component(logger, "invoices")),
			httpLog,
		),
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(httpLog))
	routes.RegisterRoutes(router, ctrls, middleware.GuestSession(sessions, httpLog))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Authorization", middleware.GuestHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	// Start the server
	log.WithField("port", cfg.Port).Info("Server is running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server failed")
	}
	log.Info("Server stopped")
}

// orderEvents is where the order services publish. With the change stream
// watcher running, every write already reaches the hub through it.
func orderEvents(hub *notify.Hub, watching bool) services.Publisher {
	if watching {
		return notify.Discard
	}
	return hub
}
