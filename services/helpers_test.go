package services_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cloud-kitchen/memstore"
	"cloud-kitchen/models"
	"cloud-kitchen/notify"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type sentMail struct {
	to      string
	subject string
	order   models.Order
}

// fakeMailer records sends; the services send order mail from goroutines.
type fakeMailer struct {
	mu         sync.Mutex
	enabled    bool
	failVerify bool
	sent       []sentMail
	tokens     map[string]string
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendVerificationEmail(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failVerify {
		return errors.New("mail provider unavailable")
	}
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[to] = token
	m.sent = append(m.sent, sentMail{to: to, subject: "verify"})
	return nil
}

func (m *fakeMailer) SendOrderConfirmationEmail(to string, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: "confirmation", order: *o})
	return nil
}

func (m *fakeMailer) SendOrderStatusEmail(to, name string, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: "status", order: *o})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	store    *memstore.Store
	hub      *notify.Hub
	mailer   *fakeMailer
	catalog  *services.CatalogService
	carts    *services.CartService
	sessions *services.SessionService
	checkout *services.CheckoutService
	orders   *services.OrderService
	users    *services.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	log := quietLog()
	hub := notify.NewHub(log)
	mailer := &fakeMailer{}
	carts := services.NewCartService(store, store, store, log)
	return &fixture{
		store:    store,
		hub:      hub,
		mailer:   mailer,
		catalog:  services.NewCatalogService(store, store, log),
		carts:    carts,
		sessions: services.NewSessionService(store, time.Hour, log),
		checkout: services.NewCheckoutService(store, carts, store, hub, mailer, log),
		orders:   services.NewOrderService(store, store, hub, mailer, log),
		users:    services.NewUserService(store, mailer, func(e string) bool { return e == "chef@kitchen.test" }, log),
	}
}

func (f *fixture) addFood(t *testing.T, name, price string) models.FoodItem {
	t.Helper()
	item := models.FoodItem{
		Name:      name,
		Price:     models.MustMoney(price),
		Available: true,
		Type:      models.FoodTypeCooked,
	}
	require.NoError(t, f.store.CreateFood(context.Background(), &item))
	return item
}

func (f *fixture) addUser(t *testing.T, email string, profile models.Profile) models.User {
	t.Helper()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Test User",
		Email:      email,
		Role:       models.RoleUser,
		IsVerified: true,
		Profile:    profile,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), &u))
	return u
}

func (f *fixture) guest(t *testing.T) string {
	t.Helper()
	sess, err := f.sessions.Start(context.Background())
	require.NoError(t, err)
	return sess.ID
}
