// Package memstore keeps every table in process memory. It backs development
// runs without MongoDB and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud-kitchen/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartKey struct {
	user primitive.ObjectID
	food primitive.ObjectID
}

type guestState struct {
	session models.GuestSession
	entries []models.GuestCartEntry
}

// Store implements the food, category, cart, order, user and guest stores.
type Store struct {
	mu sync.Mutex

	foods      map[primitive.ObjectID]models.FoodItem
	categories map[primitive.ObjectID]models.Category
	cart       map[cartKey]*models.CartRow
	cartOrder  []cartKey
	orders     []models.Order
	orderItems map[primitive.ObjectID][]models.OrderItem
	users      map[primitive.ObjectID]models.User
	guests     map[string]*guestState
}

func New() *Store {
	return &Store{
		foods:      make(map[primitive.ObjectID]models.FoodItem),
		categories: make(map[primitive.ObjectID]models.Category),
		cart:       make(map[cartKey]*models.CartRow),
		orderItems: make(map[primitive.ObjectID][]models.OrderItem),
		users:      make(map[primitive.ObjectID]models.User),
		guests:     make(map[string]*guestState),
	}
}

// Foods

func (s *Store) ListFoods(ctx context.Context) ([]models.FoodItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FoodItem, 0, len(s.foods))
	for _, f := range s.foods {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) GetFood(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.foods[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &f, nil
}

func (s *Store) FoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FoodItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FoodItem, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) CreateFood(ctx context.Context, item *models.FoodItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	s.foods[item.ID] = *item
	return nil
}

func (s *Store) UpdateFood(ctx context.Context, item *models.FoodItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.foods[item.ID]; !ok {
		return models.ErrNotFound
	}
	s.foods[item.ID] = *item
	return nil
}

func (s *Store) DeleteFood(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.foods[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.foods, id)
	return nil
}

func (s *Store) ClearFoodCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.foods {
		if f.CategoryID != nil && *f.CategoryID == categoryID {
			f.CategoryID = nil
			s.foods[id] = f
		}
	}
	return nil
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return models.ErrNotFound
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// Cart rows

func (s *Store) CartRows(ctx context.Context, userID primitive.ObjectID) ([]models.CartRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CartRow
	for _, k := range s.cartOrder {
		if k.user == userID {
			out = append(out, *s.cart[k])
		}
	}
	return out, nil
}

func (s *Store) IncrementCartRow(ctx context.Context, userID, foodID primitive.ObjectID, delta int, upsert bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := cartKey{user: userID, food: foodID}
	row, ok := s.cart[k]
	if !ok {
		if !upsert {
			return 0, models.ErrNotFound
		}
		row = &models.CartRow{ID: primitive.NewObjectID(), UserID: userID, FoodItemID: foodID}
		s.cart[k] = row
		s.cartOrder = append(s.cartOrder, k)
	}
	row.Quantity += delta
	return row.Quantity, nil
}

func (s *Store) DeleteCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := cartKey{user: userID, food: foodID}
	if _, ok := s.cart[k]; !ok {
		return models.ErrNotFound
	}
	s.deleteCartKeys(func(c cartKey) bool { return c == k })
	return nil
}

func (s *Store) PruneCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := cartKey{user: userID, food: foodID}
	if row, ok := s.cart[k]; ok && row.Quantity <= 0 {
		s.deleteCartKeys(func(c cartKey) bool { return c == k })
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCartKeys(func(c cartKey) bool { return c.user == userID })
	return nil
}

// deleteCartKeys must be called with mu held.
func (s *Store) deleteCartKeys(match func(cartKey) bool) {
	kept := s.cartOrder[:0]
	for _, k := range s.cartOrder {
		if match(k) {
			delete(s.cart, k)
			continue
		}
		kept = append(kept, k)
	}
	s.cartOrder = kept
}

// Orders

// PlaceOrder stores the order and takes the ordered quantities off the cart
// under one lock.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	items := make([]models.OrderItem, len(order.Items))
	for i, it := range order.Items {
		it.ID = primitive.NewObjectID()
		it.OrderID = order.ID
		items[i] = it
	}
	order.Items = items

	header := *order
	header.Items = nil
	s.orders = append(s.orders, header)
	s.orderItems[order.ID] = append([]models.OrderItem(nil), items...)
	for _, it := range items {
		if row, ok := s.cart[cartKey{user: order.UserID, food: it.FoodItemID}]; ok {
			row.Quantity -= it.Quantity
		}
	}
	s.deleteCartKeys(func(c cartKey) bool { return c.user == order.UserID && s.cart[c].Quantity <= 0 })
	return nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.listOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) Orders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.listOrders(func(o models.Order) bool { return status == "" || o.Status == status }), nil
}

// listOrders returns matches newest first with items attached.
func (s *Store) listOrders(match func(models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		if !match(o) {
			continue
		}
		o.Items = append([]models.OrderItem(nil), s.orderItems[o.ID]...)
		out = append(out, o)
	}
	return out
}

func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			o.Items = append([]models.OrderItem(nil), s.orderItems[o.ID]...)
			return &o, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID != id {
			continue
		}
		if s.orders[i].Status != from {
			return models.ErrStatusConflict
		}
		s.orders[i].Status = to
		s.orders[i].UpdatedAt = time.Now().UTC()
		return nil
	}
	return models.ErrNotFound
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *Store) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return token != "" && u.VerificationToken == token })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.updateUser(id, func(u *models.User) {
		u.IsVerified = true
		u.VerificationToken = ""
	})
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) error {
	return s.updateUser(id, func(u *models.User) { u.Profile = p })
}

func (s *Store) updateUser(id primitive.ObjectID, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}

// Guest sessions

func (s *Store) CreateSession(ctx context.Context, sess models.GuestSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guests[sess.ID]; ok {
		return models.ErrDuplicate
	}
	s.guests[sess.ID] = &guestState{session: sess}
	return nil
}

func (s *Store) Session(ctx context.Context, id string, now time.Time) (*models.GuestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[id]
	if !ok || g.session.Expired(now) {
		return nil, models.ErrNotFound
	}
	sess := g.session
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guests[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.guests, id)
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, g := range s.guests {
		if g.session.Expired(now) {
			delete(s.guests, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Entries(ctx context.Context, sessionID string) ([]models.GuestCartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]models.GuestCartEntry(nil), g.entries...), nil
}

func (s *Store) SaveEntries(ctx context.Context, sessionID string, entries []models.GuestCartEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[sessionID]
	if !ok {
		return models.ErrNotFound
	}
	g.entries = append([]models.GuestCartEntry(nil), entries...)
	return nil
}
