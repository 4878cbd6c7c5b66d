package services

import (
	"context"
	"errors"
	"fmt"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is a food item to quantity association. Line ids are food item ids.
type Cart interface {
	Add(ctx context.Context, foodItemID string) error
	SetQuantity(ctx context.Context, foodItemID string, delta int) error
	Remove(ctx context.Context, foodItemID string) error
	List(ctx context.Context) ([]models.CartLine, error)
	Clear(ctx context.Context) error
}

// Session identifies who a request acts for. A signed-in user wins over a guest.
type Session struct {
	UserID  primitive.ObjectID
	GuestID string
}

func (s Session) SignedIn() bool { return !s.UserID.IsZero() }

// ChatID is the assistant conversation id for the session.
func (s Session) ChatID() string {
	if s.SignedIn() {
		return "user_" + s.UserID.Hex()
	}
	if s.GuestID != "" {
		return "guest_" + s.GuestID
	}
	return ""
}

// CartService picks the cart backend for a session.
type CartService struct {
	foods  FoodStore
	rows   CartStore
	guests GuestStore
	log    *logrus.Entry
}

func NewCartService(foods FoodStore, rows CartStore, guests GuestStore, log *logrus.Entry) *CartService {
	return &CartService{foods: foods, rows: rows, guests: guests, log: log}
}

// For returns the remote cart for signed-in users and the guest cart otherwise.
func (s *CartService) For(sess Session) (Cart, error) {
	switch {
	case sess.SignedIn():
		return &remoteCart{svc: s, userID: sess.UserID}, nil
	case sess.GuestID != "":
		return &guestCart{svc: s, sessionID: sess.GuestID}, nil
	default:
		return nil, ErrNoSession
	}
}

// Merge adds every orderable guest entry to the user's rows and empties the
// guest cart. Deleted or unavailable foods are dropped. It only runs when a
// client asks for it.
func (s *CartService) Merge(ctx context.Context, guestID string, userID primitive.ObjectID) (int, error) {
	entries, err := s.guests.Entries(ctx, guestID)
	if err != nil {
		return 0, fmt.Errorf("load guest cart: %w", err)
	}
	merged := 0
	for _, e := range entries {
		oid, err := primitive.ObjectIDFromHex(e.FoodItemID)
		if err != nil || e.Quantity <= 0 {
			continue
		}
		if err := s.orderable(ctx, oid); errors.Is(err, models.ErrNotFound) || errors.Is(err, ErrUnavailable) {
			continue
		} else if err != nil {
			return merged, fmt.Errorf("check merged item: %w", err)
		}
		if _, err := s.rows.IncrementCartRow(ctx, userID, oid, e.Quantity, true); err != nil {
			return merged, fmt.Errorf("merge cart row: %w", err)
		}
		merged++
	}
	if err := s.guests.SaveEntries(ctx, guestID, nil); err != nil {
		return merged, fmt.Errorf("clear guest cart: %w", err)
	}
	s.log.WithFields(logrus.Fields{"guest_session": guestID, "user_id": userID.Hex(), "merged": merged}).Info("Guest cart merged")
	return merged, nil
}

// orderable loads a food item and rejects missing or unavailable ones.
func (s *CartService) orderable(ctx context.Context, id primitive.ObjectID) error {
	item, err := s.foods.GetFood(ctx, id)
	if err != nil {
		return err
	}
	if !item.Available {
		return ErrUnavailable
	}
	return nil
}

// join resolves food snapshots for the given entries, skipping deleted items.
func (s *CartService) join(ctx context.Context, entries []models.GuestCartEntry) ([]models.CartLine, error) {
	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		if oid, err := primitive.ObjectIDFromHex(e.FoodItemID); err == nil {
			ids = append(ids, oid)
		}
	}
	lines := make([]models.CartLine, 0, len(entries))
	if len(ids) == 0 {
		return lines, nil
	}
	foods, err := s.foods.FoodsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart foods: %w", err)
	}
	byID := make(map[string]models.FoodItem, len(foods))
	for _, f := range foods {
		byID[f.ID.Hex()] = f
	}
	for _, e := range entries {
		f, ok := byID[e.FoodItemID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{ID: e.FoodItemID, Quantity: e.Quantity, Food: f.Snapshot()})
	}
	return lines, nil
}

type remoteCart struct {
	svc    *CartService
	userID primitive.ObjectID
}

func (c *remoteCart) Add(ctx context.Context, foodItemID string) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	if err := c.svc.orderable(ctx, oid); err != nil {
		return err
	}
	qty, err := c.svc.rows.IncrementCartRow(ctx, c.userID, oid, 1, true)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	c.svc.log.WithFields(logrus.Fields{"user_id": c.userID.Hex(), "food_id": foodItemID, "quantity": qty}).Debug("Cart item added")
	return nil
}

func (c *remoteCart) SetQuantity(ctx context.Context, foodItemID string, delta int) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	qty, err := c.svc.rows.IncrementCartRow(ctx, c.userID, oid, delta, false)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	if qty <= 0 {
		return c.svc.rows.PruneCartRow(ctx, c.userID, oid)
	}
	return nil
}

func (c *remoteCart) Remove(ctx context.Context, foodItemID string) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	err = c.svc.rows.DeleteCartRow(ctx, c.userID, oid)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

func (c *remoteCart) List(ctx context.Context) ([]models.CartLine, error) {
	rows, err := c.svc.rows.CartRows(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("load cart rows: %w", err)
	}
	entries := make([]models.GuestCartEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.GuestCartEntry{FoodItemID: r.FoodItemID.Hex(), Quantity: r.Quantity})
	}
	return c.svc.join(ctx, entries)
}

func (c *remoteCart) Clear(ctx context.Context) error {
	return c.svc.rows.ClearCart(ctx, c.userID)
}

// guestCart rewrites the whole entry sequence on every change. Entries are
// keyed by the lowercase hex id, matching the remote cart.
type guestCart struct {
	svc       *CartService
	sessionID string
}

func (c *guestCart) Add(ctx context.Context, foodItemID string) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	if err := c.svc.orderable(ctx, oid); err != nil {
		return err
	}
	foodItemID = oid.Hex()
	entries, err := c.svc.guests.Entries(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load guest cart: %w", err)
	}
	found := false
	for i := range entries {
		if entries[i].FoodItemID == foodItemID {
			entries[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, models.GuestCartEntry{FoodItemID: foodItemID, Quantity: 1})
	}
	return c.svc.guests.SaveEntries(ctx, c.sessionID, entries)
}

func (c *guestCart) SetQuantity(ctx context.Context, foodItemID string, delta int) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	foodItemID = oid.Hex()
	entries, err := c.svc.guests.Entries(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load guest cart: %w", err)
	}
	out := entries[:0]
	changed := false
	for _, e := range entries {
		if e.FoodItemID == foodItemID {
			changed = true
			e.Quantity += delta
			if e.Quantity <= 0 {
				continue
			}
		}
		out = append(out, e)
	}
	if !changed {
		return nil
	}
	return c.svc.guests.SaveEntries(ctx, c.sessionID, out)
}

func (c *guestCart) Remove(ctx context.Context, foodItemID string) error {
	oid, err := parseID(foodItemID)
	if err != nil {
		return err
	}
	foodItemID = oid.Hex()
	entries, err := c.svc.guests.Entries(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("load guest cart: %w", err)
	}
	out := entries[:0]
	for _, e := range entries {
		if e.FoodItemID != foodItemID {
			out = append(out, e)
		}
	}
	if len(out) == len(entries) {
		return nil
	}
	return c.svc.guests.SaveEntries(ctx, c.sessionID, out)
}

func (c *guestCart) List(ctx context.Context) ([]models.CartLine, error) {
	entries, err := c.svc.guests.Entries(ctx, c.sessionID)
	if err != nil {
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	return c.svc.join(ctx, entries)
}

func (c *guestCart) Clear(ctx context.Context) error {
	return c.svc.guests.SaveEntries(ctx, c.sessionID, nil)
}
