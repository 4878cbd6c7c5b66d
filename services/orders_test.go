package services_test

import (
	"context"
	"testing"
	"time"

	"cloud-kitchen/models"
	"cloud-kitchen/notify"
	"cloud-kitchen/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, f *fixture, email string) *models.Order {
	t.Helper()
	ctx := context.Background()
	food := f.addFood(t, "Plate "+email, "100")
	user := f.addUser(t, email, models.Profile{Address: "Road 5", Phone: "017"})
	sess := services.Session{UserID: user.ID}
	cart, err := f.carts.For(sess)
	require.NoError(t, err)
	require.NoError(t, cart.Add(ctx, food.ID.Hex()))
	order, err := f.checkout.PlaceOrder(ctx, sess, services.CheckoutRequest{})
	require.NoError(t, err)
	return order
}

func TestOrderStatusUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := placeOrder(t, f, "status@kitchen.test")

	events, unsubscribe := f.hub.Subscribe()
	defer unsubscribe()

	view, err := f.orders.UpdateStatus(ctx, order.ID.Hex(), "preparing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, view.Status)
	assert.Equal(t, "bg-purple-500", view.StatusColor)

	select {
	case e := <-events:
		assert.Equal(t, notify.OrderUpdated, e.Type)
		assert.Equal(t, models.StatusPreparing, e.Status)
	case <-time.After(time.Second):
		t.Fatal("no order event published")
	}

	// completed is accepted as delivered
	view, err = f.orders.UpdateStatus(ctx, order.ID.Hex(), "completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, view.Status)

	_, err = f.orders.UpdateStatus(ctx, order.ID.Hex(), "cancelled")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	assert.Eventually(t, func() bool { return f.mailer.count() == 3 }, time.Second, 10*time.Millisecond)
}

func TestOrderStatusUpdateRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := placeOrder(t, f, "reject@kitchen.test")

	_, err := f.orders.UpdateStatus(ctx, order.ID.Hex(), "shipped")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.orders.UpdateStatus(ctx, "xyz", "ready")
	assert.ErrorIs(t, err, services.ErrInvalidID)

	_, err = f.orders.UpdateStatus(ctx, order.ID.Hex(), "pending")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = f.orders.UpdateStatus(ctx, order.ID.Hex(), "ready")
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, order.ID.Hex(), "confirmed")
	assert.ErrorIs(t, err, services.ErrInvalidTransition, "no moving backwards")
}

func TestOrderStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := placeOrder(t, f, "cas@kitchen.test")

	require.NoError(t, f.store.UpdateOrderStatus(ctx, order.ID, models.StatusPending, models.StatusConfirmed))
	err := f.store.UpdateOrderStatus(ctx, order.ID, models.StatusPending, models.StatusCancelled)
	assert.ErrorIs(t, err, models.ErrStatusConflict)
}

func TestAllOrdersFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := placeOrder(t, f, "one@kitchen.test")
	second := placeOrder(t, f, "two@kitchen.test")
	_, err := f.orders.UpdateStatus(ctx, first.ID.Hex(), "confirmed")
	require.NoError(t, err)

	all, err := f.orders.AllOrders(ctx, "all")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	pending, err := f.orders.AllOrders(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	_, err = f.orders.AllOrders(ctx, "lost")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestMyOrdersOnlyListsOwnOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := placeOrder(t, f, "mine@kitchen.test")
	placeOrder(t, f, "theirs@kitchen.test")

	orders, err := f.orders.MyOrders(ctx, mine.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)
	assert.Len(t, orders[0].Items, 1)
}
