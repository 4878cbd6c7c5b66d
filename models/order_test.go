package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("Completed")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, st)

	st, err = ParseOrderStatus(" cancelled ")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, st)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusReady, StatusCancelled, true},
		{StatusPreparing, StatusConfirmed, false},
		{StatusPending, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusDelivered, false},
		{StatusDelivered, StatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusColor(t *testing.T) {
	assert.Equal(t, "bg-yellow-500", StatusPending.Color())
	assert.Equal(t, "bg-red-500", StatusCancelled.Color())
	assert.Equal(t, "bg-gray-500", OrderStatus("unknown").Color())
}

func TestOrderItemsTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 2, Price: MustMoney("120.50")},
		{Quantity: 1, Price: MustMoney("75")},
	}}
	assert.Equal(t, "316.00", o.ItemsTotal().String())
}
