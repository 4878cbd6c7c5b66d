package notify

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cloud-kitchen/models"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestHubDeliversWithSequence(t *testing.T) {
	hub := NewHub(quietLog())
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(Event{Type: OrderCreated, OrderID: "a"})
	first := <-ch
	hub.Publish(Event{Type: OrderUpdated, OrderID: "a"})
	second := <-ch

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.False(t, second.At.IsZero())
}

func TestHubCoalescesSlowSubscriber(t *testing.T) {
	hub := NewHub(quietLog())
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Type: OrderUpdated, OrderID: "a"})
	}

	got := <-ch
	assert.Equal(t, uint64(5), got.Seq, "latest event wins")
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event %+v", e)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(quietLog())
	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	hub.Publish(Event{Type: OrderCreated})
}

func TestToEvent(t *testing.T) {
	id := primitive.NewObjectID()
	ev := changeEvent{OperationType: "update", FullDocument: &models.Order{Status: models.StatusReady}}
	ev.DocumentKey.ID = id

	e := toEvent(ev)
	assert.Equal(t, OrderUpdated, e.Type)
	assert.Equal(t, id.Hex(), e.OrderID)
	assert.Equal(t, models.StatusReady, e.Status)

	ev.OperationType = "insert"
	assert.Equal(t, OrderCreated, toEvent(ev).Type)
}
