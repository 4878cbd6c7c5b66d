// Package notify fans order change events out to admin subscribers.
package notify

import (
	"sync"
	"time"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
)

type EventType string

const (
	OrderCreated EventType = "order.created"
	OrderUpdated EventType = "order.updated"
	OrderDeleted EventType = "order.deleted"
)

// Event tells subscribers that an order changed and they should refetch.
// Seq increases by one per published event.
type Event struct {
	Seq     uint64             `json:"seq"`
	Type    EventType          `json:"type"`
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status,omitempty"`
	At      time.Time          `json:"at"`
}

// Hub is an in-process pub/sub for order events. Each subscriber holds at most
// one pending event; a newer event replaces an unread one.
type Hub struct {
	mu   sync.Mutex
	seq  uint64
	next int
	subs map[int]chan Event
	log  *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{subs: make(map[int]chan Event), log: log}
}

// Publish stamps the event and delivers it without blocking.
func (h *Hub) Publish(e Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e.Seq = h.seq
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			// drop the stale event, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
				h.log.WithField("subscriber", id).Warn("Dropped order event")
			}
		}
	}
	h.log.WithFields(logrus.Fields{"seq": e.Seq, "type": e.Type, "order_id": e.OrderID}).Debug("Published order event")
	return e
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan Event, 1)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type discard struct{}

func (discard) Publish(e Event) Event { return e }

// Discard accepts events and delivers them nowhere. Writers use it while the
// change stream watcher reports their changes instead.
var Discard discard
