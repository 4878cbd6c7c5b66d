package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud-kitchen/notify"

	"github.com/sirupsen/logrus"
)

// heartbeatInterval keeps idle proxies from closing the stream.
const heartbeatInterval = 25 * time.Second

// EventsController streams order change events to the admin panel over SSE
type EventsController struct {
	Hub *notify.Hub
	Log *logrus.Entry
}

func NewEventsController(hub *notify.Hub, log *logrus.Entry) *EventsController {
	return &EventsController{Hub: hub, Log: log}
}

// StreamOrderEvents holds the connection open and writes one SSE message per event.
// Clients refetch the order list on each message and may drop ones with a lower id
// than the last they applied.
func (ec *EventsController) StreamOrderEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	events, unsubscribe := ec.Hub.Subscribe()
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		ec.Log.WithError(err).Warn("Streaming not supported")
		return
	}
	ec.Log.WithField("subscribers", ec.Hub.Subscribers()).Info("Order event stream opened")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			ec.Log.Debug("Order event stream closed")
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				ec.Log.WithError(err).Error("Failed to encode order event")
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Type, data)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
