package controllers_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud-kitchen/controllers"
	"cloud-kitchen/models"
	"cloud-kitchen/notify"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamOrderEvents(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	hub := notify.NewHub(log)
	ec := controllers.NewEventsController(hub, log)
	srv := httptest.NewServer(http.HandlerFunc(ec.StreamOrderEvents))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, ": connected", lines.Text())
	assert.Equal(t, 1, hub.Subscribers())

	hub.Publish(notify.Event{Type: notify.OrderUpdated, OrderID: "abc", Status: models.StatusReady})

	var frame []string
	for lines.Scan() {
		line := lines.Text()
		if line == "" {
			if len(frame) > 0 {
				break
			}
			continue
		}
		frame = append(frame, line)
	}
	require.Len(t, frame, 3)
	assert.Equal(t, "id: 1", frame[0])
	assert.Equal(t, "event: order.updated", frame[1])
	assert.True(t, strings.HasPrefix(frame[2], "data: "))
	assert.Contains(t, frame[2], `"order_id":"abc"`)
	assert.Contains(t, frame[2], `"status":"ready"`)
}
