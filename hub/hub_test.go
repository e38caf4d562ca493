package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservation/models"
)

func TestHub_NotifyReachesClients(t *testing.T) {
	h := New()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, models.RoleAdmin)
		close(registered)
	}))
	defer server.Close()
	defer h.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}
	assert.Equal(t, 1, h.Clients())

	table := 5
	require.NoError(t, h.Notify(context.Background(), models.BookingEvent{
		Type:        models.EventBookingConfirmed,
		BookingID:   "b-1",
		TableNumber: &table,
	}))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string              `json:"event"`
		Data  models.BookingEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, models.EventBookingConfirmed, msg.Event)
	assert.Equal(t, "b-1", msg.Data.BookingID)
	require.NotNil(t, msg.Data.TableNumber)
	assert.Equal(t, 5, *msg.Data.TableNumber)
}

func TestHub_UnregisterAndClose(t *testing.T) {
	h := New()
	assert.Equal(t, 0, h.Clients())
	h.Broadcast(Message{Event: "noop"})
	h.Close()
	assert.Equal(t, 0, h.Clients())
}
