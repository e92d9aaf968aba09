package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpgraderOrigins(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/stream", nil)
	req.Header.Set("Origin", "https://app.studyvibe.vn")

	assert.True(t, buildUpgrader(nil).CheckOrigin(req), "empty list allows all")
	assert.True(t, buildUpgrader([]string{"HTTPS://APP.STUDYVIBE.VN"}).CheckOrigin(req))
	assert.False(t, buildUpgrader([]string{"http://localhost:5173"}).CheckOrigin(req))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 5s", formatDuration(5e9))
	assert.Equal(t, "1h 1m 1s", formatDuration(3661e9))
	assert.Equal(t, "2d 0h 0m 0s", formatDuration(48*3600e9))
}

type fakeSessions struct {
	mu  sync.Mutex
	err error
}

func (f *fakeSessions) ValidateSession(context.Context, int, string) (*service.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &service.SessionState{}, nil
}

// startForward serves one WebSocket whose events come from ch and returns
// the client side of it.
func startForward(t *testing.T, h *WSHandler, ch <-chan *redis.Message) *websocket.Conn {
	t.Helper()
	upgrader := buildUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		h.forward(r.Context(), ch, &lockedConn{conn: conn}, 5, "jti-1", zerolog.Nop())
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	return client
}

func publish(t *testing.T, ch chan<- *redis.Message, event realtime.Event, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(realtime.Envelope{Event: event, Data: data})
	require.NoError(t, err)
	ch <- &redis.Message{Payload: string(payload)}
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Event {
	t.Helper()
	var env struct {
		Event realtime.Event `json:"event"`
	}
	require.NoError(t, conn.ReadJSON(&env))
	return env.Event
}

func TestForwardClosesOnRevocation(t *testing.T) {
	ch := make(chan *redis.Message, 8)
	h := &WSHandler{sessions: &fakeSessions{}, recheck: time.Hour}
	client := startForward(t, h, ch)

	publish(t, ch, realtime.EventNotification, map[string]int{"id": 1})
	assert.Equal(t, realtime.EventNotification, readEvent(t, client))

	// Another device logging out leaves this stream open.
	publish(t, ch, realtime.EventSessionRevoked, realtime.SessionRevoked{JTI: "jti-2"})
	publish(t, ch, realtime.EventMessage, map[string]int{"id": 2})
	assert.Equal(t, realtime.EventMessage, readEvent(t, client))

	publish(t, ch, realtime.EventSessionRevoked, realtime.SessionRevoked{JTI: "jti-1"})
	assert.Equal(t, realtime.EventSessionRevoked, readEvent(t, client))

	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestForwardClosesOnRevokeAll(t *testing.T) {
	ch := make(chan *redis.Message, 8)
	h := &WSHandler{sessions: &fakeSessions{}, recheck: time.Hour}
	client := startForward(t, h, ch)

	publish(t, ch, realtime.EventSessionRevoked, realtime.SessionRevoked{})
	assert.Equal(t, realtime.EventSessionRevoked, readEvent(t, client))

	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestForwardClosesWhenSessionExpires(t *testing.T) {
	ch := make(chan *redis.Message, 8)
	sessions := &fakeSessions{}
	h := &WSHandler{sessions: sessions, recheck: 20 * time.Millisecond}
	client := startForward(t, h, ch)

	publish(t, ch, realtime.EventNotification, map[string]int{"id": 1})
	assert.Equal(t, realtime.EventNotification, readEvent(t, client))

	sessions.mu.Lock()
	sessions.err = service.ErrSessionInvalid
	sessions.mu.Unlock()

	assert.Equal(t, realtime.EventSessionRevoked, readEvent(t, client))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}
