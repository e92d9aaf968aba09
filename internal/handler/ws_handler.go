package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brightstarts/studyvibe-backend/internal/metrics"
	"github.com/brightstarts/studyvibe-backend/internal/realtime"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

const sessionRecheckInterval = time.Minute

// SessionValidator reports whether a login session is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, userID int, jti string) (*service.SessionState, error)
}

// WSHandler streams a user's realtime events.
type WSHandler struct {
	publisher *realtime.Publisher
	presence  *realtime.Presence
	sessions  SessionValidator
	metrics   *metrics.AppMetrics
	log       zerolog.Logger
	upgrader  websocket.Upgrader
	recheck   time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(publisher *realtime.Publisher, presence *realtime.Presence, sessions SessionValidator, m *metrics.AppMetrics, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		publisher: publisher,
		presence:  presence,
		sessions:  sessions,
		metrics:   m,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
		recheck:   sessionRecheckInterval,
	}
}

// lockedConn serializes writes; gorilla allows one concurrent writer.
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *lockedConn) writeRaw(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return realtime.WriteRaw(l.conn, payload)
}

func (l *lockedConn) writeTyped(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return realtime.WriteTyped(l.conn, v)
}

func (l *lockedConn) writeError(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return realtime.WriteError(l.conn, msg)
}

// Stream godoc
// WS /ws/stream?token=
// Forwards notification and message events published for the caller until
// the token's session ends.
func (h *WSHandler) Stream(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	wsLog := h.log.With().Int("user_id", userID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.publisher.Subscribe(ctx, userID)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe to events channel failed")
		_ = realtime.WriteError(conn, "realtime unavailable")
		return
	}

	if err := h.presence.Connect(ctx, userID); err != nil {
		wsLog.Warn().Err(err).Msg("Presence connect failed")
	}
	defer func() {
		if err := h.presence.Disconnect(context.Background(), userID); err != nil {
			wsLog.Warn().Err(err).Msg("Presence disconnect failed")
		}
	}()

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	wsLog.Info().Msg("Realtime stream connected")

	lc := &lockedConn{conn: conn}
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.forward(ctx, sub.Channel(), lc, claims.UserID, claims.ID, wsLog)
	}()

	h.readLoop(lc, wsLog)
	cancel()
	<-done
	wsLog.Info().Msg("Realtime stream closed")
}

// forward relays published events until ctx ends or the session jti is
// revoked. A failed write or an ended session closes the connection so
// readLoop returns.
func (h *WSHandler) forward(ctx context.Context, ch <-chan *redis.Message, lc *lockedConn, userID int, jti string, log zerolog.Logger) {
	ticker := time.NewTicker(h.recheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := h.sessions.ValidateSession(ctx, userID, jti)
			if errors.Is(err, service.ErrSessionInvalid) {
				log.Info().Msg("Session expired, closing stream")
				h.endSession(lc, jti)
				return
			}
			if err != nil {
				log.Warn().Err(err).Msg("Session recheck failed")
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if rev, isRevocation := realtime.ParseRevocation(msg.Payload); isRevocation {
				if rev.Revokes(jti) {
					log.Info().Msg("Session revoked, closing stream")
					h.endSession(lc, jti)
					return
				}
				continue
			}
			if err := lc.writeRaw([]byte(msg.Payload)); err != nil {
				log.Debug().Err(err).Msg("Event write failed")
				lc.conn.Close()
				return
			}
		}
	}
}

// endSession sends the final revocation frame and a close frame.
func (h *WSHandler) endSession(lc *lockedConn, jti string) {
	_ = lc.writeTyped(realtime.Envelope{Event: realtime.EventSessionRevoked, Data: realtime.SessionRevoked{JTI: jti}})
	_ = lc.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"),
		time.Now().Add(time.Second))
	lc.conn.Close()
}

func (h *WSHandler) readLoop(lc *lockedConn, log zerolog.Logger) {
	for {
		var msg realtime.RequestEnvelope
		if err := realtime.ReadJSON(lc.conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case realtime.ActionPing:
			_ = lc.writeTyped(realtime.Envelope{Event: realtime.EventPong})
		default:
			log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = lc.writeError("unknown action: " + string(msg.Action))
		}
	}
}
