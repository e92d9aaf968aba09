package realtime

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client frame.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventNotification Event = "notification"
	EventMessage      Event = "message"
	EventPong         Event = "pong"
	EventError        Event = "error"

	// EventSessionRevoked ends streams of a logged-out or banned session.
	// It is consumed by the stream itself and also sent as the last frame.
	EventSessionRevoked Event = "session_revoked"
)

// Envelope is every frame the server sends and every payload published on
// a user's events channel.
type Envelope struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// SessionRevoked is the data of EventSessionRevoked. An empty JTI revokes
// every session of the user.
type SessionRevoked struct {
	JTI string `json:"jti,omitempty"`
}

// Revokes reports whether the revocation ends the session jti.
func (r SessionRevoked) Revokes(jti string) bool {
	return r.JTI == "" || r.JTI == jti
}

// ErrorResponse reports a problem with a client frame.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
