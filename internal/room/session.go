package room

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// sendBuffer is the per-session outbound queue depth. A session that falls
// further behind than this simply drops snapshots; it catches up from the
// next one (or from the fresh snapshot it gets on reconnect).
const sendBuffer = 64

// Session is one live transport attachment of an identity to a room. The room
// writes marshaled messages into out; the WebSocket handler's write pump
// drains it. Sends never block room processing.
type Session struct {
	Identity string

	out    chan []byte
	once   sync.Once
	logger *logrus.Logger
}

// NewSession builds a session for an identity. It is inert until attached to
// a room.
func NewSession(identity string, logger *logrus.Logger) *Session {
	return &Session{
		Identity: identity,
		out:      make(chan []byte, sendBuffer),
		logger:   logger,
	}
}

// Out exposes the outbound queue for the write pump. The channel is closed
// when the session is detached from its room.
func (s *Session) Out() <-chan []byte {
	return s.out
}

// send enqueues a pre-marshaled message without blocking. Dropped messages
// are logged; delivery is best-effort.
func (s *Session) send(data []byte) {
	select {
	case s.out <- data:
	default:
		s.logger.Warnf("session %s: outbound buffer full, dropping message", s.Identity)
	}
}

// Send marshals and enqueues a message for this session only.
func (s *Session) Send(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorf("session %s: marshal outbound: %v", s.Identity, err)
		return
	}
	s.send(data)
}

// SendError delivers a typed rejection to this session only.
func (s *Session) SendError(code, message string) {
	s.Send(Outbound{Type: MsgError, Code: code, Error: message})
}

// close shuts the outbound queue exactly once, stopping the write pump.
func (s *Session) close() {
	s.once.Do(func() { close(s.out) })
}
