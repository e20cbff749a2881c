package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/codewords-live/server/internal/middleware"
	"github.com/codewords-live/server/internal/room"
)

// writeTimeout bounds each individual frame write so one dead peer cannot
// wedge its write pump.
const writeTimeout = 5 * time.Second

// RoomWS upgrades the connection and runs the realtime session for a room.
// The identity comes from the session_id query parameter (or the usual
// header/cookie fallback) and must already have a player in the room.
func (s *Server) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	token := r.URL.Query().Get("session_id")
	identity := s.Identity.Resolve(token)
	if identity == "" {
		identity = s.sessionIdentity(r)
	}
	if identity == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	rm, ok := s.Registry.GetRoom(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if !rm.HasPlayer(identity) {
		http.Error(w, "player not found in this room", http.StatusNotFound)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warnf("websocket accept for room %s: %v", roomID, err)
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	sess := room.NewSession(identity, s.Logger)
	if err := rm.AttachSession(sess); err != nil {
		_ = c.Close(websocket.StatusPolicyViolation, "player not found in this room")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.writePump(ctx, c, sess)

	readErr := s.readLoop(ctx, c, rm, sess)

	rm.DetachSession(sess)
	_ = c.Close(websocket.StatusNormalClosure, "session closed")
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, readErr)
}

// writePump drains the session's outbound queue onto the socket. It exits
// when the queue is closed (session detached) or a write fails.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, sess *room.Session) {
	for {
		select {
		case data, ok := <-sess.Out():
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Logger.Debugf("session %s: write: %v", sess.Identity, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readLoop consumes inbound commands until the peer goes away. Unparseable
// frames get a typed error back; they never kill the session.
func (s *Server) readLoop(ctx context.Context, c *websocket.Conn, rm *room.Room, sess *room.Session) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}

		var msg room.Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.SendError("invalid_argument", "malformed message")
			continue
		}
		rm.HandleCommand(sess, msg)
	}
}
