package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// MintIdentity issues a fresh identity for clients that cannot generate and
// persist their own. The signed token is returned and also set as a cookie
// for browser clients.
func (s *Server) MintIdentity(w http.ResponseWriter, r *http.Request) {
	id, token := s.Identity.Mint()

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id":    id,
		"session_token": token,
	})
}

// CreateRoom allocates a new empty room.
func (s *Server) CreateRoom(w http.ResponseWriter, r *http.Request) {
	rm := s.Registry.CreateRoom()
	writeJSON(w, http.StatusCreated, rm.Room())
}

// GetRoom returns a one-off snapshot, masked for the caller's role. Used to
// render the page before the WebSocket session is established.
func (s *Server) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rm, ok := s.Registry.GetRoom(id)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot(s.sessionIdentity(r)))
}

// RoomQR renders a QR code PNG pointing at the room's join link.
func (s *Server) RoomQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.Registry.GetRoom(id); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	base := s.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, r.Host)
	}

	png, err := qrcode.Encode(fmt.Sprintf("%s/room/%s", base, id), qrcode.Medium, 256)
	if err != nil {
		s.Logger.Errorf("qr encode for room %s: %v", id, err)
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

type joinRoomReq struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// JoinRoom creates the caller's player in a room, or updates it when the
// same identity joins again.
func (s *Server) JoinRoom(w http.ResponseWriter, r *http.Request) {
	identity := s.sessionIdentity(r)
	if identity == "" {
		http.Error(w, "X-Session-ID header required", http.StatusBadRequest)
		return
	}

	var req joinRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RoomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	player, err := s.Registry.JoinRoom(req.RoomID, identity, req.Name)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, player)
}
