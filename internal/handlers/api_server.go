package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/codewords-live/server/internal/game"
	"github.com/codewords-live/server/internal/identity"
	"github.com/codewords-live/server/internal/middleware"
	"github.com/codewords-live/server/internal/room"
)

// Server holds the authority's HTTP and WebSocket surface.
type Server struct {
	Registry *room.Registry
	Identity *identity.Provider
	Logger   *logrus.Logger

	// PublicURL is the externally reachable base URL, used in QR join links.
	// Empty means derive it from the request.
	PublicURL string
}

// NewServer wires the handler surface over a registry and identity provider.
func NewServer(reg *room.Registry, idp *identity.Provider, logger *logrus.Logger, publicURL string) *Server {
	return &Server{
		Registry:  reg,
		Identity:  idp,
		Logger:    logger,
		PublicURL: publicURL,
	}
}

// Router builds the chi router: the /api surface used before a session is
// established, and the /ws endpoint carrying the session itself.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/identity", s.MintIdentity)
		r.Post("/rooms", s.CreateRoom)
		r.Get("/rooms/{id}", s.GetRoom)
		r.Get("/rooms/{id}/qr", s.RoomQR)
		r.Post("/players", s.JoinRoom)
	})

	r.Get("/ws/{roomID}", s.RoomWS)

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing left to do.
		_ = err
	}
}

// httpStatus maps the rejection taxonomy onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, game.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sessionIdentity resolves the caller's identity from the X-Session-ID
// header or the session_token cookie. Empty when neither is present.
func (s *Server) sessionIdentity(r *http.Request) string {
	token := r.Header.Get("X-Session-ID")
	if token == "" {
		if c, err := r.Cookie("session_token"); err == nil {
			token = c.Value
		}
	}
	return s.Identity.Resolve(token)
}
