package room

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/codewords-live/server/internal/game"
	"github.com/codewords-live/server/internal/models"
)

// Registry is the authoritative in-memory store of rooms. It only guards the
// room map; each room serializes its own commands.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger *logrus.Logger

	// onEvent is passed to every room it creates. See Room.onEvent.
	onEvent func(Event)
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger,
	}
}

// SetEventHook installs the journal hook for rooms created afterwards. The
// hook is called with the room lock held and must not block.
func (reg *Registry) SetEventHook(fn func(Event)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onEvent = fn
}

// CreateRoom allocates a new empty room. It always succeeds.
func (reg *Registry) CreateRoom() *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var id string
	for {
		id = newRoomID()
		if _, taken := reg.rooms[id]; !taken {
			break
		}
	}
	r := newRoom(id, reg.logger, reg.onEvent)
	reg.rooms[id] = r
	reg.logger.Infof("room %s created", id)
	return r
}

// GetRoom retrieves a room by id.
func (reg *Registry) GetRoom(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// JoinRoom joins (or rejoins) an identity to a room under a display name.
func (reg *Registry) JoinRoom(roomID, identity, name string) (models.Player, error) {
	r, ok := reg.GetRoom(roomID)
	if !ok {
		return models.Player{}, fmt.Errorf("%w: no such room %s", game.ErrNotFound, roomID)
	}
	return r.Join(identity, name)
}

// SetTeam mutates the calling player's team in a room.
func (reg *Registry) SetTeam(roomID, identity string, team models.Team) error {
	r, ok := reg.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("%w: no such room %s", game.ErrNotFound, roomID)
	}
	return r.SetTeam(identity, team)
}

// SetRole mutates the calling player's role in a room.
func (reg *Registry) SetRole(roomID, identity string, role models.Role) error {
	r, ok := reg.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("%w: no such room %s", game.ErrNotFound, roomID)
	}
	return r.SetRole(identity, role)
}

// Disconnect marks a room's player offline without removing them.
func (reg *Registry) Disconnect(roomID, identity string) error {
	r, ok := reg.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("%w: no such room %s", game.ErrNotFound, roomID)
	}
	return r.Disconnect(identity)
}

// newRoomID returns a short random identifier that fits in a join link.
func newRoomID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
