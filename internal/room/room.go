package room

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codewords-live/server/internal/game"
	"github.com/codewords-live/server/internal/models"
)

// Event is a record of an accepted mutation, handed to the registry's event
// hook for journaling. Seq is the room version after the mutation.
type Event struct {
	RoomID    string                 `json:"room_id"`
	GameID    string                 `json:"game_id,omitempty"`
	Seq       uint64                 `json:"seq"`
	ActorID   string                 `json:"actor_id,omitempty"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Room is the single authority for one room: its players, its sessions, and
// at most one active game. All commands against a room serialize on mu;
// commands against different rooms are independent. Outbound delivery is
// non-blocking, so holding mu across a broadcast cannot stall on a slow
// client.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	players  map[string]*models.Player // keyed by identity token
	sessions map[*Session]struct{}
	game     *models.Game
	cards    []models.Card
	version  uint64

	logger *logrus.Logger

	// onEvent receives a record of each accepted mutation. It is invoked with
	// the room lock held and must not block.
	onEvent func(Event)
}

func newRoom(id string, logger *logrus.Logger, onEvent func(Event)) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		players:   make(map[string]*models.Player),
		sessions:  make(map[*Session]struct{}),
		logger:    logger,
		onEvent:   onEvent,
	}
}

// Room returns the room's identity record.
func (r *Room) Room() models.Room {
	return models.Room{ID: r.ID, CreatedAt: r.CreatedAt}
}

// Join creates the player for (room, identity), or updates name and presence
// if one already exists. Rejoining never duplicates a player.
func (r *Room) Join(identity, name string) (models.Player, error) {
	name, err := validName(name)
	if err != nil {
		return models.Player{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[identity]
	if !ok {
		p = &models.Player{
			ID:        uuid.New().String(),
			RoomID:    r.ID,
			SessionID: identity,
		}
		r.players[identity] = p
	}
	p.Name = name
	p.IsOnline = true

	r.commitUnsafe(p.ID, "player_join", map[string]interface{}{"name": name})
	return *p, nil
}

// SetTeam assigns the calling player's team. Empty team means unassigned.
// Any number of players per team is accepted.
func (r *Room) SetTeam(identity string, team models.Team) error {
	if team != "" && !team.Valid() {
		return fmt.Errorf("%w: unknown team %q", game.ErrInvalidArgument, team)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	p.Team = team
	r.commitUnsafe(p.ID, "team_change", map[string]interface{}{"team": string(team)})
	return nil
}

// SetRole assigns the calling player's role. Empty role means unassigned.
func (r *Room) SetRole(identity string, role models.Role) error {
	if role != "" && !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", game.ErrInvalidArgument, role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	p.Role = role
	r.commitUnsafe(p.ID, "role_change", map[string]interface{}{"role": string(role)})
	return nil
}

// Disconnect marks the player offline. The player record survives so a
// reconnect under the same identity restores it.
func (r *Room) Disconnect(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	p.IsOnline = false
	r.commitUnsafe(p.ID, "player_offline", nil)
	return nil
}

// AttachSession registers a live transport session for an identity that has
// already joined, marks the player online, and pushes a fresh full snapshot
// to everyone (including the new session).
func (r *Room) AttachSession(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(s.Identity)
	if err != nil {
		return err
	}
	r.sessions[s] = struct{}{}
	p.IsOnline = true
	r.commitUnsafe(p.ID, "player_online", nil)
	return nil
}

// DetachSession removes a session. When it was the identity's last session,
// the player is marked offline. The session's queue is closed; pending sends
// for other sessions are unaffected.
func (r *Room) DetachSession(s *Session) {
	r.mu.Lock()
	if _, ok := r.sessions[s]; !ok {
		r.mu.Unlock()
		s.close()
		return
	}
	delete(r.sessions, s)

	stillAttached := false
	for other := range r.sessions {
		if other.Identity == s.Identity {
			stillAttached = true
			break
		}
	}
	if p, ok := r.players[s.Identity]; ok && !stillAttached {
		p.IsOnline = false
		r.commitUnsafe(p.ID, "player_offline", nil)
	}
	r.mu.Unlock()
	s.close()
}

// StartGame deals a board and enters the playing phase. The starting team is
// random. Rejected while any game exists: a playing game must run to its end,
// a finished one is cleared with new_game.
func (r *Room) StartGame(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	if r.game != nil {
		if r.game.Phase == models.PhasePlaying {
			return fmt.Errorf("%w: a game is already in progress", game.ErrWrongPhase)
		}
		return fmt.Errorf("%w: the finished game must be cleared with new_game", game.ErrWrongPhase)
	}

	r.game, r.cards = game.NewGame(r.ID, game.RandomTeam())
	r.commitUnsafe(p.ID, "game_start", map[string]interface{}{
		"first_team": string(r.game.CurrentTeam),
		"board_size": len(r.cards),
	})
	return nil
}

// GiveClue sets the active clue for the current turn.
func (r *Room) GiveClue(identity, clue string, number int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	if err := game.GiveClue(r.game, p, clue, number); err != nil {
		return err
	}
	r.commitUnsafe(p.ID, "clue_given", map[string]interface{}{
		"clue":   r.game.CurrentClue,
		"number": r.game.CurrentNumber,
	})
	return nil
}

// GuessCard reveals a card for the current team and resolves the turn.
func (r *Room) GuessCard(identity, cardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	out, err := game.GuessCard(r.game, r.cards, p, cardID)
	if err != nil {
		return err
	}
	r.commitUnsafe(p.ID, "card_guessed", map[string]interface{}{
		"card_id":    out.Card.ID,
		"word":       out.Card.Word,
		"card_type":  string(out.Card.CardType),
		"turn_ended": out.TurnEnded,
	})
	if out.GameOver {
		r.emitUnsafe(p.ID, "game_end", map[string]interface{}{"winner": string(out.Winner)})
	}
	return nil
}

// EndGuessing voluntarily ends the current team's turn.
func (r *Room) EndGuessing(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	if err := game.EndGuessing(r.game, p); err != nil {
		return err
	}
	r.commitUnsafe(p.ID, "guessing_ended", map[string]interface{}{
		"next_team": string(r.game.CurrentTeam),
	})
	return nil
}

// NewGame discards a finished game and returns the room to the lobby,
// clearing every player's team and role.
func (r *Room) NewGame(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.playerUnsafe(identity)
	if err != nil {
		return err
	}
	if r.game == nil || r.game.Phase != models.PhaseFinished {
		return fmt.Errorf("%w: no finished game to clear", game.ErrWrongPhase)
	}

	r.game = nil
	r.cards = nil
	for _, pl := range r.players {
		pl.Team = ""
		pl.Role = ""
	}
	r.commitUnsafe(p.ID, "game_new", nil)
	return nil
}

// HasPlayer reports whether an identity has joined this room.
func (r *Room) HasPlayer(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[identity]
	return ok
}

// Snapshot builds the projection a given identity is entitled to. Unknown or
// empty identities get the operative-level (masked) view.
func (r *Room) Snapshot(identity string) models.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	spymaster := false
	if p, ok := r.players[identity]; ok && p.Role == models.RoleSpymaster {
		spymaster = true
	}
	return r.snapshotUnsafe(spymaster)
}

// HandleCommand validates and dispatches one inbound command for a session.
// Rejections go back to the issuing session only; accepted commands have
// already been broadcast by the time this returns.
func (r *Room) HandleCommand(s *Session, msg Inbound) {
	var err error
	switch msg.Type {
	case MsgJoinTeam:
		err = r.SetTeam(s.Identity, models.Team(msg.Team))
	case MsgSetRole:
		err = r.SetRole(s.Identity, models.Role(msg.Role))
	case MsgStartGame:
		err = r.StartGame(s.Identity)
	case MsgGiveClue:
		err = r.GiveClue(s.Identity, msg.Clue, msg.Number)
	case MsgGuessCard:
		err = r.GuessCard(s.Identity, msg.CardID)
	case MsgEndGuessing:
		err = r.EndGuessing(s.Identity)
	case MsgNewGame:
		err = r.NewGame(s.Identity)
	default:
		err = fmt.Errorf("%w: unknown message type %q", game.ErrInvalidArgument, msg.Type)
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"room":    r.ID,
			"type":    msg.Type,
			"code":    game.Code(err),
			"session": s.Identity,
		}).Debug("command rejected")
		s.SendError(game.Code(err), err.Error())
	}
}

// playerUnsafe resolves an identity to its player. Lock must be held.
func (r *Room) playerUnsafe(identity string) (*models.Player, error) {
	p, ok := r.players[identity]
	if !ok {
		return nil, fmt.Errorf("%w: no such player in room %s", game.ErrNotFound, r.ID)
	}
	return p, nil
}

// commitUnsafe finalizes an accepted mutation: bump the version, journal the
// event, and push fresh projections to every attached session. Lock must be
// held.
func (r *Room) commitUnsafe(actorID, eventType string, payload map[string]interface{}) {
	r.version++
	r.emitUnsafe(actorID, eventType, payload)
	r.broadcastUnsafe()
}

func (r *Room) emitUnsafe(actorID, eventType string, payload map[string]interface{}) {
	if r.onEvent == nil {
		return
	}
	ev := Event{
		RoomID:    r.ID,
		Seq:       r.version,
		ActorID:   actorID,
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if r.game != nil {
		ev.GameID = r.game.ID
	}
	r.onEvent(ev)
}

// broadcastUnsafe delivers a per-viewer snapshot to every session. There are
// only two distinct projections (spymaster and masked), so each is marshaled
// at most once per broadcast. Session sends never block.
func (r *Room) broadcastUnsafe() {
	var spyData, maskedData []byte
	for s := range r.sessions {
		spymaster := false
		if p, ok := r.players[s.Identity]; ok && p.Role == models.RoleSpymaster {
			spymaster = true
		}

		var data []byte
		if spymaster {
			if spyData == nil {
				spyData = r.marshalStateUnsafe(true)
			}
			data = spyData
		} else {
			if maskedData == nil {
				maskedData = r.marshalStateUnsafe(false)
			}
			data = maskedData
		}
		if data != nil {
			s.send(data)
		}
	}
}

func (r *Room) marshalStateUnsafe(spymaster bool) []byte {
	state := r.snapshotUnsafe(spymaster)
	data, err := json.Marshal(Outbound{Type: MsgRoomState, State: &state})
	if err != nil {
		r.logger.Errorf("room %s: marshal state: %v", r.ID, err)
		return nil
	}
	return data
}

// snapshotUnsafe copies the room into a wire snapshot, masking unrevealed
// card types unless the viewer is a spymaster. Lock must be held.
func (r *Room) snapshotUnsafe(spymaster bool) models.RoomState {
	state := models.RoomState{
		Version: r.version,
		Room:    models.Room{ID: r.ID, CreatedAt: r.CreatedAt},
		Players: make([]models.Player, 0, len(r.players)),
	}
	for _, p := range r.players {
		state.Players = append(state.Players, *p)
	}
	sort.Slice(state.Players, func(i, j int) bool {
		if state.Players[i].Name != state.Players[j].Name {
			return state.Players[i].Name < state.Players[j].Name
		}
		return state.Players[i].ID < state.Players[j].ID
	})

	if r.game != nil {
		g := *r.game
		state.Game = &g
		state.Cards = make([]models.CardView, len(r.cards))
		for i, c := range r.cards {
			state.Cards[i] = models.CardToView(c, spymaster)
		}
	}
	return state
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", game.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > 20 {
		return "", fmt.Errorf("%w: name must be at most 20 characters", game.ErrInvalidArgument)
	}
	return name, nil
}
