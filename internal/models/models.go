package models

import "time"

// Team is a side of the board. The empty string means unassigned.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Opposite returns the other team. Undefined for the empty team.
func (t Team) Opposite() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Valid reports whether t is a playable team.
func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// Role is a player's function within their team. Empty means unassigned.
type Role string

const (
	RoleSpymaster Role = "spymaster"
	RoleOperative Role = "operative"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSpymaster || r == RoleOperative
}

// Phase is the lifecycle state of a game.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// CardType is the concealed identity of a board card.
type CardType string

const (
	CardTypeRed      CardType = "red"
	CardTypeBlue     CardType = "blue"
	CardTypeNeutral  CardType = "neutral"
	CardTypeAssassin CardType = "assassin"
)

// Room is the identity half of a room; players, sessions and the active game
// hang off the room registry, not this record.
type Room struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Player is one identity's membership in a room. SessionID is the opaque
// identity token the device presented; it never crosses the wire back out.
type Player struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	SessionID string `json:"-"`
	Name      string `json:"name"`
	Team      Team   `json:"team"`
	Role      Role   `json:"role"`
	IsOnline  bool   `json:"is_online"`
}

// Game holds the turn state for one room's active game.
// GuessesLeft is only meaningful while Phase is playing and CurrentClue is set.
type Game struct {
	ID            string `json:"id"`
	RoomID        string `json:"room_id"`
	Phase         Phase  `json:"phase"`
	CurrentTeam   Team   `json:"current_team"`
	CurrentClue   string `json:"current_clue"`
	CurrentNumber int    `json:"current_number"`
	GuessesLeft   int    `json:"guesses_left"`
	Winner        Team   `json:"winner"`
}

// Card is a single board position. CardType is immutable after generation;
// Revealed flips false -> true exactly once and never back.
type Card struct {
	ID         string   `json:"id"`
	GameID     string   `json:"game_id"`
	Word       string   `json:"word"`
	CardType   CardType `json:"card_type"`
	Position   int      `json:"position"`
	Revealed   bool     `json:"revealed"`
	RevealedBy Team     `json:"revealed_by"`
}

// CardView is the per-viewer projection of a Card. CardType is blanked for
// unrevealed cards unless the viewer is a spymaster.
type CardView struct {
	ID         string   `json:"id"`
	Word       string   `json:"word"`
	CardType   CardType `json:"card_type"`
	Position   int      `json:"position"`
	Revealed   bool     `json:"revealed"`
	RevealedBy Team     `json:"revealed_by"`
}

// RoomState is the full snapshot pushed to clients. Version increases with
// every accepted mutation so clients can discard stale snapshots.
type RoomState struct {
	Version uint64     `json:"version"`
	Room    Room       `json:"room"`
	Players []Player   `json:"players"`
	Game    *Game      `json:"game,omitempty"`
	Cards   []CardView `json:"cards,omitempty"`
}

// CardToView projects a card for a viewer. showType is true for spymasters;
// everyone sees the type of a revealed card.
func CardToView(c Card, showType bool) CardView {
	cv := CardView{
		ID:         c.ID,
		Word:       c.Word,
		Position:   c.Position,
		Revealed:   c.Revealed,
		RevealedBy: c.RevealedBy,
	}
	if showType || c.Revealed {
		cv.CardType = c.CardType
	}
	return cv
}
