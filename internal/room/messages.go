package room

import "github.com/codewords-live/server/internal/models"

// Client-to-authority message types.
const (
	MsgJoinTeam    = "join_team"
	MsgSetRole     = "set_role"
	MsgStartGame   = "start_game"
	MsgGiveClue    = "give_clue"
	MsgGuessCard   = "guess_card"
	MsgEndGuessing = "end_guessing"
	MsgNewGame     = "new_game"
)

// Authority-to-client message types.
const (
	MsgRoomState = "room_state"
	MsgError     = "error"
)

// Inbound is a tagged command from a client. Identity rides on the transport
// session, not the message.
type Inbound struct {
	Type   string `json:"type"`
	Team   string `json:"team,omitempty"`
	Role   string `json:"role,omitempty"`
	Clue   string `json:"clue,omitempty"`
	Number int    `json:"number,omitempty"`
	CardID string `json:"card_id,omitempty"`
}

// Outbound is a message to a client: either a full state snapshot or a typed
// error for the issuing session.
type Outbound struct {
	Type  string            `json:"type"`
	State *models.RoomState `json:"state,omitempty"`
	Code  string            `json:"code,omitempty"`
	Error string            `json:"error,omitempty"`
}
