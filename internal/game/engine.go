package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codewords-live/server/internal/models"
)

// The state machine operates on plain models with no locking or I/O of its
// own; the owning room serializes all calls for a given game. Every rejected
// transition wraps a sentinel from errors.go and leaves the game untouched.

// NewGame creates a playing-phase game for a room with a freshly dealt board.
func NewGame(roomID string, firstTeam models.Team) (*models.Game, []models.Card) {
	g := &models.Game{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		Phase:       models.PhasePlaying,
		CurrentTeam: firstTeam,
	}
	return g, GenerateBoard(g.ID, firstTeam)
}

// GiveClue sets the active clue for the current team's spymaster.
//
// Convention for number == 0 ("unlimited"): guesses_left becomes BoardSize.
// Otherwise guesses_left = number + 1, the one bonus guess of standard rules.
func GiveClue(g *models.Game, p *models.Player, clue string, number int) error {
	if g == nil || g.Phase != models.PhasePlaying {
		return fmt.Errorf("%w: no game in progress", ErrWrongPhase)
	}
	if g.CurrentClue != "" {
		return fmt.Errorf("%w: a clue is already active this turn", ErrWrongPhase)
	}
	if p.Role != models.RoleSpymaster {
		return fmt.Errorf("%w: only spymasters give clues", ErrForbidden)
	}
	if p.Team != g.CurrentTeam {
		return fmt.Errorf("%w: it is not your team's turn", ErrForbidden)
	}
	clue = strings.TrimSpace(clue)
	if clue == "" {
		return fmt.Errorf("%w: clue must not be empty", ErrInvalidArgument)
	}
	if number < 0 || number > BoardSize {
		return fmt.Errorf("%w: clue number must be between 0 and %d", ErrInvalidArgument, BoardSize)
	}

	g.CurrentClue = clue
	g.CurrentNumber = number
	if number == 0 {
		g.GuessesLeft = BoardSize
	} else {
		g.GuessesLeft = number + 1
	}
	return nil
}

// GuessOutcome describes what a reveal did to the turn and the game.
type GuessOutcome struct {
	Card      *models.Card
	TurnEnded bool
	GameOver  bool
	Winner    models.Team
}

// GuessCard reveals a card on behalf of an operative on the current team and
// resolves the turn per standard rules:
//
//   - assassin: game over, the other team wins
//   - own color: win if that was the team's last card, else consume a guess
//   - opposing color: turn ends immediately; win for the opposing team if it
//     was their last card
//   - neutral: consume a guess
//
// Consuming the last guess ends the turn.
func GuessCard(g *models.Game, cards []models.Card, p *models.Player, cardID string) (GuessOutcome, error) {
	if g == nil || g.Phase != models.PhasePlaying {
		return GuessOutcome{}, fmt.Errorf("%w: no game in progress", ErrWrongPhase)
	}
	if g.CurrentClue == "" {
		return GuessOutcome{}, fmt.Errorf("%w: no clue has been given this turn", ErrWrongPhase)
	}
	if p.Role != models.RoleOperative {
		return GuessOutcome{}, fmt.Errorf("%w: only operatives guess", ErrForbidden)
	}
	if p.Team != g.CurrentTeam {
		return GuessOutcome{}, fmt.Errorf("%w: it is not your team's turn", ErrForbidden)
	}

	card := findCard(cards, cardID)
	if card == nil {
		return GuessOutcome{}, fmt.Errorf("%w: no such card", ErrNotFound)
	}
	if card.Revealed {
		return GuessOutcome{}, fmt.Errorf("%w: card already revealed", ErrNotFound)
	}

	team := p.Team
	card.Revealed = true
	card.RevealedBy = team
	out := GuessOutcome{Card: card}

	switch card.CardType {
	case models.CardTypeAssassin:
		finish(g, &out, team.Opposite())

	case models.CardType(team):
		if concealedFor(cards, team) == 0 {
			finish(g, &out, team)
			break
		}
		g.GuessesLeft--
		if g.GuessesLeft <= 0 {
			endTurn(g, &out)
		}

	case models.CardType(team.Opposite()):
		if concealedFor(cards, team.Opposite()) == 0 {
			finish(g, &out, team.Opposite())
			break
		}
		endTurn(g, &out)

	default: // neutral
		g.GuessesLeft--
		if g.GuessesLeft <= 0 {
			endTurn(g, &out)
		}
	}
	return out, nil
}

// EndGuessing voluntarily ends the current team's turn without revealing.
func EndGuessing(g *models.Game, p *models.Player) error {
	if g == nil || g.Phase != models.PhasePlaying {
		return fmt.Errorf("%w: no game in progress", ErrWrongPhase)
	}
	if g.CurrentClue == "" {
		return fmt.Errorf("%w: no clue has been given this turn", ErrWrongPhase)
	}
	if p.Role != models.RoleOperative {
		return fmt.Errorf("%w: only operatives end guessing", ErrForbidden)
	}
	if p.Team != g.CurrentTeam {
		return fmt.Errorf("%w: it is not your team's turn", ErrForbidden)
	}
	endTurn(g, nil)
	return nil
}

func endTurn(g *models.Game, out *GuessOutcome) {
	g.CurrentTeam = g.CurrentTeam.Opposite()
	g.CurrentClue = ""
	g.CurrentNumber = 0
	g.GuessesLeft = 0
	if out != nil {
		out.TurnEnded = true
	}
}

func finish(g *models.Game, out *GuessOutcome, winner models.Team) {
	g.Phase = models.PhaseFinished
	g.Winner = winner
	g.CurrentClue = ""
	g.CurrentNumber = 0
	g.GuessesLeft = 0
	out.GameOver = true
	out.Winner = winner
}

func findCard(cards []models.Card, id string) *models.Card {
	for i := range cards {
		if cards[i].ID == id {
			return &cards[i]
		}
	}
	return nil
}

// concealedFor counts a team's cards that are still face down.
func concealedFor(cards []models.Card, team models.Team) int {
	n := 0
	for i := range cards {
		if cards[i].CardType == models.CardType(team) && !cards[i].Revealed {
			n++
		}
	}
	return n
}
