package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewords-live/server/internal/models"
)

func newTestGame(t *testing.T, firstTeam models.Team) (*models.Game, []models.Card) {
	t.Helper()
	g, cards := NewGame("room1", firstTeam)
	require.Equal(t, models.PhasePlaying, g.Phase)
	require.Len(t, cards, BoardSize)
	return g, cards
}

func spymaster(team models.Team) *models.Player {
	return &models.Player{ID: "sm-" + string(team), Team: team, Role: models.RoleSpymaster}
}

func operative(team models.Team) *models.Player {
	return &models.Player{ID: "op-" + string(team), Team: team, Role: models.RoleOperative}
}

// cardOfType finds an unrevealed card of the given type.
func cardOfType(t *testing.T, cards []models.Card, ct models.CardType) *models.Card {
	t.Helper()
	for i := range cards {
		if cards[i].CardType == ct && !cards[i].Revealed {
			return &cards[i]
		}
	}
	t.Fatalf("no unrevealed card of type %s", ct)
	return nil
}

func TestGiveClue(t *testing.T) {
	g, _ := newTestGame(t, models.TeamRed)

	err := GiveClue(g, spymaster(models.TeamRed), "ocean", 2)
	require.NoError(t, err)
	assert.Equal(t, "ocean", g.CurrentClue)
	assert.Equal(t, 2, g.CurrentNumber)
	assert.Equal(t, 3, g.GuessesLeft, "number+1 bonus guess")
}

func TestGiveClueUnlimited(t *testing.T) {
	g, _ := newTestGame(t, models.TeamBlue)

	require.NoError(t, GiveClue(g, spymaster(models.TeamBlue), "everything", 0))
	assert.Equal(t, BoardSize, g.GuessesLeft)
}

func TestGiveClueRejections(t *testing.T) {
	g, _ := newTestGame(t, models.TeamRed)

	err := GiveClue(g, operative(models.TeamRed), "ocean", 2)
	assert.True(t, errors.Is(err, ErrForbidden), "operatives cannot give clues")

	err = GiveClue(g, spymaster(models.TeamBlue), "ocean", 2)
	assert.True(t, errors.Is(err, ErrForbidden), "off-turn spymaster cannot give clues")

	err = GiveClue(g, spymaster(models.TeamRed), "   ", 2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	err = GiveClue(g, spymaster(models.TeamRed), "ocean", -1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	err = GiveClue(g, spymaster(models.TeamRed), "ocean", BoardSize+1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))
	err = GiveClue(g, spymaster(models.TeamRed), "river", 1)
	assert.True(t, errors.Is(err, ErrWrongPhase), "second clue in one turn rejected")
	assert.Equal(t, "ocean", g.CurrentClue, "rejection left state untouched")
}

func TestGiveClueNoGame(t *testing.T) {
	err := GiveClue(nil, spymaster(models.TeamRed), "ocean", 2)
	assert.True(t, errors.Is(err, ErrWrongPhase))
}

func TestGuessBeforeClue(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)

	_, err := GuessCard(g, cards, operative(models.TeamRed), cards[0].ID)
	assert.True(t, errors.Is(err, ErrWrongPhase))
}

func TestGuessRejections(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))

	_, err := GuessCard(g, cards, spymaster(models.TeamRed), cards[0].ID)
	assert.True(t, errors.Is(err, ErrForbidden), "spymasters cannot guess")

	_, err = GuessCard(g, cards, operative(models.TeamBlue), cards[0].ID)
	assert.True(t, errors.Is(err, ErrForbidden), "off-turn operative cannot guess")

	_, err = GuessCard(g, cards, operative(models.TeamRed), "bogus")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGuessOwnCardConsumesGuess(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))

	card := cardOfType(t, cards, models.CardTypeRed)
	out, err := GuessCard(g, cards, operative(models.TeamRed), card.ID)
	require.NoError(t, err)

	assert.True(t, card.Revealed)
	assert.Equal(t, models.TeamRed, card.RevealedBy)
	assert.Equal(t, 2, g.GuessesLeft)
	assert.False(t, out.TurnEnded)
	assert.False(t, out.GameOver)
}

func TestGuessRevealedCardRejected(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))

	card := cardOfType(t, cards, models.CardTypeRed)
	_, err := GuessCard(g, cards, operative(models.TeamRed), card.ID)
	require.NoError(t, err)

	before := *g
	_, err = GuessCard(g, cards, operative(models.TeamRed), card.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "a card reveals at most once")
	assert.Equal(t, before, *g, "rejected guess changed nothing")
}

func TestGuessNeutralEndsTurnOnlyWhenGuessesRunOut(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "stuff", 2))

	out, err := GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeNeutral).ID)
	require.NoError(t, err)
	assert.False(t, out.TurnEnded)
	assert.Equal(t, 2, g.GuessesLeft)

	out, err = GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeNeutral).ID)
	require.NoError(t, err)
	assert.False(t, out.TurnEnded)

	out, err = GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeNeutral).ID)
	require.NoError(t, err)
	assert.True(t, out.TurnEnded, "last guess consumed")
	assert.Equal(t, models.TeamBlue, g.CurrentTeam)
	assert.Empty(t, g.CurrentClue)
}

func TestGuessOpposingCardEndsTurn(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 3))

	out, err := GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeBlue).ID)
	require.NoError(t, err)
	assert.True(t, out.TurnEnded, "opposing card ends the turn immediately")
	assert.False(t, out.GameOver)
	assert.Equal(t, models.TeamBlue, g.CurrentTeam)
}

func TestGuessAssassinLosesImmediately(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 5))

	out, err := GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeAssassin).ID)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Equal(t, models.TeamBlue, out.Winner)
	assert.Equal(t, models.PhaseFinished, g.Phase)
	assert.Equal(t, models.TeamBlue, g.Winner)
}

func TestGuessLastOwnCardWins(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)

	// Reveal all but one red card out of band.
	revealed := 0
	for i := range cards {
		if cards[i].CardType == models.CardTypeRed && revealed < 8 {
			cards[i].Revealed = true
			cards[i].RevealedBy = models.TeamRed
			revealed++
		}
	}
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "last", 1))

	out, err := GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeRed).ID)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Equal(t, models.TeamRed, out.Winner)
	assert.Equal(t, models.PhaseFinished, g.Phase)
}

func TestGuessLastOpposingCardLoses(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)

	// Blue has 8 cards; reveal 7 so the next blue reveal is their last.
	revealed := 0
	for i := range cards {
		if cards[i].CardType == models.CardTypeBlue && revealed < 7 {
			cards[i].Revealed = true
			cards[i].RevealedBy = models.TeamBlue
			revealed++
		}
	}
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "oops", 1))

	out, err := GuessCard(g, cards, operative(models.TeamRed), cardOfType(t, cards, models.CardTypeBlue).ID)
	require.NoError(t, err)
	assert.True(t, out.GameOver)
	assert.Equal(t, models.TeamBlue, out.Winner, "revealing the opponent's last card hands them the win")
}

func TestEndGuessing(t *testing.T) {
	g, _ := newTestGame(t, models.TeamRed)
	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))

	err := EndGuessing(g, spymaster(models.TeamRed))
	assert.True(t, errors.Is(err, ErrForbidden), "spymasters cannot end guessing")

	err = EndGuessing(g, operative(models.TeamBlue))
	assert.True(t, errors.Is(err, ErrForbidden), "off-turn operative cannot end guessing")

	require.NoError(t, EndGuessing(g, operative(models.TeamRed)))
	assert.Equal(t, models.TeamBlue, g.CurrentTeam)
	assert.Empty(t, g.CurrentClue)
	assert.Zero(t, g.GuessesLeft)

	err = EndGuessing(g, operative(models.TeamBlue))
	assert.True(t, errors.Is(err, ErrWrongPhase), "no clue active after turn change")
}

// Full turn: clue "ocean" for 2, one right guess, one neutral, one right
// guess consuming the bonus and ending the turn.
func TestFullTurnScenario(t *testing.T) {
	g, cards := newTestGame(t, models.TeamRed)
	red := operative(models.TeamRed)

	require.NoError(t, GiveClue(g, spymaster(models.TeamRed), "ocean", 2))
	require.Equal(t, 3, g.GuessesLeft)

	out, err := GuessCard(g, cards, red, cardOfType(t, cards, models.CardTypeRed).ID)
	require.NoError(t, err)
	assert.False(t, out.TurnEnded)

	out, err = GuessCard(g, cards, red, cardOfType(t, cards, models.CardTypeNeutral).ID)
	require.NoError(t, err)
	assert.False(t, out.TurnEnded)

	out, err = GuessCard(g, cards, red, cardOfType(t, cards, models.CardTypeRed).ID)
	require.NoError(t, err)
	assert.True(t, out.TurnEnded)
	assert.Equal(t, models.TeamBlue, g.CurrentTeam)
}
