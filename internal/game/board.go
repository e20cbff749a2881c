package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/codewords-live/server/internal/models"
)

// BoardSize is the number of cards dealt per game.
const BoardSize = 25

// Card counts per standard rules: the starting team holds the extra card.
const (
	firstTeamCards  = 9
	secondTeamCards = 8
	neutralCards    = 7
	assassinCards   = 1
)

// RandomTeam picks the starting team for a new game.
func RandomTeam() models.Team {
	if rand.Intn(2) == 0 {
		return models.TeamBlue
	}
	return models.TeamRed
}

// GenerateBoard deals BoardSize cards for a new game: random words, shuffled
// type assignment with the firstTeam majority, and unique positions 0..N-1.
// The returned cards are fully concealed.
func GenerateBoard(gameID string, firstTeam models.Team) []models.Card {
	words := pickRandomWords(BoardSize)

	types := make([]models.CardType, 0, BoardSize)
	for i := 0; i < firstTeamCards; i++ {
		types = append(types, models.CardType(firstTeam))
	}
	for i := 0; i < secondTeamCards; i++ {
		types = append(types, models.CardType(firstTeam.Opposite()))
	}
	for i := 0; i < neutralCards; i++ {
		types = append(types, models.CardTypeNeutral)
	}
	for i := 0; i < assassinCards; i++ {
		types = append(types, models.CardTypeAssassin)
	}
	rand.Shuffle(len(types), func(i, j int) {
		types[i], types[j] = types[j], types[i]
	})

	cards := make([]models.Card, BoardSize)
	for i := 0; i < BoardSize; i++ {
		cards[i] = models.Card{
			ID:       uuid.New().String(),
			GameID:   gameID,
			Word:     words[i],
			CardType: types[i],
			Position: i,
		}
	}
	return cards
}

func pickRandomWords(n int) []string {
	perm := rand.Perm(len(WordList))
	words := make([]string, n)
	for i := 0; i < n; i++ {
		words[i] = WordList[perm[i]]
	}
	return words
}
