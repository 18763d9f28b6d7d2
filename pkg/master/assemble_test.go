package master

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecat/pkg/model"
)

func id(v int64) *int64 { return &v }

func TestGamesLastSourceWins(t *testing.T) {
	a := []model.Game{{GameID: id(7), Platform: "Steam", Title: "From A"}}
	b := []model.Game{{GameID: id(7), Platform: "Steam", Title: "From B"}}

	games, overridden := Games(a, b)
	require.Len(t, games, 1)
	assert.Equal(t, "From B", games[0].Title)
	assert.Equal(t, 1, overridden)

	games, _ = Games(b, a)
	assert.Equal(t, "From A", games[0].Title)
}

func TestGamesKeepsSourceOrder(t *testing.T) {
	ps := []model.Game{
		{GameID: id(1), Platform: "PlayStation", Title: "p1"},
		{GameID: id(2), Platform: "PlayStation", Title: "p2"},
	}
	steam := []model.Game{
		{GameID: id(1), Platform: "Steam", Title: "s1"},
		{Platform: "Steam", Title: "untracked"},
	}
	xbox := []model.Game{}

	games, overridden := Games(ps, steam, xbox)
	assert.Zero(t, overridden)
	titles := make([]string, len(games))
	for i, g := range games {
		titles[i] = g.Title
	}
	assert.Equal(t, []string{"p1", "p2", "s1", "untracked"}, titles)
}

func TestPlayersFallbackToNickname(t *testing.T) {
	nick := "neo"
	players, overridden := Players(
		[]model.Player{{Platform: "Xbox", Nickname: &nick}},
		[]model.Player{{Platform: "Xbox", Nickname: &nick}, {Platform: "Xbox"}},
	)
	assert.Equal(t, 1, overridden)
	assert.Len(t, players, 2)
}

func TestLatestPricesUnique(t *testing.T) {
	prices, _ := LatestPrices(
		[]model.Price{{GameID: id(1), Platform: "Steam"}, {GameID: id(2), Platform: "Steam"}},
		[]model.Price{{GameID: id(1), Platform: "Xbox"}, {GameID: id(1), Platform: "Steam"}},
	)
	assert.Len(t, prices, 3)
}

func TestConcatKeepsEverything(t *testing.T) {
	out := Concat(
		[]model.Purchase{{PlayerID: 1, GameID: 1, Platform: "Steam"}},
		nil,
		[]model.Purchase{{PlayerID: 1, GameID: 1, Platform: "Steam"}},
	)
	assert.Len(t, out, 2)
	assert.NotNil(t, Concat[model.Purchase]())
}
