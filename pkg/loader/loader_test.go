package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gamecat/pkg/logger"
	"gamecat/pkg/model"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Replace(ctx context.Context, batches []Batch) error {
	return m.Called(ctx, batches).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func id(v int64) *int64 { return &v }

func fixture() Tables {
	usd := decimal.RequireFromString("9.99")
	at := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	return Tables{
		Games: []model.Game{
			{GameID: id(1), Platform: "Steam", Title: "A", Developers: []string{"Dev"}},
			{GameID: id(2), Platform: "Steam", Title: "B"},
			{Platform: "Steam", Title: "no id"},
			{GameID: id(1), Platform: "Steam", Title: "dup"},
			{GameID: id(1), Platform: "Xbox", Title: "A on Xbox"},
		},
		Players: []model.Player{
			{PlayerID: id(10), Platform: "Steam"},
			{PlayerID: id(10), Platform: "Xbox"},
			{Platform: "Xbox"},
		},
		Purchases: []model.Purchase{
			{PlayerID: 10, GameID: 1, Platform: "Steam"},
			{PlayerID: 10, GameID: 2, Platform: "Steam"},
			{PlayerID: 10, GameID: 2, Platform: "Xbox"},
			{PlayerID: 11, GameID: 1, Platform: "Steam"},
		},
		Prices: []model.Price{
			{GameID: id(1), Platform: "Steam", Amounts: map[string]*decimal.Decimal{"usd": &usd}, DateAcquired: &at},
			{GameID: id(3), Platform: "Steam"},
			{Platform: "Steam"},
		},
		Population: []model.Population{
			{Country: "New Zealand", Population: id(5_100_000)},
			{Country: ""},
			{Country: "New Zealand", Population: id(1)},
			{Country: "Japan"},
		},
	}
}

func TestPrepareFiltersKeyViolations(t *testing.T) {
	batches, report, err := Prepare(context.Background(), fixture())
	require.NoError(t, err)
	require.Len(t, batches, 5)

	tables := make([]string, len(batches))
	for i, b := range batches {
		tables[i] = b.Table
	}
	assert.Equal(t, []string{TableGames, TablePlayers, TablePurchases, TablePrices, TablePopulation}, tables)

	assert.Equal(t, map[string]int{TableGames: 3, TablePlayers: 2, TablePurchases: 2, TablePrices: 1, TablePopulation: 2}, report.Loaded)
	assert.Equal(t, map[string]int{TableGames: 2, TablePlayers: 1, TablePurchases: 2, TablePrices: 2, TablePopulation: 2}, report.Rejected)
	assert.Equal(t, "games=3/2 players=2/1 purchases=2/2 prices=1/2 population=2/2", report.String())
}

func TestPreparePopulation(t *testing.T) {
	batches, _, err := Prepare(context.Background(), fixture())
	require.NoError(t, err)

	population := batches[4]
	assert.Equal(t, model.PopulationColumns, population.Columns)
	assert.Equal(t, [][]any{{"New Zealand", int64(5_100_000)}, {"Japan", nil}}, population.Rows)
}

func TestPrepareWithoutPopulation(t *testing.T) {
	tables := fixture()
	tables.Population = nil

	batches, report, err := Prepare(context.Background(), tables)
	require.NoError(t, err)
	require.Len(t, batches, 5)
	assert.Empty(t, batches[4].Rows)
	assert.Zero(t, report.Loaded[TablePopulation])
	assert.Zero(t, report.Rejected[TablePopulation])
}

func TestPrepareRowShapes(t *testing.T) {
	batches, _, err := Prepare(context.Background(), fixture())
	require.NoError(t, err)

	game := batches[0].Rows[0]
	require.Len(t, game, len(model.GameColumns))
	assert.Equal(t, int64(1), game[0])
	assert.Equal(t, "['Dev']", game[4])
	assert.Equal(t, "[]", game[5])
	assert.Nil(t, game[8])

	price := batches[3].Rows[0]
	require.Len(t, price, len(model.PriceColumns))
	assert.InDelta(t, 9.99, price[2], 1e-9)
	assert.Nil(t, price[3])
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), price[7])
}

func TestPrepareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Prepare(ctx, fixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPurchasesAlwaysReferenceLoadedRows(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every kept purchase references a kept player and game", prop.ForAll(
		func(gameIDs, playerIDs, refs []int64) bool {
			var tables Tables
			for _, g := range gameIDs {
				tables.Games = append(tables.Games, model.Game{GameID: id(g), Platform: "Steam"})
			}
			for _, p := range playerIDs {
				tables.Players = append(tables.Players, model.Player{PlayerID: id(p), Platform: "Steam"})
			}
			for i, r := range refs {
				tables.Purchases = append(tables.Purchases, model.Purchase{PlayerID: r, GameID: refs[len(refs)-1-i], Platform: "Steam"})
			}

			batches, report, err := Prepare(context.Background(), tables)
			if err != nil {
				return false
			}
			games := map[int64]bool{}
			for _, row := range batches[0].Rows {
				games[row[0].(int64)] = true
			}
			players := map[int64]bool{}
			for _, row := range batches[1].Rows {
				players[row[0].(int64)] = true
			}
			for _, row := range batches[2].Rows {
				if !players[row[0].(int64)] || !games[row[1].(int64)] {
					return false
				}
			}
			return report.Loaded[TablePurchases]+report.Rejected[TablePurchases] == len(refs)
		},
		gen.SliceOf(gen.Int64Range(1, 5)),
		gen.SliceOf(gen.Int64Range(1, 5)),
		gen.SliceOf(gen.Int64Range(1, 6)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLoadHandsBatchesToStore(t *testing.T) {
	store := new(MockStore)
	store.On("Replace", mock.Anything, mock.MatchedBy(func(b []Batch) bool {
		return len(b) == 5 && len(b[0].Rows) == 3 && len(b[4].Rows) == 2
	})).Return(nil)

	report, err := New(store, logger.Nop()).Load(context.Background(), fixture())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded[TablePrices])
	store.AssertExpectations(t)
}

func TestLoadWrapsStoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Replace", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := New(store, logger.Nop()).Load(context.Background(), fixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to replace tables")
}
