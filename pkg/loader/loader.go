// Package loader replaces the relational copy of the master tables.
//
// Rows that would violate the relational keys are filtered and counted
// before anything reaches the database, so the replace transaction only
// fails on infrastructure errors.
package loader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gamecat/pkg/listfield"
	"gamecat/pkg/logger"
	"gamecat/pkg/metrics"
	"gamecat/pkg/model"
)

// Store is a transactional sink for prepared batches
type Store interface {
	// Replace swaps the contents of every table for the given batches in one transaction
	Replace(ctx context.Context, batches []Batch) error

	Close() error
}

// Batch is the prepared content of one table
type Batch struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Tables are the master collections to load
type Tables struct {
	Games     []model.Game
	Players   []model.Player
	Purchases []model.Purchase
	Prices    []model.Price

	// Population is optional; an empty slice loads an empty table
	Population []model.Population
}

// Report counts loaded and rejected rows per table
type Report struct {
	Loaded   map[string]int `json:"loaded"`
	Rejected map[string]int `json:"rejected"`
}

// Loader filters master tables and hands them to a Store
type Loader struct {
	store  Store
	logger *logger.Logger
}

func New(store Store, l *logger.Logger) *Loader {
	return &Loader{store: store, logger: l}
}

// Load prepares the tables and replaces the store contents
func (l *Loader) Load(ctx context.Context, tables Tables) (Report, error) {
	batches, report, err := Prepare(ctx, tables)
	if err != nil {
		return report, err
	}

	for _, table := range loadOrder {
		if n := report.Rejected[table]; n > 0 {
			l.logger.Warn("rows rejected before load", zap.String("table", table), zap.Int("rows", n))
			metrics.RowsRejectedTotal.WithLabelValues(table).Add(float64(n))
		}
	}

	start := time.Now()
	if err := l.store.Replace(ctx, batches); err != nil {
		return report, fmt.Errorf("failed to replace tables: %w", err)
	}
	metrics.LoadLatency.Observe(time.Since(start).Seconds())

	for _, b := range batches {
		metrics.RowsLoadedTotal.WithLabelValues(b.Table).Add(float64(len(b.Rows)))
		l.logger.Info("table loaded", zap.String("table", b.Table), zap.Int("rows", len(b.Rows)))
	}
	return report, nil
}

type rowKey struct {
	id       int64
	platform string
}

// Prepare converts master tables into batches in load order. Games and
// players need an identifier and a unique key; purchases and prices need the
// rows they reference. Population rows need a unique, non-empty country.
func Prepare(ctx context.Context, tables Tables) ([]Batch, Report, error) {
	report := Report{Loaded: map[string]int{}, Rejected: map[string]int{}}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	games := make([]model.Game, 0, len(tables.Games))
	gameKeys := make(map[rowKey]bool, len(tables.Games))
	for _, g := range tables.Games {
		if g.GameID == nil || gameKeys[rowKey{*g.GameID, g.Platform}] {
			report.Rejected[TableGames]++
			continue
		}
		gameKeys[rowKey{*g.GameID, g.Platform}] = true
		games = append(games, g)
	}

	players := make([]model.Player, 0, len(tables.Players))
	playerKeys := make(map[rowKey]bool, len(tables.Players))
	for _, p := range tables.Players {
		if p.PlayerID == nil || playerKeys[rowKey{*p.PlayerID, p.Platform}] {
			report.Rejected[TablePlayers]++
			continue
		}
		playerKeys[rowKey{*p.PlayerID, p.Platform}] = true
		players = append(players, p)
	}

	purchases := make([]model.Purchase, 0, len(tables.Purchases))
	for _, p := range tables.Purchases {
		if !playerKeys[rowKey{p.PlayerID, p.Platform}] || !gameKeys[rowKey{p.GameID, p.Platform}] {
			report.Rejected[TablePurchases]++
			continue
		}
		purchases = append(purchases, p)
	}

	prices := make([]model.Price, 0, len(tables.Prices))
	priceKeys := make(map[rowKey]bool, len(tables.Prices))
	for _, p := range tables.Prices {
		if p.GameID == nil || !gameKeys[rowKey{*p.GameID, p.Platform}] || priceKeys[rowKey{*p.GameID, p.Platform}] {
			report.Rejected[TablePrices]++
			continue
		}
		priceKeys[rowKey{*p.GameID, p.Platform}] = true
		prices = append(prices, p)
	}

	population := make([]model.Population, 0, len(tables.Population))
	countries := make(map[string]bool, len(tables.Population))
	for _, p := range tables.Population {
		if p.Country == "" || countries[p.Country] {
			report.Rejected[TablePopulation]++
			continue
		}
		countries[p.Country] = true
		population = append(population, p)
	}

	batches := []Batch{
		{Table: TableGames, Columns: model.GameColumns, Rows: gameRows(ctx, games)},
		{Table: TablePlayers, Columns: model.PlayerColumns, Rows: playerRows(players)},
		{Table: TablePurchases, Columns: model.PurchaseColumns, Rows: purchaseRows(purchases)},
		{Table: TablePrices, Columns: model.PriceColumns, Rows: priceRows(prices)},
		{Table: TablePopulation, Columns: model.PopulationColumns, Rows: populationRows(population)},
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	for _, b := range batches {
		report.Loaded[b.Table] = len(b.Rows)
	}
	return batches, report, nil
}

func gameRows(ctx context.Context, games []model.Game) [][]any {
	rows := make([][]any, 0, len(games))
	for i, g := range games {
		if i%1024 == 0 && ctx.Err() != nil {
			return rows
		}
		rows = append(rows, []any{
			*g.GameID,
			g.Platform,
			g.PlatformRaw,
			g.Title,
			listfield.Format(g.Developers),
			listfield.Format(g.Publishers),
			listfield.Format(g.Genres),
			listfield.Format(g.SupportedLanguages),
			nullable(g.ReleaseDate),
			nullable(g.ReleaseYear),
			nullable(g.ReleaseMonth),
			nullable(g.ReleaseQuarter),
		})
	}
	return rows
}

func playerRows(players []model.Player) [][]any {
	rows := make([][]any, len(players))
	for i, p := range players {
		rows[i] = []any{*p.PlayerID, p.Platform, nullable(p.Nickname), nullable(p.Country), nullable(p.CreatedDate)}
	}
	return rows
}

func purchaseRows(purchases []model.Purchase) [][]any {
	rows := make([][]any, len(purchases))
	for i, p := range purchases {
		rows[i] = []any{p.PlayerID, p.GameID, p.Platform}
	}
	return rows
}

func priceRows(prices []model.Price) [][]any {
	rows := make([][]any, len(prices))
	for i, p := range prices {
		row := make([]any, 0, len(model.PriceColumns))
		row = append(row, *p.GameID, p.Platform)
		for _, cur := range model.Currencies {
			if d := p.Amount(cur); d != nil {
				row = append(row, d.InexactFloat64())
			} else {
				row = append(row, nil)
			}
		}
		row = append(row, nullable(p.DateAcquired))
		rows[i] = row
	}
	return rows
}

func populationRows(population []model.Population) [][]any {
	rows := make([][]any, len(population))
	for i, p := range population {
		rows[i] = []any{p.Country, nullable(p.Population)}
	}
	return rows
}

// nullable unwraps a pointer so COPY sees either the value or NULL
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// String renders a report line for logs
func (r Report) String() string {
	s := ""
	for _, t := range loadOrder {
		if s != "" {
			s += " "
		}
		s += t + "=" + strconv.Itoa(r.Loaded[t]) + "/" + strconv.Itoa(r.Rejected[t])
	}
	return s
}
