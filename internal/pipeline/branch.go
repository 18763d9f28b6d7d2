package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"gamecat/pkg/cell"
	"gamecat/pkg/dedup"
	"gamecat/pkg/logger"
	"gamecat/pkg/metrics"
	"gamecat/pkg/model"
	"gamecat/pkg/prices"
	"gamecat/pkg/purchase"
	"gamecat/pkg/source"
	"gamecat/pkg/table"
)

// SourceResult is the reconciled output of one catalog
type SourceResult struct {
	Tag          source.Tag
	Games        []model.Game
	Players      []model.Player
	Purchases    []model.Purchase
	PriceHistory []model.Price
	PriceLatest  []model.Price
	MissingFiles []string
	Counts       SourceCounts
}

// SourceCounts records what one branch read, kept and dropped
type SourceCounts struct {
	GamesRead        int `json:"games_read"`
	Games            int `json:"games"`
	GameDuplicates   int `json:"game_duplicates"`
	PlayersRead      int `json:"players_read"`
	Players          int `json:"players"`
	PlayerDuplicates int `json:"player_duplicates"`
	OwnersRead       int `json:"owners_read"`
	OwnersDropped    int `json:"owners_dropped"`
	TokensDropped    int `json:"tokens_dropped"`
	Purchases        int `json:"purchases"`
	PriceRowsRead    int `json:"price_rows_read"`
	PricesDropped    int `json:"prices_dropped"`
	PriceHistory     int `json:"price_history"`
	PriceLatest      int `json:"price_latest"`
}

// emptyResult is the well-typed contribution of an aborted source
func emptyResult(tag source.Tag) SourceResult {
	return SourceResult{
		Tag:          tag,
		Games:        []model.Game{},
		Players:      []model.Player{},
		Purchases:    []model.Purchase{},
		PriceHistory: []model.Price{},
		PriceLatest:  []model.Price{},
	}
}

// branch reconciles one catalog. It reads only that catalog's extracts and
// shares nothing with other branches.
type branch struct {
	tag     source.Tag
	adapter source.Adapter
	dir     string
	logger  *logger.Logger
}

func newBranch(tag source.Tag, rawDir string, l *logger.Logger) (*branch, error) {
	adapter, err := source.For(tag)
	if err != nil {
		return nil, err
	}
	return &branch{
		tag:     tag,
		adapter: adapter,
		dir:     filepath.Join(rawDir, tag.Key()),
		logger:  l.ForSource(tag.Key()),
	}, nil
}

func (b *branch) run(ctx context.Context) (SourceResult, error) {
	start := time.Now()
	defer func() {
		metrics.BranchDuration.WithLabelValues(b.tag.Key()).Observe(time.Since(start).Seconds())
	}()

	res := emptyResult(b.tag)

	gameRows, err := b.read(ctx, model.EntityGames, &res)
	if err != nil {
		return emptyResult(b.tag), err
	}
	playerRows, err := b.read(ctx, model.EntityPlayers, &res)
	if err != nil {
		return emptyResult(b.tag), err
	}
	ownerRows, err := b.read(ctx, model.EntityPurchases, &res)
	if err != nil {
		return emptyResult(b.tag), err
	}
	priceRows, err := b.read(ctx, model.EntityPrices, &res)
	if err != nil {
		return emptyResult(b.tag), err
	}

	if err := b.games(gameRows, &res); err != nil {
		return emptyResult(b.tag), err
	}
	if err := b.players(playerRows, &res); err != nil {
		return emptyResult(b.tag), err
	}
	if err := b.purchases(ownerRows, &res); err != nil {
		return emptyResult(b.tag), err
	}
	if err := b.prices(priceRows, &res); err != nil {
		return emptyResult(b.tag), err
	}

	b.logger.Info("source reconciled",
		logger.Rows("games", res.Counts.Games),
		logger.Rows("players", res.Counts.Players),
		logger.Rows("purchases", res.Counts.Purchases),
		logger.Rows("price_latest", res.Counts.PriceLatest))
	return res, nil
}

// read loads one extract. A missing file is not an error: the entity simply
// contributes nothing. Any other failure aborts the branch.
func (b *branch) read(ctx context.Context, e model.Entity, res *SourceResult) ([]cell.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := source.FileName(e)
	t, err := table.ReadFile(filepath.Join(b.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Warn("extract missing, skipping", logger.Entity(string(e)))
		metrics.SourcesSkippedTotal.WithLabelValues(b.tag.Key(), "missing_file").Inc()
		res.MissingFiles = append(res.MissingFiles, name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s extract: %w", e, err)
	}

	metrics.RowsReadTotal.WithLabelValues(b.tag.Key(), string(e)).Add(float64(len(t.Rows)))
	return t.Rows, nil
}

func (b *branch) games(rows []cell.Row, res *SourceResult) error {
	games, err := b.adapter.Games(rows)
	if err != nil {
		return err
	}
	kept, removed := dedup.Deduplicate(games, dedup.Options[model.Game, model.Key]{
		Key:      model.Game.Key,
		Fallback: model.Game.SecondaryKey,
		Recency: func(g model.Game) (time.Time, bool) {
			if g.ReleaseDate == nil {
				return time.Time{}, false
			}
			return *g.ReleaseDate, true
		},
	})
	b.reportDuplicates(model.EntityGames, removed)

	res.Games = kept
	res.Counts.GamesRead = len(rows)
	res.Counts.Games = len(kept)
	res.Counts.GameDuplicates = removed
	return nil
}

func (b *branch) players(rows []cell.Row, res *SourceResult) error {
	players, err := b.adapter.Players(rows)
	if err != nil {
		return err
	}
	kept, removed := dedup.Deduplicate(players, dedup.Options[model.Player, model.Key]{
		Key:      model.Player.Key,
		Fallback: model.Player.SecondaryKey,
		Recency: func(p model.Player) (time.Time, bool) {
			if p.CreatedDate == nil {
				return time.Time{}, false
			}
			return *p.CreatedDate, true
		},
	})
	b.reportDuplicates(model.EntityPlayers, removed)

	res.Players = kept
	res.Counts.PlayersRead = len(rows)
	res.Counts.Players = len(kept)
	res.Counts.PlayerDuplicates = removed
	return nil
}

func (b *branch) purchases(rows []cell.Row, res *SourceResult) error {
	owners, err := b.adapter.Purchases(rows)
	if err != nil {
		return err
	}
	expanded, stats := purchase.ExpandAll(owners)
	if dropped := stats.OwnersDropped + stats.TokensDropped; dropped > 0 {
		metrics.RowsDroppedTotal.WithLabelValues(b.tag.Key(), string(model.EntityPurchases)).Add(float64(dropped))
		b.logger.Debug("purchase tokens dropped",
			logger.Rows("owners_dropped", stats.OwnersDropped),
			logger.Rows("tokens_dropped", stats.TokensDropped))
	}

	res.Purchases = expanded
	res.Counts.OwnersRead = stats.Owners
	res.Counts.OwnersDropped = stats.OwnersDropped
	res.Counts.TokensDropped = stats.TokensDropped
	res.Counts.Purchases = len(expanded)
	return nil
}

func (b *branch) prices(rows []cell.Row, res *SourceResult) error {
	observations, err := b.adapter.Prices(rows)
	if err != nil {
		return err
	}
	snap := prices.Resolve(observations)
	if snap.Dropped > 0 {
		metrics.RowsDroppedTotal.WithLabelValues(b.tag.Key(), string(model.EntityPrices)).Add(float64(snap.Dropped))
	}

	res.PriceHistory = snap.History
	res.PriceLatest = snap.Latest
	res.Counts.PriceRowsRead = len(rows)
	res.Counts.PricesDropped = snap.Dropped
	res.Counts.PriceHistory = len(snap.History)
	res.Counts.PriceLatest = len(snap.Latest)
	return nil
}

func (b *branch) reportDuplicates(e model.Entity, removed int) {
	if removed == 0 {
		return
	}
	metrics.DuplicatesRemovedTotal.WithLabelValues(b.tag.Key(), string(e)).Add(float64(removed))
	b.logger.Info("duplicates removed", logger.Entity(string(e)), logger.Rows("rows", removed))
}
