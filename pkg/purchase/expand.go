// Package purchase flattens library ownership rows into purchase records.
package purchase

import (
	"gamecat/pkg/cell"
	"gamecat/pkg/model"
)

// Stats counts what an expansion dropped
type Stats struct {
	Owners        int
	OwnersDropped int
	TokensDropped int
}

// Expand emits one purchase per library token that coerces to a game id.
// Invalid tokens are skipped and counted; an owner without a valid id yields
// nothing.
func Expand(o model.Ownership) (rows []model.Purchase, dropped int) {
	if o.PlayerID == nil {
		return nil, len(o.Library)
	}

	rows = make([]model.Purchase, 0, len(o.Library))
	for _, tok := range o.Library {
		gameID, ok := cell.ParseInt(tok)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, model.Purchase{
			PlayerID: *o.PlayerID,
			GameID:   gameID,
			Platform: o.Platform,
		})
	}
	return rows, dropped
}

// ExpandAll expands every ownership row in order
func ExpandAll(owners []model.Ownership) ([]model.Purchase, Stats) {
	var (
		out   []model.Purchase
		stats Stats
	)
	for _, o := range owners {
		stats.Owners++
		if o.PlayerID == nil {
			stats.OwnersDropped++
		}
		rows, dropped := Expand(o)
		stats.TokensDropped += dropped
		out = append(out, rows...)
	}
	if out == nil {
		out = []model.Purchase{}
	}
	return out, stats
}
