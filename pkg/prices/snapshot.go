// Package prices reduces a catalog's price history to the latest observation
// per game while keeping the full history.
package prices

import (
	"sort"

	"gamecat/pkg/model"
)

// Snapshot is the resolved price history of one catalog
type Snapshot struct {
	// History holds every observation sorted by gameid, then date_acquired
	// ascending with undated observations first.
	History []model.Price
	// Latest holds exactly one observation per gameid
	Latest []model.Price
	// Dropped counts observations without a gameid
	Dropped int
}

// Resolve sorts and snapshots the observations of one catalog. Ordering is
// stable, so among undated observations of a game the last in input order
// becomes the latest.
func Resolve(observations []model.Price) Snapshot {
	history := make([]model.Price, 0, len(observations))
	for _, p := range observations {
		if p.GameID == nil {
			continue
		}
		history = append(history, p)
	}
	dropped := len(observations) - len(history)

	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i], history[j]
		if *a.GameID != *b.GameID {
			return *a.GameID < *b.GameID
		}
		switch {
		case a.DateAcquired == nil:
			return b.DateAcquired != nil
		case b.DateAcquired == nil:
			return false
		}
		return a.DateAcquired.Before(*b.DateAcquired)
	})

	latest := make([]model.Price, 0)
	for i, p := range history {
		if i+1 < len(history) && *history[i+1].GameID == *p.GameID {
			continue
		}
		latest = append(latest, p)
	}

	return Snapshot{History: history, Latest: latest, Dropped: dropped}
}
