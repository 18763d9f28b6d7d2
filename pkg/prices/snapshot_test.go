package prices

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecat/pkg/model"
)

func obs(gameID int64, date string, usd string) model.Price {
	p := model.Price{GameID: &gameID, Platform: "Steam", Amounts: map[string]*decimal.Decimal{}}
	if date != "" {
		t, _ := time.Parse("2006-01-02", date)
		p.DateAcquired = &t
	}
	if usd != "" {
		d := decimal.RequireFromString(usd)
		p.Amounts["usd"] = &d
	}
	return p
}

func TestResolveLatestByDate(t *testing.T) {
	snap := Resolve([]model.Price{
		obs(5, "2023-06-01", "9.99"),
		obs(5, "2022-01-01", "19.99"),
	})

	require.Len(t, snap.History, 2)
	assert.Equal(t, "2022-01-01", snap.History[0].DateAcquired.Format("2006-01-02"))
	assert.Equal(t, "2023-06-01", snap.History[1].DateAcquired.Format("2006-01-02"))

	require.Len(t, snap.Latest, 1)
	assert.Equal(t, "2023-06-01", snap.Latest[0].DateAcquired.Format("2006-01-02"))
	assert.Equal(t, "9.99", snap.Latest[0].Amount("usd").String())
}

func TestResolveDatedBeatsUndated(t *testing.T) {
	snap := Resolve([]model.Price{
		obs(1, "2020-01-01", "1"),
		obs(1, "", "2"),
	})

	assert.Nil(t, snap.History[0].DateAcquired)
	assert.Equal(t, "1", snap.Latest[0].Amount("usd").String())
}

func TestResolveAllUndatedKeepsLastInInput(t *testing.T) {
	snap := Resolve([]model.Price{
		obs(1, "", "1"),
		obs(1, "", "2"),
		obs(1, "", "3"),
	})
	require.Len(t, snap.Latest, 1)
	assert.Equal(t, "3", snap.Latest[0].Amount("usd").String())
}

func TestResolveDropsMissingGameID(t *testing.T) {
	snap := Resolve([]model.Price{
		{Platform: "Steam"},
		obs(2, "2021-01-01", "4"),
		obs(1, "2021-01-01", "5"),
	})

	assert.Equal(t, 1, snap.Dropped)
	require.Len(t, snap.History, 2)
	assert.Equal(t, int64(1), *snap.History[0].GameID)
	assert.Equal(t, int64(2), *snap.History[1].GameID)
	assert.Len(t, snap.Latest, 2)
}

func TestResolveEmpty(t *testing.T) {
	snap := Resolve(nil)
	assert.Empty(t, snap.History)
	assert.NotNil(t, snap.Latest)
}

func TestResolveProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("latest is unique per game and is the last history entry", prop.ForAll(
		func(ids []int64, days []int) bool {
			observations := make([]model.Price, len(ids))
			for i, id := range ids {
				observations[i] = obs(id, "", "")
				if len(days) > 0 && days[i%len(days)] > 0 {
					d := time.Date(2020, 1, days[i%len(days)], 0, 0, 0, 0, time.UTC)
					observations[i].DateAcquired = &d
				}
			}
			snap := Resolve(observations)
			if len(snap.History) != len(ids) {
				return false
			}

			seen := map[int64]bool{}
			for _, p := range snap.Latest {
				if seen[*p.GameID] {
					return false
				}
				seen[*p.GameID] = true
			}
			lastByGame := map[int64]model.Price{}
			for _, p := range snap.History {
				lastByGame[*p.GameID] = p
			}
			for _, p := range snap.Latest {
				want := lastByGame[*p.GameID]
				if (want.DateAcquired == nil) != (p.DateAcquired == nil) {
					return false
				}
				if want.DateAcquired != nil && !want.DateAcquired.Equal(*p.DateAcquired) {
					return false
				}
			}
			return len(seen) == len(lastByGame)
		},
		gen.SliceOf(gen.Int64Range(1, 4)),
		gen.SliceOf(gen.IntRange(0, 28)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
