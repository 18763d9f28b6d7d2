package dedup

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecat/pkg/model"
)

type rec struct {
	id    int
	name  string
	at    *time.Time
	label string
}

func ts(year int) *time.Time {
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func opts() Options[rec, string] {
	return Options[rec, string]{
		Key: func(r rec) (string, bool) {
			if r.id == 0 {
				return "", false
			}
			return string(rune('a' + r.id)), true
		},
		Fallback: func(r rec) (string, bool) {
			if r.name == "" {
				return "", false
			}
			return r.name, true
		},
		Recency: func(r rec) (time.Time, bool) {
			if r.at == nil {
				return time.Time{}, false
			}
			return *r.at, true
		},
	}
}

func TestDeduplicateKeepsMostRecent(t *testing.T) {
	kept, removed := Deduplicate([]rec{
		{id: 1, at: ts(2024), label: "new"},
		{id: 1, at: ts(2023), label: "old"},
	}, opts())

	require.Len(t, kept, 1)
	assert.Equal(t, "new", kept[0].label)
	assert.Equal(t, 1, removed)
}

func TestDeduplicateNullRecencySortsLow(t *testing.T) {
	kept, _ := Deduplicate([]rec{
		{id: 1, at: ts(2001), label: "dated"},
		{id: 1, label: "undated"},
	}, opts())

	require.Len(t, kept, 1)
	assert.Equal(t, "dated", kept[0].label)
}

func TestDeduplicateTiesKeepLast(t *testing.T) {
	kept, removed := Deduplicate([]rec{
		{id: 1, label: "first"},
		{id: 2, label: "other"},
		{id: 1, label: "second"},
		{id: 1, label: "third"},
	}, opts())

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"other", "third"}, labels(kept))

	kept, _ = Deduplicate([]rec{
		{id: 1, at: ts(2020), label: "first"},
		{id: 1, at: ts(2020), label: "second"},
	}, opts())
	assert.Equal(t, []string{"second"}, labels(kept))
}

func TestDeduplicateFallbackKey(t *testing.T) {
	kept, removed := Deduplicate([]rec{
		{name: "Halo", label: "a"},
		{name: "Halo", label: "b"},
		{id: 3, name: "Halo", label: "c"},
		{label: "keyless"},
		{label: "keyless too"},
	}, opts())

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"b", "c", "keyless", "keyless too"}, labels(kept))
}

func TestDeduplicateNilRecency(t *testing.T) {
	o := opts()
	o.Recency = nil
	kept, _ := Deduplicate([]rec{
		{id: 1, at: ts(2030), label: "a"},
		{id: 1, at: ts(2000), label: "b"},
	}, o)
	assert.Equal(t, []string{"b"}, labels(kept))
}

func TestDeduplicateGames(t *testing.T) {
	id := int64(7)
	kept, removed := Deduplicate([]model.Game{
		{GameID: &id, Platform: "Steam", Title: "A", ReleaseDate: ts(2023)},
		{GameID: &id, Platform: "Steam", Title: "B", ReleaseDate: ts(2024)},
		{GameID: &id, Platform: "Xbox", Title: "C"},
	}, Options[model.Game, model.Key]{
		Key:      model.Game.Key,
		Fallback: model.Game.SecondaryKey,
		Recency: func(g model.Game) (time.Time, bool) {
			if g.ReleaseDate == nil {
				return time.Time{}, false
			}
			return *g.ReleaseDate, true
		},
	})

	assert.Equal(t, 1, removed)
	require.Len(t, kept, 2)
	assert.Equal(t, "B", kept[0].Title)
	assert.Equal(t, "C", kept[1].Title)
}

func TestDeduplicateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("one record per key and counts add up", prop.ForAll(
		func(ids []int) bool {
			records := make([]rec, len(ids))
			distinct := map[int]struct{}{}
			for i, id := range ids {
				records[i] = rec{id: id + 1, at: ts(2000 + i%7)}
				distinct[id] = struct{}{}
			}
			kept, removed := Deduplicate(records, opts())
			return len(kept) == len(distinct) && len(kept)+removed == len(records)
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func labels(rs []rec) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.label
	}
	return out
}
