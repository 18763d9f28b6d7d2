// Package master merges per-source canonical collections into master tables.
package master

import (
	"gamecat/pkg/dedup"
	"gamecat/pkg/model"
)

// KeyFunc extracts a business key; ok is false when it is unavailable
type KeyFunc[T any] func(T) (model.Key, bool)

// Concat joins collections in the given source order without reduction.
// It is used for purchases and price history.
func Concat[T any](collections ...[]T) []T {
	n := 0
	for _, c := range collections {
		n += len(c)
	}
	out := make([]T, 0, n)
	for _, c := range collections {
		out = append(out, c...)
	}
	return out
}

// Unique joins collections in source order and keeps the last occurrence of
// each business key, so a later source overrides an earlier one. Records
// without a business key are keyed by fallback when given.
func Unique[T any](key, fallback KeyFunc[T], collections ...[]T) (records []T, overridden int) {
	return dedup.Deduplicate(Concat(collections...), dedup.Options[T, model.Key]{
		Key:      key,
		Fallback: fallback,
	})
}

// Games builds the games master table
func Games(perSource ...[]model.Game) ([]model.Game, int) {
	return Unique[model.Game](model.Game.Key, model.Game.SecondaryKey, perSource...)
}

// Players builds the players master table
func Players(perSource ...[]model.Player) ([]model.Player, int) {
	return Unique[model.Player](model.Player.Key, model.Player.SecondaryKey, perSource...)
}

// LatestPrices builds the latest-price master table, one row per (gameid, platform)
func LatestPrices(perSource ...[]model.Price) ([]model.Price, int) {
	return Unique[model.Price](model.Price.Key, nil, perSource...)
}
