// Package dedup collapses record collections to one record per business key.
package dedup

import "time"

// Options configures a deduplication pass
type Options[T any, K comparable] struct {
	// Key extracts the business key; ok is false when it is unavailable
	Key func(T) (K, bool)

	// Fallback extracts a secondary key for records without a business key.
	// Records with neither key are kept untouched.
	Fallback func(T) (K, bool)

	// Recency extracts the ordering field; ok is false for a null value.
	// A nil Recency treats every record as a tie.
	Recency func(T) (time.Time, bool)
}

type groupKey[K comparable] struct {
	secondary bool
	key       K
}

type winner struct {
	index int
	at    time.Time
	set   bool
}

// Deduplicate keeps, per key, the record with the greatest recency. Null
// recency sorts below any value, and ties keep the record seen last. Kept
// records stay in their input order. removed is the number of dropped records.
func Deduplicate[T any, K comparable](records []T, opts Options[T, K]) (kept []T, removed int) {
	best := make(map[groupKey[K]]winner, len(records))
	keep := make([]bool, len(records))

	for i, r := range records {
		gk, ok := opts.keyOf(r)
		if !ok {
			keep[i] = true
			continue
		}

		cand := winner{index: i}
		if opts.Recency != nil {
			cand.at, cand.set = opts.Recency(r)
		}

		cur, seen := best[gk]
		if seen && older(cand, cur) {
			continue
		}
		if seen {
			keep[cur.index] = false
		}
		keep[i] = true
		best[gk] = cand
	}

	kept = make([]T, 0, len(best))
	for i, r := range records {
		if keep[i] {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept)
}

func (o Options[T, K]) keyOf(r T) (groupKey[K], bool) {
	if o.Key != nil {
		if k, ok := o.Key(r); ok {
			return groupKey[K]{key: k}, true
		}
	}
	if o.Fallback != nil {
		if k, ok := o.Fallback(r); ok {
			return groupKey[K]{secondary: true, key: k}, true
		}
	}
	return groupKey[K]{}, false
}

// older reports whether a sorts strictly before b
func older(a, b winner) bool {
	switch {
	case !a.set && !b.set:
		return false
	case !a.set:
		return true
	case !b.set:
		return false
	}
	return a.at.Before(b.at)
}
