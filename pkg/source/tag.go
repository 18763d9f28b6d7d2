package source

import (
	"errors"
	"fmt"
	"strings"

	"gamecat/pkg/model"
)

// ErrUnknownTag is returned for a source key outside the known catalogs
var ErrUnknownTag = errors.New("unknown source tag")

// Tag enumerates the known catalogs
type Tag uint8

const (
	PlayStation Tag = iota + 1
	Steam
	Xbox
)

var tagNames = map[Tag][2]string{
	PlayStation: {"playstation", "PlayStation"},
	Steam:       {"steam", "Steam"},
	Xbox:        {"xbox", "Xbox"},
}

// Tags returns every known source in the default assembly order
func Tags() []Tag {
	return []Tag{PlayStation, Steam, Xbox}
}

// ParseTag resolves a raw source key such as "steam"
func ParseTag(s string) (Tag, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for tag, names := range tagNames {
		if names[0] == key {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTag, s)
}

// Key is the raw tag used for directories and platform_raw
func (t Tag) Key() string { return tagNames[t][0] }

// Display is the platform name written to canonical records
func (t Tag) Display() string { return tagNames[t][1] }

func (t Tag) String() string { return t.Key() }

// FileName is the extract file holding one entity
func FileName(e model.Entity) string {
	switch e {
	case model.EntityGames:
		return "games.csv"
	case model.EntityPlayers:
		return "players.csv"
	case model.EntityPurchases:
		return "purchased_games.csv"
	case model.EntityPrices:
		return "prices.csv"
	}
	return string(e) + ".csv"
}
