// Package source maps each catalog's raw extract rows into canonical records.
//
// Every catalog is a fixed Adapter variant selected by Tag. Adapters pad
// canonical columns the catalog does not carry, decode list and date columns,
// and coerce identifiers, nulling invalid ones instead of failing.
package source

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gamecat/pkg/cell"
	"gamecat/pkg/dates"
	"gamecat/pkg/listfield"
	"gamecat/pkg/model"
)

// Adapter is the capability set shared by every catalog. All three catalogs
// publish all four extracts; a catalog that lacks one at run time simply has
// no file for it.
type Adapter interface {
	Tag() Tag

	Games(rows []cell.Row) ([]model.Game, error)
	Players(rows []cell.Row) ([]model.Player, error)
	Purchases(rows []cell.Row) ([]model.Ownership, error)
	Prices(rows []cell.Row) ([]model.Price, error)
}

// For returns the adapter variant of a tag
func For(tag Tag) (Adapter, error) {
	switch tag {
	case PlayStation:
		return PlayStationAdapter{base: newBase(tag)}, nil
	case Steam:
		return SteamAdapter{base: newBase(tag)}, nil
	case Xbox:
		return XboxAdapter{base: newBase(tag)}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
}

// playerLayout names the source columns feeding the canonical player fields.
// An empty name means the catalog does not carry the field.
type playerLayout struct {
	nickname string
	country  string
	created  string
}

// base holds the behavior every catalog shares
type base struct {
	tag Tag
}

func newBase(tag Tag) base {
	return base{tag: tag}
}

func (b base) Tag() Tag { return b.tag }

// Games maps rows of games.csv
func (b base) Games(rows []cell.Row) ([]model.Game, error) {
	out := make([]model.Game, 0, len(rows))
	for _, row := range rows {
		release := dates.Decompose(row.Get("release_date"), dates.Day)
		out = append(out, model.Game{
			GameID:             optionalInt(row.Get("gameid")),
			Platform:           b.tag.Display(),
			PlatformRaw:        b.tag.Key(),
			Title:              strings.TrimSpace(row.Get("title").Text()),
			Developers:         listfield.Parse(row.Get("developers")),
			Publishers:         listfield.Parse(row.Get("publishers")),
			Genres:             listfield.Parse(row.Get("genres")),
			SupportedLanguages: listfield.Parse(row.Get("supported_languages")),
			ReleaseDate:        release.Time,
			ReleaseYear:        release.Year,
			ReleaseMonth:       release.Month,
			ReleaseQuarter:     release.Quarter,
		})
	}
	return out, nil
}

func (b base) players(rows []cell.Row, layout playerLayout) ([]model.Player, error) {
	out := make([]model.Player, 0, len(rows))
	for _, row := range rows {
		p := model.Player{
			PlayerID: optionalInt(row.Get("playerid")),
			Platform: b.tag.Display(),
		}
		if layout.nickname != "" {
			p.Nickname = optionalText(row.Get(layout.nickname))
		}
		if layout.country != "" {
			p.Country = optionalText(row.Get(layout.country))
		}
		if layout.created != "" {
			p.CreatedDate = dates.Decompose(row.Get(layout.created), dates.Instant).Time
		}
		out = append(out, p)
	}
	return out, nil
}

// Purchases maps rows of purchased_games.csv into unexpanded ownership rows
func (b base) Purchases(rows []cell.Row) ([]model.Ownership, error) {
	out := make([]model.Ownership, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Ownership{
			PlayerID: optionalInt(row.Get("playerid")),
			Library:  listfield.Parse(row.Get("library")),
			Platform: b.tag.Display(),
		})
	}
	return out, nil
}

// Prices maps rows of prices.csv. Rows keep a null gameid here; the snapshot
// resolver drops them.
func (b base) Prices(rows []cell.Row) ([]model.Price, error) {
	out := make([]model.Price, 0, len(rows))
	for _, row := range rows {
		amounts := make(map[string]*decimal.Decimal, len(model.Currencies))
		for _, cur := range model.Currencies {
			if d, ok := row.Get(cur).Decimal(); ok {
				amounts[cur] = &d
			} else {
				amounts[cur] = nil
			}
		}
		out = append(out, model.Price{
			GameID:       optionalInt(row.Get("gameid")),
			Platform:     b.tag.Display(),
			Amounts:      amounts,
			DateAcquired: dates.Decompose(row.Get("date_acquired"), dates.Instant).Time,
		})
	}
	return out, nil
}

// PlayStationAdapter: players carry nickname and country
type PlayStationAdapter struct{ base }

func (a PlayStationAdapter) Players(rows []cell.Row) ([]model.Player, error) {
	return a.players(rows, playerLayout{nickname: "nickname", country: "country"})
}

// SteamAdapter: players carry country and an account creation date
type SteamAdapter struct{ base }

func (a SteamAdapter) Players(rows []cell.Row) ([]model.Player, error) {
	return a.players(rows, playerLayout{country: "country", created: "created"})
}

// XboxAdapter: players carry a nickname only
type XboxAdapter struct{ base }

func (a XboxAdapter) Players(rows []cell.Row) ([]model.Player, error) {
	return a.players(rows, playerLayout{nickname: "nickname"})
}

func optionalInt(v cell.Value) *int64 {
	i, ok := v.Int()
	if !ok {
		return nil
	}
	return &i
}

func optionalText(v cell.Value) *string {
	if v.IsAbsent() {
		return nil
	}
	s := v.Text()
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
