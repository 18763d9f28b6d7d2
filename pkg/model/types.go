package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Currencies are the price columns every source may carry, in column order
var Currencies = []string{"usd", "eur", "gbp", "jpy", "rub"}

// Game is the canonical game record
type Game struct {
	GameID             *int64     `db:"gameid"`
	Platform           string     `db:"platform"`
	PlatformRaw        string     `db:"platform_raw"`
	Title              string     `db:"title"`
	Developers         []string   `db:"developers"`
	Publishers         []string   `db:"publishers"`
	Genres             []string   `db:"genres"`
	SupportedLanguages []string   `db:"supported_languages"`
	ReleaseDate        *time.Time `db:"release_date"`
	ReleaseYear        *int       `db:"release_date_year"`
	ReleaseMonth       *int       `db:"release_date_month"`
	ReleaseQuarter     *string    `db:"release_date_quarter"`
}

// Player is the canonical player record
type Player struct {
	PlayerID    *int64     `db:"playerid"`
	Platform    string     `db:"platform"`
	Nickname    *string    `db:"nickname"`
	Country     *string    `db:"country"`
	CreatedDate *time.Time `db:"created_date"`
}

// Purchase links a player to an owned game on one platform
type Purchase struct {
	PlayerID int64  `db:"playerid"`
	GameID   int64  `db:"gameid"`
	Platform string `db:"platform"`
}

// Ownership is one purchase-source row before expansion: an owner and the
// list of game ids in their library.
type Ownership struct {
	PlayerID *int64
	Library  []string
	Platform string
}

// Price is one price observation. Amounts is keyed by currency code; a nil
// entry means the amount was missing or unparseable.
type Price struct {
	GameID       *int64                      `db:"gameid"`
	Platform     string                      `db:"platform"`
	Amounts      map[string]*decimal.Decimal `db:"-"`
	DateAcquired *time.Time                  `db:"date_acquired"`
}

// Amount returns the amount for one currency, nil when missing
func (p Price) Amount(currency string) *decimal.Decimal {
	return p.Amounts[currency]
}

// Population is the head count of one country, joined to players.country
type Population struct {
	Country    string `db:"country"`
	Population *int64 `db:"population"`
}

// Key is the business key of a record. ID is the identifier rendered as text
// so keys of every entity share one comparable type.
type Key struct {
	ID       string
	Platform string
}

// Key returns the (gameid, platform) key; ok is false when gameid is null
func (g Game) Key() (Key, bool) {
	if g.GameID == nil {
		return Key{}, false
	}
	return Key{ID: strconv.FormatInt(*g.GameID, 10), Platform: g.Platform}, true
}

// SecondaryKey is (title, platform), used when gameid is unavailable
func (g Game) SecondaryKey() (Key, bool) {
	return Key{ID: g.Title, Platform: g.Platform}, true
}

// Key returns the (playerid, platform) key; ok is false when playerid is null
func (p Player) Key() (Key, bool) {
	if p.PlayerID == nil {
		return Key{}, false
	}
	return Key{ID: strconv.FormatInt(*p.PlayerID, 10), Platform: p.Platform}, true
}

// SecondaryKey is (nickname, platform); players without a nickname have none
func (p Player) SecondaryKey() (Key, bool) {
	if p.Nickname == nil {
		return Key{}, false
	}
	return Key{ID: *p.Nickname, Platform: p.Platform}, true
}

// Key returns the (gameid, platform) key; ok is false when gameid is null
func (p Price) Key() (Key, bool) {
	if p.GameID == nil {
		return Key{}, false
	}
	return Key{ID: strconv.FormatInt(*p.GameID, 10), Platform: p.Platform}, true
}
