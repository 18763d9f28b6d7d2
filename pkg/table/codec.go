package table

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gamecat/pkg/cell"
	"gamecat/pkg/dates"
	"gamecat/pkg/listfield"
	"gamecat/pkg/model"
)

const (
	dayLayout     = "2006-01-02"
	instantLayout = "2006-01-02 15:04:05"
)

// EncodeGames renders games in model.GameColumns order
func EncodeGames(games []model.Game) [][]string {
	rows := make([][]string, len(games))
	for i, g := range games {
		rows[i] = []string{
			formatInt(g.GameID),
			g.Platform,
			g.PlatformRaw,
			g.Title,
			listfield.Format(g.Developers),
			listfield.Format(g.Publishers),
			listfield.Format(g.Genres),
			listfield.Format(g.SupportedLanguages),
			formatTime(g.ReleaseDate, dayLayout),
			formatSmallInt(g.ReleaseYear),
			formatSmallInt(g.ReleaseMonth),
			formatText(g.ReleaseQuarter),
		}
	}
	return rows
}

// EncodePlayers renders players in model.PlayerColumns order
func EncodePlayers(players []model.Player) [][]string {
	rows := make([][]string, len(players))
	for i, p := range players {
		rows[i] = []string{
			formatInt(p.PlayerID),
			p.Platform,
			formatText(p.Nickname),
			formatText(p.Country),
			formatTime(p.CreatedDate, instantLayout),
		}
	}
	return rows
}

// EncodePurchases renders purchases in model.PurchaseColumns order
func EncodePurchases(purchases []model.Purchase) [][]string {
	rows := make([][]string, len(purchases))
	for i, p := range purchases {
		rows[i] = []string{
			strconv.FormatInt(p.PlayerID, 10),
			strconv.FormatInt(p.GameID, 10),
			p.Platform,
		}
	}
	return rows
}

// EncodePrices renders prices in model.PriceColumns order
func EncodePrices(prices []model.Price) [][]string {
	rows := make([][]string, len(prices))
	for i, p := range prices {
		row := make([]string, 0, len(model.PriceColumns))
		row = append(row, formatInt(p.GameID), p.Platform)
		for _, cur := range model.Currencies {
			if d := p.Amount(cur); d != nil {
				row = append(row, d.String())
			} else {
				row = append(row, "")
			}
		}
		row = append(row, formatTime(p.DateAcquired, instantLayout))
		rows[i] = row
	}
	return rows
}

// DecodeGames reads a canonical games table back into records
func DecodeGames(t *Table) ([]model.Game, error) {
	if err := t.Require(model.GameColumns...); err != nil {
		return nil, err
	}
	out := make([]model.Game, len(t.Rows))
	for i, row := range t.Rows {
		g := model.Game{
			GameID:             parseInt(row.Get("gameid")),
			Platform:           row.Get("platform").Text(),
			PlatformRaw:        row.Get("platform_raw").Text(),
			Title:              row.Get("title").Text(),
			Developers:         listfield.Parse(row.Get("developers")),
			Publishers:         listfield.Parse(row.Get("publishers")),
			Genres:             listfield.Parse(row.Get("genres")),
			SupportedLanguages: listfield.Parse(row.Get("supported_languages")),
			ReleaseDate:        parseTime(row.Get("release_date")),
			ReleaseQuarter:     parseText(row.Get("release_date_quarter")),
		}
		if y := parseInt(row.Get("release_date_year")); y != nil {
			v := int(*y)
			g.ReleaseYear = &v
		}
		if m := parseInt(row.Get("release_date_month")); m != nil {
			v := int(*m)
			g.ReleaseMonth = &v
		}
		out[i] = g
	}
	return out, nil
}

// DecodePlayers reads a canonical players table back into records
func DecodePlayers(t *Table) ([]model.Player, error) {
	if err := t.Require(model.PlayerColumns...); err != nil {
		return nil, err
	}
	out := make([]model.Player, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = model.Player{
			PlayerID:    parseInt(row.Get("playerid")),
			Platform:    row.Get("platform").Text(),
			Nickname:    parseText(row.Get("nickname")),
			Country:     parseText(row.Get("country")),
			CreatedDate: parseTime(row.Get("created_date")),
		}
	}
	return out, nil
}

// DecodePurchases reads a canonical purchases table. Rows with an invalid
// identifier are skipped and counted.
func DecodePurchases(t *Table) ([]model.Purchase, int, error) {
	if err := t.Require(model.PurchaseColumns...); err != nil {
		return nil, 0, err
	}
	out := make([]model.Purchase, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		pid, okP := row.Get("playerid").Int()
		gid, okG := row.Get("gameid").Int()
		if !okP || !okG {
			skipped++
			continue
		}
		out = append(out, model.Purchase{PlayerID: pid, GameID: gid, Platform: row.Get("platform").Text()})
	}
	return out, skipped, nil
}

// DecodePrices reads a canonical prices table back into records
func DecodePrices(t *Table) ([]model.Price, error) {
	if err := t.Require(model.PriceColumns...); err != nil {
		return nil, err
	}
	out := make([]model.Price, len(t.Rows))
	for i, row := range t.Rows {
		amounts := make(map[string]*decimal.Decimal, len(model.Currencies))
		for _, cur := range model.Currencies {
			if d, ok := row.Get(cur).Decimal(); ok {
				amounts[cur] = &d
			} else {
				amounts[cur] = nil
			}
		}
		out[i] = model.Price{
			GameID:       parseInt(row.Get("gameid")),
			Platform:     row.Get("platform").Text(),
			Amounts:      amounts,
			DateAcquired: parseTime(row.Get("date_acquired")),
		}
	}
	return out, nil
}

// DecodePopulation reads the external population table. Country names are
// trimmed; a population that is not a whole number becomes null.
func DecodePopulation(t *Table) ([]model.Population, error) {
	if err := t.Require(model.PopulationColumns...); err != nil {
		return nil, err
	}
	out := make([]model.Population, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = model.Population{
			Country:    strings.TrimSpace(row.Get("country").Text()),
			Population: parseInt(row.Get("population")),
		}
	}
	return out, nil
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatSmallInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(v *time.Time, layout string) string {
	if v == nil {
		return ""
	}
	return v.Format(layout)
}

func parseInt(v cell.Value) *int64 {
	i, ok := v.Int()
	if !ok {
		return nil
	}
	return &i
}

func parseText(v cell.Value) *string {
	if v.IsAbsent() {
		return nil
	}
	s := v.Text()
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func parseTime(v cell.Value) *time.Time {
	t, ok := dates.Parse(v)
	if !ok {
		return nil
	}
	return &t
}
