package model

// Entity names one canonical table
type Entity string

const (
	EntityGames     Entity = "games"
	EntityPlayers   Entity = "players"
	EntityPurchases Entity = "purchases"
	EntityPrices    Entity = "prices"
)

// Column orders shared by the CSV encoders and the relational loader
var (
	GameColumns = []string{
		"gameid", "platform", "platform_raw", "title",
		"developers", "publishers", "genres", "supported_languages",
		"release_date", "release_date_year", "release_date_month", "release_date_quarter",
	}

	PlayerColumns = []string{"playerid", "platform", "nickname", "country", "created_date"}

	PurchaseColumns = []string{"playerid", "gameid", "platform"}

	PriceColumns = append(append([]string{"gameid", "platform"}, Currencies...), "date_acquired")

	PopulationColumns = []string{"country", "population"}
)

// ListColumns are the game columns holding serialized sequences
var ListColumns = []string{"developers", "publishers", "genres", "supported_languages"}
