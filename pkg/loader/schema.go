package loader

// Table names in dependency order. Truncation runs in reverse.
const (
	TableGames      = "games"
	TablePlayers    = "players"
	TablePurchases  = "purchases"
	TablePrices     = "prices"
	TablePopulation = "population"
)

var loadOrder = []string{TableGames, TablePlayers, TablePurchases, TablePrices, TablePopulation}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		gameid BIGINT NOT NULL,
		platform TEXT NOT NULL,
		platform_raw TEXT,
		title TEXT,
		developers TEXT,
		publishers TEXT,
		genres TEXT,
		supported_languages TEXT,
		release_date DATE,
		release_date_year INTEGER,
		release_date_month INTEGER,
		release_date_quarter TEXT,
		PRIMARY KEY (gameid, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		playerid BIGINT NOT NULL,
		platform TEXT NOT NULL,
		nickname TEXT,
		country TEXT,
		created_date TIMESTAMP,
		PRIMARY KEY (playerid, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		playerid BIGINT NOT NULL,
		gameid BIGINT NOT NULL,
		platform TEXT NOT NULL,
		FOREIGN KEY (playerid, platform) REFERENCES players (playerid, platform),
		FOREIGN KEY (gameid, platform) REFERENCES games (gameid, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS prices (
		gameid BIGINT NOT NULL,
		platform TEXT NOT NULL,
		usd REAL,
		eur REAL,
		gbp REAL,
		jpy REAL,
		rub REAL,
		date_acquired TIMESTAMP,
		PRIMARY KEY (gameid, platform),
		FOREIGN KEY (gameid, platform) REFERENCES games (gameid, platform)
	)`,
	`CREATE TABLE IF NOT EXISTS population (
		country TEXT PRIMARY KEY,
		population BIGINT
	)`,
}

const truncateAll = "TRUNCATE TABLE purchases, prices, players, games, population"
