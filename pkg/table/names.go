package table

// Master output file names
const (
	GamesMaster        = "games_master.csv"
	PlayersMaster      = "players_master.csv"
	PurchasesMaster    = "purchases_master.csv"
	PriceHistoryMaster = "prices_master_history.csv"
	PriceLatestMaster  = "prices_master_latest.csv"
	RunReport          = "run_report.json"
)

// PopulationFile is the external country population table
const PopulationFile = "population_clean.csv"

// SourceFiles names the per-source output files of one catalog
type SourceFiles struct {
	Games        string
	Players      string
	Purchases    string
	PriceHistory string
	PriceLatest  string
}

// FilesFor returns the per-source output names for a source key
func FilesFor(key string) SourceFiles {
	return SourceFiles{
		Games:        "games_" + key + "_clean.csv",
		Players:      "players_" + key + ".csv",
		Purchases:    "purchases_" + key + ".csv",
		PriceHistory: "prices_" + key + "_clean.csv",
		PriceLatest:  "prices_" + key + "_latest.csv",
	}
}
