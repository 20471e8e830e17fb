package housewatcher

// TransactionRecord is one entry of the all_transactions.json feed. The feed
// is loosely typed: dates come in several layouts and most fields may be null.
type TransactionRecord struct {
	DisclosureYear     int    `json:"disclosure_year"`
	DisclosureDate     string `json:"disclosure_date"`
	TransactionDate    string `json:"transaction_date"`
	Owner              string `json:"owner"`
	Ticker             string `json:"ticker"`
	AssetDescription   string `json:"asset_description"`
	Type               string `json:"type"`
	Amount             string `json:"amount"`
	Representative     string `json:"representative"`
	District           string `json:"district"`
	State              string `json:"state"`
	PtrLink            string `json:"ptr_link"`
	CapGainsOver200USD bool   `json:"cap_gains_over_200_usd"`
	Industry           string `json:"industry"`
	Sector             string `json:"sector"`
	Party              string `json:"party"`
}
