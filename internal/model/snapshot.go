package model

// Fundamentals are the per-symbol valuation fields; each may be missing.
type Fundamentals struct {
	MarketCap *float64 `json:"mcap"`
	PETTM     *float64 `json:"pe_ttm"`
	PB        *float64 `json:"pb"`
	DivYield  *float64 `json:"div_yield"`
	Beta      *float64 `json:"beta"`
}

// SnapshotRow is one instrument in the published snapshot.
type SnapshotRow struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`

	Price  *float64 `json:"price"`
	Ret1   *float64 `json:"ret1d"`
	Ret5   *float64 `json:"ret5d"`
	RSI14  *float64 `json:"rsi14"`
	VolZ   *float64 `json:"vol_z"`
	Sharpe *float64 `json:"sharpe"`

	IV30         *float64 `json:"iv30"`
	IVRank       *float64 `json:"iv_rank"`
	IVPercentile *float64 `json:"iv_percentile"`

	Fundamentals

	News24h *int      `json:"news_24h"`
	Spark30 []float64 `json:"spark30"`
	Hist    *History  `json:"hist,omitempty"`
}

// Snapshot is the cross-sectional output of one pipeline run.
type Snapshot struct {
	RunID    string        `json:"run_id"`
	AsOfUTC  string        `json:"as_of_utc"`
	Interval string        `json:"interval"`
	Period   string        `json:"period"`
	RiskFree float64       `json:"risk_free"`
	Count    int           `json:"count"`
	Data     []SnapshotRow `json:"data"`
}
