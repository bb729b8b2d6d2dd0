package model

// MetricRecord holds the price-derived signals for one symbol at one as-of time.
// A nil field means the value is undefined for the available history.
type MetricRecord struct {
	Price   *float64  `json:"price"`
	Ret1    *float64  `json:"ret1d"`
	Ret5    *float64  `json:"ret5d"`
	RSI14   *float64  `json:"rsi14"`
	VolZ    *float64  `json:"vol_z"`
	Sharpe  *float64  `json:"sharpe"`
	Spark30 []float64 `json:"spark30"`
}

// History is the compact close/volume payload embedded in each snapshot row.
type History struct {
	T []string   `json:"t"`
	C []*float64 `json:"c"`
	V []*float64 `json:"v"`
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }
