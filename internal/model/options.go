package model

// OptionKind distinguishes calls from puts.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// OptionQuote is one contract at one expiration.
type OptionQuote struct {
	Strike            float64  `json:"strike"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	LastPrice         float64  `json:"lastPrice"`
	ImpliedVolatility *float64 `json:"impliedVolatility,omitempty"`
}

// OptionChain is the call and put sets for a single expiration date (YYYY-MM-DD).
type OptionChain struct {
	Expiration string
	Calls      []OptionQuote
	Puts       []OptionQuote
}

// IVResult is the normalized implied-volatility triple for one symbol.
type IVResult struct {
	IV30         *float64 `json:"iv30"`
	IVRank       *float64 `json:"iv_rank"`
	IVPercentile *float64 `json:"iv_percentile"`
}
