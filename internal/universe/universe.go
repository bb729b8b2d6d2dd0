// Package universe assembles the list of symbols a snapshot covers.
package universe

import "strings"

// SP500 is an offline sample of S&P 500 constituents. Build dedups it.
var SP500 = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "META", "GOOGL", "GOOG", "AVGO", "BRK-B", "LLY", "JPM", "TSLA", "V", "WMT", "XOM", "PG", "UNH", "MA",
	"COST", "ORCL", "HD", "JNJ", "MRK", "BAC", "ADBE", "PEP", "KO", "CSCO", "CVX", "CRM", "NFLX", "LIN", "AMD", "WFC", "TMO", "PM",
	"INTU", "TXN", "ABT", "ACN", "IBM", "DIS", "VZ", "CAT", "MCD", "PFE", "HON", "LOW", "QCOM", "AMAT", "BKNG", "GE", "SPGI", "MS",
	"GS", "BA", "ISRG", "LMT", "NOW", "DE", "PLD", "AXP", "AMGN", "MDT", "SYK", "ETN", "BLK", "FI", "ADI", "UBER", "RTX", "TJX",
	"ELV", "CMCSA", "MMC", "GILD", "EQIX", "CB", "NSC", "PGR", "PH", "CME", "SO", "T", "BDX", "SHW", "ADP", "MO", "MU", "REGN",
	"USB", "VRTX", "DUK", "CCI", "APD", "PNC", "NKE", "CI", "ZTS", "CL", "ICE", "WM", "FDX", "AON", "MAR", "EOG", "HCA", "HUM",
	"CSX", "PSA", "ITW", "COF", "MPC", "EMR", "MNST", "ORLY", "KLAC", "MCO", "AEP", "OXY", "ROP", "MMC", "KDP", "DHR", "EA", "ALGN",
	"FTNT", "CRWD", "DDOG", "ABNB", "SNPS", "CDNS", "PANW", "ANET", "INTC", "LRCX", "AVB", "KHC", "MDLZ", "GM", "F", "HPQ", "TGT", "ROST",
	"PAYX", "AZO", "DLTR", "CMG", "SBUX", "MRNA", "NEM", "FISV", "HPE", "HIG", "KEYS", "LULU", "DXCM", "CSGP", "POOL", "RMD", "HSY", "CPRT",
	"CTAS", "IDXX", "ODFL", "PWR", "TRV", "NOC", "AIG", "CARR", "AFL", "ALL", "PRU", "MET", "TRGP", "WELL", "VLO", "DVN", "SLB", "HAL",
	"PSX", "NUE", "STLD", "DD", "DOW", "CTRA", "FCX", "ALB", "DG", "KMB", "GIS", "SYY", "KR", "CNC", "WBA", "DLR", "VICI", "EXC",
	"ED", "NEE", "PCG", "PEG", "AEE", "EIX", "SRE", "AWK", "LNT", "AEP", "CEG", "D", "AES", "FE", "TSN", "CPB", "MKC", "HSIC",
	"XRAY", "BMY", "GSK", "ABBV", "ZBH", "TROW", "SCHW", "BK", "NDAQ", "ICE", "CBOE", "BEN", "MSCI", "PAYC", "FICO", "ADSK", "WDAY", "CTSH",
	"CDW", "TDY", "TT", "IR", "CMI", "PCAR", "HES", "FANG", "CF", "MOS", "NTR", "PPG", "SHW", "BALL", "AMCR", "WY", "DHI", "LEN",
	"PHM", "NVR", "MLM", "VMC", "MAS", "JCI", "ETSY", "EBAY", "ULTA", "KMX", "RCL", "CCL", "NCLH", "HLT", "H", "LVS", "MGM", "WYNN",
	"EXPE", "BKNG", "UAL", "DAL", "AAL", "LUV", "AER", "TXT", "TDG", "HEI", "SPG", "FRT", "REG", "KIM", "O", "VTR", "AVB", "EQR",
	"ESS", "UDR", "ARE", "BXP", "VNO", "PEAK", "HST", "MAA", "AMT", "CCI", "PLD", "PSA", "EQIX", "NSA", "CPT", "INVH", "BERY", "PKG",
	"IP", "WRK", "EMN", "IFF", "ALB", "LYB", "APTV", "BWA", "ALV", "LEA", "HOG", "WHR", "BBY", "TAP", "DEO", "STZ", "MKC", "SJM",
	"CHD", "K", "CPB", "KHC", "MDLZ", "CLX", "CL", "EL", "PG", "KMB", "PEP", "KO", "GIS", "TSCO", "WDC", "STX", "NTAP", "ANSS",
	"PTC", "ADBE", "CRM", "INTU", "MSFT", "ORCL", "SAP", "IBM", "ACN", "NOW", "SNOW", "MDB", "PANW", "ZS", "OKTA", "CRWD", "NET", "DDOG",
	"FTNT", "GOOGL", "META", "AAPL", "AMZN", "TSLA", "NVDA",
}

var DOW30 = []string{
	"AAPL", "MSFT", "NKE", "V", "WMT", "JPM", "DIS", "HD", "KO", "PG", "CRM", "INTC", "AMGN", "CAT", "MCD", "TRV", "HON",
	"CSCO", "IBM", "MRK", "JNJ", "MMM", "AXP", "BA", "CVX", "GS", "UNH", "WBA", "DOW", "RTX",
}

var NAS100 = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "META", "GOOGL", "GOOG", "AVGO", "ADBE", "PEP", "CSCO", "NFLX", "AMD", "INTC", "QCOM",
	"TXN", "AMAT", "PDD", "BKNG", "KDP", "SBUX", "PYPL", "ADI", "MDLZ", "LRCX", "MRVL", "REGN", "VRTX", "CSGP", "CRWD",
}

// Extra holds the volatility index and crypto pairs tracked alongside equities.
var Extra = []string{"^VIX", "BTC-USD", "ETH-USD"}

var seeds = map[string][]string{
	"SP500":  SP500,
	"DOW30":  DOW30,
	"NAS100": NAS100,
	"EXTRA":  Extra,
}

// Build concatenates the named seed lists and explicit symbols, then
// dedups. Unknown source names are ignored. A positive limit truncates
// the result.
func Build(sources, symbols []string, limit int) []string {
	var all []string
	for _, src := range sources {
		all = append(all, seeds[strings.ToUpper(strings.TrimSpace(src))]...)
	}
	all = append(all, symbols...)
	out := Dedup(all)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Dedup upper-cases and trims symbols, writes share-class dots as dashes
// (BRK.B -> BRK-B) and drops blanks and repeats, keeping first-seen order.
func Dedup(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), ".", "-")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
