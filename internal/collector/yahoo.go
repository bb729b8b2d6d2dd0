package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MarketSnapshot/internal/fundamentals"
	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/metrics"
	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/series"
)

var errNoData = errors.New("yahoo: no data returned")

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client *http.Client
	// Hosts are tried in order until one answers 200.
	Hosts     []string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	limiter *rate.Limiter
	log     *logger.Entry
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. rps bounds the
// request rate across all goroutines sharing the fetcher.
func NewYahooFetcher(proxyURL string, rps float64, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Hosts: []string{
			"https://query2.finance.yahoo.com",
			"https://query1.finance.yahoo.com",
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     logger.GetLogger().WithComponent("yahoo"),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []any `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				Calls []model.OptionQuote `json:"calls"`
				Puts  []model.OptionQuote `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

type yahooQuote struct {
	QuoteResponse struct {
		Result []map[string]any `json:"result"`
		Error  *yahooError      `json:"error"`
	} `json:"quoteResponse"`
}

// get issues a GET for path against each host in turn and decodes the
// first 200 response into out.
func (f *YahooFetcher) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	var lastErr error
	for _, host := range f.Hosts {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		u := host + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.Client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("yahoo %s: %w", endpoint, err)
			metrics.IncrementFetchError(endpoint)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("yahoo %s read body: %w", endpoint, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("yahoo %s: status %d", endpoint, resp.StatusCode)
			metrics.IncrementFetchError(endpoint)
			f.log.WithFields(logger.Fields{"host": host, "status": resp.StatusCode}).Debugf("%s %s failed", endpoint, path)
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("yahoo %s decode: %w", endpoint, err)
		}
		return nil
	}
	return lastErr
}

// FetchHistory downloads the chart for symbol. Share-class symbols such as
// BRK-B are retried in dotted form when the dashed one yields nothing.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, interval, period string) (series.Table, error) {
	tbl, err := f.fetchChart(ctx, f.yahooSymbol(symbol), interval, period)
	if err == nil || !strings.Contains(symbol, "-") || ctx.Err() != nil {
		return tbl, err
	}
	alt := strings.ReplaceAll(symbol, "-", ".")
	f.log.WithFields(logger.Fields{"symbol": symbol, "alt": alt}).Debug("retrying chart with dotted symbol")
	if t, altErr := f.fetchChart(ctx, alt, interval, period); altErr == nil {
		return t, nil
	}
	return tbl, err
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, period string) (series.Table, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", interval)
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits,capitalGains")

	var chart yahooChart
	if err := f.get(ctx, "chart", "/v8/finance/chart/"+url.PathEscape(symbol), q, &chart); err != nil {
		return series.Table{}, err
	}
	if chart.Chart.Error != nil {
		return series.Table{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	return chartTable(chart)
}

// chartTable converts a chart payload into a raw table. The adjusted
// close, when present, is used as Close.
func chartTable(chart yahooChart) (series.Table, error) {
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return series.Table{}, errNoData
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return series.Table{}, errNoData
	}
	quote := result.Indicators.Quote[0]

	closes := quote.Close
	if adj := result.Indicators.AdjClose; len(adj) > 0 && adj[0].AdjClose != nil {
		closes = adj[0].AdjClose
	}

	tbl := series.Table{Index: make([]time.Time, len(result.Timestamp))}
	for i, ts := range result.Timestamp {
		tbl.Index[i] = time.Unix(ts, 0).UTC()
	}
	tbl.Columns = []series.Column{
		{Name: "Open", Cells: quote.Open},
		{Name: "High", Cells: quote.High},
		{Name: "Low", Cells: quote.Low},
		{Name: "Close", Cells: closes},
		{Name: "Volume", Cells: quote.Volume},
	}
	return tbl, nil
}

func (f *YahooFetcher) fetchOptions(ctx context.Context, symbol string, date int64) (*yahooOptions, error) {
	q := url.Values{}
	if date > 0 {
		q.Set("date", strconv.FormatInt(date, 10))
	}
	var opts yahooOptions
	if err := f.get(ctx, "options", "/v7/finance/options/"+url.PathEscape(f.yahooSymbol(symbol)), q, &opts); err != nil {
		return nil, err
	}
	if opts.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", opts.OptionChain.Error.Description)
	}
	if len(opts.OptionChain.Result) == 0 {
		return nil, errNoData
	}
	return &opts, nil
}

// Expirations lists the listed option expirations as YYYY-MM-DD.
func (f *YahooFetcher) Expirations(ctx context.Context, symbol string) ([]string, error) {
	opts, err := f.fetchOptions(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}
	dates := opts.OptionChain.Result[0].ExpirationDates
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, time.Unix(d, 0).UTC().Format(time.DateOnly))
	}
	return out, nil
}

// OptionChain fetches calls and puts for one expiration.
func (f *YahooFetcher) OptionChain(ctx context.Context, symbol, expiration string) (*model.OptionChain, error) {
	day, err := time.Parse(time.DateOnly, expiration)
	if err != nil {
		return nil, fmt.Errorf("parse expiration %q: %w", expiration, err)
	}
	opts, err := f.fetchOptions(ctx, symbol, day.Unix())
	if err != nil {
		return nil, err
	}
	chain := &model.OptionChain{Expiration: expiration}
	if o := opts.OptionChain.Result[0].Options; len(o) > 0 {
		chain.Calls = o[0].Calls
		chain.Puts = o[0].Puts
	}
	return chain, nil
}

// Fundamentals reads the quote endpoint. The full quote is exposed as the
// info view and a handful of snake_case keys as the fast view.
func (f *YahooFetcher) Fundamentals(ctx context.Context, symbol string) (*Profile, error) {
	q := url.Values{}
	q.Set("symbols", f.yahooSymbol(symbol))
	var quote yahooQuote
	if err := f.get(ctx, "quote", "/v7/finance/quote", q, &quote); err != nil {
		return nil, err
	}
	if quote.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", quote.QuoteResponse.Error.Description)
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return nil, errNoData
	}
	info := quote.QuoteResponse.Result[0]
	return &Profile{
		Name:   firstString(info, "longName", "shortName", "symbol"),
		Sector: firstString(info, "sector"),
		Sources: fundamentals.Sources{
			Fast: map[string]any{
				"market_cap": info["marketCap"],
				"last_price": info["regularMarketPrice"],
			},
			Info: info,
		},
	}, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
