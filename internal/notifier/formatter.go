package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/recorder"
)

const topN = 5

// FormatRunSummary formats a finished snapshot into a Telegram message.
func FormatRunSummary(snap *model.Snapshot, took time.Duration) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Market snapshot</b> | %s\n\n", snap.AsOfUTC))
	b.WriteString(fmt.Sprintf("Symbols: %d | %s over %s | rf %.2f%%\n", snap.Count, snap.Interval, snap.Period, snap.RiskFree*100))

	withIV := 0
	for _, r := range snap.Data {
		if r.IV30 != nil {
			withIV++
		}
	}
	coverage := 0.0
	if snap.Count > 0 {
		coverage = float64(withIV) / float64(snap.Count) * 100
	}
	b.WriteString(fmt.Sprintf("IV30 coverage: %d (%.0f%%) | took %s\n", withIV, coverage, took.Round(time.Second)))

	if top := rankBy(snap.Data, func(r model.SnapshotRow) *float64 { return r.IVRank }, true); len(top) > 0 {
		b.WriteString("\n🔥 <b>Highest IV rank:</b>\n")
		for _, r := range top {
			b.WriteString(fmt.Sprintf("  %s: rank %.0f | IV30 %.1f%%\n", html.EscapeString(r.Symbol), *r.IVRank, *r.IV30*100))
		}
	}

	rsi := func(r model.SnapshotRow) *float64 { return r.RSI14 }
	if hot := rankBy(snap.Data, rsi, true); len(hot) > 0 {
		b.WriteString("\n📈 <b>Overbought (RSI14):</b>\n")
		for _, r := range hot {
			b.WriteString(fmt.Sprintf("  %s: %.1f\n", html.EscapeString(r.Symbol), *r.RSI14))
		}
		b.WriteString("\n📉 <b>Oversold (RSI14):</b>\n")
		for _, r := range rankBy(snap.Data, rsi, false) {
			b.WriteString(fmt.Sprintf("  %s: %.1f\n", html.EscapeString(r.Symbol), *r.RSI14))
		}
	}
	return b.String()
}

// rankBy returns up to topN rows with a defined key, ordered by it.
func rankBy(rows []model.SnapshotRow, key func(model.SnapshotRow) *float64, desc bool) []model.SnapshotRow {
	var out []model.SnapshotRow
	for _, r := range rows {
		if key(r) != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return *key(out[i]) > *key(out[j])
		}
		return *key(out[i]) < *key(out[j])
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Status describes the scheduler for the /status command.
type Status struct {
	Running bool
	Last    *recorder.RunSummary
	LastErr error
	Next    time.Time
}

// FormatStatus formats the scheduler status for display.
func FormatStatus(st Status) string {
	var b strings.Builder
	b.WriteString("📦 <b>Snapshot status</b>\n\n")
	if st.Running {
		b.WriteString("A build is running now.\n")
	}
	if st.Last == nil {
		b.WriteString("No completed run yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("Last run: %s\n", st.Last.AsOfUTC))
		b.WriteString(fmt.Sprintf("Rows: %d | took %s\n", st.Last.Count, st.Last.Duration.Round(time.Second)))
	}
	if st.LastErr != nil {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(st.LastErr.Error())))
	}
	if !st.Next.IsZero() {
		b.WriteString(fmt.Sprintf("Next run: %s\n", st.Next.UTC().Format("2006-01-02 15:04 MST")))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n• /snapshot: build a snapshot now\n• /status: last run and next schedule"
}
