package options

import (
	"math"
	"time"
)

const (
	expiryLayout = "2006-01-02"
	// TargetDays is the tenor IV30 is measured at.
	TargetDays = 30
)

// ChooseExpiration picks the expiration (YYYY-MM-DD) closest to
// TargetDays calendar days after today, among those more than one day
// out. Unparseable dates are skipped. ok is false when none qualify.
func ChooseExpiration(expiries []string, today time.Time) (string, int, bool) {
	base := utcDate(today)
	best, bestDTE, bestErr := "", 0, math.MaxInt
	for _, e := range expiries {
		d, err := time.Parse(expiryLayout, e)
		if err != nil {
			continue
		}
		dte := DaysBetween(base, d)
		diff := dte - TargetDays
		if diff < 0 {
			diff = -diff
		}
		if dte > 1 && diff < bestErr {
			best, bestDTE, bestErr = e, dte, diff
		}
	}
	return best, bestDTE, best != ""
}

// DaysBetween counts calendar days from a to b (UTC dates).
func DaysBetween(a, b time.Time) int {
	return int(utcDate(b).Sub(utcDate(a)).Hours() / 24)
}

func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
