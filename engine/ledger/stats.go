package ledger

import (
	"time"

	"github.com/nathoo/econcore/types"
)

// DateKey returns the calendar-day key used for daily resets and limits.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Global returns a copy of the global stats.
func (r *Registry) Global() types.GlobalStats {
	return r.stats
}

// CheckDailyReset zeroes the daily transaction counter the first time it
// observes a new calendar day. Safe to call any number of times.
func (r *Registry) CheckDailyReset() bool {
	today := DateKey(r.now())
	if r.stats.LastResetDate == today {
		return false
	}
	r.stats.DailyTransactions = 0
	r.stats.LastResetDate = today
	r.log.Info("daily stats reset", "date", today)
	r.changed()
	return true
}
