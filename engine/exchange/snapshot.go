package exchange

import (
	"time"

	"github.com/nathoo/econcore/types"
)

// RateState is the persisted part of a rate. Prices and limits always come
// from the catalog.
type RateState struct {
	Fluctuation float64   `json:"fluctuation"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

// Snapshot is the persisted form of the market.
type Snapshot struct {
	ExchangeRates   map[string]RateState                   `json:"exchangeRates"`
	DailyLimits     map[string]map[string]types.DailyUsage `json:"dailyLimits"`
	PlayerExchanges map[string][]types.ExchangeRecord      `json:"playerExchanges"`
}

// Snapshot returns copies of the market state.
func (m *Market) Snapshot() Snapshot {
	s := Snapshot{
		ExchangeRates:   make(map[string]RateState, len(m.rates)),
		DailyLimits:     make(map[string]map[string]types.DailyUsage, len(m.usage)),
		PlayerExchanges: make(map[string][]types.ExchangeRecord, len(m.history)),
	}
	for id, r := range m.rates {
		s.ExchangeRates[id] = RateState{Fluctuation: r.Fluctuation, LastUpdate: r.LastUpdate}
	}
	for player, byItem := range m.usage {
		out := make(map[string]types.DailyUsage, len(byItem))
		for id, u := range byItem {
			out[id] = *u
		}
		s.DailyLimits[player] = out
	}
	for player, h := range m.history {
		s.PlayerExchanges[player] = append([]types.ExchangeRecord{}, h...)
	}
	return s
}

// Restore rebuilds the market from the catalog and merges s over it: only
// fluctuation and its timestamp are taken for known items.
func (m *Market) Restore(s Snapshot) {
	m.resetState()
	for id, st := range s.ExchangeRates {
		r, ok := m.rates[id]
		if !ok {
			continue
		}
		r.Fluctuation = clamp(st.Fluctuation)
		if !st.LastUpdate.IsZero() {
			r.LastUpdate = st.LastUpdate
		}
	}
	for player, byItem := range s.DailyLimits {
		live := make(map[string]*types.DailyUsage, len(byItem))
		for id, u := range byItem {
			live[id] = &u
		}
		m.usage[player] = live
	}
	for player, h := range s.PlayerExchanges {
		if over := len(h) - m.historyCap; over > 0 {
			h = h[over:]
		}
		m.history[player] = append([]types.ExchangeRecord{}, h...)
	}
}

// Reset restores catalog prices and drops all usage and history.
func (m *Market) Reset() {
	m.resetState()
	m.changed()
}
