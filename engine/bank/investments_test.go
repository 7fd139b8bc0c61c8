package bank

import (
	"errors"
	"testing"
	"time"

	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

func TestInvest_Rejections(t *testing.T) {
	b, reg, _ := newTestBank(t)
	fund(t, reg, "Alice", 4_000)

	if _, err := b.InvestType("Alice", "moderate", 4_999); !errors.Is(err, ledger.ErrBelowMinimumInvestment) {
		t.Errorf("below minimum err = %v", err)
	}
	if _, err := b.InvestType("Alice", "moderate", 5_000); !errors.Is(err, ledger.ErrInsufficientBankFunds) {
		t.Errorf("short bank err = %v", err)
	}
	if _, err := b.InvestType("Alice", "crypto", 5_000); !errors.Is(err, ledger.ErrUnknownInvestmentType) {
		t.Errorf("unknown type err = %v", err)
	}
	if _, err := b.InvestType("Alice", "savings", 1_000); err != nil {
		t.Fatalf("Invest: %v", err)
	}
	if _, err := b.InvestType("Alice", "savings", 1_000); !errors.Is(err, ledger.ErrActiveInvestment) {
		t.Errorf("second investment err = %v", err)
	}
	if got := bankBalance(reg, "Alice"); got != 3_000 {
		t.Errorf("bank = %d, want 3000", got)
	}
}

func TestInvestmentValue_RiskFreeCompounds(t *testing.T) {
	b, reg, clock := newTestBank(t)
	fund(t, reg, "Alice", 10_000)
	if _, err := b.InvestType("Alice", "savings", 10_000); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		elapsed time.Duration
		want    int64
	}{
		{0, 10_000},
		{29 * 24 * time.Hour, 10_000},
		{30 * 24 * time.Hour, 10_200},
		{60 * 24 * time.Hour, 10_404},
		{90 * 24 * time.Hour, 10_612}, // 10612.08
	}
	start := clock.t
	for _, tt := range tests {
		clock.t = start.Add(tt.elapsed)
		got, ok := b.InvestmentValue("Alice")
		if !ok {
			t.Fatal("no investment")
		}
		if got != tt.want {
			t.Errorf("value after %v = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestCurrentValue_AlwaysLoses(t *testing.T) {
	inv := types.Investment{
		Player:         "Alice",
		OriginalAmount: 10_000,
		Rate:           0.10,
		Risk:           1,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	got, realized := CurrentValue(inv, 2)
	// Each losing month costs rate/2: 10000 * 0.95 * 0.95.
	if got != 9_025 {
		t.Errorf("value = %d, want 9025", got)
	}
	if len(realized) != 2 || realized[0] || realized[1] {
		t.Errorf("realized = %v, want [false false]", realized)
	}
}

func TestInvestmentValue_StableAcrossQueries(t *testing.T) {
	b, reg, clock := newTestBank(t)
	fund(t, reg, "Alice", 50_000)
	if _, err := b.InvestType("Alice", "aggressive", 50_000); err != nil {
		t.Fatal(err)
	}
	clock.t = clock.t.Add(6 * InvestmentMonth)

	first, _ := b.InvestmentValue("Alice")
	for i := 0; i < 10; i++ {
		if got, _ := b.InvestmentValue("Alice"); got != first {
			t.Fatalf("query %d = %d, want %d", i, got, first)
		}
	}
	inv, _ := b.Investment("Alice")
	if len(inv.Realized) != 6 {
		t.Fatalf("realized months = %d, want 6", len(inv.Realized))
	}

	// Realized months survive a snapshot round trip and are not redrawn.
	snap := b.Snapshot()
	b2 := New(reg, b.defs, WithClock(clock.Now))
	b2.Restore(snap)
	if got, _ := b2.InvestmentValue("Alice"); got != first {
		t.Errorf("restored value = %d, want %d", got, first)
	}
}

func TestCurrentValue_RealizedMonthsAreKept(t *testing.T) {
	inv := types.Investment{
		Player:         "Alice",
		OriginalAmount: 1_000,
		Rate:           0.10,
		Risk:           0, // fresh draws would always gain
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Realized:       []bool{false},
	}
	got, realized := CurrentValue(inv, 2)
	// Month 0 was a recorded loss, month 1 a fresh gain: 1000 * 0.95 * 1.1.
	if got != 1_045 {
		t.Errorf("value = %d, want 1045", got)
	}
	if len(realized) != 2 || realized[0] || !realized[1] {
		t.Errorf("realized = %v, want [false true]", realized)
	}
}

func TestWithdrawInvestment(t *testing.T) {
	b, reg, clock := newTestBank(t)
	fund(t, reg, "Alice", 10_000)
	moneyBefore := reg.Global().TotalMoney
	if _, err := b.InvestType("Alice", "savings", 10_000); err != nil {
		t.Fatal(err)
	}
	clock.t = clock.t.Add(InvestmentMonth)

	res, err := b.WithdrawInvestment("Alice")
	if err != nil {
		t.Fatalf("WithdrawInvestment: %v", err)
	}
	if res.PaidOut != 10_200 || res.Profit != 200 {
		t.Errorf("result = %+v, want paid 10200 profit 200", res)
	}
	if got := bankBalance(reg, "Alice"); got != 10_200 {
		t.Errorf("bank = %d, want 10200", got)
	}
	if got, want := reg.Global().TotalMoney, moneyBefore+200; got != want {
		t.Errorf("totalMoney = %d, want %d", got, want)
	}
	if _, ok := b.Investment("Alice"); ok {
		t.Error("investment still exists")
	}
	if _, err := b.WithdrawInvestment("Alice"); !errors.Is(err, ledger.ErrNoActiveInvestment) {
		t.Errorf("err = %v, want ErrNoActiveInvestment", err)
	}
}

func TestElapsedMonths(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{start.Add(-time.Hour), 0},
		{start, 0},
		{start.Add(InvestmentMonth - time.Second), 0},
		{start.Add(InvestmentMonth), 1},
		{start.Add(95 * 24 * time.Hour), 3},
	}
	for _, tt := range tests {
		if got := ElapsedMonths(start, tt.now); got != tt.want {
			t.Errorf("ElapsedMonths(%v) = %d, want %d", tt.now.Sub(start), got, tt.want)
		}
	}
}
