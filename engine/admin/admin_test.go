package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/engine/save"
	"github.com/nathoo/econcore/engine/state"
	"github.com/nathoo/econcore/store"
)

func newAdmin(t *testing.T) (*Admin, *store.Memory, *store.Memory) {
	t.Helper()
	primary, backups := store.NewMemory(), store.NewMemory()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	e := engine.New(state.DefaultDefs(), primary, engine.WithClock(func() time.Time { return now }))
	return New(e, WithBackupStore(backups)), primary, backups
}

func wallet(a *Admin, player string) int64 {
	var w int64
	a.e.View(func(tx *engine.Tx) error {
		acc, _ := tx.Registry.Account(player)
		w = acc.Wallet
		return nil
	})
	return w
}

func TestGiveAndTakeMoney(t *testing.T) {
	a, _, _ := newAdmin(t)

	got, err := a.GiveMoney("alice", 500)
	if err != nil {
		t.Fatalf("GiveMoney: %v", err)
	}
	if got != 1500 {
		t.Errorf("wallet = %d, want 1500", got)
	}

	if err := a.TakeMoney("alice", 5000); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("TakeMoney(5000) err = %v, want ErrInsufficientFunds", err)
	}
	if err := a.TakeMoney("alice", 0); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("TakeMoney(0) err = %v, want ErrInvalidAmount", err)
	}
	if err := a.TakeMoney("alice", 200); err != nil {
		t.Fatalf("TakeMoney(200): %v", err)
	}
	if w := wallet(a, "alice"); w != 1300 {
		t.Errorf("wallet = %d, want 1300", w)
	}
	if _, err := a.GiveMoney("alice", -1); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("GiveMoney(-1) err = %v, want ErrInvalidAmount", err)
	}
}

func TestSetBalanceAndIntegrity(t *testing.T) {
	a, _, _ := newAdmin(t)

	if err := a.SetBalance("alice", Bank, 300); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if err := a.SetBalance("alice", Wallet, -50); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if w := wallet(a, "alice"); w != 0 {
		t.Errorf("wallet = %d, want 0", w)
	}
	if err := a.SetBalance("alice", "vault", 1); err == nil {
		t.Error("SetBalance(vault) succeeded, want error")
	}

	r := a.CheckIntegrity()
	if r.Players != 1 {
		t.Errorf("Players = %d, want 1", r.Players)
	}
	if r.RecordedMoney != 1000 || r.Circulation != 300 || r.Drift != 700 {
		t.Errorf("money = %d/%d/%d, want 1000/300/700", r.RecordedMoney, r.Circulation, r.Drift)
	}
	if !r.Clean() {
		t.Errorf("report not clean: %v", r.Lines())
	}
}

func TestResetAccountsErasesKey(t *testing.T) {
	a, primary, _ := newAdmin(t)
	ctx := context.Background()

	if _, err := a.GiveMoney("alice", 10); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := primary.Get(ctx, save.KeyEconomy); !ok {
		t.Fatal("economy key not written after grant")
	}

	if err := a.ResetAccounts(ctx); err != nil {
		t.Fatalf("ResetAccounts: %v", err)
	}
	if _, ok, _ := primary.Get(ctx, save.KeyEconomy); ok {
		t.Error("economy key still present after reset")
	}
	if got := a.FindPlayers("alice", 0); len(got) != 0 {
		t.Errorf("FindPlayers after reset = %v, want none", got)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	a, primary, _ := newAdmin(t)
	ctx := context.Background()

	if _, err := a.GiveMoney("alice", 500); err != nil {
		t.Fatal(err)
	}
	id, err := a.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}
	if _, ok, _ := primary.Get(ctx, save.KeyBackup); !ok {
		t.Error("economyBackup key not written")
	}

	ids, err := a.ListBackups(ctx)
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Errorf("ListBackups = %v, want [%s]", ids, id)
	}

	if err := a.TakeMoney("alice", 1000); err != nil {
		t.Fatal(err)
	}
	if err := a.RestoreBackup(ctx, id); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if w := wallet(a, "alice"); w != 1500 {
		t.Errorf("wallet after restore = %d, want 1500", w)
	}

	if err := a.TakeMoney("alice", 100); err != nil {
		t.Fatal(err)
	}
	if err := a.RestoreBackup(ctx, ""); err != nil {
		t.Fatalf("RestoreBackup(primary): %v", err)
	}
	if w := wallet(a, "alice"); w != 1500 {
		t.Errorf("wallet after primary restore = %d, want 1500", w)
	}

	if err := a.RestoreBackup(ctx, "bkp_missing"); !errors.Is(err, ErrNoBackup) {
		t.Errorf("RestoreBackup(missing) err = %v, want ErrNoBackup", err)
	}
}

func TestFindPlayers(t *testing.T) {
	a, _, _ := newAdmin(t)
	for _, p := range []string{"alice", "alicia", "bob"} {
		if _, err := a.GiveMoney(p, 1); err != nil {
			t.Fatal(err)
		}
	}

	got := a.FindPlayers("ALI", 0)
	if len(got) != 2 {
		t.Fatalf("FindPlayers(ALI) = %v, want 2 matches", got)
	}
	for _, name := range got {
		if name == "bob" {
			t.Errorf("FindPlayers(ALI) matched bob")
		}
	}
	if got := a.FindPlayers("ali", 1); len(got) != 1 {
		t.Errorf("FindPlayers limit 1 = %v", got)
	}
	if got := a.FindPlayers("zzz", 0); len(got) != 0 {
		t.Errorf("FindPlayers(zzz) = %v, want none", got)
	}
}

func TestRunConsole(t *testing.T) {
	a, _, _ := newAdmin(t)
	ctx := context.Background()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"give", "alice", "500"}, "Gave $500 to alice. Wallet: $1.5K"},
		{[]string{"take", "alice", "99999"}, ledger.Message(ledger.ErrInsufficientFunds)},
		{[]string{"set", "alice", "bank", "50"}, "Set alice bank to $50."},
		{[]string{"reset", "exchange"}, "Reset exchange."},
		{[]string{"reset", "moon"}, "Usage: reset accounts|bank|exchange|shop|all"},
		{[]string{"find", "ali"}, "alice"},
		{[]string{"give", "alice"}, "Usage: give <player> <amount>"},
	}
	for _, tt := range tests {
		out := a.Run(ctx, tt.args)
		if len(out) == 0 || out[0] != tt.want {
			t.Errorf("Run(%v) = %v, want %q", tt.args, out, tt.want)
		}
	}

	if out := a.Run(ctx, nil); len(out) != len(Usage) {
		t.Errorf("Run(nil) = %v, want usage", out)
	}
}
