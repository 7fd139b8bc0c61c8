package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/econcore/engine/ledger"
)

// Usage lists the console admin subcommands.
var Usage = []string{
	"give <player> <amount>, take <player> <amount>, set <player> wallet|bank <amount>",
	"reset accounts|bank|exchange|shop|all, save, reload, integrity",
	"backup, restore [id], backups, find <query>",
}

// Run executes one console admin command and returns its output lines.
func (a *Admin) Run(ctx context.Context, args []string) []string {
	if len(args) == 0 {
		return Usage
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	amount := func(i int) (int64, bool) {
		n, err := strconv.ParseInt(strings.ReplaceAll(arg(i), ",", ""), 10, 64)
		return n, err == nil
	}

	switch strings.ToLower(args[0]) {
	case "give":
		n, ok := amount(2)
		if arg(1) == "" || !ok {
			return []string{"Usage: give <player> <amount>"}
		}
		w, err := a.GiveMoney(arg(1), n)
		if err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{fmt.Sprintf("Gave %s to %s. Wallet: %s", ledger.FormatMoney(n), arg(1), ledger.FormatMoney(w))}

	case "take":
		n, ok := amount(2)
		if arg(1) == "" || !ok {
			return []string{"Usage: take <player> <amount>"}
		}
		if err := a.TakeMoney(arg(1), n); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{fmt.Sprintf("Took %s from %s.", ledger.FormatMoney(n), arg(1))}

	case "set":
		n, ok := amount(3)
		if arg(1) == "" || !ok {
			return []string{"Usage: set <player> wallet|bank <amount>"}
		}
		if err := a.SetBalance(arg(1), Balance(arg(2)), n); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{fmt.Sprintf("Set %s %s to %s.", arg(1), strings.ToLower(arg(2)), ledger.FormatMoney(max(n, 0)))}

	case "reset":
		resets := map[string]func(context.Context) error{
			"accounts": a.ResetAccounts,
			"bank":     a.ResetBank,
			"exchange": a.ResetExchange,
			"shop":     a.ResetShop,
			"all":      a.ResetAll,
		}
		fn, ok := resets[strings.ToLower(arg(1))]
		if !ok {
			return []string{"Usage: reset accounts|bank|exchange|shop|all"}
		}
		if err := fn(ctx); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{fmt.Sprintf("Reset %s.", strings.ToLower(arg(1)))}

	case "save":
		if err := a.ForceSave(ctx); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{"Economy saved."}

	case "reload":
		if err := a.ForceReload(ctx); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{"Economy reloaded."}

	case "integrity":
		return a.CheckIntegrity().Lines()

	case "backup":
		id, err := a.CreateBackup(ctx)
		if err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{"Backup " + id + " created."}

	case "restore":
		if err := a.RestoreBackup(ctx, arg(1)); err != nil {
			return []string{ledger.Message(err)}
		}
		return []string{"Backup restored."}

	case "backups":
		ids, err := a.ListBackups(ctx)
		if err != nil {
			return []string{ledger.Message(err)}
		}
		if len(ids) == 0 {
			return []string{"No archived backups."}
		}
		return ids

	case "find":
		q := strings.Join(args[1:], " ")
		if q == "" {
			return []string{"Usage: find <query>"}
		}
		names := a.FindPlayers(q, 10)
		if len(names) == 0 {
			return []string{"No matching players."}
		}
		return []string{strings.Join(names, ", ")}
	}
	return append([]string{fmt.Sprintf("Unknown admin command %q.", args[0])}, Usage...)
}
