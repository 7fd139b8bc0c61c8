// Package cli provides the line-oriented console front-end: one player at
// a time, economy commands go to the engine, /meta commands drive the
// session and the admin layer.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/econcore/engine"
	"github.com/nathoo/econcore/engine/admin"
	"github.com/nathoo/econcore/engine/ledger"
	"github.com/nathoo/econcore/types"
)

var systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)

// CLI handles terminal interaction for one player.
type CLI struct {
	Engine    *engine.Engine
	Admin     *admin.Admin // nil disables /admin
	Player    string
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	Styled    bool   // render system lines with lipgloss; set when Out is a terminal
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI for player wired to stdin/stdout.
func New(eng *engine.Engine, adm *admin.Admin, player string) *CLI {
	return &CLI{
		Engine: eng,
		Admin:  adm,
		Player: player,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run fires player_join, then loops: prompt, input, dispatch, output. It
// returns on EOF, /quit, or ctx cancellation.
func (c *CLI) Run(ctx context.Context) {
	c.join()

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		c.print(c.Player + "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			handled, quit := c.handleMeta(ctx, input)
			if quit {
				return
			}
			if handled {
				continue
			}
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(c.Player, input)
		c.printResult(result)
		if c.Trace {
			for _, line := range engine.TraceLines(result) {
				c.printLine(line)
			}
		}
	}
}

func (c *CLI) join() {
	c.printResult(c.Engine.Fire(types.Event{Type: "player_join", Player: c.Player}))
	c.printResult(c.Engine.Step(c.Player, "balance"))
}

// metaCommand is one /command understood by the console itself.
type metaCommand struct {
	usage string // shown by /help; the first word is the command
	help  string
	arg   bool // requires at least one argument
	run   func(c *CLI, ctx context.Context, args []string) (quit bool)
}

var metaCommands []metaCommand

func init() {
	metaCommands = []metaCommand{
		{usage: "/as <player>", help: "Switch player (fires player_join)", arg: true, run: (*CLI).metaAs},
		{usage: "/give <item> [n]", help: "Put items in your inventory", arg: true, run: (*CLI).metaGive},
		{usage: "/inv", help: "List your inventory", run: (*CLI).metaInventory},
		{usage: "/tag <tag>", help: "Tag yourself for scripted handlers", arg: true, run: (*CLI).metaTag},
		{usage: "/event <type>", help: "Fire a host event (npc_interact, item_use, chat)", arg: true, run: (*CLI).metaEvent},
		{usage: "/save", help: "Write every subsystem", run: (*CLI).metaSave},
		{usage: "/load", help: "Reload every subsystem", run: (*CLI).metaLoad},
		{usage: "/admin <cmd>", help: "Admin commands (/admin for the list)", run: (*CLI).metaAdmin},
		{usage: "/trace", help: "Toggle effect/event trace output", run: (*CLI).metaTrace},
		{usage: "/help", help: "Show this list", run: (*CLI).metaHelp},
		{usage: "/quit", help: "Exit", run: (*CLI).metaQuit},
	}
}

var metaAliases = map[string]string{"/exit": "/quit"}

func lookupMeta(name string) (metaCommand, bool) {
	if alias, ok := metaAliases[name]; ok {
		name = alias
	}
	for _, mc := range metaCommands {
		if strings.Fields(mc.usage)[0] == name {
			return mc, true
		}
	}
	return metaCommand{}, false
}

// handleMeta dispatches meta-commands. Unrecognized slash input is left for
// the engine, which accepts "/balance" style chat commands.
func (c *CLI) handleMeta(ctx context.Context, input string) (handled, quit bool) {
	parts := strings.Fields(input)
	mc, ok := lookupMeta(strings.ToLower(parts[0]))
	if !ok {
		return false, false
	}
	if mc.arg && len(parts) < 2 {
		c.printSystem("Usage: " + strings.Replace(mc.usage, " [n]", " [count]", 1))
		return true, false
	}
	return true, mc.run(c, ctx, parts[1:])
}

func (c *CLI) metaQuit(context.Context, []string) bool {
	c.printSystem("Goodbye.")
	return true
}

func (c *CLI) metaHelp(context.Context, []string) bool {
	c.printLine("System:")
	for _, mc := range metaCommands {
		c.printLine(fmt.Sprintf("  %-19s %s", mc.usage, mc.help))
	}
	c.printLine("")
	c.printLine("Economy commands:")
	c.printResult(c.Engine.Step(c.Player, "help"))
	c.printLine("  again (g)           Repeat your last command")
	return false
}

func (c *CLI) metaSave(ctx context.Context, _ []string) bool {
	if err := c.Engine.Save(ctx); err != nil {
		c.printSystem("Save failed: " + ledger.Message(err))
		return false
	}
	c.printSystem("Economy saved.")
	return false
}

func (c *CLI) metaLoad(ctx context.Context, _ []string) bool {
	if err := c.Engine.Load(ctx); err != nil {
		c.printSystem("Load failed: " + ledger.Message(err))
		return false
	}
	c.printSystem("Economy reloaded.")
	return false
}

func (c *CLI) metaAs(_ context.Context, args []string) bool {
	c.Player = args[0]
	c.lastCmd = ""
	c.join()
	return false
}

func (c *CLI) metaTag(_ context.Context, args []string) bool {
	c.Engine.AddTag(c.Player, args[0])
	c.printSystem(fmt.Sprintf("Tagged %s with %q.", c.Player, args[0]))
	return false
}

func (c *CLI) metaEvent(_ context.Context, args []string) bool {
	c.printResult(c.Engine.Fire(types.Event{Type: args[0], Player: c.Player}))
	return false
}

func (c *CLI) metaAdmin(ctx context.Context, args []string) bool {
	if c.Admin == nil {
		c.printSystem("Admin commands are disabled.")
		return false
	}
	for _, line := range c.Admin.Run(ctx, args) {
		c.printLine(line)
	}
	return false
}

func (c *CLI) metaTrace(context.Context, []string) bool {
	c.Trace = !c.Trace
	if c.Trace {
		c.printSystem("Trace output enabled.")
	} else {
		c.printSystem("Trace output disabled.")
	}
	return false
}

func (c *CLI) metaGive(_ context.Context, args []string) bool {
	item, count := args[0], 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			c.printSystem("Count must be a positive number.")
			return false
		}
		count = n
	}
	err := c.Engine.Update(func(tx *engine.Tx) error {
		return tx.Inventories.For(c.Player).Add(item, count)
	})
	if err != nil {
		c.printSystem(ledger.Message(err))
		return false
	}
	c.printSystem(fmt.Sprintf("Added %dx %s to %s's inventory.", count, item, c.Player))
	return false
}

func (c *CLI) metaInventory(context.Context, []string) bool {
	var lines []string
	c.Engine.View(func(tx *engine.Tx) error {
		inv := tx.Inventories.For(c.Player)
		lister, ok := inv.(interface{ Items() []string })
		if !ok {
			lines = append(lines, "This inventory cannot be listed.")
			return nil
		}
		for _, id := range lister.Items() {
			lines = append(lines, fmt.Sprintf("%dx %s", inv.Count(id), id))
		}
		lines = append(lines, fmt.Sprintf("%d free slot(s).", inv.FreeSlots()))
		return nil
	})
	for _, l := range lines {
		c.printSystem(l)
	}
	return false
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	text = "[" + text + "]"
	if c.Styled {
		text = systemStyle.Render(text)
	}
	fmt.Fprintln(c.Out, text)
}
