package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nathoo/econcore/cli"
	"github.com/nathoo/econcore/engine/admin"
	"github.com/nathoo/econcore/logging"
	"github.com/nathoo/econcore/tui"
)

var (
	playPlayer string
	playPlain  bool
	playAdmin  bool
	playTrace  bool
	playScript string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the economy from the terminal",
	Long: `Start an interactive session as one player.

The full-screen interface is used on a terminal; --plain, a piped stdout,
or --script switch to the line-oriented console. /as <player> changes the
active player, /admin runs admin commands when enabled.

Example:
  econcore play --player alice
  econcore play --plain --admin
  econcore play --script session.txt --trace`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playPlayer, "player", "p", "", "player name (default from play.player)")
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "use the line-oriented console")
	playCmd.Flags().BoolVar(&playAdmin, "admin", false, "enable /admin commands")
	playCmd.Flags().BoolVar(&playTrace, "trace", false, "print effects and events after each command")
	playCmd.Flags().StringVar(&playScript, "script", "", "read commands from a file instead of stdin")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if playPlayer != "" {
		cfg.Play.Player = playPlayer
	}
	plain := playPlain || cfg.Play.Plain || playScript != "" || !term.IsTerminal(int(os.Stdout.Fd()))

	// Log lines would tear the full-screen view.
	log := logging.Discard()
	if plain {
		log = nil
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); cerr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", cerr)
		}
	}()

	var adm *admin.Admin
	if playAdmin || cfg.Play.Admin {
		adm = a.adm
	}

	if !plain {
		return tui.Run(ctx, a.eng, adm, cfg.Play.Player)
	}

	c := cli.New(a.eng, adm, cfg.Play.Player)
	c.Trace = playTrace
	c.Styled = term.IsTerminal(int(os.Stdout.Fd()))
	if playScript != "" {
		f, err := os.Open(playScript)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	c.Run(ctx)
	return nil
}
