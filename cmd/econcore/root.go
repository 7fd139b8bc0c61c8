package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "econcore",
	Short: "Player economy server: wallets, bank, exchange and shops",
	Long: `A persistent multiplayer economy.

Players hold a wallet and a bank balance, take loans, invest, sell items
on a fluctuating exchange and buy from shops. Economy content is defined
in Lua scripts layered over the built-in catalog.

Example usage:
  econcore play --player alice
  econcore serve --config econcore.toml
  econcore admin give alice 500
  econcore config init econcore.toml`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (TOML); ECON_* env vars override it")

	// Silence usage on error - we'll print our own messages
	rootCmd.SilenceUsage = true
}
