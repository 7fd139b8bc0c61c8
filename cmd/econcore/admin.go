package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathoo/econcore/engine/admin"
)

var adminCmd = &cobra.Command{
	Use:   "admin <command> [args...]",
	Short: "Run one admin command against the configured store",
	Long: `Run an admin command and exit. State changes are flushed before exit.

Commands:
  ` + strings.Join(admin.Usage, "\n  ") + `

Example:
  econcore admin give alice 500
  econcore admin integrity
  econcore admin backup`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdmin,
}

func init() {
	rootCmd.AddCommand(adminCmd)
}

func runAdmin(cmd *cobra.Command, args []string) (retErr error) {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()

	out := cmd.OutOrStdout()
	for _, line := range a.adm.Run(ctx, args) {
		fmt.Fprintln(out, line)
	}
	return nil
}
