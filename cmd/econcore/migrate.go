package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nathoo/econcore/config"
	"github.com/nathoo/econcore/store/mysqlstore"
	"github.com/nathoo/econcore/store/pgstore"
	"github.com/nathoo/econcore/store/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for SQL stores",
	Long: `Create or upgrade the econ_kv table for the postgres and mysql drivers.

serve and play also migrate on startup; run this ahead of a deploy when
the runtime credentials cannot alter the schema.

Example:
  econcore migrate --config econcore.toml
  ECON_STORE_DRIVER=postgres ECON_STORE_DSN=postgres://... econcore migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, section := range []struct {
		name string
		sc   config.StoreConfig
	}{{"store", cfg.Store}, {"backup", cfg.Backup}} {
		var (
			s       *sqlstore.Store
			migrate func(*sqlstore.Store) error
		)
		switch section.sc.Driver {
		case "postgres":
			s, err = pgstore.Open(ctx, section.sc.DSN)
			migrate = func(s *sqlstore.Store) error { return pgstore.Migrate(s.DB()) }
		case "mysql":
			s, err = mysqlstore.Open(ctx, section.sc.DSN)
			migrate = func(s *sqlstore.Store) error { return mysqlstore.Migrate(s.DB()) }
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", section.name, err)
		}
		err = migrate(s)
		s.Close(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", section.name, err)
		}
		fmt.Fprintf(out, "Migrated %s (%s).\n", section.name, section.sc.Driver)
	}
	return nil
}
