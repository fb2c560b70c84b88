package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/smartmilk/smart-milk/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users, weight_data and device_stats tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		switch cfg.Database.Driver {
		case "postgres":
			database, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := db.MigratePostgres(ctx, database); err != nil {
				return err
			}
		case "sqlite":
			gdb, err := db.OpenSQLite(cfg.Database.URL)
			if err != nil {
				return err
			}
			if err := db.MigrateSQLite(gdb); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
