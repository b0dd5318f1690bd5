/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/db"
	"github.com/imagetext/apiserver/internal/logger"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Down)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func runMigrations(cmd *cobra.Command, dir db.Direction) error {
	cfg := config.LoadConfig()
	if err := db.Migrate(cmd.Context(), cfg.Database, dir); err != nil {
		return fmt.Errorf("migrate %s failed: %w", cmd.Name(), err)
	}
	logger.Log.Infow("migrations applied", "direction", cmd.Name(), "driver", cfg.Database.Driver)
	return nil
}
