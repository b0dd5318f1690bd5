/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/db"
	"github.com/imagetext/apiserver/internal/services"
	"github.com/imagetext/apiserver/internal/storage"
	"github.com/imagetext/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportUserID  int
	exportOut     string
	exportArchive bool
)

// exportCmd writes one user's export document to a file or stdout.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's profile, images and statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUserID < 1 {
			return errors.New("--user-id is required")
		}

		ctx := cmd.Context()
		cfg := config.LoadConfig()

		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		var archiver services.ExportArchiver
		if exportArchive {
			archive, err := storage.New(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			if archive == nil {
				return errors.New("--archive needs STORAGE_BACKEND to be set")
			}
			defer archive.Close()
			archiver = archive
		}

		userRepo := store.NewUserRepository(conn)
		imageRepo := store.NewImageRepository(conn)
		statsService := services.NewStatsService(store.NewStatsRepository(conn), userRepo, imageRepo, archiver)

		export, err := statsService.Export(ctx, exportUserID)
		if err != nil {
			return fmt.Errorf("export user %d: %w", exportUserID, err)
		}

		if exportArchive {
			key, err := statsService.Archive(ctx, export)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "archived to %s\n", key)
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportUserID, "user-id", 0, "id of the user to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty or -)")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "also store the export in object storage")
}
