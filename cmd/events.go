/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/logger"
	"github.com/imagetext/apiserver/internal/mq"
	"github.com/imagetext/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd tails the gallery activity channel and logs each event.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow gallery activity events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if backend == nil {
			return errors.New("MQ_BACKEND is not set")
		}

		feed := mq.NewActivityFeed(backend, cfg.MQ.ActivityChannel)
		defer feed.Close()

		logger.Log.Infow("following activity", "backend", cfg.MQ.Backend, "channel", cfg.MQ.ActivityChannel)
		err = feed.Consume(ctx, func(_ context.Context, event types.ActivityEvent) error {
			logger.Log.Infow("activity",
				"type", event.Type,
				"user_id", event.UserID,
				"image_ids", event.ImageIDs,
				"count", event.Count,
				"at", event.At,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
