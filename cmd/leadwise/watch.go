package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwise/leadwise/internal/config"
	"github.com/leadwise/leadwise/internal/prefs"
	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the thread for assistant replies",
	Long:  `Poll the conversation on a schedule and print a notification when the assistant replies while you're away.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
		if err != nil {
			return fmt.Errorf("invalid store.lock_retry: %w", err)
		}
		store, err := prefs.NewStore(cfg.Store.Path, prefs.Options{
			LockRetry:    lockRetry,
			LockMaxRetry: cfg.Store.LockMaxRetry,
		})
		if err != nil {
			return err
		}

		render := newRenderer()
		watcher, err := watch.NewWatcher(client, store, watch.Options{
			Schedule: cfg.Watch.Schedule,
			OnUnread: func(m session.Message) {
				fmt.Println(render.message(m))
			},
		})
		if err != nil {
			return err
		}

		handler := NewSignalHandler(cmd.Context())
		handler.Start()
		defer handler.Stop()

		if err := watcher.Start(handler.Context()); err != nil {
			return err
		}
		defer watcher.Stop()

		fmt.Printf("Watching for replies (%s). Ctrl+C to stop.\n", cfg.Watch.Schedule)
		<-handler.Context().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("watch.schedule", config.DefaultWatchSchedule, "poll schedule (cron expression or @every duration)")
}
