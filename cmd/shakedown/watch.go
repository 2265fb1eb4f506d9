package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/karminski/shakedown/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline, then re-run it when files change",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := watch.New(watch.Options{
		Root:     root,
		Paths:    cfg.Watch.Paths,
		Ignore:   cfg.Watch.Ignore,
		Debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if _, err := executeOnce(ctx, cmd); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nwatching %s for changes (Ctrl-C to stop)\n", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			logger.Debug("changes settled", zap.Strings("paths", batch))
			fmt.Fprintf(cmd.OutOrStdout(), "\nchanged: %s\n", strings.Join(batch, ", "))
			if _, err := executeOnce(ctx, cmd); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}
