package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aretw0/tilth"
	"github.com/aretw0/tilth/pkg/convert"
)

const watchDebounce = 500 * time.Millisecond

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the conversion whenever the export changes",
	Long: `Watch converts the export once, then keeps watching the activity
artifact and converts again each time it changes. Useful while an export is
still being unpacked or re-downloaded.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.Default()
		cfg := converterConfig()

		activity := cfg.ActivityPath
		if activity == "" {
			activity = convert.DefaultActivityPath
		}
		target := filepath.Join(cfg.ExportRoot, filepath.FromSlash(activity))

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			fatal("Failed to create watcher", err)
		}
		defer watcher.Close()

		// Watch the directory; editors and unpackers replace files rather
		// than writing them in place.
		if err := watcher.Add(filepath.Dir(target)); err != nil {
			fatal("Failed to watch export", err)
		}

		runs := make(chan struct{}, 1)
		trigger := func() {
			select {
			case runs <- struct{}{}:
			default:
			}
		}
		trigger() // initial conversion

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				logger.Info("watch stopped")
				return
			case <-runs:
				lifecycle.Go(ctx, func(ctx context.Context) error {
					stats, err := tilth.Convert(ctx, cfg)
					if err != nil {
						return err
					}
					logger.Info("watch run complete", "notes_written", stats.NotesWritten)
					return nil
				}, lifecycle.WithErrorHandler(func(err error) {
					logger.Error("watch run failed", "error", err)
				}))
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug("export changed", "event", event.Op.String())
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, trigger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addConvertFlags(watchCmd)
}
