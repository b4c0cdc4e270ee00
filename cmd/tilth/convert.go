package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tilth"
)

var (
	exportRoot   string
	outputRoot   string
	activityPath string
	searchDirs   []string
	byDate       bool
	dryRun       bool
	sessionGap   time.Duration
	maxTags      int
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an export into vault notes",
	Long: `Convert reads the activity artifact inside the export root, groups
records into conversations, and writes one note per conversation under the
output root. Attachments land in a shared _attachments directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats, err := tilth.Convert(ctx, converterConfig())
		if err != nil {
			fatal("Conversion failed", err)
		}

		slog.Default().Info("done", "notes_written", stats.NotesWritten)
	},
}

func converterConfig() tilth.Config {
	// User-given search dirs take priority, the export root stays as the
	// fallback.
	dirs := searchDirs
	if len(dirs) > 0 {
		dirs = append(append([]string{}, dirs...), exportRoot)
	}

	return tilth.Config{
		ExportRoot:     exportRoot,
		ActivityPath:   activityPath,
		OutputRoot:     outputRoot,
		SearchDirs:     dirs,
		OrganizeByDate: byDate,
		DryRun:         dryRun,
		SessionGap:     sessionGap,
		MaxTags:        maxTags,
		Logger:         slog.Default(),
	}
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConvertFlags(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&exportRoot, "export", "", "Path to the extracted export root")
	cmd.Flags().StringVar(&outputRoot, "output", "", "Path to the vault import folder")
	cmd.Flags().StringVar(&activityPath, "activity", "", "Activity file path relative to the export root")
	cmd.Flags().StringSliceVar(&searchDirs, "search-dir", nil, "Additional attachment search directories (ordered)")
	cmd.Flags().BoolVar(&byDate, "by-date", false, "Organize notes into year/month subfolders")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute everything but write nothing")
	cmd.Flags().DurationVar(&sessionGap, "gap", 30*time.Minute, "Idle time that starts a new conversation")
	cmd.Flags().IntVar(&maxTags, "max-tags", 5, "Maximum derived keyword tags per note")
	cmd.MarkFlagRequired("export")
	cmd.MarkFlagRequired("output")
}
