// ABOUTME: CLI command to keep the index in step with a directory
// ABOUTME: Ingests new and changed documents and drops removed ones until interrupted
package commands

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/watch"
)

var (
	watchDebounce time.Duration
	watchNoScan   bool
)

// NewWatchCmd creates watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest documents in a directory as they change",
		Long: `Watch a directory and ingest PDF, text, and markdown files when
they are created or written. Removed files are dropped from the index.

Existing files are ingested first unless --no-scan is set.

Examples:
  recall watch ~/Documents/handbook
  recall watch --debounce 2s ./docs`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is ingested")
	cmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "Skip ingesting files already present")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if !quiet {
		log.SetOutput(cmd.ErrOrStderr())
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	w := watch.New(dir, engine.Ingestor, watchDebounce)
	if !watchNoScan {
		if err := w.Scan(ctx); err != nil {
			return err
		}
	}
	return w.Run(ctx)
}
