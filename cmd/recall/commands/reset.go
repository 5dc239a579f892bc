// ABOUTME: CLI command to drop the document index
// ABOUTME: Removes every embedding-model version of the configured collection
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/storage"
)

var (
	resetYes bool
)

// NewResetCmd creates reset command
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the document index",
		Long: `Delete every indexed chunk in the configured collection.

Needed after switching embedding models, since an index built with one
model cannot be searched with another. Memory files are kept.

Examples:
  recall reset --yes`,
		Args: cobra.NoArgs,
		RunE: runReset,
	}

	cmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm deletion")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("refusing to delete the index without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	opts := core.IndexOptions(cfg, "")
	if err := storage.ResetIndex(ctx, opts); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %q (%s)\n", cfg.Collection, cfg.IndexBackend)
	}
	return nil
}
