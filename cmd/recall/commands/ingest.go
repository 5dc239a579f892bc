// ABOUTME: CLI command to ingest documents into the index
// ABOUTME: Accepts many files; a failing file is reported without stopping the rest
package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/core"
)

var (
	ingestName string
)

// NewIngestCmd creates ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the index",
		Long: `Parse, chunk, embed, and index PDF, text, and markdown files.

Each file is cited by its base name. Ingesting a file again replaces
its previous chunks, so repeated runs never duplicate content.

Examples:
  recall ingest handbook.pdf
  recall ingest docs/*.md notes.txt
  recall ingest --name "Q3 Plan" plan.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestName, "name", "", "Source name to cite (single file only)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestName != "" && len(args) != 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	var results []core.FileResult
	if ingestName != "" {
		n, err := engine.Ingestor.Ingest(ctx, args[0], ingestName)
		results = []core.FileResult{{Path: args[0], Source: ingestName, Chunks: n, Err: err}}
	} else {
		results = engine.Ingestor.IngestFiles(ctx, args)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if jsonOutput() {
		type row struct {
			Path   string `json:"path"`
			Source string `json:"source"`
			Chunks int    `json:"chunks"`
			Error  string `json:"error,omitempty"`
		}
		rows := make([]row, 0, len(results))
		for _, r := range results {
			rw := row{Path: r.Path, Source: r.Source, Chunks: r.Chunks}
			if r.Err != nil {
				rw.Error = r.Err.Error()
			}
			rows = append(rows, rw)
		}
		if err := printJSON(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SOURCE\tCHUNKS\tSTATUS\n")
		fmt.Fprintf(w, "------\t------\t------\n")
		for _, r := range results {
			status := "ok"
			if r.Err != nil {
				status = truncate(r.Err.Error(), 70)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", truncate(filepath.Base(r.Source), 40), r.Chunks, status)
		}
		w.Flush()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to ingest", failed, len(results))
	}
	if !quiet && !jsonOutput() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nIngested %d file(s)\n", len(results))
	}
	return nil
}
