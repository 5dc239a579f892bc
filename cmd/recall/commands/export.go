// ABOUTME: CLI command to export indexed chunks and memories
// ABOUTME: Writes YAML, Markdown, or JSON to stdout or a file
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/storage"
)

var (
	exportOutput string
	exportAs     string
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the index and memories",
		Long: `Export every indexed chunk, grouped by document, plus both memory logs.

Vectors are not exported; re-ingest the documents to rebuild an index.

Examples:
  recall export
  recall export --as markdown --output backup.md
  recall export --format json`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&exportAs, "as", "yaml", "Export format: yaml or markdown")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportAs != "yaml" && exportAs != "markdown" {
		return fmt.Errorf("invalid export format %q (want yaml or markdown)", exportAs)
	}

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	data, err := engine.Export(ctx)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch {
	case jsonOutput():
		err = printJSON(w, data)
	case exportAs == "markdown":
		err = storage.WriteMarkdown(w, data)
	default:
		err = storage.WriteYAML(w, data)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d documents to %s\n", len(data.Documents), exportOutput)
	}
	return nil
}
