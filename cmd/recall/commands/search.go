// ABOUTME: CLI command to search the index without generating an answer
// ABOUTME: Shows the nearest passages with their distances
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed passages",
		Long: `Search the document index by semantic similarity.

Returns the nearest passages ordered by ascending cosine distance.
No relevance threshold is applied.

Examples:
  recall search "vacation policy"
  recall search --limit 10 "deployment"
  recall search --format json "budget"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results to return (default from config)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("limit") {
		if err := validatePositiveInt(searchLimit, "limit"); err != nil {
			return err
		}
	}

	query := strings.Join(args, " ")

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, false, nil)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	result, err := engine.Retriever.Retrieve(ctx, query, searchLimit)
	if err != nil {
		return fmt.Errorf("searching index: %w", err)
	}

	if result.Empty() {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No passages found for query: %s\n", query)
		}
		return nil
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), result.Hits)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DISTANCE\tSOURCE\tCHUNK\tPREVIEW\n")
	fmt.Fprintf(w, "--------\t------\t-----\t-------\n")
	for _, hit := range result.Hits {
		fmt.Fprintf(w, "%.4f\t%s\t%d\t%s\n",
			hit.Distance,
			truncate(hit.Metadata.Source, 30),
			hit.Metadata.ChunkIndex,
			truncate(oneLine(hit.Text), 60))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(result.Hits))
	}
	return nil
}
