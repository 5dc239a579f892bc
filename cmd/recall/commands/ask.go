// ABOUTME: CLI command to ask a question answered from the indexed documents
// ABOUTME: Prints the grounded answer with its citations and records memories afterwards
package commands

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/config"
)

var (
	askNoMemory  bool
	askNoSources bool
)

// NewAskCmd creates ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long: `Answer a question using only passages retrieved from the index.

When nothing relevant is indexed a fixed message is shown instead of
calling the model. Durable facts from the exchange are appended to the
user and company memory files unless --no-memory is set.

Examples:
  recall ask "What is the secret code?"
  recall ask --no-memory "Who owns the budget?"
  recall ask --format json "When is the offsite?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().BoolVar(&askNoMemory, "no-memory", false, "Do not extract memories from this exchange")
	cmd.Flags().BoolVar(&askNoSources, "no-sources", false, "Hide citations")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	ctx, stop := signalContext()
	defer stop()

	engine, err := openEngine(ctx, true, func(cfg *config.Config) {
		if askNoMemory {
			cfg.MemoryEnabled = false
		}
	})
	if err != nil {
		return err
	}
	// Close waits for the background Scribe
	defer func() { _ = engine.Close() }()

	answer, askErr := engine.Assistant.Ask(ctx, question)
	if askErr != nil {
		log.Printf("[Ask] %v", askErr)
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), answer)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", answer.Text)
	if !askNoSources && !quiet && len(answer.Citations) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nSources:\n")
		for i, c := range answer.Citations {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s (%s): %s\n", i+1, c.Source, c.Locator, truncate(oneLine(c.Snippet), 80))
		}
	}
	if answer.Degraded && verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "cause: %v\n", askErr)
	}
	return nil
}
