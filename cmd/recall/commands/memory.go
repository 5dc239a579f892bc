// ABOUTME: CLI commands to inspect and extend the user and company memory logs
// ABOUTME: Memory files are append-only markdown lists and need no API credentials
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage"
)

// NewMemoryCmd creates the memory command group
func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "List or add remembered facts",
		Long: `Inspect the facts recall has remembered about you and your company.

Memories are extracted from each answered question and appended to
USER_MEMORY.md and COMPANY_MEMORY.md in the memory directory.`,
	}

	cmd.AddCommand(newMemoryListCmd(), newMemoryAddCmd(), newMemoryPathCmd())
	return cmd
}

func openMemoryLog() (*storage.MemoryLog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewMemoryLog(cfg.MemoryDir)
}

func scopesFromArgs(args []string) ([]models.Scope, error) {
	if len(args) == 0 {
		return models.Scopes, nil
	}
	scope, err := models.ParseScope(args[0])
	if err != nil {
		return nil, err
	}
	return []models.Scope{scope}, nil
}

func newMemoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [user|company]",
		Short: "List remembered facts",
		Long: `List remembered facts for both scopes, or only the one given.

Examples:
  recall memory list
  recall memory list company`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopes, err := scopesFromArgs(args)
			if err != nil {
				return err
			}
			memLog, err := openMemoryLog()
			if err != nil {
				return err
			}

			entries := []models.MemoryEntry{}
			for _, scope := range scopes {
				scoped, err := memLog.Entries(scope)
				if err != nil {
					return fmt.Errorf("reading %s memories: %w", strings.ToLower(string(scope)), err)
				}
				entries = append(entries, scoped...)
			}

			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "No memories yet\n")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "SCOPE\tMEMORY\n")
			fmt.Fprintf(w, "-----\t------\n")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\n", strings.ToLower(string(e.Scope)), e.Text)
			}
			w.Flush()

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d memory(ies)\n", len(entries))
			}
			return nil
		},
	}
}

func newMemoryAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user|company> <text>",
		Short: "Append a fact to a memory log",
		Long: `Append a fact by hand to the user or company memory log.

Examples:
  recall memory add user "Prefers answers in bullet points"
  recall memory add company "Project Finance uses SAP"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := models.ParseScope(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")

			memLog, err := openMemoryLog()
			if err != nil {
				return err
			}
			if err := memLog.Append(scope, text); err != nil {
				return fmt.Errorf("adding memory: %w", err)
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Added to %s\n", memLog.Path(scope))
			}
			return nil
		},
	}
}

func newMemoryPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the memory file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			memLog, err := openMemoryLog()
			if err != nil {
				return err
			}
			for _, scope := range models.Scopes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", memLog.Path(scope))
			}
			return nil
		},
	}
}
