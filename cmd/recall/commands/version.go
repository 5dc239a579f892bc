// ABOUTME: Version command to display build and index information
// ABOUTME: Shows version, commit, build date, and the embedding model that versions the index
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/llm"
)

var (
	versionInfo = VersionInfo{
		Version: "dev",
		Commit:  "none",
		Date:    "unknown",
	}
)

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, commit hash, and build date for recall, plus the
configured index. An index only answers queries embedded by the model it was built with.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recall %s\n", versionInfo.Version)
			fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built:  %s\n", versionInfo.Date)

			// a broken config should not hide the build info
			cfg, err := loadConfig()
			if err != nil {
				fmt.Fprintf(out, "Index:  unavailable (%v)\n", err)
				return
			}
			fmt.Fprintf(out, "Index:  %s collection %q in %s\n", cfg.IndexBackend, cfg.Collection, cfg.DataDir)
			fmt.Fprintf(out, "Embed:  %s/%s\n", cfg.EmbeddingProvider, llm.EmbeddingModel(cfg))
		},
	}

	return cmd
}
