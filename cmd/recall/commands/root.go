// ABOUTME: Root command, global flags, and shared setup for every subcommand
// ABOUTME: Loads .env and configuration and routes component logs by verbosity
package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/config"
	"github.com/harper/recall/internal/core"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
 ██████╗ ███████╗ ██████╗ █████╗ ██╗     ██╗
 ██╔══██╗██╔════╝██╔════╝██╔══██╗██║     ██║
 ██████╔╝█████╗  ██║     ███████║██║     ██║
 ██╔══██╗██╔══╝  ██║     ██╔══██║██║     ██║
 ██║  ██║███████╗╚██████╗██║  ██║███████╗███████╗
 ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚══════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Answer questions from your documents",
		Long: banner + `

Recall indexes PDF, text, and markdown documents and answers questions
using only the passages it retrieves from them. Facts about you and your
company are remembered between conversations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "text", "json":
			default:
				return fmt.Errorf("unknown format %q (want auto, text, or json)", outputFormat)
			}
			// Load .env file if it exists (for API keys)
			_ = godotenv.Load()
			if !verbose {
				log.SetOutput(io.Discard)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show component logs")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, or json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/recall/config.yaml)")

	cmd.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewSearchCmd(),
		NewMemoryCmd(),
		NewResetCmd(),
		NewExportCmd(),
		NewMCPCmd(),
		NewWatchCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openEngine loads configuration and assembles the pipelines
func openEngine(ctx context.Context, withGeneration bool, tweak func(*config.Config)) (*core.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if tweak != nil {
		tweak(cfg)
	}
	engine, err := core.OpenEngine(ctx, cfg, withGeneration)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("[Config] backend=%s collection=%s embed=%s/%s generate=%s",
			cfg.IndexBackend, cfg.Collection, cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.GenerationProvider)
	}
	return engine, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func jsonOutput() bool {
	return outputFormat == "json"
}
