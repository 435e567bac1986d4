// Package cli provides the command-line interface for the creative builder.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/creative-go/internal/config"
	"github.com/raphaelgruber/creative-go/internal/gateway"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	apiURL  string

	// Global config and logger
	cfg        config.Config
	logger     = slog.Default()
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "creative",
	Short: "Retail-media creative builder",
	Long: `Creative turns a brief (platforms, assets, headline, call to action) into a
social media creative through a scripted chat with the VC assistant.

Start a conversation with 'creative start', refine the result with
@commands like @Rotate or @Filter, and inspect backend sessions and turns.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if apiURL != "" {
			cfg.APIBaseURL = apiURL
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}

		// The dashboard owns the terminal; everything else may log to stderr.
		console := !dashboardCommand(cmd)
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level, console)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newGateway creates the session gateway client from the loaded config.
func newGateway() *gateway.Client {
	return gateway.New(cfg.APIBaseURL, cfg.ClientTimeout)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "session gateway base URL (overrides CREATIVE_API_BASE_URL)")

	// Add subcommands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(turnsCmd)
	rootCmd.AddCommand(turnCmd)
	rootCmd.AddCommand(artifactCmd)
}
