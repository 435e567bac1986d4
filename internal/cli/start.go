package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/creative-go/internal/gateway"
)

var (
	startBrief   briefFlags
	startOffline bool
	startPlain   bool
	startTheme   string
	startSession string
	startSay     []string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Generate a creative from a brief",
	Long: `Submit a brief to the session gateway and chat with VC while the creative
is generated. Once the first creative is shown you can ask for changes and
use @commands (type @ to see them).

The dashboard runs when stdout is a terminal; otherwise (or with --plain)
messages are printed line by line as they finish.

Examples:
  creative start --brief summer-sale.yaml
  creative start -p Instagram -p Facebook -f hero.png --headline "Summer Sale" --cta shop-now
  creative start --brief summer-sale.yaml --offline --plain --say "@Rotate 90"`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startBrief.register(startCmd)
	startCmd.Flags().BoolVar(&startOffline, "offline", false, "do not contact the session gateway")
	startCmd.Flags().BoolVar(&startPlain, "plain", false, "print lines instead of running the dashboard")
	startCmd.Flags().StringVar(&startTheme, "theme", "dark", "color theme (dark or light)")
	startCmd.Flags().StringVar(&startSession, "session", "", "continue an existing session")
	startCmd.Flags().StringArrayVar(&startSay, "say", nil, "follow-up message to send in plain mode (repeatable)")
}

// dashboardCommand reports whether cmd will take over the terminal.
func dashboardCommand(cmd *cobra.Command) bool {
	return cmd.Name() == "start" && !startPlain && term.IsTerminal(int(os.Stdout.Fd()))
}

func runStart(cmd *cobra.Command, args []string) error {
	b, err := startBrief.build()
	if err != nil {
		return err
	}
	theme, err := themeByName(startTheme)
	if err != nil {
		return err
	}

	var client *gateway.Client
	if !startOffline {
		client = newGateway()
	}

	if !dashboardCommand(cmd) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runPlain(ctx, cmd.OutOrStdout(), plainOptions{
			brief:        b,
			client:       client,
			sessionID:    startSession,
			say:          startSay,
			timings:      cfg.Timings,
			pollInterval: cfg.PollInterval,
			theme:        theme,
		})
	}

	return runDashboard(dashboardOptions{
		brief:        b,
		client:       client,
		sessionID:    startSession,
		timings:      cfg.Timings,
		pollInterval: cfg.PollInterval,
		theme:        theme,
	})
}
