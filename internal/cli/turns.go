package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/creative-go/internal/gateway"
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Show session metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newGateway().GetSession(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Session: %s\n", sess.ID)
		fmt.Fprintf(w, "  Title: %s\n", sess.Title)
		fmt.Fprintf(w, "  Turns: %d\n", sess.TurnCount)
		fmt.Fprintf(w, "  Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "  Updated: %s\n", sess.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var turnsCmd = &cobra.Command{
	Use:   "turns <session-id>",
	Short: "List the turns of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		turns, err := newGateway().GetSessionTurns(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("list turns: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(turns) == 0 {
			fmt.Fprintln(w, "No turns found")
			return nil
		}

		fmt.Fprintf(w, "%-36s %-10s %-9s %s\n", "ID", "STATUS", "CREATED", "TEXT")
		fmt.Fprintln(w, "--------------------------------------------------------------------------------")
		for _, t := range turns {
			fmt.Fprintf(w, "%-36s %-10s %-9s %s\n", t.ID, t.Status, t.CreatedAt.Format("15:04:05"), firstLine(t.UserText, 40))
		}
		return nil
	},
}

var (
	turnWatch bool
	turnPoll  bool
)

var turnCmd = &cobra.Command{
	Use:   "turn <turn-id>",
	Short: "Show a turn, optionally following it until it settles",
	Long: `Show a turn's status and messages.

With --watch the turn is followed over the gateway's websocket stream until it
completes or fails; --poll follows it by polling instead.

Examples:
  creative turn 0b6c...
  creative turn 0b6c... --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runTurn,
}

func init() {
	turnCmd.Flags().BoolVarP(&turnWatch, "watch", "w", false, "follow the turn over the websocket stream")
	turnCmd.Flags().BoolVar(&turnPoll, "poll", false, "follow the turn by polling")
}

func runTurn(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newGateway()
	w := cmd.OutOrStdout()
	id := args[0]

	switch {
	case turnWatch:
		var last *gateway.Turn
		err := client.WatchTurn(ctx, id, func(ev gateway.TurnEvent) error {
			turn := ev.Turn
			last = &turn
			fmt.Fprintf(w, "[%s] %s\n", time.Now().Format("15:04:05"), ev.Turn.Status)
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch turn: %w", err)
		}
		if last != nil {
			printTurn(w, client, last)
		}
		return nil

	case turnPoll:
		turn, err := client.PollTurn(ctx, logger, cfg.PollInterval, id, func(t *gateway.Turn) {
			fmt.Fprintf(w, "[%s] %s\n", time.Now().Format("15:04:05"), t.Status)
		})
		if err != nil {
			return fmt.Errorf("poll turn: %w", err)
		}
		printTurn(w, client, turn)
		return nil
	}

	turn, err := client.GetTurn(ctx, id)
	if err != nil {
		return fmt.Errorf("get turn: %w", err)
	}
	printTurn(w, client, turn)
	return nil
}

func printTurn(w io.Writer, client *gateway.Client, t *gateway.Turn) {
	fmt.Fprintf(w, "Turn: %s\n", t.ID)
	fmt.Fprintf(w, "  Session: %s\n", t.SessionID)
	fmt.Fprintf(w, "  Status: %s\n", t.Status)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed: %s\n", t.CompletedAt.Format(time.RFC3339))
		if !t.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  Duration: %s\n", t.CompletedAt.Sub(t.CreatedAt.Time).Round(time.Millisecond))
		}
	}
	if t.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", t.Error)
	}

	if len(t.Messages) > 0 {
		fmt.Fprintf(w, "\nMessages (%d):\n", len(t.Messages))
		for _, m := range t.Messages {
			fmt.Fprintf(w, "  %s: %s\n", m.Role, firstLine(m.Body(), 100))
		}
	}
	if len(t.Artifacts) > 0 {
		fmt.Fprintf(w, "\nArtifacts (%d):\n", len(t.Artifacts))
		for _, a := range t.Artifacts {
			fmt.Fprintf(w, "  %s\n", client.ArtifactURL(t.SessionID, t.ID, a))
		}
	}
}

var artifactCmd = &cobra.Command{
	Use:   "artifact <session-id> <turn-id> <filename>",
	Short: "Print the URL of a turn artifact",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), newGateway().ArtifactURL(args[0], args[1], args[2]))
		return nil
	},
}

// firstLine returns the first line of s, cut to limit runes.
func firstLine(s string, limit int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return s
}
