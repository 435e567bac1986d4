package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/chat"
)

var (
	transcriptBrief briefFlags
	transcriptSay   []string
	transcriptTheme string
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "Print the scripted conversation for a brief",
	Long: `Play the conversation for a brief on a virtual clock and print the final
transcript. Nothing is sent to the session gateway and the output is the same
on every run.

Examples:
  creative transcript --brief summer-sale.yaml
  creative transcript -p Instagram -f hero.png --say "@Rotate 90 please" --say "thanks"`,
	Args: cobra.NoArgs,
	RunE: runTranscript,
}

func init() {
	transcriptBrief.register(transcriptCmd)
	transcriptCmd.Flags().StringArrayVar(&transcriptSay, "say", nil, "follow-up message (repeatable)")
	transcriptCmd.Flags().StringVar(&transcriptTheme, "theme", "dark", "color theme (dark or light)")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	b, err := transcriptBrief.build()
	if err != nil {
		return err
	}
	theme, err := themeByName(transcriptTheme)
	if err != nil {
		return err
	}
	return writeTranscript(cmd.OutOrStdout(), b, transcriptSay, cfg.Timings, theme)
}

// transcriptEpoch anchors the virtual clock so modified image ids are stable.
var transcriptEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// writeTranscript runs the conversation to completion on a virtual clock and
// writes every message followed by the total simulated time.
func writeTranscript(w io.Writer, b brief.Brief, say []string, timings chat.Timings, theme Theme) error {
	var tl *chat.Timeline
	conv := chat.NewConversation(nil,
		chat.WithTimings(timings),
		chat.WithClock(func() time.Time { return transcriptEpoch.Add(tl.Now()) }),
	)
	tl = chat.NewTimeline(conv)

	tl.Schedule(conv.Start(b)...)
	tl.Drain()
	for _, text := range say {
		tl.Schedule(conv.SubmitText(text)...)
		tl.Drain()
	}

	for _, line := range conv.View() {
		if _, err := fmt.Fprintf(w, "%s\n\n", theme.formatLine(line)); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}
	_, err := fmt.Fprintln(w, theme.hintStyle().Render(fmt.Sprintf("%d messages · %s simulated", len(conv.Messages()), tl.Now())))
	return err
}
