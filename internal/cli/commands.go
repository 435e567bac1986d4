package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/creative-go/internal/commands"
)

var commandsCmd = &cobra.Command{
	Use:   "commands [prefix]",
	Short: "List the @commands VC understands",
	Long: `List the @commands that can be used in follow-up messages, optionally
filtered by a name prefix.

Examples:
  creative commands
  creative commands ro`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := commands.Default()
		list := reg.List()
		if len(args) == 1 {
			list = reg.MatchPrefix(strings.TrimPrefix(args[0], "@"))
		}

		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching commands")
			return nil
		}
		for _, c := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "@%-12s %s\n", c.Name, c.Description)
		}
		return nil
	},
}
