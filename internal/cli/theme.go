package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/creative-go/internal/chat"
)

// Theme holds the color scheme for the dashboard and plain output.
type Theme struct {
	Name      string
	Accent    lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Selection lipgloss.Color
}

var darkTheme = Theme{
	Name:      "dark",
	Accent:    lipgloss.Color("#A78BFA"), // violet
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#E4E4E7"), // near white
	Success:   lipgloss.Color("#00D787"), // green
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	Selection: lipgloss.Color("#3A3A3A"), // dark gray
}

var lightTheme = Theme{
	Name:      "light",
	Accent:    lipgloss.Color("#7C3AED"),
	User:      lipgloss.Color("#0369A1"),
	Assistant: lipgloss.Color("#18181B"),
	Success:   lipgloss.Color("#047857"),
	Error:     lipgloss.Color("#BE123C"),
	Hint:      lipgloss.Color("#71717A"),
	Selection: lipgloss.Color("#E4E4E7"),
}

// themeByName resolves the --theme flag.
func themeByName(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "dark":
		return darkTheme, nil
	case "light":
		return lightTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (want dark or light)", name)
	}
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) textStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Selection).Foreground(t.Accent).Bold(true)
}

func (t Theme) alertStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Error).
		Padding(0, 1)
}

// renderMarkdown renders **bold** spans with the given style. An unmatched
// marker is kept as typed, which is what a half-revealed message looks like.
func renderMarkdown(text string, bold lipgloss.Style) string {
	var sb strings.Builder
	for {
		start := strings.Index(text, "**")
		if start < 0 {
			break
		}
		end := strings.Index(text[start+2:], "**")
		if end < 0 {
			break
		}
		sb.WriteString(text[:start])
		sb.WriteString(bold.Render(text[start+2 : start+2+end]))
		text = text[start+2+end+2:]
	}
	sb.WriteString(text)
	return sb.String()
}

// formatLine renders one visible message. Typing messages get a cursor.
func (t Theme) formatLine(line chat.Line) string {
	switch {
	case line.Message.Role == chat.RoleUser:
		return t.userStyle().Render("You") + "\n" + indent(renderMarkdown(line.Text, lipgloss.NewStyle().Bold(true)))

	case line.Message.Kind == chat.KindImage:
		return t.assistantStyle().Render("VC") + "\n" + indent(t.successStyle().Render("[creative]")+" "+line.Image)

	default:
		text := renderMarkdown(line.Text, lipgloss.NewStyle().Bold(true))
		if line.Typing {
			text += "▌"
		}
		return t.assistantStyle().Render("VC") + "\n" + indent(t.textStyle().Render(text))
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
