package chat

import (
	"regexp"
	"strings"

	"github.com/raphaelgruber/creative-go/internal/commands"
)

// invokedPattern matches "@" followed by one or more word characters.
var invokedPattern = regexp.MustCompile(`@(\w+)`)

// Composition is the in-progress user input.
// MenuOpen is true iff Candidates is non-empty.
type Composition struct {
	Text       string
	MenuOpen   bool
	Candidates []commands.Command
}

// Composer tracks the draft and the @command autocomplete menu.
type Composer struct {
	registry *commands.Registry
	state    Composition
}

// NewComposer creates a composer backed by the given registry.
func NewComposer(reg *commands.Registry) *Composer {
	return &Composer{registry: reg}
}

// State returns the current composition.
func (c *Composer) State() Composition {
	return c.state
}

// SetDraft replaces the draft and recomputes the autocomplete menu from the
// text after the last "@".
func (c *Composer) SetDraft(text string) Composition {
	c.state = Composition{Text: text}

	at := strings.LastIndex(text, "@")
	if at < 0 {
		return c.state
	}

	candidates := c.registry.MatchPrefix(text[at+1:])
	if len(candidates) > 0 {
		c.state.Candidates = candidates
		c.state.MenuOpen = true
	}
	return c.state
}

// Insert completes the active @token with name followed by a space and closes
// the menu. Without any "@" in the draft the command is appended.
func (c *Composer) Insert(name string) Composition {
	text := c.state.Text
	if at := strings.LastIndex(text, "@"); at >= 0 {
		text = text[:at]
	}
	c.state = Composition{Text: text + "@" + name + " "}
	return c.state
}

// CloseMenu hides the menu and keeps the draft.
func (c *Composer) CloseMenu() Composition {
	c.state = Composition{Text: c.state.Text}
	return c.state
}

// Clear empties the draft.
func (c *Composer) Clear() {
	c.state = Composition{}
}

// InsertCandidate is the stateless form of Composer.Insert.
func InsertCandidate(text, name string) string {
	if at := strings.LastIndex(text, "@"); at >= 0 {
		text = text[:at]
	}
	return text + "@" + name + " "
}

// ExtractInvoked returns every @token in text, left to right, without the "@".
// Duplicates are preserved.
func ExtractInvoked(text string) []string {
	matches := invokedPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}
