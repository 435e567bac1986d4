// Package commands holds the registry of @commands users can invoke on a creative.
package commands

import "strings"

// Command is a directive the assistant understands when prefixed with "@".
type Command struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Registry is an immutable, ordered set of commands.
type Registry struct {
	commands []Command
}

// defaultCommands mirrors the adjustments offered by the dashboard.
var defaultCommands = []Command{
	{Name: "Rotate", Description: "Rotate the image by degrees"},
	{Name: "Opacity", Description: "Adjust image opacity (0-100)"},
	{Name: "Resize", Description: "Resize image dimensions"},
	{Name: "Filter", Description: "Apply color filters"},
	{Name: "Brightness", Description: "Adjust brightness level"},
	{Name: "Contrast", Description: "Adjust contrast level"},
	{Name: "Blur", Description: "Apply blur effect"},
	{Name: "Crop", Description: "Crop the image"},
	{Name: "Text", Description: "Add text overlay"},
	{Name: "Border", Description: "Add border to image"},
}

// New creates a registry from the given commands. Order is preserved.
func New(cmds ...Command) *Registry {
	return &Registry{commands: append([]Command(nil), cmds...)}
}

// Default returns the registry with the ten built-in commands.
func Default() *Registry {
	return New(defaultCommands...)
}

// List returns all commands in registry order.
func (r *Registry) List() []Command {
	return append([]Command(nil), r.commands...)
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

// MatchPrefix returns every command whose name starts with prefix, ignoring case.
// An empty prefix matches everything.
func (r *Registry) MatchPrefix(prefix string) []Command {
	prefix = strings.ToLower(prefix)

	var matches []Command
	for _, cmd := range r.commands {
		if strings.HasPrefix(strings.ToLower(cmd.Name), prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// Lookup finds a command by exact name, ignoring case.
func (r *Registry) Lookup(name string) (Command, bool) {
	for _, cmd := range r.commands {
		if strings.EqualFold(cmd.Name, name) {
			return cmd, true
		}
	}
	return Command{}, false
}
