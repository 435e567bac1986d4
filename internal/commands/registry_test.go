package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	require.Equal(t, 10, reg.Len())
	assert.Equal(t, []string{
		"Rotate", "Opacity", "Resize", "Filter", "Brightness",
		"Contrast", "Blur", "Crop", "Text", "Border",
	}, names(reg.List()))
}

func TestListReturnsCopy(t *testing.T) {
	reg := Default()
	list := reg.List()
	list[0].Name = "Mutated"

	assert.Equal(t, "Rotate", reg.List()[0].Name)
}

func TestMatchPrefix(t *testing.T) {
	reg := Default()

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"empty matches all", "", names(reg.List())},
		{"single letter", "r", []string{"Rotate", "Resize"}},
		{"case insensitive", "BR", []string{"Brightness"}},
		{"shared prefix keeps order", "c", []string{"Contrast", "Crop"}},
		{"full name", "Border", []string{"Border"}},
		{"no match", "xyz", nil},
		{"trailing space never matches", "Rotate ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.MatchPrefix(tt.prefix)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestLookup(t *testing.T) {
	reg := Default()

	cmd, ok := reg.Lookup("opacity")
	require.True(t, ok)
	assert.Equal(t, "Opacity", cmd.Name)
	assert.Equal(t, "Adjust image opacity (0-100)", cmd.Description)

	_, ok = reg.Lookup("Sharpen")
	assert.False(t, ok)
}
