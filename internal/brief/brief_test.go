package brief

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		brief   Brief
		wantErr error
	}{
		{
			name:    "no platforms",
			brief:   Brief{Files: []File{{Name: "a.png"}}},
			wantErr: ErrNoPlatforms,
		},
		{
			name:    "no files",
			brief:   Brief{Platforms: []string{"Instagram"}},
			wantErr: ErrNoFiles,
		},
		{
			name:    "unknown platform",
			brief:   Brief{Platforms: []string{"MySpace"}, Files: []File{{Name: "a.png"}}},
			wantErr: ErrUnknownPlatform,
		},
		{
			name:  "valid with only required steps",
			brief: Brief{Platforms: []string{"instagram", "X.com"}, Files: []File{{Name: "a.png"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.brief.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestStepComplete(t *testing.T) {
	var b Brief
	assert.False(t, b.StepComplete(StepPlatforms))
	assert.False(t, b.StepComplete(StepUpload))
	assert.True(t, b.StepComplete(StepConfigure), "configure step is optional")

	b.TogglePlatform("Facebook")
	assert.True(t, b.StepComplete(StepPlatforms))

	b.TogglePlatform("Facebook")
	assert.Empty(t, b.Platforms)
}

func TestRemoveFile(t *testing.T) {
	b := Brief{Files: []File{{Name: "a.png"}, {Name: "b.png"}, {Name: "c.png"}}}
	b.RemoveFile(1)
	assert.Equal(t, []string{"a.png", "c.png"}, b.FileNames())

	b.RemoveFile(7)
	assert.Len(t, b.Files, 2)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brief.yaml")
	content := `platforms: [Instagram, LinkedIn]
files:
  - name: hero.png
    size: 2048
    type: image/png
description: Summer collection
headline: Hot deals
call_to_action: shop-now
discount: 20% off
post_type: Sale
palette: Warm
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Instagram", "LinkedIn"}, b.Platforms)
	assert.Equal(t, []File{{Name: "hero.png", Size: 2048, Type: "image/png"}}, b.Files)
	assert.Equal(t, "shop-now", b.CallToAction)
	assert.Equal(t, "Warm", b.Palette)
	assert.NoError(t, b.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFilesFromPaths(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "Hero.PNG")
	require.NoError(t, os.WriteFile(png, make([]byte, 1500), 0o644))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	files, err := FilesFromPaths([]string{png})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, File{Name: "Hero.PNG", Size: 1500, Type: "image/png"}, files[0])

	_, err = FilesFromPaths([]string{txt})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = FilesFromPaths([]string{filepath.Join(dir, "missing.jpg")})
	assert.Error(t, err)
}

func TestCTALabel(t *testing.T) {
	assert.Equal(t, "Shop Now", CTALabel("shop-now"))
	assert.Equal(t, "Discover", CTALabel("discover"))
	assert.Equal(t, "Call us", CTALabel("Call us"))
	assert.Equal(t, "", CTALabel(""))
}

func TestTitleAndUIContext(t *testing.T) {
	b := Brief{Platforms: []string{"Instagram"}, PostType: "Sale"}
	assert.Equal(t, "Instagram creative", b.Title())

	b.Headline = "  Big Sale  "
	assert.Equal(t, "Big Sale", b.Title())

	ctx := b.UIContext()
	assert.Equal(t, []string{"Instagram"}, ctx["platforms"])
	assert.Equal(t, "Sale", ctx["post_type"])
	assert.NotContains(t, ctx, "color_palette")

	assert.Equal(t, "New creative", Brief{}.Title())
}
