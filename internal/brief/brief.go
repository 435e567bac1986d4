// Package brief models the creative brief collected by the three-step wizard:
// target platforms, uploaded assets, and the post configuration.
package brief

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step identifies a wizard step.
type Step int

const (
	StepPlatforms Step = iota + 1
	StepUpload
	StepConfigure
)

// MaxFileSize is the upload limit per asset (10 MB).
const MaxFileSize = 10 << 20

// Validation errors. Use errors.Is() to check.
var (
	ErrNoPlatforms     = errors.New("select at least one platform")
	ErrNoFiles         = errors.New("upload at least one file")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds 10MB")
)

// File describes an uploaded asset. Only metadata travels with the brief.
type File struct {
	Name string `yaml:"name" json:"name"`
	Size int64  `yaml:"size" json:"size"`
	Type string `yaml:"type" json:"type"`
}

// Brief is the form data a conversation is started from.
type Brief struct {
	Platforms    []string `yaml:"platforms"`
	Files        []File   `yaml:"files"`
	Description  string   `yaml:"description"`
	Headline     string   `yaml:"headline"`
	CallToAction string   `yaml:"call_to_action"`
	Discount     string   `yaml:"discount"`
	PostType     string   `yaml:"post_type"`
	Palette      string   `yaml:"palette"`
}

// Load reads a brief from a YAML file.
func Load(path string) (Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, fmt.Errorf("read brief: %w", err)
	}

	var b Brief
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Brief{}, fmt.Errorf("parse brief: %w", err)
	}
	return b, nil
}

// TogglePlatform adds the platform if absent, removes it otherwise.
func (b *Brief) TogglePlatform(name string) {
	if i := slices.Index(b.Platforms, name); i >= 0 {
		b.Platforms = slices.Delete(b.Platforms, i, i+1)
		return
	}
	b.Platforms = append(b.Platforms, name)
}

// RemoveFile drops the file at index i. Out-of-range indexes are ignored.
func (b *Brief) RemoveFile(i int) {
	if i < 0 || i >= len(b.Files) {
		return
	}
	b.Files = slices.Delete(b.Files, i, i+1)
}

// StepComplete reports whether the wizard may advance past step s.
func (b Brief) StepComplete(s Step) bool {
	switch s {
	case StepPlatforms:
		return len(b.Platforms) > 0
	case StepUpload:
		return len(b.Files) > 0
	default:
		return true
	}
}

// Validate checks every gated step and the platform names.
func (b Brief) Validate() error {
	if !b.StepComplete(StepPlatforms) {
		return ErrNoPlatforms
	}
	for _, p := range b.Platforms {
		if _, ok := LookupPlatform(p); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
		}
	}
	if !b.StepComplete(StepUpload) {
		return ErrNoFiles
	}
	return nil
}

// FileNames returns the uploaded file names in order.
func (b Brief) FileNames() []string {
	out := make([]string, len(b.Files))
	for i, f := range b.Files {
		out[i] = f.Name
	}
	return out
}

// Title is used as the session title when a new session is created.
func (b Brief) Title() string {
	if h := strings.TrimSpace(b.Headline); h != "" {
		return h
	}
	if len(b.Platforms) > 0 {
		return strings.Join(b.Platforms, ", ") + " creative"
	}
	return "New creative"
}

// UIContext is the opaque record sent alongside a turn.
func (b Brief) UIContext() map[string]any {
	ctx := map[string]any{
		"platforms": b.Platforms,
	}
	if b.PostType != "" {
		ctx["post_type"] = b.PostType
	}
	if b.Palette != "" {
		ctx["color_palette"] = b.Palette
	}
	if b.CallToAction != "" {
		ctx["call_to_action"] = b.CallToAction
	}
	if b.Discount != "" {
		ctx["offer_discount"] = b.Discount
	}
	return ctx
}

// FilesFromPaths stats local files and converts them to brief files.
// Only PNG, JPG and SVG up to MaxFileSize are accepted.
func FilesFromPaths(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		mime, ok := mimeTypes[strings.ToLower(filepath.Ext(p))]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, p)
		}
		if info.Size() > MaxFileSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, p)
		}

		files = append(files, File{
			Name: filepath.Base(p),
			Size: info.Size(),
			Type: mime,
		})
	}
	return files, nil
}

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
}
