package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/chat"
	"github.com/raphaelgruber/creative-go/internal/gateway"
)

// briefFlags collects a brief from a YAML file and/or individual flags.
// Flags override the file.
type briefFlags struct {
	file        string
	platforms   []string
	assets      []string
	description string
	headline    string
	cta         string
	discount    string
	postType    string
	palette     string
}

func (f *briefFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "brief", "b", "", "brief YAML file")
	fl.StringSliceVarP(&f.platforms, "platform", "p", nil, "target platform (Facebook, Instagram, WhatsApp, LinkedIn, X.com)")
	fl.StringSliceVarP(&f.assets, "file", "f", nil, "asset to upload (.png, .jpg, .svg, max 10MB)")
	fl.StringVar(&f.description, "description", "", "post description")
	fl.StringVar(&f.headline, "headline", "", "headline")
	fl.StringVar(&f.cta, "cta", "", "call to action (shop-now, learn-more, ... or custom text)")
	fl.StringVar(&f.discount, "discount", "", "offer or discount")
	fl.StringVar(&f.postType, "post-type", "", "post type (Sale, New Arrival, Event, ...)")
	fl.StringVar(&f.palette, "palette", "", "color palette (Vibrant, Cool, Warm, Nature, Elegant)")
}

// build assembles and validates the brief.
func (f *briefFlags) build() (brief.Brief, error) {
	var b brief.Brief
	if f.file != "" {
		loaded, err := brief.Load(f.file)
		if err != nil {
			return brief.Brief{}, err
		}
		b = loaded
	}

	if len(f.platforms) > 0 {
		b.Platforms = nil
		for _, p := range f.platforms {
			b.TogglePlatform(canonicalPlatform(p))
		}
	}
	if len(f.assets) > 0 {
		files, err := brief.FilesFromPaths(f.assets)
		if err != nil {
			return brief.Brief{}, err
		}
		b.Files = append(b.Files, files...)
	}
	setIf(&b.Description, f.description)
	setIf(&b.Headline, f.headline)
	setIf(&b.CallToAction, f.cta)
	setIf(&b.Discount, f.discount)
	setIf(&b.PostType, f.postType)
	setIf(&b.Palette, f.palette)

	if err := b.Validate(); err != nil {
		return brief.Brief{}, fmt.Errorf("invalid brief: %w", err)
	}
	return b, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// canonicalPlatform fixes the case of known platform names.
func canonicalPlatform(name string) string {
	if p, ok := brief.LookupPlatform(name); ok {
		return p.Name
	}
	return name
}

// submitBrief sends the opening user message to the session gateway. An empty
// sessionID opens a new session titled after the brief.
func submitBrief(ctx context.Context, c *gateway.Client, b brief.Brief, sessionID string) (*gateway.TurnRef, error) {
	req := gateway.CreateTurnRequest{
		UserText:   chat.Opening(b)[0].Content,
		UIContext:  b.UIContext(),
		TitleIfNew: b.Title(),
	}
	if sessionID != "" {
		req.SessionID = &sessionID
	}
	for _, f := range b.Files {
		req.Attachments = append(req.Attachments, gateway.Attachment{Name: f.Name, Size: f.Size, Type: f.Type})
	}

	ref, err := c.CreateTurn(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit turn: %w", err)
	}
	logger.Info("turn submitted", "session_id", ref.SessionID, "turn_id", ref.TurnID)
	return ref, nil
}
