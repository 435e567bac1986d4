package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/creative-go/internal/brief"
)

const notSpecified = "Not specified"

// Opening builds the first exchange of a generation cycle: the user's brief
// restated, three assistant messages and the initial image.
func Opening(b brief.Brief) []Message {
	platforms := strings.Join(b.Platforms, ", ")
	files := strings.Join(b.FileNames(), ", ")

	var sb strings.Builder
	sb.WriteString("Hey VC, I want to create a post for **" + platforms + "**.\n\n")
	sb.WriteString("📝 **Post Description:** " + orDefault(b.Description, notSpecified) + "\n\n")
	sb.WriteString("🎯 **Headline:** " + orDefault(b.Headline, notSpecified) + "\n\n")
	sb.WriteString("🔘 **Call to Action:** " + orDefault(brief.CTALabel(b.CallToAction), notSpecified) + "\n\n")
	if b.Discount != "" {
		sb.WriteString("💰 **Offer/Discount:** " + b.Discount + "\n\n")
	}
	sb.WriteString("🏷️ **Post Type:** " + orDefault(b.PostType, notSpecified) + "\n\n")
	sb.WriteString("🎨 **Color Palette:** " + orDefault(b.Palette, notSpecified) + "\n\n")
	sb.WriteString("📎 **Uploaded Files:** " + orDefault(files, "None"))

	return []Message{
		{Role: RoleUser, Kind: KindText, Content: sb.String()},
		{Role: RoleAssistant, Kind: KindText, Content: "Thanks for sharing the details! I'm analyzing your request for " + platforms + ". 🎯"},
		{Role: RoleAssistant, Kind: KindText, Content: "I've processed your uploaded assets and I'm now generating creative visuals using the **" +
			orDefault(b.Palette, "default") + "** color palette with your **" + orDefault(b.PostType, "promotional") + "** theme."},
		{Role: RoleAssistant, Kind: KindText, Content: "Here's your generated creative! ✨"},
		{Role: RoleAssistant, Kind: KindImage, Content: InitialImage},
	}
}

// Reply synthesizes the assistant's answer to a submitted draft. Drafts that
// invoke @commands get an acknowledgement plus a modified image keyed by now.
func Reply(draft string, now time.Time) []Message {
	invoked := ExtractInvoked(draft)
	if len(invoked) == 0 {
		return []Message{{
			Role:    RoleAssistant,
			Kind:    KindText,
			Content: "I've received your request. How can I help you further with this creative?",
		}}
	}

	tokens := make([]string, len(invoked))
	for i, name := range invoked {
		tokens[i] = "@" + name
	}

	return []Message{
		{
			Role:    RoleAssistant,
			Kind:    KindText,
			Content: "I've received your request. Applying: " + strings.Join(tokens, ", ") + ". Here's your updated creative! ✨",
		},
		{
			Role:    RoleAssistant,
			Kind:    KindImage,
			Content: modifiedImagePrefix + strconv.FormatInt(now.UnixMilli(), 10),
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
