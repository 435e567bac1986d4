// Package chat implements the simulated creative-assistant conversation: the
// message log, @command composition, scripted replies, and the typing reveal.
//
// The package never starts goroutines or timers on its own. Delays are returned
// as Timer values that a host (the bubbletea program, Loop, or Timeline) schedules
// and hands back to Conversation.Fire.
package chat

import "unicode/utf8"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes text from generated images.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Image references produced by the responder.
const (
	InitialImage        = "initial-image"
	modifiedImagePrefix = "modified-"
)

// ImageVariants are the stock creatives images resolve to.
var ImageVariants = []string{
	"https://images.unsplash.com/photo-1607082348824-0a96f2a4b9da?w=800&h=600&fit=crop",
	"https://images.unsplash.com/photo-1556742049-0cfed4f6a45d?w=800&h=600&fit=crop",
	"https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=800&h=600&fit=crop",
	"https://images.unsplash.com/photo-1563013544-824ae1b704d3?w=800&h=600&fit=crop",
	"https://images.unsplash.com/photo-1441986300917-64674bd600d8?w=800&h=600&fit=crop",
}

// ImageVariant maps the n-th image of a conversation to a stock asset.
func ImageVariant(ordinal int) string {
	if ordinal < 0 {
		ordinal = -ordinal
	}
	return ImageVariants[ordinal%len(ImageVariants)]
}

// Message is one entry of the conversation log. Messages are never mutated.
type Message struct {
	Role    Role   `json:"role"`
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// IsAssistantText reports whether the message is subject to the typing reveal.
func (m Message) IsAssistantText() bool {
	return m.Role == RoleAssistant && m.Kind == KindText
}

// textRef locates an assistant text message and caches its rune length.
type textRef struct {
	pos   int
	runes int
}

// Store is the append-only conversation log with derived indices kept up to
// date on append.
type Store struct {
	messages      []Message
	assistantText []textRef
	images        []int
	imageOrdinal  map[int]int
}

// Append adds a batch of messages. The batch is visible as a whole.
func (s *Store) Append(msgs ...Message) {
	if s.imageOrdinal == nil {
		s.imageOrdinal = make(map[int]int)
	}
	for _, m := range msgs {
		pos := len(s.messages)
		s.messages = append(s.messages, m)

		switch {
		case m.IsAssistantText():
			s.assistantText = append(s.assistantText, textRef{pos: pos, runes: utf8.RuneCountInString(m.Content)})
		case m.Kind == KindImage:
			s.imageOrdinal[pos] = len(s.images)
			s.images = append(s.images, pos)
		}
	}
}

// Reset clears the log and all derived indices.
func (s *Store) Reset() {
	*s = Store{}
}

// Snapshot returns a copy of the log in display order.
func (s *Store) Snapshot() []Message {
	return append([]Message(nil), s.messages...)
}

// Len returns the number of messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// At returns the message at position pos.
func (s *Store) At(pos int) Message {
	return s.messages[pos]
}

// AssistantTextCount returns how many assistant text messages the log holds.
func (s *Store) AssistantTextCount() int {
	return len(s.assistantText)
}

// AssistantText returns the k-th assistant text message, its position in the
// log and its length in runes.
func (s *Store) AssistantText(k int) (msg Message, pos, runes int, ok bool) {
	if k < 0 || k >= len(s.assistantText) {
		return Message{}, -1, 0, false
	}
	ref := s.assistantText[k]
	return s.messages[ref.pos], ref.pos, ref.runes, true
}

// AssistantTextOrdinal returns k for the assistant text message at pos, or -1.
func (s *Store) AssistantTextOrdinal(pos int) int {
	// assistantText is sorted by position.
	lo, hi := 0, len(s.assistantText)
	for lo < hi {
		mid := (lo + hi) / 2
		switch p := s.assistantText[mid].pos; {
		case p == pos:
			return mid
		case p < pos:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// ImageOrdinal returns n for the n-th image message at pos, or -1.
func (s *Store) ImageOrdinal(pos int) int {
	if n, ok := s.imageOrdinal[pos]; ok {
		return n
	}
	return -1
}

// ImageCount returns the number of image messages.
func (s *Store) ImageCount() int {
	return len(s.images)
}
