package chat

import (
	"strings"
	"time"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/commands"
)

// Timer is a delayed signal requested by the conversation. The host waits
// Delay and passes the timer back to Conversation.Fire. Timers from an earlier
// epoch are ignored, which is how reset cancels everything in flight.
type Timer struct {
	Epoch  uint64
	Delay  time.Duration
	Signal Signal
	Draft  string // submitted text, for SignalReply
}

// Line is one message as it should currently be rendered.
type Line struct {
	Message Message
	Pos     int
	Visible bool
	// Text is the visible part of a text message.
	Text string
	// Typing marks the assistant message currently being revealed.
	Typing bool
	// Complete is true once the message is fully visible.
	Complete bool
	// Image is the resolved asset for image messages.
	Image string
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithTimings overrides the reveal and reply delays.
func WithTimings(t Timings) Option {
	return func(c *Conversation) {
		c.timings = t
	}
}

// WithClock sets the clock used to key modified images.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

// Conversation is the chat engine for one creative session. It is not safe for
// concurrent use; hosts serialize calls (bubbletea's Update, Loop, Timeline).
type Conversation struct {
	timings    Timings
	now        func() time.Time
	epoch      uint64
	generating bool
	store      Store
	composer   *Composer
	reveal     Revealer
}

// NewConversation creates an idle conversation.
func NewConversation(reg *commands.Registry, opts ...Option) *Conversation {
	if reg == nil {
		reg = commands.Default()
	}
	c := &Conversation{
		timings:  DefaultTimings(),
		now:      time.Now,
		composer: NewComposer(reg),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reveal = newRevealer(c.timings)
	return c
}

// Start begins a generation cycle from a completed brief. Any previous
// conversation is discarded.
func (c *Conversation) Start(b brief.Brief) []Timer {
	c.Reset()
	c.generating = true
	c.store.Append(Opening(b)...)
	return c.timers(c.reveal.begin(&c.store))
}

// Draft updates the in-progress input and its autocomplete menu.
func (c *Conversation) Draft(text string) Composition {
	return c.composer.SetDraft(text)
}

// InsertCandidate completes the active @token with the named command.
func (c *Conversation) InsertCandidate(name string) Composition {
	return c.composer.Insert(name)
}

// CloseMenu dismisses the autocomplete menu.
func (c *Conversation) CloseMenu() Composition {
	return c.composer.CloseMenu()
}

// Composition returns the in-progress input.
func (c *Conversation) Composition() Composition {
	return c.composer.State()
}

// Submit sends the current draft.
func (c *Conversation) Submit() []Timer {
	return c.SubmitText(c.composer.State().Text)
}

// SubmitText appends text as a user message and schedules the scripted reply.
// Whitespace-only text is ignored.
func (c *Conversation) SubmitText(text string) []Timer {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.store.Append(Message{Role: RoleUser, Kind: KindText, Content: text})
	c.composer.Clear()
	return []Timer{{Epoch: c.epoch, Delay: c.timings.ReplyDelay, Signal: SignalReply, Draft: text}}
}

// Fire applies an expired timer and returns the timers it schedules.
func (c *Conversation) Fire(t Timer) []Timer {
	if t.Epoch != c.epoch {
		return nil
	}
	if t.Signal == SignalReply {
		c.store.Append(Reply(t.Draft, c.now())...)
		c.generating = true
		return c.timers(c.reveal.resume(&c.store))
	}
	return c.timers(c.reveal.fire(&c.store, t.Signal))
}

// Reset returns to the empty idle state and invalidates every outstanding
// timer. Resetting an already reset conversation changes nothing.
func (c *Conversation) Reset() {
	if c.pristine() {
		return
	}
	c.epoch++
	c.generating = false
	c.store.Reset()
	c.composer.Clear()
	c.reveal = newRevealer(c.timings)
}

func (c *Conversation) pristine() bool {
	return !c.generating && c.store.Len() == 0 && c.composer.State().Text == "" &&
		c.reveal == newRevealer(c.timings)
}

// Messages returns a copy of the full log, including unrevealed entries.
func (c *Conversation) Messages() []Message {
	return c.store.Snapshot()
}

// RevealState reports typing progress.
func (c *Conversation) RevealState() RevealState {
	return c.reveal.State(&c.store)
}

// Generating reports whether a generation cycle is active.
func (c *Conversation) Generating() bool {
	return c.generating
}

// InputReady reports whether the user may compose follow-ups, which is once
// the first creative has been shown.
func (c *Conversation) InputReady() bool {
	return c.reveal.inputReady()
}

// Epoch identifies the current cycle. It changes on every effective reset.
func (c *Conversation) Epoch() uint64 {
	return c.epoch
}

// Timings returns the configured delays.
func (c *Conversation) Timings() Timings {
	return c.timings
}

// View resolves every message to its current rendering. User messages are
// always visible; assistant text follows the reveal; images appear once
// revealed.
func (c *Conversation) View() []Line {
	lines := make([]Line, c.store.Len())
	for pos := range lines {
		m := c.store.At(pos)
		line := Line{Message: m, Pos: pos}

		switch {
		case m.Role == RoleUser:
			line.Visible, line.Complete, line.Text = true, true, m.Content

		case m.Kind == KindImage:
			if c.reveal.imageVisible(pos) {
				line.Visible, line.Complete = true, true
				line.Image = ImageVariant(c.store.ImageOrdinal(pos))
			}

		default:
			k := c.store.AssistantTextOrdinal(pos)
			_, _, runes, _ := c.store.AssistantText(k)
			n, ok := c.reveal.shown(k, runes)
			if !ok {
				break
			}
			line.Visible = true
			line.Complete = n == runes
			line.Typing = !line.Complete
			line.Text = prefixRunes(m.Content, n)
		}
		lines[pos] = line
	}
	return lines
}

func (c *Conversation) timers(st step, ok bool) []Timer {
	if !ok {
		return nil
	}
	return []Timer{{Epoch: c.epoch, Delay: st.delay, Signal: st.signal}}
}

// prefixRunes returns the first n runes of s.
func prefixRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
