package chat

import "time"

// Phase is the reveal scheduler's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTyping
	PhaseAwaitingImage
	PhaseImageRevealed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTyping:
		return "typing"
	case PhaseAwaitingImage:
		return "awaiting_image"
	case PhaseImageRevealed:
		return "image_revealed"
	default:
		return "unknown"
	}
}

// Signal tells Conversation.Fire what a timer was scheduled for.
type Signal int

const (
	// SignalType reveals one more character of the active message.
	SignalType Signal = iota + 1
	// SignalAdvance moves to the next assistant text message.
	SignalAdvance
	// SignalImage reveals images that follow the last typed message.
	SignalImage
	// SignalReply delivers the scripted reply to a submitted draft.
	SignalReply
)

func (s Signal) String() string {
	switch s {
	case SignalType:
		return "type"
	case SignalAdvance:
		return "advance"
	case SignalImage:
		return "image"
	case SignalReply:
		return "reply"
	default:
		return "unknown"
	}
}

// Timings configures the simulation delays.
type Timings struct {
	Typing     time.Duration // per character
	MessageGap time.Duration // between assistant messages
	ImageDelay time.Duration // after the last message, before images
	ReplyDelay time.Duration // before the scripted reply
}

// DefaultTimings returns the dashboard's delays.
func DefaultTimings() Timings {
	return Timings{
		Typing:     15 * time.Millisecond,
		MessageGap: 500 * time.Millisecond,
		ImageDelay: 300 * time.Millisecond,
		ReplyDelay: time.Second,
	}
}

// RevealState is the observable progress of the typing reveal. Phase tracks
// the current pass; ImageRevealed stays true once any image pass completed,
// since revealed images are never hidden again until a reset.
type RevealState struct {
	Phase                Phase
	ActiveMessageIndex   int
	RevealedPrefixLength int
	IsTyping             bool
	ImageRevealed        bool
}

// step is a request for the next reveal timer.
type step struct {
	signal Signal
	delay  time.Duration
}

// Revealer discloses assistant text messages one rune at a time, strictly in
// order, then reveals the images that follow them. At most one reveal timer is
// outstanding at any time.
type Revealer struct {
	timings Timings
	phase   Phase
	active  int // ordinal among assistant text messages
	prefix  int // runes of the active message shown
	pending bool
	// Images at log positions below revealedThrough are visible. Only reset
	// lowers it.
	revealedThrough int
}

func newRevealer(t Timings) Revealer {
	return Revealer{timings: t}
}

// State reports the current reveal progress against the store.
func (r *Revealer) State(s *Store) RevealState {
	_, _, runes, ok := s.AssistantText(r.active)
	return RevealState{
		Phase:                r.phase,
		ActiveMessageIndex:   r.active,
		RevealedPrefixLength: r.prefix,
		IsTyping:             r.phase == PhaseTyping && ok && r.prefix < runes,
		ImageRevealed:        r.inputReady(),
	}
}

// begin moves Idle to Typing(0, 0).
func (r *Revealer) begin(s *Store) (step, bool) {
	if r.phase != PhaseIdle || s.AssistantTextCount() == 0 {
		return step{}, false
	}
	r.phase = PhaseTyping
	r.active, r.prefix = 0, 0
	return r.next(s)
}

// resume continues after new assistant text arrived. It only acts when the
// previous pass has fully completed; otherwise the running chain picks the new
// messages up on its own.
func (r *Revealer) resume(s *Store) (step, bool) {
	switch {
	case r.phase == PhaseIdle:
		return r.begin(s)
	case r.phase != PhaseImageRevealed || r.pending:
		return step{}, false
	case r.active >= s.AssistantTextCount()-1:
		return step{}, false
	}
	r.phase = PhaseTyping
	return r.schedule(SignalAdvance, r.timings.MessageGap)
}

// fire applies a reveal signal and returns the follow-up, if any.
func (r *Revealer) fire(s *Store, sig Signal) (step, bool) {
	r.pending = false

	switch sig {
	case SignalType:
		if r.phase != PhaseTyping {
			return step{}, false
		}
		r.prefix++
		return r.next(s)

	case SignalAdvance:
		if r.phase != PhaseTyping {
			return step{}, false
		}
		r.active++
		r.prefix = 0
		return r.next(s)

	case SignalImage:
		if r.phase != PhaseAwaitingImage {
			return step{}, false
		}
		if _, pos, _, ok := s.AssistantText(r.active + 1); ok {
			// More text arrived while waiting: show images up to it, then type it.
			r.revealedThrough = max(r.revealedThrough, pos)
			r.phase = PhaseTyping
			return r.schedule(SignalAdvance, r.timings.MessageGap)
		}
		r.revealedThrough = s.Len()
		r.phase = PhaseImageRevealed
		return step{}, false
	}
	return step{}, false
}

// next decides what follows Typing(active, prefix).
func (r *Revealer) next(s *Store) (step, bool) {
	_, _, runes, ok := s.AssistantText(r.active)
	switch {
	case ok && r.prefix < runes:
		return r.schedule(SignalType, r.timings.Typing)
	case r.active < s.AssistantTextCount()-1:
		return r.schedule(SignalAdvance, r.timings.MessageGap)
	default:
		r.phase = PhaseAwaitingImage
		return r.schedule(SignalImage, r.timings.ImageDelay)
	}
}

func (r *Revealer) schedule(sig Signal, d time.Duration) (step, bool) {
	r.pending = true
	return step{signal: sig, delay: d}, true
}

// shown returns how many runes of assistant text k are visible, and whether
// the message is visible at all.
func (r *Revealer) shown(k, runes int) (int, bool) {
	if r.phase == PhaseIdle {
		return 0, false
	}
	switch {
	case k < r.active:
		return runes, true
	case k == r.active:
		return min(r.prefix, runes), true
	default:
		return 0, false
	}
}

// imageVisible reports whether the image at log position pos has been revealed.
func (r *Revealer) imageVisible(pos int) bool {
	return pos < r.revealedThrough
}

// inputReady reports whether at least one image pass has completed.
func (r *Revealer) inputReady() bool {
	return r.revealedThrough > 0
}
