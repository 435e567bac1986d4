package chat

import (
	"sort"
	"time"
)

// maxFires bounds Drain so a scheduling bug cannot spin forever.
const maxFires = 1 << 20

type scheduled struct {
	at    time.Duration
	seq   int
	timer Timer
}

// Timeline drives a Conversation on a virtual clock. Timers fire in deadline
// order, ties in scheduling order. It is used for transcripts and tests.
type Timeline struct {
	conv  *Conversation
	now   time.Duration
	seq   int
	queue []scheduled
}

// NewTimeline wraps conv with an empty virtual clock at zero.
func NewTimeline(conv *Conversation) *Timeline {
	return &Timeline{conv: conv}
}

// Conversation returns the driven conversation.
func (t *Timeline) Conversation() *Conversation {
	return t.conv
}

// Now returns the elapsed virtual time.
func (t *Timeline) Now() time.Duration {
	return t.now
}

// Pending returns the number of scheduled timers.
func (t *Timeline) Pending() int {
	return len(t.queue)
}

// Next returns the earliest scheduled timer without firing it.
func (t *Timeline) Next() (Timer, bool) {
	if len(t.queue) == 0 {
		return Timer{}, false
	}
	return t.queue[0].timer, true
}

// Schedule queues timers relative to the current virtual time.
func (t *Timeline) Schedule(timers ...Timer) {
	for _, tm := range timers {
		t.queue = append(t.queue, scheduled{at: t.now + tm.Delay, seq: t.seq, timer: tm})
		t.seq++
	}
	sort.Slice(t.queue, func(i, j int) bool {
		if t.queue[i].at != t.queue[j].at {
			return t.queue[i].at < t.queue[j].at
		}
		return t.queue[i].seq < t.queue[j].seq
	})
}

// Step fires the earliest timer, moving the clock to its deadline.
func (t *Timeline) Step() bool {
	if len(t.queue) == 0 {
		return false
	}
	next := t.queue[0]
	t.queue = t.queue[1:]
	t.now = next.at
	t.Schedule(t.conv.Fire(next.timer)...)
	return true
}

// Advance moves the clock forward by d, firing every timer that comes due.
// It returns the number of timers fired.
func (t *Timeline) Advance(d time.Duration) int {
	deadline := t.now + d
	fired := 0
	for len(t.queue) > 0 && t.queue[0].at <= deadline {
		t.Step()
		fired++
	}
	t.now = deadline
	return fired
}

// Drain fires timers until none remain and returns how many fired.
func (t *Timeline) Drain() int {
	fired := 0
	for fired < maxFires && t.Step() {
		fired++
	}
	return fired
}
