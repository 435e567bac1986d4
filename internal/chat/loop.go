package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrLoopStopped is returned when calling into a Loop that is no longer running.
var ErrLoopStopped = errors.New("chat loop stopped")

type firing struct {
	id    uint64
	timer Timer
}

type action struct {
	fn   func(*Conversation) []Timer
	done chan struct{}
}

// Loop drives a Conversation in real time. All conversation access happens on
// the goroutine running Run; other goroutines go through Do.
type Loop struct {
	conv     *Conversation
	logger   *slog.Logger
	actions  chan action
	fired    chan firing
	waiters  chan chan struct{}
	stopped  chan struct{}
	onChange []func(*Conversation)
}

// NewLoop creates a loop for conv. Call Run to start it.
func NewLoop(conv *Conversation, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		conv:    conv,
		logger:  logger,
		actions: make(chan action),
		fired:   make(chan firing),
		waiters: make(chan chan struct{}),
		stopped: make(chan struct{}),
	}
}

// OnChange registers fn to run on the loop goroutine after every state change.
// Register observers before calling Run.
func (l *Loop) OnChange(fn func(*Conversation)) {
	l.onChange = append(l.onChange, fn)
}

// Run processes actions and timers until ctx is cancelled. Outstanding timers
// are stopped on return.
func (l *Loop) Run(ctx context.Context) error {
	pending := make(map[uint64]*time.Timer)
	var nextID uint64
	var idle []chan struct{}

	defer func() {
		for _, h := range pending {
			h.Stop()
		}
		close(l.stopped)
	}()

	schedule := func(timers []Timer) {
		for _, t := range timers {
			id := nextID
			nextID++
			pending[id] = time.AfterFunc(t.Delay, func() {
				select {
				case l.fired <- firing{id: id, timer: t}:
				case <-l.stopped:
				}
			})
		}
	}

	settle := func() {
		for _, fn := range l.onChange {
			fn(l.conv)
		}
		if len(pending) == 0 {
			for _, w := range idle {
				close(w)
			}
			idle = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case a := <-l.actions:
			epoch := l.conv.Epoch()
			timers := a.fn(l.conv)
			if l.conv.Epoch() != epoch {
				for id, h := range pending {
					h.Stop()
					delete(pending, id)
				}
				l.logger.Debug("conversation reset, timers cancelled", "epoch", l.conv.Epoch())
			}
			schedule(timers)
			close(a.done)
			settle()

		case f := <-l.fired:
			if _, ok := pending[f.id]; !ok {
				continue
			}
			delete(pending, f.id)
			schedule(l.conv.Fire(f.timer))
			settle()

		case w := <-l.waiters:
			if len(pending) == 0 {
				close(w)
				continue
			}
			idle = append(idle, w)
		}
	}
}

// Do runs fn on the loop goroutine and schedules the timers it returns.
func (l *Loop) Do(ctx context.Context, fn func(*Conversation) []Timer) error {
	a := action{fn: fn, done: make(chan struct{})}
	select {
	case l.actions <- a:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// WaitIdle blocks until no timers are outstanding.
func (l *Loop) WaitIdle(ctx context.Context) error {
	w := make(chan struct{})
	select {
	case l.waiters <- w:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}
