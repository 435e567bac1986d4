package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/chat"
	"github.com/raphaelgruber/creative-go/internal/gateway"
)

// printer writes messages as they finish revealing. Lines are printed in
// order; nothing is printed twice.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
	next  int
}

func (p *printer) render(c *chat.Conversation) {
	lines := c.View()

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.next < len(lines) && lines[p.next].Complete {
		fmt.Fprintf(p.w, "%s\n\n", p.theme.formatLine(lines[p.next]))
		p.next++
	}
}

func (p *printer) status(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.theme.hintStyle().Render(fmt.Sprintf(format, args...)))
}

type plainOptions struct {
	brief        brief.Brief
	client       *gateway.Client // nil runs offline
	sessionID    string
	say          []string
	timings      chat.Timings
	pollInterval time.Duration
	theme        Theme
}

// runPlain plays the conversation in real time as line output, for pipes and
// dumb terminals. Follow-ups from opts.say are sent once the previous reveal
// has finished.
func runPlain(ctx context.Context, w io.Writer, opts plainOptions) error {
	p := &printer{w: w, theme: opts.theme}

	var ref *gateway.TurnRef
	if opts.client != nil {
		r, err := submitBrief(ctx, opts.client, opts.brief, opts.sessionID)
		if err != nil {
			return err
		}
		ref = r
		p.status("session %s · turn %s", ref.SessionID, ref.TurnID)
	}

	conv := chat.NewConversation(nil, chat.WithTimings(opts.timings))
	loop := chat.NewLoop(conv, logger)
	loop.OnChange(p.render)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(runCtx)
	}()

	if ref != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn, err := opts.client.PollTurn(runCtx, logger, opts.pollInterval, ref.TurnID, func(t *gateway.Turn) {
				logger.Debug("turn polled", "turn_id", t.ID, "status", t.Status)
			})
			if err != nil {
				return
			}
			p.status("turn %s %s", turn.ID, turn.Status)
		}()
	}

	if err := loop.Do(runCtx, func(c *chat.Conversation) []chat.Timer { return c.Start(opts.brief) }); err != nil {
		return err
	}
	if err := loop.WaitIdle(runCtx); err != nil {
		return err
	}

	for _, text := range opts.say {
		if err := loop.Do(runCtx, func(c *chat.Conversation) []chat.Timer { return c.SubmitText(text) }); err != nil {
			return err
		}
		if err := loop.WaitIdle(runCtx); err != nil {
			return err
		}
	}
	return nil
}
