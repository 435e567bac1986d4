package cli

import (
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/chat"
	"github.com/raphaelgruber/creative-go/internal/gateway"
)

var fastTimings = chat.Timings{
	Typing:     time.Millisecond,
	MessageGap: time.Millisecond,
	ImageDelay: time.Millisecond,
	ReplyDelay: time.Millisecond,
}

func sampleBrief() brief.Brief {
	return brief.Brief{
		Platforms:    []string{"Instagram"},
		Files:        []brief.File{{Name: "hero.png", Size: 2048, Type: "image/png"}},
		Headline:     "Summer Sale",
		CallToAction: "shop-now",
		PostType:     "Sale",
		Palette:      "Warm",
	}
}

// harness drives the dashboard model without a bubbletea program. Timers are
// captured and fired on demand.
type harness struct {
	m      dashboardModel
	timers []chat.Timer
}

func newHarness() *harness {
	h := &harness{}
	h.m = newDashboardModel(dashboardOptions{
		brief:        sampleBrief(),
		timings:      fastTimings,
		pollInterval: time.Second,
		theme:        darkTheme,
	})
	h.m.after = func(t chat.Timer) tea.Cmd {
		h.timers = append(h.timers, t)
		return nil
	}
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	model, cmd := h.m.Update(msg)
	h.m = model.(dashboardModel)
	return cmd
}

func (h *harness) drain() {
	for len(h.timers) > 0 {
		t := h.timers[0]
		h.timers = h.timers[1:]
		h.update(revealMsg{timer: t})
	}
}

func (h *harness) started() *harness {
	h.update(turnSubmittedMsg{})
	h.drain()
	return h
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

func TestDashboardOfflineReveal(t *testing.T) {
	h := newHarness()
	assert.Contains(t, h.m.renderContent(), "Submitting your brief")

	h.update(turnSubmittedMsg{})
	assert.False(t, h.m.conv.InputReady())
	require.Len(t, h.timers, 1)

	h.drain()
	assert.True(t, h.m.conv.InputReady())

	out := h.m.renderContent()
	assert.Contains(t, out, "Here's your generated creative!")
	assert.Contains(t, out, "[creative] "+chat.ImageVariant(0))
	assert.Contains(t, out, "offline")
}

func TestDashboardSubmissionFailure(t *testing.T) {
	h := newHarness()

	cmd := h.update(turnSubmittedMsg{err: errors.New("server error: 500 - boom")})
	assert.Nil(t, cmd)
	assert.Contains(t, h.m.alert, "boom")
	assert.Empty(t, h.m.conv.Messages(), "reveal must not start after a failed submission")
	assert.Empty(t, h.timers)
	assert.Contains(t, h.m.renderContent(), "ctrl+r retry")

	cmd = h.update(ctrl('r'))
	assert.NotNil(t, cmd)
	assert.True(t, h.m.submitting)
	assert.Empty(t, h.m.alert)
}

func TestDashboardCommandMenu(t *testing.T) {
	h := newHarness().started()

	h.m.setDraft("@")
	comp := h.m.conv.Composition()
	require.True(t, comp.MenuOpen)
	require.Len(t, comp.Candidates, 10)

	h.update(key(tea.KeyUp))
	assert.Equal(t, 9, h.m.selected, "up wraps to the last candidate")
	h.update(key(tea.KeyDown))
	assert.Equal(t, 0, h.m.selected)
	h.update(key(tea.KeyDown))
	assert.Equal(t, 1, h.m.selected)

	h.update(key(tea.KeyTab))
	assert.Equal(t, "@Opacity ", h.m.input.Value())
	assert.False(t, h.m.conv.Composition().MenuOpen)

	h.m.setDraft("make it @Ro")
	assert.Equal(t, 0, h.m.selected)
	assert.Contains(t, h.m.renderContent(), "@Rotate")
	h.update(key(tea.KeyEscape))
	assert.False(t, h.m.conv.Composition().MenuOpen)
}

func TestDashboardSendFollowUp(t *testing.T) {
	h := newHarness().started()

	h.m.setDraft("@Ro")
	h.update(key(tea.KeyEnter))
	assert.Equal(t, "@Rotate ", h.m.input.Value())

	h.m.input.SetValue("@Rotate 90")
	h.m.setDraft("@Rotate 90")
	h.update(key(tea.KeyEnter))
	assert.Empty(t, h.m.input.Value())

	msgs := h.m.conv.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, chat.RoleUser, last.Role)
	assert.Equal(t, "@Rotate 90", last.Content)

	h.drain()
	out := h.m.renderContent()
	assert.Contains(t, out, "Applying: @Rotate")
	assert.Contains(t, out, chat.ImageVariant(1))
}

func TestDashboardIgnoresInputBeforeReady(t *testing.T) {
	h := newHarness()
	h.update(turnSubmittedMsg{})

	h.update(key(tea.KeyEnter))
	assert.Len(t, h.m.conv.Messages(), 5, "nothing is sent while the creative is generating")
	assert.Contains(t, h.m.renderContent(), "Waiting for your creative")
}

func TestDashboardPolling(t *testing.T) {
	h := newHarness()

	cmd := h.update(turnSubmittedMsg{ref: &gateway.TurnRef{SessionID: "s1", TurnID: "t1", Status: "pending"}})
	assert.NotNil(t, cmd)
	assert.Equal(t, "s1", h.m.sessionID)
	epoch := h.m.pollEpoch

	assert.Nil(t, h.update(pollTickMsg{epoch: epoch - 1}), "stale tick")
	assert.NotNil(t, h.update(pollTickMsg{epoch: epoch}))

	assert.NotNil(t, h.update(turnPolledMsg{epoch: epoch, err: errors.New("connection refused")}),
		"poll errors keep polling")

	assert.NotNil(t, h.update(turnPolledMsg{epoch: epoch, turn: &gateway.Turn{ID: "t1", Status: "running"}}))
	assert.Equal(t, "running", h.m.turnStatus)

	assert.Nil(t, h.update(turnPolledMsg{epoch: epoch, turn: &gateway.Turn{ID: "t1", Status: "completed"}}))
	assert.Equal(t, "completed", h.m.turnStatus)
	assert.Contains(t, h.m.renderHeader(), "turn completed")
}

func TestDashboardNewCreative(t *testing.T) {
	h := newHarness()
	h.update(turnSubmittedMsg{ref: &gateway.TurnRef{SessionID: "s1", TurnID: "t1", Status: "pending"}})
	epoch := h.m.pollEpoch
	h.update(revealMsg{timer: h.timers[0]})
	stale := h.timers[1:]

	h.update(ctrl('n'))
	assert.Empty(t, h.m.conv.Messages())
	assert.Nil(t, h.m.ref)

	for _, tm := range stale {
		h.update(revealMsg{timer: tm})
	}
	assert.Empty(t, h.m.conv.Messages(), "timers from before the reset are ignored")

	h.update(turnPolledMsg{epoch: epoch, turn: &gateway.Turn{ID: "t1", Status: "completed"}})
	assert.Empty(t, h.m.turnStatus, "polls from before the reset are ignored")
	assert.Contains(t, h.m.renderContent(), "New creative")

	assert.NotNil(t, h.update(ctrl('r')))
	assert.True(t, h.m.submitting)
}

func TestDashboardNewCreativeDuringSubmission(t *testing.T) {
	h := newHarness()
	require.True(t, h.m.submitting)
	inFlight := h.m.submitEpoch

	h.update(ctrl('n'))
	assert.False(t, h.m.submitting)

	cmd := h.update(turnSubmittedMsg{epoch: inFlight, ref: &gateway.TurnRef{SessionID: "s1", TurnID: "t1", Status: "pending"}})
	assert.Nil(t, cmd)
	assert.Empty(t, h.m.conv.Messages(), "a submission from before the reset does not start a conversation")
	assert.Empty(t, h.timers)
	assert.Nil(t, h.m.ref)
	assert.Empty(t, h.m.sessionID)

	h.update(turnSubmittedMsg{epoch: inFlight, err: errors.New("timeout")})
	assert.Empty(t, h.m.alert, "a failure from before the reset is not shown")

	retry := h.update(ctrl('r'))
	require.NotNil(t, retry)
	msg, ok := retry().(turnSubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, h.m.submitEpoch, msg.epoch)

	h.update(msg)
	h.drain()
	assert.True(t, h.m.conv.InputReady())
}

func TestDashboardFinalize(t *testing.T) {
	h := newHarness()
	h.update(turnSubmittedMsg{})
	h.update(ctrl('f'))
	assert.Empty(t, h.m.notice, "nothing to finalize yet")

	h.drain()
	h.update(ctrl('f'))
	assert.Contains(t, h.m.renderContent(), "Creative finalized!")
}
