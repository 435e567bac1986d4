package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/creative-go/internal/brief"
	"github.com/raphaelgruber/creative-go/internal/chat"
	"github.com/raphaelgruber/creative-go/internal/gateway"
)

// revealMsg delivers an expired conversation timer.
type revealMsg struct {
	timer chat.Timer
}

// turnSubmittedMsg carries the result of submitting the brief. Results from
// an older submit epoch are ignored.
type turnSubmittedMsg struct {
	epoch uint64
	ref   *gateway.TurnRef
	err   error
}

// pollTickMsg triggers fetching the turn status. Ticks from an older poll
// epoch are ignored.
type pollTickMsg struct {
	epoch uint64
}

// turnPolledMsg carries the fetched turn.
type turnPolledMsg struct {
	epoch uint64
	turn  *gateway.Turn
	err   error
}

type dashboardOptions struct {
	brief        brief.Brief
	client       *gateway.Client // nil runs offline
	sessionID    string
	timings      chat.Timings
	pollInterval time.Duration
	theme        Theme
}

// dashboardModel is the bubbletea model for the creative chat.
type dashboardModel struct {
	conv         *chat.Conversation
	client       *gateway.Client
	brief        brief.Brief
	sessionID    string
	pollInterval time.Duration
	theme        Theme

	input    textinput.Model
	spinner  spinner.Model
	selected int

	ref        *gateway.TurnRef
	turnStatus string
	pollEpoch  uint64

	submitEpoch uint64
	submitting  bool
	alert      string
	notice     string
	quitting   bool

	// after turns a conversation timer into a command; tests capture it.
	after func(chat.Timer) tea.Cmd
}

func newDashboardModel(opts dashboardOptions) dashboardModel {
	ti := textinput.New()
	ti.Placeholder = "Ask for changes or type @ for commands..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return dashboardModel{
		conv:         chat.NewConversation(nil, chat.WithTimings(opts.timings)),
		client:       opts.client,
		brief:        opts.brief,
		sessionID:    opts.sessionID,
		pollInterval: opts.pollInterval,
		theme:        opts.theme,
		input:        ti,
		spinner:      sp,
		submitting:   true,
		after:        tickTimer,
	}
}

// tickTimer schedules a conversation timer on the bubbletea clock.
func tickTimer(t chat.Timer) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return revealMsg{timer: t}
	})
}

// Init submits the brief and starts the spinner.
func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit())
}

// Update handles messages and returns the updated model.
func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case turnSubmittedMsg:
		if msg.epoch != m.submitEpoch {
			logger.Debug("dropping stale turn submission", "epoch", msg.epoch)
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.alert = fmt.Sprintf("Failed to generate creative: %v", msg.err)
			logger.Error("turn submission failed", "error", msg.err)
			return m, nil
		}
		m.ref = msg.ref
		m.turnStatus = ""
		if msg.ref != nil {
			m.sessionID = msg.ref.SessionID
			m.turnStatus = msg.ref.Status
		}
		m.pollEpoch++
		cmds := []tea.Cmd{m.schedule(m.conv.Start(m.brief))}
		if m.ref != nil {
			cmds = append(cmds, m.pollTick())
		}
		return m, tea.Batch(cmds...)

	case revealMsg:
		return m, m.schedule(m.conv.Fire(msg.timer))

	case pollTickMsg:
		if msg.epoch != m.pollEpoch || m.ref == nil {
			return m, nil
		}
		return m, m.fetchTurn()

	case turnPolledMsg:
		if msg.epoch != m.pollEpoch {
			return m, nil
		}
		if msg.err != nil {
			logger.Warn("poll turn failed", "turn_id", m.ref.TurnID, "error", msg.err)
			return m, m.pollTick()
		}
		m.turnStatus = msg.turn.Status
		if gateway.IsActive(msg.turn.Status) {
			return m, m.pollTick()
		}
		logger.Info("turn settled", "turn_id", msg.turn.ID, "status", msg.turn.Status)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m dashboardModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	comp := m.conv.Composition()

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+r":
		if m.submitting || (m.alert == "" && len(m.conv.Messages()) > 0) {
			return m, nil
		}
		m.alert = ""
		m.notice = ""
		m.submitting = true
		return m, m.submit()

	case "ctrl+n":
		m.newCreative()
		return m, nil

	case "ctrl+f":
		if m.conv.InputReady() {
			m.notice = "Creative finalized! Your creative is ready to download and publish."
		}
		return m, nil

	case "esc":
		switch {
		case comp.MenuOpen:
			m.conv.CloseMenu()
		case m.alert != "":
			m.alert = ""
		}
		return m, nil

	case "up", "down":
		if comp.MenuOpen {
			n := len(comp.Candidates)
			if msg.String() == "up" {
				m.selected = (m.selected - 1 + n) % n
			} else {
				m.selected = (m.selected + 1) % n
			}
			return m, nil
		}

	case "tab", "enter":
		if comp.MenuOpen {
			m.insert(comp.Candidates[min(m.selected, len(comp.Candidates)-1)].Name)
			return m, nil
		}
		if msg.String() == "enter" {
			return m, m.send()
		}
		return m, nil
	}

	if m.alert != "" || !m.conv.InputReady() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setDraft(m.input.Value())
	return m, cmd
}

// setDraft mirrors the text input into the composer.
func (m *dashboardModel) setDraft(text string) {
	before := m.conv.Composition()
	after := m.conv.Draft(text)
	if !after.MenuOpen || len(after.Candidates) != len(before.Candidates) {
		m.selected = 0
	}
}

func (m *dashboardModel) insert(name string) {
	comp := m.conv.InsertCandidate(name)
	m.input.SetValue(comp.Text)
	m.input.CursorEnd()
	m.selected = 0
}

func (m *dashboardModel) send() tea.Cmd {
	if !m.conv.InputReady() {
		return nil
	}
	timers := m.conv.Submit()
	if timers == nil {
		return nil
	}
	m.input.SetValue("")
	m.notice = ""
	return m.schedule(timers)
}

// newCreative discards the conversation, stops polling and orphans any
// submission still in flight. The brief is kept
// so ctrl+r can generate again.
func (m *dashboardModel) newCreative() {
	m.conv.Reset()
	m.pollEpoch++
	m.submitEpoch++
	m.submitting = false
	m.ref = nil
	m.turnStatus = ""
	m.alert = ""
	m.notice = ""
	m.selected = 0
	m.input.SetValue("")
}

func (m dashboardModel) schedule(timers []chat.Timer) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(timers))
	for _, t := range timers {
		cmds = append(cmds, m.after(t))
	}
	return tea.Batch(cmds...)
}

// submit creates the turn on the session gateway. Offline runs skip the call.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m dashboardModel) submit() tea.Cmd {
	client, b, sessionID, epoch := m.client, m.brief, m.sessionID, m.submitEpoch
	return func() tea.Msg {
		if client == nil {
			return turnSubmittedMsg{epoch: epoch}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ref, err := submitBrief(ctx, client, b, sessionID)
		return turnSubmittedMsg{epoch: epoch, ref: ref, err: err}
	}
}

func (m dashboardModel) pollTick() tea.Cmd {
	epoch := m.pollEpoch
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{epoch: epoch}
	})
}

// fetchTurn fetches the current turn status from the gateway.
func (m dashboardModel) fetchTurn() tea.Cmd {
	client, turnID, epoch := m.client, m.ref.TurnID, m.pollEpoch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		turn, err := client.GetTurn(ctx, turnID)
		return turnPolledMsg{epoch: epoch, turn: turn, err: err}
	}
}

// View renders the dashboard.
func (m dashboardModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m dashboardModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")

	if m.alert != "" {
		body := m.theme.errorStyle().Render("✗ "+m.alert) + "\n\n" +
			m.theme.hintStyle().Render("ctrl+r retry · esc dismiss · ctrl+c quit")
		sb.WriteString(m.theme.alertStyle().Render(body))
		sb.WriteString("\n")
		return sb.String()
	}

	if m.submitting {
		sb.WriteString(m.spinner.View() + " Submitting your brief...\n")
		return sb.String()
	}

	lines := m.conv.View()
	if len(lines) == 0 {
		sb.WriteString(m.theme.hintStyle().Render("New creative. Press ctrl+r to generate from the current brief."))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, line := range lines {
		if !line.Visible {
			continue
		}
		sb.WriteString(m.theme.formatLine(line))
		sb.WriteString("\n\n")
	}

	if m.conv.Generating() && !m.conv.InputReady() && !m.conv.RevealState().IsTyping {
		sb.WriteString(m.spinner.View() + " VC is working on your creative...\n\n")
	}

	if m.notice != "" {
		sb.WriteString(m.theme.successStyle().Render("✓ "+m.notice) + "\n\n")
	}

	comp := m.conv.Composition()
	if comp.MenuOpen {
		for i, c := range comp.Candidates {
			entry := fmt.Sprintf("@%-12s %s", c.Name, c.Description)
			if i == m.selected {
				sb.WriteString(m.theme.selectedStyle().Render(entry))
			} else {
				sb.WriteString(m.theme.hintStyle().Render(entry))
			}
			sb.WriteString("\n")
		}
	}

	if m.conv.InputReady() {
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
		sb.WriteString(m.theme.hintStyle().Render("enter send · @ commands · ctrl+f finalize · ctrl+n new · ctrl+c quit"))
	} else {
		sb.WriteString(m.theme.hintStyle().Render("Waiting for your creative... (ctrl+n new · ctrl+c quit)"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m dashboardModel) renderHeader() string {
	title := m.theme.titleStyle().Render("Creative Builder")
	parts := []string{strings.Join(m.brief.Platforms, ", ")}
	if m.sessionID != "" {
		parts = append(parts, "session "+m.sessionID)
	}
	if m.turnStatus != "" {
		parts = append(parts, "turn "+m.turnStatus)
	}
	if m.client == nil {
		parts = append(parts, "offline")
	}
	return title + " " + m.theme.hintStyle().Render(strings.Join(parts, " · "))
}

// runDashboard runs the interactive dashboard until the user quits.
func runDashboard(opts dashboardOptions) error {
	p := tea.NewProgram(newDashboardModel(opts))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}
