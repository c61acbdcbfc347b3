package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/saransh1220/procurement-console/internal/modules/notification/application"
	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// Feed is the part of a notification session the watcher drives.
type Feed interface {
	Snapshot() application.Snapshot
	Updates() <-chan struct{}
	Refresh(ctx context.Context)
	MarkAsRead(ctx context.Context, ids []domain.NotificationID)
	MarkAllAsRead(ctx context.Context)
	DeleteNotifications(ctx context.Context, ids []domain.NotificationID)
	Stop()
}

// FeedChangedMsg is sent whenever the session signals a state change.
type FeedChangedMsg struct{}

// feedClosedMsg ends the update subscription once the session is gone.
type feedClosedMsg struct{}

// Model is the Bubble Tea model of the notification watcher.
type Model struct {
	ctx      context.Context
	feed     Feed
	title    string
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	snap     application.Snapshot
	cursor   int
	width    int
	height   int
	quitting bool
}

func New(ctx context.Context, feed Feed, title string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorYellow)

	return Model{
		ctx:     ctx,
		feed:    feed,
		title:   title,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		snap:    feed.Snapshot(),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.feed), m.spinner.Tick)
}

func waitForChange(feed Feed) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-feed.Updates(); !ok {
			return feedClosedMsg{}
		}
		return FeedChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case FeedChangedMsg:
		m.snap = m.feed.Snapshot()
		m.clampCursor()
		return m, waitForChange(m.feed)

	case feedClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.feed.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Notifications)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.MarkRead):
		n, ok := m.selected()
		if !ok || n.IsRead {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) {
			m.feed.MarkAsRead(ctx, []domain.NotificationID{n.ID})
		})

	case key.Matches(msg, m.keys.MarkAll):
		if m.snap.UnreadCount == 0 {
			return m, nil
		}
		return m, m.run(m.feed.MarkAllAsRead)

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) {
			m.feed.DeleteNotifications(ctx, []domain.NotificationID{n.ID})
		})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(m.feed.Refresh)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// run performs a session call off the update loop. The resulting state change
// arrives as a FeedChangedMsg.
func (m Model) run(fn func(context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return nil
	}
}

func (m Model) selected() (domain.Notification, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Notifications) {
		return domain.Notification{}, false
	}
	return m.snap.Notifications[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Notifications) {
		m.cursor = len(m.snap.Notifications) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if len(m.snap.Notifications) == 0 {
		b.WriteString(DimmedStyle.Render("  No notifications"))
		b.WriteString("\n")
	}
	for i, n := range m.visible() {
		b.WriteString(m.row(n, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) header() string {
	parts := []string{HeaderStyle.Render(m.title)}
	if m.snap.UnreadCount > 0 {
		parts = append(parts, UnreadBadgeStyle.Render(fmt.Sprintf("%d unread", m.snap.UnreadCount)))
	}
	parts = append(parts, StateStyle(m.snap.State).Render(stateLabel(m.snap.State)))
	if m.snap.Loading {
		parts = append(parts, m.spinner.View()+DimmedStyle.Render("loading"))
	}
	return strings.Join(parts, " ")
}

// visible returns the rows that fit the terminal; the cursor row is always
// included.
func (m Model) visible() []domain.Notification {
	rows := m.height - 6
	if rows < 1 || rows >= len(m.snap.Notifications) {
		return m.snap.Notifications
	}
	end := rows
	if m.cursor >= end {
		end = m.cursor + 1
	}
	return m.snap.Notifications[:end]
}

func (m Model) row(n domain.Notification, selected bool) string {
	marker := " "
	if !n.IsRead {
		marker = lipgloss.NewStyle().Foreground(ColorBlue).Render("•")
	}

	line := fmt.Sprintf("%s %s", marker, n.Title)
	if n.Message != "" {
		line += DimmedStyle.Render("  " + n.Message)
	}
	if n.ServiceType != "" {
		line += ServiceBadgeStyle.Render(n.ServiceType)
	}
	if !n.CreatedAt.IsZero() {
		line += DimmedStyle.Render("  " + humanize.Time(n.CreatedAt))
	}

	if n.IsRead {
		line = DimmedStyle.Render(line)
	}
	if selected {
		return SelectedItemStyle.Render(line)
	}
	return ListItemStyle.Render(line)
}

func stateLabel(state domain.ConnectionState) string {
	switch state {
	case domain.StateConnected:
		return "● live"
	case domain.StateConnecting:
		return "○ connecting"
	default:
		return "○ offline"
	}
}
