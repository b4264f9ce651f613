// Package monitor renders a live view of the bound host: its version and
// every telemetry setting change pushed while the monitor runs.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hostbridge/internal/modules/host/dto"
	"hostbridge/internal/platform/stream"
)

const maxEvents = 12

type hostPort interface {
	Mode() string
	Version(ctx context.Context) (dto.HostVersion, error)
	Telemetry(ctx context.Context) (dto.TelemetryEvent, error)
	WatchTelemetry(ctx context.Context) (*stream.Subscription[dto.TelemetryEvent], error)
}

type versionLoadedMsg struct {
	version dto.HostVersion
	current dto.TelemetryEvent
	err     error
}

type subscribedMsg struct {
	sub *stream.Subscription[dto.TelemetryEvent]
	err error
}

type telemetryMsg struct {
	event dto.TelemetryEvent
	at    time.Time
}

type streamEndedMsg struct{ err error }

type eventLine struct {
	at    time.Time
	event dto.TelemetryEvent
}

type Model struct {
	host hostPort
	now  func() time.Time

	version dto.HostVersion
	current dto.TelemetryEvent
	loaded  bool
	sub     *stream.Subscription[dto.TelemetryEvent]
	live    bool
	events  []eventLine
	status  string
	width   int
}

func NewModel(host hostPort) Model {
	return Model{host: host, now: time.Now, status: "connecting"}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.subscribeCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.sub != nil {
				m.sub.Unsubscribe()
			}
			return m, tea.Quit
		case "r":
			m.status = "refreshing"
			return m, m.loadCmd()
		}

	case versionLoadedMsg:
		if msg.err != nil {
			m.status = "host version: " + msg.err.Error()
			return m, nil
		}
		m.version = msg.version
		m.current = msg.current
		m.loaded = true
		m.status = "ready"

	case subscribedMsg:
		if msg.err != nil {
			m.status = "telemetry subscription: " + msg.err.Error()
			return m, nil
		}
		m.sub = msg.sub
		m.live = true
		return m, waitForEvent(m.sub, m.now)

	case telemetryMsg:
		m.current = msg.event
		m.events = append(m.events, eventLine{at: msg.at, event: msg.event})
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
		return m, waitForEvent(m.sub, m.now)

	case streamEndedMsg:
		m.live = false
		if msg.err != nil {
			m.status = "telemetry stream ended: " + msg.err.Error()
		} else {
			m.status = "telemetry stream ended"
		}
	}
	return m, nil
}

func (m Model) View() string {
	header := titleStyle.Render("hostbridge monitor") + "  " + mutedStyle.Render("mode "+m.host.Mode())

	var host strings.Builder
	if m.loaded {
		fmt.Fprintf(&host, "%s %s\n", m.version.Platform, m.version.Version)
		fmt.Fprintf(&host, "%s %s\n", mutedStyle.Render("bridge"), m.version.BridgeType+" "+m.version.BridgeVersion)
		fmt.Fprintf(&host, "%s %s", mutedStyle.Render("telemetry"), renderSetting(m.current))
	} else {
		host.WriteString(mutedStyle.Render("waiting for host"))
	}

	var feed strings.Builder
	if len(m.events) == 0 {
		feed.WriteString(mutedStyle.Render("no telemetry changes yet"))
	}
	for i, line := range m.events {
		if i > 0 {
			feed.WriteString("\n")
		}
		fmt.Fprintf(&feed, "%s  %s", mutedStyle.Render(line.at.Format("15:04:05")), renderSetting(line.event))
	}
	feedPane := paneStyle
	if m.live {
		feedPane = activePaneStyle
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		paneStyle.Render(host.String()),
		feedPane.Render(feed.String()),
		mutedStyle.Render(m.status+"  ·  r refresh  ·  q quit"),
	)
	return appStyle.Render(body)
}

func renderSetting(ev dto.TelemetryEvent) string {
	if ev.Enabled {
		return enabledStyle.Render(ev.Setting)
	}
	return disabledStyle.Render(ev.Setting)
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		version, err := m.host.Version(ctx)
		if err != nil {
			return versionLoadedMsg{err: err}
		}
		current, err := m.host.Telemetry(ctx)
		return versionLoadedMsg{version: version, current: current, err: err}
	}
}

func (m Model) subscribeCmd() tea.Cmd {
	return func() tea.Msg {
		sub, err := m.host.WatchTelemetry(context.Background())
		return subscribedMsg{sub: sub, err: err}
	}
}

func waitForEvent(sub *stream.Subscription[dto.TelemetryEvent], now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return streamEndedMsg{err: sub.Err()}
		}
		return telemetryMsg{event: ev, at: now()}
	}
}

// Run blocks until the user quits.
func Run(host hostPort) error {
	_, err := tea.NewProgram(NewModel(host), tea.WithAltScreen()).Run()
	return err
}
