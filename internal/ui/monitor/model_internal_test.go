package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"hostbridge/internal/modules/host/dto"
	"hostbridge/internal/platform/stream"
)

type fakeHost struct {
	sub        *stream.Subscription[dto.TelemetryEvent]
	versionErr error
}

func (f *fakeHost) Mode() string { return "detached" }

func (f *fakeHost) Version(context.Context) (dto.HostVersion, error) {
	if f.versionErr != nil {
		return dto.HostVersion{}, f.versionErr
	}
	return dto.HostVersion{Platform: "Editor", Version: "1.0.0", BridgeType: "hostbridge", BridgeVersion: "0.1.0"}, nil
}

func (f *fakeHost) Telemetry(context.Context) (dto.TelemetryEvent, error) {
	return dto.TelemetryEvent{Setting: "disabled"}, nil
}

func (f *fakeHost) WatchTelemetry(context.Context) (*stream.Subscription[dto.TelemetryEvent], error) {
	return f.sub, nil
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model, cmd
}

func TestMonitorShowsVersionAndLiveEvents(t *testing.T) {
	t.Parallel()
	sub := stream.NewSubscription[dto.TelemetryEvent]("s1", nil)
	host := &fakeHost{sub: sub}
	m := NewModel(host)
	m.now = func() time.Time { return time.Date(2026, 3, 4, 10, 11, 12, 0, time.UTC) }

	m, _ = step(t, m, m.loadCmd()())
	if !strings.Contains(m.View(), "Editor 1.0.0") {
		t.Fatalf("version missing from view:\n%s", m.View())
	}

	m, wait := step(t, m, m.subscribeCmd()())
	if !m.live || wait == nil {
		t.Fatalf("expected live subscription and a wait command")
	}
	sub.Push(dto.TelemetryEvent{Setting: "enabled", Enabled: true})
	m, wait = step(t, m, wait())
	if len(m.events) != 1 || !m.current.Enabled {
		t.Fatalf("event not recorded: %+v", m.events)
	}
	if !strings.Contains(m.View(), "10:11:12") {
		t.Fatalf("event time missing from view:\n%s", m.View())
	}

	sub.Close(stream.ErrRemoteClosed)
	m, _ = step(t, m, wait())
	if m.live || !strings.Contains(m.status, "telemetry stream ended") {
		t.Fatalf("expected ended stream, got live=%v status=%q", m.live, m.status)
	}
}

func TestMonitorReportsVersionError(t *testing.T) {
	t.Parallel()
	m := NewModel(&fakeHost{versionErr: errors.New("connection refused")})
	m, _ = step(t, m, m.loadCmd()())
	if !strings.Contains(m.status, "connection refused") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestMonitorKeepsBoundedFeed(t *testing.T) {
	t.Parallel()
	m := NewModel(&fakeHost{sub: stream.NewSubscription[dto.TelemetryEvent]("s1", nil)})
	m.sub = m.host.(*fakeHost).sub
	for i := 0; i < maxEvents+5; i++ {
		m, _ = step(t, m, telemetryMsg{event: dto.TelemetryEvent{Setting: "enabled", Enabled: true}, at: time.Unix(int64(i), 0)})
	}
	if len(m.events) != maxEvents {
		t.Fatalf("expected %d events, got %d", maxEvents, len(m.events))
	}
	if m.events[0].at.Unix() != 5 {
		t.Fatalf("expected oldest events dropped, first at %d", m.events[0].at.Unix())
	}
}
