package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	hostoutadapter "hostbridge/internal/modules/host/adapter/out"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	"hostbridge/internal/modules/host/service"
	"hostbridge/internal/modules/host/usecase"
	"hostbridge/internal/platform/retry"
)

var fastPolicy = retry.Policy{MaxAttempts: 3, PerAttemptTimeout: time.Second, InterAttemptDelay: time.Millisecond}

// flakyEnv fails GetHostVersion until failures is used up.
type flakyEnv struct {
	*hostoutadapter.LocalEnv

	mu       sync.Mutex
	failures int
	calls    int
}

func (e *flakyEnv) GetHostVersion(ctx context.Context) (domain.HostVersion, error) {
	e.mu.Lock()
	e.calls++
	fail := e.calls <= e.failures
	e.mu.Unlock()
	if fail {
		return domain.HostVersion{}, domain.ErrConnection
	}
	return e.LocalEnv.GetHostVersion(ctx)
}

func newCaps(env hostout.Env) hostout.Capabilities {
	return hostout.Capabilities{
		Env:       env,
		Workspace: hostoutadapter.NewLocalWorkspace([]string{"/repo"}, nil),
		Window:    hostoutadapter.NullWindow{},
		Diff:      hostoutadapter.NewLocalDiff(nil),
	}
}

func newInteractor(t *testing.T, caps hostout.Capabilities) *usecase.Interactor {
	t.Helper()
	provider := service.NewProvider(nil)
	if err := provider.Initialize(domain.ModeEmbedded, service.Bindings{Local: caps}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return usecase.NewInteractor(provider, fastPolicy, nil).(*usecase.Interactor)
}

func TestHostVersionRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	env := &flakyEnv{LocalEnv: hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{Platform: "Editor", Version: "9"}, false, nil, nil, nil), failures: 2}
	uc := newInteractor(t, newCaps(env))

	version, err := uc.HostVersion(context.Background())
	if err != nil {
		t.Fatalf("host version: %v", err)
	}
	if version.Platform != "Editor" || version.Version != "9" {
		t.Fatalf("unexpected version: %+v", version)
	}
	if env.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", env.calls)
	}
}

func TestHostVersionReportsExhaustion(t *testing.T) {
	t.Parallel()
	env := &flakyEnv{LocalEnv: hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil), failures: 10}
	uc := newInteractor(t, newCaps(env))

	_, err := uc.HostVersion(context.Background())
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Fatalf("expected exhausted after 3 attempts, got %v", err)
	}
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("expected last failure to be kept, got %v", err)
	}
}

func TestInvalidRequestsAreNotRetried(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, newCaps(hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)))

	err := uc.OpenPanel(context.Background(), " ")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatalf("invalid request must fail before the retry loop: %v", err)
	}
}

func TestUninitializedProvider(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(service.NewProvider(nil), fastPolicy, nil)
	if _, err := uc.WorkspacePaths(context.Background()); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("expected uninitialized, got %v", err)
	}
	if uc.Mode() != "" {
		t.Fatalf("expected empty mode, got %q", uc.Mode())
	}
}

func TestDiffLifecycle(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, newCaps(hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)))
	ctx := context.Background()

	opened, err := uc.OpenDiff(ctx, "/repo/main.go", "package main")
	if err != nil {
		t.Fatalf("open diff: %v", err)
	}
	if opened.Path != "/repo/main.go" || opened.DiffID == "" {
		t.Fatalf("unexpected diff: %+v", opened)
	}
	if err := uc.ReplaceDiffText(ctx, opened.DiffID, "package app"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	text, err := uc.DiffText(ctx, opened.DiffID)
	if err != nil || text != "package app" {
		t.Fatalf("diff text: %q %v", text, err)
	}
	if err := uc.CloseAllDiffs(ctx); err != nil {
		t.Fatalf("close all: %v", err)
	}
}

func TestMissingWindowSurfacesCapabilityError(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, newCaps(hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)))
	if err := uc.OpenFile(context.Background(), "/repo/main.go"); !errors.Is(err, domain.ErrCapabilityMissing) {
		t.Fatalf("expected capability missing, got %v", err)
	}
}

func TestWatchTelemetryMapsEvents(t *testing.T) {
	t.Parallel()
	env := hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)
	uc := newInteractor(t, newCaps(env))

	sub, err := uc.WatchTelemetry(context.Background())
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Unsubscribe()
	env.SetTelemetryEnabled(true)

	select {
	case ev := <-sub.Events():
		if !ev.Enabled || ev.Setting != string(domain.SettingEnabled) {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no telemetry event")
	}
}

func TestControlChangesTelemetryForWatchers(t *testing.T) {
	t.Parallel()
	env := hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, true, nil, nil, nil)
	uc := newInteractor(t, newCaps(env))
	control := usecase.NewControl(env, nil)

	sub, err := uc.WatchTelemetry(context.Background())
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Unsubscribe()

	got, err := control.SetTelemetryEnabled(context.Background(), false)
	if err != nil {
		t.Fatalf("set telemetry: %v", err)
	}
	if got.Enabled || got.Setting != string(domain.SettingDisabled) {
		t.Fatalf("unexpected applied setting: %+v", got)
	}
	select {
	case ev := <-sub.Events():
		if ev != got {
			t.Fatalf("watcher saw %+v, control returned %+v", ev, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no telemetry event")
	}

	// Setting the same value again does not notify.
	if _, err := control.SetTelemetryEnabled(context.Background(), false); err != nil {
		t.Fatalf("set telemetry again: %v", err)
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected repeat event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
