package service_test

import (
	"context"
	"errors"
	"testing"

	hostoutadapter "hostbridge/internal/modules/host/adapter/out"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	"hostbridge/internal/modules/host/service"
)

type fakeManager struct {
	caps   hostout.Capabilities
	closed int
}

func (m *fakeManager) Address() string { return "fake:1" }
func (m *fakeManager) Capabilities() hostout.Capabilities { return m.caps }
func (m *fakeManager) Close() error {
	m.closed++
	return nil
}

type countingEnv struct {
	*hostoutadapter.LocalEnv
	shutdowns int
}

func (e *countingEnv) Shutdown(context.Context) error {
	e.shutdowns++
	return nil
}

func localCaps() hostout.Capabilities {
	return hostout.Capabilities{
		Env:       hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil),
		Workspace: hostoutadapter.NewLocalWorkspace(nil, nil),
		Window:    hostoutadapter.NewLocalWindow(nil),
		Diff:      hostoutadapter.NewLocalDiff(nil),
	}
}

func TestAccessBeforeInitializeFails(t *testing.T) {
	t.Parallel()
	p := service.NewProvider(nil)
	if _, err := p.Env(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("env: expected uninitialized, got %v", err)
	}
	if _, err := p.Workspace(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("workspace: expected uninitialized, got %v", err)
	}
	if _, err := p.Window(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("window: expected uninitialized, got %v", err)
	}
	if _, err := p.Diff(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("diff: expected uninitialized, got %v", err)
	}
	if _, err := p.Mode(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("mode: expected uninitialized, got %v", err)
	}
}

func TestEmbeddedAccessorsAreStable(t *testing.T) {
	t.Parallel()
	caps := localCaps()
	p := service.NewProvider(nil)
	if err := p.Initialize(domain.ModeEmbedded, service.Bindings{Local: caps}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		env, err := p.Env()
		if err != nil {
			t.Fatalf("env: %v", err)
		}
		if env != caps.Env {
			t.Fatalf("env implementation changed between accesses")
		}
		diff, _ := p.Diff()
		if diff != caps.Diff {
			t.Fatalf("diff implementation changed between accesses")
		}
	}
	mode, _ := p.Mode()
	if mode != domain.ModeEmbedded {
		t.Fatalf("unexpected mode %s", mode)
	}
}

func TestEmbeddedShutdownReachesLocalEnv(t *testing.T) {
	t.Parallel()
	env := &countingEnv{LocalEnv: hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)}
	caps := localCaps()
	caps.Env = env
	p := service.NewProvider(nil)
	if err := p.Shutdown(context.Background()); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("expected uninitialized, got %v", err)
	}
	if err := p.Initialize(domain.ModeEmbedded, service.Bindings{Local: caps}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if env.shutdowns != 1 {
		t.Fatalf("expected the local env to receive one shutdown, got %d", env.shutdowns)
	}
}

func TestInitializeTwiceFails(t *testing.T) {
	t.Parallel()
	p := service.NewProvider(nil)
	if err := p.Initialize(domain.ModeEmbedded, service.Bindings{Local: localCaps()}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := p.Initialize(domain.ModeEmbedded, service.Bindings{Local: localCaps()}); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
}

func TestInitializeRejectsMissingCapability(t *testing.T) {
	t.Parallel()
	caps := localCaps()
	caps.Window = nil
	p := service.NewProvider(nil)
	if err := p.Initialize(domain.ModeEmbedded, service.Bindings{Local: caps}); !errors.Is(err, domain.ErrCapabilityMissing) {
		t.Fatalf("expected capability missing, got %v", err)
	}
	if _, err := p.Env(); !errors.Is(err, domain.ErrUninitialized) {
		t.Fatalf("failed initialize must leave provider uninitialized, got %v", err)
	}
}

func TestInitializeRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	p := service.NewProvider(nil)
	if err := p.Initialize(domain.Mode("hybrid"), service.Bindings{Local: localCaps()}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestDetachedUsesClientManager(t *testing.T) {
	t.Parallel()
	env := &countingEnv{LocalEnv: hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{}, false, nil, nil, nil)}
	caps := localCaps()
	caps.Env = env
	manager := &fakeManager{caps: caps}

	p := service.NewProvider(nil)
	if err := p.Initialize(domain.ModeDetached, service.Bindings{Remote: manager}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	got, err := p.Env()
	if err != nil || got != hostout.Env(env) {
		t.Fatalf("expected client manager env, got %v %v", got, err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if env.shutdowns != 1 || manager.closed != 1 {
		t.Fatalf("expected one shutdown and one close, got %d and %d", env.shutdowns, manager.closed)
	}
}

func TestDetachedRequiresClientManager(t *testing.T) {
	t.Parallel()
	p := service.NewProvider(nil)
	if err := p.Initialize(domain.ModeDetached, service.Bindings{Local: localCaps()}); err == nil {
		t.Fatalf("expected error without client manager")
	}
}
