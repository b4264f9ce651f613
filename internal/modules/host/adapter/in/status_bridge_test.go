package in_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	hostadapterin "hostbridge/internal/modules/host/adapter/in"
	hostoutadapter "hostbridge/internal/modules/host/adapter/out"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	"hostbridge/internal/modules/host/service"
	"hostbridge/internal/modules/host/usecase"
	orchestratorservice "hostbridge/internal/modules/orchestrator/service"
	orchestratorusecase "hostbridge/internal/modules/orchestrator/usecase"
	"hostbridge/internal/platform/clock"
	"hostbridge/internal/platform/id"
	"hostbridge/internal/platform/logging"
	"hostbridge/internal/platform/retry"
)

// TestTelemetryChangeReachesBridgeSubscriber drives the host setting over
// the status surface and watches it arrive at a detached controller.
func TestTelemetryChangeReachesBridgeSubscriber(t *testing.T) {
	env := hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{Platform: "Editor"}, false, nil, &id.Sequence{IDs: []string{"sub-1"}}, nil)
	caps := hostout.Capabilities{
		Env:       env,
		Workspace: hostoutadapter.NewLocalWorkspace(nil, nil),
		Window:    hostoutadapter.NullWindow{},
		Diff:      hostoutadapter.NullDiff{},
	}
	registry, err := orchestratorservice.NewOrchestrator()
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	heads := orchestratorusecase.NewInteractor(registry, clock.SystemClock{}, id.UUID{})
	server, err := hostoutadapter.NewBridgeServer(caps, heads, logging.Discard())
	if err != nil {
		t.Fatalf("new bridge server: %v", err)
	}
	lis := bufconn.Listen(1 << 20)
	stop := make(chan struct{})
	served := make(chan error, 1)
	go func() { served <- server.Serve(context.Background(), lis, stop) }()

	manager, err := hostoutadapter.NewClientManager("passthrough:///bufnet", logging.Discard(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("new client manager: %v", err)
	}
	t.Cleanup(func() {
		_ = manager.Close()
		close(stop)
		<-served
	})

	provider := service.NewProvider(nil)
	if err := provider.Initialize(domain.ModeEmbedded, service.Bindings{Local: caps}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	host := usecase.NewInteractor(provider, retry.Policy{MaxAttempts: 1, PerAttemptTimeout: time.Second}, nil)
	status := httptest.NewServer(hostadapterin.NewStatusHandler(host, heads, usecase.NewControl(env, nil)).Routes())
	t.Cleanup(status.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := manager.Capabilities().Env.SubscribeToTelemetrySettings(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	send(t, http.MethodPut, status.URL+"/v1/host/telemetry", `{"enabled": true}`, http.StatusOK)
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("stream ended early: %v", sub.Err())
		}
		if ev.Setting != domain.SettingEnabled {
			t.Fatalf("unexpected setting %s", ev.Setting)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no telemetry event reached the subscriber")
	}

	// Ending the subscription's head closes the stream from the host side.
	send(t, http.MethodDelete, status.URL+"/v1/heads/sub-1", "", http.StatusNoContent)
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not end")
	}
	if !errors.Is(sub.Err(), domain.ErrSubscriptionClosed) {
		t.Fatalf("expected subscription closed, got %v", sub.Err())
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(heads.ActiveHeadIDs(ctx)) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription head still registered: %v", heads.ActiveHeadIDs(ctx))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
