package out

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"hostbridge/internal/modules/host/adapter/out/rpc"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
)

const (
	DefaultAddress      = "localhost:26041"
	defaultStartTimeout = 5 * time.Second
)

// ResolveAddress prefers an explicit override and falls back to the
// documented local default.
func ResolveAddress(override string) string {
	if override != "" {
		return override
	}
	return DefaultAddress
}

// ClientManager holds one Service Client per capability, built once at
// construction and reused for every call. Reconnection is left to gRPC.
type ClientManager struct {
	address string
	logger  hclog.Logger
	caps    hostout.Capabilities
	closers []func() error
}

// NewClientManager creates one connection per capability to address.
// grpc.NewClient connects lazily, so an absent host surfaces as
// domain.ErrConnection on the first call rather than here.
func NewClientManager(address string, logger hclog.Logger, extra ...grpc.DialOption) (*ClientManager, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	address = ResolveAddress(address)
	m := &ClientManager{address: address, logger: logger}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                5 * time.Minute,
			Timeout:             20 * time.Second,
			PermitWithoutStream: false,
		}),
		grpc.WithChainUnaryInterceptor(correlateUnary),
		grpc.WithChainStreamInterceptor(correlateStream),
	}, extra...)

	conns := make(map[domain.Capability]*grpc.ClientConn, len(domain.AllCapabilities))
	for _, capability := range domain.AllCapabilities {
		conn, err := grpc.NewClient(address, opts...)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("%w: %s client for %s: %w", domain.ErrConnection, capability, address, err)
		}
		conns[capability] = conn
		m.closers = append(m.closers, conn.Close)
	}
	m.caps = hostout.Capabilities{
		Env:       NewRemoteEnv(rpc.NewEnvServiceClient(conns[domain.CapabilityEnv])),
		Workspace: NewRemoteWorkspace(rpc.NewWorkspaceServiceClient(conns[domain.CapabilityWorkspace])),
		Window:    NewRemoteWindow(rpc.NewWindowServiceClient(conns[domain.CapabilityWindow])),
		Diff:      NewRemoteDiff(rpc.NewDiffServiceClient(conns[domain.CapabilityDiff])),
	}
	logger.Debug("host bridge clients created", "address", address, "capabilities", len(conns))
	return m, nil
}

// NewPluginClientManager launches the bridge binary as a managed child over
// go-plugin and builds every capability client on the dispensed connection.
func NewPluginClientManager(binary string, logger hclog.Logger, args ...string) (*ClientManager, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  rpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          rpc.PluginMap(nil),
		Cmd:              exec.Command(binary, args...),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger.Named("bridge"),
	})
	kill := func() error {
		client.Kill()
		return nil
	}

	rpcClient, err := client.Client()
	if err != nil {
		_ = kill()
		return nil, fmt.Errorf("%w: start bridge plugin: %w", domain.ErrConnection, err)
	}
	raw, err := rpcClient.Dispense(rpc.PluginMapKey)
	if err != nil {
		_ = kill()
		return nil, fmt.Errorf("%w: dispense bridge plugin: %w", domain.ErrConnection, err)
	}
	conn, ok := raw.(*grpc.ClientConn)
	if !ok {
		_ = kill()
		return nil, fmt.Errorf("bridge plugin connection type mismatch")
	}
	return &ClientManager{
		address: "plugin:" + binary,
		logger:  logger,
		caps: hostout.Capabilities{
			Env:       NewRemoteEnv(rpc.NewEnvServiceClient(conn)),
			Workspace: NewRemoteWorkspace(rpc.NewWorkspaceServiceClient(conn)),
			Window:    NewRemoteWindow(rpc.NewWindowServiceClient(conn)),
			Diff:      NewRemoteDiff(rpc.NewDiffServiceClient(conn)),
		},
		closers: []func() error{kill},
	}, nil
}

func (m *ClientManager) Address() string {
	return m.address
}

func (m *ClientManager) Capabilities() hostout.Capabilities {
	return m.caps
}

func (m *ClientManager) Close() error {
	var errs []error
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

type headKey struct{}

// WithHead scopes outgoing host calls made with ctx to a session head.
func WithHead(ctx context.Context, headID string) context.Context {
	return context.WithValue(ctx, headKey{}, headID)
}

func outgoing(ctx context.Context) context.Context {
	pairs := []string{rpc.RequestIDKey, uuid.NewString()}
	if headID, ok := ctx.Value(headKey{}).(string); ok && headID != "" {
		pairs = append(pairs, rpc.HeadIDKey, headID)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

func correlateUnary(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(outgoing(ctx), method, req, reply, cc, opts...)
}

func correlateStream(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(outgoing(ctx), desc, cc, method, opts...)
}
