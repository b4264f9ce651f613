package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"hostbridge/internal/modules/host/adapter/out/rpc"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	orchestratordto "hostbridge/internal/modules/orchestrator/dto"
	orchestratorin "hostbridge/internal/modules/orchestrator/port/in"
)

// BridgeServer serves a set of capabilities to a detached controller. Every
// open telemetry stream is tracked as a head while it lasts.
type BridgeServer struct {
	caps   hostout.Capabilities
	heads  orchestratorin.Usecase
	logger hclog.Logger

	closeOnce sync.Once
	closing   chan struct{}
}

func NewBridgeServer(caps hostout.Capabilities, heads orchestratorin.Usecase, logger hclog.Logger) (*BridgeServer, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BridgeServer{caps: caps, heads: heads, logger: logger, closing: make(chan struct{})}, nil
}

func (s *BridgeServer) Register(server grpc.ServiceRegistrar) {
	rpc.RegisterEnvServiceServer(server, &envServer{s: s})
	rpc.RegisterWorkspaceServiceServer(server, &workspaceServer{caps: s.caps})
	rpc.RegisterWindowServiceServer(server, &windowServer{caps: s.caps})
	rpc.RegisterDiffServiceServer(server, &diffServer{caps: s.caps})
}

func (s *BridgeServer) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.unaryInterceptor),
		grpc.ChainStreamInterceptor(s.streamInterceptor),
	}
}

// Serve blocks until ctx is done, stop is closed, or the listener fails.
// Open streams are ended before the graceful stop so it cannot hang.
func (s *BridgeServer) Serve(ctx context.Context, lis net.Listener, stop <-chan struct{}) error {
	server := grpc.NewServer(s.ServerOptions()...)
	s.Register(server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()
	s.logger.Info("host bridge listening", "address", lis.Addr().String())

	select {
	case err := <-errCh:
		s.CloseStreams()
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	case <-stop:
	}
	s.logger.Info("host bridge stopping")
	s.CloseStreams()
	server.GracefulStop()
	return <-errCh
}

// pluginDrainTimeout bounds how long a stopping plugin waits for in-flight
// calls. go-plugin keeps its broker and stdio streams open until the
// controller disconnects, so a graceful stop alone may never finish.
const pluginDrainTimeout = 5 * time.Second

// ServePlugin serves over go-plugin's handshake. It returns when the
// controller stops the plugin, or when stop closes and in-flight calls, such
// as the Shutdown that closed stop, have replied.
func (s *BridgeServer) ServePlugin(stop <-chan struct{}) {
	servers := make(chan *grpc.Server, 1)
	served := make(chan struct{})
	go func() {
		defer close(served)
		plugin.Serve(&plugin.ServeConfig{
			HandshakeConfig: rpc.HandshakeConfig,
			Plugins:         rpc.PluginMap(s),
			GRPCServer: func(opts []grpc.ServerOption) *grpc.Server {
				server := grpc.NewServer(append(opts, s.ServerOptions()...)...)
				servers <- server
				return server
			},
			Logger: s.logger,
		})
	}()
	select {
	case <-stop:
	case <-served:
		s.CloseStreams()
		return
	}
	s.logger.Info("host bridge stopping")
	s.CloseStreams()
	select {
	case server := <-servers:
		drain(server, pluginDrainTimeout)
	default:
	}
}

// drain stops server gracefully, forcing the stop after timeout.
func drain(server *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		server.Stop()
		<-stopped
	}
}

// CloseStreams ends every open subscription stream.
func (s *BridgeServer) CloseStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *BridgeServer) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID, headID := callMetadata(ctx)
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug("rpc failed", "method", info.FullMethod, "request_id", requestID, "head_id", headID, "error", err)
		return nil, toRPC(err)
	}
	s.logger.Trace("rpc", "method", info.FullMethod, "request_id", requestID, "head_id", headID)
	return resp, nil
}

func (s *BridgeServer) streamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	requestID, headID := callMetadata(ss.Context())
	s.logger.Debug("stream opened", "method", info.FullMethod, "request_id", requestID, "head_id", headID)
	err := handler(srv, ss)
	s.logger.Debug("stream closed", "method", info.FullMethod, "request_id", requestID, "error", err)
	return toRPC(err)
}

func callMetadata(ctx context.Context) (string, string) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ""
	}
	return first(md.Get(rpc.RequestIDKey)), first(md.Get(rpc.HeadIDKey))
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

type envServer struct {
	s *BridgeServer
}

func (e *envServer) GetHostVersion(ctx context.Context, _ *rpc.Empty) (*domain.HostVersion, error) {
	out, err := e.s.caps.Env.GetHostVersion(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *envServer) GetRedirectURI(ctx context.Context, _ *rpc.Empty) (*domain.RedirectURI, error) {
	out, err := e.s.caps.Env.GetRedirectURI(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *envServer) GetTelemetrySettings(ctx context.Context, _ *rpc.Empty) (*domain.TelemetrySettings, error) {
	out, err := e.s.caps.Env.GetTelemetrySettings(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *envServer) SubscribeToTelemetrySettings(_ *rpc.Empty, out rpc.TelemetrySettingsServerStream) error {
	ctx := out.Context()
	sub, err := e.s.caps.Env.SubscribeToTelemetrySettings(ctx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	if e.s.heads != nil {
		label := "telemetry-subscription"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			label = fmt.Sprintf("%s@%s", label, p.Addr.String())
		}
		headID := sub.ID()
		if _, err := e.s.heads.StartHead(ctx, orchestratordto.StartHeadInput{ID: headID, Label: label, State: sub}); err != nil {
			return err
		}
		defer func() { _ = e.s.heads.StopHead(context.Background(), headID) }()
	}

	// Registered for events; tell the client it may rely on delivery.
	if err := out.SendHeader(metadata.MD{}); err != nil {
		return err
	}
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				if err := sub.Err(); err != nil && !errors.Is(err, domain.ErrSubscriptionClosed) {
					return err
				}
				return nil
			}
			if err := out.Send(&ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		case <-e.s.closing:
			return nil
		}
	}
}

func (e *envServer) ClipboardReadText(ctx context.Context, _ *rpc.Empty) (*domain.ClipboardText, error) {
	out, err := e.s.caps.Env.ClipboardReadText(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *envServer) ClipboardWriteText(ctx context.Context, in *domain.ClipboardText) (*rpc.Empty, error) {
	if err := e.s.caps.Env.ClipboardWriteText(ctx, *in); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (e *envServer) Shutdown(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := e.s.caps.Env.Shutdown(ctx); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

type workspaceServer struct {
	caps hostout.Capabilities
}

func (w *workspaceServer) GetWorkspacePaths(ctx context.Context, _ *rpc.Empty) (*domain.WorkspacePaths, error) {
	out, err := w.caps.Workspace.GetWorkspacePaths(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *workspaceServer) OpenPanel(ctx context.Context, in *domain.OpenPanelRequest) (*rpc.Empty, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := w.caps.Workspace.OpenPanel(ctx, *in); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

type windowServer struct {
	caps hostout.Capabilities
}

func (w *windowServer) ShowMessage(ctx context.Context, in *domain.ShowMessageRequest) (*domain.ShowMessageResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out, err := w.caps.Window.ShowMessage(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *windowServer) OpenFile(ctx context.Context, in *domain.OpenFileRequest) (*rpc.Empty, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := w.caps.Window.OpenFile(ctx, *in); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (w *windowServer) GetVisibleTabs(ctx context.Context, _ *rpc.Empty) (*domain.VisibleTabs, error) {
	out, err := w.caps.Window.GetVisibleTabs(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type diffServer struct {
	caps hostout.Capabilities
}

func (d *diffServer) OpenDiff(ctx context.Context, in *domain.OpenDiffRequest) (*domain.OpenDiffResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out, err := d.caps.Diff.OpenDiff(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *diffServer) GetDocumentText(ctx context.Context, in *domain.DiffRef) (*domain.DocumentText, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out, err := d.caps.Diff.GetDocumentText(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *diffServer) ReplaceText(ctx context.Context, in *domain.ReplaceTextRequest) (*rpc.Empty, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := d.caps.Diff.ReplaceText(ctx, *in); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (d *diffServer) CloseAllDiffs(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := d.caps.Diff.CloseAllDiffs(ctx); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}
