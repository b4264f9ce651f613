package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"hostbridge/internal/modules/host/domain"
)

const (
	envServiceName       = "hostbridge.host.v1.EnvService"
	workspaceServiceName = "hostbridge.host.v1.WorkspaceService"
	windowServiceName    = "hostbridge.host.v1.WindowService"
	diffServiceName      = "hostbridge.host.v1.DiffService"

	methodGetHostVersion               = "/" + envServiceName + "/GetHostVersion"
	methodGetRedirectURI               = "/" + envServiceName + "/GetRedirectURI"
	methodGetTelemetrySettings         = "/" + envServiceName + "/GetTelemetrySettings"
	methodSubscribeToTelemetrySettings = "/" + envServiceName + "/SubscribeToTelemetrySettings"
	methodClipboardReadText            = "/" + envServiceName + "/ClipboardReadText"
	methodClipboardWriteText           = "/" + envServiceName + "/ClipboardWriteText"
	methodShutdown                     = "/" + envServiceName + "/Shutdown"

	methodGetWorkspacePaths = "/" + workspaceServiceName + "/GetWorkspacePaths"
	methodOpenPanel         = "/" + workspaceServiceName + "/OpenPanel"

	methodShowMessage    = "/" + windowServiceName + "/ShowMessage"
	methodOpenFile       = "/" + windowServiceName + "/OpenFile"
	methodGetVisibleTabs = "/" + windowServiceName + "/GetVisibleTabs"

	methodOpenDiff        = "/" + diffServiceName + "/OpenDiff"
	methodGetDocumentText = "/" + diffServiceName + "/GetDocumentText"
	methodReplaceText     = "/" + diffServiceName + "/ReplaceText"
	methodCloseAllDiffs   = "/" + diffServiceName + "/CloseAllDiffs"
)

type Empty = domain.Empty

// Server interfaces. Request and response records are the domain records;
// they already carry their JSON shape.

type EnvServiceServer interface {
	GetHostVersion(ctx context.Context, in *Empty) (*domain.HostVersion, error)
	GetRedirectURI(ctx context.Context, in *Empty) (*domain.RedirectURI, error)
	GetTelemetrySettings(ctx context.Context, in *Empty) (*domain.TelemetrySettings, error)
	SubscribeToTelemetrySettings(in *Empty, stream TelemetrySettingsServerStream) error
	ClipboardReadText(ctx context.Context, in *Empty) (*domain.ClipboardText, error)
	ClipboardWriteText(ctx context.Context, in *domain.ClipboardText) (*Empty, error)
	Shutdown(ctx context.Context, in *Empty) (*Empty, error)
}

type WorkspaceServiceServer interface {
	GetWorkspacePaths(ctx context.Context, in *Empty) (*domain.WorkspacePaths, error)
	OpenPanel(ctx context.Context, in *domain.OpenPanelRequest) (*Empty, error)
}

type WindowServiceServer interface {
	ShowMessage(ctx context.Context, in *domain.ShowMessageRequest) (*domain.ShowMessageResponse, error)
	OpenFile(ctx context.Context, in *domain.OpenFileRequest) (*Empty, error)
	GetVisibleTabs(ctx context.Context, in *Empty) (*domain.VisibleTabs, error)
}

type DiffServiceServer interface {
	OpenDiff(ctx context.Context, in *domain.OpenDiffRequest) (*domain.OpenDiffResponse, error)
	GetDocumentText(ctx context.Context, in *domain.DiffRef) (*domain.DocumentText, error)
	ReplaceText(ctx context.Context, in *domain.ReplaceTextRequest) (*Empty, error)
	CloseAllDiffs(ctx context.Context, in *Empty) (*Empty, error)
}

type TelemetrySettingsServerStream interface {
	Send(*domain.TelemetrySettings) error
	SendHeader(metadata.MD) error
	Context() context.Context
}

type TelemetrySettingsClientStream interface {
	Recv() (*domain.TelemetrySettings, error)
}

// unary builds a MethodDesc for one request/response method.
func unary[Req any, Resp any](name, fullMethod string, call func(ctx context.Context, in *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type")
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterEnvServiceServer(server grpc.ServiceRegistrar, impl EnvServiceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: envServiceName,
		HandlerType: (*EnvServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetHostVersion", methodGetHostVersion, impl.GetHostVersion),
			unary("GetRedirectURI", methodGetRedirectURI, impl.GetRedirectURI),
			unary("GetTelemetrySettings", methodGetTelemetrySettings, impl.GetTelemetrySettings),
			unary("ClipboardReadText", methodClipboardReadText, impl.ClipboardReadText),
			unary("ClipboardWriteText", methodClipboardWriteText, impl.ClipboardWriteText),
			unary("Shutdown", methodShutdown, impl.Shutdown),
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "SubscribeToTelemetrySettings",
				ServerStreams: true,
				Handler: func(_ any, stream grpc.ServerStream) error {
					in := &Empty{}
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return impl.SubscribeToTelemetrySettings(in, &telemetryServerStream{ServerStream: stream})
				},
			},
		},
		Metadata: "schemas/host-bridge-v1.proto",
	}, impl)
}

func RegisterWorkspaceServiceServer(server grpc.ServiceRegistrar, impl WorkspaceServiceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: workspaceServiceName,
		HandlerType: (*WorkspaceServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetWorkspacePaths", methodGetWorkspacePaths, impl.GetWorkspacePaths),
			unary("OpenPanel", methodOpenPanel, impl.OpenPanel),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/host-bridge-v1.proto",
	}, impl)
}

func RegisterWindowServiceServer(server grpc.ServiceRegistrar, impl WindowServiceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: windowServiceName,
		HandlerType: (*WindowServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("ShowMessage", methodShowMessage, impl.ShowMessage),
			unary("OpenFile", methodOpenFile, impl.OpenFile),
			unary("GetVisibleTabs", methodGetVisibleTabs, impl.GetVisibleTabs),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/host-bridge-v1.proto",
	}, impl)
}

func RegisterDiffServiceServer(server grpc.ServiceRegistrar, impl DiffServiceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: diffServiceName,
		HandlerType: (*DiffServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("OpenDiff", methodOpenDiff, impl.OpenDiff),
			unary("GetDocumentText", methodGetDocumentText, impl.GetDocumentText),
			unary("ReplaceText", methodReplaceText, impl.ReplaceText),
			unary("CloseAllDiffs", methodCloseAllDiffs, impl.CloseAllDiffs),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/host-bridge-v1.proto",
	}, impl)
}

type telemetryServerStream struct {
	grpc.ServerStream
}

func (s *telemetryServerStream) Send(ev *domain.TelemetrySettings) error {
	return s.ServerStream.SendMsg(ev)
}

var telemetryStreamDesc = grpc.StreamDesc{
	StreamName:    "SubscribeToTelemetrySettings",
	ServerStreams: true,
}
