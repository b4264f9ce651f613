package rpc

import (
	"context"

	"google.golang.org/grpc"

	"hostbridge/internal/modules/host/domain"
)

type EnvServiceClient interface {
	GetHostVersion(ctx context.Context) (*domain.HostVersion, error)
	GetRedirectURI(ctx context.Context) (*domain.RedirectURI, error)
	GetTelemetrySettings(ctx context.Context) (*domain.TelemetrySettings, error)
	SubscribeToTelemetrySettings(ctx context.Context) (TelemetrySettingsClientStream, error)
	ClipboardReadText(ctx context.Context) (*domain.ClipboardText, error)
	ClipboardWriteText(ctx context.Context, in *domain.ClipboardText) error
	Shutdown(ctx context.Context) error
}

type WorkspaceServiceClient interface {
	GetWorkspacePaths(ctx context.Context) (*domain.WorkspacePaths, error)
	OpenPanel(ctx context.Context, in *domain.OpenPanelRequest) error
}

type WindowServiceClient interface {
	ShowMessage(ctx context.Context, in *domain.ShowMessageRequest) (*domain.ShowMessageResponse, error)
	OpenFile(ctx context.Context, in *domain.OpenFileRequest) error
	GetVisibleTabs(ctx context.Context) (*domain.VisibleTabs, error)
}

type DiffServiceClient interface {
	OpenDiff(ctx context.Context, in *domain.OpenDiffRequest) (*domain.OpenDiffResponse, error)
	GetDocumentText(ctx context.Context, in *domain.DiffRef) (*domain.DocumentText, error)
	ReplaceText(ctx context.Context, in *domain.ReplaceTextRequest) error
	CloseAllDiffs(ctx context.Context) error
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

type envServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewEnvServiceClient(conn grpc.ClientConnInterface) EnvServiceClient {
	return &envServiceClient{conn: conn}
}

func (c *envServiceClient) GetHostVersion(ctx context.Context) (*domain.HostVersion, error) {
	return invoke[domain.HostVersion](ctx, c.conn, methodGetHostVersion, &Empty{})
}

func (c *envServiceClient) GetRedirectURI(ctx context.Context) (*domain.RedirectURI, error) {
	return invoke[domain.RedirectURI](ctx, c.conn, methodGetRedirectURI, &Empty{})
}

func (c *envServiceClient) GetTelemetrySettings(ctx context.Context) (*domain.TelemetrySettings, error) {
	return invoke[domain.TelemetrySettings](ctx, c.conn, methodGetTelemetrySettings, &Empty{})
}

func (c *envServiceClient) SubscribeToTelemetrySettings(ctx context.Context) (TelemetrySettingsClientStream, error) {
	stream, err := c.conn.NewStream(ctx, &telemetryStreamDesc, methodSubscribeToTelemetrySettings, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	// The server sends headers once it is registered for events, so a
	// returned stream never misses an emission made after this call.
	if _, err := stream.Header(); err != nil {
		return nil, err
	}
	return &telemetryClientStream{ClientStream: stream}, nil
}

func (c *envServiceClient) ClipboardReadText(ctx context.Context) (*domain.ClipboardText, error) {
	return invoke[domain.ClipboardText](ctx, c.conn, methodClipboardReadText, &Empty{})
}

func (c *envServiceClient) ClipboardWriteText(ctx context.Context, in *domain.ClipboardText) error {
	_, err := invoke[Empty](ctx, c.conn, methodClipboardWriteText, in)
	return err
}

func (c *envServiceClient) Shutdown(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.conn, methodShutdown, &Empty{})
	return err
}

type telemetryClientStream struct {
	grpc.ClientStream
}

func (s *telemetryClientStream) Recv() (*domain.TelemetrySettings, error) {
	out := &domain.TelemetrySettings{}
	if err := s.ClientStream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

type workspaceServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewWorkspaceServiceClient(conn grpc.ClientConnInterface) WorkspaceServiceClient {
	return &workspaceServiceClient{conn: conn}
}

func (c *workspaceServiceClient) GetWorkspacePaths(ctx context.Context) (*domain.WorkspacePaths, error) {
	return invoke[domain.WorkspacePaths](ctx, c.conn, methodGetWorkspacePaths, &Empty{})
}

func (c *workspaceServiceClient) OpenPanel(ctx context.Context, in *domain.OpenPanelRequest) error {
	_, err := invoke[Empty](ctx, c.conn, methodOpenPanel, in)
	return err
}

type windowServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewWindowServiceClient(conn grpc.ClientConnInterface) WindowServiceClient {
	return &windowServiceClient{conn: conn}
}

func (c *windowServiceClient) ShowMessage(ctx context.Context, in *domain.ShowMessageRequest) (*domain.ShowMessageResponse, error) {
	return invoke[domain.ShowMessageResponse](ctx, c.conn, methodShowMessage, in)
}

func (c *windowServiceClient) OpenFile(ctx context.Context, in *domain.OpenFileRequest) error {
	_, err := invoke[Empty](ctx, c.conn, methodOpenFile, in)
	return err
}

func (c *windowServiceClient) GetVisibleTabs(ctx context.Context) (*domain.VisibleTabs, error) {
	return invoke[domain.VisibleTabs](ctx, c.conn, methodGetVisibleTabs, &Empty{})
}

type diffServiceClient struct {
	conn grpc.ClientConnInterface
}

func NewDiffServiceClient(conn grpc.ClientConnInterface) DiffServiceClient {
	return &diffServiceClient{conn: conn}
}

func (c *diffServiceClient) OpenDiff(ctx context.Context, in *domain.OpenDiffRequest) (*domain.OpenDiffResponse, error) {
	return invoke[domain.OpenDiffResponse](ctx, c.conn, methodOpenDiff, in)
}

func (c *diffServiceClient) GetDocumentText(ctx context.Context, in *domain.DiffRef) (*domain.DocumentText, error) {
	return invoke[domain.DocumentText](ctx, c.conn, methodGetDocumentText, in)
}

func (c *diffServiceClient) ReplaceText(ctx context.Context, in *domain.ReplaceTextRequest) error {
	_, err := invoke[Empty](ctx, c.conn, methodReplaceText, in)
	return err
}

func (c *diffServiceClient) CloseAllDiffs(ctx context.Context) error {
	_, err := invoke[Empty](ctx, c.conn, methodCloseAllDiffs, &Empty{})
	return err
}
