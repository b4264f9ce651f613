package out

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hostbridge/internal/modules/host/adapter/out/rpc"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	"hostbridge/internal/platform/stream"
)

type RemoteEnv struct {
	client rpc.EnvServiceClient
}

func NewRemoteEnv(client rpc.EnvServiceClient) *RemoteEnv {
	return &RemoteEnv{client: client}
}

func (e *RemoteEnv) GetHostVersion(ctx context.Context) (domain.HostVersion, error) {
	out, err := e.client.GetHostVersion(ctx)
	if err != nil {
		return domain.HostVersion{}, fromRPC("get host version", err)
	}
	return *out, nil
}

func (e *RemoteEnv) GetRedirectURI(ctx context.Context) (domain.RedirectURI, error) {
	out, err := e.client.GetRedirectURI(ctx)
	if err != nil {
		return domain.RedirectURI{}, fromRPC("get redirect uri", err)
	}
	return *out, nil
}

func (e *RemoteEnv) GetTelemetrySettings(ctx context.Context) (domain.TelemetrySettings, error) {
	out, err := e.client.GetTelemetrySettings(ctx)
	if err != nil {
		return domain.TelemetrySettings{}, fromRPC("get telemetry settings", err)
	}
	return *out, nil
}

func (e *RemoteEnv) SubscribeToTelemetrySettings(ctx context.Context) (*hostout.TelemetrySubscription, error) {
	// The stream outlives the establishing call; only Unsubscribe ends it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	remote, err := e.client.SubscribeToTelemetrySettings(streamCtx)
	if err != nil {
		cancel()
		return nil, fromRPC("subscribe telemetry settings", err)
	}
	sub := stream.NewSubscription[domain.TelemetrySettings](uuid.NewString(), cancel)
	go func() {
		for {
			ev, err := remote.Recv()
			if err != nil {
				sub.Close(closeReason(err))
				return
			}
			if verr := ev.Validate(); verr != nil {
				sub.Close(fmt.Errorf("%w: %w", domain.ErrSubscriptionClosed, verr))
				return
			}
			if !sub.Push(*ev) {
				return
			}
		}
	}()
	return sub, nil
}

func (e *RemoteEnv) ClipboardReadText(ctx context.Context) (domain.ClipboardText, error) {
	out, err := e.client.ClipboardReadText(ctx)
	if err != nil {
		return domain.ClipboardText{}, fromRPC("clipboard read", err)
	}
	return *out, nil
}

func (e *RemoteEnv) ClipboardWriteText(ctx context.Context, in domain.ClipboardText) error {
	return fromRPC("clipboard write", e.client.ClipboardWriteText(ctx, &in))
}

func (e *RemoteEnv) Shutdown(ctx context.Context) error {
	return fromRPC("shutdown", e.client.Shutdown(ctx))
}

func closeReason(err error) error {
	if errors.Is(err, io.EOF) {
		return domain.ErrSubscriptionClosed
	}
	if status.Code(err) == codes.Canceled {
		// Our own cancel after Unsubscribe; the subscription is already ended.
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrSubscriptionClosed, fromRPC("telemetry stream", err))
}

type RemoteWorkspace struct {
	client rpc.WorkspaceServiceClient
}

func NewRemoteWorkspace(client rpc.WorkspaceServiceClient) *RemoteWorkspace {
	return &RemoteWorkspace{client: client}
}

func (w *RemoteWorkspace) GetWorkspacePaths(ctx context.Context) (domain.WorkspacePaths, error) {
	out, err := w.client.GetWorkspacePaths(ctx)
	if err != nil {
		return domain.WorkspacePaths{}, fromRPC("get workspace paths", err)
	}
	return *out, nil
}

func (w *RemoteWorkspace) OpenPanel(ctx context.Context, in domain.OpenPanelRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return fromRPC("open panel", w.client.OpenPanel(ctx, &in))
}

type RemoteWindow struct {
	client rpc.WindowServiceClient
}

func NewRemoteWindow(client rpc.WindowServiceClient) *RemoteWindow {
	return &RemoteWindow{client: client}
}

func (w *RemoteWindow) ShowMessage(ctx context.Context, in domain.ShowMessageRequest) (domain.ShowMessageResponse, error) {
	if err := in.Validate(); err != nil {
		return domain.ShowMessageResponse{}, err
	}
	out, err := w.client.ShowMessage(ctx, &in)
	if err != nil {
		return domain.ShowMessageResponse{}, fromRPC("show message", err)
	}
	return *out, nil
}

func (w *RemoteWindow) OpenFile(ctx context.Context, in domain.OpenFileRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return fromRPC("open file", w.client.OpenFile(ctx, &in))
}

func (w *RemoteWindow) GetVisibleTabs(ctx context.Context) (domain.VisibleTabs, error) {
	out, err := w.client.GetVisibleTabs(ctx)
	if err != nil {
		return domain.VisibleTabs{}, fromRPC("get visible tabs", err)
	}
	return *out, nil
}

type RemoteDiff struct {
	client rpc.DiffServiceClient
}

func NewRemoteDiff(client rpc.DiffServiceClient) *RemoteDiff {
	return &RemoteDiff{client: client}
}

func (d *RemoteDiff) OpenDiff(ctx context.Context, in domain.OpenDiffRequest) (domain.OpenDiffResponse, error) {
	if err := in.Validate(); err != nil {
		return domain.OpenDiffResponse{}, err
	}
	out, err := d.client.OpenDiff(ctx, &in)
	if err != nil {
		return domain.OpenDiffResponse{}, fromRPC("open diff", err)
	}
	return *out, nil
}

func (d *RemoteDiff) GetDocumentText(ctx context.Context, in domain.DiffRef) (domain.DocumentText, error) {
	if err := in.Validate(); err != nil {
		return domain.DocumentText{}, err
	}
	out, err := d.client.GetDocumentText(ctx, &in)
	if err != nil {
		return domain.DocumentText{}, fromRPC("get document text", err)
	}
	return *out, nil
}

func (d *RemoteDiff) ReplaceText(ctx context.Context, in domain.ReplaceTextRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return fromRPC("replace text", d.client.ReplaceText(ctx, &in))
}

func (d *RemoteDiff) CloseAllDiffs(ctx context.Context) error {
	return fromRPC("close all diffs", d.client.CloseAllDiffs(ctx))
}
