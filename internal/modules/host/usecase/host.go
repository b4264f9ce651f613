package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"hostbridge/internal/modules/host/domain"
	"hostbridge/internal/modules/host/dto"
	hostin "hostbridge/internal/modules/host/port/in"
	"hostbridge/internal/modules/host/service"
	"hostbridge/internal/platform/retry"
	"hostbridge/internal/platform/stream"
)

// Interactor runs every unary host call under the retry policy. The
// capability is resolved and the request validated before the first
// attempt, so neither an uninitialized provider nor a bad request is retried.
type Interactor struct {
	provider *service.Provider
	policy   retry.Policy
	logger   hclog.Logger
}

func NewInteractor(provider *service.Provider, policy retry.Policy, logger hclog.Logger) hostin.Usecase {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interactor{provider: provider, policy: policy, logger: logger}
}

func (i *Interactor) Mode() string {
	mode, err := i.provider.Mode()
	if err != nil {
		return ""
	}
	return string(mode)
}

func call[T any](ctx context.Context, i *Interactor, name string, op func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, i.policy, i.logger.With("op", name), op)
}

func run(ctx context.Context, i *Interactor, name string, op func(context.Context) error) error {
	_, err := call(ctx, i, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func (i *Interactor) HostVersion(ctx context.Context) (dto.HostVersion, error) {
	env, err := i.provider.Env()
	if err != nil {
		return dto.HostVersion{}, err
	}
	v, err := call(ctx, i, "host_version", env.GetHostVersion)
	if err != nil {
		return dto.HostVersion{}, err
	}
	return dto.HostVersion{
		Platform:      v.Platform,
		Version:       v.Version,
		BridgeType:    v.BridgeType,
		BridgeVersion: v.BridgeVersion,
	}, nil
}

func (i *Interactor) RedirectURI(ctx context.Context) (string, error) {
	env, err := i.provider.Env()
	if err != nil {
		return "", err
	}
	out, err := call(ctx, i, "redirect_uri", env.GetRedirectURI)
	return out.Value, err
}

func (i *Interactor) TelemetrySetting(ctx context.Context) (dto.TelemetryEvent, error) {
	env, err := i.provider.Env()
	if err != nil {
		return dto.TelemetryEvent{}, err
	}
	out, err := call(ctx, i, "telemetry_settings", env.GetTelemetrySettings)
	if err != nil {
		return dto.TelemetryEvent{}, err
	}
	return toEvent(out), nil
}

// WatchTelemetry is not retried: a subscription is established once and
// its closure is reported through the subscription itself.
func (i *Interactor) WatchTelemetry(ctx context.Context) (*stream.Subscription[dto.TelemetryEvent], error) {
	env, err := i.provider.Env()
	if err != nil {
		return nil, err
	}
	sub, err := env.SubscribeToTelemetrySettings(ctx)
	if err != nil {
		return nil, err
	}
	return stream.Map(sub, toEvent), nil
}

func (i *Interactor) ReadClipboard(ctx context.Context) (string, error) {
	env, err := i.provider.Env()
	if err != nil {
		return "", err
	}
	out, err := call(ctx, i, "clipboard_read", env.ClipboardReadText)
	return out.Value, err
}

func (i *Interactor) WriteClipboard(ctx context.Context, text string) error {
	env, err := i.provider.Env()
	if err != nil {
		return err
	}
	return run(ctx, i, "clipboard_write", func(ctx context.Context) error {
		return env.ClipboardWriteText(ctx, domain.ClipboardText{Value: text})
	})
}

// Shutdown is sent once; the host may already be gone when a retry would run.
func (i *Interactor) Shutdown(ctx context.Context) error {
	return i.provider.Shutdown(ctx)
}

func (i *Interactor) WorkspacePaths(ctx context.Context) ([]string, error) {
	ws, err := i.provider.Workspace()
	if err != nil {
		return nil, err
	}
	out, err := call(ctx, i, "workspace_paths", ws.GetWorkspacePaths)
	return out.Paths, err
}

func (i *Interactor) OpenPanel(ctx context.Context, panel string) error {
	ws, err := i.provider.Workspace()
	if err != nil {
		return err
	}
	req := domain.OpenPanelRequest{Panel: panel}
	if err := req.Validate(); err != nil {
		return err
	}
	return run(ctx, i, "open_panel", func(ctx context.Context) error {
		return ws.OpenPanel(ctx, req)
	})
}

func (i *Interactor) ShowMessage(ctx context.Context, input dto.MessageInput) (string, error) {
	win, err := i.provider.Window()
	if err != nil {
		return "", err
	}
	severity := domain.Severity(input.Severity)
	if severity == "" {
		severity = domain.SeverityInfo
	}
	req := domain.ShowMessageRequest{Severity: severity, Text: input.Text, Options: input.Options}
	if err := req.Validate(); err != nil {
		return "", err
	}
	out, err := call(ctx, i, "show_message", func(ctx context.Context) (domain.ShowMessageResponse, error) {
		return win.ShowMessage(ctx, req)
	})
	return out.Selected, err
}

func (i *Interactor) OpenFile(ctx context.Context, path string) error {
	win, err := i.provider.Window()
	if err != nil {
		return err
	}
	req := domain.OpenFileRequest{Path: path}
	if err := req.Validate(); err != nil {
		return err
	}
	return run(ctx, i, "open_file", func(ctx context.Context) error {
		return win.OpenFile(ctx, req)
	})
}

func (i *Interactor) VisibleTabs(ctx context.Context) ([]string, error) {
	win, err := i.provider.Window()
	if err != nil {
		return nil, err
	}
	out, err := call(ctx, i, "visible_tabs", win.GetVisibleTabs)
	return out.Paths, err
}

func (i *Interactor) OpenDiff(ctx context.Context, path, content string) (dto.DiffOutput, error) {
	diff, err := i.provider.Diff()
	if err != nil {
		return dto.DiffOutput{}, err
	}
	req := domain.OpenDiffRequest{Path: path, Content: content}
	if err := req.Validate(); err != nil {
		return dto.DiffOutput{}, err
	}
	out, err := call(ctx, i, "open_diff", func(ctx context.Context) (domain.OpenDiffResponse, error) {
		return diff.OpenDiff(ctx, req)
	})
	if err != nil {
		return dto.DiffOutput{}, err
	}
	return dto.DiffOutput{DiffID: out.DiffID, Path: path}, nil
}

func (i *Interactor) DiffText(ctx context.Context, diffID string) (string, error) {
	diff, err := i.provider.Diff()
	if err != nil {
		return "", err
	}
	ref := domain.DiffRef{DiffID: diffID}
	if err := ref.Validate(); err != nil {
		return "", err
	}
	out, err := call(ctx, i, "document_text", func(ctx context.Context) (domain.DocumentText, error) {
		return diff.GetDocumentText(ctx, ref)
	})
	return out.Content, err
}

func (i *Interactor) ReplaceDiffText(ctx context.Context, diffID, content string) error {
	diff, err := i.provider.Diff()
	if err != nil {
		return err
	}
	req := domain.ReplaceTextRequest{DiffID: diffID, Content: content}
	if err := req.Validate(); err != nil {
		return err
	}
	return run(ctx, i, "replace_text", func(ctx context.Context) error {
		return diff.ReplaceText(ctx, req)
	})
}

func (i *Interactor) CloseAllDiffs(ctx context.Context) error {
	diff, err := i.provider.Diff()
	if err != nil {
		return err
	}
	return run(ctx, i, "close_all_diffs", diff.CloseAllDiffs)
}

func toEvent(s domain.TelemetrySettings) dto.TelemetryEvent {
	return dto.TelemetryEvent{Setting: string(s.Setting), Enabled: s.Setting == domain.SettingEnabled}
}
