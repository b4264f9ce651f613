package in

import (
	"context"

	"hostbridge/internal/modules/host/dto"
	hostin "hostbridge/internal/modules/host/port/in"
	"hostbridge/internal/platform/stream"
)

type CLIHandler struct {
	usecase hostin.Usecase
}

func NewCLIHandler(usecase hostin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Mode() string {
	return h.usecase.Mode()
}

func (h CLIHandler) Version(ctx context.Context) (dto.HostVersion, error) {
	return h.usecase.HostVersion(ctx)
}

func (h CLIHandler) RedirectURI(ctx context.Context) (string, error) {
	return h.usecase.RedirectURI(ctx)
}

func (h CLIHandler) Telemetry(ctx context.Context) (dto.TelemetryEvent, error) {
	return h.usecase.TelemetrySetting(ctx)
}

func (h CLIHandler) WatchTelemetry(ctx context.Context) (*stream.Subscription[dto.TelemetryEvent], error) {
	return h.usecase.WatchTelemetry(ctx)
}

func (h CLIHandler) ClipboardRead(ctx context.Context) (string, error) {
	return h.usecase.ReadClipboard(ctx)
}

func (h CLIHandler) ClipboardWrite(ctx context.Context, text string) error {
	return h.usecase.WriteClipboard(ctx, text)
}

func (h CLIHandler) Shutdown(ctx context.Context) error {
	return h.usecase.Shutdown(ctx)
}

func (h CLIHandler) WorkspacePaths(ctx context.Context) ([]string, error) {
	return h.usecase.WorkspacePaths(ctx)
}

func (h CLIHandler) OpenPanel(ctx context.Context, panel string) error {
	return h.usecase.OpenPanel(ctx, panel)
}

func (h CLIHandler) ShowMessage(ctx context.Context, severity, text string, options []string) (string, error) {
	return h.usecase.ShowMessage(ctx, dto.MessageInput{Severity: severity, Text: text, Options: options})
}

func (h CLIHandler) OpenFile(ctx context.Context, path string) error {
	return h.usecase.OpenFile(ctx, path)
}

func (h CLIHandler) VisibleTabs(ctx context.Context) ([]string, error) {
	return h.usecase.VisibleTabs(ctx)
}

func (h CLIHandler) OpenDiff(ctx context.Context, path, content string) (dto.DiffOutput, error) {
	return h.usecase.OpenDiff(ctx, path, content)
}

func (h CLIHandler) DiffText(ctx context.Context, diffID string) (string, error) {
	return h.usecase.DiffText(ctx, diffID)
}

func (h CLIHandler) ReplaceDiffText(ctx context.Context, diffID, content string) error {
	return h.usecase.ReplaceDiffText(ctx, diffID, content)
}

func (h CLIHandler) CloseAllDiffs(ctx context.Context) error {
	return h.usecase.CloseAllDiffs(ctx)
}
