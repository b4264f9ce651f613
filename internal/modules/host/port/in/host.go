package in

import (
	"context"

	"hostbridge/internal/modules/host/dto"
	"hostbridge/internal/platform/stream"
)

type Usecase interface {
	Mode() string
	HostVersion(ctx context.Context) (dto.HostVersion, error)
	RedirectURI(ctx context.Context) (string, error)
	TelemetrySetting(ctx context.Context) (dto.TelemetryEvent, error)
	WatchTelemetry(ctx context.Context) (*stream.Subscription[dto.TelemetryEvent], error)
	ReadClipboard(ctx context.Context) (string, error)
	WriteClipboard(ctx context.Context, text string) error
	Shutdown(ctx context.Context) error

	WorkspacePaths(ctx context.Context) ([]string, error)
	OpenPanel(ctx context.Context, panel string) error

	ShowMessage(ctx context.Context, input dto.MessageInput) (string, error)
	OpenFile(ctx context.Context, path string) error
	VisibleTabs(ctx context.Context) ([]string, error)

	OpenDiff(ctx context.Context, path, content string) (dto.DiffOutput, error)
	DiffText(ctx context.Context, diffID string) (string, error)
	ReplaceDiffText(ctx context.Context, diffID, content string) error
	CloseAllDiffs(ctx context.Context) error
}

// Control changes state owned by the serving host.
type Control interface {
	SetTelemetryEnabled(ctx context.Context, enabled bool) (dto.TelemetryEvent, error)
}
