package out

import (
	"context"
	"fmt"

	"hostbridge/internal/modules/host/domain"
	"hostbridge/internal/platform/stream"
)

type TelemetrySubscription = stream.Subscription[domain.TelemetrySettings]

type Env interface {
	GetHostVersion(ctx context.Context) (domain.HostVersion, error)
	GetRedirectURI(ctx context.Context) (domain.RedirectURI, error)
	GetTelemetrySettings(ctx context.Context) (domain.TelemetrySettings, error)
	// SubscribeToTelemetrySettings returns once the subscription is
	// established; ctx does not bound its lifetime.
	SubscribeToTelemetrySettings(ctx context.Context) (*TelemetrySubscription, error)
	ClipboardReadText(ctx context.Context) (domain.ClipboardText, error)
	ClipboardWriteText(ctx context.Context, in domain.ClipboardText) error
	// Shutdown asks the host to exit. Hosts that cannot terminate treat it as a no-op.
	Shutdown(ctx context.Context) error
}

// TelemetryControl is the host-side owner of the telemetry setting. Changes
// are pushed to every open telemetry subscription.
type TelemetryControl interface {
	SetTelemetryEnabled(enabled bool)
	GetTelemetrySettings(ctx context.Context) (domain.TelemetrySettings, error)
}

type Workspace interface {
	GetWorkspacePaths(ctx context.Context) (domain.WorkspacePaths, error)
	OpenPanel(ctx context.Context, in domain.OpenPanelRequest) error
}

type Window interface {
	ShowMessage(ctx context.Context, in domain.ShowMessageRequest) (domain.ShowMessageResponse, error)
	OpenFile(ctx context.Context, in domain.OpenFileRequest) error
	GetVisibleTabs(ctx context.Context) (domain.VisibleTabs, error)
}

type Diff interface {
	OpenDiff(ctx context.Context, in domain.OpenDiffRequest) (domain.OpenDiffResponse, error)
	GetDocumentText(ctx context.Context, in domain.DiffRef) (domain.DocumentText, error)
	ReplaceText(ctx context.Context, in domain.ReplaceTextRequest) error
	CloseAllDiffs(ctx context.Context) error
}

// Capabilities is one resolved implementation per capability.
type Capabilities struct {
	Env       Env
	Workspace Workspace
	Window    Window
	Diff      Diff
}

func (c Capabilities) Validate() error {
	missing := []domain.Capability{}
	if c.Env == nil {
		missing = append(missing, domain.CapabilityEnv)
	}
	if c.Workspace == nil {
		missing = append(missing, domain.CapabilityWorkspace)
	}
	if c.Window == nil {
		missing = append(missing, domain.CapabilityWindow)
	}
	if c.Diff == nil {
		missing = append(missing, domain.CapabilityDiff)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", domain.ErrCapabilityMissing, missing)
	}
	return nil
}

// ClientManager owns the per-capability connections to a detached host.
type ClientManager interface {
	Address() string
	Capabilities() Capabilities
	Close() error
}
