package out

import (
	"context"
	"fmt"
	"slices"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	apperrors "hostbridge/internal/platform/errors"
	"hostbridge/internal/platform/id"
	"hostbridge/internal/platform/stream"
)

const BridgeType = "hostbridge"

// Terminator ends the host process when asked to.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// NullTerminator is for hosts that cannot end their own process.
type NullTerminator struct{}

func (NullTerminator) Terminate(context.Context) error { return nil }

// SignalTerminator closes Done on the first Terminate call.
type SignalTerminator struct {
	once sync.Once
	done chan struct{}
}

func NewSignalTerminator() *SignalTerminator {
	return &SignalTerminator{done: make(chan struct{})}
}

func (t *SignalTerminator) Terminate(context.Context) error {
	t.once.Do(func() { close(t.done) })
	return nil
}

func (t *SignalTerminator) Done() <-chan struct{} {
	return t.done
}

type HostInfo struct {
	Platform      string
	Version       string
	BridgeVersion string
	URIScheme     string
	ExtensionID   string
}

type LocalEnv struct {
	info       HostInfo
	ids        id.Generator
	terminator Terminator
	logger     hclog.Logger
	changes    *stream.Broadcaster[domain.TelemetrySettings]

	mu        sync.Mutex
	telemetry domain.Setting
	clipboard string
}

func NewLocalEnv(info HostInfo, telemetryEnabled bool, terminator Terminator, ids id.Generator, logger hclog.Logger) *LocalEnv {
	if terminator == nil {
		terminator = NullTerminator{}
	}
	if ids == nil {
		ids = id.UUID{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalEnv{
		info:       info,
		ids:        ids,
		terminator: terminator,
		logger:     logger,
		changes:    stream.NewBroadcaster[domain.TelemetrySettings](),
		telemetry:  domain.SettingFor(telemetryEnabled),
	}
}

func (e *LocalEnv) GetHostVersion(context.Context) (domain.HostVersion, error) {
	return domain.HostVersion{
		Platform:      e.info.Platform,
		Version:       e.info.Version,
		BridgeType:    BridgeType,
		BridgeVersion: e.info.BridgeVersion,
	}, nil
}

func (e *LocalEnv) GetRedirectURI(context.Context) (domain.RedirectURI, error) {
	scheme := e.info.URIScheme
	if scheme == "" {
		scheme = "vscode"
	}
	return domain.RedirectURI{Value: fmt.Sprintf("%s://%s", scheme, e.info.ExtensionID)}, nil
}

func (e *LocalEnv) GetTelemetrySettings(context.Context) (domain.TelemetrySettings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.TelemetrySettings{Setting: e.telemetry}, nil
}

func (e *LocalEnv) SubscribeToTelemetrySettings(context.Context) (*hostout.TelemetrySubscription, error) {
	return e.changes.Subscribe(e.ids.New()), nil
}

// SetTelemetryEnabled records the host's setting and notifies subscribers
// when it actually changes.
func (e *LocalEnv) SetTelemetryEnabled(enabled bool) {
	next := domain.SettingFor(enabled)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.telemetry == next {
		return
	}
	e.telemetry = next
	n := e.changes.Publish(domain.TelemetrySettings{Setting: next})
	e.logger.Debug("telemetry setting changed", "setting", next, "subscribers", n)
}

// CloseSubscriptions ends every open telemetry subscription as a remote closure.
func (e *LocalEnv) CloseSubscriptions() {
	e.changes.Close(domain.ErrSubscriptionClosed)
}

func (e *LocalEnv) ClipboardReadText(context.Context) (domain.ClipboardText, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.ClipboardText{Value: e.clipboard}, nil
}

func (e *LocalEnv) ClipboardWriteText(_ context.Context, in domain.ClipboardText) error {
	e.mu.Lock()
	e.clipboard = in.Value
	e.mu.Unlock()
	return nil
}

func (e *LocalEnv) Shutdown(ctx context.Context) error {
	e.logger.Info("shutdown requested")
	return e.terminator.Terminate(ctx)
}

type LocalWorkspace struct {
	paths  []string
	logger hclog.Logger

	mu     sync.Mutex
	panels []string
}

func NewLocalWorkspace(paths []string, logger hclog.Logger) *LocalWorkspace {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalWorkspace{paths: slices.Clone(paths), logger: logger}
}

func (w *LocalWorkspace) GetWorkspacePaths(context.Context) (domain.WorkspacePaths, error) {
	return domain.WorkspacePaths{Paths: slices.Clone(w.paths)}, nil
}

func (w *LocalWorkspace) OpenPanel(_ context.Context, in domain.OpenPanelRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	w.panels = append(w.panels, in.Panel)
	w.mu.Unlock()
	w.logger.Info("panel opened", "panel", in.Panel)
	return nil
}

// OpenedPanels lists panels opened so far, oldest first.
func (w *LocalWorkspace) OpenedPanels() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.panels)
}

// LocalWindow is a headless window: messages are logged and dismissed,
// opened files become visible tabs.
type LocalWindow struct {
	logger hclog.Logger

	mu   sync.Mutex
	tabs []string
}

func NewLocalWindow(logger hclog.Logger) *LocalWindow {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LocalWindow{logger: logger}
}

func (w *LocalWindow) ShowMessage(_ context.Context, in domain.ShowMessageRequest) (domain.ShowMessageResponse, error) {
	if err := in.Validate(); err != nil {
		return domain.ShowMessageResponse{}, err
	}
	w.logger.Info("host message", "severity", in.Severity, "text", in.Text, "options", in.Options)
	return domain.ShowMessageResponse{}, nil
}

func (w *LocalWindow) OpenFile(_ context.Context, in domain.OpenFileRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !slices.Contains(w.tabs, in.Path) {
		w.tabs = append(w.tabs, in.Path)
	}
	return nil
}

func (w *LocalWindow) GetVisibleTabs(context.Context) (domain.VisibleTabs, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.VisibleTabs{Paths: slices.Clone(w.tabs)}, nil
}

type diffDocument struct {
	path    string
	content string
}

type LocalDiff struct {
	ids id.Generator

	mu   sync.Mutex
	docs map[string]diffDocument
}

func NewLocalDiff(ids id.Generator) *LocalDiff {
	if ids == nil {
		ids = id.UUID{}
	}
	return &LocalDiff{ids: ids, docs: map[string]diffDocument{}}
}

func (d *LocalDiff) OpenDiff(_ context.Context, in domain.OpenDiffRequest) (domain.OpenDiffResponse, error) {
	if err := in.Validate(); err != nil {
		return domain.OpenDiffResponse{}, err
	}
	diffID := d.ids.New()
	d.mu.Lock()
	d.docs[diffID] = diffDocument{path: in.Path, content: in.Content}
	d.mu.Unlock()
	return domain.OpenDiffResponse{DiffID: diffID}, nil
}

func (d *LocalDiff) GetDocumentText(_ context.Context, in domain.DiffRef) (domain.DocumentText, error) {
	if err := in.Validate(); err != nil {
		return domain.DocumentText{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[in.DiffID]
	if !ok {
		return domain.DocumentText{}, fmt.Errorf("%w: diff %s", apperrors.ErrNotFound, in.DiffID)
	}
	return domain.DocumentText{Content: doc.content}, nil
}

func (d *LocalDiff) ReplaceText(_ context.Context, in domain.ReplaceTextRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[in.DiffID]
	if !ok {
		return fmt.Errorf("%w: diff %s", apperrors.ErrNotFound, in.DiffID)
	}
	doc.content = in.Content
	d.docs[in.DiffID] = doc
	return nil
}

func (d *LocalDiff) CloseAllDiffs(context.Context) error {
	d.mu.Lock()
	d.docs = map[string]diffDocument{}
	d.mu.Unlock()
	return nil
}

// NullWindow stands in for hosts with no window surface.
type NullWindow struct{}

func (NullWindow) ShowMessage(context.Context, domain.ShowMessageRequest) (domain.ShowMessageResponse, error) {
	return domain.ShowMessageResponse{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityWindow)
}

func (NullWindow) OpenFile(context.Context, domain.OpenFileRequest) error {
	return fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityWindow)
}

func (NullWindow) GetVisibleTabs(context.Context) (domain.VisibleTabs, error) {
	return domain.VisibleTabs{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityWindow)
}

// NullDiff stands in for hosts with no diff view. Closing is always a no-op.
type NullDiff struct{}

func (NullDiff) OpenDiff(context.Context, domain.OpenDiffRequest) (domain.OpenDiffResponse, error) {
	return domain.OpenDiffResponse{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityDiff)
}

func (NullDiff) GetDocumentText(context.Context, domain.DiffRef) (domain.DocumentText, error) {
	return domain.DocumentText{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityDiff)
}

func (NullDiff) ReplaceText(context.Context, domain.ReplaceTextRequest) error {
	return fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityDiff)
}

func (NullDiff) CloseAllDiffs(context.Context) error { return nil }
