package domain

import (
	"fmt"
	"strings"
)

type Empty struct{}

type Setting string

const (
	SettingEnabled     Setting = "enabled"
	SettingDisabled    Setting = "disabled"
	SettingUnsupported Setting = "unsupported"
)

func SettingFor(enabled bool) Setting {
	if enabled {
		return SettingEnabled
	}
	return SettingDisabled
}

func (s Setting) Validate() error {
	switch s {
	case SettingEnabled, SettingDisabled, SettingUnsupported:
		return nil
	default:
		return invalid("unknown setting: %q", string(s))
	}
}

type HostVersion struct {
	Platform      string `json:"platform"`
	Version       string `json:"version"`
	BridgeType    string `json:"bridge_type"`
	BridgeVersion string `json:"bridge_version"`
}

type RedirectURI struct {
	Value string `json:"value"`
}

type TelemetrySettings struct {
	Setting Setting `json:"setting"`
}

func (t TelemetrySettings) Validate() error {
	return t.Setting.Validate()
}

type ClipboardText struct {
	Value string `json:"value"`
}

type WorkspacePaths struct {
	Paths []string `json:"paths"`
}

type OpenPanelRequest struct {
	Panel string `json:"panel"`
}

func (r OpenPanelRequest) Validate() error {
	if strings.TrimSpace(r.Panel) == "" {
		return invalid("panel is required")
	}
	return nil
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type ShowMessageRequest struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
	Options  []string `json:"options,omitempty"`
}

func (r ShowMessageRequest) Validate() error {
	switch r.Severity {
	case SeverityInfo, SeverityWarning, SeverityError:
	default:
		return invalid("unknown severity: %q", string(r.Severity))
	}
	if strings.TrimSpace(r.Text) == "" {
		return invalid("message text is required")
	}
	return nil
}

type ShowMessageResponse struct {
	Selected string `json:"selected,omitempty"`
}

type OpenFileRequest struct {
	Path string `json:"path"`
}

func (r OpenFileRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return invalid("path is required")
	}
	return nil
}

type VisibleTabs struct {
	Paths []string `json:"paths"`
}

type OpenDiffRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (r OpenDiffRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return invalid("diff path is required")
	}
	return nil
}

type OpenDiffResponse struct {
	DiffID string `json:"diff_id"`
}

type DiffRef struct {
	DiffID string `json:"diff_id"`
}

func (r DiffRef) Validate() error {
	if strings.TrimSpace(r.DiffID) == "" {
		return invalid("diff id is required")
	}
	return nil
}

type DocumentText struct {
	Content string `json:"content"`
}

type ReplaceTextRequest struct {
	DiffID  string `json:"diff_id"`
	Content string `json:"content"`
}

func (r ReplaceTextRequest) Validate() error {
	return DiffRef{DiffID: r.DiffID}.Validate()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
