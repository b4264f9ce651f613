package dto

type HostVersion struct {
	Platform      string
	Version       string
	BridgeType    string
	BridgeVersion string
}

type TelemetryEvent struct {
	Setting string
	Enabled bool
}

type MessageInput struct {
	Severity string
	Text     string
	Options  []string
}

type DiffOutput struct {
	DiffID string
	Path   string
}
