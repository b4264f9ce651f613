package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"hostbridge/internal/modules/host/dto"
	hostin "hostbridge/internal/modules/host/port/in"
	hostout "hostbridge/internal/modules/host/port/out"
)

// ControlInteractor applies host-side changes directly to the local host.
// There is no remote peer to retry against.
type ControlInteractor struct {
	telemetry hostout.TelemetryControl
	logger    hclog.Logger
}

func NewControl(telemetry hostout.TelemetryControl, logger hclog.Logger) hostin.Control {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ControlInteractor{telemetry: telemetry, logger: logger}
}

// SetTelemetryEnabled returns the setting in effect afterwards.
func (c *ControlInteractor) SetTelemetryEnabled(ctx context.Context, enabled bool) (dto.TelemetryEvent, error) {
	c.telemetry.SetTelemetryEnabled(enabled)
	settings, err := c.telemetry.GetTelemetrySettings(ctx)
	if err != nil {
		return dto.TelemetryEvent{}, err
	}
	c.logger.Info("telemetry setting applied", "setting", settings.Setting)
	return toEvent(settings), nil
}
