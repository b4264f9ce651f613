package in

import (
	"context"

	"hostbridge/internal/modules/orchestrator/dto"
	orchestratorin "hostbridge/internal/modules/orchestrator/port/in"
)

// CLIHandler is read-only: heads are started and stopped by the sessions
// and streams they describe.
type CLIHandler struct {
	usecase orchestratorin.Usecase
}

func NewCLIHandler(usecase orchestratorin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) []dto.HeadInfo {
	return h.usecase.ListHeads(ctx)
}
