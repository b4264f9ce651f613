package in

import (
	"context"

	"hostbridge/internal/modules/orchestrator/dto"
)

type Usecase interface {
	StartHead(ctx context.Context, input dto.StartHeadInput) (dto.HeadInfo, error)
	StopHead(ctx context.Context, id string) error
	ActiveHeadIDs(ctx context.Context) []string
	Head(ctx context.Context, id string) (dto.HeadInfo, bool)
	HeadState(ctx context.Context, id string) (any, bool)
	ListHeads(ctx context.Context) []dto.HeadInfo
}
