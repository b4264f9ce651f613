package usecase

import (
	"context"
	"fmt"

	"hostbridge/internal/modules/orchestrator/domain"
	"hostbridge/internal/modules/orchestrator/dto"
	orchestratorin "hostbridge/internal/modules/orchestrator/port/in"
	"hostbridge/internal/modules/orchestrator/service"
	"hostbridge/internal/platform/clock"
	apperrors "hostbridge/internal/platform/errors"
	"hostbridge/internal/platform/id"
)

type Interactor struct {
	registry *service.Orchestrator
	clock    clock.Clock
	ids      id.Generator
}

func NewInteractor(registry *service.Orchestrator, clk clock.Clock, ids id.Generator) orchestratorin.Usecase {
	return &Interactor{registry: registry, clock: clk, ids: ids}
}

// StartHead registers a head, generating an id when none is given.
func (i *Interactor) StartHead(_ context.Context, input dto.StartHeadInput) (dto.HeadInfo, error) {
	headID := input.ID
	if headID == "" {
		headID = i.ids.New()
	}
	head := domain.Head{ID: headID, Label: input.Label, StartedAt: i.clock.Now(), State: input.State}
	if err := i.registry.Add(head); err != nil {
		return dto.HeadInfo{}, err
	}
	return toInfo(head), nil
}

func (i *Interactor) StopHead(_ context.Context, headID string) error {
	if !i.registry.Remove(headID) {
		return fmt.Errorf("%w: head %s", apperrors.ErrNotFound, headID)
	}
	return nil
}

func (i *Interactor) ActiveHeadIDs(context.Context) []string {
	return i.registry.GetActiveHeadIDs()
}

func (i *Interactor) Head(_ context.Context, headID string) (dto.HeadInfo, bool) {
	head, ok := i.registry.GetHead(headID)
	if !ok {
		return dto.HeadInfo{}, false
	}
	return toInfo(head), true
}

func (i *Interactor) HeadState(_ context.Context, headID string) (any, bool) {
	head, ok := i.registry.GetHead(headID)
	if !ok {
		return nil, false
	}
	return head.State, true
}

func (i *Interactor) ListHeads(context.Context) []dto.HeadInfo {
	heads := i.registry.Heads()
	out := make([]dto.HeadInfo, 0, len(heads))
	for _, h := range heads {
		out = append(out, toInfo(h))
	}
	return out
}

func toInfo(h domain.Head) dto.HeadInfo {
	return dto.HeadInfo{ID: h.ID, Label: h.Label, StartedAt: h.StartedAt}
}
