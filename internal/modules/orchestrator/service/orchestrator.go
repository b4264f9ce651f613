package service

import (
	"fmt"
	"slices"
	"sync"

	"hostbridge/internal/modules/orchestrator/domain"
)

// Orchestrator is the registry of active heads, kept in registration order.
type Orchestrator struct {
	mu    sync.RWMutex
	heads []domain.Head
	index map[string]int
}

func NewOrchestrator(heads ...domain.Head) (*Orchestrator, error) {
	o := &Orchestrator{index: map[string]int{}}
	for _, h := range heads {
		if err := o.Add(h); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Add rejects an id that is already registered.
func (o *Orchestrator) Add(head domain.Head) error {
	if err := head.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.index[head.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrHeadExists, head.ID)
	}
	o.index[head.ID] = len(o.heads)
	o.heads = append(o.heads, head)
	return nil
}

// Remove reports whether a head was registered under id. The vacated slot
// is zeroed so a removed head's State is not retained.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	pos, ok := o.index[id]
	if !ok {
		return false
	}
	o.heads = slices.Delete(o.heads, pos, pos+1)
	delete(o.index, id)
	for i := pos; i < len(o.heads); i++ {
		o.index[o.heads[i].ID] = i
	}
	return true
}

func (o *Orchestrator) GetActiveHeadIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.heads))
	for _, h := range o.heads {
		ids = append(ids, h.ID)
	}
	return ids
}

func (o *Orchestrator) GetHead(id string) (domain.Head, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	pos, ok := o.index[id]
	if !ok {
		return domain.Head{}, false
	}
	return o.heads[pos], true
}

func (o *Orchestrator) Heads() []domain.Head {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.Head, len(o.heads))
	copy(out, o.heads)
	return out
}

func (o *Orchestrator) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.heads)
}
