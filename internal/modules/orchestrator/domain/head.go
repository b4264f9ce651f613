package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "hostbridge/internal/platform/errors"
)

var ErrHeadExists = fmt.Errorf("head %w", apperrors.ErrAlreadyExists)

// Head is one active session context. State is owned elsewhere and is
// never inspected here.
type Head struct {
	ID        string
	Label     string
	StartedAt time.Time
	State     any
}

func (h Head) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("%w: head id is required", apperrors.ErrInvalidInput)
	}
	return nil
}
