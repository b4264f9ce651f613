package domain

import (
	"errors"
	"fmt"

	"hostbridge/internal/platform/stream"
)

type Mode string

const (
	ModeEmbedded Mode = "embedded"
	ModeDetached Mode = "detached"
)

func (m Mode) Validate() error {
	switch m {
	case ModeEmbedded, ModeDetached:
		return nil
	default:
		return fmt.Errorf("unknown deployment mode: %s", m)
	}
}

type Capability string

const (
	CapabilityEnv       Capability = "environment"
	CapabilityWorkspace Capability = "workspace"
	CapabilityWindow    Capability = "window"
	CapabilityDiff      Capability = "diff"
)

var AllCapabilities = []Capability{CapabilityEnv, CapabilityWorkspace, CapabilityWindow, CapabilityDiff}

var (
	ErrUninitialized      = errors.New("host provider is not initialized")
	ErrAlreadyInitialized = errors.New("host provider is already initialized")
	ErrConnection         = errors.New("host bridge connection failed")
	ErrInvalidRequest     = errors.New("invalid host request")
	ErrCapabilityMissing  = errors.New("host capability not available")
	ErrSubscriptionClosed = stream.ErrRemoteClosed
)
