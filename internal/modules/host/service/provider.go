package service

import (
	"context"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
)

// Bindings supplies what Initialize needs for either mode: Local for
// embedded, Remote for detached.
type Bindings struct {
	Local  hostout.Capabilities
	Remote hostout.ClientManager
}

// Provider resolves each capability once and hands out the same
// implementation for the rest of the process lifetime. It is built at
// startup and passed to whatever needs host access.
type Provider struct {
	logger hclog.Logger

	mu          sync.RWMutex
	initialized bool
	mode        domain.Mode
	caps        hostout.Capabilities
	remote      hostout.ClientManager
}

func NewProvider(logger hclog.Logger) *Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Provider{logger: logger}
}

func (p *Provider) Initialize(mode domain.Mode, bindings Bindings) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return domain.ErrAlreadyInitialized
	}

	var caps hostout.Capabilities
	switch mode {
	case domain.ModeEmbedded:
		caps = bindings.Local
	case domain.ModeDetached:
		if bindings.Remote == nil {
			return fmt.Errorf("detached mode requires a client manager")
		}
		caps = bindings.Remote.Capabilities()
		p.remote = bindings.Remote
	}
	if err := caps.Validate(); err != nil {
		p.remote = nil
		return err
	}
	p.caps = caps
	p.mode = mode
	p.initialized = true
	if p.remote != nil {
		p.logger.Info("host provider initialized", "mode", mode, "address", p.remote.Address())
	} else {
		p.logger.Info("host provider initialized", "mode", mode)
	}
	return nil
}

func (p *Provider) Mode() (domain.Mode, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return "", domain.ErrUninitialized
	}
	return p.mode, nil
}

func (p *Provider) Env() (hostout.Env, error) {
	caps, err := p.resolved()
	return caps.Env, err
}

func (p *Provider) Workspace() (hostout.Workspace, error) {
	caps, err := p.resolved()
	return caps.Workspace, err
}

func (p *Provider) Window() (hostout.Window, error) {
	caps, err := p.resolved()
	return caps.Window, err
}

func (p *Provider) Diff() (hostout.Diff, error) {
	caps, err := p.resolved()
	return caps.Diff, err
}

// Shutdown sends the cooperative shutdown signal to the active Env. For a
// paired detached host it also releases the connections. An embedded Env
// that cannot terminate treats the signal as a no-op.
func (p *Provider) Shutdown(ctx context.Context) error {
	env, err := p.Env()
	if err != nil {
		return err
	}
	shutdownErr := env.Shutdown(ctx)
	p.mu.RLock()
	remote := p.remote
	p.mu.RUnlock()
	if remote == nil {
		return shutdownErr
	}
	if err := remote.Close(); err != nil {
		p.logger.Warn("close host bridge clients", "error", err)
	}
	return shutdownErr
}

// Close releases remote connections without asking the host to exit.
func (p *Provider) Close() error {
	p.mu.RLock()
	remote := p.remote
	p.mu.RUnlock()
	if remote == nil {
		return nil
	}
	return remote.Close()
}

func (p *Provider) resolved() (hostout.Capabilities, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return hostout.Capabilities{}, domain.ErrUninitialized
	}
	return p.caps, nil
}
