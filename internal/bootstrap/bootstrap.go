package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	hclog "github.com/hashicorp/go-hclog"

	hostinadapter "hostbridge/internal/modules/host/adapter/in"
	hostoutadapter "hostbridge/internal/modules/host/adapter/out"
	"hostbridge/internal/modules/host/domain"
	hostout "hostbridge/internal/modules/host/port/out"
	hostservice "hostbridge/internal/modules/host/service"
	hostusecase "hostbridge/internal/modules/host/usecase"
	orchestratorinadapter "hostbridge/internal/modules/orchestrator/adapter/in"
	orchestratordto "hostbridge/internal/modules/orchestrator/dto"
	orchestratorin "hostbridge/internal/modules/orchestrator/port/in"
	orchestratorservice "hostbridge/internal/modules/orchestrator/service"
	orchestratorusecase "hostbridge/internal/modules/orchestrator/usecase"
	"hostbridge/internal/platform/clock"
	"hostbridge/internal/platform/config"
	"hostbridge/internal/platform/id"
	"hostbridge/internal/platform/retry"
)

// Version is stamped at build time.
var Version = "dev"

// PluginArgs start the bridge binary as a go-plugin child.
var PluginArgs = []string{"serve", "--plugin"}

// App is the controller side: control logic bound to a host through the
// provider, plus the head registry for this process.
type App struct {
	HostCLI  hostinadapter.CLIHandler
	HeadsCLI orchestratorinadapter.CLIHandler
	Logger   hclog.Logger

	provider *hostservice.Provider
	heads    orchestratorin.Usecase
	headID   string
}

func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	provider := hostservice.NewProvider(logger.Named("provider"))
	if err := initializeProvider(provider, cfg, logger); err != nil {
		return nil, err
	}

	heads, err := newHeads()
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	head, err := heads.StartHead(context.Background(), orchestratordto.StartHeadInput{Label: "controller/" + string(cfg.Mode)})
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("start controller head: %w", err)
	}

	hostUC := hostusecase.NewInteractor(provider, policyOf(cfg.Retry), logger.Named("host"))
	return &App{
		HostCLI:  hostinadapter.NewCLIHandler(hostUC),
		HeadsCLI: orchestratorinadapter.NewCLIHandler(heads),
		Logger:   logger,
		provider: provider,
		heads:    heads,
		headID:   head.ID,
	}, nil
}

// Context tags host calls made with ctx with this process's head.
func (a *App) Context(ctx context.Context) context.Context {
	return hostoutadapter.WithHead(ctx, a.headID)
}

func (a *App) Close() error {
	stopErr := a.heads.StopHead(context.Background(), a.headID)
	return errors.Join(stopErr, a.provider.Close())
}

func initializeProvider(provider *hostservice.Provider, cfg config.Config, logger hclog.Logger) error {
	switch cfg.Mode {
	case config.ModeEmbedded:
		local, _ := LocalCapabilities(cfg.Host, nil, logger)
		return provider.Initialize(domain.ModeEmbedded, hostservice.Bindings{Local: local})
	case config.ModeDetached:
		manager, err := hostoutadapter.NewClientManager(cfg.Address, logger.Named("client"))
		if err != nil {
			return err
		}
		if err := provider.Initialize(domain.ModeDetached, hostservice.Bindings{Remote: manager}); err != nil {
			_ = manager.Close()
			return err
		}
		return nil
	case config.ModePlugin:
		manager, err := hostoutadapter.NewPluginClientManager(cfg.PluginBinary, logger.Named("client"), PluginArgs...)
		if err != nil {
			return err
		}
		if err := provider.Initialize(domain.ModeDetached, hostservice.Bindings{Remote: manager}); err != nil {
			_ = manager.Close()
			return err
		}
		return nil
	default:
		return cfg.Mode.Validate()
	}
}

// LocalCapabilities builds the in-process host from config. Headless hosts
// get the Null window and diff variants.
func LocalCapabilities(host config.Host, terminator hostoutadapter.Terminator, logger hclog.Logger) (hostout.Capabilities, *hostoutadapter.LocalEnv) {
	if !host.CanTerminate {
		terminator = nil
	}
	env := hostoutadapter.NewLocalEnv(hostoutadapter.HostInfo{
		Platform:      host.Platform,
		Version:       host.Version,
		BridgeVersion: Version,
		URIScheme:     host.URIScheme,
		ExtensionID:   host.ExtensionID,
	}, host.Telemetry, terminator, id.UUID{}, logger.Named("env"))
	caps := hostout.Capabilities{
		Env:       env,
		Workspace: hostoutadapter.NewLocalWorkspace(host.Workspace, logger.Named("workspace")),
		Window:    hostoutadapter.NewLocalWindow(logger.Named("window")),
		Diff:      hostoutadapter.NewLocalDiff(id.UUID{}),
	}
	if host.Headless {
		caps.Window = hostoutadapter.NullWindow{}
		caps.Diff = hostoutadapter.NullDiff{}
	}
	return caps, env
}

// Bridge is the host side: local capabilities served to a detached
// controller, with every open stream tracked as a head.
type Bridge struct {
	Server     *hostoutadapter.BridgeServer
	Terminator *hostoutadapter.SignalTerminator
	// Status serves bridge status and the host-side telemetry control.
	Status http.Handler
}

func NewBridge(cfg config.Config, logger hclog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	terminator := hostoutadapter.NewSignalTerminator()
	caps, env := LocalCapabilities(cfg.Host, terminator, logger)

	heads, err := newHeads()
	if err != nil {
		return nil, err
	}
	server, err := hostoutadapter.NewBridgeServer(caps, heads, logger.Named("bridge"))
	if err != nil {
		return nil, err
	}

	// The status surface reads the same capabilities the bridge serves.
	provider := hostservice.NewProvider(logger.Named("provider"))
	if err := provider.Initialize(domain.ModeEmbedded, hostservice.Bindings{Local: caps}); err != nil {
		return nil, err
	}
	hostUC := hostusecase.NewInteractor(provider, policyOf(cfg.Retry), logger.Named("host"))
	control := hostusecase.NewControl(env, logger.Named("control"))

	return &Bridge{
		Server:     server,
		Terminator: terminator,
		Status:     hostinadapter.NewStatusHandler(hostUC, heads, control).Routes(),
	}, nil
}

func newHeads() (orchestratorin.Usecase, error) {
	registry, err := orchestratorservice.NewOrchestrator()
	if err != nil {
		return nil, fmt.Errorf("new orchestrator: %w", err)
	}
	return orchestratorusecase.NewInteractor(registry, clock.SystemClock{}, id.UUID{}), nil
}

func policyOf(r config.Retry) retry.Policy {
	return retry.Policy{
		MaxAttempts:       r.MaxAttempts,
		PerAttemptTimeout: r.PerAttemptTimeout,
		InterAttemptDelay: r.InterAttemptDelay,
	}
}
