package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hostbridge/internal/bootstrap"
	"hostbridge/internal/modules/host/domain"
	"hostbridge/internal/modules/host/dto"
	"hostbridge/internal/platform/config"
	"hostbridge/internal/platform/logging"
	"hostbridge/internal/ui/monitor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	mode       string
	address    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hostbridge",
		Short:         "Run control logic against an embedded or detached editor host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "deployment mode: embedded|detached|plugin")
	root.PersistentFlags().StringVar(&opts.address, "address", "", "host bridge address (overrides "+config.EnvAddress+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "trace|debug|info|warn|error")

	root.AddCommand(newEnvCmd(opts))
	root.AddCommand(newWorkspaceCmd(opts))
	root.AddCommand(newWindowCmd(opts))
	root.AddCommand(newDiffCmd(opts))
	root.AddCommand(newHeadsCmd(opts))
	root.AddCommand(newShutdownCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMonitorCmd(opts))
	return root
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.mode != "" {
		cfg.Mode = config.Mode(strings.ToLower(o.mode))
	}
	if o.address != "" {
		cfg.Address = o.address
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// withApp builds the controller, runs fn with a context scoped to this
// process's head, then releases the host connection.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg, logging.New("hostbridge", cfg.LogLevel, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	runErr := fn(app.Context(cmd.Context()), app)
	if err := app.Close(); err != nil {
		app.Logger.Warn("close app", "error", err)
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newEnvCmd(opts *rootOptions) *cobra.Command {
	env := &cobra.Command{Use: "env", Short: "Host environment queries"}

	var asJSON bool
	version := &cobra.Command{
		Use:   "version",
		Short: "Show the host and bridge version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				v, err := app.HostCLI.Version(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), v)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s, mode=%s)\n", v.Platform, v.Version, v.BridgeType, v.BridgeVersion, app.HostCLI.Mode())
				return nil
			})
		},
	}
	version.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	env.AddCommand(version, &cobra.Command{
		Use:   "redirect-uri",
		Short: "Show the host callback URI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				uri, err := app.HostCLI.RedirectURI(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), uri)
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "telemetry",
		Short: "Show the host telemetry setting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				ev, err := app.HostCLI.Telemetry(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), ev.Setting)
				return nil
			})
		},
	}, newWatchTelemetryCmd(opts), newClipboardCmd(opts))
	return env
}

func newWatchTelemetryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch-telemetry",
		Short: "Print telemetry setting changes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				sub, err := app.HostCLI.WatchTelemetry(ctx)
				if err != nil {
					return err
				}
				go func() {
					<-ctx.Done()
					sub.Unsubscribe()
				}()
				return sub.Each(func(ev dto.TelemetryEvent) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", time.Now().Format(time.RFC3339), ev.Setting)
				})
			})
		},
	}
}

func newClipboardCmd(opts *rootOptions) *cobra.Command {
	clipboard := &cobra.Command{Use: "clipboard", Short: "Host clipboard access"}
	clipboard.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Print the clipboard text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				text, err := app.HostCLI.ClipboardRead(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "write <text>",
		Short: "Replace the clipboard text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.HostCLI.ClipboardWrite(ctx, args[0])
			})
		},
	})
	return clipboard
}

func newWorkspaceCmd(opts *rootOptions) *cobra.Command {
	workspace := &cobra.Command{Use: "workspace", Short: "Host workspace queries"}
	workspace.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List workspace folders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				paths, err := app.HostCLI.WorkspacePaths(ctx)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no workspace folders")
					return nil
				}
				for _, p := range paths {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "open-panel <name>",
		Short: "Reveal a host panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.HostCLI.OpenPanel(ctx, args[0])
			})
		},
	})
	return workspace
}

func newWindowCmd(opts *rootOptions) *cobra.Command {
	window := &cobra.Command{Use: "window", Short: "Host window operations"}

	var severity string
	var options []string
	message := &cobra.Command{
		Use:   "message <text>",
		Short: "Show a message in the host window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				selected, err := app.HostCLI.ShowMessage(ctx, severity, args[0], options)
				if err != nil {
					return err
				}
				if selected != "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), selected)
				}
				return nil
			})
		},
	}
	message.Flags().StringVar(&severity, "severity", "info", "info|warning|error")
	message.Flags().StringSliceVar(&options, "options", nil, "choices offered with the message")

	window.AddCommand(message, &cobra.Command{
		Use:   "open <path>",
		Short: "Open a file in the host editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.HostCLI.OpenFile(ctx, args[0])
			})
		},
	}, &cobra.Command{
		Use:   "tabs",
		Short: "List visible editor tabs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				tabs, err := app.HostCLI.VisibleTabs(ctx)
				if err != nil {
					return err
				}
				for _, tab := range tabs {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), tab)
				}
				return nil
			})
		},
	})
	return window
}

func newDiffCmd(opts *rootOptions) *cobra.Command {
	diff := &cobra.Command{Use: "diff", Short: "Host diff view operations"}

	var contentFile string
	open := &cobra.Command{
		Use:   "open <path>",
		Short: "Open a diff view for path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(contentFile)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.HostCLI.OpenDiff(ctx, args[0], content)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "diff opened: %s path=%s\n", out.DiffID, out.Path)
				return nil
			})
		},
	}
	open.Flags().StringVar(&contentFile, "content-file", "", "initial document content (- for stdin)")

	var replaceFile string
	replace := &cobra.Command{
		Use:   "replace <diff-id>",
		Short: "Replace the document text of a diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(replaceFile)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.HostCLI.ReplaceDiffText(ctx, args[0], content)
			})
		},
	}
	replace.Flags().StringVar(&replaceFile, "content-file", "-", "replacement content (- for stdin)")

	diff.AddCommand(open, &cobra.Command{
		Use:   "text <diff-id>",
		Short: "Print the document text of a diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				text, err := app.HostCLI.DiffText(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}, replace, &cobra.Command{
		Use:   "close-all",
		Short: "Close every open diff view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.HostCLI.CloseAllDiffs(ctx)
			})
		},
	})
	return diff
}

func readContent(path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(raw), nil
	}
}

func newHeadsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heads",
		Short: "List session heads registered in this process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				for _, h := range app.HeadsCLI.List(ctx) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", h.ID, h.Label, h.StartedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newShutdownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask a detached host bridge to exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.HostCLI.Shutdown(ctx); err != nil {
					return err
				}
				if app.HostCLI.Mode() == string(domain.ModeEmbedded) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "embedded host: no paired bridge to stop")
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "shutdown acknowledged")
				return nil
			})
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var asPlugin bool
	var statusAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve this host's capabilities to a detached controller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if statusAddr != "" {
				cfg.StatusAddr = statusAddr
			}
			var logger hclog.Logger
			if asPlugin {
				logger = logging.NewPluginChild("hostbridge", cfg.LogLevel)
			} else {
				logger = logging.New("hostbridge", cfg.LogLevel, cmd.ErrOrStderr())
			}
			bridge, err := bootstrap.NewBridge(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if asPlugin {
				done := make(chan struct{})
				go func() {
					select {
					case <-ctx.Done():
					case <-bridge.Terminator.Done():
					}
					close(done)
				}()
				bridge.Server.ServePlugin(done)
				return nil
			}
			return serveNetwork(ctx, cfg, bridge, logger)
		},
	}
	cmd.Flags().BoolVar(&asPlugin, "plugin", false, "serve over the go-plugin handshake (set by a plugin-mode controller)")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "HTTP status listen address")
	return cmd
}

func serveNetwork(ctx context.Context, cfg config.Config, bridge *bootstrap.Bridge, logger hclog.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bridge.Server.Serve(gctx, lis, bridge.Terminator.Done())
	})
	if cfg.StatusAddr != "" {
		status := &http.Server{Addr: cfg.StatusAddr, Handler: bridge.Status, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("status server listening", "address", cfg.StatusAddr)
			if err := status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-bridge.Terminator.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return status.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch the host version and telemetry changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			// The TUI owns the terminal, so logs are discarded.
			app, err := bootstrap.New(cfg, logging.Discard())
			if err != nil {
				return err
			}
			defer app.Close()
			return monitor.Run(app.HostCLI)
		},
	}
}
