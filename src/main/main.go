package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"click-overlay/src/config"
	"click-overlay/src/control"
	"click-overlay/src/engine"
	"click-overlay/src/eventloop"
	"click-overlay/src/hotkey"
	"click-overlay/src/logutil"
	"click-overlay/src/notification"
	"click-overlay/src/tray"
	"click-overlay/src/winctl"
)

var errAlreadyRunning = errors.New("overlay already running")

type mainOptions struct {
	hotkey   string
	window   string
	backend  string
	logLevel string
	envFile  string
	noTray   bool
}

// longFlags are accepted with a single dash for compatibility with older
// launch scripts.
var longFlags = []string{"hotkey", "window", "backend", "log-level", "env-file", "no-tray"}

// normalizeLegacyArgs rewrites -name[=v] to --name[=v] for known long flags.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		for _, f := range longFlags {
			if name == f {
				out[i] = "-" + arg
				break
			}
		}
	}
	return out
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "click-overlay",
		Short:         "Keeps an overlay window click-through except where it is visibly opaque",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.hotkey, "hotkey", "", "mode toggle hotkey (overrides OVERLAY_HOTKEY)")
	f.StringVar(&opts.window, "window", "", "overlay window title or id (overrides OVERLAY_WINDOW)")
	f.StringVar(&opts.backend, "backend", "", "window backend: auto, win32, x11 or headless")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&opts.envFile, "env-file", "", "explicit .env file")
	f.BoolVar(&opts.noTray, "no-tray", false, "run without the tray icon")
	return cmd
}

func main() {
	enableDPIAwareness()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		notification.ShowBlockingError("Click Overlay", err.Error())
		logutil.Sync()
		os.Exit(1)
	}
	logutil.Sync()
}

// residentDetector reports a running daemon on the control ports.
type residentDetector func(ctx context.Context, ports control.PortRange) (int, bool)

// checkSingleInstance fails when another daemon already answers PING.
func checkSingleInstance(ctx context.Context, ports control.PortRange, detect residentDetector) error {
	if port, ok := detect(ctx, ports); ok {
		return fmt.Errorf("%w on port %d", errAlreadyRunning, port)
	}
	return nil
}

func run(ctx context.Context, opts *mainOptions) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		HotkeyOverride:  opts.hotkey,
		WindowOverride:  opts.window,
		BackendOverride: opts.backend,
		LogLevel:        opts.logLevel,
		EnvFile:         opts.envFile,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, err := logutil.Setup(logutil.Options{
		Level:       cfg.LogLevel,
		FileLogging: cfg.EnableFileLogging,
		File:        cfg.LogFile,
		Console:     true,
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := checkSingleInstance(ctx, cfg.Ports, control.DetectResident); err != nil {
		return err
	}

	for _, d := range winctl.Displays() {
		log.Debug("display", zap.Int("index", d.Index), zap.Any("bounds", d.Bounds), zap.Bool("primary", d.Primary))
	}

	ctrl, err := winctl.Open(cfg.Backend, cfg.Window, log.Named("winctl"))
	if err != nil {
		return fmt.Errorf("attach overlay window: %w", err)
	}
	defer ctrl.Close()

	srv := control.NewServer(cfg.Ports, log.Named("control"))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("control channel: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var icon *tray.Tray
	loop := eventloop.New(eventloop.Options{
		Controller:   ctrl,
		Server:       srv,
		HideDelay:    cfg.HideDelay,
		PollInterval: cfg.PollInterval,
		PollBackoff:  cfg.PollBackoff,
		BarID:        cfg.BarID,
		HandleID:     cfg.HandleID,
		OnEvent: func(ev engine.Event) {
			if icon != nil {
				icon.Observe(ev)
			}
		},
		Logger: log.Named("loop"),
	})
	if cfg.Tray && !opts.noTray {
		icon = tray.New(tray.Config{
			Title:  "Click Overlay",
			Hotkey: cfg.Hotkey,
			OnExit: cancel,
			Logger: log.Named("tray"),
		}, loop)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	g.Go(func() error { return loop.Run(gctx) })
	if err := hotkey.Listen(gctx, cfg.Hotkey, loop.Hotkey, log.Named("hotkey")); err != nil {
		log.Warn("hotkey disabled", zap.Error(err))
	}

	log.Info("overlay daemon started",
		zap.Int("port", srv.Port()),
		zap.String("backend", string(cfg.Backend)),
		zap.String("hotkey", cfg.Hotkey),
		zap.String("env", cfg.EnvPath))

	if icon != nil {
		go func() {
			<-gctx.Done()
			icon.Stop()
		}()
		icon.Run()
		cancel()
	}

	err = g.Wait()
	log.Info("overlay daemon stopped")
	return err
}
