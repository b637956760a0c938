package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"wheelcontrol/internal/logging"
	"wheelcontrol/internal/protocol"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("wheeld v%s\n", version)
	fmt.Println("Rotating icon wheel controller daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  wheeld [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns a wheel of icon slots and turns drag, rotary and key input")
	fmt.Println("  (Linux input devices or IPC) into snapped selections. Renderers")
	fmt.Println("  follow the wheel over a WebSocket.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with a config file")
	fmt.Println("  wheeld -config ~/.config/wheelcontrol/config.yaml")
	fmt.Println()
	fmt.Println("  # Read a rotary encoder and run a hook on every selection")
	fmt.Println("  wheeld -input-device /dev/input/event3 -on-select 'notify-send \"$WHEEL_ICON\"'")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to input devices (run as root or add user to 'input' group)")
	fmt.Println("  - Command line flags override values from the config file")
	fmt.Println()
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		inputDevice = flag.String("input-device", "", "Linux input event device (replaces input.devices)")
		panDistance = flag.Float64("pan-distance", defaultPanDistance, "Drag distance in px per slot")
		cycling     = flag.Bool("cycling", true, "Wrap around past the last slot")
		stepByStep  = flag.Bool("step-by-step", true, "Move at most one slot per drag")
		animationMS = flag.Int("animation-ms", defaultAnimationMS, "Snap animation duration per slot in ms")
		tickHz      = flag.Int("tick-hz", defaultTickHz, "Animation tick rate in Hz")
		ipcSocket   = flag.String("ipc-socket", protocol.DefaultSocketPath, "Unix domain socket path for IPC")
		httpPort    = flag.Int("http-port", defaultHTTPPort, "HTTP port for the state WebSocket (0 disables)")
		onSelect    = flag.String("on-select", "", "Shell command run when the selection changes")
		logLevel    = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print this help message")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Only flags the user actually set override the config file.
	var ov FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input-device":
			ov.InputDevice = inputDevice
		case "pan-distance":
			ov.PanDistance = panDistance
		case "cycling":
			ov.Cycling = cycling
		case "step-by-step":
			ov.StepByStep = stepByStep
		case "animation-ms":
			ov.AnimationMS = animationMS
		case "tick-hz":
			ov.TickHz = tickHz
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocket
		case "http-port":
			ov.HTTPPort = httpPort
		case "on-select":
			ov.OnSelectHook = onSelect
		case "log-level":
			ov.LogLevel = logLevel
		}
	})

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	ov.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid config: %v\n", err)
		os.Exit(1)
	}

	level, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("wheeld exiting", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// run wires the daemon goroutines together and blocks until ctx is canceled
// or one of them fails.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	logger.Info("wheeld starting",
		"version", version,
		"icons", len(cfg.Wheel.Icons),
		"cycling", cfg.Wheel.Cycling,
		"step_by_step", cfg.Wheel.StepByStep,
		"ipc_socket", cfg.IPC.SocketPath,
		"http_port", cfg.HTTP.Port,
		"devices", cfg.Input.Devices)

	events := make(chan Event, defaultEventQueueDepth)
	broadcasts := make(chan StateBroadcast, 256)

	state := NewDaemonState(DaemonStateConfig{
		Wheel:        cfg.ToWheelConfig(),
		Icons:        cfg.Wheel.Icons,
		InitialIndex: cfg.Wheel.InitialIndex,
		IconStates:   cfg.IconStateTable(),
		Appearance:   cfg.Appearance,
		Logger:       logging.For(logger, "wheel"),
	})
	rcfg := ReducerConfig{
		Rotary:     cfg.ToRotaryConfig(),
		Hold:       cfg.ToHoldConfig(),
		SelectHook: cfg.Hooks.OnSelect != "",
	}
	fx := NewEffects(logging.For(logger, "effects"), cfg.Hooks, events)
	defer fx.Wait()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runDaemon(ctx, events, state, rcfg, cfg.Wheel.TickHz, fx, broadcasts, logging.For(logger, "daemon"))
	})
	g.Go(func() error {
		return runIPCServer(ctx, cfg.IPC.SocketPath, events, logger)
	})

	if cfg.HTTP.Port > 0 {
		wsLogger := logging.For(logger, "ws")
		ws := NewStateServer(wsLogger, events, HubConfig{})
		g.Go(func() error {
			ws.Hub().Run(ctx)
			return nil
		})
		g.Go(func() error {
			RunBroadcaster(ctx, ws.Hub(), broadcasts, wsLogger)
			return nil
		})
		g.Go(func() error {
			return runHTTPServer(ctx, cfg.HTTP.Port, newHTTPMux(ws), logging.For(logger, "http"))
		})
	} else {
		// Nobody listens; keep the daemon's non-blocking publishes quiet.
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-broadcasts:
				}
			}
		})
	}

	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			return runInput(ctx, cfg.Input.Devices, cfg.Input.DragPixelsPerCount, events, logger)
		})
	} else {
		logger.Info("no input devices configured, accepting IPC events only")
	}

	return g.Wait()
}
