package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"midibridge/bridge"
	"midibridge/config"
	"midibridge/midi"
	"midibridge/socket"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		list       = flag.Bool("l", false, "list available MIDI devices and exit")
		inputDev   = flag.Int("i", -1, "MIDI input device ID (-1 = first available)")
		outputDev  = flag.Int("o", -1, "MIDI output device ID (-1 = first available)")
		socketPath = flag.String("s", "", "unix socket path for bridge communication")
		verbose    = flag.Bool("v", false, "verbose output")
		configPath = flag.String("c", "", "config file path (default ~/.config/midibridge/config.json)")
	)
	flag.Parse()

	if *list {
		midi.ListPorts(os.Stdout)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load config: %v\n", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.InputDevice = *inputDev
		case "o":
			cfg.OutputDevice = *outputDev
		case "s":
			cfg.SocketPath = *socketPath
		case "v":
			cfg.Verbose = *verbose
		}
	})

	if cfg.SocketPath == "" {
		fmt.Fprintln(os.Stderr, "ERROR: socket path required (-s option)")
		flag.Usage()
		return 1
	}

	log := newLogger(cfg.Verbose)
	defer log.Sync()

	ports, err := midi.OpenPorts(cfg.InputDevice, cfg.OutputDevice, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	sock, err := socket.Dial(cfg.SocketPath, log)
	if err != nil {
		ports.Close()
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("midibridge running (Ctrl+C to stop)")
	if err := bridge.New(ports, sock, log).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

// newLogger builds a console logger on stderr. Verbose enables the per-event
// debug lines; otherwise only warnings and errors are shown.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
