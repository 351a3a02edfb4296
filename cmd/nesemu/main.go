// Package main implements the nesemu NES emulator executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nesemu/internal/app"
	"nesemu/internal/logger"
	"nesemu/internal/version"
)

func main() {
	var (
		romFile      = flag.String("rom", "", "Path to NES ROM file")
		configFile   = flag.String("config", "", "Path to configuration file")
		nogui        = flag.Bool("nogui", false, "Run without a window (headless mode)")
		backend      = flag.String("backend", "", "Video backend: ebitengine, terminal or headless")
		audioDriver  = flag.String("audio", "", "Audio driver: auto, ebiten, oto or none")
		frames       = flag.Int("frames", 0, "Stop after this many frames (headless only)")
		record       = flag.String("wav", "", "Record audio to a WAV file")
		trace        = flag.String("trace", "", "Write a CPU instruction trace to a file")
		dumpDir      = flag.String("dump-frames", "", "Write frames as PNG files to a directory")
		dumpInterval = flag.Int("dump-interval", 60, "Frames between dumped frames")
		dumpMax      = flag.Int("dump-max", 0, "Maximum number of dumped frames (0 = unlimited)")
		stateGraph   = flag.String("state-graph", "", "Write a Graphviz graph of the machine state on exit")
		statsView    = flag.Bool("statsview", false, "Serve runtime statistics over HTTP")
		seed         = flag.Uint64("seed", 0, "Seed for randomized power-on state")
		randomize    = flag.Bool("randomize", false, "Randomize RAM and registers at power-on")
		logLevel     = flag.String("log-level", "", "Log level: DEBUG, INFO, WARN or ERROR")
		quiet        = flag.Bool("quiet", false, "Do not echo log entries to stderr")
		help         = flag.Bool("help", false, "Show help message")
		showVersion  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVersion {
		version.PrintBuildInfo(os.Stdout)
		os.Exit(0)
	}

	log.SetFlags(0)
	log.SetOutput(logger.StdWriter{Level: logger.Info})

	if *romFile == "" && flag.NArg() > 0 {
		*romFile = flag.Arg(0)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Printf("[MAIN] using default configuration: %v", err)
		config = app.NewConfig()
	}

	headless := *nogui || config.Video.Backend == "headless"
	if *backend != "" {
		config.Video.Backend = *backend
		headless = headless || *backend == "headless"
	}
	if *audioDriver != "" {
		config.Audio.Driver = *audioDriver
	}
	if *record != "" {
		config.Audio.Record = *record
	}
	if *trace != "" {
		config.Debug.TraceFile = *trace
	}
	if *statsView {
		config.Debug.StatsView = true
	}
	if *randomize {
		config.Emulation.Randomize = true
	}
	if *seed != 0 {
		config.Emulation.Seed = *seed
	}
	if *logLevel != "" {
		config.Debug.LogLevel = *logLevel
	}
	if *quiet {
		config.Debug.LogEcho = false
	}

	if headless && *romFile == "" {
		fmt.Fprintln(os.Stderr, "nesemu: a ROM file is required in headless mode")
		os.Exit(2)
	}

	application, err := app.NewApplicationWithConfig(config, headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nesemu: %v\n", err)
		os.Exit(1)
	}
	if err := run(application, *romFile, *frames, *dumpDir, *dumpInterval, *dumpMax, *stateGraph); err != nil {
		fmt.Fprintf(os.Stderr, "nesemu: %v\n", err)
		if cerr := application.Cleanup(); cerr != nil {
			fmt.Fprintf(os.Stderr, "nesemu: cleanup: %v\n", cerr)
		}
		os.Exit(1)
	}
	if err := application.Cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "nesemu: cleanup: %v\n", err)
		os.Exit(1)
	}
}

func run(application *app.Application, romFile string, frames int, dumpDir string, dumpInterval, dumpMax int, stateGraph string) error {
	if romFile != "" {
		if err := application.LoadROM(romFile); err != nil {
			return err
		}
	}
	if frames > 0 {
		if err := application.SetMaxFrames(frames); err != nil {
			return err
		}
	}
	if dumpDir != "" {
		if err := application.EnableFrameDump(dumpDir, dumpInterval, dumpMax); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.RunContext(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if stateGraph != "" {
		if err := application.WriteStateGraph(stateGraph); err != nil {
			return err
		}
	}

	fmt.Printf("Session statistics:\n")
	fmt.Printf("   Frames run:   %d\n", application.GetFrameCount())
	fmt.Printf("   Session time: %v\n", application.GetUptime())
	fmt.Printf("   Average FPS:  %.1f\n", application.GetFPS())
	return nil
}

func printUsage() {
	fmt.Println("nesemu - NES emulator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nesemu [options] [rom.nes]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Controls (defaults, see the configuration file):")
	fmt.Println("  Arrow keys   D-pad")
	fmt.Println("  X / Z        A / B")
	fmt.Println("  Enter        Start")
	fmt.Println("  Right Shift  Select")
	fmt.Println("  Tab          Fast-forward (hold)")
	fmt.Println("  P            Pause")
	fmt.Println("  F1 / F2      Reset / power cycle")
	fmt.Println("  F5 / F7      Save / load state")
	fmt.Println("  F6 / F8      Previous / next slot")
	fmt.Println("  F3           Toggle overlay")
	fmt.Println("  F12          Screenshot")
	fmt.Println("  Esc          Quit")
}
