package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/identicon/internal/app"
	"github.com/rook-computer/identicon/internal/buttons"
	"github.com/rook-computer/identicon/internal/config"
	"github.com/rook-computer/identicon/internal/display"
	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/state"
	"github.com/rook-computer/identicon/internal/web"
)

const envStdioLog = "IDENTICON_STDIO_LOG"

func main() {
	configPath := flag.String("config", os.Getenv("IDENTICON_CONFIG"), "TOML config file; also configurable via IDENTICON_CONFIG")
	listenAddr := flag.String("listen", "", "http listen address; overrides the config file and "+web.EnvListenAddr)
	devMode := flag.Bool("dev", false, "allow any CORS origin; overrides "+web.EnvDevMode)
	fbDevice := flag.String("fb", "", "framebuffer device for the local preview, e.g. "+display.DefaultDevice)
	debug := flag.Bool("debug", false, "enable debug logging to ./identicon-debug.log (or [log] file)")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+envStdioLog)
	keyboard := flag.Bool("keyboard", false, "read Up/Down/Right/F4 from evdev keyboards")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if err := file.ApplyEnv(); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if set["fb"] {
		file.Display.Device = *fbDevice
	}
	if set["keyboard"] {
		file.Display.Keyboard = *keyboard
	}
	if set["debug"] {
		file.Log.Debug = *debug
	}

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	logPath := file.Log.Stdio
	if env := os.Getenv(envStdioLog); env != "" {
		logPath = env
	}
	if set["stdio-log"] {
		logPath = *stdioLog
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	var logger app.Logger = app.NewConsoleLogger(os.Stderr)
	if file.Log.Debug {
		path := file.Log.File
		if path == "" {
			path = "./identicon-debug.log"
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.Tee{logger, app.NewFileLogger(f)}
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	initial, err := file.State()
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	serverConfig, err := file.ServerConfig()
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}
	if set["listen"] {
		serverConfig.ListenAddr = *listenAddr
	}
	if set["dev"] {
		serverConfig.DevMode = *devMode
	}

	renderer := render.NewRenderer()
	renderer.Logger = logger
	engine := pipeline.NewEngine(state.NewStore(initial), renderer)
	engine.Logger = logger

	server := web.NewHTTPServer(serverConfig, web.APIV1Deps{Engine: engine, Logger: logger})

	// Only assign interfaces when the subsystem is enabled; a typed nil would
	// look configured to the app.
	var disp display.Display
	if file.Display.Device != "" {
		fb := display.NewFBDisplay(file.Display.Device)
		fb.Logger = logger
		fb.Composer = display.NewComposer(logger)
		host, err := web.LocalIPv4()
		if err != nil && serverConfig.PublicURL == "" {
			logger.Errorf("main", "lan address: %v", err)
		}
		fb.Composer.QRPayload = serverConfig.BaseURL(host) + "/api/v1/image.png"
		disp = fb
	}
	var btns buttons.Buttons
	if file.Display.Keyboard {
		kb := buttons.NewKeyboardButtons()
		kb.Logger = logger
		btns = kb
	}

	a := app.New(engine, server, disp, btns)
	a.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("main", "app error: %v", err)
		os.Exit(1)
	}
}
