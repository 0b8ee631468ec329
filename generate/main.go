// Command generate renders one identicon to a file, or serves the HTTP API
// without any device hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rook-computer/identicon/internal/app"
	"github.com/rook-computer/identicon/internal/config"
	"github.com/rook-computer/identicon/internal/export"
	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/state"
	"github.com/rook-computer/identicon/internal/web"
)

const digestNames = "sha256 | blake2b | blake3"

type options struct {
	configPath string
	format     string
	out        string
	thumb      int
	print      bool
	serve      string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "TOML config file applied before the flags below")
	input := flag.String("input", "", "input string to hash")
	rotate := flag.Int("rotate", 0, "rotation offset applied to the hashed bits")
	size := flag.Int("size", 0, "canvas size in pixels")
	gutter := flag.Int("gutter", 0, "gutter in pixels, clamped to size/4")
	fill := flag.String("fill", "", "fill color: palette name or #rrggbb")
	background := flag.String("background", "", "background color: palette name or #rrggbb")
	digest := flag.String("digest", "", "digest: "+digestNames)
	grid := flag.String("grid", "", "manual 3x5 grid, e.g. 11001/01110/10101; switches to matrix mode")
	flag.StringVar(&opts.format, "format", "png", "output format: png | jpeg | gif | bmp | tiff | svg")
	flag.StringVar(&opts.out, "out", "", "output file or existing directory; default is the conventional name in the current directory")
	flag.IntVar(&opts.thumb, "thumb", 0, "downscale the raster output to this many pixels")
	flag.BoolVar(&opts.print, "print", false, "print the pattern to stdout")
	flag.StringVar(&opts.serve, "serve", "", "instead of writing a file, serve the API on this address, e.g. :8080")
	flag.BoolVar(&opts.verbose, "v", false, "log pipeline activity to stderr")
	flag.Parse()

	file, err := config.Load(opts.configPath)
	if err == nil {
		err = file.ApplyEnv()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			file.Input.String = *input
		case "rotate":
			file.Input.Rotate = *rotate
		case "size":
			file.Canvas.Size = *size
		case "gutter":
			file.Canvas.Gutter = *gutter
		case "fill":
			file.Colors.Fill = *fill
		case "background":
			file.Colors.Background = *background
		case "digest":
			file.Input.Digest = *digest
		case "grid":
			file.Input.Grid = *grid
			file.Input.Mode = state.ModeMatrix.String()
		}
	})

	var logger app.Logger = app.NoopLogger{}
	if opts.verbose {
		logger = app.NewConsoleLogger(os.Stderr)
	}

	if err := run(file, opts, logger); err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}
}

func run(file config.File, opts options, logger app.Logger) error {
	initial, err := file.State()
	if err != nil {
		return err
	}
	engine := pipeline.NewEngine(state.NewStore(initial), nil)
	engine.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.serve != "" {
		return serve(ctx, engine, file, opts.serve, logger)
	}

	if err := engine.Refresh(ctx); err != nil {
		return err
	}
	f, ok := engine.Current()
	if !ok {
		return errors.New("nothing rendered")
	}
	if opts.print {
		fmt.Println(f.Pattern)
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	path, err := outputPath(opts.out, f.Name, format)
	if err != nil {
		return err
	}
	exportOpts := export.DefaultOptions
	exportOpts.ThumbnailSizePx = opts.thumb
	if err := export.Save(path, f.Surface, format, exportOpts); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// outputPath resolves -out: empty means the conventional name in the
// current directory, an existing directory gets the conventional name inside.
func outputPath(out, name string, format export.Format) (string, error) {
	base := name + "." + format.Ext()
	if out == "" {
		return base, nil
	}
	st, err := os.Stat(out)
	switch {
	case err == nil && st.IsDir():
		return filepath.Join(out, base), nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		return out, nil
	default:
		return "", err
	}
}

func serve(ctx context.Context, engine *pipeline.Engine, file config.File, addr string, logger app.Logger) error {
	serverConfig, err := file.ServerConfig()
	if err != nil {
		return err
	}
	serverConfig.ListenAddr = addr

	server := web.NewHTTPServer(serverConfig, web.APIV1Deps{Engine: engine, Logger: logger})
	a := app.New(engine, server, nil, nil)
	a.Logger = logger

	fmt.Println("API: " + serverConfig.BaseURL("") + "/api/v1/")
	if err := a.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
