package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/state"
	"github.com/rook-computer/identicon/internal/web"
)

var ErrConfig = errors.New("config")

// Environment overrides for the identicon itself; the server reads its own
// IDENTICON_* variables in web.ServerConfig.WithEnv.
const (
	EnvSize       = "IDENTICON_SIZE"
	EnvGutter     = "IDENTICON_GUTTER"
	EnvFill       = "IDENTICON_FILL"
	EnvBackground = "IDENTICON_BACKGROUND"
	EnvInput      = "IDENTICON_INPUT"
	EnvRotate     = "IDENTICON_ROTATE"
	EnvDigest     = "IDENTICON_DIGEST"
)

type Canvas struct {
	Size   int `toml:"size"`
	Gutter int `toml:"gutter"`
}

type Colors struct {
	// Fill and Background accept palette names or #rgb/#rrggbb.
	Fill       string `toml:"fill"`
	Background string `toml:"background"`
}

type Input struct {
	String string `toml:"string"`
	Rotate int    `toml:"rotate"`
	Digest string `toml:"digest"`
	Mode   string `toml:"mode"`
	// Grid is the manual matrix, e.g. "11001/01110/10101".
	Grid string `toml:"grid"`
}

type Server struct {
	Listen    string   `toml:"listen"`
	Dev       bool     `toml:"dev"`
	Origins   []string `toml:"origins"`
	PublicURL string   `toml:"public_url"`
}

type Log struct {
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
	Stdio string `toml:"stdio"`
}

type Display struct {
	Device   string `toml:"device"`
	Keyboard bool   `toml:"keyboard"`
}

type File struct {
	Canvas  Canvas  `toml:"canvas"`
	Colors  Colors  `toml:"colors"`
	Input   Input   `toml:"input"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
	Display Display `toml:"display"`
}

func Default() File {
	d := state.Defaults()
	return File{
		Canvas: Canvas{Size: d.CanvasSize, Gutter: d.CanvasGutters},
		Colors: Colors{Fill: "Sky-2", Background: "white"},
		Input: Input{
			String: d.InputString,
			Rotate: d.RotateHash,
			Digest: d.Digest.String(),
			Mode:   d.InputMode.String(),
			Grid:   d.MatrixInput.Grid().String(),
		},
		Server: Server{Listen: ":80"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := f.decode(string(data)); err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	return f, nil
}

// Parse is Load for an in-memory document.
func Parse(doc string) (File, error) {
	f := Default()
	if err := f.decode(doc); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return f, nil
}

func (f *File) decode(doc string) error {
	md, err := toml.Decode(doc, f)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides f with the IDENTICON_* variables that are set.
func (f *File) ApplyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvSize, &f.Canvas.Size},
		{EnvGutter, &f.Canvas.Gutter},
		{EnvRotate, &f.Input.Rotate},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer (got %q)", ErrConfig, v.name, raw)
		}
		*v.dst = n
	}
	strs := []struct {
		name string
		dst  *string
	}{
		{EnvFill, &f.Colors.Fill},
		{EnvBackground, &f.Colors.Background},
		{EnvInput, &f.Input.String},
		{EnvDigest, &f.Input.Digest},
	}
	for _, v := range strs {
		if raw, ok := os.LookupEnv(v.name); ok {
			*v.dst = raw
		}
	}
	return nil
}

// State converts f into the store's initial configuration.
func (f File) State() (state.Config, error) {
	cfg := state.Defaults()
	cfg.CanvasSize = f.Canvas.Size
	cfg.CanvasGutters = f.Canvas.Gutter
	cfg.InputString = f.Input.String
	cfg.RotateHash = f.Input.Rotate

	var err error
	if cfg.FillColor, err = render.FillPalette.Resolve(f.Colors.Fill); err != nil {
		return state.Config{}, fmt.Errorf("%w: colors.fill: %v", ErrConfig, err)
	}
	if cfg.BackgroundColor, err = render.BackgroundPalette.Resolve(f.Colors.Background); err != nil {
		return state.Config{}, fmt.Errorf("%w: colors.background: %v", ErrConfig, err)
	}
	if cfg.Digest, err = identicon.ParseDigest(f.Input.Digest); err != nil {
		return state.Config{}, fmt.Errorf("%w: input.digest: %v", ErrConfig, err)
	}
	mode, ok := state.ParseMode(f.Input.Mode)
	if !ok {
		return state.Config{}, fmt.Errorf("%w: input.mode: %q is neither string nor matrix", ErrConfig, f.Input.Mode)
	}
	cfg.InputMode = mode
	if f.Input.Grid != "" {
		g, err := identicon.ParseGrid(f.Input.Grid)
		if err != nil {
			return state.Config{}, fmt.Errorf("%w: input.grid: %v", ErrConfig, err)
		}
		cfg.MatrixInput = g.Transpose()
	}
	return cfg, nil
}

// ServerConfig converts the [server] table, then applies the server's own
// environment overrides.
func (f File) ServerConfig() (web.ServerConfig, error) {
	cfg, err := web.ServerConfig{
		ListenAddr:     f.Server.Listen,
		DevMode:        f.Server.Dev,
		AllowedOrigins: f.Server.Origins,
		PublicURL:      f.Server.PublicURL,
	}.WithEnv()
	if err != nil {
		return web.ServerConfig{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg, nil
}
