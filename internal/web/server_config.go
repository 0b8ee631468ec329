package web

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvListenAddr = "IDENTICON_LISTEN"
	EnvDevMode    = "IDENTICON_DEV"
	EnvOrigins    = "IDENTICON_ORIGINS"
	EnvPublicURL  = "IDENTICON_PUBLIC_URL"
)

// ServerConfig contains settings for running the HTTP server.
//
// The intended defaults differ per binary:
// - device: :80
// - generate -serve: :8080
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
	// AllowedOrigins are glob patterns such as "http://*.local:*".
	AllowedOrigins []string
	PublicURL      string
}

func DefaultServerConfigFromEnv(defaultListenAddr string) (ServerConfig, error) {
	return ServerConfig{ListenAddr: defaultListenAddr}.WithEnv()
}

// WithEnv overrides c with whatever IDENTICON_* variables are set.
func (c ServerConfig) WithEnv() (ServerConfig, error) {
	if listenAddr := os.Getenv(EnvListenAddr); listenAddr != "" {
		c.ListenAddr = listenAddr
	}

	if raw := os.Getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		c.DevMode = parsed
	}

	if raw := os.Getenv(EnvOrigins); raw != "" {
		c.AllowedOrigins = SplitOrigins(raw)
	}
	if raw := os.Getenv(EnvPublicURL); raw != "" {
		c.PublicURL = raw
	}
	return c, nil
}

// SplitOrigins splits a comma separated origin list, dropping blanks.
func SplitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
