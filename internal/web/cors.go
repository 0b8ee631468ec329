package web

import (
	"fmt"
	"net/http"

	"github.com/gobwas/glob"
)

// WithDevCORS enables permissive CORS behavior for local development.
//
// It is intended to be used only when ServerConfig.DevMode is enabled.
func WithDevCORS(next http.Handler) http.Handler {
	return withCORS(next, func(string) bool { return true })
}

// WithCORS allows origins matching any of the glob patterns. An empty list
// leaves next untouched.
func WithCORS(next http.Handler, patterns []string) (http.Handler, error) {
	if len(patterns) == 0 {
		return next, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.', ':', '/')
		if err != nil {
			return nil, fmt.Errorf("origin pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return withCORS(next, func(origin string) bool {
		for _, g := range globs {
			if g.Match(origin) {
				return true
			}
		}
		return false
	}), nil
}

func withCORS(next http.Handler, allowed func(origin string) bool) http.Handler {
	if next == nil {
		next = http.DefaultServeMux
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")
		if origin != "" && allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition,Content-Length,ETag")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
