package router

import (
	"net/http"
	"net/url"

	"loyaltytree/config"

	"github.com/rs/cors"
)

// isLocalOrigin accepts http(s)://localhost and 127.0.0.1 on any port.
func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// WithCORS wraps h so browser clients can call the API with credentials. An empty
// AllowedOrigins list admits local development origins only.
func WithCORS(h http.Handler, cfg config.CORSConfig) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if len(cfg.AllowedOrigins) > 0 {
		opts.AllowedOrigins = cfg.AllowedOrigins
	} else {
		opts.AllowOriginFunc = isLocalOrigin
	}
	return cors.New(opts).Handler(h)
}
