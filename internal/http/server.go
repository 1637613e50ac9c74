// Package http serves the MCP tool set over streamable HTTP.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	applog "expensetracker/internal/log"
)

// Options configures NewServer.
type Options struct {
	Addr     string
	Endpoint string
	// RateLimit is the number of MCP requests allowed per client per
	// minute. Zero disables limiting.
	RateLimit int
	// Ready backs /readyz. Nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer mounts mcp at opts.Endpoint next to the health probes and wraps
// everything in the request logging middleware.
func NewServer(opts Options, mcp *mcpserver.MCPServer, logger *applog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
	}

	var endpoint http.Handler = mcpserver.NewStreamableHTTPServer(mcp,
		mcpserver.WithEndpointPath(opts.Endpoint),
	)
	if opts.RateLimit > 0 {
		s.rateLimiter = newRateLimiter(opts.RateLimit)
		endpoint = s.rateLimiter.middleware(endpoint)
	}

	mux.Handle(opts.Endpoint, endpoint)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady(opts.Ready))

	return s
}

// Shutdown stops the rate limiter cleanup and gracefully shuts the server
// down. Only the first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				applog.FromContext(r.Context()).Warn("Readiness check failed", applog.FieldError, err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
