// Package httpserver exposes the Sensor/Settings/Observer HTTP surface
// and the WebSocket broadcast upgrade, directly modeled on the teacher's
// internal/ws.Server (ServeMux routing, origin/auth-token checks,
// SetupRoutes) with the routes swapped for this runtime's own contract.
package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assistantd/assistantd/internal/broadcast"
	"github.com/assistantd/assistantd/internal/contextmanager"
	"github.com/assistantd/assistantd/internal/profile"
	"github.com/assistantd/assistantd/internal/screenlog"
)

// Server owns the HTTP routes and the collaborators they delegate to.
// Like the teacher's Server, it holds its collaborators concretely rather
// than behind interfaces: every collaborator here is this runtime's own
// concrete type, and the WebSocket upgrade needs the broadcaster's actual
// (unexported) client handle, so there is no seam worth narrowing.
type Server struct {
	ctx     *contextmanager.Manager
	bcast   *broadcast.Broadcaster
	screen  *screenlog.Log
	profile *profile.Store
	logger  *slog.Logger

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string

	registry *prometheus.Registry
}

// New constructs a Server. allowedOrigins may be empty, in which case
// checkOrigin falls back to same-host/localhost checks.
func New(ctx *contextmanager.Manager, bcast *broadcast.Broadcaster, screen *screenlog.Log, prof *profile.Store, allowedOrigins []string, authToken string, logger *slog.Logger) *Server {
	s := &Server{
		ctx:            ctx,
		bcast:          bcast,
		screen:         screen,
		profile:        prof,
		logger:         logger,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      authToken,
		registry:       prometheus.NewRegistry(),
	}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}
	return s
}

// RegisterMetrics adds collectors (e.g. delivery.Metrics()) to the
// registry served at /metrics. Must be called before SetupRoutes.
func (s *Server) RegisterMetrics(collectors ...prometheus.Collector) {
	s.registry.MustRegister(collectors...)
}

// SetupRoutes wires every handler onto mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sensor", s.handleSensor)
	mux.HandleFunc("/settings/interruption-mode", s.handleInterruptionMode)
	mux.HandleFunc("/settings/capture-mode", s.handleCaptureMode)
	mux.HandleFunc("/observer/state", s.handleObserverState)
	mux.HandleFunc("/observer/refresh", s.handleObserverRefresh)
	mux.HandleFunc("/observer/daemon-status", s.handleDaemonStatus)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	if r.URL.Query().Get("token") == s.authToken {
		return true
	}
	if r.Header.Get("X-Assistantd-Token") == s.authToken {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe starts the HTTP server at host:port.
func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	return http.ListenAndServe(addr, mux)
}
