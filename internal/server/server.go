// Package server provides the HTTP control API, live preview stream and
// label event feed for signvoice.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/display"
	"github.com/ayusman/signvoice/internal/server/api"
)

//go:embed static
var staticFiles embed.FS

// Config holds the server configuration. Every collaborator is optional;
// routes whose collaborator is missing are not registered.
type Config struct {
	// StaticDir overrides the built-in preview page.
	StaticDir    string
	Session      api.SessionControl
	Mode         api.ModeControl
	OnModeChange func(announce.Mode)
	Frames       *display.FrameBuffer
	Events       *Hub
	History      api.History
}

// Server represents the HTTP server for the signvoice application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		h := api.NewSessionHandler(s.config.Session)
		s.mux.Handle("/api/session", h)
		s.mux.Handle("/api/session/", h)
	}

	if s.config.Mode != nil {
		s.mux.Handle("/api/mode", api.NewModeHandler(s.config.Mode, s.config.OnModeChange))
	}

	if s.config.History != nil {
		s.mux.Handle("/api/announcements", api.NewAnnouncementsHandler(s.config.History))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	} else {
		sub, _ := fs.Sub(staticFiles, "static")
		s.mux.Handle("/", http.FileServer(http.FS(sub)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Session != nil {
		response["session"] = s.config.Session.State()
	}
	if s.config.Mode != nil {
		response["mode"] = s.config.Mode.Mode()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.With("addr", addr).Info("HTTP server listening.")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if s.config.Events != nil {
		s.config.Events.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
