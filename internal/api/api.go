// Package api provides the HTTP surface and the main server logic for EstatePipe.
//
// It wires the store, the GenAI extractor, the session manager, the flow
// engine, and a messaging backend together, and exposes a small set of
// operational endpoints alongside the Twilio inbound webhook.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/flow"
	"github.com/BTreeMap/EstatePipe/internal/genai"
	"github.com/BTreeMap/EstatePipe/internal/messaging"
	"github.com/BTreeMap/EstatePipe/internal/scheduler"
	"github.com/BTreeMap/EstatePipe/internal/session"
	"github.com/BTreeMap/EstatePipe/internal/store"
	"github.com/BTreeMap/EstatePipe/internal/twiliowhatsapp"
	"github.com/BTreeMap/EstatePipe/internal/util"
	"github.com/BTreeMap/EstatePipe/internal/whatsapp"
)

// Constants for API server configuration
const (
	// DefaultAPIAddr is the default listen address for the API server
	DefaultAPIAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultSessionMaxIdle is how long a conversation session may sit
	// untouched before the hourly sweep drops it
	DefaultSessionMaxIdle = 24 * time.Hour
	// sessionPruneSchedule runs the idle session sweep at the top of every hour
	sessionPruneSchedule = "0 * * * *"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server exposes the HTTP endpoints over the assembled components.
type Server struct {
	addr     string
	st       store.ListingStore
	sessions *session.Manager
	twilio   *messaging.TwilioService // nil when the WhatsApp backend is active
}

// NewServer creates a new API server over the given store and session
// manager. twilioService may be nil; the inbound webhook is only mounted
// when the Twilio backend is in use.
func NewServer(st store.ListingStore, sessions *session.Manager, twilioService *messaging.TwilioService, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAPIAddr
	}

	return &Server{
		addr:     cfg.Addr,
		st:       st,
		sessions: sessions,
		twilio:   twilioService,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.HandleFunc("/listings", s.listingsHandler)
	if s.twilio != nil {
		mux.HandleFunc("/twilio/webhook", s.twilio.WebhookHandler)
		slog.Debug("Server mounted Twilio webhook endpoint")
	}
	return mux
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("EstatePipe API server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}

// Run assembles all EstatePipe components from the given options and runs
// the service until interrupted. The messaging backend is selected by the
// TWILIO_ENABLED environment variable: Twilio when true, Whatsmeow
// otherwise.
func Run(waOpts []whatsapp.Option, storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewStore(storeOpts...)
	if err != nil {
		slog.Error("Failed to initialize listing store", "error", err)
		return fmt.Errorf("failed to initialize listing store: %w", err)
	}
	defer st.Close()

	gaClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Error("Failed to initialize GenAI client", "error", err)
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	sessions := session.NewManager()
	engine := flow.NewEngine(sessions, st, gaClient)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(sessionPruneSchedule, func() {
		sessions.PruneIdle(DefaultSessionMaxIdle)
	}); err != nil {
		slog.Error("Failed to schedule session maintenance", "error", err)
		return fmt.Errorf("failed to schedule session maintenance: %w", err)
	}

	var msgService messaging.Service
	var twilioService *messaging.TwilioService
	if util.ParseBoolEnv("TWILIO_ENABLED", false) {
		slog.Info("Using Twilio messaging backend")
		twClient, err := twiliowhatsapp.NewClient()
		if err != nil {
			slog.Error("Failed to initialize Twilio client", "error", err)
			return fmt.Errorf("failed to initialize Twilio client: %w", err)
		}
		twilioService = messaging.NewTwilioService(twClient)
		msgService = twilioService
	} else {
		slog.Info("Using WhatsApp messaging backend")
		waClient, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			slog.Error("Failed to initialize WhatsApp client", "error", err)
			return fmt.Errorf("failed to initialize WhatsApp client: %w", err)
		}
		msgService = messaging.NewWhatsAppService(waClient, gaClient)
	}

	if err := msgService.Start(ctx); err != nil {
		slog.Error("Failed to start messaging service", "error", err)
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	dispatcher := messaging.NewDispatcher(msgService, engine)
	dispatcher.Start(ctx)

	server := NewServer(st, sessions, twilioService, apiOpts...)
	return server.Serve(ctx)
}
