// Package rentall provides the HTTP API server for a peer-to-peer rental
// marketplace with listing management, flexible pricing, bookings, reviews,
// messaging and sandboxed checkout. It is designed to be decoupled from any
// frontend and provides options to wire storage, auth and payments for
// building marketplace applications.
//
// The core functionality includes:
//   - JWT-backed registration, login and profile management
//   - Listing catalog with category, text and radius search
//   - Hourly, daily and weekly pricing with surge days and long-term discounts
//   - Booking lifecycle with date-conflict detection and owner approval
//   - Reviews gated on completed rentals with listing rating aggregates
//   - Direct messaging between renters and owners
//   - Checkout sessions and signed payment webhooks
//   - SQLite database storage for all marketplace records
package rentall

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/oamouyal-jpg/rentall/auth"
	"github.com/oamouyal-jpg/rentall/domain"
	"github.com/oamouyal-jpg/rentall/media"
	"github.com/oamouyal-jpg/rentall/payments"
)

// Repository defines the methods consumed by the server to interact with the
// SQLite backend. It composes the per-entity repositories from the domain
// package so handlers depend on one seam that a single *db.Repository
// satisfies.
type Repository interface {
	domain.UserRepository
	domain.ListingRepository
	domain.BookingRepository
	domain.ReviewRepository
	domain.MessageRepository
	domain.PaymentRepository
	Close() error
}

// visitor tracks the rate limiter state for one client IP.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Server is the main struct that orchestrates the marketplace API. It owns
// the router, configuration, storage, token issuer, payment provider and
// media store, and serves as the central coordinator for all handlers.
type Server struct {
	Router     *gin.Engine       // Configured gin engine with all routes registered
	ConfigDir  string            // The configuration directory
	Config     *Config           // The server configuration
	Repo       Repository        // DB Repository Interface
	Tokens     *auth.Tokens      // Issues and verifies bearer tokens
	Payments   payments.Provider // Checkout session provider
	Media      *media.Store      // Stores uploaded listing images
	Logger     *zap.Logger       // Structured logger for request and error logs
	Addr       string            // IP Address of the server
	Port       string            // Port of the server
	httpServer *http.Server
	visitors   map[string]*visitor
	visitorsMu sync.Mutex
}

// New creates a new Server instance with default configuration and applies
// any provided options. After the options run it fills in whatever is still
// missing from the configuration: token issuer, payment provider, media store
// and the router itself.
//
// Parameters:
//   - options: Variadic list of option functions to configure the server
//
// Returns:
//   - *Server: Configured server instance
//   - error: Configuration error if any option fails
func New(options ...func(*Server) error) (*Server, error) {
	server := &Server{
		Config:   DefaultConfig(),
		Logger:   zap.NewNop(),
		visitors: make(map[string]*visitor),
	}
	err := server.WithOptions(options...)
	if err != nil {
		return nil, err
	}
	if server.Tokens == nil {
		ttl := time.Duration(server.Config.TokenTTLHours) * time.Hour
		server.Tokens = auth.NewTokens(server.Config.TokenSecret, ttl)
	}
	if server.Payments == nil {
		server.Payments = payments.NewSandbox(server.Config.PaymentHost, server.Config.WebhookSecret)
	}
	if server.Media == nil && server.ConfigDir != "" {
		mediaDir := server.Config.MediaDir
		if !filepath.IsAbs(mediaDir) {
			mediaDir = filepath.Join(server.ConfigDir, mediaDir)
		}
		store, err := media.NewStore(mediaDir)
		if err != nil {
			return nil, fmt.Errorf("setting up media store : %w", err)
		}
		server.Media = store
	}
	if !server.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	server.Router = server.routes()
	return server, nil
}

// GetListener opens the TCP listener the server will accept connections on
// and records the bound address.
func (server *Server) GetListener(address string, port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(address, port))
	if err != nil {
		return nil, fmt.Errorf("setting up listener on %s:%s : %w", address, port, err)
	}
	server.Addr = address
	server.Port = port
	server.Logger.Info("rentall service started",
		zap.String("address", address),
		zap.String("port", port),
	)
	return listener, nil
}

// Serve accepts connections on the listener until the listener fails or the
// server is closed.
func (server *Server) Serve(listener net.Listener) error {
	server.httpServer = &http.Server{
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := server.httpServer.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving api : %w", err)
	}
	return nil
}

// Close shuts the HTTP server down gracefully, waiting up to five seconds
// for in-flight requests. The repository is left open, callers that own it
// close it themselves.
func (server *Server) Close() error {
	if server.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server : %w", err)
	}
	return nil
}
