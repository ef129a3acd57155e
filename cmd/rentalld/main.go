// Command rentalld runs the RentAll peer-to-peer rental marketplace API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/oamouyal-jpg/rentall"
	"github.com/oamouyal-jpg/rentall/db"
)

var (
	// Global flags
	verbose   bool
	configDir string

	// Serve flags
	serveAddr string
	servePort string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rentalld",
	Short: "RentAll - peer-to-peer rental marketplace server",
	Long: `rentalld serves the RentAll marketplace API: a listing catalog with
hourly, daily and weekly pricing, bookings with surge days and long-term
discounts, reviews, direct messaging and sandboxed checkout.

All state lives in a single SQLite database under the config directory, so
the same binary runs on a laptop and a small VPS.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd starts the API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketplace API server",
	Long: `Starts the HTTP API on the address and port from the config file,
or on --addr/--port when given. The config directory is created on first
run with a default config.yaml, the SQLite database and the media
directory alongside it.`,
	RunE: runServe,
}

// categoriesCmd prints the listing category catalog
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the listing category catalog",
	Run: func(cmd *cobra.Command, args []string) {
		for _, category := range rentall.Categories {
			fmt.Printf("%-16s %s  %s\n", category.ID, category.Icon, category.Name)
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: <user config dir>/rentall)")

	// Serve flags
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Bind address (overrides the config file)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Bind port (overrides the config file)")

	// Seed flags
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML fixture file (required)")
	seedCmd.MarkFlagRequired("file")

	// Add commands to root
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigDir falls back to the platform config directory when the flag
// is unset.
func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "rentall"), nil
}

// openServer builds a server on the resolved config directory and attaches
// the SQLite repository. Callers own the repository and close it when done.
func openServer() (*rentall.Server, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}
	server, err := rentall.New(rentall.WithConfigDir(dir), rentall.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initializing server: %w", err)
	}

	dbPath := server.Config.DatabaseName
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(server.Config.ConfigDir, dbPath)
	}
	conn, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	if err := server.WithOptions(rentall.WithRepo(db.NewMarketRepo(conn))); err != nil {
		return nil, err
	}
	return server, nil
}

// runServe runs the API server until the listener fails or a shutdown signal
// arrives.
func runServe(cmd *cobra.Command, args []string) error {
	server, err := openServer()
	if err != nil {
		return err
	}
	defer server.Repo.Close()

	address, port := server.Config.Address, server.Config.Port
	if serveAddr != "" {
		address = serveAddr
	}
	if servePort != "" {
		port = servePort
	}
	listener, err := server.GetListener(address, port)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(listener)
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return server.Close()
	})
	return group.Wait()
}
