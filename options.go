package rentall

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/oamouyal-jpg/rentall/auth"
	"github.com/oamouyal-jpg/rentall/media"
	"github.com/oamouyal-jpg/rentall/payments"
)

// WithOptions applies a series of configuration functions to the server
// instance. Each option function can modify the server configuration and
// return an error if it fails.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (server *Server) WithOptions(options ...func(*Server) error) error {
	for _, option := range options {
		err := option(server)
		if err != nil {
			return fmt.Errorf("applying option on server : %w", err)
		}
	}
	return nil
}

// WithConfigDir configures the server to use the specified configuration
// directory. It creates the directory if it doesn't exist and initializes the
// configuration file using Viper. Environment variables prefixed with
// RENTALL_ override file values.
//
// Parameters:
//   - appConfigDir: Path to the configuration directory
//
// Returns:
//   - func(*Server) error: Configuration function that sets up the config directory
func WithConfigDir(appConfigDir string) func(*Server) error {
	return func(server *Server) error {
		_, err := os.ReadDir(appConfigDir)
		if err != nil {
			if os.IsNotExist(err) {
				log.Println("[*] creating config dir")
				err := os.MkdirAll(appConfigDir, 0700)
				if err != nil {
					return fmt.Errorf("creating config dir %s: %w", appConfigDir, err)
				}
			} else {
				return fmt.Errorf("checking if directory exists %s: %w", appConfigDir, err)
			}
		}
		// At this point, the directory exists or was created successfully
		server.ConfigDir = appConfigDir

		// VIPER
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(appConfigDir)
		v.SetEnvPrefix("RENTALL")
		v.AutomaticEnv()
		setDefaults(v)
		err = v.ReadInConfig()
		if err != nil {
			// need to check if the error is config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// Config file is not found
				err = v.SafeWriteConfig()
				if err != nil {
					return fmt.Errorf("writing config file : %w", err)
				}
			} else {
				return fmt.Errorf("reading config file : %w", err)
			}
		}
		if err := v.Unmarshal(&server.Config); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}

		server.Config.viper = v
		server.Config.ConfigDir = appConfigDir
		// Rewrite entire file from struct
		err = v.WriteConfig()
		if err != nil {
			return fmt.Errorf("writing config after unmarshalling : %w", err)
		}
		return nil
	}
}

// WithRepo will take the Repository interface, closing any repository the
// server already holds before replacing it
func WithRepo(repo Repository) func(*Server) error {
	return func(server *Server) error {
		// First we need to check if there is a repo
		if server.Repo != nil {
			if err := server.Repo.Close(); err != nil {
				return err
			}
			server.Repo = nil
		}
		server.Repo = repo
		return nil
	}
}

// WithLogger sets the structured logger used for request and error logs.
// A nil logger falls back to a no-op logger so callers can pass through an
// optional flag value without checking it.
func WithLogger(logger *zap.Logger) func(*Server) error {
	return func(server *Server) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		server.Logger = logger
		return nil
	}
}

// WithTokens sets the token issuer used for authentication
func WithTokens(tokens *auth.Tokens) func(*Server) error {
	return func(server *Server) error {
		if tokens == nil {
			return fmt.Errorf("tokens cannot be nil")
		}
		server.Tokens = tokens
		return nil
	}
}

// WithPayments sets the checkout provider used for bookings
func WithPayments(provider payments.Provider) func(*Server) error {
	return func(server *Server) error {
		if provider == nil {
			return fmt.Errorf("payment provider cannot be nil")
		}
		server.Payments = provider
		return nil
	}
}

// WithMediaStore sets the store used for uploaded listing images
func WithMediaStore(store *media.Store) func(*Server) error {
	return func(server *Server) error {
		if store == nil {
			return fmt.Errorf("media store cannot be nil")
		}
		server.Media = store
		return nil
	}
}
