package rentall

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"
)

// Config holds the server configuration. When loaded through WithConfigDir
// it is backed by a viper instance and the mutating methods below persist
// changes back to the config file.
type Config struct {
	viper          *viper.Viper
	ConfigDir      string   `mapstructure:"config_dir"`           // Current config dir
	Address        string   `mapstructure:"address"`              // Address the API binds to
	Port           string   `mapstructure:"port"`                 // Port the API binds to
	Debug          bool     `mapstructure:"debug"`                // Enables gin debug mode
	DatabaseName   string   `mapstructure:"database_name"`        // SQLite database file name
	MediaDir       string   `mapstructure:"media_dir"`            // Upload directory, relative paths resolve under the config dir
	TokenSecret    string   `mapstructure:"token_secret"`         // HMAC secret for bearer tokens
	TokenTTLHours  int      `mapstructure:"token_ttl_hours"`      // Bearer token lifetime in hours
	WebhookSecret  string   `mapstructure:"webhook_secret"`       // Shared secret for payment webhook signatures
	PaymentHost    string   `mapstructure:"payment_host"`         // Base URL for sandbox checkout pages
	PlatformFee    float64  `mapstructure:"platform_fee_percent"` // Marketplace cut on each booking
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`       // Requests per second per client IP, 0 disables limiting
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`     // Burst size per client IP
	AllowedOrigins []string `mapstructure:"allowed_origins"`      // CORS origins, ["*"] allows all
}

// DefaultConfig returns the configuration used before any config file is
// loaded. The token secret default matches what local frontends expect and
// must be overridden for any real deployment.
func DefaultConfig() *Config {
	return &Config{
		Address:        "127.0.0.1",
		Port:           "8000",
		Debug:          false,
		DatabaseName:   "rentall.db",
		MediaDir:       "media",
		TokenSecret:    "rentall-super-secret-key-2024",
		TokenTTLHours:  24,
		WebhookSecret:  "whsec_sandbox",
		PaymentHost:    "http://127.0.0.1:8000",
		PlatformFee:    5.0,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		AllowedOrigins: []string{"*"},
	}
}

// setDefaults seeds the viper instance with the default configuration so a
// fresh config file is written out fully populated.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("address", defaults.Address)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("database_name", defaults.DatabaseName)
	v.SetDefault("media_dir", defaults.MediaDir)
	v.SetDefault("token_secret", defaults.TokenSecret)
	v.SetDefault("token_ttl_hours", defaults.TokenTTLHours)
	v.SetDefault("webhook_secret", defaults.WebhookSecret)
	v.SetDefault("payment_host", defaults.PaymentHost)
	v.SetDefault("platform_fee_percent", defaults.PlatformFee)
	v.SetDefault("rate_limit_rps", defaults.RateLimitRPS)
	v.SetDefault("rate_limit_burst", defaults.RateLimitBurst)
	v.SetDefault("allowed_origins", defaults.AllowedOrigins)
}

// AddAllowedOrigin appends a CORS origin and persists the change.
func (cfg *Config) AddAllowedOrigin(origin string) error {
	if cfg.viper == nil {
		return errors.New("config is not backed by a config file")
	}
	if origin == "" {
		return errors.New("origin cannot be empty")
	}
	if slices.Contains(cfg.AllowedOrigins, origin) {
		return nil
	}
	cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
	cfg.viper.Set("allowed_origins", cfg.AllowedOrigins)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

// DeleteAllowedOrigin removes a CORS origin and persists the change.
func (cfg *Config) DeleteAllowedOrigin(origin string) error {
	if cfg.viper == nil {
		return errors.New("config is not backed by a config file")
	}
	cfg.AllowedOrigins = slices.DeleteFunc(cfg.AllowedOrigins, func(o string) bool {
		return o == origin
	})
	cfg.viper.Set("allowed_origins", cfg.AllowedOrigins)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

// SetPlatformFee updates the marketplace fee percentage and persists the
// change. New bookings pick the new fee up immediately, existing bookings
// keep the fee they were priced with.
func (cfg *Config) SetPlatformFee(percent float64) error {
	if cfg.viper == nil {
		return errors.New("config is not backed by a config file")
	}
	if percent < 0 || percent > 100 {
		return errors.New("platform fee must be between 0 and 100")
	}
	cfg.PlatformFee = percent
	cfg.viper.Set("platform_fee_percent", percent)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}
