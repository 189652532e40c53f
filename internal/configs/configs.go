/*
Package configs is responsible for loading and parsing the voice service configuration.

Settings are read from environment variables through viper. The LiveKit key pair is
mandatory: without it no grant can be signed, so loading fails and the process exits.
*/
package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultGrantTTL is the validity window of every issued media grant.
	DefaultGrantTTL = 24 * time.Hour

	// DefaultMatrixTimeout bounds a single whoami round trip to the homeserver.
	DefaultMatrixTimeout = 10 * time.Second
)

// AppConfig contains all configuration parameters required for the service to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// LiveKit Settings
	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitURL       string
	GrantTTL         time.Duration

	// Matrix Settings
	MatrixHomeserverURL string
	MatrixTimeout       time.Duration

	// Telemetry Settings
	MetricsEnabled bool
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration from v, which is expected to be bound to the
// process environment (see NewViper). It applies defaults, converts types and
// validates the values, returning an error for anything unusable.
func LoadConfig(v *viper.Viper) (*AppConfig, error) {
	setDefaults(v)

	cfg := &AppConfig{
		Environment:         strings.TrimSpace(v.GetString("environment")),
		LiveKitAPIKey:       strings.TrimSpace(v.GetString("livekit_api_key")),
		LiveKitAPISecret:    strings.TrimSpace(v.GetString("livekit_api_secret")),
		LiveKitURL:          strings.TrimSpace(v.GetString("livekit_url")),
		MatrixHomeserverURL: strings.TrimRight(strings.TrimSpace(v.GetString("matrix_homeserver_url")), "/"),
		MetricsEnabled:      v.GetBool("metrics_enabled"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// --- General Server Settings ---
	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the valid range (1-65535)", port)
	}
	cfg.Port = port

	// --- Security Settings ---
	for _, origin := range strings.Split(v.GetString("allowed_origins"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{}
	}

	// --- LiveKit Settings ---
	if cfg.LiveKitAPIKey == "" || cfg.LiveKitAPISecret == "" {
		return nil, fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
	}

	ttl, err := durationValue(v, "grant_ttl")
	if err != nil {
		return nil, err
	}
	cfg.GrantTTL = ttl

	// --- Matrix Settings ---
	if cfg.MatrixHomeserverURL == "" {
		return nil, fmt.Errorf("MATRIX_HOMESERVER_URL must not be empty")
	}

	timeout, err := durationValue(v, "matrix_timeout")
	if err != nil {
		return nil, err
	}
	cfg.MatrixTimeout = timeout

	return cfg, nil
}

// NewViper returns a viper instance bound to the process environment.
// Keys are looked up case-insensitively, so "livekit_url" reads LIVEKIT_URL.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 3500)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("livekit_api_key", "")
	v.SetDefault("livekit_api_secret", "")
	v.SetDefault("livekit_url", "ws://localhost:7880")
	v.SetDefault("grant_ttl", DefaultGrantTTL.String())
	v.SetDefault("matrix_homeserver_url", "http://localhost:8008")
	v.SetDefault("matrix_timeout", DefaultMatrixTimeout.String())
	v.SetDefault("metrics_enabled", true)
}

// durationValue parses a positive duration setting such as "24h" or "10s".
func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", strings.ToUpper(key), raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", strings.ToUpper(key), d)
	}
	return d, nil
}
