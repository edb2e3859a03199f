// Package config reads the site's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Transport names accepted by CONTACT_TRANSPORT.
const (
	TransportHTTP = "http"
	TransportSMTP = "smtp"
)

// Config holds every setting the server and CLI need.
type Config struct {
	Port         string
	DatabasePath string
	StaticDir    string

	ContactEndpoint  string
	ContactTransport string
	ContactTimeout   time.Duration
	FallbackEmail    string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string

	ProbeURL      string
	ProbeInterval time.Duration
	ResendDelay   time.Duration

	AssetManifest string

	AdminUsername string
	AdminPassword string
	// DefaultAdmin is true when either admin credential fell back to the
	// development default.
	DefaultAdmin bool
}

// Load reads the configuration from environment variables. A .env file is
// picked up by the godotenv autoload import in main.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getenv("PORT", "8080"),
		DatabasePath:     getenv("DATABASE_PATH", "portfolio.db"),
		StaticDir:        getenv("STATIC_DIR", "./static"),
		ContactEndpoint:  os.Getenv("CONTACT_ENDPOINT"),
		ContactTransport: strings.ToLower(getenv("CONTACT_TRANSPORT", TransportHTTP)),
		FallbackEmail:    getenv("FALLBACK_EMAIL", "hello@example.com"),
		SMTPHost:         getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getenv("SMTP_PORT", "587"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		ToEmail:          os.Getenv("TO_EMAIL"),
		ProbeURL:         os.Getenv("PROBE_URL"),
		AssetManifest:    getenv("ASSET_MANIFEST", "assets.yaml"),
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.ContactTimeout, err = getduration("CONTACT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProbeInterval, err = getduration("PROBE_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ResendDelay, err = getduration("RESEND_DELAY", time.Second); err != nil {
		return nil, err
	}

	switch cfg.ContactTransport {
	case TransportHTTP:
		if cfg.ContactEndpoint == "" {
			return nil, fmt.Errorf("CONTACT_ENDPOINT is required for the %q transport", TransportHTTP)
		}
	case TransportSMTP:
		if cfg.ToEmail == "" {
			cfg.ToEmail = cfg.FallbackEmail
		}
	default:
		return nil, fmt.Errorf("unknown CONTACT_TRANSPORT %q", cfg.ContactTransport)
	}

	// Connectivity is judged against the upstream unless told otherwise.
	if cfg.ProbeURL == "" && cfg.ContactTransport == TransportHTTP {
		cfg.ProbeURL = cfg.ContactEndpoint
	}

	// Default credentials for development (set both in production)
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
		cfg.DefaultAdmin = true
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
		cfg.DefaultAdmin = true
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
