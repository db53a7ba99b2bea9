package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings holds runtime settings read from the environment
type Settings struct {
	Host string `env:"GENIAL_HOST" envDefault:"localhost"`
	Port int    `env:"GENIAL_PORT" envDefault:"8080"`

	// Storage selects the persistence backend: sqlite, file or none
	Storage    string `env:"GENIAL_STORAGE" envDefault:"sqlite"`
	DBPath     string `env:"GENIAL_DB_PATH" envDefault:"genial.db"`
	DataDir    string `env:"GENIAL_DATA_DIR" envDefault:"./data"`
	PresetsDir string `env:"GENIAL_PRESETS_DIR" envDefault:"./presets"`

	HeartbeatInterval time.Duration `env:"GENIAL_HEARTBEAT_INTERVAL" envDefault:"5s"`
	ClientTimeout     time.Duration `env:"GENIAL_CLIENT_TIMEOUT" envDefault:"10s"`
	SweepInterval     time.Duration `env:"GENIAL_SWEEP_INTERVAL" envDefault:"30s"`
	MailboxSize       int           `env:"GENIAL_MAILBOX_SIZE" envDefault:"256"`

	Debug bool `env:"GENIAL_DEBUG" envDefault:"false"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED" envDefault:"false"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadSettings parses and validates Settings from the environment
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks settings for values the server cannot run with
func (s Settings) Validate() error {
	var errs []error
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", s.Port))
	}
	switch s.Storage {
	case "sqlite", "file", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", s.Storage))
	}
	if s.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("heartbeat interval must be positive"))
	}
	if s.ClientTimeout <= s.HeartbeatInterval {
		errs = append(errs, errors.New("client timeout must exceed heartbeat interval"))
	}
	if s.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	if s.MailboxSize <= 0 {
		errs = append(errs, errors.New("mailbox size must be positive"))
	}
	if s.NgrokEnabled && s.NgrokAuthToken == "" {
		errs = append(errs, errors.New("NGROK_AUTHTOKEN is required when ngrok is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Addr returns host:port
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
