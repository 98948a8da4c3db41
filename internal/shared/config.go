package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Device      DeviceConfig      `toml:"device"`
	Database    DatabaseConfig    `toml:"database"`
	Jukebox     JukeboxConfig     `toml:"jukebox"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DeviceConfig contains playback device bridge settings.
type DeviceConfig struct {
	BridgeURL      string `toml:"bridge_url"`
	Room           string `toml:"room"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-call device timeout.
func (d DeviceConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// JukeboxConfig contains queue orchestration tunables.
type JukeboxConfig struct {
	SearchLimit   int `toml:"search_limit"`
	PollAttempts  int `toml:"poll_attempts"`
	PollDelayMS   int `toml:"poll_delay_ms"`
	SettleDelayMS int `toml:"settle_delay_ms"`
	MaxVolume     int `toml:"max_volume"`
}

// PollDelay returns the fixed delay between queue readiness polls.
func (j JukeboxConfig) PollDelay() time.Duration {
	if j.PollDelayMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(j.PollDelayMS) * time.Millisecond
}

// SettleDelay returns the fixed delay after destructive device mutations.
func (j JukeboxConfig) SettleDelay() time.Duration {
	if j.SettleDelayMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(j.SettleDelayMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
