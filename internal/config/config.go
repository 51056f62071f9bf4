package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the monitor, watcher and zone editor binaries.
type Config struct {
	// ZonesFile is the path to the JSON file with restricted zones.
	ZonesFile string `yaml:"zones_file"`
	// Zone restricts monitoring to a single zone by name; empty means all zones.
	Zone string `yaml:"zone,omitempty"`
	// Source is a replay file (.jsonl), a video file or a camera index.
	Source string `yaml:"source"`
	// Model is the ONNX detector model used with video sources.
	Model string `yaml:"model,omitempty"`
	// ConfidenceThreshold drops detections scoring below it.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// NoTracking discards tracker identities, running in untracked mode.
	NoTracking bool `yaml:"no_tracking"`
	// Cooldown is the minimum time an alarm stays raised after the last intrusion.
	Cooldown time.Duration `yaml:"cooldown"`
	// ListenAddress enables the gRPC verdict service when set (e.g. ":50061").
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ServerAddress is the monitor address the watcher connects to.
	ServerAddress string `yaml:"server_address,omitempty"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Display opens an OpenCV window with the annotated stream (gocv builds only).
	Display bool `yaml:"display,omitempty"`
	// Telegram configures alarm notifications.
	Telegram Telegram `yaml:"telegram,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogFormat is console or json.
	LogFormat string `yaml:"log_format,omitempty"`
}

// Telegram holds bot credentials for alarm notifications.
type Telegram struct {
	// Token is the bot API token. Prefer the INTRUSION_TELEGRAM_TOKEN variable.
	Token string `yaml:"token,omitempty"`
	// ChatID is the chat receiving notifications.
	ChatID int64 `yaml:"chat_id,omitempty"`
}

// Enabled reports whether notifications can be sent.
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "intrusion-settings.yaml"

	// DefaultZonesFilename is the default location of the zones file.
	DefaultZonesFilename = "data/restricted_zones.json"

	// DefaultConfidenceThreshold matches the detector default.
	DefaultConfidenceThreshold = 0.4

	// DefaultCooldown is the default alarm cooldown.
	DefaultCooldown = 3 * time.Second

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Environment variables overriding file settings.
const (
	EnvTelegramToken  = "INTRUSION_TELEGRAM_TOKEN"
	EnvTelegramChatID = "INTRUSION_TELEGRAM_CHAT_ID"
	EnvZonesFile      = "INTRUSION_ZONES_FILE"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errConfidenceRange is returned for thresholds outside [0, 1].
	errConfidenceRange = errors.New("confidence threshold must be within [0, 1]")
	// errNegativeCooldown is returned for negative cooldowns.
	errNegativeCooldown = errors.New("cooldown must not be negative")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := new(Config)

	//nolint:errcheck // Defaults are always valid.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns defaults when the file does not exist,
// so binaries can run on flags alone.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = new(Config)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold a bot token.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv loads a .env file from the working directory, if present,
// and overrides settings from environment variables.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v := os.Getenv(EnvZonesFile); v != "" {
		cfg.ZonesFile = v
	}

	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.Token = v
	}

	if v := os.Getenv(EnvTelegramChatID); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTelegramChatID, err)
		}

		cfg.Telegram.ChatID = chatID
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ZonesFile == "" {
		settings.ZonesFile = DefaultZonesFilename
	}

	if settings.ConfidenceThreshold == 0 {
		settings.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	if settings.ConfidenceThreshold < 0 || settings.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: got %v", errConfidenceRange, settings.ConfidenceThreshold)
	}

	if settings.Cooldown < 0 {
		return errNegativeCooldown
	}

	if settings.Cooldown == 0 {
		settings.Cooldown = DefaultCooldown
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(settings.ListenAddress); err != nil {
			return fmt.Errorf("invalid listen address: %w", err)
		}
	}

	if settings.ServerAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
			return fmt.Errorf("invalid server address: %w", err)
		}
	}

	return nil
}
