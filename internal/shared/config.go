package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvAPIURL          = "VMARKER_API_URL"
	EnvSupabaseURL     = "VMARKER_SUPABASE_URL"
	EnvSupabaseAnonKey = "VMARKER_SUPABASE_ANON_KEY"
	EnvStorageBackend  = "VMARKER_STORAGE"
	EnvS3Bucket        = "VMARKER_S3_BUCKET"
	EnvRequestsPerSec  = "VMARKER_REQUESTS_PER_SECOND"
)

// DefaultAPIURL is used when neither the environment nor config.toml names a backend.
const DefaultAPIURL = "http://localhost:8000"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Video    VideoConfig    `toml:"video"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	HeadersPath       string  `toml:"headers_path"` // cURL dump with extra headers, e.g. for a gateway in front of the backend
}

// Timeout returns the per-request timeout as a [time.Duration].
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig contains the hosted auth provider settings.
type AuthConfig struct {
	SupabaseURL string `toml:"supabase_url"`
	AnonKey     string `toml:"anon_key"`
}

// Enabled reports whether an auth provider is configured.
func (c AuthConfig) Enabled() bool {
	return c.SupabaseURL != "" && c.AnonKey != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local helper server (auth callback and previews).
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the http URL the helper server is reachable at.
func (c ServerConfig) BaseURL() string {
	return "http://" + c.Addr()
}

// StorageConfig selects where generated artifacts are written.
type StorageConfig struct {
	Backend   string   `toml:"backend"` // "local" or "s3"
	OutputDir string   `toml:"output_dir"`
	S3        S3Config `toml:"s3"`
}

// S3Config holds bucket settings; credentials come from the standard AWS chain.
type S3Config struct {
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// VideoConfig contains local pre-upload checks.
type VideoConfig struct {
	Probe bool `toml:"probe"` // run ffprobe locally before uploading
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists and falls back to defaults otherwise, then applies
// environment overrides (including any variables found in .env files).
func ResolveConfig(path string, envFiles ...string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	LoadEnvFiles(envFiles...)
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadEnvFiles loads .env style files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides config values from environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvSupabaseURL); v != "" {
		c.Auth.SupabaseURL = v
	}
	if v := os.Getenv(EnvSupabaseAnonKey); v != "" {
		c.Auth.AnonKey = v
	}
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Storage.S3.Bucket = v
	}
	if v := os.Getenv(EnvRequestsPerSec); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRequestsPerSec, v)
		}
		c.API.RequestsPerSecond = rps
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIURL
	}
	return nil
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
