package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"trailerhub/internal/logging"
	"trailerhub/pkg/database"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "TRAILERHUB_CONFIG"

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"trailerhub.yaml",
	"trailerhub.yml",
	"/etc/trailerhub/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  database.Config `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       logging.Config  `koanf:"log"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	API       APIConfig       `koanf:"api"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Mirror    MirrorConfig    `koanf:"mirror"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr"`
	GRPCAddr       string   `koanf:"grpc_addr"`
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type AuthConfig struct {
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTIssuer   string        `koanf:"jwt_issuer"`
	JWTDuration time.Duration `koanf:"jwt_duration"`
	// AdminEmail is promoted to the admin role when it registers or on startup.
	AdminEmail string `koanf:"admin_email"`
}

// TMDBConfig configures the metadata provider. An empty APIKey disables it.
type TMDBConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

// APIConfig is used by the CLI and the gRPC server when they talk to the HTTP API.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type MirrorConfig struct {
	Addr     string `koanf:"addr"`
	DataPath string `koanf:"data_path"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			GRPCAddr: ":9090",
		},
		Database: database.DefaultConfig(),
		Auth: AuthConfig{
			// dev default, override in production
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "trailerhub",
			JWTDuration: 24 * time.Hour,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Timeout:      10 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
		Mirror: MirrorConfig{
			Addr:     ":8090",
			DataPath: "data/mirror.json",
		},
	}
}

// Load layers struct defaults, an optional YAML file and TRAILERHUB_* environment
// variables, in that order. A .env file in the working directory is read first.
// An empty path means: use TRAILERHUB_CONFIG or the first default path found.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if v, ok := k.Get("server.trusted_proxies").(string); ok {
		if err := k.Set("server.trusted_proxies", splitList(v)); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret must not be empty")
	}
	if c.Auth.JWTDuration <= 0 {
		return errors.New("config: auth.jwt_duration must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("config: ratelimit.requests and ratelimit.window must be positive")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"trailerhub_addr":            "server.addr",
	"trailerhub_grpc_addr":       "server.grpc_addr",
	"trailerhub_trusted_proxies": "server.trusted_proxies",
	"trailerhub_db_path":         "database.path",
	"trailerhub_jwt_secret":      "auth.jwt_secret",
	"trailerhub_jwt_issuer":      "auth.jwt_issuer",
	"trailerhub_jwt_ttl":         "auth.jwt_duration",
	"trailerhub_admin_email":     "auth.admin_email",
	"trailerhub_log_level":       "log.level",
	"trailerhub_log_format":      "log.format",
	"trailerhub_log_caller":      "log.caller",
	"tmdb_api_key":               "tmdb.api_key",
	"trailerhub_tmdb_api_key":    "tmdb.api_key",
	"trailerhub_tmdb_base_url":   "tmdb.base_url",
	"trailerhub_tmdb_timeout":    "tmdb.timeout",
	"trailerhub_api_url":         "api.base_url",
	"trailerhub_api_timeout":     "api.timeout",
	"trailerhub_rate_requests":   "ratelimit.requests",
	"trailerhub_rate_window":     "ratelimit.window",
	"trailerhub_mirror_addr":     "mirror.addr",
	"trailerhub_mirror_path":     "mirror.data_path",
}

// envTransformFunc maps known environment variables to koanf paths.
// Anything else is dropped so unrelated variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
