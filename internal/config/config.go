package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate when a field is omitted.
const (
	DefaultListenAddr     = ":8000"
	DefaultRedisAddr      = "localhost:6379"
	DefaultNamespace      = "default"
	DefaultTokenTTL       = 30 * time.Minute
	DefaultRequestTimeout = 10 * time.Second
	DefaultConfirmWindow  = 3 * time.Second
)

// Duration wraps time.Duration so YAML values can be written as "15m"
// or "30s" rather than nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like '30s': %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ClientConfig holds everything a client session needs to reach a
// forum service.
type ClientConfig struct {
	ServerURL      string   `yaml:"server_url"`
	PushURL        string   `yaml:"push_url,omitempty"` // Derived from server_url when omitted
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
	ConfirmWindow  Duration `yaml:"confirm_window,omitempty"`
	Token          string   `yaml:"token,omitempty"` // Saved by `openfloor login`
}

// ServerConfig holds the service daemon settings.
type ServerConfig struct {
	ListenAddr string   `yaml:"listen_addr,omitempty"`
	RedisAddr  string   `yaml:"redis_addr,omitempty"`
	Namespace  string   `yaml:"namespace,omitempty"`
	JWTSecret  string   `yaml:"jwt_secret"`
	TokenTTL   Duration `yaml:"token_ttl,omitempty"`
}

// Config is the top-level openfloor.yml configuration. Client and
// server sections are both optional so one file can serve either
// binary.
type Config struct {
	Version string        `yaml:"version"`
	Client  *ClientConfig `yaml:"client,omitempty"`
	Server  *ServerConfig `yaml:"server,omitempty"`
}

// Validate performs strict validation and applies defaults
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Client == nil && c.Server == nil {
		return fmt.Errorf("at least one of client or server must be configured")
	}

	if c.Client != nil {
		if err := c.Client.Validate(); err != nil {
			return err
		}
	}

	if c.Server != nil {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the client section and fills in defaults
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("client: server_url is required")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("client: invalid server_url: %s", c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client: invalid server_url scheme: %s (must be 'http' or 'https')", u.Scheme)
	}

	if c.PushURL != "" {
		pu, err := url.Parse(c.PushURL)
		if err != nil || pu.Host == "" {
			return fmt.Errorf("client: invalid push_url: %s", c.PushURL)
		}
		if pu.Scheme != "ws" && pu.Scheme != "wss" {
			return fmt.Errorf("client: invalid push_url scheme: %s (must be 'ws' or 'wss')", pu.Scheme)
		}
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("client: request_timeout must be positive, got %s", time.Duration(c.RequestTimeout))
	}

	if c.ConfirmWindow == 0 {
		c.ConfirmWindow = Duration(DefaultConfirmWindow)
	}
	if c.ConfirmWindow < 0 {
		return fmt.Errorf("client: confirm_window must be positive, got %s", time.Duration(c.ConfirmWindow))
	}

	return nil
}

// Validate checks the server section and fills in defaults
func (s *ServerConfig) Validate() error {
	if s.JWTSecret == "" {
		return fmt.Errorf("server: jwt_secret is required")
	}

	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.RedisAddr == "" {
		s.RedisAddr = DefaultRedisAddr
	}
	if s.Namespace == "" {
		s.Namespace = DefaultNamespace
	}
	if strings.ContainsAny(s.Namespace, ": ") {
		return fmt.Errorf("server: invalid namespace: %s (colons and spaces are not allowed)", s.Namespace)
	}

	if s.TokenTTL == 0 {
		s.TokenTTL = Duration(DefaultTokenTTL)
	}
	if s.TokenTTL < 0 {
		return fmt.Errorf("server: token_ttl must be positive, got %s", time.Duration(s.TokenTTL))
	}

	return nil
}

// applyEnv overlays OPENFLOOR_* environment variables onto the parsed
// file so deployments can override without editing openfloor.yml.
func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENFLOOR_SERVER_URL"); v != "" {
		if c.Client == nil {
			c.Client = &ClientConfig{}
		}
		c.Client.ServerURL = v
	}
	if v := os.Getenv("OPENFLOOR_PUSH_URL"); v != "" {
		if c.Client == nil {
			c.Client = &ClientConfig{}
		}
		c.Client.PushURL = v
	}
	if v := os.Getenv("OPENFLOOR_TOKEN"); v != "" {
		if c.Client == nil {
			c.Client = &ClientConfig{}
		}
		c.Client.Token = v
	}

	if v := os.Getenv("OPENFLOOR_LISTEN_ADDR"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("OPENFLOOR_REDIS_ADDR"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.RedisAddr = v
	}
	if v := os.Getenv("OPENFLOOR_NAMESPACE"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.Namespace = v
	}
	if v := os.Getenv("OPENFLOOR_JWT_SECRET"); v != "" {
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("OPENFLOOR_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid OPENFLOOR_TOKEN_TTL: %w", err)
		}
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.TokenTTL = Duration(d)
	}

	return nil
}

// Load reads and validates openfloor.yml from the specified path.
// Environment overrides are applied after parsing and before
// validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrEnv behaves like Load but tolerates a missing file, building
// the configuration from environment variables alone. Used by the
// daemon so containerized deployments need no config file at all.
func LoadOrEnv(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := &Config{Version: "1.0"}
		if err := config.applyEnv(); err != nil {
			return nil, err
		}
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	return Load(path)
}
