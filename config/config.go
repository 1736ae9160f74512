// Package config centralises runtime configuration for the Coinbase Advanced Trade client.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coachpo/coinbase-advanced/errs"
)

// Environment identifies the runtime environment.
type Environment string

// Scheme names an authentication scheme.
type Scheme string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

const (
	// SchemeLegacy signs requests with an HMAC shared secret.
	SchemeLegacy Scheme = "legacy"
	// SchemeCloud signs requests with an ES256 JWT built from a cloud API key.
	SchemeCloud Scheme = "cloud"
)

const (
	// DefaultRESTBaseURL is the production REST host.
	DefaultRESTBaseURL = "https://api.coinbase.com"
	// DefaultWebsocketURL is the production market data websocket.
	DefaultWebsocketURL = "wss://advanced-trade-ws.coinbase.com"

	defaultHTTPTimeout      = 10 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultRateLimit        = 30
	defaultRateBurst        = 30
	defaultMaxPages         = 1000
	defaultServiceName      = "coinbase-advanced"
)

// Credentials captures API credentials used for authenticated requests.
// For the cloud scheme APIKey holds the key name and APISecret the PEM encoded EC private key.
type Credentials struct {
	Scheme    Scheme `yaml:"scheme"`
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
}

// RESTConfig configures the REST transport.
type RESTConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	HTTPTimeout time.Duration `yaml:"httpTimeout"`
	RateLimit   float64       `yaml:"rateLimit"`
	RateBurst   int           `yaml:"rateBurst"`
	MaxPages    int           `yaml:"maxPages"`
}

// WebsocketConfig configures the websocket transport.
type WebsocketConfig struct {
	URL              string        `yaml:"url"`
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	WriteTimeout     time.Duration `yaml:"writeTimeout"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
}

// LogConfig configures library diagnostics.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Settings contains the configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment     `yaml:"environment"`
	Credentials Credentials     `yaml:"credentials"`
	REST        RESTConfig      `yaml:"rest"`
	Websocket   WebsocketConfig `yaml:"websocket"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Log         LogConfig       `yaml:"log"`
}

// Default returns the default configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Credentials: Credentials{Scheme: SchemeLegacy, APIKey: "", APISecret: ""},
		REST: RESTConfig{
			BaseURL:     DefaultRESTBaseURL,
			HTTPTimeout: defaultHTTPTimeout,
			RateLimit:   defaultRateLimit,
			RateBurst:   defaultRateBurst,
			MaxPages:    defaultMaxPages,
		},
		Websocket: WebsocketConfig{
			URL:              DefaultWebsocketURL,
			HandshakeTimeout: defaultHandshakeTimeout,
			WriteTimeout:     defaultWriteTimeout,
		},
		Telemetry: TelemetryConfig{OTLPEndpoint: "", ServiceName: defaultServiceName},
		Log:       LogConfig{Level: "info", File: "", MaxSizeMB: 100, MaxBackups: 3},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	return applyEnv(Default())
}

// Load reads a YAML configuration file, fills unset values from defaults and applies environment overrides.
func Load(ctx context.Context, path string) (Settings, error) {
	file, err := os.Open(strings.TrimSpace(path))
	if err != nil {
		return Settings{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(ctx, file)
}

// LoadOrDefault behaves like Load but falls back to FromEnv when the file does not exist.
func LoadOrDefault(ctx context.Context, path string) (Settings, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("COINBASE_CONFIG"))
	}
	if path == "" {
		cfg := FromEnv()
		return cfg, false, cfg.Validate()
	}
	cfg, err := Load(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = FromEnv()
		return cfg, false, cfg.Validate()
	}
	if err != nil {
		return Settings{}, false, err
	}
	return cfg, true, nil
}

// Read decodes YAML configuration from r.
func Read(ctx context.Context, r io.Reader) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	bytes, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate reports configuration that the client cannot operate with.
func (s Settings) Validate() error {
	switch s.Credentials.Scheme {
	case SchemeLegacy, SchemeCloud:
	default:
		return errs.New("config", errs.CodeConfig,
			errs.WithMessage(fmt.Sprintf("unsupported auth scheme %q", s.Credentials.Scheme)))
	}
	if strings.TrimSpace(s.REST.BaseURL) == "" {
		return errs.New("config", errs.CodeConfig, errs.WithMessage("rest base url required"))
	}
	if strings.TrimSpace(s.Websocket.URL) == "" {
		return errs.New("config", errs.CodeConfig, errs.WithMessage("websocket url required"))
	}
	if s.REST.HTTPTimeout < 0 || s.Websocket.HandshakeTimeout < 0 {
		return errs.New("config", errs.CodeConfig, errs.WithMessage("timeouts must not be negative"))
	}
	if s.REST.MaxPages < 0 {
		return errs.New("config", errs.CodeConfig, errs.WithMessage("maxPages must not be negative"))
	}
	return nil
}

// HasCredentials reports whether both key and secret are set.
func (c Credentials) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.APISecret) != ""
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithLegacyKeys configures HMAC credentials.
func WithLegacyKeys(key, secret string) Option {
	return func(s *Settings) {
		s.Credentials = Credentials{Scheme: SchemeLegacy, APIKey: strings.TrimSpace(key), APISecret: secret}
	}
}

// WithCloudKeys configures cloud API key credentials.
func WithCloudKeys(keyName, privateKeyPEM string) Option {
	return func(s *Settings) {
		s.Credentials = Credentials{Scheme: SchemeCloud, APIKey: strings.TrimSpace(keyName), APISecret: privateKeyPEM}
	}
}

// WithRESTBaseURL overrides the REST host.
func WithRESTBaseURL(baseURL string) Option {
	baseURL = strings.TrimSpace(baseURL)
	return func(s *Settings) {
		if baseURL != "" {
			s.REST.BaseURL = baseURL
		}
	}
}

// WithWebsocketURL overrides the websocket endpoint.
func WithWebsocketURL(url string) Option {
	url = strings.TrimSpace(url)
	return func(s *Settings) {
		if url != "" {
			s.Websocket.URL = url
		}
	}
}

// WithHTTPTimeout overrides the per-request timeout.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(s *Settings) {
		if timeout > 0 {
			s.REST.HTTPTimeout = timeout
		}
	}
}

// WithRateLimit overrides the client-side request rate. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Settings) {
		s.REST.RateLimit = perSecond
		s.REST.RateBurst = burst
	}
}

func applyEnv(cfg Settings) Settings {
	if env := strings.TrimSpace(os.Getenv("COINBASE_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_AUTH_SCHEME")); v != "" {
		cfg.Credentials.Scheme = Scheme(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_API_KEY")); v != "" {
		cfg.Credentials.APIKey = v
	}
	if v := os.Getenv("COINBASE_API_SECRET"); strings.TrimSpace(v) != "" {
		// PEM keys are commonly exported with literal \n sequences.
		cfg.Credentials.APISecret = strings.ReplaceAll(v, `\n`, "\n")
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_REST_BASE_URL")); v != "" {
		cfg.REST.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_HTTP_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.REST.HTTPTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_RATE_LIMIT")); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.REST.RateLimit = rate
		}
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_RATE_BURST")); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			cfg.REST.RateBurst = burst
		}
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_MAX_PAGES")); v != "" {
		if pages, err := strconv.Atoi(v); err == nil {
			cfg.REST.MaxPages = pages
		}
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_WS_URL")); v != "" {
		cfg.Websocket.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("COINBASE_WS_HANDSHAKE_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Websocket.HandshakeTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		cfg.Log.File = v
	}
	return cfg
}
