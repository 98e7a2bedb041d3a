package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

var validBackends = map[string]bool{
	BackendDynamoDB: true,
	BackendPostgres: true,
	BackendMemory:   true,
}

// envKeys maps the supported environment variables onto koanf keys.
// Anything not listed here is ignored.
var envKeys = map[string]string{
	"SERVER_PORT":             "server_port",
	"APP_ENV":                 "app_env",
	"LOG_LEVEL":               "log_level",
	"AUTH_DEV_MODE":           "auth.dev_mode",
	"AUTH_ISSUER":             "auth.issuer",
	"AUTH_AUDIENCE":           "auth.audience",
	"AUTH_JWKS_URL":           "auth.jwks_url",
	"STORE_BACKEND":           "store.backend",
	"AWS_REGION":              "aws.region",
	"DYNAMODB_ENDPOINT":       "aws.dynamodb_endpoint",
	"TODOS_TABLE":             "todos.table",
	"TODOS_CREATED_AT_INDEX":  "todos.index",
	"ATTACHMENTS_BUCKET":      "attachments.bucket",
	"SIGNED_URL_EXPIRATION":   "attachments.url_expiration",
	"ATTACHMENTS_PUBLIC_HOST": "attachments.public_host",
	"DB_HOST":                 "db.host",
	"DB_PORT":                 "db.port",
	"DB_USER":                 "db.user",
	"DB_PASSWORD":             "db.password",
	"DB_NAME":                 "db.name",
	"DB_SSLMODE":              "db.sslmode",
	"TRACING_ENABLED":         "tracing.enabled",
	"CORS_ALLOWED_ORIGINS":    "cors.allowed_origins",
}

type Config struct {
	ServerPort  string            `koanf:"server_port"`
	AppEnv      string            `koanf:"app_env"`
	LogLevel    string            `koanf:"log_level"`
	Auth        AuthConfig        `koanf:"auth"`
	Store       StoreConfig       `koanf:"store"`
	AWS         AWSConfig         `koanf:"aws"`
	Todos       TodosConfig       `koanf:"todos"`
	Attachments AttachmentsConfig `koanf:"attachments"`
	DB          DBConfig          `koanf:"db"`
	Tracing     TracingConfig     `koanf:"tracing"`
	CORS        CORSConfig        `koanf:"cors"`
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.Auth.DevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.Auth.DevMode && c.Auth.Issuer == "" {
		return errors.New("AUTH_ISSUER is required when AUTH_DEV_MODE is disabled")
	}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid STORE_BACKEND %q: must be one of dynamodb, postgres, memory", c.Store.Backend)
	}
	if c.Store.Backend == BackendDynamoDB {
		if c.Todos.Table == "" {
			return errors.New("TODOS_TABLE is required for the dynamodb backend")
		}
		if c.Todos.Index == "" {
			return errors.New("TODOS_CREATED_AT_INDEX is required for the dynamodb backend")
		}
	}
	if c.Attachments.Bucket == "" {
		return errors.New("ATTACHMENTS_BUCKET is required")
	}
	if c.Attachments.URLExpiration <= 0 {
		return fmt.Errorf("invalid SIGNED_URL_EXPIRATION %d: must be a positive number of seconds", c.Attachments.URLExpiration)
	}
	return nil
}

type AuthConfig struct {
	DevMode  bool   `koanf:"dev_mode"`
	Issuer   string `koanf:"issuer"`
	Audience string `koanf:"audience"`
	JWKSURL  string `koanf:"jwks_url"`
}

// KeySetURL returns the configured JWKS URL, falling back to the
// well-known location under the issuer.
func (a AuthConfig) KeySetURL() string {
	if a.JWKSURL != "" {
		return a.JWKSURL
	}
	return strings.TrimSuffix(a.Issuer, "/") + "/.well-known/jwks.json"
}

type StoreConfig struct {
	Backend string `koanf:"backend"`
}

type AWSConfig struct {
	Region           string `koanf:"region"`
	DynamoDBEndpoint string `koanf:"dynamodb_endpoint"`
}

type TodosConfig struct {
	Table string `koanf:"table"`
	Index string `koanf:"index"`
}

type AttachmentsConfig struct {
	Bucket string `koanf:"bucket"`
	// URLExpiration is the lifetime of a signed upload URL, in seconds.
	URLExpiration int    `koanf:"url_expiration"`
	PublicHost    string `koanf:"public_host"`
}

// Host returns the host serving uploaded objects.
func (a AttachmentsConfig) Host() string {
	if a.PublicHost != "" {
		return a.PublicHost
	}
	return a.Bucket + ".s3.amazonaws.com"
}

type DBConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type TracingConfig struct {
	Enabled bool `koanf:"enabled"`
}

type CORSConfig struct {
	AllowedOrigins string `koanf:"allowed_origins"`
}

// Origins splits the comma separated origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(defaultsProvider{}, nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// Empty values fall through to the defaults.
			if value == "" {
				return "", nil
			}
			return envKeys[key], value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

type defaultsProvider struct{}

func (defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("defaults provider does not support ReadBytes")
}

func (defaultsProvider) Read() (map[string]any, error) {
	return map[string]any{
		"server_port": "8080",
		"app_env":     "local",
		"log_level":   "info",
		"auth": map[string]any{
			"dev_mode": false,
		},
		"store": map[string]any{
			"backend": BackendDynamoDB,
		},
		"aws": map[string]any{
			"region": "us-east-1",
		},
		"attachments": map[string]any{
			"url_expiration": 300,
		},
		"db": map[string]any{
			"host":     "localhost",
			"port":     "5432",
			"user":     "todo",
			"password": "todo",
			"name":     "todo",
			"sslmode":  "disable",
		},
		"tracing": map[string]any{
			"enabled": false,
		},
		"cors": map[string]any{
			"allowed_origins": "*",
		},
	}, nil
}
