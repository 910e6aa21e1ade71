package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	AuthModeIntrospection = "introspection"
	AuthModeJWT           = "jwt"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	LogLevel          string        `yaml:"log-level" env:"BSI_LOG_LEVEL" env-default:"info"`
	HTTPPort          string        `yaml:"http-port" env:"BSI_SERVER_PORT" env-default:"9090"`
	AllowedOrigins    []string      `yaml:"allowed-origins" env:"BSI_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	HeartbeatInterval time.Duration `yaml:"heartbeat-interval" env:"BSI_HEARTBEAT_INTERVAL" env-default:"10s"`
	Redis             Redis         `yaml:"redis"`
	Storage           Storage       `yaml:"storage"`
	Auth              Auth          `yaml:"auth"`
	TLS               TLS           `yaml:"tls"`
}

type Redis struct {
	Host string `yaml:"host" env:"BSI_REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"BSI_REDIS_PORT" env-default:"6379"`
}

// Storage selects the roster database.
type Storage struct {
	Driver string `yaml:"driver" env:"BSI_STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"BSI_STORAGE_DSN" env-default:"bsi.db"`
}

type Auth struct {
	Mode             string        `yaml:"mode" env:"BSI_AUTH_MODE" env-default:"introspection"`
	IntrospectionURL string        `yaml:"introspection-url" env:"OU_OAUTH2_SERVER_URL" env-default:"http://localhost:3001"`
	ClientID         string        `yaml:"client-id" env:"BSI_OAUTH2_CLIENT_ID" env-default:"bsi"`
	ClientSecret     string        `yaml:"client-secret" env:"BSI_SERVER_OU_OAUTH2_SERVER_SHARED_SECRET"`
	JWTSecret        string        `yaml:"jwt-secret" env:"BSI_JWT_SECRET"`
	Timeout          time.Duration `yaml:"timeout" env:"BSI_AUTH_TIMEOUT" env-default:"10s"`
}

// TLS is enabled when both paths are set.
type TLS struct {
	CertPath string `yaml:"cert-path" env:"BSI_SERVER_CERT_PATH"`
	KeyPath  string `yaml:"key-path" env:"BSI_SERVER_KEY_PATH"`
}

// MustLoad - load all configurations in config.yml file, with environment overrides.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) validate() error {
	switch that.Auth.Mode {
	case AuthModeIntrospection:
	case AuthModeJWT:
		if that.Auth.JWTSecret == "" {
			return fmt.Errorf("auth mode %q requires jwt-secret", AuthModeJWT)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", that.Auth.Mode)
	}

	switch that.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", that.Storage.Driver)
	}

	return nil
}

// GetRedisAddr returns host:port, or an empty string when no host is configured.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *TLS) Enabled() bool {
	return that.CertPath != "" && that.KeyPath != ""
}
