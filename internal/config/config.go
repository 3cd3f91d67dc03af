// Package config loads dancepair settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Mail      MailConfig      `mapstructure:"mail"`
	Directory DirectoryConfig `mapstructure:"directory"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type TelemetryConfig struct {
	ServiceName    string  `mapstructure:"service_name" validate:"required"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	Exporter       string  `mapstructure:"exporter" validate:"oneof=stdout otlp none"`
	Insecure       bool    `mapstructure:"insecure"`
	SampleRatio    float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// QueueConfig sizes the notification delivery queue.
type QueueConfig struct {
	MaxWorkers int `mapstructure:"max_workers" validate:"gt=0,lte=100"`
}

// MailConfig selects how rendered notifications leave the process.
// The SES fields are only read when Sender is "ses".
type MailConfig struct {
	Sender    string `mapstructure:"sender" validate:"oneof=log ses"`
	From      string `mapstructure:"from" validate:"required_if=Sender ses"`
	Region    string `mapstructure:"region" validate:"required_if=Sender ses"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
}

type DirectoryConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// Address returns the listen address for the HTTP server.
func (c ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// envAliases maps config keys to the plain environment names accepted
// alongside the DANCEPAIR_ prefixed ones.
var envAliases = map[string][]string{
	"server.port":               {"DANCEPAIR_SERVER_PORT", "PORT"},
	"database.path":             {"DANCEPAIR_DATABASE_PATH", "DATABASE_PATH"},
	"telemetry.service_name":    {"DANCEPAIR_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME"},
	"telemetry.service_version": {"DANCEPAIR_TELEMETRY_SERVICE_VERSION", "OTEL_SERVICE_VERSION"},
	"telemetry.environment":     {"DANCEPAIR_TELEMETRY_ENVIRONMENT", "OTEL_ENVIRONMENT"},
	"telemetry.exporter":        {"DANCEPAIR_TELEMETRY_EXPORTER", "OTEL_EXPORTER"},
	"telemetry.insecure":        {"DANCEPAIR_TELEMETRY_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "dancepair.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("telemetry.service_name", "dancepair")
	v.SetDefault("telemetry.service_version", "0.1.0")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("mail.sender", "log")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.region", "")
	v.SetDefault("mail.access_key", "")
	v.SetDefault("mail.secret_key", "")
	v.SetDefault("directory.cache_ttl", 5*time.Minute)
}

// Load reads configuration. Precedence, highest first: environment,
// the YAML file named by DANCEPAIR_CONFIG (or configFile when non-empty),
// defaults. The result is validated before it is returned.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DANCEPAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if configFile == "" {
		_ = v.BindEnv("config", "DANCEPAIR_CONFIG")
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags and reports every failing
// field.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
