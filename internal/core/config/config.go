package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Database holds the Postgres connection configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the Redis connection and realtime transport configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Push holds the push-notification provider configuration.
	Push PushConfig `mapstructure:",squash"`

	// RabbitMQ holds the optional event broker configuration.
	RabbitMQ RabbitMQConfig `mapstructure:",squash"`

	// Sitemap holds the sitemap generation configuration.
	Sitemap SitemapConfig `mapstructure:",squash"`
}

// DatabaseConfig holds Postgres connection details.
type DatabaseConfig struct {
	// Host is the database server hostname.
	Host string `mapstructure:"DB_HOST" default:"localhost"`
	// Port is the database connection port.
	Port int `mapstructure:"DB_PORT" default:"5432"`
	// User is the database user.
	User string `mapstructure:"DB_USER" default:"postgres"`
	// Password is the database password.
	Password string `mapstructure:"DB_PASSWORD" default:"postgres"`
	// Name is the database name.
	Name string `mapstructure:"DB_NAME" default:"cakeshop"`
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	// URL is the Redis connection URL, e.g. redis://localhost:6379/0.
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// RealtimeEnabled toggles the realtime notification transport.
	// When false the notification fan-out uses a no-op transport.
	RealtimeEnabled bool `mapstructure:"REALTIME_ENABLED" default:"true"`
}

// PushConfig holds the push-notification provider details.
type PushConfig struct {
	// URL is the push provider send endpoint.
	URL string `mapstructure:"PUSH_API_URL" required:"true"`
	// TokenTimeoutSeconds bounds each per-token send attempt.
	TokenTimeoutSeconds int `mapstructure:"PUSH_TOKEN_TIMEOUT_SECONDS" default:"5"`
}

// RabbitMQConfig holds the optional order event broker details.
type RabbitMQConfig struct {
	// Enabled toggles lifecycle event publishing to the broker.
	Enabled bool `mapstructure:"RABBITMQ_ENABLED" default:"false"`
	// Host is the broker hostname.
	Host string `mapstructure:"RABBITMQ_HOST" default:"localhost"`
	// Port is the broker port.
	Port int `mapstructure:"RABBITMQ_PORT" default:"5672"`
	// User is the broker user.
	User string `mapstructure:"RABBITMQ_USER" default:"guest"`
	// Password is the broker password.
	Password string `mapstructure:"RABBITMQ_PASSWORD" default:"guest"`
}

// SitemapConfig holds sitemap generation details.
type SitemapConfig struct {
	// BaseURL is the public site URL used as the sitemap hostname.
	BaseURL string `mapstructure:"SITEMAP_BASE_URL" default:"https://www.egglesscakes.in"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
